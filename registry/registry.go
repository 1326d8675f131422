/*
Package registry holds the process-wide mapping from type identifiers to encode/decode
functions, and the explicit type descriptors used to resolve metadata tags back into go
types.

Go cannot look a type up by name at runtime, so every type that should be decodable from
a tag must opt in, either through RegisterType or through RegisterFor, which records the
type while registering its functions.

Built-in Entries

New() returns a registry pre-populated with entries for common library types (see
builtins.go). They are ordinary entries: registering the same type again replaces them.

Concurrency

Registration takes a write lock, lookups take a read lock. A TypeRegistry is safe for
concurrent use.
*/
package registry

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/unijson-go/internal/structfields"
	"github.com/illuscio-dev/unijson-go/metatag"
	"github.com/illuscio-dev/unijson-go/typeid"
	"github.com/illuscio-dev/unijson-go/unierrors"
)

// EncodeFunc turns an instance into a string-keyed mapping. Values of the mapping are
// encoded recursively by the engine.
type EncodeFunc func(value interface{}) (map[string]interface{}, error)

// DecodeFunc builds an instance from a mapping whose values were already decoded and
// whose tag keys were stripped.
type DecodeFunc func(fields map[string]interface{}) (interface{}, error)

// Entry is a registered (encode, decode) pair. Decode may be nil.
type Entry struct {
	ID     typeid.ID
	Encode EncodeFunc
	Decode DecodeFunc
}

// Resolution is everything the decoder needs to know about a tagged type.
type Resolution struct {
	// ID after aliases were followed.
	ID typeid.ID
	// Registered type descriptor. Nil when the type is only known through its decoder.
	Type reflect.Type
	// Registered decoder, may be nil.
	Decode DecodeFunc
}

// TypeRegistry maps type identifiers to registered functions and type descriptors.
type TypeRegistry struct {
	lock sync.RWMutex

	// ID:Entry mapping
	entries map[typeid.ID]*Entry
	// ID:reflect.Type mapping used to resolve tags.
	types map[typeid.ID]reflect.Type
	// Tag ID:Registered ID mapping.
	aliases map[typeid.ID]typeid.ID

	logger *zap.Logger
}

// NewEmpty returns a registry without any entry.
func NewEmpty() *TypeRegistry {
	return &TypeRegistry{
		entries: make(map[typeid.ID]*Entry),
		types:   make(map[typeid.ID]reflect.Type),
		aliases: make(map[typeid.ID]typeid.ID),
		logger:  zap.NewNop(),
	}
}

// New returns a registry pre-populated with the built-in entries.
func New() (*TypeRegistry, error) {
	registry := NewEmpty()
	if err := registerBuiltins(registry); err != nil {
		return nil, xerrors.Errorf("error registering built-in entries: %w", err)
	}
	return registry, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *TypeRegistry
)

// Default returns the process-wide registry, created with New() on first use.
func Default() *TypeRegistry {
	defaultOnce.Do(func() {
		registry, err := New()
		if err != nil {
			// Built-ins are static, failing here is a programming error.
			panic(err)
		}
		defaultRegistry = registry
	})
	return defaultRegistry
}

// SetLogger replaces the logger used to report overridden entries.
func (registry *TypeRegistry) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry.lock.Lock()
	defer registry.lock.Unlock()
	registry.logger = logger
}

// Register associates id with encode and an optional decode function. Registering an
// id again replaces the previous entry.
func (registry *TypeRegistry) Register(id typeid.ID, encode EncodeFunc, decode DecodeFunc) error {
	if err := id.Validate(); err != nil {
		return unierrors.InvalidRegistration.Wrap(err, "malformed type id")
	}
	if encode == nil {
		return unierrors.InvalidRegistration.Newf("nil encode function for %v", id)
	}

	registry.lock.Lock()
	defer registry.lock.Unlock()

	registry.setEntry(&Entry{ID: id, Encode: encode, Decode: decode})
	return nil
}

// RegisterFor registers encode and decode for the type of sample, and records that type
// so tags naming it can be resolved.
func (registry *TypeRegistry) RegisterFor(
	sample interface{}, encode EncodeFunc, decode DecodeFunc,
) error {
	id, sampleType, err := describe(sample)
	if err != nil {
		return err
	}
	if encode == nil {
		return unierrors.InvalidRegistration.Newf("nil encode function for %v", id)
	}

	registry.lock.Lock()
	defer registry.lock.Unlock()

	registry.setEntry(&Entry{ID: id, Encode: encode, Decode: decode})
	registry.types[id] = sampleType
	return nil
}

// RegisterType records the types of samples so tags naming them can be resolved. The
// decoder produces values of the sample's exact type: register T{} to get T back and
// &T{} to get *T back. Either all samples are registered or none is.
func (registry *TypeRegistry) RegisterType(samples ...interface{}) error {
	described := make(map[typeid.ID]reflect.Type, len(samples))
	for _, sample := range samples {
		id, sampleType, err := describe(sample)
		if err != nil {
			return err
		}
		described[id] = sampleType
	}

	registry.lock.Lock()
	defer registry.lock.Unlock()

	for id, sampleType := range described {
		registry.types[id] = sampleType
	}
	return nil
}

// Alias makes tags naming from resolve to the registration of to.
func (registry *TypeRegistry) Alias(from typeid.ID, to typeid.ID) error {
	if err := from.Validate(); err != nil {
		return unierrors.InvalidRegistration.Wrap(err, "malformed alias")
	}
	if err := to.Validate(); err != nil {
		return unierrors.InvalidRegistration.Wrap(err, "malformed alias target")
	}
	if from == to {
		return unierrors.InvalidRegistration.Newf("%v cannot alias itself", from)
	}

	registry.lock.Lock()
	defer registry.lock.Unlock()

	registry.aliases[from] = to
	return nil
}

// LookupEncoder returns the encode function registered for id.
func (registry *TypeRegistry) LookupEncoder(id typeid.ID) (EncodeFunc, bool) {
	registry.lock.RLock()
	defer registry.lock.RUnlock()

	entry, ok := registry.entries[id]
	if !ok {
		return nil, false
	}
	return entry.Encode, true
}

// EncoderFor returns the encode function registered for id along with the type
// descriptor recorded for id, if any. The engine uses the descriptor to hand the function
// a value of the registered pointer depth.
func (registry *TypeRegistry) EncoderFor(id typeid.ID) (EncodeFunc, reflect.Type, bool) {
	registry.lock.RLock()
	defer registry.lock.RUnlock()

	entry, ok := registry.entries[id]
	if !ok {
		return nil, nil, false
	}
	return entry.Encode, registry.types[id], true
}

// LookupDecoder returns the decode function registered for id, following aliases.
func (registry *TypeRegistry) LookupDecoder(id typeid.ID) (DecodeFunc, bool) {
	registry.lock.RLock()
	defer registry.lock.RUnlock()

	entry, ok := registry.entries[registry.canonical(id)]
	if !ok || entry.Decode == nil {
		return nil, false
	}
	return entry.Decode, true
}

// HandlesEncode returns true if an encode function is registered for id.
func (registry *TypeRegistry) HandlesEncode(id typeid.ID) bool {
	_, ok := registry.LookupEncoder(id)
	return ok
}

// HandlesDecode returns true if a decode function is registered for id.
func (registry *TypeRegistry) HandlesDecode(id typeid.ID) bool {
	_, ok := registry.LookupDecoder(id)
	return ok
}

// Resolve finds the type and decoder a tag naming id refers to. It fails with
// UnresolvableType when neither a type descriptor nor a decoder is registered.
func (registry *TypeRegistry) Resolve(id typeid.ID) (Resolution, error) {
	registry.lock.RLock()
	defer registry.lock.RUnlock()

	resolution := Resolution{ID: registry.canonical(id)}
	resolution.Type = registry.types[resolution.ID]
	if entry, ok := registry.entries[resolution.ID]; ok {
		resolution.Decode = entry.Decode
	}

	if resolution.Type == nil && resolution.Decode == nil {
		return Resolution{}, unierrors.UnresolvableType.
			Newf("no type registered for %v", id).
			WithData("module", id.Namespace).
			WithData("class", id.Name)
	}
	return resolution, nil
}

// ResolveType returns the registered go type for id.
func (registry *TypeRegistry) ResolveType(id typeid.ID) (reflect.Type, error) {
	registry.lock.RLock()
	defer registry.lock.RUnlock()

	resolved, ok := registry.types[registry.canonical(id)]
	if !ok {
		return nil, unierrors.UnresolvableType.
			Newf("no type registered for %v", id).
			WithData("module", id.Namespace).
			WithData("class", id.Name)
	}
	return resolved, nil
}

// Entries returns a snapshot of the registered entries sorted by id.
func (registry *TypeRegistry) Entries() []Entry {
	registry.lock.RLock()
	defer registry.lock.RUnlock()

	entries := make([]Entry, 0, len(registry.entries))
	for _, entry := range registry.entries {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID.String() < entries[j].ID.String()
	})
	return entries
}

// Len returns the number of registered entries.
func (registry *TypeRegistry) Len() int {
	registry.lock.RLock()
	defer registry.lock.RUnlock()
	return len(registry.entries)
}

// Must hold the write lock.
func (registry *TypeRegistry) setEntry(entry *Entry) {
	if _, exists := registry.entries[entry.ID]; exists {
		registry.logger.Debug(
			"replacing registered entry", zap.Stringer("type", entry.ID),
		)
	}
	registry.entries[entry.ID] = entry
}

// Must hold a lock.
func (registry *TypeRegistry) canonical(id typeid.ID) typeid.ID {
	if target, ok := registry.aliases[id]; ok {
		return target
	}
	return id
}

// describe validates a registration sample and returns its id and type.
func describe(sample interface{}) (typeid.ID, reflect.Type, error) {
	if sample == nil {
		return typeid.Zero, nil, unierrors.InvalidRegistration.Newf("nil sample")
	}

	sampleType := reflect.TypeOf(sample)
	id, ok := typeid.OfType(sampleType)
	if !ok {
		return typeid.Zero, nil, unierrors.InvalidRegistration.
			Newf("%v is not a named type", sampleType).
			WithData("type", sampleType.String())
	}

	if structType := typeid.Indirect(sampleType); structType.Kind() == reflect.Struct {
		if key, collides := metatag.Collides(structfields.Keys(structType)); collides {
			return typeid.Zero, nil, unierrors.InvalidRegistration.
				Newf("%v has a field named after reserved key %q", id, key).
				WithData("type", id.String())
		}
	}

	return id, sampleType, nil
}
