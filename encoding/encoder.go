package encoding

import (
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/illuscio-dev/unijson-go/internal/structfields"
	"github.com/illuscio-dev/unijson-go/metatag"
	"github.com/illuscio-dev/unijson-go/typeid"
	"github.com/illuscio-dev/unijson-go/unierrors"
)

// EncodeValue turns content into a tree of JSON-native values (nil, bool, numbers,
// strings, []byte, []interface{}, map[string]interface{}) with metadata tags wherever a
// typed value was encoded. The tree is what the baseline codec serializes.
func (engine *Engine) EncodeValue(content interface{}) (interface{}, error) {
	state := &encodeState{
		engine:   engine,
		visiting: make(map[visit]struct{}),
		maxDepth: engine.opts.Depth(),
	}
	return state.encode(reflect.ValueOf(content))
}

// visit identifies a reference value on the current path.
type visit struct {
	pointer   uintptr
	valueType reflect.Type
	length    int
}

type encodeState struct {
	engine   *Engine
	visiting map[visit]struct{}
	depth    int
	maxDepth int
}

func (state *encodeState) encode(value reflect.Value) (interface{}, error) {
	for value.IsValid() && value.Kind() == reflect.Interface {
		value = value.Elem()
	}
	if !value.IsValid() {
		return nil, nil
	}
	if value.Kind() == reflect.Ptr && value.IsNil() {
		return nil, nil
	}

	state.depth++
	defer func() { state.depth-- }()
	if state.depth > state.maxDepth {
		return nil, unierrors.UnencodableType.
			Newf("maximum depth of %d exceeded", state.maxDepth).
			WithData("type", value.Type().String())
	}

	if id, named := typeid.OfType(value.Type()); named {
		encoded, handled, err := state.encodeRegistered(id, value)
		if handled || err != nil {
			return encoded, err
		}

		encoded, handled, err = state.encodeDescribed(id, value)
		if handled || err != nil {
			return encoded, err
		}
	}

	switch value.Kind() {
	case reflect.Ptr:
		return state.encodePointer(value)
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64, reflect.String:
		return value.Interface(), nil
	case reflect.Slice:
		if value.IsNil() || value.Type().Elem().Kind() == reflect.Uint8 {
			return value.Interface(), nil
		}
		return state.encodeSequence(value)
	case reflect.Array:
		if value.Type().Elem().Kind() == reflect.Uint8 {
			return value.Interface(), nil
		}
		return state.encodeSequence(value)
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil, unencodable(value, "mapping keys must be strings")
		}
		if value.IsNil() {
			return value.Interface(), nil
		}
		return state.encodeMapping(value)
	case reflect.Struct:
		return state.encodeStruct(value)
	default:
		return nil, unencodable(value, "no encoding strategy applies")
	}
}

// Registered encoder.
func (state *encodeState) encodeRegistered(
	id typeid.ID, value reflect.Value,
) (encoded interface{}, handled bool, err error) {
	encode, registeredType, ok := state.engine.registry.EncoderFor(id)
	if !ok {
		return nil, false, nil
	}

	argument, ok := conformTo(value, registeredType)
	if !ok {
		return nil, true, unencodable(value, "value does not match registered type")
	}

	state.engine.logger.Debug("encoding with registered function", zap.Stringer("type", id))
	fields, err := state.engine.safeEncode(encode, argument.Interface())
	if err != nil {
		return state.strategyFailed(id, "registered encoder", err)
	}
	return state.finishObject(id, value, fields)
}

// Self-describing method.
func (state *encodeState) encodeDescribed(
	id typeid.ID, value reflect.Value,
) (encoded interface{}, handled bool, err error) {
	describer, ok := asDescriber(value)
	if !ok {
		return nil, false, nil
	}

	state.engine.logger.Debug("encoding with DescribeFields", zap.Stringer("type", id))
	fields, err := state.engine.safeEncode(
		func(interface{}) (map[string]interface{}, error) {
			return describer.DescribeFields()
		},
		nil,
	)
	if err != nil {
		return state.strategyFailed(id, "DescribeFields", err)
	}
	return state.finishObject(id, value, fields)
}

// strategyFailed either aborts the call or lets the next strategy run.
func (state *encodeState) strategyFailed(
	id typeid.ID, strategy string, cause error,
) (interface{}, bool, error) {
	if state.engine.opts.FallThrough {
		state.engine.logger.Warn(
			strategy+" failed, trying something else",
			zap.Stringer("type", id),
			zap.Error(cause),
		)
		return nil, false, nil
	}
	return nil, true, unierrors.StrategyFailed.
		Wrap(cause, strategy+" failed for "+id.String()).
		WithData("type", id.String())
}

// finishObject encodes the values of a described mapping and tags it. A mapping that
// already carries a complete tag keeps it.
func (state *encodeState) finishObject(
	id typeid.ID, value reflect.Value, fields map[string]interface{},
) (interface{}, bool, error) {
	if metatag.Partial(fields) {
		return nil, true, unencodable(value, "described fields hold a partial metadata tag")
	}

	encoded := make(map[string]interface{}, len(fields)+2)
	for _, key := range sortedKeys(fields) {
		encodedValue, err := state.encode(reflect.ValueOf(fields[key]))
		if err != nil {
			return nil, true, err
		}
		encoded[key] = encodedValue
	}

	if _, tagged := metatag.Read(encoded); !tagged {
		metatag.Attach(encoded, metatag.ForID(id))
	}
	return encoded, true, nil
}

func (state *encodeState) encodePointer(value reflect.Value) (interface{}, error) {
	if err := state.enter(value); err != nil {
		return nil, err
	}
	defer state.leave(value)

	return state.encode(value.Elem())
}

// Native sequence.
func (state *encodeState) encodeSequence(value reflect.Value) (interface{}, error) {
	if value.Kind() == reflect.Slice {
		if err := state.enter(value); err != nil {
			return nil, err
		}
		defer state.leave(value)
	}

	encoded := make([]interface{}, value.Len())
	for i := range encoded {
		element, err := state.encode(value.Index(i))
		if err != nil {
			return nil, err
		}
		encoded[i] = element
	}
	return encoded, nil
}

// Native mapping. Keys pass through unchanged.
func (state *encodeState) encodeMapping(value reflect.Value) (interface{}, error) {
	if err := state.enter(value); err != nil {
		return nil, err
	}
	defer state.leave(value)

	encoded := make(map[string]interface{}, value.Len())
	iter := value.MapRange()
	for iter.Next() {
		element, err := state.encode(iter.Value())
		if err != nil {
			return nil, err
		}
		encoded[iter.Key().String()] = element
	}
	return encoded, nil
}

// Generic attribute introspection. Anonymous structs have no identity to tag and are
// encoded as plain mappings.
func (state *encodeState) encodeStruct(value reflect.Value) (interface{}, error) {
	fields := structfields.Of(value.Type())

	keys := make([]string, len(fields))
	for i, field := range fields {
		keys[i] = field.Key
	}
	if key, collides := metatag.Collides(keys); collides {
		return nil, unencodable(value, "field is named after reserved key "+key)
	}

	encoded := make(map[string]interface{}, len(fields)+2)
	for _, field := range fields {
		fieldValue, err := state.encode(value.FieldByIndex(field.Index))
		if err != nil {
			return nil, err
		}
		encoded[field.Key] = fieldValue
	}

	if id, named := typeid.OfType(value.Type()); named {
		metatag.Attach(encoded, metatag.ForID(id))
	}
	return encoded, nil
}

func (state *encodeState) enter(value reflect.Value) error {
	key := visitOf(value)
	if _, seen := state.visiting[key]; seen {
		return unierrors.CyclicValue.
			Newf("%v references itself", value.Type()).
			WithData("type", value.Type().String())
	}
	state.visiting[key] = struct{}{}
	return nil
}

func (state *encodeState) leave(value reflect.Value) {
	delete(state.visiting, visitOf(value))
}

func visitOf(value reflect.Value) visit {
	key := visit{pointer: value.Pointer(), valueType: value.Type()}
	if value.Kind() == reflect.Slice {
		key.length = value.Len()
	}
	return key
}

// conformTo returns value at the pointer depth of target. A nil target accepts value as
// is. Values are copied when a pointer has to be added.
func conformTo(value reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if target == nil {
		return value, true
	}

	current := value
	for {
		if current.Type() == target {
			return current, true
		}
		if current.Kind() != reflect.Ptr || current.IsNil() {
			break
		}
		current = current.Elem()
	}

	if target.Kind() == reflect.Ptr && target.Elem() == current.Type() {
		pointer := reflect.New(current.Type())
		pointer.Elem().Set(current)
		return pointer, true
	}
	return reflect.Value{}, false
}

func unencodable(value reflect.Value, reason string) error {
	return unierrors.UnencodableType.
		Newf("%v: %s", value.Type(), reason).
		WithData("type", value.Type().String())
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
