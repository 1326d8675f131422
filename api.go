package unijson

import (
	"bytes"
	"io"
	"sync"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/unijson-go/config"
	"github.com/illuscio-dev/unijson-go/encoding"
	"github.com/illuscio-dev/unijson-go/registry"
	"github.com/illuscio-dev/unijson-go/typeid"
)

var (
	defaultOnce   sync.Once
	defaultEngine *encoding.Engine
)

// Default returns the engine used by the package-level functions.
func Default() *encoding.Engine {
	defaultOnce.Do(func() {
		engine, err := encoding.NewEngine(registry.Default(), config.Default())
		if err != nil {
			// Default options always validate.
			panic(err)
		}
		defaultEngine = engine
	})
	return defaultEngine
}

// NewFromFile creates an engine with options read from a YAML file. The engine shares
// the process-wide registry.
func NewFromFile(path string) (*encoding.Engine, error) {
	opts, err := config.LoadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("error loading engine options: %w", err)
	}
	return encoding.NewEngine(registry.Default(), opts)
}

// Dumps encodes content to a JSON string.
func Dumps(content interface{}) (string, error) {
	return Default().Dumps(content)
}

// Loads decodes a JSON string.
func Loads(text string) (interface{}, error) {
	return Default().Loads(text)
}

// Marshal encodes content to JSON bytes.
func Marshal(content interface{}) ([]byte, error) {
	buffer := new(bytes.Buffer)
	if err := Default().Encode(content, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Unmarshal decodes data and stores the result in contentReceiver, which must be a
// non-nil pointer.
func Unmarshal(data []byte, contentReceiver interface{}) error {
	return Default().DecodeInto(bytes.NewReader(data), contentReceiver)
}

// Dump encodes content as JSON to writer.
func Dump(writer io.Writer, content interface{}) error {
	return Default().Encode(content, writer)
}

// Load decodes JSON content from reader.
func Load(reader io.Reader) (interface{}, error) {
	return Default().Decode(reader)
}

// Register adds encode and decode functions for id to the process-wide registry.
func Register(id typeid.ID, encode registry.EncodeFunc, decode registry.DecodeFunc) error {
	return registry.Default().Register(id, encode, decode)
}

// RegisterFor adds encode and decode functions for the type of sample to the
// process-wide registry.
func RegisterFor(sample interface{}, encode registry.EncodeFunc, decode registry.DecodeFunc) error {
	return registry.Default().RegisterFor(sample, encode, decode)
}

// RegisterType makes the types of samples resolvable by the process-wide registry.
func RegisterType(samples ...interface{}) error {
	return registry.Default().RegisterType(samples...)
}

// Alias makes tags naming from decode as to in the process-wide registry.
func Alias(from typeid.ID, to typeid.ID) error {
	return registry.Default().Alias(from, to)
}
