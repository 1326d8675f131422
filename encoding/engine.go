package encoding

import (
	"bytes"
	"io"
	"reflect"

	"github.com/ugorji/go/codec"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/unijson-go/config"
	"github.com/illuscio-dev/unijson-go/registry"
	"github.com/illuscio-dev/unijson-go/unierrors"
)

/*
Engine encodes arbitrary go values to JSON text and decodes them back.

Instantiation

Use NewEngine() to create a new Engine. An Engine is safe for concurrent use; the
registry it was built with may keep receiving registrations while it is in use.

Encoding Strategies

For every value met while walking the input, the first strategy that applies wins:

• Registered encoder: the value's type has an entry in the registry.

• Self-describing method: the value implements FieldDescriber.

• Native passthrough: booleans, numbers, strings, nil, []byte, slices, arrays and
string-keyed maps. Elements are walked with the same rules.

• Generic introspection: structs are encoded from their exported fields.

Strategies 1, 2 and 4 produce a JSON object carrying a metadata tag naming the type.
Anything else fails with unierrors.UnencodableType.

Decoding Strategies

JSON objects carrying a metadata tag are resolved through the registry and rebuilt with,
in order, the registered decoder, the FieldBuilder implemented by the type, or generic
reconstruction of the struct from its exported fields.

Panics

If a registered function or self-describing method panics, that panic is caught and
returned as an error.
*/
type Engine struct {
	// Registry used for lookups and type resolution.
	registry *registry.TypeRegistry
	// JSON handle for the baseline codec.
	jsonHandle *codec.JsonHandle
	opts       *config.Opts
	logger     *zap.Logger
}

// NewEngine creates an engine. A nil typeRegistry uses registry.Default(), nil opts use
// config.Default().
func NewEngine(typeRegistry *registry.TypeRegistry, opts *config.Opts) (*Engine, error) {
	if typeRegistry == nil {
		typeRegistry = registry.Default()
	}
	if opts == nil {
		opts = config.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, xerrors.Errorf("error creating engine: %w", err)
	}

	engine := &Engine{
		registry:   typeRegistry,
		jsonHandle: newJSONHandle(opts),
		opts:       opts,
		logger:     opts.GetLogger(),
	}
	return engine, nil
}

// Registry returns the registry the engine resolves types with.
func (engine *Engine) Registry() *registry.TypeRegistry {
	return engine.registry
}

// JSONHandle returns the baseline codec handle. It must not be modified.
func (engine *Engine) JSONHandle() *codec.JsonHandle {
	return engine.jsonHandle
}

// Opts returns the options the engine was created with.
func (engine *Engine) Opts() *config.Opts {
	return engine.opts
}

// Encode content as JSON to writer. Nothing is written if encoding fails.
func (engine *Engine) Encode(content interface{}, writer io.Writer) error {
	tree, err := engine.EncodeValue(content)
	if err != nil {
		return xerrors.Errorf("encode err: %w", err)
	}

	// The baseline codec streams, so output is staged until it completes.
	buffer := new(bytes.Buffer)
	if err := engine.marshal(buffer, tree); err != nil {
		return xerrors.Errorf("encode err: %w", err)
	}

	if _, err := buffer.WriteTo(writer); err != nil {
		return xerrors.Errorf("encode err: error writing content: %w", err)
	}
	return nil
}

// Decode JSON content from reader.
func (engine *Engine) Decode(reader io.Reader) (interface{}, error) {
	// Close the reader if it's a closer.
	if readCloser, ok := reader.(io.ReadCloser); ok {
		defer func() {
			_ = readCloser.Close()
		}()
	}

	tree, err := engine.unmarshal(reader)
	if err != nil {
		return nil, xerrors.Errorf("decode err: %w", err)
	}

	decoded, err := engine.DecodeValue(tree)
	if err != nil {
		return nil, xerrors.Errorf("decode err: %w", err)
	}
	return decoded, nil
}

// DecodeInto decodes JSON content from reader and stores it in contentReceiver, which
// must be a non-nil pointer. Decoded values are converted to the receiver's type the
// same way generic reconstruction converts field values.
func (engine *Engine) DecodeInto(reader io.Reader, contentReceiver interface{}) error {
	receiver := reflect.ValueOf(contentReceiver)
	if receiver.Kind() != reflect.Ptr || receiver.IsNil() {
		return xerrors.New("content receiver must be a non-nil pointer")
	}

	decoded, err := engine.Decode(reader)
	if err != nil {
		return err
	}

	if err := assign(receiver.Elem(), decoded); err != nil {
		return xerrors.Errorf(
			"decode err: %w",
			unierrors.UnconstructibleType.Wrap(
				err, "cannot store decoded value in "+receiver.Type().String(),
			),
		)
	}
	return nil
}

// Dumps encodes content to a JSON string.
func (engine *Engine) Dumps(content interface{}) (string, error) {
	tree, err := engine.EncodeValue(content)
	if err != nil {
		return "", xerrors.Errorf("encode err: %w", err)
	}

	buffer := new(bytes.Buffer)
	if err := engine.marshal(buffer, tree); err != nil {
		return "", xerrors.Errorf("encode err: %w", err)
	}
	return buffer.String(), nil
}

// Loads decodes a JSON string.
func (engine *Engine) Loads(text string) (interface{}, error) {
	return engine.Decode(bytes.NewBufferString(text))
}

// Uses an encode function while catching panics to return as errors
func (engine *Engine) safeEncode(
	encode registry.EncodeFunc, value interface{},
) (fields map[string]interface{}, err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = xerrors.Errorf("panic during encode: %v", recovered)
		}
	}()

	return encode(value)
}

// Uses a decode function while catching panics to return as errors
func (engine *Engine) safeDecode(
	decode registry.DecodeFunc, fields map[string]interface{},
) (value interface{}, err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = xerrors.Errorf("panic during decode: %v", recovered)
		}
	}()

	return decode(fields)
}
