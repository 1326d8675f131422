package encoding

import (
	"reflect"

	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/unijson-go/internal/structfields"
	"github.com/illuscio-dev/unijson-go/metatag"
	"github.com/illuscio-dev/unijson-go/registry"
	"github.com/illuscio-dev/unijson-go/typeid"
	"github.com/illuscio-dev/unijson-go/unierrors"
)

// DecodeValue rebuilds typed values from a tree parsed by the baseline codec. Objects
// without a metadata tag stay map[string]interface{}, arrays stay []interface{} and
// other leaves are returned unchanged.
func (engine *Engine) DecodeValue(tree interface{}) (interface{}, error) {
	state := &decodeState{
		engine:   engine,
		maxDepth: engine.opts.Depth(),
	}
	return state.decode(tree)
}

type decodeState struct {
	engine   *Engine
	depth    int
	maxDepth int
}

func (state *decodeState) decode(node interface{}) (interface{}, error) {
	state.depth++
	defer func() { state.depth-- }()
	if state.depth > state.maxDepth {
		return nil, unierrors.UnconstructibleType.
			Newf("maximum depth of %d exceeded", state.maxDepth)
	}

	switch typed := node.(type) {
	case map[string]interface{}:
		return state.decodeMapping(typed)
	case []interface{}:
		decoded := make([]interface{}, len(typed))
		for i, element := range typed {
			value, err := state.decode(element)
			if err != nil {
				return nil, err
			}
			decoded[i] = value
		}
		return decoded, nil
	default:
		return node, nil
	}
}

func (state *decodeState) decodeMapping(mapping map[string]interface{}) (interface{}, error) {
	tag, stripped, tagged := metatag.Extract(mapping)
	if !tagged {
		stripped = mapping
	}

	// Sorted so the first failing key is the same on every run.
	fields := make(map[string]interface{}, len(stripped))
	for _, key := range sortedKeys(stripped) {
		decoded, err := state.decode(stripped[key])
		if err != nil {
			return nil, err
		}
		fields[key] = decoded
	}

	if !tagged {
		return fields, nil
	}

	resolution, err := state.engine.registry.Resolve(tag.ID())
	if err != nil {
		return nil, err
	}
	return state.construct(resolution, fields)
}

// construct picks the decoding strategy for a resolved type.
func (state *decodeState) construct(
	resolution registry.Resolution, fields map[string]interface{},
) (interface{}, error) {
	id := resolution.ID
	logger := state.engine.logger

	// Registered decoder.
	if resolution.Decode != nil {
		logger.Debug("decoding with registered function", zap.Stringer("type", id))
		value, err := state.engine.safeDecode(resolution.Decode, fields)
		if err == nil {
			return state.conformResult(resolution, value)
		}
		if err = state.strategyFailed(id, "registered decoder", err); err != nil {
			return nil, err
		}
	}

	if resolution.Type == nil {
		return nil, unierrors.UnconstructibleType.
			Newf("%v has no registered type to construct", id).
			WithData("type", id.String())
	}
	baseType := typeid.Indirect(resolution.Type)

	// Self-describing factory.
	if builder, ok := builderFor(baseType); ok {
		logger.Debug("decoding with FromFields", zap.Stringer("type", id))
		value, err := state.engine.safeDecode(builder.FromFields, fields)
		if err == nil {
			return state.conformResult(resolution, value)
		}
		if err = state.strategyFailed(id, "FromFields", err); err != nil {
			return nil, err
		}
	}

	// Generic constructor reconstruction.
	logger.Debug("decoding with generic reconstruction", zap.Stringer("type", id))
	if baseType.Kind() != reflect.Struct {
		return nil, unierrors.UnconstructibleType.
			Newf("%v is not a struct and has no decoder", id).
			WithData("type", id.String())
	}

	constructed := reflect.New(baseType)
	if err := reconstruct(constructed.Elem(), fields); err != nil {
		return nil, unierrors.UnconstructibleType.
			Wrap(err, "cannot construct "+id.String()).
			WithData("type", id.String())
	}
	return state.conformResult(resolution, constructed.Elem().Interface())
}

// strategyFailed returns nil when the next strategy should run.
func (state *decodeState) strategyFailed(id typeid.ID, strategy string, cause error) error {
	if state.engine.opts.FallThrough {
		state.engine.logger.Warn(
			strategy+" failed, trying something else",
			zap.Stringer("type", id),
			zap.Error(cause),
		)
		return nil
	}
	return unierrors.StrategyFailed.
		Wrap(cause, strategy+" failed for "+id.String()).
		WithData("type", id.String())
}

// conformResult brings a constructed value to the pointer depth of the registered type.
func (state *decodeState) conformResult(
	resolution registry.Resolution, value interface{},
) (interface{}, error) {
	if value == nil || resolution.Type == nil {
		return value, nil
	}
	conformed, ok := conformTo(reflect.ValueOf(value), resolution.Type)
	if !ok {
		return nil, unierrors.UnconstructibleType.
			Newf("decoded %T for %v, expected %v", value, resolution.ID, resolution.Type).
			WithData("type", resolution.ID.String())
	}
	return conformed.Interface(), nil
}

// reconstruct fills the struct target from fields. Every key must match a field and
// every field without the optional flag must be present.
func reconstruct(target reflect.Value, fields map[string]interface{}) error {
	structFields := structfields.Of(target.Type())
	assigned := make(map[string]string, len(fields))

	for _, key := range sortedKeys(fields) {
		field, ok := structfields.Match(structFields, key)
		if !ok {
			return xerrors.Errorf("unexpected field %q", key)
		}
		if previous, duplicate := assigned[field.Key]; duplicate {
			return xerrors.Errorf("fields %q and %q both set %s", previous, key, field.GoName)
		}
		assigned[field.Key] = key

		if err := assign(target.FieldByIndex(field.Index), fields[key]); err != nil {
			return xerrors.Errorf("field %q: %w", key, err)
		}
	}

	for _, field := range structFields {
		if _, ok := assigned[field.Key]; !ok && !field.Optional {
			return xerrors.Errorf("missing field %q", field.Key)
		}
	}
	return nil
}
