package encoding

import (
	"io"
	"reflect"

	"github.com/ugorji/go/codec"

	"github.com/illuscio-dev/unijson-go/config"
	"github.com/illuscio-dev/unijson-go/unierrors"
)

var mapStringInterfaceType = reflect.TypeOf(map[string]interface{}(nil))

// newJSONHandle builds the baseline handle. Options are passed through as is.
func newJSONHandle(opts *config.Opts) *codec.JsonHandle {
	jsonHandle := &codec.JsonHandle{}
	jsonHandle.Indent = opts.Indent
	jsonHandle.HTMLCharsAsIs = opts.HTMLCharsAsIs
	jsonHandle.PreferFloat = opts.PreferFloat
	jsonHandle.Canonical = opts.Canonical
	jsonHandle.SignedInteger = opts.SignedInteger

	// Objects must come back string-keyed for tag detection.
	jsonHandle.MapType = mapStringInterfaceType
	return jsonHandle
}

// marshal writes an already encoded tree with the baseline codec.
func (engine *Engine) marshal(writer io.Writer, tree interface{}) error {
	jsonEncoder := codec.NewEncoder(writer, engine.jsonHandle)
	if err := jsonEncoder.Encode(tree); err != nil {
		return unierrors.BaselineCodec.Wrap(err, "baseline codec failed to encode")
	}
	return nil
}

// unmarshal parses JSON text into a native tree with the baseline codec.
func (engine *Engine) unmarshal(reader io.Reader) (interface{}, error) {
	var tree interface{}
	jsonDecoder := codec.NewDecoder(reader, engine.jsonHandle)
	if err := jsonDecoder.Decode(&tree); err != nil {
		return nil, unierrors.BaselineCodec.Wrap(err, "baseline codec failed to decode")
	}
	return tree, nil
}
