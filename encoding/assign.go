package encoding

import (
	"encoding/base64"
	"math"
	"reflect"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/unijson-go/metatag"
)

// assign stores a decoded value in target, converting JSON-native values to the target
// type where that loses nothing: numbers to any numeric kind in range, sequences to
// slices and arrays, string-keyed mappings to maps and untagged mappings to structs.
func assign(target reflect.Value, value interface{}) error {
	if value == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	source := reflect.ValueOf(value)
	targetType := target.Type()

	if source.Type().AssignableTo(targetType) {
		target.Set(source)
		return nil
	}
	// Decoders may hand back a pointer where a value is wanted.
	if source.Kind() == reflect.Ptr && !source.IsNil() &&
		source.Elem().Type().AssignableTo(targetType) {
		target.Set(source.Elem())
		return nil
	}

	switch targetType.Kind() {
	case reflect.Ptr:
		pointer := reflect.New(targetType.Elem())
		if err := assign(pointer.Elem(), value); err != nil {
			return err
		}
		target.Set(pointer)
		return nil
	case reflect.Interface:
		return mismatch(source, targetType)
	case reflect.Bool:
		if source.Kind() != reflect.Bool {
			return mismatch(source, targetType)
		}
		target.SetBool(source.Bool())
		return nil
	case reflect.String:
		if source.Kind() != reflect.String {
			return mismatch(source, targetType)
		}
		target.SetString(source.String())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return assignInt(target, source)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		return assignUint(target, source)
	case reflect.Float32, reflect.Float64:
		return assignFloat(target, source)
	case reflect.Slice:
		return assignSlice(target, source)
	case reflect.Array:
		return assignArray(target, source)
	case reflect.Map:
		return assignMap(target, source)
	case reflect.Struct:
		fields, ok := value.(map[string]interface{})
		if !ok {
			return mismatch(source, targetType)
		}
		if _, tagged := metatag.Read(fields); tagged {
			return xerrors.Errorf("cannot store tagged mapping in %v", targetType)
		}
		return reconstruct(target, fields)
	default:
		return mismatch(source, targetType)
	}
}

func assignInt(target reflect.Value, source reflect.Value) error {
	var number int64

	switch source.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		number = source.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		if source.Uint() > math.MaxInt64 {
			return overflow(source, target.Type())
		}
		number = int64(source.Uint())
	case reflect.Float32, reflect.Float64:
		float := source.Float()
		if float != math.Trunc(float) || float < math.MinInt64 || float >= math.MaxInt64 {
			return overflow(source, target.Type())
		}
		number = int64(float)
	default:
		return mismatch(source, target.Type())
	}

	if target.OverflowInt(number) {
		return overflow(source, target.Type())
	}
	target.SetInt(number)
	return nil
}

func assignUint(target reflect.Value, source reflect.Value) error {
	var number uint64

	switch source.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if source.Int() < 0 {
			return overflow(source, target.Type())
		}
		number = uint64(source.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		number = source.Uint()
	case reflect.Float32, reflect.Float64:
		float := source.Float()
		if float != math.Trunc(float) || float < 0 || float >= math.MaxUint64 {
			return overflow(source, target.Type())
		}
		number = uint64(float)
	default:
		return mismatch(source, target.Type())
	}

	if target.OverflowUint(number) {
		return overflow(source, target.Type())
	}
	target.SetUint(number)
	return nil
}

func assignFloat(target reflect.Value, source reflect.Value) error {
	var number float64

	switch source.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		number = float64(source.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		number = float64(source.Uint())
	case reflect.Float32, reflect.Float64:
		number = source.Float()
	default:
		return mismatch(source, target.Type())
	}

	if target.OverflowFloat(number) {
		return overflow(source, target.Type())
	}
	target.SetFloat(number)
	return nil
}

func assignSlice(target reflect.Value, source reflect.Value) error {
	targetType := target.Type()

	// The baseline codec writes []byte as base64 text.
	if source.Kind() == reflect.String && targetType.Elem().Kind() == reflect.Uint8 {
		data, err := base64.StdEncoding.DecodeString(source.String())
		if err != nil {
			return xerrors.Errorf("could not decode base64: %w", err)
		}
		target.SetBytes(data)
		return nil
	}
	if source.Kind() != reflect.Slice && source.Kind() != reflect.Array {
		return mismatch(source, targetType)
	}

	slice := reflect.MakeSlice(targetType, source.Len(), source.Len())
	for i := 0; i < source.Len(); i++ {
		if err := assign(slice.Index(i), source.Index(i).Interface()); err != nil {
			return xerrors.Errorf("index %d: %w", i, err)
		}
	}
	target.Set(slice)
	return nil
}

func assignArray(target reflect.Value, source reflect.Value) error {
	targetType := target.Type()

	if source.Kind() != reflect.Slice && source.Kind() != reflect.Array {
		return mismatch(source, targetType)
	}
	if source.Len() != targetType.Len() {
		return xerrors.Errorf(
			"cannot store %d elements in %v", source.Len(), targetType,
		)
	}

	for i := 0; i < source.Len(); i++ {
		if err := assign(target.Index(i), source.Index(i).Interface()); err != nil {
			return xerrors.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

func assignMap(target reflect.Value, source reflect.Value) error {
	targetType := target.Type()

	if source.Kind() != reflect.Map || source.Type().Key().Kind() != reflect.String ||
		targetType.Key().Kind() != reflect.String {
		return mismatch(source, targetType)
	}

	mapping := reflect.MakeMapWithSize(targetType, source.Len())
	iter := source.MapRange()
	for iter.Next() {
		element := reflect.New(targetType.Elem()).Elem()
		if err := assign(element, iter.Value().Interface()); err != nil {
			return xerrors.Errorf("key %q: %w", iter.Key().String(), err)
		}
		mapping.SetMapIndex(iter.Key().Convert(targetType.Key()), element)
	}
	target.Set(mapping)
	return nil
}

func mismatch(source reflect.Value, targetType reflect.Type) error {
	return xerrors.Errorf("cannot store %v in %v", source.Type(), targetType)
}

func overflow(source reflect.Value, targetType reflect.Type) error {
	return xerrors.Errorf("%v does not fit in %v", source.Interface(), targetType)
}
