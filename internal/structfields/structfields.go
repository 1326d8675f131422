// Package structfields lists the externally visible fields of struct types, the way
// generic introspection and generic reconstruction see them.
package structfields

import (
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag consulted for field names and options.
const TagName = "unijson"

// Field is one visible field of a struct.
type Field struct {
	// Key used in the encoded mapping.
	Key string
	// Go field name.
	GoName string
	// Index path for reflect.Value.FieldByIndex, embedded structs included.
	Index []int
	// Type of the field.
	Type reflect.Type
	// Field may be missing from a mapping during reconstruction.
	Optional bool
}

var cache sync.Map // map[reflect.Type][]Field

// Of returns the visible fields of structType in declaration order. Embedded structs
// without a name tag are flattened, with outer fields shadowing inner ones. Unexported
// fields and fields tagged `unijson:"-"` are skipped.
func Of(structType reflect.Type) []Field {
	if cached, ok := cache.Load(structType); ok {
		return cached.([]Field)
	}

	fields := collect(structType, nil, make(map[string]bool))
	cached, _ := cache.LoadOrStore(structType, fields)
	return cached.([]Field)
}

// Keys returns the encoded keys of structType.
func Keys(structType reflect.Type) []string {
	fields := Of(structType)
	keys := make([]string, len(fields))
	for i, field := range fields {
		keys[i] = field.Key
	}
	return keys
}

// Match finds the field for key: exact key first, then case-insensitive.
func Match(fields []Field, key string) (Field, bool) {
	for _, field := range fields {
		if field.Key == key {
			return field, true
		}
	}
	for _, field := range fields {
		if strings.EqualFold(field.Key, key) {
			return field, true
		}
	}
	return Field{}, false
}

func collect(structType reflect.Type, parent []int, seen map[string]bool) []Field {
	var fields []Field
	var embedded []reflect.StructField

	for i := 0; i < structType.NumField(); i++ {
		structField := structType.Field(i)
		name, optional, skip := parseTag(structField.Tag.Get(TagName))
		if skip {
			continue
		}

		if structField.Anonymous && name == "" {
			inner := structField.Type
			if inner.Kind() == reflect.Ptr {
				inner = inner.Elem()
			}
			// Embedded pointers cannot be allocated on reconstruction without guessing,
			// so only embedded values are flattened.
			if inner.Kind() == reflect.Struct && structField.Type.Kind() != reflect.Ptr {
				embedded = append(embedded, structField)
				continue
			}
		}
		if structField.PkgPath != "" {
			continue
		}

		if name == "" {
			name = structField.Name
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		fields = append(fields, Field{
			Key:      name,
			GoName:   structField.Name,
			Index:    appendIndex(parent, structField.Index...),
			Type:     structField.Type,
			Optional: optional,
		})
	}

	for _, structField := range embedded {
		fields = append(
			fields,
			collect(structField.Type, appendIndex(parent, structField.Index...), seen)...,
		)
	}

	return fields
}

func appendIndex(parent []int, index ...int) []int {
	joined := make([]int, 0, len(parent)+len(index))
	joined = append(joined, parent...)
	return append(joined, index...)
}

func parseTag(tag string) (name string, optional bool, skip bool) {
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, option := range parts[1:] {
		if option == "optional" {
			optional = true
		}
	}
	return parts[0], optional, false
}
