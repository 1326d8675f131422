// Identifiers naming go types across a process.
package typeid

import (
	"reflect"
	"strings"
	"unicode"

	"golang.org/x/xerrors"
)

/*
ID names a go type by its package path (Namespace) and type name (Name). The same ID is
derived from a live value when encoding and from a metadata tag when decoding, which is
what lets the decoder find its way back to the encoded type.

Pointer indirection is not part of an ID: T and *T share the ID of T.
*/
type ID struct {
	Namespace string
	Name      string
}

// Zero is returned for types that have no identity (unnamed or predeclared types).
var Zero = ID{}

// New returns an ID for a namespace and name. No validation is done, see Validate.
func New(namespace string, name string) ID {
	return ID{Namespace: namespace, Name: name}
}

// String renders the identifier as "namespace.Name".
func (id ID) String() string {
	if id.Namespace == "" {
		return id.Name
	}
	return id.Namespace + "." + id.Name
}

// IsZero is true for the empty identifier.
func (id ID) IsZero() bool {
	return id == Zero
}

// Validate returns an error if the ID cannot name a registered type.
func (id ID) Validate() error {
	if id.Namespace == "" {
		return xerrors.Errorf("type id %q has an empty namespace", id.String())
	}
	if id.Name == "" {
		return xerrors.Errorf("type id %q has an empty name", id.String())
	}
	if strings.IndexFunc(id.Namespace, unicode.IsSpace) >= 0 ||
		strings.IndexFunc(id.Name, unicode.IsSpace) >= 0 {
		return xerrors.Errorf("type id %q contains whitespace", id.String())
	}
	return nil
}

// Indirect strips every level of pointer from valueType.
func Indirect(valueType reflect.Type) reflect.Type {
	for valueType != nil && valueType.Kind() == reflect.Ptr {
		valueType = valueType.Elem()
	}
	return valueType
}

// OfType returns the ID of valueType. ok is false when the type is unnamed or
// predeclared (int, string, []byte, map[string]interface{} ...).
func OfType(valueType reflect.Type) (id ID, ok bool) {
	valueType = Indirect(valueType)
	if valueType == nil || valueType.Name() == "" || valueType.PkgPath() == "" {
		return Zero, false
	}
	return New(valueType.PkgPath(), valueType.Name()), true
}

// Of returns the ID of the dynamic type of value.
func Of(value interface{}) (id ID, ok bool) {
	if value == nil {
		return Zero, false
	}
	return OfType(reflect.TypeOf(value))
}
