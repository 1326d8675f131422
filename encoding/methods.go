package encoding

import "reflect"

// FieldDescriber is implemented by types that describe their own encoded form. The
// returned mapping is encoded recursively and tagged with the type.
type FieldDescriber interface {
	DescribeFields() (map[string]interface{}, error)
}

// FieldBuilder is implemented by types that build themselves from decoded fields. It is
// called on the zero value of the registered type (or on a new pointer to it for
// pointer receivers), so implementations must not depend on receiver state.
type FieldBuilder interface {
	FromFields(fields map[string]interface{}) (interface{}, error)
}

var (
	describerType = reflect.TypeOf((*FieldDescriber)(nil)).Elem()
	builderType   = reflect.TypeOf((*FieldBuilder)(nil)).Elem()
)

// asDescriber returns value as a FieldDescriber, taking a copy's address when only the
// pointer type implements it.
func asDescriber(value reflect.Value) (FieldDescriber, bool) {
	if value.Type().Implements(describerType) {
		if value.Kind() == reflect.Ptr && value.IsNil() {
			return nil, false
		}
		return value.Interface().(FieldDescriber), true
	}
	if value.Kind() != reflect.Ptr && reflect.PtrTo(value.Type()).Implements(describerType) {
		pointer := reflect.New(value.Type())
		pointer.Elem().Set(value)
		return pointer.Interface().(FieldDescriber), true
	}
	return nil, false
}

// builderFor returns the FieldBuilder of baseType or *baseType.
func builderFor(baseType reflect.Type) (FieldBuilder, bool) {
	if baseType.Implements(builderType) {
		return reflect.Zero(baseType).Interface().(FieldBuilder), true
	}
	if reflect.PtrTo(baseType).Implements(builderType) {
		return reflect.New(baseType).Interface().(FieldBuilder), true
	}
	return nil, false
}
