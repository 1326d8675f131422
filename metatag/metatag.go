/*
Package metatag reads and writes the two reserved keys that mark a JSON object as an
encoded typed value:

	{"a1": 12, "a2": 34, "__class__": "Test", "__module__": "example.com/pkg"}

A mapping carrying both keys as strings is a tagged object. Anything else, including a
mapping carrying only one of the keys, is a plain JSON object.
*/
package metatag

import (
	"github.com/illuscio-dev/unijson-go/typeid"
)

const (
	// ClassKey holds the type name.
	ClassKey = "__class__"
	// ModuleKey holds the package path of the type.
	ModuleKey = "__module__"
)

// Tag is the (class, module) pair embedded in an encoded object.
type Tag struct {
	ClassName  string
	ModuleName string
}

// ForID returns the tag naming id.
func ForID(id typeid.ID) Tag {
	return Tag{ClassName: id.Name, ModuleName: id.Namespace}
}

// ID converts the tag back into a type identifier.
func (tag Tag) ID() typeid.ID {
	return typeid.New(tag.ModuleName, tag.ClassName)
}

// IsReserved reports whether key is one of the tag keys.
func IsReserved(key string) bool {
	return key == ClassKey || key == ModuleKey
}

// Collides returns the first reserved key found in names.
func Collides(names []string) (key string, collides bool) {
	for _, name := range names {
		if IsReserved(name) {
			return name, true
		}
	}
	return "", false
}

// Attach writes tag into fields and returns fields.
func Attach(fields map[string]interface{}, tag Tag) map[string]interface{} {
	fields[ClassKey] = tag.ClassName
	fields[ModuleKey] = tag.ModuleName
	return fields
}

// Read returns the tag held by fields, if fields holds a complete one.
func Read(fields map[string]interface{}) (tag Tag, ok bool) {
	className, classOK := fields[ClassKey].(string)
	moduleName, moduleOK := fields[ModuleKey].(string)
	if !classOK || !moduleOK {
		return Tag{}, false
	}
	return Tag{ClassName: className, ModuleName: moduleName}, true
}

// Partial is true when fields holds one reserved key but not a complete tag.
func Partial(fields map[string]interface{}) bool {
	_, hasClass := fields[ClassKey]
	_, hasModule := fields[ModuleKey]
	if !hasClass && !hasModule {
		return false
	}
	_, complete := Read(fields)
	return !complete
}

// Extract returns the tag of fields and a copy of fields without the tag keys. ok is
// false, and stripped nil, when fields carries no complete tag.
func Extract(fields map[string]interface{}) (tag Tag, stripped map[string]interface{}, ok bool) {
	tag, ok = Read(fields)
	if !ok {
		return Tag{}, nil, false
	}

	stripped = make(map[string]interface{}, len(fields)-2)
	for key, value := range fields {
		if IsReserved(key) {
			continue
		}
		stripped[key] = value
	}
	return tag, stripped, true
}
