/*
Package unijson serializes arbitrary go values to JSON text and restores them, without
a schema, by embedding the type of every encoded object next to its fields:

	{"__class__": "Test", "__module__": "example.com/models", "a1": 12, "a2": 34}

Native JSON values (booleans, numbers, strings, nil, slices and string-keyed maps) are
written exactly as the baseline codec (github.com/ugorji/go/codec) writes them.

Opting In

Go cannot look a type up by name at runtime. Types that should come back typed when
decoded must be registered once, usually from an init function:

	func init() {
		_ = unijson.RegisterType(Test{})
	}

Types with a custom wire shape register functions instead:

	_ = unijson.RegisterFor(Date{}, encodeDate, decodeDate)

Types may also describe and build themselves by implementing encoding.FieldDescriber
and encoding.FieldBuilder.

Engines

The functions of this package use a process-wide engine built from registry.Default()
and config.Default(). Use encoding.NewEngine() for engines with their own registry or
options.
*/
package unijson
