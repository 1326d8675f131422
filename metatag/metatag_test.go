package metatag

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illuscio-dev/unijson-go/typeid"
)

func TestAttachExtract(test *testing.T) {
	assert := assert.New(test)

	id := typeid.New("example.com/shapes", "Circle")
	fields := Attach(map[string]interface{}{"radius": 2}, ForID(id))

	assert.Equal("Circle", fields[ClassKey])
	assert.Equal("example.com/shapes", fields[ModuleKey])

	tag, stripped, ok := Extract(fields)
	assert.True(ok)
	assert.Equal(id, tag.ID())
	assert.Equal(map[string]interface{}{"radius": 2}, stripped)

	// Extract does not touch its input.
	assert.Len(fields, 3)
}

func TestExtractUntagged(test *testing.T) {
	assert := assert.New(test)

	tag, stripped, ok := Extract(map[string]interface{}{"peuh": 12})
	assert.False(ok)
	assert.Nil(stripped)
	assert.Equal(Tag{}, tag)
}

func TestPartialTag(test *testing.T) {
	assert := assert.New(test)

	assert.False(Partial(map[string]interface{}{"a": 1}))
	assert.True(Partial(map[string]interface{}{ClassKey: "Circle"}))
	assert.True(Partial(map[string]interface{}{ClassKey: "Circle", ModuleKey: 12}))
	assert.False(Partial(map[string]interface{}{ClassKey: "Circle", ModuleKey: "geo"}))

	_, _, ok := Extract(map[string]interface{}{ClassKey: "Circle"})
	assert.False(ok)
}

func TestCollides(test *testing.T) {
	key, collides := Collides([]string{"a", "__module__", "b"})
	assert.True(test, collides)
	assert.Equal(test, ModuleKey, key)

	_, collides = Collides([]string{"a", "class"})
	assert.False(test, collides)
}
