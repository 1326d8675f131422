package registry_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/unijson-go/registry"
	"github.com/illuscio-dev/unijson-go/typeid"
	"github.com/illuscio-dev/unijson-go/unierrors"
)

const testModule = "github.com/illuscio-dev/unijson-go/registry_test"

type Date struct {
	Day   int
	Month int
	Year  int
}

type Nested struct {
	Date Date
}

type Reserved struct {
	Module string `unijson:"__module__"`
}

func encodeDate(value interface{}) (map[string]interface{}, error) {
	date := value.(Date)
	return map[string]interface{}{"day": date.Day, "month": date.Month, "year": date.Year}, nil
}

func decodeDate(fields map[string]interface{}) (interface{}, error) {
	return Date{Day: fields["day"].(int), Month: fields["month"].(int)}, nil
}

func TestRegisterLookup(test *testing.T) {
	assert := assert.New(test)

	typeRegistry := registry.NewEmpty()
	id := typeid.New(testModule, "Date")

	assert.False(typeRegistry.HandlesEncode(id))
	assert.False(typeRegistry.HandlesDecode(id))

	err := typeRegistry.Register(id, encodeDate, decodeDate)
	assert.NoError(err)

	encode, ok := typeRegistry.LookupEncoder(id)
	assert.True(ok)
	fields, err := encode(Date{Day: 1, Month: 2, Year: 3})
	assert.NoError(err)
	assert.Equal(map[string]interface{}{"day": 1, "month": 2, "year": 3}, fields)

	decode, ok := typeRegistry.LookupDecoder(id)
	assert.True(ok)
	decoded, err := decode(fields)
	assert.NoError(err)
	assert.Equal(Date{Day: 1, Month: 2}, decoded)

	assert.True(typeRegistry.HandlesEncode(id))
	assert.True(typeRegistry.HandlesDecode(id))
	assert.Equal(1, typeRegistry.Len())
}

func TestRegisterEncoderOnly(test *testing.T) {
	assert := assert.New(test)

	typeRegistry := registry.NewEmpty()
	id := typeid.New(testModule, "Date")

	assert.NoError(typeRegistry.Register(id, encodeDate, nil))
	assert.True(typeRegistry.HandlesEncode(id))
	assert.False(typeRegistry.HandlesDecode(id))

	// Nothing to build the type with: no decoder and no type descriptor.
	_, err := typeRegistry.Resolve(id)
	assert.True(xerrors.Is(err, unierrors.UnresolvableType))
}

func TestRegisterOverride(test *testing.T) {
	assert := assert.New(test)

	core, logs := observer.New(zap.DebugLevel)
	typeRegistry := registry.NewEmpty()
	typeRegistry.SetLogger(zap.New(core))

	id := typeid.New(testModule, "Date")
	overridden := func(value interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"overridden": true}, nil
	}

	require.NoError(test, typeRegistry.Register(id, encodeDate, decodeDate))
	require.NoError(test, typeRegistry.Register(id, overridden, nil))

	encode, ok := typeRegistry.LookupEncoder(id)
	require.True(test, ok)
	fields, _ := encode(Date{})
	assert.Equal(map[string]interface{}{"overridden": true}, fields)

	// The whole entry is replaced, including the decoder.
	assert.False(typeRegistry.HandlesDecode(id))
	assert.Equal(1, typeRegistry.Len())
	assert.Equal(1, logs.FilterMessage("replacing registered entry").Len())
}

func TestRegisterInvalid(test *testing.T) {
	typeRegistry := registry.NewEmpty()

	testCases := []struct {
		name     string
		register func() error
		expected string
	}{
		{
			"empty namespace",
			func() error {
				return typeRegistry.Register(typeid.New("", "Date"), encodeDate, nil)
			},
			"InvalidRegistration (2004) - malformed type id: type id \"Date\" has an " +
				"empty namespace",
		},
		{
			"whitespace",
			func() error {
				return typeRegistry.Register(typeid.New("pkg", "My Date"), encodeDate, nil)
			},
			"InvalidRegistration (2004) - malformed type id: type id \"pkg.My Date\" " +
				"contains whitespace",
		},
		{
			"nil encoder",
			func() error {
				return typeRegistry.Register(typeid.New("pkg", "Date"), nil, decodeDate)
			},
			"InvalidRegistration (2004) - nil encode function for pkg.Date",
		},
		{
			"nil sample",
			func() error {
				return typeRegistry.RegisterFor(nil, encodeDate, nil)
			},
			"InvalidRegistration (2004) - nil sample",
		},
		{
			"unnamed sample",
			func() error {
				return typeRegistry.RegisterFor(map[string]int{}, encodeDate, nil)
			},
			"InvalidRegistration (2004) - map[string]int is not a named type",
		},
		{
			"reserved field",
			func() error {
				return typeRegistry.RegisterType(Reserved{})
			},
			"InvalidRegistration (2004) - " + testModule + ".Reserved has a field " +
				"named after reserved key \"__module__\"",
		},
		{
			"reserved field through pointer",
			func() error {
				return typeRegistry.RegisterFor(&Reserved{}, encodeDate, nil)
			},
			"InvalidRegistration (2004) - " + testModule + ".Reserved has a field " +
				"named after reserved key \"__module__\"",
		},
		{
			"self alias",
			func() error {
				id := typeid.New("pkg", "Date")
				return typeRegistry.Alias(id, id)
			},
			"InvalidRegistration (2004) - pkg.Date cannot alias itself",
		},
	}

	for _, thisCase := range testCases {
		test.Run(thisCase.name, func(test *testing.T) {
			err := thisCase.register()
			assert.EqualError(test, err, thisCase.expected)
			assert.True(test, xerrors.Is(err, unierrors.InvalidRegistration))
		})
	}

	// Rejected registrations leave no trace.
	assert.Equal(test, 0, typeRegistry.Len())
	assert.Empty(test, typeRegistry.Entries())
}

func TestRegisterTypeAtomic(test *testing.T) {
	assert := assert.New(test)

	typeRegistry := registry.NewEmpty()

	err := typeRegistry.RegisterType(Date{}, Reserved{})
	assert.True(xerrors.Is(err, unierrors.InvalidRegistration))

	_, err = typeRegistry.ResolveType(typeid.New(testModule, "Date"))
	assert.True(xerrors.Is(err, unierrors.UnresolvableType))
}

func TestRegisterTypeResolve(test *testing.T) {
	assert := assert.New(test)

	typeRegistry := registry.NewEmpty()
	require.NoError(test, typeRegistry.RegisterType(Date{}, &Nested{}))

	resolved, err := typeRegistry.ResolveType(typeid.New(testModule, "Date"))
	assert.NoError(err)
	assert.Equal(reflect.TypeOf(Date{}), resolved)

	resolution, err := typeRegistry.Resolve(typeid.New(testModule, "Date"))
	assert.NoError(err)
	assert.Equal(reflect.TypeOf(Date{}), resolution.Type)
	assert.Nil(resolution.Decode)
}

func TestRegisterForPointerSample(test *testing.T) {
	assert := assert.New(test)

	typeRegistry := registry.NewEmpty()
	require.NoError(test, typeRegistry.RegisterFor(&Date{}, encodeDate, decodeDate))

	id := typeid.New(testModule, "Date")
	encode, registeredType, ok := typeRegistry.EncoderFor(id)
	assert.True(ok)
	assert.NotNil(encode)
	assert.Equal(reflect.TypeOf(&Date{}), registeredType)

	resolution, err := typeRegistry.Resolve(id)
	assert.NoError(err)
	assert.Equal(id, resolution.ID)
	assert.Equal(reflect.TypeOf(&Date{}), resolution.Type)
	assert.NotNil(resolution.Decode)
}

func TestAlias(test *testing.T) {
	assert := assert.New(test)

	typeRegistry := registry.NewEmpty()
	require.NoError(test, typeRegistry.RegisterFor(Date{}, encodeDate, decodeDate))

	legacy := typeid.New("legacy.models", "Day")
	require.NoError(test, typeRegistry.Alias(legacy, typeid.New(testModule, "Date")))

	resolution, err := typeRegistry.Resolve(legacy)
	assert.NoError(err)
	assert.Equal(typeid.New(testModule, "Date"), resolution.ID)
	assert.Equal(reflect.TypeOf(Date{}), resolution.Type)
	assert.True(typeRegistry.HandlesDecode(legacy))

	// Aliases only redirect decoding.
	assert.False(typeRegistry.HandlesEncode(legacy))
}

func TestResolveUnknown(test *testing.T) {
	assert := assert.New(test)

	_, err := registry.NewEmpty().ResolveType(typeid.New("nowhere", "Ghost"))
	assert.EqualError(
		err, "UnresolvableType (2002) - no type registered for nowhere.Ghost",
	)

	var resolveErr *unierrors.Error
	require.True(test, xerrors.As(err, &resolveErr))
	assert.Equal(
		map[string]interface{}{"module": "nowhere", "class": "Ghost"},
		resolveErr.ErrorData,
	)
}

func TestEntriesSorted(test *testing.T) {
	assert := assert.New(test)

	typeRegistry := registry.NewEmpty()
	require.NoError(test, typeRegistry.Register(typeid.New("b", "Second"), encodeDate, nil))
	require.NoError(test, typeRegistry.Register(typeid.New("a", "First"), encodeDate, nil))

	entries := typeRegistry.Entries()
	require.Len(test, entries, 2)
	assert.Equal(typeid.New("a", "First"), entries[0].ID)
	assert.Equal(typeid.New("b", "Second"), entries[1].ID)
}

func TestBuiltins(test *testing.T) {
	assert := assert.New(test)

	typeRegistry, err := registry.New()
	require.NoError(test, err)
	assert.Equal(len(registry.Builtins), typeRegistry.Len())

	for _, builtin := range registry.Builtins {
		id, ok := typeid.Of(builtin.Sample)
		require.True(test, ok)
		assert.True(typeRegistry.HandlesEncode(id), id.String())
		assert.True(typeRegistry.HandlesDecode(id), id.String())

		resolved, err := typeRegistry.ResolveType(id)
		assert.NoError(err)
		assert.Equal(reflect.TypeOf(builtin.Sample), resolved)
	}

	assert.Equal(0, registry.NewEmpty().Len())
}

func TestBuiltinDecodeErrors(test *testing.T) {
	typeRegistry, err := registry.New()
	require.NoError(test, err)

	testCases := []struct {
		name     string
		id       typeid.ID
		fields   map[string]interface{}
		expected string
	}{
		{
			"time not a string",
			typeid.New("time", "Time"),
			map[string]interface{}{"datetime": 12},
			"field \"datetime\" is int, not a string",
		},
		{
			"unknown zone",
			typeid.New("time", "Location"),
			map[string]interface{}{"zone": "Mars/Olympus_Mons"},
			"error loading zone \"Mars/Olympus_Mons\": unknown time zone Mars/Olympus_Mons",
		},
		{
			"bad hex",
			typeid.New("github.com/illuscio-dev/unijson-go/unitypes", "BinData"),
			map[string]interface{}{"hex": "zz"},
			"could not decode hex: encoding/hex: invalid byte: U+007A 'z'",
		},
		{
			"binary subtype",
			typeid.New("go.mongodb.org/mongo-driver/bson/primitive", "Binary"),
			map[string]interface{}{"subtype": int64(300), "hex": ""},
			"binary subtype 300 out of range",
		},
		{
			"duration not a number",
			typeid.New("time", "Duration"),
			map[string]interface{}{"nanoseconds": "10"},
			"field \"nanoseconds\" is string, not a number",
		},
	}

	for _, thisCase := range testCases {
		test.Run(thisCase.name, func(test *testing.T) {
			decode, ok := typeRegistry.LookupDecoder(thisCase.id)
			require.True(test, ok)

			_, err := decode(thisCase.fields)
			assert.EqualError(test, err, thisCase.expected)
		})
	}
}

func TestDefaultIsShared(test *testing.T) {
	assert := assert.New(test)

	assert.Same(registry.Default(), registry.Default())
	assert.True(registry.Default().HandlesEncode(typeid.New("time", "Time")))
}

func TestConcurrentAccess(test *testing.T) {
	typeRegistry, err := registry.New()
	require.NoError(test, err)

	timeID := typeid.New("time", "Time")
	waitGroup := new(sync.WaitGroup)

	for i := 0; i < 8; i++ {
		waitGroup.Add(2)
		go func() {
			defer waitGroup.Done()
			for j := 0; j < 100; j++ {
				_ = typeRegistry.RegisterFor(Date{}, encodeDate, decodeDate)
			}
		}()
		go func() {
			defer waitGroup.Done()
			for j := 0; j < 100; j++ {
				_, _ = typeRegistry.Resolve(timeID)
				_ = typeRegistry.Entries()
			}
		}()
	}
	waitGroup.Wait()

	_, err = typeRegistry.ResolveType(typeid.New(testModule, "Date"))
	assert.NoError(test, err)
	assert.True(test, typeRegistry.HandlesDecode(typeid.New("time", "Time")))
}

func TestBuiltinDecodeFallbacks(test *testing.T) {
	assert := assert.New(test)

	typeRegistry, err := registry.New()
	require.NoError(test, err)

	decodeDuration, ok := typeRegistry.LookupDecoder(typeid.New("time", "Duration"))
	require.True(test, ok)

	duration, err := decodeDuration(map[string]interface{}{"seconds": 1.5})
	assert.NoError(err)
	assert.Equal(1500*time.Millisecond, duration)

	decodeLocation, ok := typeRegistry.LookupDecoder(typeid.New("time", "Location"))
	require.True(test, ok)

	location, err := decodeLocation(
		map[string]interface{}{"zone": "CUSTOM", "offset": int64(3600)},
	)
	assert.NoError(err)
	require.IsType(test, &time.Location{}, location)

	name, offset := time.Unix(0, 0).In(location.(*time.Location)).Zone()
	assert.Equal("CUSTOM", name)
	assert.Equal(3600, offset)

	_, err = decodeLocation(map[string]interface{}{"zone": ""})
	assert.EqualError(err, "zone has no name and no offset")
}
