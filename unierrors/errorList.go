package unierrors

// No encoding strategy (native, registered, self-describing, introspection) applies to a
// value.
var UnencodableType = NewErrorType(
	"UnencodableType",
	2001,
)

// A metadata tag names a type that was never registered with the registry.
var UnresolvableType = NewErrorType(
	"UnresolvableType",
	2002,
)

// Generic reconstruction could not match decoded fields to the resolved type.
var UnconstructibleType = NewErrorType(
	"UnconstructibleType",
	2003,
)

// A registration call was rejected. The registry is left untouched.
var InvalidRegistration = NewErrorType(
	"InvalidRegistration",
	2004,
)

// A registered function or self-describing method returned an error or panicked.
var StrategyFailed = NewErrorType(
	"StrategyFailed",
	2005,
)

// The value graph references itself.
var CyclicValue = NewErrorType(
	"CyclicValue",
	2006,
)

// The baseline JSON codec failed to serialize or parse. The codec error is kept as the
// source.
var BaselineCodec = NewErrorType(
	"BaselineCodec",
	2007,
)

// ErrorList holds all default error types.
var ErrorList = [7]*ErrorType{
	UnencodableType,
	UnresolvableType,
	UnconstructibleType,
	InvalidRegistration,
	StrategyFailed,
	CyclicValue,
	BaselineCodec,
}

// Used to make ErrorTypeCodeIndex.
func makeDefaultErrorCodeIndex() map[int]*ErrorType {
	index := make(map[int]*ErrorType)
	for _, errorType := range ErrorList {
		index[errorType.code] = errorType
	}
	return index
}

// ErrorTypeCodeIndex is a Code:*ErrorType indexing of default errors.
var ErrorTypeCodeIndex = makeDefaultErrorCodeIndex()
