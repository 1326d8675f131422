package unierrors

import (
	"fmt"
	"runtime/debug"
	"strconv"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"
)

/*
ErrorType defines a kind of failure the codec can return.

Each ErrorType has a unique Name and Code. Codes 2000-2999 are reserved for the default
definitions in this package.

Since types are declared as pointers, to protect against accidental mutation of the
error type by other packages, the underlying fields of this struct are private and
accessed through functions. Define new error types using NewErrorType()
*/
type ErrorType struct {
	// Unique human-readable name of the error type.
	name string

	// Unique number to identify the error type.
	code int
}

// NewErrorType returns an error type definition. Each definition should only need to be
// declared once.
func NewErrorType(name string, code int) *ErrorType {
	return &ErrorType{
		name: name,
		code: code,
	}
}

// New returns a new error instance of this type.
func (errorType *ErrorType) New(
	message string,
	errorData map[string]interface{},
	source error,
) *Error {
	return &Error{
		ErrorType:   errorType,
		Message:     message,
		ID:          uuid.NewV4(),
		ErrorData:   errorData,
		sourceErr:   source,
		sourceStack: debug.Stack(),
		frame:       xerrors.Caller(1),
	}
}

// Newf returns a new error instance with a formatted message and no data.
func (errorType *ErrorType) Newf(format string, args ...interface{}) *Error {
	err := errorType.New(fmt.Sprintf(format, args...), nil, nil)
	err.frame = xerrors.Caller(1)
	return err
}

// Wrap returns a new error instance caused by source.
func (errorType *ErrorType) Wrap(source error, message string) *Error {
	err := errorType.New(message, nil, source)
	err.frame = xerrors.Caller(1)
	return err
}

// Name is the unique human-readable name of the error type.
func (errorType *ErrorType) Name() string {
	return errorType.name
}

// Code is the unique number identifying the error type.
func (errorType *ErrorType) Code() int {
	return errorType.code
}

// Allows the error type definition itself to also be a valid error for things like
// testing error equality.
func (errorType *ErrorType) Error() string {
	return errorType.name + " (" + strconv.Itoa(errorType.code) + ")"
}

// Error is a specific error instance.
type Error struct {
	// The type of error we are returning.
	*ErrorType

	// A message detailing what caused the error.
	Message string

	// An id for the error being returned.
	ID uuid.UUID

	// A string / any mapping of data related to the error, such as the offending go
	// type or type identifier.
	ErrorData map[string]interface{}

	// If this error was returned because of another error, the original error is stored
	// here.
	sourceErr error

	// The debug.Stack() from where this error was instantiated.
	sourceStack []byte

	// The xerrors.Frame from where this error was instantiated.
	frame xerrors.Frame
}

// IsType returns true if the underlying type of this error is errorType.
func (err *Error) IsType(errorType *ErrorType) bool {
	return err.ErrorType.Error() == errorType.Error()
}

// Is lets xerrors.Is / errors.Is match an instance against its ErrorType var.
func (err *Error) Is(target error) bool {
	errorType, ok := target.(*ErrorType)
	if !ok {
		return false
	}
	return err.IsType(errorType)
}

// Error string to conform to builtin error interface.
func (err *Error) Error() string {
	message := err.ErrorType.Error() + " - " + err.Message
	if err.sourceErr != nil {
		message += ": " + err.sourceErr.Error()
	}
	return message
}

// Unwrap implements the xerrors.Wrapper interface.
func (err *Error) Unwrap() error {
	return err.sourceErr
}

// WithData sets a key of ErrorData and returns the error for chaining.
func (err *Error) WithData(key string, value interface{}) *Error {
	if err.ErrorData == nil {
		err.ErrorData = make(map[string]interface{})
	}
	err.ErrorData[key] = value
	return err
}

// Format prints the error with its caller frame when formatted with "%+v".
func (err *Error) Format(state fmt.State, verb rune) {
	xerrors.FormatError(err, state, verb)
}

// FormatError implements xerrors.Formatter.
func (err *Error) FormatError(printer xerrors.Printer) error {
	printer.Print(err.ErrorType.Error() + " - " + err.Message)
	err.frame.Format(printer)
	return err.sourceErr
}

// LogMessage is a more verbose error message that includes the source error and a
// debug.Stack(). It is not part of Error() since it is only meant for logs.
func (err *Error) LogMessage() string {
	return fmt.Sprint(
		"\nMESSAGE: ",
		err.Error(),
		"\nORIGINAL: ",
		err.sourceErr,
		"\nSTACK:\n",
		string(err.sourceStack),
	)
}
