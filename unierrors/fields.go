package unierrors

import (
	"math"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"
)

// Keys used by Fields and FromFields.
const (
	fieldCode    = "code"
	fieldName    = "name"
	fieldMessage = "message"
	fieldID      = "id"
	fieldData    = "data"
)

// Fields describes err as a string-keyed mapping so it can travel through the codec.
// The source error and stack are process-local and are not included.
func (err *Error) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		fieldCode:    err.Code(),
		fieldName:    err.Name(),
		fieldMessage: err.Message,
		fieldID:      err.ID.String(),
	}
	if err.ErrorData != nil {
		fields[fieldData] = err.ErrorData
	}
	return fields
}

// FromFields rebuilds an error described by Fields. The error type is looked up by code
// in errorTypeCodeIndex, pass nil to use ErrorTypeCodeIndex.
func FromFields(
	fields map[string]interface{}, errorTypeCodeIndex map[int]*ErrorType,
) (*Error, error) {
	if errorTypeCodeIndex == nil {
		errorTypeCodeIndex = ErrorTypeCodeIndex
	}

	code, err := codeOf(fields[fieldCode])
	if err != nil {
		return nil, err
	}
	errorType, ok := errorTypeCodeIndex[code]
	if !ok {
		return nil, xerrors.Errorf("no known error for code %d", code)
	}

	message, _ := fields[fieldMessage].(string)

	idText, _ := fields[fieldID].(string)
	errorID, err := uuid.FromString(idText)
	if err != nil {
		return nil, xerrors.New("error ID is not valid UUID")
	}

	var errorData map[string]interface{}
	switch data := fields[fieldData].(type) {
	case nil:
	case map[string]interface{}:
		errorData = data
	default:
		return nil, xerrors.Errorf("error data is %T, not a mapping", data)
	}

	rebuilt := errorType.New(message, errorData, nil)
	rebuilt.ID = errorID
	return rebuilt, nil
}

func codeOf(value interface{}) (int, error) {
	switch code := value.(type) {
	case int:
		return code, nil
	case int64:
		return int(code), nil
	case uint64:
		if code > math.MaxInt32 {
			return 0, xerrors.Errorf("error code %d out of range", code)
		}
		return int(code), nil
	case float64:
		if code != math.Trunc(code) {
			return 0, xerrors.New("error code not int")
		}
		return int(code), nil
	default:
		return 0, xerrors.New("error code not int")
	}
}
