package registry

import (
	"encoding/hex"
	"math"
	"time"

	uuid "github.com/satori/go.uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/unijson-go/unierrors"
	"github.com/illuscio-dev/unijson-go/unitypes"
)

// BuiltinOpts holds a built-in registration.
type BuiltinOpts struct {
	// Sample value of the type handled.
	Sample interface{}
	Encode EncodeFunc
	Decode DecodeFunc
}

// Builtins lists the entries every registry returned by New() starts with.
var Builtins = []*BuiltinOpts{
	{Sample: time.Time{}, Encode: encodeTime, Decode: decodeTime},
	{Sample: time.UTC, Encode: encodeLocation, Decode: decodeLocation},
	{Sample: time.Duration(0), Encode: encodeDuration, Decode: decodeDuration},
	{Sample: uuid.UUID{}, Encode: encodeUUID, Decode: decodeUUID},
	{Sample: unitypes.BinData{}, Encode: encodeBinData, Decode: decodeBinData},
	{Sample: primitive.ObjectID{}, Encode: encodeObjectID, Decode: decodeObjectID},
	{Sample: primitive.DateTime(0), Encode: encodeBsonDateTime, Decode: decodeBsonDateTime},
	{Sample: primitive.Decimal128{}, Encode: encodeDecimal128, Decode: decodeDecimal128},
	{Sample: primitive.Binary{}, Encode: encodeBsonBinary, Decode: decodeBsonBinary},
	{Sample: bson.Raw{}, Encode: encodeBsonRaw, Decode: decodeBsonRaw},
	{Sample: &unierrors.Error{}, Encode: encodeError, Decode: decodeError},
}

func registerBuiltins(registry *TypeRegistry) error {
	for _, builtin := range Builtins {
		err := registry.RegisterFor(builtin.Sample, builtin.Encode, builtin.Decode)
		if err != nil {
			return err
		}
	}
	return nil
}

// TIME

// Layout used for time.Time. The location travels separately under "tzinfo", the
// offset in effect at that instant under "offset".
const timeLayout = time.RFC3339Nano

func encodeTime(value interface{}) (map[string]interface{}, error) {
	timeValue := value.(time.Time)
	_, offset := timeValue.Zone()
	return map[string]interface{}{
		"datetime": timeValue.Format(timeLayout),
		"offset":   int64(offset),
		"tzinfo":   timeValue.Location(),
	}, nil
}

func decodeTime(fields map[string]interface{}) (interface{}, error) {
	text, err := stringField(fields, "datetime")
	if err != nil {
		return nil, err
	}
	parsed, err := time.Parse(timeLayout, text)
	if err != nil {
		return nil, xerrors.Errorf("error parsing datetime: %w", err)
	}

	switch location := fields["tzinfo"].(type) {
	case nil:
	case *time.Location:
		parsed = parsed.In(location)
	default:
		return nil, xerrors.Errorf("tzinfo is %T, not a location", location)
	}

	// A zone rebuilt by name may disagree with the sender's rules at this instant.
	if _, ok := fields["offset"]; ok {
		offset, err := intField(fields, "offset")
		if err != nil {
			return nil, err
		}
		if name, current := parsed.Zone(); int64(current) != offset {
			parsed = parsed.In(time.FixedZone(name, int(offset)))
		}
	}
	return parsed, nil
}

// Offset of a location at a fixed instant. Only used to rebuild zones that cannot be
// loaded by name, which are fixed zones.
var offsetInstant = time.Unix(0, 0)

func encodeLocation(value interface{}) (map[string]interface{}, error) {
	location := value.(*time.Location)
	_, offset := offsetInstant.In(location).Zone()
	return map[string]interface{}{
		"zone":   location.String(),
		"offset": int64(offset),
	}, nil
}

func decodeLocation(fields map[string]interface{}) (interface{}, error) {
	zone, err := stringField(fields, "zone")
	if err != nil {
		return nil, err
	}

	var loadErr error
	if zone != "" {
		location, err := time.LoadLocation(zone)
		if err == nil {
			return location, nil
		}
		loadErr = xerrors.Errorf("error loading zone %q: %w", zone, err)
	}

	if _, ok := fields["offset"]; !ok {
		if loadErr == nil {
			loadErr = xerrors.New("zone has no name and no offset")
		}
		return nil, loadErr
	}
	offset, err := intField(fields, "offset")
	if err != nil {
		return nil, err
	}
	return time.FixedZone(zone, int(offset)), nil
}

// Durations travel as exact nanoseconds. "seconds" is informative and only read when
// "nanoseconds" is absent.
func encodeDuration(value interface{}) (map[string]interface{}, error) {
	duration := value.(time.Duration)
	return map[string]interface{}{
		"nanoseconds": int64(duration),
		"seconds":     duration.Seconds(),
	}, nil
}

func decodeDuration(fields map[string]interface{}) (interface{}, error) {
	if _, ok := fields["nanoseconds"]; ok {
		nanoseconds, err := intField(fields, "nanoseconds")
		if err != nil {
			return nil, err
		}
		return time.Duration(nanoseconds), nil
	}

	seconds, err := floatField(fields, "seconds")
	if err != nil {
		return nil, err
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), nil
}

// IDS AND BLOBS

func encodeUUID(value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"uuid": value.(uuid.UUID).String()}, nil
}

func decodeUUID(fields map[string]interface{}) (interface{}, error) {
	text, err := stringField(fields, "uuid")
	if err != nil {
		return nil, err
	}
	return uuid.FromString(text)
}

func encodeBinData(value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"hex": hex.EncodeToString(value.(unitypes.BinData))}, nil
}

func decodeBinData(fields map[string]interface{}) (interface{}, error) {
	data, err := hexField(fields, "hex")
	if err != nil {
		return nil, err
	}
	return unitypes.BinData(data), nil
}

// BSON

func encodeObjectID(value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"oid": value.(primitive.ObjectID).Hex()}, nil
}

func decodeObjectID(fields map[string]interface{}) (interface{}, error) {
	text, err := stringField(fields, "oid")
	if err != nil {
		return nil, err
	}
	return primitive.ObjectIDFromHex(text)
}

func encodeBsonDateTime(value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"epoch_ms": int64(value.(primitive.DateTime))}, nil
}

func decodeBsonDateTime(fields map[string]interface{}) (interface{}, error) {
	millis, err := intField(fields, "epoch_ms")
	if err != nil {
		return nil, err
	}
	return primitive.DateTime(millis), nil
}

func encodeDecimal128(value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"decimal": value.(primitive.Decimal128).String()}, nil
}

func decodeDecimal128(fields map[string]interface{}) (interface{}, error) {
	text, err := stringField(fields, "decimal")
	if err != nil {
		return nil, err
	}
	return primitive.ParseDecimal128(text)
}

func encodeBsonBinary(value interface{}) (map[string]interface{}, error) {
	binary := value.(primitive.Binary)
	return map[string]interface{}{
		"subtype": int64(binary.Subtype),
		"hex":     hex.EncodeToString(binary.Data),
	}, nil
}

func decodeBsonBinary(fields map[string]interface{}) (interface{}, error) {
	subtype, err := intField(fields, "subtype")
	if err != nil {
		return nil, err
	}
	if subtype < 0 || subtype > math.MaxUint8 {
		return nil, xerrors.Errorf("binary subtype %v out of range", subtype)
	}
	data, err := hexField(fields, "hex")
	if err != nil {
		return nil, err
	}
	return primitive.Binary{Subtype: byte(subtype), Data: data}, nil
}

// Raw documents travel as a nested object. Values inside it are encoded like any other
// value, so bson primitives in the document keep their own tags.
func encodeBsonRaw(value interface{}) (map[string]interface{}, error) {
	raw := value.(bson.Raw)
	document := bson.M{}
	if len(raw) > 0 {
		if err := bson.Unmarshal(raw, &document); err != nil {
			return nil, xerrors.Errorf(
				"error while unmarshalling bson for encoding: %w", err,
			)
		}
	}
	return map[string]interface{}{"document": document}, nil
}

func decodeBsonRaw(fields map[string]interface{}) (interface{}, error) {
	document, ok := fields["document"].(map[string]interface{})
	if !ok {
		return nil, xerrors.Errorf("document is %T, not an object", fields["document"])
	}
	marshalled, err := bson.Marshal(document)
	if err != nil {
		return nil, xerrors.Errorf("error while marshalling bson document: %w", err)
	}
	return bson.Raw(marshalled), nil
}

// ERRORS

// Errors of this package travel with their code so the receiving side can match them
// against the default error types.
func encodeError(value interface{}) (map[string]interface{}, error) {
	return value.(*unierrors.Error).Fields(), nil
}

func decodeError(fields map[string]interface{}) (interface{}, error) {
	return unierrors.FromFields(fields, nil)
}

// FIELD HELPERS

func stringField(fields map[string]interface{}, key string) (string, error) {
	value, ok := fields[key].(string)
	if !ok {
		return "", xerrors.Errorf("field %q is %T, not a string", key, fields[key])
	}
	return value, nil
}

func hexField(fields map[string]interface{}, key string) ([]byte, error) {
	text, err := stringField(fields, key)
	if err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(text)
	if err != nil {
		return nil, xerrors.Errorf("could not decode hex: %w", err)
	}
	return data, nil
}

// Numbers come back from the baseline codec as int64, uint64 or float64 depending on
// the handle options.
func floatField(fields map[string]interface{}, key string) (float64, error) {
	switch number := fields[key].(type) {
	case float64:
		return number, nil
	case float32:
		return float64(number), nil
	case int64:
		return float64(number), nil
	case uint64:
		return float64(number), nil
	case int:
		return float64(number), nil
	default:
		return 0, xerrors.Errorf("field %q is %T, not a number", key, fields[key])
	}
}

func intField(fields map[string]interface{}, key string) (int64, error) {
	switch number := fields[key].(type) {
	case int64:
		return number, nil
	case int:
		return int64(number), nil
	case uint64:
		if number > math.MaxInt64 {
			return 0, xerrors.Errorf("field %q overflows int64", key)
		}
		return int64(number), nil
	case float64:
		if number != math.Trunc(number) {
			return 0, xerrors.Errorf("field %q is not an integer", key)
		}
		return int64(number), nil
	default:
		return 0, xerrors.Errorf("field %q is %T, not a number", key, fields[key])
	}
}
