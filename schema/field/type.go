package field

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeFloat64
	TypeString
	TypeBytes
	TypeUUID
	TypeJSON
	TypeTime
	TypeDate
	TypeTimeOfDay
	TypeDuration
	TypeEnum
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:   "invalid",
	TypeBool:      "bool",
	TypeInt:       "int",
	TypeFloat64:   "float64",
	TypeString:    "string",
	TypeBytes:     "bytes",
	TypeUUID:      "uuid",
	TypeJSON:      "json",
	TypeTime:      "time",
	TypeDate:      "date",
	TypeTimeOfDay: "timeofday",
	TypeDuration:  "duration",
	TypeEnum:      "enum",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a valid field type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// TypeInfo holds the information regarding a field type.
// Ident carries the named database type for enum fields.
type TypeInfo struct {
	Type  Type
	Ident string
}

// String returns the string representation of the type info.
func (t TypeInfo) String() string {
	if t.Ident != "" {
		return t.Ident
	}
	return t.Type.String()
}
