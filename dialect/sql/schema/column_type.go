package schema

// A ColumnType is a primitive database column type. Enum columns carry a
// named type reference instead (Column.CustomType).
type ColumnType string

// Primitive column types.
const (
	TypeInteger     ColumnType = "INTEGER"
	TypeDouble      ColumnType = "DOUBLE PRECISION"
	TypeVarchar     ColumnType = "VARCHAR"
	TypeBoolean     ColumnType = "BOOLEAN"
	TypeBytea       ColumnType = "BYTEA"
	TypeUUID        ColumnType = "UUID"
	TypeJSON        ColumnType = "JSON"
	TypeTimestamp   ColumnType = "TIMESTAMP"
	TypeTimestampTZ ColumnType = "TIMESTAMP WITH TIME ZONE"
	TypeDate        ColumnType = "DATE"
	TypeTime        ColumnType = "TIME"
	TypeTimeTZ      ColumnType = "TIME WITH TIME ZONE"
	TypeInterval    ColumnType = "INTERVAL"
)

// String returns the SQL spelling of the type.
func (t ColumnType) String() string { return string(t) }

// pgTypes maps catalog type names to primitive column types. Both
// information_schema data types and pg_type udt names appear, since the
// inspector sees either form depending on the column.
var pgTypes = map[string]ColumnType{
	"integer":                     TypeInteger,
	"int2":                        TypeInteger,
	"int4":                        TypeInteger,
	"int8":                        TypeInteger,
	"smallint":                    TypeInteger,
	"bigint":                      TypeInteger,
	"double precision":            TypeDouble,
	"float4":                      TypeDouble,
	"float8":                      TypeDouble,
	"real":                        TypeDouble,
	"numeric":                     TypeDouble,
	"character varying":           TypeVarchar,
	"varchar":                     TypeVarchar,
	"character":                   TypeVarchar,
	"bpchar":                      TypeVarchar,
	"text":                        TypeVarchar,
	"boolean":                     TypeBoolean,
	"bool":                        TypeBoolean,
	"bytea":                       TypeBytea,
	"uuid":                        TypeUUID,
	"json":                        TypeJSON,
	"jsonb":                       TypeJSON,
	"timestamp":                   TypeTimestamp,
	"timestamp without time zone": TypeTimestamp,
	"timestamptz":                 TypeTimestampTZ,
	"timestamp with time zone":    TypeTimestampTZ,
	"date":                        TypeDate,
	"time":                        TypeTime,
	"time without time zone":      TypeTime,
	"timetz":                      TypeTimeTZ,
	"time with time zone":         TypeTimeTZ,
	"interval":                    TypeInterval,
}
