// Package field provides builders for declaring table fields. Builders
// produce plain descriptors; the migration engine consumes descriptors
// only and performs no reflection on user types.
package field

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// A Descriptor for field configuration.
type Descriptor struct {
	Name       string    // field name.
	Info       *TypeInfo // field type info.
	Nullable   bool      // column may hold NULL.
	PrimaryKey bool      // part of the table primary key.
	Unique     bool      // single-column unique constraint.
	Index      bool      // single-column index.
	ForeignKey string    // referenced "table.column", if any.
	Check      string    // check expression, if any.
	IsList     bool      // array of the element type.
	JSON       bool      // explicit opt-in for JSON storage.
	Timezone   bool      // timezone-aware variant for time types.
	Enums      []string  // enum values, for enum fields.
	Default    any       // default value or generator (consumed by the query layer).
	Err        error     // builder error, checked on extraction.
}

// String returns a new string field.
func String(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeString}}}
}

// Int returns a new integer field.
func Int(name string) *intBuilder {
	return &intBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeInt}}}
}

// Float returns a new float field.
func Float(name string) *floatBuilder {
	return &floatBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeFloat64}}}
}

// Bool returns a new boolean field.
func Bool(name string) *boolBuilder {
	return &boolBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeBool}}}
}

// Bytes returns a new bytes field.
func Bytes(name string) *bytesBuilder {
	return &bytesBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeBytes}}}
}

// UUID returns a new UUID field.
func UUID(name string) *uuidBuilder {
	return &uuidBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeUUID}}}
}

// JSON returns a new JSON field. Declaring a field through this builder
// is the explicit opt-in required for JSON storage.
func JSON(name string) *jsonBuilder {
	return &jsonBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeJSON}, JSON: true}}
}

// Enum returns a new enum field. The database type name defaults to the
// field name and can be shared across tables with TypeName.
func Enum(name string) *enumBuilder {
	return &enumBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeEnum, Ident: name}}}
}

// Time returns a new timestamp field. The column defaults to the
// zone-naive variant unless WithTimezone is set.
func Time(name string) *timeBuilder {
	return &timeBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeTime}}}
}

// Date returns a new date field.
func Date(name string) *dateBuilder {
	return &dateBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeDate}}}
}

// TimeOfDay returns a new time-of-day field. The column defaults to the
// zone-naive variant unless WithTimezone is set.
func TimeOfDay(name string) *timeOfDayBuilder {
	return &timeOfDayBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeTimeOfDay}}}
}

// Duration returns a new duration (interval) field.
func Duration(name string) *durationBuilder {
	return &durationBuilder{&Descriptor{Name: name, Info: &TypeInfo{Type: TypeDuration}}}
}

// stringBuilder is the builder for string fields.
type stringBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *stringBuilder) Nullable() *stringBuilder {
	b.desc.Nullable = true
	return b
}

// PrimaryKey marks the field as part of the table primary key.
func (b *stringBuilder) PrimaryKey() *stringBuilder {
	b.desc.PrimaryKey = true
	return b
}

// Unique makes the field unique within the table.
func (b *stringBuilder) Unique() *stringBuilder {
	b.desc.Unique = true
	return b
}

// Index creates a single-column index for the field.
func (b *stringBuilder) Index() *stringBuilder {
	b.desc.Index = true
	return b
}

// ForeignKey references a "table.column" target.
func (b *stringBuilder) ForeignKey(target string) *stringBuilder {
	b.desc.ForeignKey = target
	return b
}

// Check adds a check constraint expression on the field.
func (b *stringBuilder) Check(expr string) *stringBuilder {
	b.desc.Check = expr
	return b
}

// List declares the column as an array of the element type.
func (b *stringBuilder) List() *stringBuilder {
	b.desc.IsList = true
	return b
}

// Default sets the default value of the field.
func (b *stringBuilder) Default(s string) *stringBuilder {
	b.desc.Default = s
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *stringBuilder) Descriptor() *Descriptor {
	return b.desc
}

// intBuilder is the builder for integer fields.
type intBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *intBuilder) Nullable() *intBuilder {
	b.desc.Nullable = true
	return b
}

// PrimaryKey marks the field as part of the table primary key.
func (b *intBuilder) PrimaryKey() *intBuilder {
	b.desc.PrimaryKey = true
	return b
}

// Unique makes the field unique within the table.
func (b *intBuilder) Unique() *intBuilder {
	b.desc.Unique = true
	return b
}

// Index creates a single-column index for the field.
func (b *intBuilder) Index() *intBuilder {
	b.desc.Index = true
	return b
}

// ForeignKey references a "table.column" target.
func (b *intBuilder) ForeignKey(target string) *intBuilder {
	b.desc.ForeignKey = target
	return b
}

// Check adds a check constraint expression on the field.
func (b *intBuilder) Check(expr string) *intBuilder {
	b.desc.Check = expr
	return b
}

// List declares the column as an array of the element type.
func (b *intBuilder) List() *intBuilder {
	b.desc.IsList = true
	return b
}

// Default sets the default value of the field.
func (b *intBuilder) Default(i int) *intBuilder {
	b.desc.Default = i
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *intBuilder) Descriptor() *Descriptor {
	return b.desc
}

// floatBuilder is the builder for float fields.
type floatBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *floatBuilder) Nullable() *floatBuilder {
	b.desc.Nullable = true
	return b
}

// Unique makes the field unique within the table.
func (b *floatBuilder) Unique() *floatBuilder {
	b.desc.Unique = true
	return b
}

// Index creates a single-column index for the field.
func (b *floatBuilder) Index() *floatBuilder {
	b.desc.Index = true
	return b
}

// Check adds a check constraint expression on the field.
func (b *floatBuilder) Check(expr string) *floatBuilder {
	b.desc.Check = expr
	return b
}

// List declares the column as an array of the element type.
func (b *floatBuilder) List() *floatBuilder {
	b.desc.IsList = true
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *floatBuilder) Descriptor() *Descriptor {
	return b.desc
}

// boolBuilder is the builder for boolean fields.
type boolBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *boolBuilder) Nullable() *boolBuilder {
	b.desc.Nullable = true
	return b
}

// Index creates a single-column index for the field.
func (b *boolBuilder) Index() *boolBuilder {
	b.desc.Index = true
	return b
}

// Default sets the default value of the field.
func (b *boolBuilder) Default(v bool) *boolBuilder {
	b.desc.Default = v
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *boolBuilder) Descriptor() *Descriptor {
	return b.desc
}

// bytesBuilder is the builder for bytes fields.
type bytesBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *bytesBuilder) Nullable() *bytesBuilder {
	b.desc.Nullable = true
	return b
}

// Unique makes the field unique within the table.
func (b *bytesBuilder) Unique() *bytesBuilder {
	b.desc.Unique = true
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *bytesBuilder) Descriptor() *Descriptor {
	return b.desc
}

// uuidBuilder is the builder for uuid fields.
type uuidBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *uuidBuilder) Nullable() *uuidBuilder {
	b.desc.Nullable = true
	return b
}

// PrimaryKey marks the field as part of the table primary key.
func (b *uuidBuilder) PrimaryKey() *uuidBuilder {
	b.desc.PrimaryKey = true
	return b
}

// Unique makes the field unique within the table.
func (b *uuidBuilder) Unique() *uuidBuilder {
	b.desc.Unique = true
	return b
}

// ForeignKey references a "table.column" target.
func (b *uuidBuilder) ForeignKey(target string) *uuidBuilder {
	b.desc.ForeignKey = target
	return b
}

// Default sets the function that is applied to generate the default value
// of the field, e.g. uuid.New.
func (b *uuidBuilder) Default(fn func() uuid.UUID) *uuidBuilder {
	b.desc.Default = fn
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *uuidBuilder) Descriptor() *Descriptor {
	return b.desc
}

// jsonBuilder is the builder for json fields.
type jsonBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *jsonBuilder) Nullable() *jsonBuilder {
	b.desc.Nullable = true
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *jsonBuilder) Descriptor() *Descriptor {
	return b.desc
}

// enumBuilder is the builder for enum fields.
type enumBuilder struct {
	desc *Descriptor
}

// Values adds the given values to the enum values.
func (b *enumBuilder) Values(values ...string) *enumBuilder {
	b.desc.Enums = append(b.desc.Enums, values...)
	return b
}

// TypeName overrides the database type name of the enum, allowing the
// same named type to be shared by fields across tables.
func (b *enumBuilder) TypeName(name string) *enumBuilder {
	b.desc.Info.Ident = name
	return b
}

// Nullable indicates that this field is nullable.
func (b *enumBuilder) Nullable() *enumBuilder {
	b.desc.Nullable = true
	return b
}

// Index creates a single-column index for the field.
func (b *enumBuilder) Index() *enumBuilder {
	b.desc.Index = true
	return b
}

// Default sets the default value of the field.
func (b *enumBuilder) Default(value string) *enumBuilder {
	b.desc.Default = value
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *enumBuilder) Descriptor() *Descriptor {
	if len(b.desc.Enums) == 0 && b.desc.Err == nil {
		b.desc.Err = fmt.Errorf("enum field %q has no values", b.desc.Name)
	}
	return b.desc
}

// timeBuilder is the builder for timestamp fields.
type timeBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *timeBuilder) Nullable() *timeBuilder {
	b.desc.Nullable = true
	return b
}

// Index creates a single-column index for the field.
func (b *timeBuilder) Index() *timeBuilder {
	b.desc.Index = true
	return b
}

// WithTimezone stores the timestamp with its time zone.
func (b *timeBuilder) WithTimezone() *timeBuilder {
	b.desc.Timezone = true
	return b
}

// Default sets the function that is applied to generate the default value
// of the field, e.g. time.Now.
func (b *timeBuilder) Default(fn func() time.Time) *timeBuilder {
	b.desc.Default = fn
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *timeBuilder) Descriptor() *Descriptor {
	return b.desc
}

// dateBuilder is the builder for date fields.
type dateBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *dateBuilder) Nullable() *dateBuilder {
	b.desc.Nullable = true
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *dateBuilder) Descriptor() *Descriptor {
	return b.desc
}

// timeOfDayBuilder is the builder for time-of-day fields.
type timeOfDayBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *timeOfDayBuilder) Nullable() *timeOfDayBuilder {
	b.desc.Nullable = true
	return b
}

// WithTimezone stores the time with its time zone.
func (b *timeOfDayBuilder) WithTimezone() *timeOfDayBuilder {
	b.desc.Timezone = true
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *timeOfDayBuilder) Descriptor() *Descriptor {
	return b.desc
}

// durationBuilder is the builder for duration fields.
type durationBuilder struct {
	desc *Descriptor
}

// Nullable indicates that this field is nullable.
func (b *durationBuilder) Nullable() *durationBuilder {
	b.desc.Nullable = true
	return b
}

// Default sets the default value of the field.
func (b *durationBuilder) Default(d time.Duration) *durationBuilder {
	b.desc.Default = d
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *durationBuilder) Descriptor() *Descriptor {
	return b.desc
}
