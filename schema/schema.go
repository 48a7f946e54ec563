// Package schema provides the declarative table descriptors consumed by
// the migration engine in dialect/sql/schema. A Table is a plain bag of
// field and index descriptors; no reflection is involved and tables are
// passed explicitly to the engine rather than registered globally.
package schema

import (
	"fmt"

	"github.com/go-openapi/inflect"

	"github.com/piercefreeman/iceaxe/schema/field"
	"github.com/piercefreeman/iceaxe/schema/index"
)

// Field is implemented by the field builders.
type Field interface {
	Descriptor() *field.Descriptor
}

// Index is implemented by the index builders.
type Index interface {
	Descriptor() *index.Descriptor
}

// Table describes one declared table: its storage name, its fields in
// declaration order, and its table-level composite constraints.
type Table struct {
	Name     string
	Fields   []*field.Descriptor
	Indexes  []*index.Descriptor
	Subtypes []*Table // polymorphic subtype tables, expanded on bootstrap.
}

// New creates a table descriptor. CamelCase names are normalized to
// snake_case storage names.
func New(name string) *Table {
	return &Table{Name: inflect.Underscore(name)}
}

// AddFields appends the given fields in declaration order.
func (t *Table) AddFields(fields ...Field) *Table {
	for _, f := range fields {
		t.Fields = append(t.Fields, f.Descriptor())
	}
	return t
}

// AddIndexes appends table-level composite unique/index constraints.
func (t *Table) AddIndexes(indexes ...Index) *Table {
	for _, idx := range indexes {
		t.Indexes = append(t.Indexes, idx.Descriptor())
	}
	return t
}

// AddSubtypes registers polymorphic subtype tables that are expanded
// alongside this table when bootstrapping a database.
func (t *Table) AddSubtypes(subs ...*Table) *Table {
	t.Subtypes = append(t.Subtypes, subs...)
	return t
}

// Validate reports descriptor-level configuration problems: an unnamed
// table, duplicate or unnamed fields, builder errors, and composite
// constraints referencing unknown fields.
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("schema: table without a name")
	}
	names := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		switch {
		case f.Name == "":
			return fmt.Errorf("schema: table %q has a field without a name", t.Name)
		case f.Err != nil:
			return fmt.Errorf("schema: table %q field %q: %w", t.Name, f.Name, f.Err)
		}
		if _, ok := names[f.Name]; ok {
			return fmt.Errorf("schema: table %q has a duplicate field %q", t.Name, f.Name)
		}
		names[f.Name] = struct{}{}
	}
	for _, idx := range t.Indexes {
		if len(idx.Fields) == 0 {
			return fmt.Errorf("schema: table %q has an index without fields", t.Name)
		}
		for _, col := range idx.Fields {
			if _, ok := names[col]; !ok {
				return fmt.Errorf("schema: table %q index references unknown field %q", t.Name, col)
			}
		}
	}
	for _, sub := range t.Subtypes {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	return nil
}
