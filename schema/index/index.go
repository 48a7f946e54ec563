// Package index provides builders for table-level composite constraints.
package index

// A Descriptor for index configuration.
type Descriptor struct {
	Fields     []string // indexed fields.
	Unique     bool     // unique index.
	StorageKey string   // custom index name.
}

// Builder for indexes on entity fields.
type Builder struct {
	desc *Descriptor
}

// Fields creates an index on the given set of fields.
func Fields(fields ...string) *Builder {
	return &Builder{desc: &Descriptor{Fields: fields}}
}

// Unique sets the index to be a unique index.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// StorageKey sets the storage key of the index, overriding the
// deterministic name derived from the table and columns.
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.StorageKey = key
	return b
}

// Descriptor implements the schema.Index interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
