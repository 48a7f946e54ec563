package schema

import (
	"sort"
	"strings"

	model "github.com/piercefreeman/iceaxe/schema"
	"github.com/piercefreeman/iceaxe/schema/field"
)

// A Node pairs a schema object (or, on the dependency side, a pointer)
// with the objects it depends on. Nodes are the common vocabulary
// produced by both the declarative extractor and the live inspector and
// consumed by OrderObjects.
type Node struct {
	Object Object
	Deps   []Ref
}

// nodeGroup is one emission group of the extractor worklist: a node, the
// dependencies it declares itself, and whether it refuses the ambient
// dependencies of its caller. The flag exists so an enum type anchors
// only to the table that first introduced it, not to every column that
// later references it.
type nodeGroup struct {
	node      Object
	deps      []Ref
	noInherit bool
}

// Extract converts declared table descriptors into object/dependency
// pairs. It is deterministic for identical input: tables are processed
// sorted by name, fields in declaration order.
func Extract(tables []*model.Table) ([]Node, error) {
	sorted := make([]*model.Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	ex := &extractor{types: make(map[string]struct{})}
	for _, t := range sorted {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if err := ex.table(t); err != nil {
			return nil, err
		}
	}
	return ex.nodes, nil
}

type extractor struct {
	nodes []Node
	types map[string]struct{} // enum type names already introduced.
}

// emit flattens one emission group into the node list. Ambient
// dependencies are merged in unless the group opts out; the final
// dependency list is deduplicated and sorted by representation for
// deterministic output.
func (ex *extractor) emit(ambient []Ref, groups ...nodeGroup) {
	for _, g := range groups {
		deps := make([]Ref, 0, len(ambient)+len(g.deps))
		if !g.noInherit {
			deps = append(deps, ambient...)
		}
		deps = append(deps, g.deps...)
		seen := make(map[string]struct{}, len(deps))
		uniq := deps[:0]
		for _, d := range deps {
			if _, ok := seen[d.Representation()]; ok {
				continue
			}
			seen[d.Representation()] = struct{}{}
			uniq = append(uniq, d)
		}
		sort.Slice(uniq, func(i, j int) bool {
			return uniq[i].Representation() < uniq[j].Representation()
		})
		ex.nodes = append(ex.nodes, Node{Object: g.node, Deps: uniq})
	}
}

func (ex *extractor) table(t *model.Table) error {
	tbl := &Table{Name: t.Name}
	ex.emit(nil, nodeGroup{node: tbl})

	columns := make(map[string]*Column, len(t.Fields))
	columnRefs := make([]Ref, 0, len(t.Fields))
	var pkCols []string
	for _, fd := range t.Fields {
		typ, custom, typeDep, err := ex.columnType(t.Name, tbl, fd)
		if err != nil {
			return err
		}
		col := &Column{
			TableName:  t.Name,
			ColumnName: fd.Name,
			Type:       typ,
			CustomType: custom,
			IsList:     fd.IsList,
			Nullable:   fd.Nullable,
		}
		var deps []Ref
		if typeDep != nil {
			deps = append(deps, typeDep)
		}
		ex.emit([]Ref{tbl}, nodeGroup{node: col, deps: deps})
		columns[fd.Name] = col
		columnRefs = append(columnRefs, col)
		if fd.PrimaryKey {
			pkCols = append(pkCols, fd.Name)
		}
	}

	// Exactly one primary-key constraint covering every marked field.
	if len(pkCols) > 0 {
		ex.emit(append([]Ref{tbl}, columnRefs...), nodeGroup{node: &Constraint{
			TableName: t.Name,
			Name:      ConstraintName(t.Name, pkCols, PrimaryKey),
			Type:      PrimaryKey,
			Columns:   sortedSet(pkCols),
		}})
	}

	// Single-column constraints from field modifiers.
	for _, fd := range t.Fields {
		if err := ex.fieldConstraints(t.Name, tbl, columns[fd.Name], fd); err != nil {
			return err
		}
	}

	// Table-level composite constraints.
	for _, idx := range t.Indexes {
		ct := Index
		if idx.Unique {
			ct = Unique
		}
		name := idx.StorageKey
		if name == "" {
			name = ConstraintName(t.Name, idx.Fields, ct)
		}
		deps := []Ref{tbl}
		for _, col := range idx.Fields {
			deps = append(deps, columns[col])
		}
		ex.emit(deps, nodeGroup{node: &Constraint{
			TableName: t.Name,
			Name:      name,
			Type:      ct,
			Columns:   sortedSet(idx.Fields),
		}})
	}
	return nil
}

// columnType classifies a field descriptor into a column type. Enum
// fields additionally introduce (or point at) their named type; the
// returned Ref is the column's dependency on it.
func (ex *extractor) columnType(table string, tbl *Table, fd *field.Descriptor) (ColumnType, string, Ref, error) {
	ident := table + "." + fd.Name
	if fd.Info == nil || !fd.Info.Type.Valid() {
		return "", "", nil, NewConfigError("column:"+ident, "missing type classification")
	}
	switch fd.Info.Type {
	case field.TypeEnum:
		if fd.IsList {
			return "", "", nil, NewConfigError("column:"+ident, "list of enum values is not supported")
		}
		name := fd.Info.Ident
		if _, ok := ex.types[name]; ok {
			// Already introduced: re-emit the full definition for the merge
			// step and reference it by pointer.
			ex.emit(nil, nodeGroup{
				node:      NewEnumType(name, fd.Enums, TableColumn{Table: table, Column: fd.Name}),
				noInherit: true,
			})
			return "", name, &TypePointer{Name: name}, nil
		}
		ex.types[name] = struct{}{}
		typ := NewEnumType(name, fd.Enums, TableColumn{Table: table, Column: fd.Name})
		ex.emit(nil, nodeGroup{node: typ, deps: []Ref{tbl}, noInherit: true})
		return "", name, typ, nil
	case field.TypeInt:
		return TypeInteger, "", nil, nil
	case field.TypeFloat64:
		return TypeDouble, "", nil, nil
	case field.TypeString:
		return TypeVarchar, "", nil, nil
	case field.TypeBool:
		return TypeBoolean, "", nil, nil
	case field.TypeBytes:
		return TypeBytea, "", nil, nil
	case field.TypeUUID:
		return TypeUUID, "", nil, nil
	case field.TypeJSON:
		if !fd.JSON {
			return "", "", nil, NewConfigError("column:"+ident, "JSON fields must explicitly opt in to JSON storage")
		}
		return TypeJSON, "", nil, nil
	case field.TypeTime:
		if fd.Timezone {
			return TypeTimestampTZ, "", nil, nil
		}
		return TypeTimestamp, "", nil, nil
	case field.TypeDate:
		return TypeDate, "", nil, nil
	case field.TypeTimeOfDay:
		if fd.Timezone {
			return TypeTimeTZ, "", nil, nil
		}
		return TypeTime, "", nil, nil
	case field.TypeDuration:
		return TypeInterval, "", nil, nil
	default:
		return "", "", nil, NewConfigError("column:"+ident, "unsupported column type %q", fd.Info)
	}
}

// fieldConstraints emits the single-column constraints declared by the
// field's modifiers, each named deterministically from table, column and
// kind.
func (ex *extractor) fieldConstraints(table string, tbl *Table, col *Column, fd *field.Descriptor) error {
	build := func(ct ConstraintType, fk *ForeignKeyRef, check *CheckRef) nodeGroup {
		return nodeGroup{node: &Constraint{
			TableName:  table,
			Name:       ConstraintName(table, []string{fd.Name}, ct),
			Type:       ct,
			Columns:    []string{fd.Name},
			ForeignKey: fk,
			Check:      check,
		}}
	}
	ambient := []Ref{tbl, col}
	if fd.Unique {
		ex.emit(ambient, build(Unique, nil, nil))
	}
	if fd.ForeignKey != "" {
		i := strings.LastIndex(fd.ForeignKey, ".")
		if i <= 0 || i == len(fd.ForeignKey)-1 {
			return NewConfigError("column:"+table+"."+fd.Name, "invalid foreign-key target %q, want \"table.column\"", fd.ForeignKey)
		}
		targetTable, targetColumn := fd.ForeignKey[:i], fd.ForeignKey[i+1:]
		g := build(ForeignKey, &ForeignKeyRef{
			TargetTable:   targetTable,
			TargetColumns: []string{targetColumn},
		}, nil)
		// The target column must exist before the constraint and outlive it.
		g.deps = append(g.deps, &ColumnPointer{TableName: targetTable, ColumnName: targetColumn})
		ex.emit(ambient, g)
	}
	if fd.Index {
		ex.emit(ambient, build(Index, nil, nil))
	}
	if fd.Check != "" {
		ex.emit(ambient, build(Check, nil, &CheckRef{Condition: fd.Check}))
	}
	return nil
}
