package schema

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Snapshot object kinds.
const (
	kindTable      = "table"
	kindColumn     = "column"
	kindType       = "type"
	kindConstraint = "constraint"
)

type snapshotObject struct {
	Kind       string      `yaml:"kind"`
	Rank       int         `yaml:"rank"`
	Table      *Table      `yaml:"table,omitempty"`
	Column     *Column     `yaml:"column,omitempty"`
	EnumType   *EnumType   `yaml:"enum_type,omitempty"`
	Constraint *Constraint `yaml:"constraint,omitempty"`
}

type snapshot struct {
	Objects []snapshotObject `yaml:"objects"`
}

// WriteSnapshot encodes an ordering to w as YAML, objects in rank order.
// A snapshot stands in for a live database in a later diff: the decoded
// ordering is a valid previous state for BuildActions.
func WriteSnapshot(w io.Writer, ord *Ordering) error {
	snap := snapshot{Objects: make([]snapshotObject, 0, len(ord.Objects))}
	for _, obj := range ord.Objects {
		so := snapshotObject{Rank: ord.Ranks[obj.Representation()]}
		switch o := obj.(type) {
		case *Table:
			so.Kind, so.Table = kindTable, o
		case *Column:
			so.Kind, so.Column = kindColumn, o
		case *EnumType:
			so.Kind, so.EnumType = kindType, o
		case *Constraint:
			so.Kind, so.Constraint = kindConstraint, o
		default:
			return NewConfigError(obj.Representation(), "object kind %T cannot be snapshotted", obj)
		}
		snap.Objects = append(snap.Objects, so)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(snap)
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Ordering, error) {
	var snap snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("sql/schema: decode snapshot: %w", err)
	}
	ord := &Ordering{
		Objects: make([]Object, 0, len(snap.Objects)),
		Ranks:   make(map[string]int, len(snap.Objects)),
	}
	for _, so := range snap.Objects {
		var obj Object
		switch so.Kind {
		case kindTable:
			if so.Table != nil {
				obj = so.Table
			}
		case kindColumn:
			if so.Column != nil {
				obj = so.Column
			}
		case kindType:
			if so.EnumType != nil {
				obj = so.EnumType
			}
		case kindConstraint:
			if so.Constraint != nil {
				obj = so.Constraint
			}
		default:
			return nil, NewConfigError("snapshot", "unknown object kind %q", so.Kind)
		}
		if obj == nil {
			return nil, NewConfigError("snapshot", "object of kind %q has no %s body", so.Kind, so.Kind)
		}
		ord.Objects = append(ord.Objects, obj)
		ord.Ranks[obj.Representation()] = so.Rank
	}
	return ord, nil
}
