package schema

import (
	"context"

	"github.com/piercefreeman/iceaxe/dialect"
	model "github.com/piercefreeman/iceaxe/schema"
)

// Differ computes the change set between two ordered states and records
// it on the actor. prev is nil when planning from scratch.
type Differ interface {
	Diff(ctx context.Context, a *Actions, prev, next *Ordering) error
}

// DiffFunc allows an ordinary function to act as a Differ.
type DiffFunc func(ctx context.Context, a *Actions, prev, next *Ordering) error

// Diff calls f(ctx, a, prev, next).
func (f DiffFunc) Diff(ctx context.Context, a *Actions, prev, next *Ordering) error {
	return f(ctx, a, prev, next)
}

// DiffHook wraps a Differ with additional behavior, e.g. filtering or
// logging planned changes.
type DiffHook func(Differ) Differ

// MigrateOption configures a Migrate.
type MigrateOption func(*Migrate)

// WithSchemaName sets the database schema inspected before planning.
// Defaults to "public".
func WithSchemaName(name string) MigrateOption {
	return func(m *Migrate) { m.schema = name }
}

// WithDryRun records planned changes without executing them.
func WithDryRun(dry bool) MigrateOption {
	return func(m *Migrate) { m.dryRun = dry }
}

// WithDiffHook adds hooks around the default differ. Hooks run in the
// order given, each receiving the differ produced by the next.
func WithDiffHook(hooks ...DiffHook) MigrateOption {
	return func(m *Migrate) { m.hooks = append(m.hooks, hooks...) }
}

// Migrate drives declared table definitions into a database: it
// extracts and orders the declared objects, diffs them against the
// previous state, and executes the recorded changes in order.
type Migrate struct {
	drv    dialect.Driver
	schema string
	dryRun bool
	hooks  []DiffHook
}

// NewMigrate returns a Migrate executing through the given driver.
func NewMigrate(drv dialect.Driver, opts ...MigrateOption) *Migrate {
	m := &Migrate{drv: drv, schema: "public"}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create bootstraps the declared tables on an empty database: every
// object is created in dependency order. Returns the recorded changes.
func (m *Migrate) Create(ctx context.Context, tables ...*model.Table) ([]Change, error) {
	return m.plan(ctx, nil, tables, !m.dryRun)
}

// Diff introspects the live schema and returns the changes that would
// bring it to the declared state, without executing anything.
func (m *Migrate) Diff(ctx context.Context, tables ...*model.Table) ([]Change, error) {
	prev, err := m.inspect(ctx)
	if err != nil {
		return nil, err
	}
	return m.plan(ctx, prev, tables, false)
}

// Apply introspects the live schema and executes the changes bringing
// it to the declared state. Execution is strictly ordered and stops at
// the first failure.
func (m *Migrate) Apply(ctx context.Context, tables ...*model.Table) ([]Change, error) {
	prev, err := m.inspect(ctx)
	if err != nil {
		return nil, err
	}
	return m.plan(ctx, prev, tables, !m.dryRun)
}

func (m *Migrate) plan(ctx context.Context, prev *Ordering, tables []*model.Table, exec bool) ([]Change, error) {
	nodes, err := Extract(expand(tables))
	if err != nil {
		return nil, err
	}
	next, err := OrderObjects(nodes)
	if err != nil {
		return nil, err
	}
	var opts []ActionsOption
	if exec {
		opts = append(opts, WithDriver(m.drv))
	}
	a := NewActions(opts...)
	if err := m.differ().Diff(ctx, a, prev, next); err != nil {
		return nil, err
	}
	return a.Changes(), nil
}

func (m *Migrate) inspect(ctx context.Context) (*Ordering, error) {
	nodes, err := NewInspector(m.drv, WithSchema(m.schema)).Inspect(ctx)
	if err != nil {
		return nil, err
	}
	return OrderObjects(nodes)
}

func (m *Migrate) differ() Differ {
	var d Differ = DiffFunc(diffOrdering)
	for i := len(m.hooks) - 1; i >= 0; i-- {
		d = m.hooks[i](d)
	}
	return d
}

// diffOrdering is the default differ.
func diffOrdering(ctx context.Context, a *Actions, prev, next *Ordering) error {
	var (
		prevObjs  []Object
		prevRanks = make(map[string]int)
	)
	if prev != nil {
		prevObjs, prevRanks = prev.Objects, prev.Ranks
	}
	_, err := BuildActions(ctx, a, prevObjs, prevRanks, next.Objects, next.Ranks)
	return err
}

// expand flattens polymorphic subtype tables into the top-level list.
func expand(tables []*model.Table) []*model.Table {
	var out []*model.Table
	for _, t := range tables {
		out = append(out, t)
		out = append(out, expand(t.Subtypes)...)
	}
	return out
}
