package dialect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	execs, queries []string
}

func (d *fakeDriver) Exec(_ context.Context, query string, _, _ any) error {
	d.execs = append(d.execs, query)
	return nil
}

func (d *fakeDriver) Query(_ context.Context, query string, _, _ any) error {
	d.queries = append(d.queries, query)
	return nil
}

func (d *fakeDriver) Tx(context.Context) (Tx, error) { return NopTx(d), nil }
func (d *fakeDriver) Close() error                   { return nil }
func (d *fakeDriver) Dialect() string                { return Postgres }

func TestDebugDriver(t *testing.T) {
	var logged []string
	logf := func(args ...any) {
		for _, a := range args {
			logged = append(logged, a.(string))
		}
	}
	var fake fakeDriver
	drv := Debug(&fake, logf)
	ctx := context.Background()

	require.NoError(t, drv.Exec(ctx, "CREATE TABLE users", []any{}, nil))
	require.NoError(t, drv.Query(ctx, "SELECT 1", []any{}, nil))
	assert.Equal(t, []string{"CREATE TABLE users"}, fake.execs)
	assert.Equal(t, []string{"SELECT 1"}, fake.queries)
	require.Len(t, logged, 2)
	assert.Contains(t, logged[0], "driver.Exec")
	assert.Contains(t, logged[0], "CREATE TABLE users")
	assert.Contains(t, logged[1], "driver.Query")

	logged = nil
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "DROP TABLE users", []any{}, nil))
	require.NoError(t, tx.Commit())
	assert.Contains(t, logged[0], "driver.Tx")
	assert.Contains(t, logged[1], "Tx.Exec")
	assert.Contains(t, logged[2], "Tx.Commit")
}

func TestNopTx(t *testing.T) {
	var fake fakeDriver
	tx := NopTx(&fake)
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Exec(context.Background(), "SELECT 1", []any{}, nil))
	assert.Equal(t, []string{"SELECT 1"}, fake.execs)
}
