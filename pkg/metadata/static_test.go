package metadata_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqllineage/internal/testutil"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaYAML = `
tables:
  Sales.Orders: [id, customer_id, amount]
  customers: [id, name]
  public.events: [id, payload]
`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0o600))
	return path
}

func TestStaticColumns(t *testing.T) {
	ctx := context.Background()
	p, err := metadata.Open(ctx, metadata.Config{
		Type:       metadata.StaticType,
		SchemaFile: writeSchema(t),
		SearchPath: "public",
	}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	tests := []struct {
		name  string
		table lineage.Table
		want  []string
	}{
		{"qualified", lineage.Table{Schema: "sales", Name: "orders"}, []string{"id", "customer_id", "amount"}},
		{"unqualified", lineage.Table{Name: "customers"}, []string{"id", "name"}},
		{"qualified falls back to name", lineage.Table{Schema: "crm", Name: "customers"}, []string{"id", "name"}},
		{"catalog dropped", lineage.Table{Catalog: "db", Schema: "sales", Name: "orders"}, []string{"id", "customer_id", "amount"}},
		{"search path", lineage.Table{Name: "events"}, []string{"id", "payload"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Columns(ctx, tt.table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = p.Columns(ctx, lineage.Table{Name: "missing"})
	assert.ErrorIs(t, err, metadata.ErrTableNotFound)
}

func TestStaticInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tables: [not, a, map"), 0o600))

	_, err := metadata.Open(context.Background(), metadata.Config{Type: "static", SchemaFile: path}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse schema file")
}

type countingProvider struct {
	*metadata.Static
	calls int
}

func (c *countingProvider) Columns(ctx context.Context, t lineage.Table) ([]string, error) {
	c.calls++
	return c.Static.Columns(ctx, t)
}

func TestLookupCaches(t *testing.T) {
	p := &countingProvider{Static: metadata.StaticFromMap(map[string][]string{"t": {"a", "b"}})}
	l := metadata.Lookup(context.Background(), p, testutil.NewTestLogger(t))

	for range 3 {
		cols, ok := l.LookupColumns(lineage.Table{Name: "t"})
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, cols)
	}
	_, ok := l.LookupColumns(lineage.Table{Name: "u"})
	assert.False(t, ok)
	_, ok = l.LookupColumns(lineage.Table{Name: "u"})
	assert.False(t, ok)

	assert.Equal(t, 2, p.calls)
}
