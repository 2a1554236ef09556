package all

import (
	"testing"

	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredDialects(t *testing.T) {
	tests := []struct {
		name       string
		validating bool
		deprecated bool
		batch      string
	}{
		{"ansi", true, false, ""},
		{"databricks", true, false, ""},
		{"duckdb", true, false, ""},
		{"non-validating", false, true, ""},
		{"postgres", true, false, ""},
		{"snowflake", true, false, ""},
		{"tsql", true, false, "GO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := dialect.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.validating, d.Validating)
			assert.Equal(t, tt.deprecated, d.Deprecated)
			assert.Equal(t, tt.batch, d.BatchSeparator)
			assert.Equal(t, tt.batch != "", d.ImplicitTerminators)
		})
	}
}

func TestDefaultDialect(t *testing.T) {
	d, err := dialect.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "ansi", d.Name)
}
