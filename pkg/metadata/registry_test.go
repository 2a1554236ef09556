package metadata_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/sqllineage/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register database providers via init()
	_ "github.com/leapstack-labs/sqllineage/pkg/metadata/duckdb"
	_ "github.com/leapstack-labs/sqllineage/pkg/metadata/postgres"
	_ "github.com/leapstack-labs/sqllineage/pkg/metadata/sqlite"
)

func TestUnknownProviderError_Error(t *testing.T) {
	err := &metadata.UnknownProviderError{
		Type:      "fake_db",
		Available: []string{"sqlite", "static"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_db")
	assert.Contains(t, msg, "sqllineage.yaml")
}

func TestList(t *testing.T) {
	names := metadata.List()
	assert.Subset(t, names, []string{"duckdb", "postgres", "sqlite", "static"})
	assert.IsIncreasing(t, names)
}

func TestRegister(t *testing.T) {
	metadata.Register("test_provider", func(_ *slog.Logger) metadata.Provider { return metadata.NewStatic(nil) })
	assert.True(t, metadata.IsRegistered("test_provider"))

	factory, ok := metadata.Get("test_provider")
	require.True(t, ok)
	assert.NotNil(t, factory(nil))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     metadata.Config
		errMsg  string
		unknown bool
	}{
		{name: "static", cfg: metadata.Config{Type: "static"}},
		{name: "sqlite", cfg: metadata.Config{Type: "sqlite"}},
		{name: "empty type", cfg: metadata.Config{}, errMsg: "metadata type not specified"},
		{name: "unknown type", cfg: metadata.Config{Type: "oracle"}, unknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := metadata.New(tt.cfg, nil)
			switch {
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, err.Error())
			case tt.unknown:
				var unknownErr *metadata.UnknownProviderError
				require.ErrorAs(t, err, &unknownErr)
				assert.Equal(t, "oracle", unknownErr.Type)
				assert.Contains(t, unknownErr.Available, "postgres")
			default:
				require.NoError(t, err)
				assert.NotNil(t, p)
			}
		})
	}
}

func TestOpenReportsConnectErrors(t *testing.T) {
	_, err := metadata.Open(context.Background(), metadata.Config{Type: "static"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect static metadata")
	assert.Contains(t, err.Error(), "requires a schema file")
}
