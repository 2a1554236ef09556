package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register providers so metadata.type validates.
	_ "github.com/leapstack-labs/sqllineage/pkg/metadata/sqlite"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("dialect", "d", "", "")
	fs.String("level", "", "")
	fs.Bool("intermediate", false, "")
	fs.String("metadata-type", "", "")
	fs.String("schema-file", "", "")
	fs.StringSlice("extensions", nil, "")
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqllineage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, LevelTable, cfg.Level)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, []string{"sql"}, cfg.Extensions)
	assert.False(t, cfg.Intermediate)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
dialect: postgres
level: column
default_schema: dbo
extensions: [sql, ddl]
metadata:
  type: static
  schema_file: schema.yaml
`)

	tests := []struct {
		name    string
		env     map[string]string
		flags   []string
		dialect string
		level   string
		schema  string
	}{
		{
			name:    "file",
			dialect: "postgres",
			level:   LevelColumn,
			schema:  "schema.yaml",
		},
		{
			name:    "env overrides file",
			env:     map[string]string{"SQLLINEAGE_DIALECT": "tsql", "SQLLINEAGE_METADATA__SCHEMA_FILE": "env.yaml"},
			dialect: "tsql",
			level:   LevelColumn,
			schema:  "env.yaml",
		},
		{
			name:    "flags override env",
			env:     map[string]string{"SQLLINEAGE_DIALECT": "tsql"},
			flags:   []string{"--dialect", "snowflake", "--level", "TABLE", "--schema-file", "flag.yaml"},
			dialect: "snowflake",
			level:   LevelTable,
			schema:  "flag.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			fs := newFlags()
			require.NoError(t, fs.Parse(tt.flags))

			cfg, err := LoadConfig(path, fs)
			require.NoError(t, err)

			assert.Equal(t, tt.dialect, cfg.Dialect)
			assert.Equal(t, tt.level, cfg.Level)
			assert.Equal(t, "dbo", cfg.DefaultSchema)
			assert.Equal(t, "static", cfg.Metadata.Type)
			assert.Equal(t, tt.schema, cfg.Metadata.SchemaFile)
			assert.Equal(t, []string{"sql", "ddl"}, cfg.Extensions)
			assert.Equal(t, path, GetConfigFileUsed())
		})
	}
}

func TestUnsetFlagsDoNotOverride(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "dialect: duckdb\nintermediate: true\n")

	cfg, err := LoadConfig(path, newFlags())
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Dialect)
	assert.True(t, cfg.Intermediate)
}

func TestCommaSeparatedLists(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		flags []string
		want  []string
	}{
		{name: "env", env: "sql, ddl ,", want: []string{"sql", "ddl"}},
		{name: "flag", flags: []string{"--extensions", "sql,hql"}, want: []string{"sql", "hql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			t.Chdir(t.TempDir())
			if tt.env != "" {
				t.Setenv("SQLLINEAGE_EXTENSIONS", tt.env)
			}
			fs := newFlags()
			require.NoError(t, fs.Parse(tt.flags))

			cfg, err := LoadConfig("", fs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Extensions)
		})
	}
}

func TestConfigFileFoundUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sqllineage.yml"), []byte("dialect: tsql\n"), 0o600))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "tsql", cfg.Dialect)
	assert.Equal(t, "sqllineage.yml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "bad level", content: "level: row\n", errSubstr: `invalid level "row"`},
		{name: "bad log format", content: "log_format: xml\n", errSubstr: `invalid log_format "xml"`},
		{name: "bad concurrency", content: "concurrency: 0\n", errSubstr: "concurrency must be at least 1"},
		{name: "unknown metadata type", content: "metadata:\n  type: oracle\n", errSubstr: `unknown metadata type "oracle"`},
		{name: "malformed yaml", content: "dialect: [\n", errSubstr: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestMetadataConfigSearchPath(t *testing.T) {
	cfg := Default()
	cfg.SearchPath = "sales"
	assert.Equal(t, "sales", cfg.MetadataConfig().SearchPath)

	cfg.Metadata.SearchPath = "hr"
	assert.Equal(t, "hr", cfg.MetadataConfig().SearchPath)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		verbose   bool
		wantDebug bool
		contains  string
		wantErr   bool
	}{
		{name: "json info", level: "info", format: "json", contains: `"msg":"hello"`},
		{name: "text warn drops info", level: "warn", format: "text"},
		{name: "verbose enables debug", level: "error", format: "text", verbose: true, wantDebug: true, contains: "msg=hello"},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(&buf, &Config{LogLevel: tt.level, LogFormat: tt.format, Verbose: tt.verbose})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			logger.Info("hello")
			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), -4))
			if tt.contains != "" {
				assert.Contains(t, buf.String(), tt.contains)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestGetLoggerFallback(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := GetLogger(WithLogger(context.Background(), nil))
	assert.NotNil(t, logger)
}
