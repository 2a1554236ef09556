package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqllineage/internal/cli/commands"
	"github.com/leapstack-labs/sqllineage/internal/cli/config"
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args in an empty working directory.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	res := testutil.Execute(NewRootCmd(), stdin, args...)
	return res.Out, res.ErrOut, res.Err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "sqllineage", cmd.Name())

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"version", "lineage", "split", "dialects", "repl", "doctor", "completion"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	for _, flag := range []string{"config", "dialect", "default-schema", "output", "verbose", "log-level", "log-format", "metadata-type", "metadata-dsn", "schema-file", "search-path"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag --%s", flag)
	}
}

func TestLineageInline(t *testing.T) {
	out, _, err := execute(t, "", "lineage", "-e", "INSERT INTO stage SELECT id FROM raw; INSERT INTO mart SELECT id FROM stage;")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# <stdin> (ansi)")
	assert.Contains(t, out, "**Source Tables:** raw")
	assert.Contains(t, out, "**Target Tables:** mart")
	assert.NotContains(t, out, "Intermediate Tables")
}

func TestLineageJSON(t *testing.T) {
	out, _, err := execute(t, "", "lineage", "-o", "json", "--level", "column", "--intermediate",
		"-e", "INSERT INTO stage SELECT id FROM raw; INSERT INTO mart SELECT id FROM stage;")
	require.NoError(t, err)

	rep := testutil.DecodeJSON[output.LineageReport](t, out)
	assert.Equal(t, "ansi", rep.Dialect)
	assert.Equal(t, 2, rep.Statements)
	assert.Equal(t, []string{"raw"}, rep.Sources)
	assert.Equal(t, []string{"mart"}, rep.Targets)
	assert.Equal(t, []string{"stage"}, rep.Intermediate)
	require.Len(t, rep.Columns, 1)
	assert.Equal(t, []string{"mart.id", "stage.id", "raw.id"}, rep.Columns[0].Path)
}

func TestLineageStdin(t *testing.T) {
	out, _, err := execute(t, "INSERT INTO tgt SELECT * FROM src", "lineage", "-o", "json")
	require.NoError(t, err)

	rep := testutil.DecodeJSON[output.LineageReport](t, out)
	assert.Empty(t, rep.File)
	assert.Equal(t, []string{"src"}, rep.Sources)
	assert.Equal(t, []string{"tgt"}, rep.Targets)
}

func TestLineageFiles(t *testing.T) {
	dir := testutil.WriteScripts(t, map[string]string{
		"a.sql":     "INSERT INTO b SELECT * FROM a;",
		"b.sql":     "INSERT INTO c SELECT * FROM b;",
		"readme.md": "# not sql",
	})

	out, _, err := execute(t, "", "lineage", "-o", "json", dir)
	require.NoError(t, err)

	reps := testutil.DecodeJSON[[]output.LineageReport](t, out)
	require.Len(t, reps, 2)
	assert.Equal(t, filepath.Join(dir, "a.sql"), reps[0].File)
	assert.Equal(t, []string{"a"}, reps[0].Sources)
	assert.Equal(t, filepath.Join(dir, "b.sql"), reps[1].File)
	assert.Equal(t, []string{"c"}, reps[1].Targets)
}

func TestLineageFailure(t *testing.T) {
	dir := testutil.WriteScripts(t, map[string]string{
		"good.sql": "INSERT INTO b SELECT * FROM a;",
		"bad.sql":  "WRONG SELECT FROM c;",
	})

	t.Run("stops at first failure", func(t *testing.T) {
		_, _, err := execute(t, "", "lineage", "--concurrency", "1", filepath.Join(dir, "bad.sql"), filepath.Join(dir, "good.sql"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.sql")
	})

	t.Run("keep going", func(t *testing.T) {
		out, _, err := execute(t, "", "lineage", "--keep-going", "-o", "json", filepath.Join(dir, "bad.sql"), filepath.Join(dir, "good.sql"))
		require.ErrorIs(t, err, commands.ErrAnalysisFailed)

		reps := testutil.DecodeJSON[[]output.LineageReport](t, out)
		require.Len(t, reps, 2)
		assert.NotEmpty(t, reps[0].Error)
		assert.NotEmpty(t, reps[0].Diagnostics)
		assert.Empty(t, reps[1].Error)
	})
}

func TestLineageStaticMetadata(t *testing.T) {
	dir := testutil.WriteScripts(t, map[string]string{
		"schema.yaml": "tables:\n  src: [id, name]\n",
	})

	out, _, err := execute(t, "", "lineage", "-o", "json", "--level", "column",
		"--metadata-type", "static", "--schema-file", filepath.Join(dir, "schema.yaml"),
		"-e", "INSERT INTO tgt SELECT * FROM src")
	require.NoError(t, err)

	rep := testutil.DecodeJSON[output.LineageReport](t, out)
	require.Len(t, rep.Edges, 1)
	assert.Equal(t, []string{"id", "name"}, rep.Edges[0].Columns)
	require.Len(t, rep.Columns, 2)
	assert.Equal(t, "tgt.id", rep.Columns[0].Target)
	assert.Equal(t, "src.id", rep.Columns[0].Source)
}

func TestConfigFile(t *testing.T) {
	dir := testutil.WriteScripts(t, map[string]string{
		"custom.yaml": "dialect: tsql\noutput: json\n",
	})

	out, _, err := execute(t, "", "--config", filepath.Join(dir, "custom.yaml"), "lineage", "-e", "INSERT INTO b SELECT * FROM a")
	require.NoError(t, err)

	rep := testutil.DecodeJSON[output.LineageReport](t, out)
	assert.Equal(t, "tsql", rep.Dialect)
}

func TestInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "", "lineage", "--level", "rows", "-e", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid level")

	_, _, err = execute(t, "", "lineage", "--dialect", "oracle", "-e", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestSplitCommand(t *testing.T) {
	out, _, err := execute(t, "", "split", "-d", "tsql", "-o", "json", "-e", "SELECT 1\nGO\nSELECT 2")
	require.NoError(t, err)

	rep := testutil.DecodeJSON[output.SplitReport](t, out)
	assert.Equal(t, "tsql", rep.Dialect)
	require.Len(t, rep.Units, 2)
	assert.Equal(t, "batch_separator", rep.Units[0].Boundary)
	assert.Equal(t, "eof", rep.Units[1].Boundary)
}

func TestDialectsCommand(t *testing.T) {
	out, _, err := execute(t, "", "dialects", "-o", "json")
	require.NoError(t, err)

	reps := testutil.DecodeJSON[[]output.DialectReport](t, out)
	names := make([]string, len(reps))
	for i, r := range reps {
		names[i] = r.Name
	}
	assert.Contains(t, names, "ansi")
	assert.Contains(t, names, "tsql")
	assert.Contains(t, names, "postgres")
}

func TestDoctorCommand(t *testing.T) {
	dir := testutil.WriteScripts(t, map[string]string{
		"good.sql": "INSERT INTO b SELECT * FROM a;",
		"bad.sql":  "WRONG SELECT FROM c;",
	})

	t.Run("healthy", func(t *testing.T) {
		out, _, err := execute(t, "", "doctor", "-o", "json", filepath.Join(dir, "good.sql"))
		require.NoError(t, err)

		doc := testutil.DecodeJSON[commands.DoctorOutput](t, out)
		assert.Equal(t, "ansi", doc.Dialect)
		assert.Zero(t, doc.Summary.Error)
		assert.Len(t, doc.Checks, 4)
	})

	t.Run("problems", func(t *testing.T) {
		out, _, err := execute(t, "", "doctor", filepath.Join(dir, "bad.sql"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 problem")
		assert.Contains(t, out, "# sqllineage Health Report")
		assert.Contains(t, out, "**[ERROR]**")
	})
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sqllineage v"+Version)
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := execute(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "sqllineage")

	_, _, err = execute(t, "", "completion", "tcsh")
	require.Error(t, err)
}

func TestContextDefaults(t *testing.T) {
	cfg := GetConfig(context.Background())
	assert.Equal(t, config.DefaultDialect, cfg.Dialect)
	assert.NotNil(t, GetRenderer(context.Background()))
}
