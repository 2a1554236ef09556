package commands

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqllineage/internal/cli/config"
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"
	"github.com/leapstack-labs/sqllineage/pkg/runner"
	"github.com/spf13/cobra"

	// Register metadata providers so metadata.type resolves by name.
	_ "github.com/leapstack-labs/sqllineage/pkg/metadata/duckdb"
	_ "github.com/leapstack-labs/sqllineage/pkg/metadata/postgres"
	_ "github.com/leapstack-labs/sqllineage/pkg/metadata/sqlite"
)

// stdinName labels a script read from standard input.
const stdinName = "-"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer

	lookup lineage.ColumnLookup
}

// NewCommandContext creates a CommandContext and, when metadata is
// configured, connects the metadata provider. The returned cleanup function
// must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := newCommandContext(cmd)

	cleanup := func() {}
	if mc := cc.Cfg.MetadataConfig(); mc.Type != "" {
		p, err := metadata.Open(cmd.Context(), mc, cc.Logger)
		if err != nil {
			return nil, nil, err
		}
		cc.lookup = metadata.Lookup(cmd.Context(), p, cc.Logger)
		cleanup = func() {
			if err := p.Close(); err != nil {
				cc.Logger.Warn("failed to close metadata provider", slog.String("error", err.Error()))
			}
		}
	}
	return cc, cleanup, nil
}

func newCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// RunnerOptions returns the runner options for analyzing the script name.
func (cc *CommandContext) RunnerOptions(ctx context.Context, name string) []runner.Option {
	opts := []runner.Option{
		runner.WithDialect(cc.Cfg.Dialect),
		runner.WithDefaultSchema(cc.Cfg.DefaultSchema),
		runner.WithLogger(cc.Logger.With(slog.String("file", name))),
		runner.WithContext(ctx),
	}
	if cc.lookup != nil {
		opts = append(opts, runner.WithColumnLookup(cc.lookup))
	}
	return opts
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// script is one SQL input.
type script struct {
	Name string
	Text string
}

// readScripts collects the scripts named by args. Directories are walked for
// files with one of the configured extensions. With no args the script is
// read from in, unless inline SQL was given.
func readScripts(in io.Reader, args []string, inline string, extensions []string) ([]script, error) {
	if inline != "" {
		return []script{{Name: "", Text: inline}}, nil
	}
	if len(args) == 0 || (len(args) == 1 && args[0] == stdinName) {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []script{{Name: "", Text: string(data)}}, nil
	}

	paths, err := expandPaths(args, extensions)
	if err != nil {
		return nil, err
	}
	scripts := make([]script, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		scripts = append(scripts, script{Name: p, Text: string(data)})
	}
	return scripts, nil
}

// expandPaths replaces directories in args by the matching files below them.
func expandPaths(args []string, extensions []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && hasExtension(path, extensions) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	return paths, nil
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return ext != "" && slices.ContainsFunc(extensions, func(e string) bool {
		return strings.EqualFold(strings.TrimPrefix(e, "."), ext)
	})
}
