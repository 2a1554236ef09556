package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/sqllineage/internal/cli/config"
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/runner"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "sqllineage> "
	replContinue   = "       ...> "
	replHistoryDir = "sqllineage"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Analyze SQL interactively",
		Long: `Start an interactive session. Statements accumulate into one script and
the lineage of the whole script is shown after each statement.

A statement that fails to analyze is reported and left out of the script.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return runREPL(cmd, cc)
		},
	}
}

func runREPL(cmd *cobra.Command, cc *CommandContext) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := newREPLSession(cmd.Context(), cc)
	cc.Renderer.Printf("sqllineage REPL (dialect: %s)\n", s.dialect)
	cc.Renderer.Println("Type .help for commands, .quit to exit")
	cc.Renderer.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.buffer.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit := s.handleLine(line)
		if quit {
			return nil
		}
		if s.buffer.Len() > 0 {
			rl.SetPrompt(replContinue)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// replSession holds the accumulated script of an interactive session.
type replSession struct {
	ctx     context.Context
	cc      *CommandContext
	dialect string
	level   string

	statements []string
	buffer     strings.Builder
}

func newREPLSession(ctx context.Context, cc *CommandContext) *replSession {
	return &replSession{
		ctx:     ctx,
		cc:      cc,
		dialect: cc.Cfg.Dialect,
		level:   cc.Cfg.Level,
	}
}

// handleLine processes one input line and reports whether the session ends.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if s.buffer.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.dotCommand(line)
	}

	// Accumulate multi-line SQL until semicolon
	s.buffer.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buffer.WriteString("\n")
		return false
	}

	stmt := s.buffer.String()
	s.buffer.Reset()
	s.add(stmt)
	return false
}

// add appends stmt to the script and shows the lineage of the result. The
// statement is dropped again when the script no longer analyzes.
func (s *replSession) add(stmt string) {
	s.statements = append(s.statements, stmt)
	if err := s.show(); err != nil {
		s.statements = s.statements[:len(s.statements)-1]
		s.cc.Renderer.Muted("statement not added to the script")
	}
}

// show analyzes the accumulated script and renders its lineage.
func (s *replSession) show() error {
	script := strings.Join(s.statements, "\n")
	r := runner.New(script, s.runnerOptions()...)
	rep, err := buildReport("", s.dialect, r, reportOptions{
		Columns:      s.level == config.LevelColumn,
		Intermediate: true,
	})
	if renderErr := s.cc.Renderer.RenderLineage([]output.LineageReport{rep}); renderErr != nil {
		s.cc.Renderer.Error(renderErr.Error())
	}
	s.cc.Renderer.Println()
	return err
}

func (s *replSession) runnerOptions() []runner.Option {
	opts := s.cc.RunnerOptions(s.ctx, "repl")
	return append(opts, runner.WithDialect(s.dialect))
}

func (s *replSession) dotCommand(line string) bool {
	r := s.cc.Renderer
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		r.Println(replHelp)

	case ".reset":
		s.statements = nil
		r.Success("Script cleared")

	case ".script":
		if len(s.statements) == 0 {
			r.Muted("(empty script)")
			break
		}
		for _, stmt := range s.statements {
			r.Println(stmt)
		}

	case ".show":
		if len(s.statements) == 0 {
			r.Muted("(empty script)")
			break
		}
		_ = s.show()

	case ".dialect":
		if len(parts) < 2 {
			r.Printf("dialect: %s\n", s.dialect)
			break
		}
		d, err := dialect.Lookup(parts[1])
		if err != nil {
			r.Error(err.Error())
			break
		}
		s.dialect = d.Name
		r.Success("Dialect set to " + d.Name)

	case ".level":
		if len(parts) < 2 || (parts[1] != config.LevelTable && parts[1] != config.LevelColumn) {
			r.Error("Usage: .level table|column")
			break
		}
		s.level = parts[1]
		r.Success("Level set to " + s.level)

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

const replHelp = `
Commands:
  .help              Show this help message
  .show              Show the lineage of the script
  .script            Print the accumulated script
  .reset             Clear the script
  .dialect [name]    Show or change the dialect
  .level table|column
                     Change the lineage level
  .quit / .exit      Exit the REPL

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history`

// newREPLCompleter creates a readline completer for dot-commands and
// dialect names.
func newREPLCompleter() *readline.PrefixCompleter {
	dialects := make([]readline.PrefixCompleterInterface, 0)
	for _, name := range dialect.List() {
		dialects = append(dialects, readline.PcItem(name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".show"),
		readline.PcItem(".script"),
		readline.PcItem(".reset"),
		readline.PcItem(".dialect", dialects...),
		readline.PcItem(".level", readline.PcItem(config.LevelTable), readline.PcItem(config.LevelColumn)),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// historyFile returns the REPL history path, or "" when no cache directory
// is available.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, replHistoryDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}
