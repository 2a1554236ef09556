package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/internal/cli/config"
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"
	"github.com/leapstack-labs/sqllineage/pkg/runner"
	"github.com/spf13/cobra"
)

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [files...]",
		Short: "Check configuration, metadata and scripts",
		Long: `Check that sqllineage is set up to analyze your scripts.

The doctor command reports:
- Which config file is used and whether the dialect resolves
- Whether the metadata provider for SELECT * expansion connects
- For each file given, whether it analyzes and which warnings it raises

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Check the configuration
  sqllineage doctor

  # Also check every script in a directory
  sqllineage doctor sql/`,
		RunE: runDoctor,
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ConfigFile string        `json:"config_file,omitempty"`
	Dialect    string        `json:"dialect"`
	Checks     []HealthCheck `json:"checks"`
	Summary    CheckSummary  `json:"summary"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

// CheckSummary counts checks by status.
type CheckSummary struct {
	Pass  int `json:"pass"`
	Warn  int `json:"warn"`
	Error int `json:"error"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cc := newCommandContext(cmd)
	cfg := cc.Cfg

	out := &DoctorOutput{ConfigFile: config.GetConfigFileUsed(), Dialect: cfg.Dialect}
	out.Checks = append(out.Checks, configCheck(out.ConfigFile), dialectCheck(cfg.Dialect))

	out.Checks = append(out.Checks, metadataCheck(cmd, cc))

	if len(args) > 0 {
		scripts, err := readScripts(cmd.InOrStdin(), args, "", cfg.Extensions)
		if err != nil {
			return err
		}
		for _, s := range scripts {
			out.Checks = append(out.Checks, scriptCheck(cmd, cc, s))
		}
	}

	for _, c := range out.Checks {
		switch c.Status {
		case statusPass:
			out.Summary.Pass++
		case statusWarn:
			out.Summary.Warn++
		default:
			out.Summary.Error++
		}
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}

	if out.Summary.Error > 0 {
		return fmt.Errorf("doctor found %d problem(s)", out.Summary.Error)
	}
	return nil
}

func configCheck(file string) HealthCheck {
	c := HealthCheck{Name: "config file", Group: "configuration", Status: statusPass}
	if file == "" {
		c.Details = []string{"no sqllineage.yaml found; using defaults, environment and flags"}
		return c
	}
	c.Details = []string{file}
	return c
}

func dialectCheck(name string) HealthCheck {
	c := HealthCheck{Name: "dialect " + name, Group: "configuration", Status: statusPass}
	d, err := dialect.Lookup(name)
	if err != nil {
		c.Status = statusError
		c.Details = []string{err.Error()}
		return c
	}
	if d.Deprecated {
		c.Status = statusWarn
		c.Details = []string{d.DeprecationNote}
	}
	return c
}

func metadataCheck(cmd *cobra.Command, cc *CommandContext) HealthCheck {
	mc := cc.Cfg.MetadataConfig()
	c := HealthCheck{Name: "metadata provider", Group: "metadata", Status: statusPass}
	if mc.Type == "" {
		c.Details = []string{"not configured; SELECT * is not expanded"}
		return c
	}

	c.Name = "metadata provider " + mc.Type
	p, err := metadata.Open(cmd.Context(), mc, cc.Logger)
	if err != nil {
		c.Status = statusError
		c.Details = []string{err.Error()}
		return c
	}
	_ = p.Close()
	return c
}

func scriptCheck(cmd *cobra.Command, cc *CommandContext, s script) HealthCheck {
	c := HealthCheck{Name: s.Name, Group: "scripts", Status: statusPass}

	r := runner.New(s.Text, cc.RunnerOptions(cmd.Context(), s.Name)...)
	res, err := r.Evaluate()
	for _, d := range diagnosticReports(r.Diagnostics()) {
		c.Details = append(c.Details, d.String())
	}
	switch {
	case err != nil:
		c.Status = statusError
	case len(res.Diagnostics) > 0:
		c.Status = statusWarn
	default:
		c.Details = append(c.Details, fmt.Sprintf("%d statement(s)", len(res.Statements)))
	}
	return c
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println(styles.Header1.Render("sqllineage Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	currentGroup := ""
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + output.Title(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.Error.Render("✗")
		}
		r.Println("   " + icon + " " + check.Name)

		// Show first 3 details
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Printf("   %d passed, %d warnings, %d errors\n", out.Summary.Pass, out.Summary.Warn, out.Summary.Error)
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# sqllineage Health Report")
	r.Println("")

	currentGroup := ""
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + output.Title(currentGroup))
			r.Println("")
		}
		r.Printf("- **[%s]** %s\n", strings.ToUpper(check.Status), check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")
	r.Printf("**%d passed, %d warnings, %d errors**\n", out.Summary.Pass, out.Summary.Warn, out.Summary.Error)
}
