package diag

import (
	"log/slog"

	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Collector accumulates warnings for one run. It is threaded through every
// pipeline stage; stages add to it and never raise warnings as errors.
//
// A Collector is not safe for concurrent use.
type Collector struct {
	items  []Diagnostic
	logger *slog.Logger
}

// NewCollector returns an empty collector. A nil logger discards log output.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{logger: logger}
}

// Warn records a warning for a statement.
func (c *Collector) Warn(kind Kind, statement int, span token.Span, msg string) {
	c.Add(Diagnostic{
		Severity:  SeverityWarning,
		Kind:      kind,
		Span:      span,
		Statement: statement,
		Message:   msg,
	})
}

// Add records a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.items = append(c.items, d)
	c.logger.Debug("diagnostic recorded",
		slog.String("kind", string(d.Kind)),
		slog.String("severity", d.Severity.String()),
		slog.Int("statement", d.Statement),
		slog.String("message", d.Message),
	)
}

// Diagnostics returns a copy of the recorded diagnostics in insertion order.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns how many diagnostics of kind were recorded.
func (c *Collector) Count(kind Kind) int {
	n := 0
	for _, d := range c.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	return len(c.items)
}
