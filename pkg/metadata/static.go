package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"gopkg.in/yaml.v3"
)

// StaticType is the registry name of the static provider.
const StaticType = "static"

func init() {
	Register(StaticType, func(logger *slog.Logger) Provider { return NewStatic(logger) })
}

// SchemaFile is the YAML layout read by the static provider:
//
//	tables:
//	  sales.orders: [id, customer_id, amount]
//	  customers: [id, name]
type SchemaFile struct {
	Tables map[string][]string `yaml:"tables"`
}

// Static serves columns from an in-memory schema, usually loaded from a
// YAML file.
type Static struct {
	logger *slog.Logger
	tables map[string][]string
	search string
}

// NewStatic returns an empty static provider.
// If logger is nil, a discard logger is used.
func NewStatic(logger *slog.Logger) *Static {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Static{logger: logger, tables: make(map[string][]string)}
}

// StaticFromMap returns a connected static provider over tables, keyed by
// qualified table name.
func StaticFromMap(tables map[string][]string) *Static {
	s := NewStatic(nil)
	s.load(SchemaFile{Tables: tables})
	return s
}

// Connect loads cfg.SchemaFile, falling back to cfg.DSN as the path.
func (s *Static) Connect(_ context.Context, cfg Config) error {
	path := cfg.SchemaFile
	if path == "" {
		path = cfg.DSN
	}
	if path == "" {
		return fmt.Errorf("static metadata requires a schema file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	s.search = strings.ToLower(cfg.SearchPath)
	s.load(file)
	s.logger.Debug("schema file loaded", slog.String("path", path), slog.Int("tables", len(s.tables)))
	return nil
}

func (s *Static) load(file SchemaFile) {
	for name, cols := range file.Tables {
		s.tables[strings.ToLower(name)] = cols
	}
}

// Columns returns the columns of t. Qualified names are tried first, then
// shorter suffixes and the search path.
func (s *Static) Columns(_ context.Context, t lineage.Table) ([]string, error) {
	for _, key := range candidates(t, s.search) {
		if cols, ok := s.tables[key]; ok {
			return cols, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, t.Key())
}

// Close is a no-op.
func (s *Static) Close() error { return nil }

func candidates(t lineage.Table, search string) []string {
	name := strings.ToLower(t.Name)
	schema := strings.ToLower(t.Schema)
	out := []string{strings.ToLower(t.Key())}
	if t.Catalog != "" && schema != "" {
		out = append(out, schema+"."+name)
	}
	if schema == "" && search != "" {
		out = append(out, search+"."+name)
	}
	if schema != "" {
		out = append(out, name)
	}
	return out
}
