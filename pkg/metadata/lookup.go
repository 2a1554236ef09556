package metadata

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// Lookup binds p to ctx as a lineage.ColumnLookup. Answers are cached per
// table. Errors other than ErrTableNotFound are logged and the table is
// treated as unknown, which leaves its * unexpanded.
func Lookup(ctx context.Context, p Provider, logger *slog.Logger) lineage.ColumnLookup {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &lookup{ctx: ctx, provider: p, logger: logger, cache: make(map[string]cached)}
}

type cached struct {
	cols []string
	ok   bool
}

type lookup struct {
	ctx      context.Context
	provider Provider
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string]cached
}

func (l *lookup) LookupColumns(t lineage.Table) ([]string, bool) {
	key := t.Key()

	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.cache[key]; ok {
		return c.cols, c.ok
	}

	cols, err := l.provider.Columns(l.ctx, t)
	switch {
	case err == nil:
	case errors.Is(err, ErrTableNotFound):
		l.logger.Debug("no metadata for table", slog.String("table", key))
	default:
		l.logger.Warn("metadata lookup failed", slog.String("table", key), slog.String("error", err.Error()))
	}
	c := cached{cols: cols, ok: err == nil && len(cols) > 0}
	l.cache[key] = c
	return c.cols, c.ok
}
