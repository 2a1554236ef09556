package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Provider)
)

// Register adds a provider factory to the registry.
// Called by provider implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Provider) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a provider factory by name.
func Get(name string) (func(*slog.Logger) Provider, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates an unconnected provider of cfg.Type.
// A nil logger discards output.
func New(cfg Config, logger *slog.Logger) (Provider, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("metadata type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownProviderError{
			Type:      cfg.Type,
			Available: List(),
		}
	}
	return factory(logger), nil
}

// Open creates a provider of cfg.Type and connects it.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Provider, error) {
	p, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := p.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("connect %s metadata: %w", cfg.Type, err)
	}
	return p, nil
}

// List returns all registered provider names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a provider type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownProviderError is returned when an unknown provider type is requested.
type UnknownProviderError struct {
	Type      string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown metadata type %q\nAvailable types: %v\nHint: Check metadata.type in sqllineage.yaml", e.Type, e.Available)
}
