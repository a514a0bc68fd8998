package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Provider executes the actions of one target. Implementations report bad
// input with MissingParameter, InvalidParameter or UnsupportedAction errors.
type Provider interface {
	Execute(ctx context.Context, action string, parameters map[string]any) (map[string]any, error)
}

type ProviderFunc func(ctx context.Context, action string, parameters map[string]any) (map[string]any, error)

func (f ProviderFunc) Execute(ctx context.Context, action string, parameters map[string]any) (map[string]any, error) {
	return f(ctx, action, parameters)
}

// ProviderRegistry maps target names to providers. Names are case-insensitive.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]Provider)}
}

// Register adds a provider under target, replacing any previous one.
func (r *ProviderRegistry) Register(target string, p Provider) error {
	name := strings.ToLower(strings.TrimSpace(target))
	if name == "" {
		return errors.New("empty target name")
	}
	if p == nil {
		return errors.Errorf("nil provider for target '%s'", target)
	}
	r.mu.Lock()
	r.providers[name] = p
	r.mu.Unlock()
	return nil
}

func (r *ProviderRegistry) Lookup(target string) (Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[strings.ToLower(target)]
	r.mu.RUnlock()
	if !ok {
		return nil, NewError(UnsupportedTarget, "Unsupported target: %s", target)
	}
	return p, nil
}

// Targets lists the registered target names in sorted order.
func (r *ProviderRegistry) Targets() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
