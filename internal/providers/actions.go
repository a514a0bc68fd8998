// Package providers contains the built-in capability providers. The files
// provider works on a real (optionally sandboxed) filesystem; the others
// simulate their desktop applications and return representative data.
package providers

import (
	"context"
	"strings"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
)

// ActionFunc runs one action of a provider.
type ActionFunc func(ctx context.Context, p Params) (map[string]any, error)

// ActionSet dispatches by lower-cased action name.
type ActionSet struct {
	label   string
	actions map[string]ActionFunc
}

func NewActionSet(label string, actions map[string]ActionFunc) *ActionSet {
	return &ActionSet{label: label, actions: actions}
}

func (a *ActionSet) Execute(ctx context.Context, action string, parameters map[string]any) (map[string]any, error) {
	fn, ok := a.actions[strings.ToLower(action)]
	if !ok {
		return nil, service.NewError(service.UnsupportedAction, "Unsupported %s action: %s", a.label, action)
	}
	return fn(ctx, Params(parameters))
}

// Actions lists the supported action names.
func (a *ActionSet) Actions() []string {
	names := make([]string, 0, len(a.actions))
	for name := range a.actions {
		names = append(names, name)
	}
	return names
}

// simulator stands in for application latency.
type simulator struct {
	latency time.Duration
	now     func() time.Time
}

func (s simulator) wait(ctx context.Context, weight float64) error {
	d := time.Duration(float64(s.latency) * weight)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s simulator) stamp(prefix, ext string) string {
	return prefix + "_" + s.now().Format("20060102_150405") + ext
}
