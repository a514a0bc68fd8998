package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/stretchr/testify/require"
)

type logger struct{}

func (l logger) Debugf(format string, args ...interface{}) {}
func (l logger) Infof(format string, args ...interface{})  {}
func (l logger) Warnf(format string, args ...interface{})  {}
func (l logger) Errorf(format string, args ...interface{}) {}

type providerCall struct {
	Action     string
	Parameters map[string]any
}

// fakeProvider records every call. fn decides the outcome; nil echoes the action.
type fakeProvider struct {
	mu    sync.Mutex
	calls []providerCall
	fn    func(ctx context.Context, action string, params map[string]any) (map[string]any, error)
}

func (p *fakeProvider) Execute(ctx context.Context, action string, params map[string]any) (map[string]any, error) {
	p.mu.Lock()
	p.calls = append(p.calls, providerCall{Action: action, Parameters: models.CloneMap(params)})
	p.mu.Unlock()
	if p.fn != nil {
		return p.fn(ctx, action, params)
	}
	return map[string]any{"action": action}, nil
}

func (p *fakeProvider) Calls() []providerCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]providerCall(nil), p.calls...)
}

func newService(t *testing.T, opts service.Options, providers map[string]service.Provider) (*service.AutomationService, *events.Recorder) {
	t.Helper()
	return newServiceWithStore(t, storage.NewMemoryStore(), opts, providers)
}

func newServiceWithStore(t *testing.T, store storage.Store, opts service.Options, providers map[string]service.Provider) (*service.AutomationService, *events.Recorder) {
	t.Helper()
	reg := service.NewProviderRegistry()
	for name, p := range providers {
		require.NoError(t, reg.Register(name, p))
	}
	rec := &events.Recorder{}
	svc := service.NewAutomationService(context.Background(), store, reg, rec, logger{}, opts)
	t.Cleanup(svc.Close)
	return svc, rec
}

func waitTask(t *testing.T, svc *service.AutomationService, id string) models.TaskRecord {
	t.Helper()
	rec, err := svc.Wait(context.Background(), id)
	require.NoError(t, err)
	return rec
}

func eventNames(evs []events.Event) []events.Name {
	names := make([]events.Name, len(evs))
	for i, e := range evs {
		names[i] = e.Name
	}
	return names
}
