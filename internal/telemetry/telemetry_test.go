package telemetry_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/internal/config"
	"github.com/Himanshujchavan/GROQPILOT/internal/telemetry"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMetrics(t *testing.T) {
	m := telemetry.NewMetrics("test")

	m.ActionExecuted("files", "list_files", "", 20*time.Millisecond)
	m.ActionExecuted("files", "list_files", service.MissingParameter, time.Millisecond)
	m.ConfirmationRequired("email", "send")
	m.TaskStarted(models.WorkflowTaskKind)
	m.TaskStarted(models.WorkflowTaskKind)
	m.TaskFinished(models.WorkflowTaskKind, models.CompletedTaskStatus, time.Second)
	m.WorkflowStep(true)
	m.WorkflowStep(false)

	n, err := testutil.GatherAndCount(m.Registry(), "test_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `test_actions_total{action="list_files",outcome="missing_parameter",target="files"} 1`)
	assert.Contains(t, body, `test_confirmations_required_total{action="send",target="email"} 1`)
	assert.Contains(t, body, `test_tasks_running{kind="workflow"} 1`)
	assert.Contains(t, body, `test_workflow_steps_total{outcome="failure"} 1`)
}

func TestSetupTracing(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		shutdown, err := telemetry.SetupTracing(context.Background(), config.TracingConfig{}, nil)
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("UnknownExporter", func(t *testing.T) {
		_, err := telemetry.SetupTracing(context.Background(), config.TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
		assert.Error(t, err)
	})

	t.Run("Stdout", func(t *testing.T) {
		prev := otel.GetTracerProvider()
		defer otel.SetTracerProvider(prev)

		var buf bytes.Buffer
		shutdown, err := telemetry.SetupTracing(context.Background(), config.TracingConfig{
			Enabled:      true,
			Exporter:     "stdout",
			SamplingRate: 1,
			ServiceName:  "groqpilot-test",
		}, &buf)
		require.NoError(t, err)

		_, span := otel.Tracer("test").Start(context.Background(), "automation.execute")
		span.End()
		require.NoError(t, shutdown(context.Background()))
		assert.Contains(t, buf.String(), "automation.execute")
	})
}
