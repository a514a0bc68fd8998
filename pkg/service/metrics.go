package service

import (
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
)

// Metrics receives execution measurements. internal/telemetry provides the
// prometheus implementation.
type Metrics interface {
	ActionExecuted(target, action string, kind ErrorKind, elapsed time.Duration)
	ConfirmationRequired(target, action string)
	TaskStarted(kind models.TaskKind)
	TaskFinished(kind models.TaskKind, status models.TaskStatus, elapsed time.Duration)
	WorkflowStep(success bool)
}

type nopMetrics struct{}

func (nopMetrics) ActionExecuted(string, string, ErrorKind, time.Duration) {}
func (nopMetrics) ConfirmationRequired(string, string) {}
func (nopMetrics) TaskStarted(models.TaskKind) {}
func (nopMetrics) TaskFinished(models.TaskKind, models.TaskStatus, time.Duration) {}
func (nopMetrics) WorkflowStep(bool) {}
