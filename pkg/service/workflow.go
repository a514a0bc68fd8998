package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/pkg/errors"
)

const defaultWorkflowName = "Unnamed Workflow"

// WorkflowEngine runs workflow steps strictly in order. A failed step stops
// the run unless it allows continuing; either way the workflow ends
// completed with the results gathered so far. Only a failure of the engine
// itself, such as the registry rejecting an update, ends it failed.
type WorkflowEngine struct {
	executor    *Executor
	registry    *TaskRegistry
	logger      Logger
	metrics     Metrics
	stepTimeout time.Duration
	now         func() time.Time
}

func NewWorkflowEngine(executor *Executor, registry *TaskRegistry, logger Logger, metrics Metrics, stepTimeout time.Duration) *WorkflowEngine {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &WorkflowEngine{
		executor:    executor,
		registry:    registry,
		logger:      logger,
		metrics:     metrics,
		stepTimeout: stepTimeout,
		now:         time.Now,
	}
}

func WorkflowName(def models.WorkflowDefinition) string {
	if def.Name == "" {
		return defaultWorkflowName
	}
	return def.Name
}

func StepName(step models.WorkflowStep, n int) string {
	if step.Name == "" {
		return fmt.Sprintf("Step %d", n)
	}
	return step.Name
}

// Run executes def for the already registered workflow record id.
func (w *WorkflowEngine) Run(ctx context.Context, id string, def models.WorkflowDefinition, rep *events.Reporter) (err error) {
	name := WorkflowName(def)
	total := len(def.Steps)
	results := make([]models.StepResult, 0, total)
	attempted := 0

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("workflow %s panicked: %v", id, r)
		}
		if err != nil {
			w.fail(id, name, results, attempted, err, rep)
		}
	}()

	w.logger.Infof("Starting workflow %s (%s) with %d steps", id, name, total)
	rep.Log(fmt.Sprintf("Starting workflow: %s with %d steps", name, total), events.LevelInfo, nil)
	rep.Progress(0, total, "Starting workflow: "+name)

	var carried map[string]any
	for i, step := range def.Steps {
		n := i + 1
		stepName := StepName(step, n)
		rep.Log(fmt.Sprintf("Executing workflow step %d/%d: %s", n, total, stepName), events.LevelInfo, nil)
		rep.Progress(n, total, "Executing: "+stepName)

		// Each step gets its own parameter map; the definition is never mutated.
		params := models.CloneMap(step.Parameters)
		if params == nil {
			params = map[string]any{}
		}
		if carried != nil {
			params[models.PreviousResultKey] = carried
			carried = nil
		}

		out := w.executor.Execute(ctx, nil, Call{
			Target:     step.Target,
			Action:     step.Action,
			Parameters: params,
			Timeout:    w.timeoutFor(step),
		})
		attempted = n

		sr := models.StepResult{
			Step:          n,
			Name:          stepName,
			Parameters:    params,
			ExecutionTime: out.Elapsed.Seconds(),
		}
		if out.Err == nil {
			sr.Success = true
			sr.Result = out.Result
			if step.PassResultToNext && n < total {
				carried = models.CloneMap(out.Result)
			}
		} else {
			sr.Error = out.Err.Error()
			w.logger.Errorf("Error in workflow %s step %d: %v", id, n, out.Err)
			rep.Error(fmt.Sprintf("Error in workflow step %s: %v", stepName, out.Err), string(KindOf(out.Err)), map[string]any{
				"step":   n,
				"target": step.Target,
				"action": step.Action,
			})
		}
		results = append(results, sr)
		w.metrics.WorkflowStep(sr.Success)

		if _, err = w.registry.Update(id, func(rec *models.TaskRecord) error {
			rec.Results = cloneResults(results)
			rec.StepsCompleted = attempted
			return nil
		}); err != nil {
			return errors.Wrapf(err, "failed to record step %d of workflow %s", n, id)
		}

		if out.Err != nil && !step.ContinueOnError {
			rep.Log(fmt.Sprintf("Workflow %s stopped at step %d due to error", name, n), events.LevelWarning, nil)
			break
		}
	}

	if _, err = w.registry.Update(id, func(rec *models.TaskRecord) error {
		rec.Results = cloneResults(results)
		rec.StepsCompleted = attempted
		rec.TotalSteps = total
		rec.Finish(models.CompletedTaskStatus, w.now())
		return nil
	}); err != nil {
		return errors.Wrapf(err, "failed to complete workflow %s", id)
	}

	w.logger.Infof("Completed workflow %s after %d/%d steps", id, attempted, total)
	rep.Progress(total, total, fmt.Sprintf("Workflow %s completed", name))
	rep.Result(true, map[string]any{"steps": cloneResults(results)}, fmt.Sprintf("Workflow %s completed successfully", name))
	return nil
}

func (w *WorkflowEngine) timeoutFor(step models.WorkflowStep) time.Duration {
	if step.TimeoutSeconds > 0 {
		return time.Duration(step.TimeoutSeconds * float64(time.Second))
	}
	return w.stepTimeout
}

// fail marks the workflow failed and keeps the partial results.
func (w *WorkflowEngine) fail(id, name string, results []models.StepResult, attempted int, cause error, rep *events.Reporter) {
	w.logger.Errorf("Error in workflow %s: %v", id, cause)
	rep.Error(fmt.Sprintf("Error in workflow %s: %v", name, cause), string(ExecutionFailed), map[string]any{"workflow_id": id})
	if _, err := w.registry.Update(id, func(rec *models.TaskRecord) error {
		rec.Results = cloneResults(results)
		rec.StepsCompleted = attempted
		rec.Error = cause.Error()
		rec.Finish(models.FailedTaskStatus, w.now())
		return nil
	}); err != nil {
		w.logger.Errorf("Failed to mark workflow %s failed: %v", id, err)
	}
}

func cloneResults(results []models.StepResult) []models.StepResult {
	out := make([]models.StepResult, len(results))
	for i, r := range results {
		out[i] = r.Clone()
	}
	return out
}
