package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Logger defines the logging interface used by the service package.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

const (
	StatusRunning              = "running"
	StatusRequiresConfirmation = "requires_confirmation"
)

// Options tunes an AutomationService. The zero value is usable.
type Options struct {
	MaxConcurrent     int           // Background units executing at once, 0 for no limit
	StepTimeout       time.Duration // Per call deadline, 0 for none
	GateWorkflowSteps bool          // Require confirmation for workflows containing risky steps
	Metrics           Metrics
}

// Submission acknowledges a background request.
type Submission struct {
	TaskID              string `json:"task_id"`
	Status              string `json:"status"`
	ConfirmationMessage string `json:"confirmation_message,omitempty"`
}

// AutomationService dispatches automation requests: synchronously, as a
// background task, or as a workflow. Every top-level request passes the risk
// gate first.
type AutomationService struct {
	providers *ProviderRegistry
	registry  *TaskRegistry
	executor  *Executor
	engine    *WorkflowEngine
	wp        *WorkerPool
	emitter   events.Emitter
	logger    Logger
	metrics   Metrics
	opts      Options
	now       func() time.Time
}

func NewAutomationService(ctx context.Context, store storage.Store, providers *ProviderRegistry, emitter events.Emitter, logger Logger, opts Options) *AutomationService {
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if emitter == nil {
		emitter = events.Discard
	}
	registry := NewTaskRegistry(store, logger)
	executor := NewExecutor(providers, logger, opts.Metrics)
	return &AutomationService{
		providers: providers,
		registry:  registry,
		executor:  executor,
		engine:    NewWorkflowEngine(executor, registry, logger, opts.Metrics, opts.StepTimeout),
		wp:        NewWorkerPool(ctx, opts.MaxConcurrent, logger),
		emitter:   emitter,
		logger:    logger,
		metrics:   opts.Metrics,
		opts:      opts,
		now:       time.Now,
	}
}

// Run executes req inline. It always returns a result; failures are reported
// in it rather than as an error.
func (s *AutomationService) Run(ctx context.Context, req models.AutomationRequest) models.AutomationResult {
	start := s.now()
	rep := events.NewReporter(s.emitter, "")
	s.logger.Infof("Received automation request: %s on %s", req.Action, req.Target)
	rep.Log(fmt.Sprintf("Received request: %s on %s", req.Action, req.Target), events.LevelInfo, nil)

	if risky, msg := ClassifyRisk(req.Action, req.Target, req.Parameters); risky && !req.ConfirmRisky {
		s.metrics.ConfirmationRequired(req.Target, req.Action)
		return models.AutomationResult{
			Success:              false,
			RequiresConfirmation: true,
			ConfirmationMessage:  msg,
			ExecutionTime:        s.now().Sub(start).Seconds(),
		}
	}

	out := s.executor.Execute(ctx, rep, s.call(req))
	if out.Err != nil {
		return models.AutomationResult{
			Success:       false,
			Error:         out.Err.Error(),
			ErrorType:     string(KindOf(out.Err)),
			ExecutionTime: out.Elapsed.Seconds(),
		}
	}
	return models.AutomationResult{
		Success:       true,
		Result:        out.Result,
		ExecutionTime: out.Elapsed.Seconds(),
	}
}

// Submit registers req as a running task and executes it in the background.
// A risky unconfirmed request is answered with a confirmation prompt and
// nothing is registered or executed. ctx only guards the submission; the task
// itself runs until the service is closed.
func (s *AutomationService) Submit(ctx context.Context, req models.AutomationRequest) (Submission, error) {
	id := NewTaskID(req.Target, req.Action, s.now())

	if risky, msg := ClassifyRisk(req.Action, req.Target, req.Parameters); risky && !req.ConfirmRisky {
		s.metrics.ConfirmationRequired(req.Target, req.Action)
		return Submission{TaskID: id, Status: StatusRequiresConfirmation, ConfirmationMessage: msg}, nil
	}

	if err := ctx.Err(); err != nil {
		return Submission{}, errors.Wrapf(err, "task %s not submitted", id)
	}
	submitted := req.Clone()
	rec := models.TaskRecord{
		ID:        id,
		Kind:      models.ActionTaskKind,
		Status:    models.RunningTaskStatus,
		StartTime: s.now(),
		Request:   &submitted,
	}
	if err := s.registry.Create(rec); err != nil {
		return Submission{}, errors.Wrapf(err, "failed to register task %s", id)
	}
	s.metrics.TaskStarted(models.ActionTaskKind)

	rep := events.NewReporter(s.emitter, id)
	if _, err := s.wp.Go(id, func(jobCtx context.Context) {
		s.runTask(jobCtx, rec, rep)
	}); err != nil {
		s.finishTask(rec, nil, err)
		return Submission{}, errors.Wrapf(err, "failed to start task %s", id)
	}

	s.logger.Infof("Started background task %s", id)
	rep.Log("Started background task: "+id, events.LevelInfo, nil)
	return Submission{TaskID: id, Status: StatusRunning}, nil
}

func (s *AutomationService) runTask(ctx context.Context, rec models.TaskRecord, rep *events.Reporter) {
	req := *rec.Request
	defer func() {
		if r := recover(); r != nil {
			s.finishTask(rec, nil, errors.Errorf("task %s panicked: %v", rec.ID, r))
		}
	}()
	s.logger.Infof("Starting background task %s: %s on %s", rec.ID, req.Action, req.Target)
	rep.Log(fmt.Sprintf("Starting background task: %s on %s", req.Action, req.Target), events.LevelInfo, nil)
	out := s.executor.Execute(ctx, rep, s.call(req))
	s.finishTask(rec, out.Result, out.Err)
}

func (s *AutomationService) finishTask(rec models.TaskRecord, result map[string]any, taskErr error) {
	updated, err := s.registry.Update(rec.ID, func(r *models.TaskRecord) error {
		if r.IsTerminal() {
			return nil
		}
		if taskErr != nil {
			r.Error = taskErr.Error()
			r.Finish(models.FailedTaskStatus, s.now())
			return nil
		}
		r.Result = result
		r.Finish(models.CompletedTaskStatus, s.now())
		return nil
	})
	if err != nil {
		s.logger.Errorf("Failed to record outcome of task %s: %v", rec.ID, err)
		return
	}
	elapsed := time.Duration(0)
	if updated.ExecutionTime != nil {
		elapsed = time.Duration(*updated.ExecutionTime * float64(time.Second))
	}
	s.metrics.TaskFinished(updated.Kind, updated.Status, elapsed)
	if taskErr != nil {
		s.logger.Errorf("Error in background task %s: %v", rec.ID, taskErr)
		return
	}
	s.logger.Infof("Completed background task %s in %.2fs", rec.ID, elapsed.Seconds())
}

// SubmitWorkflow registers def as a running workflow and executes it in the
// background. An empty workflow is rejected and nothing is registered.
func (s *AutomationService) SubmitWorkflow(ctx context.Context, def models.WorkflowDefinition) (Submission, error) {
	if len(def.Steps) == 0 {
		return Submission{}, NewError(EmptyWorkflow, "Workflow must contain at least one step")
	}
	id := NewWorkflowID(s.now())
	name := WorkflowName(def)

	if s.opts.GateWorkflowSteps && !def.ConfirmRisky {
		for i, step := range def.Steps {
			if risky, msg := ClassifyRisk(step.Action, step.Target, step.Parameters); risky {
				s.metrics.ConfirmationRequired(step.Target, step.Action)
				return Submission{
					TaskID:              id,
					Status:              StatusRequiresConfirmation,
					ConfirmationMessage: fmt.Sprintf("%s: %s", StepName(step, i+1), msg),
				}, nil
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return Submission{}, errors.Wrapf(err, "workflow %s not submitted", id)
	}
	submitted := def.Clone()
	rec := models.TaskRecord{
		ID:         id,
		Kind:       models.WorkflowTaskKind,
		Name:       name,
		Status:     models.RunningTaskStatus,
		StartTime:  s.now(),
		Workflow:   &submitted,
		Results:    []models.StepResult{},
		TotalSteps: len(def.Steps),
	}
	if err := s.registry.Create(rec); err != nil {
		return Submission{}, errors.Wrapf(err, "failed to register workflow %s", id)
	}
	s.metrics.TaskStarted(models.WorkflowTaskKind)

	rep := events.NewReporter(s.emitter, id)
	run := submitted.Clone()
	if _, err := s.wp.Go(id, func(jobCtx context.Context) {
		if err := s.engine.Run(jobCtx, id, run, rep); err != nil {
			s.logger.Errorf("Workflow %s failed: %v", id, err)
		}
		s.observeFinished(id)
	}); err != nil {
		s.finishTask(rec, nil, err)
		return Submission{}, errors.Wrapf(err, "failed to start workflow %s", id)
	}

	s.logger.Infof("Started workflow %s (%s)", id, name)
	rep.Log("Started workflow: "+name, events.LevelInfo, nil)
	return Submission{TaskID: id, Status: StatusRunning}, nil
}

func (s *AutomationService) observeFinished(id string) {
	rec, err := s.registry.Get(id)
	if err != nil || rec.ExecutionTime == nil {
		return
	}
	s.metrics.TaskFinished(rec.Kind, rec.Status, time.Duration(*rec.ExecutionTime*float64(time.Second)))
}

func (s *AutomationService) GetTask(id string) (models.TaskRecord, error) {
	return s.registry.Get(id)
}

func (s *AutomationService) ListTasks() (map[string]models.TaskRecord, error) {
	return s.registry.List()
}

// TaskRecords returns every task ordered by start time.
func (s *AutomationService) TaskRecords() ([]models.TaskRecord, error) {
	return s.registry.Records()
}

// Wait blocks until the background unit of id returns or ctx is done. It
// returns immediately for tasks that are not running in this process.
func (s *AutomationService) Wait(ctx context.Context, id string) (models.TaskRecord, error) {
	if h, ok := s.wp.Handle(id); ok {
		select {
		case <-h.Done():
		case <-ctx.Done():
			return models.TaskRecord{}, ctx.Err()
		}
	}
	return s.registry.Get(id)
}

func (s *AutomationService) RunningTasks() (int, error) {
	return s.registry.Count(models.RunningTaskStatus)
}

func (s *AutomationService) Targets() []string {
	return s.providers.Targets()
}

func (s *AutomationService) Emitter() events.Emitter {
	return s.emitter
}

// Close stops accepting work and waits for background units to return.
func (s *AutomationService) Close() {
	s.wp.Stop()
}

func (s *AutomationService) call(req models.AutomationRequest) Call {
	return Call{
		Target:     req.Target,
		Action:     req.Action,
		Parameters: req.Parameters,
		Timeout:    s.opts.StepTimeout,
	}
}

// NewTaskID builds "<target>_<action>_<unix seconds>_<suffix>". The random
// suffix keeps ids unique when the same action is submitted twice in a second.
func NewTaskID(target, action string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d_%s", strings.ToLower(target), action, at.Unix(), shortID())
}

func NewWorkflowID(at time.Time) string {
	return fmt.Sprintf("workflow_%d_%s", at.Unix(), shortID())
}

func NewScheduleID(at time.Time) string {
	return fmt.Sprintf("scheduled_%d_%s", at.Unix(), shortID())
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
