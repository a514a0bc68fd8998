package service

import (
	"context"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/pkg/errors"
)

const (
	DefaultSchedulerInterval = 30 * time.Second

	LastResultSubmitted = "submitted"
	LastResultFailure   = "failure"
)

// ScheduleOutcome answers a schedule creation request.
type ScheduleOutcome struct {
	Task                 models.ScheduledTask
	RequiresConfirmation bool
	ConfirmationMessage  string
}

// Scheduler stores scheduled tasks and submits them through the background
// dispatch path when they come due. The risk gate is applied when a task is
// scheduled, not when it fires.
type Scheduler struct {
	store    storage.Store
	svc      *AutomationService
	logger   Logger
	interval time.Duration
	now      func() time.Time
}

func NewScheduler(store storage.Store, svc *AutomationService, logger Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultSchedulerInterval
	}
	return &Scheduler{
		store:    store,
		svc:      svc,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

func (s *Scheduler) Create(task models.ScheduledTask) (ScheduleOutcome, error) {
	if task.Target == "" || task.Action == "" {
		return ScheduleOutcome{}, NewError(MissingParameter, "scheduled task needs a target and an action")
	}
	if _, err := s.svc.providers.Lookup(task.Target); err != nil {
		return ScheduleOutcome{}, err
	}
	if risky, msg := ClassifyRisk(task.Action, task.Target, task.Parameters); risky && !task.ConfirmRisky {
		return ScheduleOutcome{RequiresConfirmation: true, ConfirmationMessage: msg}, nil
	}

	now := s.now()
	next, err := NextRun(task.Schedule, now)
	if err != nil {
		return ScheduleOutcome{}, err
	}
	task.ID = NewScheduleID(now)
	task.Status = models.ScheduledTaskStatus
	task.Active = true
	task.CreatedAt = now
	task.NextRun = &next
	task.LastRun = nil
	task.LastResult = ""
	task.LastTaskID = ""
	if task.Name == "" {
		task.Name = task.Target + " " + task.Action
	}

	if err := withTx(s.store, s.logger, func(tx storage.Store) error {
		return tx.SaveSchedule(task)
	}); err != nil {
		return ScheduleOutcome{}, errors.Wrapf(err, "failed to save scheduled task %s", task.ID)
	}
	s.logger.Infof("Scheduled task %s (%s on %s), next run %s", task.ID, task.Action, task.Target, next.Format(time.RFC3339))
	events.NewReporter(s.svc.Emitter(), task.ID).Log("Scheduled new task: "+task.Action, events.LevelInfo, nil)
	return ScheduleOutcome{Task: task}, nil
}

func (s *Scheduler) Get(id string) (models.ScheduledTask, error) {
	task, err := s.store.GetSchedule(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.ScheduledTask{}, WrapError(NotFound, err, "Task "+id+" not found")
		}
		return models.ScheduledTask{}, err
	}
	return task, nil
}

func (s *Scheduler) List() ([]models.ScheduledTask, error) {
	return s.store.ListSchedules()
}

// Delete removes the scheduled task and returns what was stored.
func (s *Scheduler) Delete(id string) (task models.ScheduledTask, err error) {
	err = withTx(s.store, s.logger, func(tx storage.Store) error {
		task, err = tx.GetSchedule(id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return WrapError(NotFound, err, "Task "+id+" not found")
			}
			return err
		}
		return tx.DeleteSchedule(id)
	})
	if err != nil {
		return models.ScheduledTask{}, err
	}
	s.logger.Infof("Deleted scheduled task %s", id)
	return task, nil
}

// Tick submits every active task whose next run is due and returns how many
// were submitted.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	tasks, err := s.store.ListSchedules()
	if err != nil {
		return 0, errors.Wrap(err, "failed to list scheduled tasks")
	}
	now := s.now()
	fired := 0
	for _, task := range tasks {
		if !task.Active || task.NextRun == nil || task.NextRun.After(now) {
			continue
		}
		if err := s.fire(ctx, task, now); err != nil {
			s.logger.Errorf("Failed to run scheduled task %s: %v", task.ID, err)
			continue
		}
		fired++
	}
	return fired, nil
}

func (s *Scheduler) fire(ctx context.Context, task models.ScheduledTask, now time.Time) error {
	req := task.Request()
	// Confirmation was given when the task was scheduled.
	req.ConfirmRisky = true
	sub, submitErr := s.svc.Submit(ctx, req)

	ran := now
	task.LastRun = &ran
	if submitErr != nil {
		task.LastResult = LastResultFailure
		s.logger.Errorf("Scheduled task %s could not be submitted: %v", task.ID, submitErr)
	} else {
		task.LastResult = LastResultSubmitted
		task.LastTaskID = sub.TaskID
		s.logger.Infof("Scheduled task %s submitted as %s", task.ID, sub.TaskID)
	}

	if task.Schedule.Type == models.OnceSchedule {
		task.Active = false
		task.NextRun = nil
	} else {
		next, err := NextRun(task.Schedule, now)
		if err != nil {
			task.Active = false
			task.NextRun = nil
			s.logger.Warnf("Deactivated scheduled task %s: %v", task.ID, err)
		} else {
			task.NextRun = &next
		}
	}

	err := withTx(s.store, s.logger, func(tx storage.Store) error {
		return tx.UpdateSchedule(task)
	})
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Infof("Scheduled task %s was deleted while it fired", task.ID)
		return nil
	}
	return err
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Infof("Scheduler started, checking every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("Scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.Errorf("Scheduler tick failed: %v", err)
			}
		}
	}
}
