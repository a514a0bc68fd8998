package models

import "time"

type ScheduleType string

const (
	OnceSchedule     ScheduleType = "once"
	DailySchedule    ScheduleType = "daily"
	WeeklySchedule   ScheduleType = "weekly"
	MonthlySchedule  ScheduleType = "monthly"
	IntervalSchedule ScheduleType = "interval"
)

// Schedule describes when a scheduled task fires. Times are local wall-clock "HH:MM".
type Schedule struct {
	Type  ScheduleType `json:"type" validate:"required,oneof=once daily weekly monthly interval"`
	Time  string       `json:"time,omitempty"`  // "15:04"
	Date  string       `json:"date,omitempty"`  // "2006-01-02"; once and monthly
	Days  []int        `json:"days,omitempty"`  // 0=Sunday..6=Saturday; weekly
	Every string       `json:"every,omitempty"` // Go duration, e.g. "30m"; interval
}

// ScheduledTask is a single action that the scheduler submits when it comes due.
type ScheduledTask struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name,omitempty" db:"name"`
	Target       string         `json:"target" db:"target"`
	Action       string         `json:"action" db:"action"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	ConfirmRisky bool           `json:"confirm_risky" db:"confirm_risky"`
	Schedule     Schedule       `json:"schedule"`
	Active       bool           `json:"active" db:"active"`
	Status       TaskStatus     `json:"status" db:"status"` // Always "scheduled"
	CreatedAt    time.Time      `json:"created_at"`
	NextRun      *time.Time     `json:"next_run,omitempty"`
	LastRun      *time.Time     `json:"last_run,omitempty"`
	LastResult   string         `json:"last_result,omitempty" db:"last_result"` // "submitted" or "failure"
	LastTaskID   string         `json:"last_task_id,omitempty" db:"last_task_id"`
}

func (s ScheduledTask) Clone() ScheduledTask {
	out := s
	out.Parameters = CloneMap(s.Parameters)
	out.Schedule.Days = append([]int(nil), s.Schedule.Days...)
	if s.NextRun != nil {
		next := *s.NextRun
		out.NextRun = &next
	}
	if s.LastRun != nil {
		last := *s.LastRun
		out.LastRun = &last
	}
	return out
}

// Request returns the automation request the scheduler submits for this task.
func (s ScheduledTask) Request() AutomationRequest {
	return AutomationRequest{
		Target:       s.Target,
		Action:       s.Action,
		Parameters:   CloneMap(s.Parameters),
		ConfirmRisky: s.ConfirmRisky,
	}
}
