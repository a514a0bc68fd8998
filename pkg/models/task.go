package models

import "time"

type TaskStatus string

const (
	RunningTaskStatus   TaskStatus = "running"
	CompletedTaskStatus TaskStatus = "completed"
	FailedTaskStatus    TaskStatus = "failed"
	ScheduledTaskStatus TaskStatus = "scheduled"
)

type TaskKind string

const (
	ActionTaskKind   TaskKind = "action"
	WorkflowTaskKind TaskKind = "workflow"
)

// TaskRecord is the lifecycle record of a background action or workflow.
type TaskRecord struct {
	ID             string              `json:"id"`                       // e.g. "files_list_files_1712345678_1a2b3c4d" or "workflow_1712345678_1a2b3c4d"
	Kind           TaskKind            `json:"kind"`                     // "action" or "workflow"
	Name           string              `json:"name,omitempty"`           // Workflow name (workflows only)
	Status         TaskStatus          `json:"status"`                   // "running", "completed", "failed"
	StartTime      time.Time           `json:"start_time"`               // Acceptance time
	EndTime        *time.Time          `json:"end_time,omitempty"`       // Nil while running
	ExecutionTime  *float64            `json:"execution_time,omitempty"` // Seconds, nil while running
	Request        *AutomationRequest  `json:"request,omitempty"`        // Submitted request (actions only)
	Workflow       *WorkflowDefinition `json:"workflow,omitempty"`       // Submitted definition (workflows only)
	Result         map[string]any      `json:"result,omitempty"`         // Set only when completed (actions)
	Error          string              `json:"error,omitempty"`          // Set only when failed
	Results        []StepResult        `json:"results,omitempty"`        // Per-step outcomes (workflows)
	StepsCompleted int                 `json:"steps_completed"`          // Steps attempted so far (workflows)
	TotalSteps     int                 `json:"total_steps"`              // Number of steps (workflows)
}

// IsTerminal reports whether the record reached completed or failed.
func (r TaskRecord) IsTerminal() bool {
	return r.Status == CompletedTaskStatus || r.Status == FailedTaskStatus
}

// Finish stamps the end time and derived execution time.
func (r *TaskRecord) Finish(status TaskStatus, at time.Time) {
	r.Status = status
	end := at
	r.EndTime = &end
	elapsed := at.Sub(r.StartTime).Seconds()
	r.ExecutionTime = &elapsed
}

// Clone returns a deep copy so readers never share mutable state with the writer.
func (r TaskRecord) Clone() TaskRecord {
	out := r
	if r.EndTime != nil {
		end := *r.EndTime
		out.EndTime = &end
	}
	if r.ExecutionTime != nil {
		elapsed := *r.ExecutionTime
		out.ExecutionTime = &elapsed
	}
	if r.Request != nil {
		req := r.Request.Clone()
		out.Request = &req
	}
	if r.Workflow != nil {
		wf := r.Workflow.Clone()
		out.Workflow = &wf
	}
	out.Result = CloneMap(r.Result)
	if r.Results != nil {
		out.Results = make([]StepResult, len(r.Results))
		for i, sr := range r.Results {
			out.Results[i] = sr.Clone()
		}
	}
	return out
}
