package models

// PreviousResultKey is the parameter key a step's result is injected under
// when the step sets PassResultToNext.
const PreviousResultKey = "previous_result"

// WorkflowStep is one target/action call within a workflow.
type WorkflowStep struct {
	Name             string         `json:"name,omitempty" yaml:"name,omitempty"`
	Target           string         `json:"target" yaml:"target" validate:"required"`
	Action           string         `json:"action" yaml:"action" validate:"required"`
	Parameters       map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	PassResultToNext bool           `json:"pass_result_to_next,omitempty" yaml:"pass_result_to_next,omitempty"`
	ContinueOnError  bool           `json:"continue_on_error,omitempty" yaml:"continue_on_error,omitempty"`
	TimeoutSeconds   float64        `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"gte=0"`
}

// WorkflowDefinition is an ordered list of steps submitted as one unit.
type WorkflowDefinition struct {
	Name         string         `json:"name,omitempty" yaml:"name,omitempty"`
	Steps        []WorkflowStep `json:"steps" yaml:"steps" validate:"dive"`
	ConfirmRisky bool           `json:"confirm_risky,omitempty" yaml:"confirm_risky,omitempty"`
}

// StepResult is appended once per attempted step, in execution order.
type StepResult struct {
	Step          int            `json:"step"` // 1-based
	Name          string         `json:"name"`
	Success       bool           `json:"success"`
	Result        map[string]any `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"` // Parameters the step ran with
	ExecutionTime float64        `json:"execution_time"`
}

func (s WorkflowStep) Clone() WorkflowStep {
	out := s
	out.Parameters = CloneMap(s.Parameters)
	return out
}

func (d WorkflowDefinition) Clone() WorkflowDefinition {
	out := d
	if d.Steps != nil {
		out.Steps = make([]WorkflowStep, len(d.Steps))
		for i, s := range d.Steps {
			out.Steps[i] = s.Clone()
		}
	}
	return out
}

func (r StepResult) Clone() StepResult {
	out := r
	out.Result = CloneMap(r.Result)
	out.Parameters = CloneMap(r.Parameters)
	return out
}
