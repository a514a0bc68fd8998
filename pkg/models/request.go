package models

// AutomationRequest is a (target, action, parameters) call submitted by a caller.
type AutomationRequest struct {
	Target       string         `json:"target" binding:"required"`
	Action       string         `json:"action" binding:"required"`
	Parameters   map[string]any `json:"parameters"`
	ConfirmRisky bool           `json:"confirm_risky"`
}

func (r AutomationRequest) Clone() AutomationRequest {
	out := r
	out.Parameters = CloneMap(r.Parameters)
	return out
}

// AutomationResult is the response to a synchronous request.
// RequiresConfirmation implies Success is false and neither Result nor Error is set.
type AutomationResult struct {
	Success              bool           `json:"success"`
	Result               map[string]any `json:"result,omitempty"`
	Error                string         `json:"error,omitempty"`
	ErrorType            string         `json:"error_type,omitempty"`
	ExecutionTime        float64        `json:"execution_time"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	ConfirmationMessage  string         `json:"confirmation_message,omitempty"`
}
