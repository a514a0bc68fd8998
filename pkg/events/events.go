// Package events publishes task log, progress, result and error events to
// attached observers. Delivery is best-effort: producers never block on a
// slow observer.
package events

import "time"

type Name string

const (
	LogEvent      Name = "task-log"
	ProgressEvent Name = "task-progress"
	ResultEvent   Name = "task-result"
	ErrorEvent    Name = "error"
)

const (
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Event is one notification. Payload is one of the *Payload types below.
type Event struct {
	Name      Name      `json:"event"`
	TaskID    string    `json:"task_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type LogPayload struct {
	Message string         `json:"message"`
	Level   string         `json:"level"`
	Data    map[string]any `json:"data"`
}

type ProgressPayload struct {
	Step       int            `json:"step"`
	TotalSteps int            `json:"totalSteps"`
	Message    string         `json:"message"`
	Percentage int            `json:"percentage"`
	Data       map[string]any `json:"data"`
}

type ResultPayload struct {
	Success bool   `json:"success"`
	Result  any    `json:"result"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Details map[string]any `json:"details"`
}

// Emitter accepts events for delivery. Implementations must not block.
type Emitter interface {
	Emit(e Event)
}

type EmitterFunc func(e Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})

// Percentage returns step/total as a whole percentage, 0 when total is 0.
func Percentage(step, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(step) / float64(total) * 100)
}
