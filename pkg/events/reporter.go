package events

import "time"

// Reporter builds the four event kinds for a single task and hands them to an Emitter.
type Reporter struct {
	emitter Emitter
	taskID  string
	now     func() time.Time
}

func NewReporter(emitter Emitter, taskID string) *Reporter {
	if emitter == nil {
		emitter = Discard
	}
	return &Reporter{emitter: emitter, taskID: taskID, now: time.Now}
}

// ForTask returns a reporter sharing the emitter but tagging events with another task id.
func (r *Reporter) ForTask(taskID string) *Reporter {
	return &Reporter{emitter: r.emitter, taskID: taskID, now: r.now}
}

func (r *Reporter) TaskID() string {
	return r.taskID
}

func (r *Reporter) Log(message, level string, data map[string]any) {
	if level == "" {
		level = LevelInfo
	}
	if data == nil {
		data = map[string]any{}
	}
	r.emit(LogEvent, LogPayload{Message: message, Level: level, Data: data})
}

func (r *Reporter) Progress(step, total int, message string) {
	r.emit(ProgressEvent, ProgressPayload{
		Step:       step,
		TotalSteps: total,
		Message:    message,
		Percentage: Percentage(step, total),
		Data:       map[string]any{},
	})
}

func (r *Reporter) Result(success bool, result any, message string) {
	r.emit(ResultEvent, ResultPayload{Success: success, Result: result, Message: message})
}

func (r *Reporter) Error(message, errType string, details map[string]any) {
	if errType == "" {
		errType = "general"
	}
	if details == nil {
		details = map[string]any{}
	}
	r.emit(ErrorEvent, ErrorPayload{Message: message, Type: errType, Details: details})
}

func (r *Reporter) emit(name Name, payload any) {
	r.emitter.Emit(Event{Name: name, TaskID: r.taskID, Timestamp: r.now(), Payload: payload})
}
