package events

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultLinePrefix marks event lines for the desktop shell reading our stdout.
const DefaultLinePrefix = "__TAURI_EVENT__"

// LineSink writes one "<prefix>|<json>" line per event.
type LineSink struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

func NewLineSink(w io.Writer, prefix string) *LineSink {
	if prefix == "" {
		prefix = DefaultLinePrefix
	}
	return &LineSink{w: w, prefix: prefix}
}

type lineEnvelope struct {
	Marker  bool   `json:"__tauri_event"`
	Event   Name   `json:"event"`
	TaskID  string `json:"task_id,omitempty"`
	Payload any    `json:"payload"`
}

func (s *LineSink) Handle(e Event) {
	data, err := json.Marshal(lineEnvelope{Marker: true, Event: e.Name, TaskID: e.TaskID, Payload: e.Payload})
	if err != nil {
		data, _ = json.Marshal(lineEnvelope{
			Marker:  true,
			Event:   ErrorEvent,
			TaskID:  e.TaskID,
			Payload: ErrorPayload{Message: fmt.Sprintf("Error emitting event: %v", err), Type: "general", Details: map[string]any{}},
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s|%s\n", s.prefix, data)
}

// LogSink mirrors events into a logrus logger.
type LogSink struct {
	logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Handle(e Event) {
	entry := s.logger.WithField("event", string(e.Name))
	if e.TaskID != "" {
		entry = entry.WithField("task_id", e.TaskID)
	}
	switch p := e.Payload.(type) {
	case LogPayload:
		switch p.Level {
		case LevelDebug:
			entry.Debug(p.Message)
		case LevelWarning:
			entry.Warn(p.Message)
		case LevelError:
			entry.Error(p.Message)
		default:
			entry.Info(p.Message)
		}
	case ProgressPayload:
		entry.WithField("percentage", p.Percentage).Debugf("[%d/%d] %s", p.Step, p.TotalSteps, p.Message)
	case ResultPayload:
		entry.WithField("success", p.Success).Info(p.Message)
	case ErrorPayload:
		entry.WithField("type", p.Type).Error(p.Message)
	default:
		entry.Debugf("%v", e.Payload)
	}
}
