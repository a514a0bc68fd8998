package events_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, events.Percentage(0, 4))
	assert.Equal(t, 33, events.Percentage(1, 3))
	assert.Equal(t, 66, events.Percentage(2, 3))
	assert.Equal(t, 100, events.Percentage(3, 3))
	assert.Equal(t, 0, events.Percentage(1, 0))
}

func TestReporter(t *testing.T) {
	rec := &events.Recorder{}
	rep := events.NewReporter(rec, "task-1")

	rep.Log("hello", "", nil)
	rep.Progress(1, 4, "Executing: one")
	rep.Result(true, map[string]any{"x": 1}, "done")
	rep.Error("broke", "", nil)
	rep.ForTask("task-2").Log("other", events.LevelDebug, nil)

	evs := rec.Events()
	require.Len(t, evs, 5)
	assert.Equal(t, events.LogPayload{Message: "hello", Level: events.LevelInfo, Data: map[string]any{}}, evs[0].Payload)
	assert.Equal(t, events.ProgressPayload{Step: 1, TotalSteps: 4, Message: "Executing: one", Percentage: 25, Data: map[string]any{}}, evs[1].Payload)
	assert.Equal(t, events.ResultEvent, evs[2].Name)
	assert.Equal(t, events.ErrorPayload{Message: "broke", Type: "general", Details: map[string]any{}}, evs[3].Payload)
	assert.Len(t, rec.ForTask("task-1"), 4)
	assert.Len(t, rec.ForTask("task-2"), 1)
	for _, e := range evs {
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestBus(t *testing.T) {

	t.Run("FanOutInOrder", func(t *testing.T) {
		bus := events.NewBus(16)
		defer bus.Close()
		a, unsubA := bus.Subscribe()
		b, unsubB := bus.Subscribe()
		defer unsubA()
		defer unsubB()

		rep := events.NewReporter(bus, "t")
		for i := 1; i <= 3; i++ {
			rep.Progress(i, 3, "step")
		}
		for _, ch := range []<-chan events.Event{a, b} {
			for i := 1; i <= 3; i++ {
				e := <-ch
				assert.Equal(t, i, e.Payload.(events.ProgressPayload).Step)
			}
		}
	})

	t.Run("SlowSubscriberDoesNotBlock", func(t *testing.T) {
		bus := events.NewBus(2)
		defer bus.Close()
		var dropped int
		var mu sync.Mutex
		bus.OnDrop(func(events.Event) {
			mu.Lock()
			dropped++
			mu.Unlock()
		})
		_, unsub := bus.Subscribe()
		defer unsub()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 10; i++ {
				bus.Emit(events.Event{Name: events.LogEvent})
			}
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("emit blocked on a full subscriber")
		}
		assert.Equal(t, uint64(8), bus.Dropped())
		mu.Lock()
		assert.Equal(t, 8, dropped)
		mu.Unlock()
	})

	t.Run("UnsubscribeClosesChannel", func(t *testing.T) {
		bus := events.NewBus(4)
		ch, unsub := bus.Subscribe()
		assert.Equal(t, 1, bus.Subscribers())
		unsub()
		unsub()
		_, open := <-ch
		assert.False(t, open)
		assert.Equal(t, 0, bus.Subscribers())
		bus.Emit(events.Event{Name: events.LogEvent})
	})

	t.Run("AttachDeliversToSink", func(t *testing.T) {
		bus := events.NewBus(8)
		rec := &events.Recorder{}
		detach := bus.Attach(rec)
		bus.Emit(events.Event{Name: events.LogEvent, TaskID: "x"})
		bus.Emit(events.Event{Name: events.ResultEvent, TaskID: "x"})
		detach()
		assert.Len(t, rec.ForTask("x"), 2)
	})

	t.Run("CloseEndsSubscriptions", func(t *testing.T) {
		bus := events.NewBus(4)
		ch, _ := bus.Subscribe()
		bus.Close()
		_, open := <-ch
		assert.False(t, open)
		late, _ := bus.Subscribe()
		_, open = <-late
		assert.False(t, open)
		bus.Emit(events.Event{Name: events.LogEvent})
	})
}

func TestLineSink(t *testing.T) {
	var buf bytes.Buffer
	sink := events.NewLineSink(&buf, "")
	rep := events.NewReporter(events.EmitterFunc(sink.Handle), "files_list_files_1")

	rep.Log("Starting files automation: list_files", events.LevelInfo, nil)
	rep.Progress(1, 3, "Initializing list_files on files")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, events.DefaultLinePrefix+"|"))
	}

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[0], events.DefaultLinePrefix+"|")), &first))
	assert.Equal(t, true, first["__tauri_event"])
	assert.Equal(t, "task-log", first["event"])
	assert.Equal(t, "files_list_files_1", first["task_id"])
	payload := first["payload"].(map[string]any)
	assert.Equal(t, "Starting files automation: list_files", payload["message"])
	assert.Equal(t, "info", payload["level"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], events.DefaultLinePrefix+"|")), &second))
	progress := second["payload"].(map[string]any)
	assert.Equal(t, float64(3), progress["totalSteps"])
	assert.Equal(t, float64(33), progress["percentage"])
}

func TestLogSink(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sink := events.NewLogSink(logger)

	rep := events.NewReporter(events.EmitterFunc(sink.Handle), "t1")
	rep.Log("careful", events.LevelWarning, nil)
	rep.Error("broken", "execution_failed", nil)
	rep.Result(true, nil, "fine")

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, "careful", entries[0].Message)
	assert.Equal(t, "t1", entries[0].Data["task_id"])
	assert.Equal(t, logrus.ErrorLevel, entries[1].Level)
	assert.Equal(t, "execution_failed", entries[1].Data["type"])
	assert.Equal(t, logrus.InfoLevel, entries[2].Level)
}
