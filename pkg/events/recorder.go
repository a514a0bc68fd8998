package events

import "sync"

// Recorder keeps every emitted event in memory. Useful in tests and for
// short-lived CLI runs.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ForTask returns the events tagged with taskID, in emission order.
func (r *Recorder) ForTask(taskID string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// Named returns the events with the given name, in emission order.
func (r *Recorder) Named(name Name) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
