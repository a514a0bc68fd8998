package events

import (
	"sync"
	"sync/atomic"
)

const DefaultBufferSize = 256

// Sink consumes events delivered by a Bus subscription.
type Sink interface {
	Handle(e Event)
}

type SinkFunc func(e Event)

func (f SinkFunc) Handle(e Event) { f(e) }

// Bus fans events out to subscribers. Each subscriber has its own buffered
// channel; when it is full the event is dropped for that subscriber only.
type Bus struct {
	mu         sync.RWMutex
	subs       map[uint64]chan Event
	nextID     uint64
	bufferSize int
	closed     bool
	dropped    atomic.Uint64
	onDrop     func(Event)
}

func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{subs: make(map[uint64]chan Event), bufferSize: bufferSize}
}

// OnDrop registers a callback invoked for every dropped delivery.
func (b *Bus) OnDrop(fn func(Event)) {
	b.mu.Lock()
	b.onDrop = fn
	b.mu.Unlock()
}

func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
			if b.onDrop != nil {
				b.onDrop(e)
			}
		}
	}
}

// Subscribe returns a channel of events and a function that ends the subscription.
// The channel is closed when the subscription ends or the bus is closed.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Attach delivers events to sink on its own goroutine until the returned
// function is called. The function waits for in-flight deliveries.
func (b *Bus) Attach(sink Sink) func() {
	ch, unsubscribe := b.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			sink.Handle(e)
		}
	}()
	return func() {
		unsubscribe()
		<-done
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close ends every subscription. Later emits are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
