package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted since the last Flush
// are held in the back buffer; Flush makes them the front buffer and hands
// them to subscribers, so handlers never see events emitted while they run
// until the next Flush.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]any
	pending  int
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer (delivered on the next Flush).
// A nil bus drops the event.
func Emit[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.back[t] = append(b.back[t], event)
	b.pending++
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Pending returns how many events wait in the back buffer.
func (b *Bus) Pending() int { return b.pending }

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
	b.pending = 0
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
// Events of one type arrive in emission order; there is no ordering across
// types.
func (b *Bus) DispatchAll() {
	for t, events := range b.front {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				// Subscribe and Emit key on the same type, so the handler
				// accepts this event.
				callHandler(h, ev)
			}
		}
	}
}

// Flush swaps buffers and dispatches, returning the number of events
// delivered.
func (b *Bus) Flush() int {
	n := b.pending
	b.SwapBuffers()
	b.DispatchAll()
	return n
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
