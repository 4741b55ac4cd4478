package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
)

// SentEvent is one captured outbound emission.
type SentEvent struct {
	Event string
	Data  json.RawMessage
}

// MemoryTransport is an in-process Transport with synchronous delivery.
// Inbound events injected through Inject are dispatched on the calling
// goroutine, which preserves the same in-order guarantee the socket
// transport gives. Used by tests and by embedders that bridge their own
// event source.
type MemoryTransport struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	sent     []SentEvent
	state    ConnState
	emitErr  map[string]error
}

// NewMemoryTransport creates a connected in-memory transport
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		handlers: make(map[string][]Handler),
		state:    StateConnected,
		emitErr:  make(map[string]error),
	}
}

// Subscribe registers a handler for an event name
func (t *MemoryTransport) Subscribe(event string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[event] = append(t.handlers[event], h)
}

// Emit captures an outbound event
func (t *MemoryTransport) Emit(ctx context.Context, event string, payload any) error {
	t.mu.Lock()
	if t.state != StateConnected {
		t.mu.Unlock()
		return errcode.ErrTransportUnavailable
	}
	if err, ok := t.emitErr[event]; ok {
		t.mu.Unlock()
		return err
	}
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.mu.Unlock()
			return errcode.ErrInvalidFrame.Wrap(err)
		}
		data = raw
	}
	t.sent = append(t.sent, SentEvent{Event: event, Data: data})
	t.mu.Unlock()
	return nil
}

// State returns the current connection state
func (t *MemoryTransport) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Close marks the transport disconnected
func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateDisconnected
	return nil
}

// SetState forces a connection state, for failure-path tests
func (t *MemoryTransport) SetState(s ConnState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
}

// FailEmit forces Emit for one event name to return err
func (t *MemoryTransport) FailEmit(event string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitErr[event] = err
}

// Inject delivers an inbound event to subscribers synchronously
func (t *MemoryTransport) Inject(event string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = raw
	}

	t.mu.Lock()
	handlers := append([]Handler(nil), t.handlers[event]...)
	t.mu.Unlock()

	for _, h := range handlers {
		h(context.Background(), data)
	}
	return nil
}

// Sent returns a copy of all captured outbound events
func (t *MemoryTransport) Sent() []SentEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SentEvent, len(t.sent))
	copy(out, t.sent)
	return out
}

// SentEvents returns the captured outbound events with a given name
func (t *MemoryTransport) SentEvents(event string) []SentEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []SentEvent
	for _, e := range t.sent {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

var _ Transport = (*MemoryTransport)(nil)
