package presence

import (
	"sync"
	"time"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
)

// Tracker holds at most one active typer per conversation. Updates are
// last-writer-wins; an update with IsTyping=false clears the slot.
//
// The sender is responsible for emitting the clearing event after its
// local debounce window. As a defense against a peer that vanishes
// mid-typing, a slot that is not refreshed within ttl is expired on the
// receiver side as well (ttl <= 0 disables this).
type Tracker struct {
	mu     sync.Mutex
	ttl    time.Duration
	direct map[int64]*slot
	group  map[int64]*slot
}

type slot struct {
	state entity.TypingState
	timer *time.Timer
}

// NewTracker creates a tracker with the given receiver-side expiry
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		ttl:    ttl,
		direct: make(map[int64]*slot),
		group:  make(map[int64]*slot),
	}
}

// SetRemoteTyping records who is typing in a conversation, overwriting
// any previous typer unconditionally.
func (t *Tracker) SetRemoteTyping(scope entity.Scope, id int64, state entity.TypingState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slots := t.slots(scope)

	if existing, ok := slots[id]; ok {
		if existing.timer != nil {
			existing.timer.Stop()
		}
		delete(slots, id)
	}

	if !state.IsTyping {
		return
	}

	sl := &slot{state: state}
	if t.ttl > 0 {
		sl.timer = time.AfterFunc(t.ttl, func() {
			t.expire(scope, id, state.UserId)
		})
	}
	slots[id] = sl
}

// Typing returns the current typer for a conversation, if any.
func (t *Tracker) Typing(scope entity.Scope, id int64) (entity.TypingState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sl, ok := t.slots(scope)[id]; ok {
		return sl.state, true
	}
	return entity.TypingState{}, false
}

// Clear drops the slot for a conversation.
func (t *Tracker) Clear(scope entity.Scope, id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slots := t.slots(scope)
	if sl, ok := slots[id]; ok {
		if sl.timer != nil {
			sl.timer.Stop()
		}
		delete(slots, id)
	}
}

// expire clears the slot only if the same user still holds it; a newer
// typer has its own timer.
func (t *Tracker) expire(scope entity.Scope, id int64, userId int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slots := t.slots(scope)
	if sl, ok := slots[id]; ok && sl.state.UserId == userId {
		delete(slots, id)
	}
}

func (t *Tracker) slots(scope entity.Scope) map[int64]*slot {
	if scope == entity.ScopeGroup {
		return t.group
	}
	return t.direct
}
