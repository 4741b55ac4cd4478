package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
)

func TestSetRemoteTyping_LastWriterWins(t *testing.T) {
	tr := NewTracker(0)

	tr.SetRemoteTyping(entity.ScopeDirect, 5, entity.TypingState{UserId: 2, Username: "ann", IsTyping: true})
	tr.SetRemoteTyping(entity.ScopeDirect, 5, entity.TypingState{UserId: 3, Username: "bob", IsTyping: true})

	state, ok := tr.Typing(entity.ScopeDirect, 5)
	require.True(t, ok)
	assert.EqualValues(t, 3, state.UserId)
	assert.Equal(t, "bob", state.Username)
}

func TestSetRemoteTyping_FalseClearsSlot(t *testing.T) {
	tr := NewTracker(0)

	tr.SetRemoteTyping(entity.ScopeDirect, 5, entity.TypingState{UserId: 2, IsTyping: true})
	tr.SetRemoteTyping(entity.ScopeDirect, 5, entity.TypingState{UserId: 2, IsTyping: false})

	_, ok := tr.Typing(entity.ScopeDirect, 5)
	assert.False(t, ok)
}

func TestScopesAreIndependent(t *testing.T) {
	tr := NewTracker(0)

	tr.SetRemoteTyping(entity.ScopeDirect, 5, entity.TypingState{UserId: 2, IsTyping: true})
	tr.SetRemoteTyping(entity.ScopeGroup, 5, entity.TypingState{UserId: 3, IsTyping: true})

	direct, ok := tr.Typing(entity.ScopeDirect, 5)
	require.True(t, ok)
	group, ok2 := tr.Typing(entity.ScopeGroup, 5)
	require.True(t, ok2)
	assert.EqualValues(t, 2, direct.UserId)
	assert.EqualValues(t, 3, group.UserId)
}

func TestReceiverSideExpiry(t *testing.T) {
	tr := NewTracker(30 * time.Millisecond)

	tr.SetRemoteTyping(entity.ScopeDirect, 5, entity.TypingState{UserId: 2, IsTyping: true})

	_, ok := tr.Typing(entity.ScopeDirect, 5)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := tr.Typing(entity.ScopeDirect, 5)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestExpiry_DoesNotClearNewerTyper(t *testing.T) {
	tr := NewTracker(40 * time.Millisecond)

	tr.SetRemoteTyping(entity.ScopeDirect, 5, entity.TypingState{UserId: 2, IsTyping: true})
	time.Sleep(20 * time.Millisecond)
	// Overwrite restarts the clock for the new typer.
	tr.SetRemoteTyping(entity.ScopeDirect, 5, entity.TypingState{UserId: 3, IsTyping: true})
	time.Sleep(25 * time.Millisecond)

	state, ok := tr.Typing(entity.ScopeDirect, 5)
	require.True(t, ok)
	assert.EqualValues(t, 3, state.UserId)
}

func TestClear(t *testing.T) {
	tr := NewTracker(0)

	tr.SetRemoteTyping(entity.ScopeGroup, 9, entity.TypingState{UserId: 2, IsTyping: true})
	tr.Clear(entity.ScopeGroup, 9)

	_, ok := tr.Typing(entity.ScopeGroup, 9)
	assert.False(t, ok)
}
