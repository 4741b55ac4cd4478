package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
)

const selfId = int64(1)

func directMsg(id string, conv, sender int64, content string) *entity.Message {
	return &entity.Message{
		Id:             id,
		ConversationId: conv,
		SenderId:       sender,
		Content:        content,
		CreatedAt:      entity.NowUnixMilli(),
	}
}

func groupMsg(id string, group, sender int64, content string) *entity.Message {
	return &entity.Message{
		Id:                  id,
		GroupConversationId: group,
		SenderId:            sender,
		Content:             content,
		CreatedAt:           entity.NowUnixMilli(),
	}
}

func TestApplyInboundMessage_DuplicateDeliveryIsIdempotent(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("m1", 42, 2, "hi"))
	s.ApplyInboundMessage(directMsg("m1", 42, 2, "hi"))

	msgs := s.Messages(entity.ScopeDirect, 42)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].Id)
}

func TestApplyInboundMessage_AppendsInArrivalOrder(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("m1", 42, 2, "first"))
	s.ApplyInboundMessage(directMsg("m2", 42, 2, "second"))
	s.ApplyInboundMessage(directMsg("m3", 42, selfId, "third"))

	msgs := s.Messages(entity.ScopeDirect, 42)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m1", msgs[0].Id)
	assert.Equal(t, "m2", msgs[1].Id)
	assert.Equal(t, "m3", msgs[2].Id)
}

func TestOptimisticPromotion_PreservesPosition(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("a", 7, 2, "A"))
	s.ApplyInboundMessage(directMsg("b", 7, 2, "B"))

	self := &entity.Sender{Id: selfId, Username: "me"}
	provId := s.ApplyOptimisticSend(entity.ScopeDirect, 7, "C", "", "", self)

	msgs := s.Messages(entity.ScopeDirect, 7)
	require.Len(t, msgs, 3)
	require.Equal(t, provId, msgs[2].Id)
	require.True(t, msgs[2].IsProvisional())

	confirmed := directMsg("m99", 7, selfId, "C")
	promoted := s.ApplyInboundMessage(confirmed)
	assert.Equal(t, provId, promoted)

	msgs = s.Messages(entity.ScopeDirect, 7)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m99", msgs[2].Id)
	assert.False(t, msgs[2].IsProvisional())
	assert.Equal(t, "a", msgs[0].Id)
	assert.Equal(t, "b", msgs[1].Id)
}

func TestOptimisticPromotion_ByEchoedClientMsgId(t *testing.T) {
	s := New(selfId)

	self := &entity.Sender{Id: selfId}
	provId := s.ApplyOptimisticSend(entity.ScopeDirect, 7, "same text", "", "", self)

	confirmed := directMsg("m5", 7, selfId, "edited by server")
	confirmed.ClientMsgId = provId
	promoted := s.ApplyInboundMessage(confirmed)

	assert.Equal(t, provId, promoted)
	msgs := s.Messages(entity.ScopeDirect, 7)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m5", msgs[0].Id)
}

func TestOptimisticPromotion_IgnoresOtherSendersContent(t *testing.T) {
	s := New(selfId)

	self := &entity.Sender{Id: selfId}
	s.ApplyOptimisticSend(entity.ScopeDirect, 7, "hello", "", "", self)

	// Peer happens to send identical content; it must append, not
	// swallow the provisional entry.
	s.ApplyInboundMessage(directMsg("m10", 7, 2, "hello"))

	msgs := s.Messages(entity.ScopeDirect, 7)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsProvisional())
	assert.Equal(t, "m10", msgs[1].Id)
}

func TestRollback_RemovesExactlyTheProvisionalEntry(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("m1", 3, 2, "hello"))

	self := &entity.Sender{Id: selfId}
	provId := s.ApplyOptimisticSend(entity.ScopeDirect, 3, "hello", "", "", self)
	require.Len(t, s.Messages(entity.ScopeDirect, 3), 2)

	ok := s.RollbackOptimisticSend(entity.ScopeDirect, 3, provId)
	assert.True(t, ok)

	msgs := s.Messages(entity.ScopeDirect, 3)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].Id)

	// Second rollback finds nothing.
	assert.False(t, s.RollbackOptimisticSend(entity.ScopeDirect, 3, provId))
}

func TestRollback_ResetsPreviewToTail(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("m1", 3, 2, "keep me"))

	self := &entity.Sender{Id: selfId}
	provId := s.ApplyOptimisticSend(entity.ScopeDirect, 3, "oops", "", "", self)

	conv, ok := s.Conversation(3)
	require.True(t, ok)
	require.Equal(t, provId, conv.LastMessage.Id)

	s.RollbackOptimisticSend(entity.ScopeDirect, 3, provId)

	conv, _ = s.Conversation(3)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "m1", conv.LastMessage.Id)
}

func TestApplyReadReceipt_OnlyFlipsOthersMessages(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("m1", 9, 1, "mine"))
	s.ApplyInboundMessage(directMsg("m2", 9, 2, "theirs"))
	s.ApplyInboundMessage(directMsg("m3", 9, 1, "mine too"))

	// Reader 1 read the conversation: only sender 2's messages flip.
	s.ApplyReadReceipt(entity.ScopeDirect, 9, 1)

	msgs := s.Messages(entity.ScopeDirect, 9)
	assert.False(t, msgs[0].Read)
	assert.True(t, msgs[1].Read)
	assert.NotZero(t, msgs[1].ReadAt)
	assert.False(t, msgs[2].Read)
}

func TestUnread_SuppressedWhileActive(t *testing.T) {
	s := New(selfId)
	s.SetActive(entity.ScopeDirect, 5)

	s.ApplyInboundMessage(directMsg("m1", 5, 2, "visible"))
	s.ApplyInboundMessage(directMsg("m2", 6, 2, "hidden"))

	active, _ := s.Conversation(5)
	other, _ := s.Conversation(6)
	assert.EqualValues(t, 0, active.UnreadCount)
	assert.EqualValues(t, 1, other.UnreadCount)
}

func TestUnread_SelfMessagesNeverCount(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("m1", 5, selfId, "from me on another device"))

	conv, _ := s.Conversation(5)
	assert.EqualValues(t, 0, conv.UnreadCount)
}

func TestUnread_ResumesAfterClearActive(t *testing.T) {
	s := New(selfId)
	s.SetActive(entity.ScopeDirect, 5)
	s.ClearActive(entity.ScopeDirect, 5)

	s.ApplyInboundMessage(directMsg("m1", 5, 2, "hi"))

	conv, _ := s.Conversation(5)
	assert.EqualValues(t, 1, conv.UnreadCount)
}

func TestUnreadCounts_DerivedBySummation(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("m1", 5, 2, "a"))
	s.ApplyInboundMessage(directMsg("m2", 6, 3, "b"))
	s.ApplyInboundMessage(groupMsg("g1", 10, 4, "c"))

	counts := s.UnreadCounts()
	assert.EqualValues(t, 2, counts.Conversations)
	assert.EqualValues(t, 1, counts.Groups)
	assert.EqualValues(t, 3, counts.Total)

	s.ZeroUnread(entity.ScopeDirect, 5)
	counts = s.UnreadCounts()
	assert.EqualValues(t, 1, counts.Conversations)
	assert.EqualValues(t, 2, counts.Total)
}

func TestReplaceMessages_ReplacesNotMerges(t *testing.T) {
	s := New(selfId)

	s.ApplyInboundMessage(directMsg("old", 4, 2, "stale"))
	s.ReplaceMessages(entity.ScopeDirect, 4, []*entity.Message{
		directMsg("m1", 4, 2, "fresh"),
		directMsg("m2", 4, selfId, "fresh too"),
	})

	msgs := s.Messages(entity.ScopeDirect, 4)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].Id)
}

func TestPreview_TracksLatestMessage(t *testing.T) {
	s := New(selfId)

	first := directMsg("m1", 8, 2, "first")
	s.ApplyInboundMessage(first)
	second := directMsg("m2", 8, 2, "second")
	s.ApplyInboundMessage(second)

	conv, ok := s.Conversation(8)
	require.True(t, ok)
	assert.Equal(t, "m2", conv.LastMessage.Id)
	assert.Equal(t, second.CreatedAt, conv.LastMessageAt)
}

func TestSeedConversations_KeepsBufferedMessages(t *testing.T) {
	s := New(selfId)

	// Messages can arrive while the sidebar fetch is still in flight.
	s.ApplyInboundMessage(directMsg("m1", 2, 3, "early"))

	s.SeedConversations([]*entity.Conversation{{Id: 2, PeerUserId: 3, UnreadCount: 4}})

	require.Len(t, s.Messages(entity.ScopeDirect, 2), 1)
	conv, _ := s.Conversation(2)
	assert.EqualValues(t, 4, conv.UnreadCount)
}

func TestOnChange_FiresOnMutations(t *testing.T) {
	s := New(selfId)

	fired := 0
	s.OnChange(func() { fired++ })

	s.ApplyInboundMessage(directMsg("m1", 2, 3, "x"))
	s.ZeroUnread(entity.ScopeDirect, 2)

	assert.Equal(t, 2, fired)
}

// End-to-end reconciliation scenario: history load, optimistic send,
// confirmation broadcast, read receipt.
func TestScenario_LoadSendConfirmRead(t *testing.T) {
	s := New(selfId)

	s.ReplaceMessages(entity.ScopeDirect, 42, []*entity.Message{
		directMsg("m1", 42, 2, "hi"),
	})

	self := &entity.Sender{Id: selfId, Username: "me"}
	provId := s.ApplyOptimisticSend(entity.ScopeDirect, 42, "hello", "", "", self)

	msgs := s.Messages(entity.ScopeDirect, 42)
	require.Len(t, msgs, 2)
	require.Equal(t, provId, msgs[1].Id)

	s.ApplyInboundMessage(directMsg("m99", 42, selfId, "hello"))

	msgs = s.Messages(entity.ScopeDirect, 42)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].Id)
	assert.Equal(t, "m99", msgs[1].Id)

	s.ApplyReadReceipt(entity.ScopeDirect, 42, 2)

	msgs = s.Messages(entity.ScopeDirect, 42)
	assert.True(t, msgs[1].Read)
	assert.False(t, msgs[0].Read)
}
