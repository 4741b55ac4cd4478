package store

import (
	"sync"

	"github.com/mbeoliero/kit/log"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/idgen"
)

// Store is the single source of truth for per-conversation message
// order and for the derived preview/unread fields of the conversation
// lists.
//
// Ordering policy: append-only insertion order is authoritative.
// Reconciliation never reorders existing entries; a provisional entry
// keeps its list position when promoted to confirmed, even when the
// confirmed timestamp would imply a different chronological position.
// UI stability is traded for strict timestamp order on purpose.
//
// All operations are serialized by a mutex so concurrent transport
// handlers and callers observe each operation as atomic.
type Store struct {
	mu sync.Mutex

	selfUserId int64

	direct map[int64][]*entity.Message
	group  map[int64][]*entity.Message

	conversations map[int64]*entity.Conversation
	groups        map[int64]*entity.GroupConversation

	// Active conversation per scope, 0 means none. Messages arriving
	// for the active conversation do not bump its unread count.
	activeDirect int64
	activeGroup  int64

	onChange func()
}

// New creates a store for the given local user id
func New(selfUserId int64) *Store {
	return &Store{
		selfUserId:    selfUserId,
		direct:        make(map[int64][]*entity.Message),
		group:         make(map[int64][]*entity.Message),
		conversations: make(map[int64]*entity.Conversation),
		groups:        make(map[int64]*entity.GroupConversation),
	}
}

// OnChange installs a hook invoked after every mutating operation,
// outside the store lock. Used by UIs to schedule a re-render.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ApplyInboundMessage reconciles one server-delivered message into the
// target list. Duplicate confirmed ids are ignored; a matching
// provisional entry is promoted in place; anything else is appended.
// Returns the provisional id that was promoted, or "" if none.
func (s *Store) ApplyInboundMessage(msg *entity.Message) string {
	if msg == nil || msg.TargetId() == 0 {
		return ""
	}

	s.mu.Lock()
	scope, id := msg.Scope(), msg.TargetId()
	list := s.list(scope, id)

	// Duplicate network delivery (or reconnect replay) of an already
	// confirmed message: primary defense against double-rendering.
	for _, m := range list {
		if !m.IsProvisional() && m.Id == msg.Id {
			s.mu.Unlock()
			log.Debug("duplicate message ignored: id=%s", msg.Id)
			return ""
		}
	}

	promoted := ""
	if idx := s.findProvisional(list, msg); idx >= 0 {
		promoted = list[idx].Id
		// Promote in place: identity and metadata come from the
		// server copy, the list position stays where the optimistic
		// insert put it.
		list[idx] = msg
	} else {
		list = append(list, msg)
		s.setList(scope, id, list)
	}

	s.touchPreview(scope, id, msg)

	if msg.SenderId != s.selfUserId && !s.isActive(scope, id) && promoted == "" {
		s.bumpUnread(scope, id)
	}
	s.mu.Unlock()

	s.notify()
	return promoted
}

// findProvisional locates the provisional entry msg confirms, by exact
// client msg id when the server echoed it, else by the
// (senderId, content, attachment) tuple.
func (s *Store) findProvisional(list []*entity.Message, msg *entity.Message) int {
	if msg.ClientMsgId != "" && idgen.IsProvisional(msg.ClientMsgId) {
		for i, m := range list {
			if m.IsProvisional() && m.Id == msg.ClientMsgId {
				return i
			}
		}
	}
	if msg.SenderId != s.selfUserId {
		return -1
	}
	for i, m := range list {
		if m.IsProvisional() && m.MatchesContent(msg) {
			return i
		}
	}
	return -1
}

// ApplyOptimisticSend synthesizes a provisional message and appends it
// immediately, before any network confirmation. Returns the provisional
// id for later correlation.
func (s *Store) ApplyOptimisticSend(scope entity.Scope, id int64, content, attachment, attachmentType string, self *entity.Sender) string {
	provisionalId := idgen.ProvisionalMessageId()

	msg := &entity.Message{
		Id:             provisionalId,
		ClientMsgId:    provisionalId,
		SenderId:       self.Id,
		Content:        content,
		Attachment:     attachment,
		AttachmentType: attachmentType,
		CreatedAt:      entity.NowUnixMilli(),
		Sender:         self,
	}
	switch scope {
	case entity.ScopeGroup:
		msg.GroupConversationId = id
	default:
		msg.ConversationId = id
	}

	s.mu.Lock()
	s.setList(scope, id, append(s.list(scope, id), msg))
	s.touchPreview(scope, id, msg)
	s.mu.Unlock()

	s.notify()
	return provisionalId
}

// RollbackOptimisticSend removes the provisional entry with the given
// id. Removal is by identity, never by content, so an already-confirmed
// message with the same content is untouched.
func (s *Store) RollbackOptimisticSend(scope entity.Scope, id int64, provisionalId string) bool {
	s.mu.Lock()
	list := s.list(scope, id)
	idx := -1
	for i, m := range list {
		if m.Id == provisionalId {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	list = append(list[:idx], list[idx+1:]...)
	s.setList(scope, id, list)

	// If the rolled-back entry was the preview, fall back to the tail.
	var tail *entity.Message
	if len(list) > 0 {
		tail = list[len(list)-1]
	}
	s.resetPreviewIfIs(scope, id, provisionalId, tail)
	s.mu.Unlock()

	s.notify()
	return true
}

// ApplyReadReceipt marks every message in the conversation not authored
// by the reader as read: the other party read my messages.
func (s *Store) ApplyReadReceipt(scope entity.Scope, id int64, readerUserId int64) {
	now := entity.NowUnixMilli()

	s.mu.Lock()
	for _, m := range s.list(scope, id) {
		if m.SenderId != readerUserId && !m.Read {
			m.Read = true
			m.ReadAt = now
		}
	}
	s.mu.Unlock()

	s.notify()
}

// ZeroUnread resets the target conversation's unread count, used on an
// explicit mark-read action.
func (s *Store) ZeroUnread(scope entity.Scope, id int64) {
	s.mu.Lock()
	switch scope {
	case entity.ScopeGroup:
		if g, ok := s.groups[id]; ok {
			g.UnreadCount = 0
		}
	default:
		if c, ok := s.conversations[id]; ok {
			c.UnreadCount = 0
		}
	}
	s.mu.Unlock()

	s.notify()
}

// ReplaceMessages replaces (not merges) the list for a conversation
// with a fetched history page. Callers needing incremental pagination
// merge at a higher layer.
func (s *Store) ReplaceMessages(scope entity.Scope, id int64, msgs []*entity.Message) {
	list := make([]*entity.Message, len(msgs))
	copy(list, msgs)

	s.mu.Lock()
	s.setList(scope, id, list)
	s.mu.Unlock()

	s.notify()
}

// SetActive marks the conversation as the active one for its scope;
// messages arriving for it stop bumping its unread count.
func (s *Store) SetActive(scope entity.Scope, id int64) {
	s.mu.Lock()
	switch scope {
	case entity.ScopeGroup:
		s.activeGroup = id
	default:
		s.activeDirect = id
	}
	s.mu.Unlock()
}

// ClearActive clears active status only if id still holds it.
func (s *Store) ClearActive(scope entity.Scope, id int64) {
	s.mu.Lock()
	switch scope {
	case entity.ScopeGroup:
		if s.activeGroup == id {
			s.activeGroup = 0
		}
	default:
		if s.activeDirect == id {
			s.activeDirect = 0
		}
	}
	s.mu.Unlock()
}

// Active returns the active conversation id for a scope, 0 if none.
func (s *Store) Active(scope entity.Scope) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scope == entity.ScopeGroup {
		return s.activeGroup
	}
	return s.activeDirect
}

// locked helpers

func (s *Store) list(scope entity.Scope, id int64) []*entity.Message {
	if scope == entity.ScopeGroup {
		return s.group[id]
	}
	return s.direct[id]
}

func (s *Store) setList(scope entity.Scope, id int64, list []*entity.Message) {
	if scope == entity.ScopeGroup {
		s.group[id] = list
	} else {
		s.direct[id] = list
	}
}

func (s *Store) isActive(scope entity.Scope, id int64) bool {
	if scope == entity.ScopeGroup {
		return s.activeGroup == id
	}
	return s.activeDirect == id
}

func (s *Store) touchPreview(scope entity.Scope, id int64, msg *entity.Message) {
	switch scope {
	case entity.ScopeGroup:
		g, ok := s.groups[id]
		if !ok {
			g = &entity.GroupConversation{Id: id}
			s.groups[id] = g
		}
		g.LastMessage = msg
		g.LastMessageAt = msg.CreatedAt
	default:
		c, ok := s.conversations[id]
		if !ok {
			c = &entity.Conversation{Id: id}
			s.conversations[id] = c
		}
		c.LastMessage = msg
		c.LastMessageAt = msg.CreatedAt
	}
}

func (s *Store) resetPreviewIfIs(scope entity.Scope, id int64, msgId string, tail *entity.Message) {
	switch scope {
	case entity.ScopeGroup:
		if g, ok := s.groups[id]; ok && g.LastMessage != nil && g.LastMessage.Id == msgId {
			g.LastMessage = tail
			if tail != nil {
				g.LastMessageAt = tail.CreatedAt
			}
		}
	default:
		if c, ok := s.conversations[id]; ok && c.LastMessage != nil && c.LastMessage.Id == msgId {
			c.LastMessage = tail
			if tail != nil {
				c.LastMessageAt = tail.CreatedAt
			}
		}
	}
}

func (s *Store) bumpUnread(scope entity.Scope, id int64) {
	switch scope {
	case entity.ScopeGroup:
		if g, ok := s.groups[id]; ok {
			g.UnreadCount++
		}
	default:
		if c, ok := s.conversations[id]; ok {
			c.UnreadCount++
		}
	}
}
