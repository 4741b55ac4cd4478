package store

import (
	"sort"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
)

// Messages returns the ordered message list for a conversation. The
// returned slice is a copy; entries are shared and must be treated as
// read-only by callers.
func (s *Store) Messages(scope entity.Scope, id int64) []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.list(scope, id)
	out := make([]*entity.Message, len(list))
	copy(out, list)
	return out
}

// Conversations returns the direct conversation list, most recent
// activity first (the sidebar order).
func (s *Store) Conversations() []*entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessageAt != out[j].LastMessageAt {
			return out[i].LastMessageAt > out[j].LastMessageAt
		}
		return out[i].Id < out[j].Id
	})
	return out
}

// GroupConversations returns the group conversation list, most recent
// activity first.
func (s *Store) GroupConversations() []*entity.GroupConversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.GroupConversation, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessageAt != out[j].LastMessageAt {
			return out[i].LastMessageAt > out[j].LastMessageAt
		}
		return out[i].Id < out[j].Id
	})
	return out
}

// Conversation returns one direct conversation, if known.
func (s *Store) Conversation(id int64) (*entity.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	return c, ok
}

// GroupConversation returns one group conversation, if known.
func (s *Store) GroupConversation(id int64) (*entity.GroupConversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	return g, ok
}

// UnreadCounts recomputes the aggregate unread view by summation over
// the per-conversation counts. There is no separately mutated aggregate
// to drift from them.
func (s *Store) UnreadCounts() entity.UnreadCounts {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts entity.UnreadCounts
	for _, c := range s.conversations {
		counts.Conversations += c.UnreadCount
	}
	for _, g := range s.groups {
		counts.Groups += g.UnreadCount
	}
	counts.Total = counts.Conversations + counts.Groups
	return counts
}

// SeedConversations installs the server's direct conversation list,
// keeping any message lists already buffered for those conversations.
func (s *Store) SeedConversations(convs []*entity.Conversation) {
	s.mu.Lock()
	for _, c := range convs {
		if c != nil && c.Id != 0 {
			s.conversations[c.Id] = c
		}
	}
	s.mu.Unlock()

	s.notify()
}

// SeedGroupConversations installs the server's group conversation list.
func (s *Store) SeedGroupConversations(groups []*entity.GroupConversation) {
	s.mu.Lock()
	for _, g := range groups {
		if g != nil && g.Id != 0 {
			s.groups[g.Id] = g
		}
	}
	s.mu.Unlock()

	s.notify()
}
