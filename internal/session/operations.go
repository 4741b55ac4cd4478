package session

import (
	"context"

	"github.com/mbeoliero/kit/log"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/history"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/transport"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
)

// JoinConversation joins a conversation room and marks it active for
// unread suppression. Idempotent: joining the already-active
// conversation is a no-op. Joining a new one does not leave the
// previous room; that is an explicit caller responsibility.
func (c *Controller) JoinConversation(ctx context.Context, scope entity.Scope, id int64) error {
	if !scope.Valid() || id == 0 {
		return errcode.ErrInvalidParam
	}
	if c.store.Active(scope) == id {
		return nil
	}

	event := transport.EventJoinConversation
	if scope == entity.ScopeGroup {
		event = transport.EventJoinGroupConversation
	}
	if err := c.emit(ctx, event, id); err != nil {
		return err
	}

	c.store.SetActive(scope, id)
	return nil
}

// LeaveConversation leaves a conversation room. The conversation stops
// counting as active, but its buffered messages are retained; re-join
// resumes live updates without a refetch.
func (c *Controller) LeaveConversation(ctx context.Context, scope entity.Scope, id int64) error {
	if !scope.Valid() || id == 0 {
		return errcode.ErrInvalidParam
	}

	event := transport.EventLeaveConversation
	if scope == entity.ScopeGroup {
		event = transport.EventLeaveGroupConversation
	}
	if err := c.emit(ctx, event, id); err != nil {
		return err
	}

	c.store.ClearActive(scope, id)
	c.tracker.Clear(scope, id)
	return nil
}

// LoadMessages fetches one history page and replaces the store's list
// for that conversation with it. First-page load is the steady-state
// use; callers wanting incremental pagination merge above this layer.
// On fetch failure the existing list is left untouched.
func (c *Controller) LoadMessages(ctx context.Context, scope entity.Scope, id int64, page int) (*history.MessagePage, error) {
	if !scope.Valid() || id == 0 {
		return nil, errcode.ErrInvalidParam
	}

	result, err := c.loader.FetchMessagesPage(ctx, scope, id, page)
	if err != nil {
		return nil, err
	}

	c.store.ReplaceMessages(scope, id, result.Messages)
	return result, nil
}

// LoadConversations seeds the store with the server's conversation and
// group lists, the way the web client fills the sidebar before
// connecting.
func (c *Controller) LoadConversations(ctx context.Context) error {
	convs, err := c.loader.FetchConversations(ctx)
	if err != nil {
		return err
	}
	groups, err := c.loader.FetchGroupConversations(ctx)
	if err != nil {
		return err
	}

	c.store.SeedConversations(convs)
	c.store.SeedGroupConversations(groups)
	return nil
}

// SetTyping emits a typing signal for a conversation. Debounce and the
// clear-after-inactivity timer are the caller's responsibility; the
// controller owns no outbound typing timers.
func (c *Controller) SetTyping(ctx context.Context, scope entity.Scope, id int64, isTyping bool) error {
	if !scope.Valid() || id == 0 {
		return errcode.ErrInvalidParam
	}

	if scope == entity.ScopeGroup {
		return c.emit(ctx, transport.EventGroupTyping, groupTypingPayload{
			GroupConversationId: id,
			IsTyping:            isTyping,
		})
	}
	return c.emit(ctx, transport.EventTyping, typingPayload{
		ConversationId: id,
		IsTyping:       isTyping,
	})
}

// MarkRead commits a read receipt for a conversation and zeroes its
// local unread count. A failed emit is non-fatal: the local zeroing is
// kept, since server-side read state can be re-synced later.
func (c *Controller) MarkRead(ctx context.Context, scope entity.Scope, id int64) error {
	if !scope.Valid() || id == 0 {
		return errcode.ErrInvalidParam
	}

	event := transport.EventMarkMessagesRead
	if scope == entity.ScopeGroup {
		event = transport.EventMarkGroupMessagesRead
	}

	c.store.ZeroUnread(scope, id)

	if err := c.emit(ctx, event, id); err != nil {
		log.CtxWarn(ctx, "read receipt emit failed: scope=%s, id=%d, error=%v", scope, id, err)
		return errcode.ErrReadReceiptFailed.Wrap(err)
	}
	return nil
}

// RefreshUnreadCounts fetches the server's aggregate unread view. The
// store's own aggregate stays a pure summation of per-conversation
// counts; the server value is returned for callers that want to display
// or reconcile it.
func (c *Controller) RefreshUnreadCounts(ctx context.Context) (*entity.UnreadCounts, error) {
	return c.loader.FetchUnreadCounts(ctx)
}
