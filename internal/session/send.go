package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/mbeoliero/kit/log"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/transport"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
)

// SendHandle correlates an in-flight optimistic send with its eventual
// outcome. Err yields at most one error; the channel is closed without
// a value on confirmation, and also when the advisory error window
// elapses (fire-and-forget: no timeout-triggered rollback).
type SendHandle struct {
	ProvisionalId string

	once  sync.Once
	errCh chan error
}

func newSendHandle(provisionalId string) *SendHandle {
	return &SendHandle{
		ProvisionalId: provisionalId,
		errCh:         make(chan error, 1),
	}
}

// Err returns the outcome channel for this send
func (h *SendHandle) Err() <-chan error {
	return h.errCh
}

func (h *SendHandle) succeed() {
	h.once.Do(func() {
		close(h.errCh)
	})
}

func (h *SendHandle) fail(err error) {
	h.once.Do(func() {
		h.errCh <- err
		close(h.errCh)
	})
}

// pendingSend is the one-shot error correlation slot for an optimistic
// send awaiting either a confirmation broadcast or a message_error.
type pendingSend struct {
	scope  entity.Scope
	target int64
	seq    int64
	handle *SendHandle
	timer  *time.Timer
}

func (p *pendingSend) fail(err error) {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.handle.fail(err)
}

// SendMessage applies an optimistic write and emits the outbound send
// event. Fails fast with ErrTransportUnavailable when disconnected (no
// optimistic write is performed). A server-side rejection arriving
// within the error window rolls back exactly the provisional entry and
// is surfaced on the returned handle.
func (c *Controller) SendMessage(ctx context.Context, scope entity.Scope, id int64, content, attachment, attachmentType string) (*SendHandle, error) {
	if !scope.Valid() || id == 0 {
		return nil, errcode.ErrInvalidParam
	}
	if content == "" && attachment == "" {
		return nil, errcode.ErrInvalidParam
	}
	if c.State() != transport.StateConnected {
		return nil, errcode.ErrTransportUnavailable
	}

	if scope == entity.ScopeGroup {
		if g, ok := c.store.GroupConversation(id); ok && g.OnlyCreatorCanSend && g.CreatorId != c.self.Id {
			return nil, errcode.ErrSendForbidden
		}
	}

	self := c.self
	provisionalId := c.store.ApplyOptimisticSend(scope, id, content, attachment, attachmentType, &self)
	handle := c.registerPending(scope, id, provisionalId)

	event := transport.EventSendMessage
	var payload any = sendMessagePayload{
		ConversationId: id,
		Content:        content,
		Attachment:     attachment,
		AttachmentType: attachmentType,
		ClientMsgId:    provisionalId,
	}
	if scope == entity.ScopeGroup {
		event = transport.EventSendGroupMessage
		payload = sendGroupMessagePayload{
			GroupConversationId: id,
			Content:             content,
			Attachment:          attachment,
			AttachmentType:      attachmentType,
			ClientMsgId:         provisionalId,
		}
	}

	if err := c.emit(ctx, event, payload); err != nil {
		// Local emit failure: the optimistic entry must not linger.
		c.store.RollbackOptimisticSend(scope, id, provisionalId)
		c.dropPending(provisionalId)
		handle.fail(err)
		return nil, err
	}

	return handle, nil
}

// registerPending opens the one-shot correlation slot with its advisory
// cleanup timer.
func (c *Controller) registerPending(scope entity.Scope, id int64, provisionalId string) *SendHandle {
	handle := newSendHandle(provisionalId)

	c.mu.Lock()
	c.sendSeq++
	p := &pendingSend{
		scope:  scope,
		target: id,
		seq:    c.sendSeq,
		handle: handle,
	}
	p.timer = time.AfterFunc(c.cfg.Chat.SendErrorWindow, func() {
		c.expirePending(provisionalId)
	})
	c.pending[provisionalId] = p
	c.mu.Unlock()

	return handle
}

// expirePending frees a correlation slot whose window elapsed. The send
// is considered fire-and-forget from here on; the optimistic entry
// stays in place awaiting the server's eventual broadcast.
func (c *Controller) expirePending(provisionalId string) {
	c.mu.Lock()
	p, ok := c.pending[provisionalId]
	if ok {
		delete(c.pending, provisionalId)
	}
	c.mu.Unlock()

	if ok {
		p.handle.succeed()
	}
}

// resolvePending completes a slot whose provisional entry was promoted
// by a confirmation broadcast.
func (c *Controller) resolvePending(provisionalId string) {
	c.mu.Lock()
	p, ok := c.pending[provisionalId]
	if ok {
		delete(c.pending, provisionalId)
	}
	c.mu.Unlock()

	if ok {
		if p.timer != nil {
			p.timer.Stop()
		}
		p.handle.succeed()
	}
}

// dropPending removes a slot without signaling the handle
func (c *Controller) dropPending(provisionalId string) {
	c.mu.Lock()
	p, ok := c.pending[provisionalId]
	if ok {
		delete(c.pending, provisionalId)
	}
	c.mu.Unlock()

	if ok && p.timer != nil {
		p.timer.Stop()
	}
}

// handleMessageError surfaces a server-side rejection to the
// originating send and rolls back its optimistic entry. Correlation is
// by echoed client msg id when present, else the oldest open slot in
// the event's scope.
func (c *Controller) handleMessageError(scope entity.Scope) transport.Handler {
	return func(ctx context.Context, data json.RawMessage) {
		var ev messageErrorEvent
		if len(data) > 0 {
			if err := json.Unmarshal(data, &ev); err != nil {
				log.CtxWarn(ctx, "invalid message error payload: %v", err)
			}
		}

		p := c.takePending(scope, ev.ClientMsgId)
		if p == nil {
			log.CtxWarn(ctx, "message error without matching send: client_msg_id=%s, error=%s", ev.ClientMsgId, ev.Error)
			return
		}

		c.store.RollbackOptimisticSend(p.scope, p.target, p.handle.ProvisionalId)

		rejected := errcode.ErrSendRejected
		if ev.Error != "" {
			rejected = rejected.Wrap(errors.New(ev.Error))
		}
		p.fail(rejected)

		log.CtxInfo(ctx, "optimistic send rolled back: provisional_id=%s, error=%s", p.handle.ProvisionalId, ev.Error)
	}
}

// takePending pops the slot for clientMsgId, or the oldest slot in the
// scope when the server did not echo an id.
func (c *Controller) takePending(scope entity.Scope, clientMsgId string) *pendingSend {
	c.mu.Lock()
	defer c.mu.Unlock()

	if clientMsgId != "" {
		if p, ok := c.pending[clientMsgId]; ok {
			delete(c.pending, clientMsgId)
			return p
		}
		return nil
	}

	var oldest *pendingSend
	var oldestId string
	for id, p := range c.pending {
		if p.scope != scope {
			continue
		}
		if oldest == nil || p.seq < oldest.seq {
			oldest = p
			oldestId = id
		}
	}
	if oldest != nil {
		delete(c.pending, oldestId)
	}
	return oldest
}

// emit sends one outbound event on the current transport
func (c *Controller) emit(ctx context.Context, event string, payload any) error {
	c.mu.Lock()
	tr, connected := c.tr, c.connected
	c.mu.Unlock()

	if !connected || tr == nil {
		return errcode.ErrTransportUnavailable
	}
	return tr.Emit(ctx, event, payload)
}
