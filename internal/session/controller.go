package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mbeoliero/kit/log"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/config"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/entity"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/history"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/presence"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/store"
	"github.com/PrincexMacbay/saas-platform-sub000/internal/transport"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/identity"
)

// HistoryLoader is the request/response API the controller uses for
// paginated history and unread retrieval.
type HistoryLoader interface {
	FetchMessagesPage(ctx context.Context, scope entity.Scope, id int64, page int) (*history.MessagePage, error)
	FetchConversations(ctx context.Context) ([]*entity.Conversation, error)
	FetchGroupConversations(ctx context.Context) ([]*entity.GroupConversation, error)
	FetchUnreadCounts(ctx context.Context) (*entity.UnreadCounts, error)
}

// DialFunc opens the transport for one connection attempt.
type DialFunc func(ctx context.Context) (transport.Transport, error)

// Controller is the top-level orchestrator: it owns the connection
// lifecycle, wires transport events into the store and the typing
// tracker, and exposes the public operations consumed by the UI. It is
// the only component that talks to the transport directly.
type Controller struct {
	cfg     *config.Config
	self    entity.Sender
	store   *store.Store
	tracker *presence.Tracker
	loader  HistoryLoader
	dial    DialFunc

	mu        sync.Mutex
	tr        transport.Transport
	connected bool

	pending map[string]*pendingSend
	sendSeq int64

	onMessage func(*entity.Message)
}

// Option configures the controller
type Option func(*Controller)

// WithTransport injects a ready transport instead of dialing. Connect
// still performs the event wiring on it.
func WithTransport(t transport.Transport) Option {
	return func(c *Controller) {
		c.dial = func(context.Context) (transport.Transport, error) { return t, nil }
	}
}

// WithLoader injects a history loader
func WithLoader(l HistoryLoader) Option {
	return func(c *Controller) {
		c.loader = l
	}
}

// WithOnMessage installs a callback invoked for every inbound message
// after it has been applied to the store
func WithOnMessage(fn func(*entity.Message)) Option {
	return func(c *Controller) {
		c.onMessage = fn
	}
}

// New creates a session controller for the authenticated user
func New(cfg *config.Config, ident *identity.Identity, opts ...Option) (*Controller, error) {
	if ident == nil || ident.UserId == 0 {
		return nil, errcode.ErrInvalidParam
	}

	c := &Controller{
		cfg: cfg,
		self: entity.Sender{
			Id:        ident.UserId,
			Username:  ident.Username,
			FirstName: ident.FirstName,
			LastName:  ident.LastName,
		},
		store:   store.New(ident.UserId),
		tracker: presence.NewTracker(cfg.Chat.TypingExpiry),
		pending: make(map[string]*pendingSend),
	}
	c.dial = func(ctx context.Context) (transport.Transport, error) {
		return transport.Dial(ctx, cfg, cfg.Server.Token)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		loader, err := history.NewLoader(cfg, cfg.Server.Token)
		if err != nil {
			return nil, err
		}
		c.loader = loader
	}

	return c, nil
}

// Connect opens the transport and registers the inbound event wiring.
// Idempotent: calling it while connected is a no-op, so subscriptions
// are never duplicated.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	tr, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.tr = tr
	c.subscribeAll(tr)
	c.connected = true

	log.CtxInfo(ctx, "chat session connected: user_id=%d", c.self.Id)
	return nil
}

// Close tears down the transport and fails any pending sends. The
// store's buffered messages survive for a later reconnect.
func (c *Controller) Close() error {
	c.mu.Lock()
	tr := c.tr
	c.tr = nil
	c.connected = false
	pending := c.pending
	c.pending = make(map[string]*pendingSend)
	c.mu.Unlock()

	for _, p := range pending {
		p.fail(errcode.ErrConnClosed)
	}

	if tr != nil {
		return tr.Close()
	}
	return nil
}

// State returns the current connection state
func (c *Controller) State() transport.ConnState {
	c.mu.Lock()
	tr, connected := c.tr, c.connected
	c.mu.Unlock()

	if !connected || tr == nil {
		return transport.StateDisconnected
	}
	return tr.State()
}

// Store exposes the reconciliation store for read access
func (c *Controller) Store() *store.Store {
	return c.store
}

// Typing returns who is typing in a conversation, if anyone
func (c *Controller) Typing(scope entity.Scope, id int64) (entity.TypingState, bool) {
	return c.tracker.Typing(scope, id)
}

// Self returns the local user's sender snapshot
func (c *Controller) Self() entity.Sender {
	return c.self
}

// subscribeAll registers every inbound handler once per connection.
// Caller holds c.mu.
func (c *Controller) subscribeAll(tr transport.Transport) {
	tr.Subscribe(transport.EventNewMessage, c.handleInboundMessage)
	tr.Subscribe(transport.EventNewGroupMessage, c.handleInboundMessage)
	tr.Subscribe(transport.EventMessageSent, c.handleInboundMessage)
	tr.Subscribe(transport.EventGroupMessageSent, c.handleInboundMessage)

	tr.Subscribe(transport.EventUserTyping, c.handleTyping(entity.ScopeDirect))
	tr.Subscribe(transport.EventUserTypingGroup, c.handleTyping(entity.ScopeGroup))

	tr.Subscribe(transport.EventMessagesRead, c.handleRead(entity.ScopeDirect))
	tr.Subscribe(transport.EventGroupMessagesRead, c.handleRead(entity.ScopeGroup))

	tr.Subscribe(transport.EventMessageError, c.handleMessageError(entity.ScopeDirect))
	tr.Subscribe(transport.EventGroupMessageError, c.handleMessageError(entity.ScopeGroup))
}

// handleInboundMessage applies a delivered or echoed message. The
// message's own fields decide its scope, so the four message events
// share one handler; the store's dedup makes echo-after-broadcast safe.
func (c *Controller) handleInboundMessage(ctx context.Context, data json.RawMessage) {
	var msg entity.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.CtxWarn(ctx, "invalid message payload dropped: %v", err)
		return
	}
	if msg.TargetId() == 0 {
		log.CtxWarn(ctx, "message without conversation id dropped: id=%s", msg.Id)
		return
	}

	promoted := c.store.ApplyInboundMessage(&msg)
	if promoted != "" {
		c.resolvePending(promoted)
	}

	if c.onMessage != nil {
		c.onMessage(&msg)
	}
}

func (c *Controller) handleTyping(scope entity.Scope) transport.Handler {
	return func(ctx context.Context, data json.RawMessage) {
		var ev typingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.CtxWarn(ctx, "invalid typing payload dropped: %v", err)
			return
		}
		if ev.targetId() == 0 || ev.UserId == c.self.Id {
			return
		}

		c.tracker.SetRemoteTyping(scope, ev.targetId(), entity.TypingState{
			UserId:    ev.UserId,
			Username:  ev.Username,
			FirstName: ev.FirstName,
			IsTyping:  ev.IsTyping,
		})
	}
}

func (c *Controller) handleRead(scope entity.Scope) transport.Handler {
	return func(ctx context.Context, data json.RawMessage) {
		var ev readEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.CtxWarn(ctx, "invalid read receipt payload dropped: %v", err)
			return
		}
		if ev.targetId() == 0 || ev.ReaderId == 0 {
			return
		}

		c.store.ApplyReadReceipt(scope, ev.targetId(), ev.ReaderId)
	}
}
