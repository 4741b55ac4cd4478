package transport

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"

	"github.com/PrincexMacbay/saas-platform-sub000/internal/config"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
	"github.com/PrincexMacbay/saas-platform-sub000/pkg/idgen"
)

// WsTransport implements Transport over a gorilla/websocket connection.
// All writes go through a buffered channel drained by a single writer
// goroutine; all inbound frames are dispatched from a single reader
// goroutine, which gives subscribers the in-order sequential delivery
// guarantee.
type WsTransport struct {
	cfg    *config.Config
	conn   *websocket.Conn
	connId string

	mu       sync.RWMutex
	handlers map[string][]Handler

	writeMu   sync.Mutex
	writeChan chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
	closed    bool

	state atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the platform's chat socket endpoint, authenticating
// with the given token as a query parameter.
func Dial(ctx context.Context, cfg *config.Config, token string) (*WsTransport, error) {
	if token == "" {
		return nil, errcode.ErrTokenMissing
	}

	u, err := url.Parse(cfg.Server.WsURL)
	if err != nil {
		return nil, errcode.ErrDialFailed.Wrap(err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	t := &WsTransport{
		cfg:       cfg,
		connId:    uuid.NewString(),
		handlers:  make(map[string][]Handler),
		writeChan: make(chan []byte, cfg.WebSocket.WriteChannelSize),
		closeChan: make(chan struct{}),
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.state.Store(int32(StateConnecting))

	dialer := websocket.Dialer{HandshakeTimeout: cfg.WebSocket.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		t.state.Store(int32(StateDisconnected))
		return nil, errcode.ErrDialFailed.Wrap(err)
	}

	t.conn = conn
	conn.SetReadLimit(cfg.WebSocket.MaxMessageSize)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(cfg.WebSocket.PongWait))
		return nil
	})

	t.state.Store(int32(StateConnected))
	log.CtxInfo(t.ctx, "transport connected: conn_id=%s, url=%s", t.connId, cfg.Server.WsURL)

	go t.writeLoop()
	go t.readLoop()

	return t, nil
}

// Subscribe registers a handler for an event name
func (t *WsTransport) Subscribe(event string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[event] = append(t.handlers[event], h)
}

// Emit queues one outbound event frame
func (t *WsTransport) Emit(ctx context.Context, event string, payload any) error {
	if t.State() != StateConnected {
		return errcode.ErrTransportUnavailable
	}

	frame := Frame{
		Event:       event,
		OperationId: idgen.OperationId(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errcode.ErrInvalidFrame.Wrap(err)
		}
		frame.Data = data
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		return errcode.ErrInvalidFrame.Wrap(err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.closed {
		return errcode.ErrConnClosed
	}

	select {
	case t.writeChan <- raw:
		log.CtxDebug(ctx, "emit: event=%s, operation_id=%s", event, frame.OperationId)
		return nil
	default:
		// Channel full, connection is a slow consumer
		return errcode.ErrWriteChannelFull
	}
}

// State returns the current connection state
func (t *WsTransport) State() ConnState {
	return ConnState(t.state.Load())
}

// ConnId returns the unique id of this connection, for log correlation
func (t *WsTransport) ConnId() string {
	return t.connId
}

// Close closes the connection
func (t *WsTransport) Close() error {
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		t.closed = true
		close(t.writeChan)
		t.writeMu.Unlock()

		close(t.closeChan)
		t.state.Store(int32(StateDisconnected))
		t.cancel()
		log.Info("transport closed: conn_id=%s", t.connId)
	})
	return nil
}

// writeLoop handles all writes to the connection (single writer pattern)
func (t *WsTransport) writeLoop() {
	ticker := time.NewTicker(t.cfg.WebSocket.PingPeriod)
	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()

	for {
		select {
		case message, ok := <-t.writeChan:
			t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WebSocket.WriteWait))
			if !ok {
				// Channel closed, send close message
				t.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := t.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("write message error: conn_id=%s, error=%v", t.connId, err)
				return
			}

		case <-ticker.C:
			t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WebSocket.WriteWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("ping error: conn_id=%s, error=%v", t.connId, err)
				return
			}

		case <-t.closeChan:
			return
		}
	}
}

// readLoop reads frames and dispatches them to subscribed handlers in
// arrival order
func (t *WsTransport) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.CtxError(t.ctx, "transport read loop panic: conn_id=%s, error=%v", t.connId, r)
		}
		t.Close()
	}()

	for {
		t.conn.SetReadDeadline(time.Now().Add(t.cfg.WebSocket.PongWait))
		_, message, err := t.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(t.ctx, "read message error: conn_id=%s, error=%v", t.connId, err)
			return
		}

		t.dispatch(message)
	}
}

func (t *WsTransport) dispatch(message []byte) {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		log.CtxWarn(t.ctx, "invalid frame dropped: conn_id=%s, error=%v", t.connId, err)
		return
	}

	t.mu.RLock()
	handlers := t.handlers[frame.Event]
	t.mu.RUnlock()

	if len(handlers) == 0 {
		log.CtxDebug(t.ctx, "unhandled event dropped: event=%s", frame.Event)
		return
	}

	ctx := t.ctx
	if frame.OperationId != "" {
		ctx = context.WithValue(ctx, operationIdKey{}, frame.OperationId)
	}
	for _, h := range handlers {
		h(ctx, frame.Data)
	}
}

type operationIdKey struct{}

// OperationIdFromCtx returns the operation id attached to an inbound
// event's context, if any.
func OperationIdFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(operationIdKey{}).(string)
	return v
}

var _ Transport = (*WsTransport)(nil)
