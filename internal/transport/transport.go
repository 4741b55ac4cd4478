package transport

import (
	"context"
	"encoding/json"
)

// Wire event names. These are the platform's socket protocol contract
// and must match the server exactly.
const (
	// Inbound
	EventNewMessage        = "new_message"
	EventNewGroupMessage   = "new_group_message"
	EventUserTyping        = "user_typing"
	EventUserTypingGroup   = "user_typing_group"
	EventMessagesRead      = "messages_read"
	EventGroupMessagesRead = "group_messages_read"
	EventMessageSent       = "message_sent"
	EventGroupMessageSent  = "group_message_sent"
	EventMessageError      = "message_error"
	EventGroupMessageError = "group_message_error"

	// Outbound
	EventSendMessage            = "send_message"
	EventSendGroupMessage       = "send_group_message"
	EventJoinConversation       = "join_conversation"
	EventLeaveConversation      = "leave_conversation"
	EventJoinGroupConversation  = "join_group_conversation"
	EventLeaveGroupConversation = "leave_group_conversation"
	EventMarkMessagesRead       = "mark_messages_read"
	EventMarkGroupMessagesRead  = "mark_group_messages_read"
	EventTyping                 = "typing"
	EventGroupTyping            = "group_typing"
)

// ConnState is the transport connection state
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// String returns a readable state name
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Frame is the wire envelope carrying one event
type Frame struct {
	Event       string          `json:"event"`
	Data        json.RawMessage `json:"data,omitempty"`
	OperationId string          `json:"operationId,omitempty"`
}

// Handler consumes one inbound event's payload. Handlers for a single
// transport are invoked sequentially in arrival order; a handler must
// not block.
type Handler func(ctx context.Context, data json.RawMessage)

// Transport is the bidirectional event channel the session controller
// talks to. Implementations guarantee in-order sequential delivery of
// inbound events to subscribed handlers.
type Transport interface {
	// Subscribe registers a handler for an event name. Multiple
	// handlers per event are invoked in registration order.
	Subscribe(event string, h Handler)
	// Emit sends one outbound event.
	Emit(ctx context.Context, event string, payload any) error
	// State returns the current connection state.
	State() ConnState
	// Close tears the transport down. Safe to call more than once.
	Close() error
}
