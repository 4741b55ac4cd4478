package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Is reports whether target carries the same code, so errors.Is works
// against the predefined vars even after Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Common error codes
var (
	// Common errors (1xxx)
	ErrInvalidParam = New(1001, "invalid parameter")
	ErrNotFound     = New(1002, "not found")

	// Auth errors (2xxx)
	ErrTokenInvalid = New(2001, "token invalid")
	ErrTokenMissing = New(2002, "token missing")

	// Transport errors (3xxx)
	ErrTransportUnavailable = New(3001, "transport unavailable")
	ErrConnClosed           = New(3002, "connection closed")
	ErrWriteChannelFull     = New(3003, "write channel full")
	ErrInvalidFrame         = New(3004, "invalid frame")
	ErrDialFailed           = New(3005, "dial failed")

	// Messaging errors (4xxx)
	ErrSendRejected       = New(4001, "message rejected by server")
	ErrSendForbidden      = New(4002, "sending not allowed in this conversation")
	ErrHistoryFetchFailed = New(4003, "history fetch failed")
	ErrReadReceiptFailed  = New(4004, "read receipt failed")
	ErrConvNotFound       = New(4005, "conversation not found")
)
