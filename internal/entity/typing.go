package entity

// TypingState records who is currently typing in a conversation. At
// most one typer is tracked per conversation; the last update wins.
type TypingState struct {
	UserId    int64  `json:"userId"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	IsTyping  bool   `json:"isTyping"`
}
