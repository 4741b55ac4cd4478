package session

// Outbound wire payloads. Field names are the platform's socket
// contract (camelCase).

type sendMessagePayload struct {
	ConversationId int64  `json:"conversationId"`
	Content        string `json:"content,omitempty"`
	Attachment     string `json:"attachment,omitempty"`
	AttachmentType string `json:"attachmentType,omitempty"`
	ClientMsgId    string `json:"clientMsgId,omitempty"`
}

type sendGroupMessagePayload struct {
	GroupConversationId int64  `json:"groupConversationId"`
	Content             string `json:"content,omitempty"`
	Attachment          string `json:"attachment,omitempty"`
	AttachmentType      string `json:"attachmentType,omitempty"`
	ClientMsgId         string `json:"clientMsgId,omitempty"`
}

type typingPayload struct {
	ConversationId int64 `json:"conversationId"`
	IsTyping       bool  `json:"isTyping"`
}

type groupTypingPayload struct {
	GroupConversationId int64 `json:"groupConversationId"`
	IsTyping            bool  `json:"isTyping"`
}

// Inbound wire payloads.

type typingEvent struct {
	ConversationId      int64  `json:"conversationId,omitempty"`
	GroupConversationId int64  `json:"groupConversationId,omitempty"`
	UserId              int64  `json:"userId"`
	Username            string `json:"username,omitempty"`
	FirstName           string `json:"firstName,omitempty"`
	IsTyping            bool   `json:"isTyping"`
}

func (e *typingEvent) targetId() int64 {
	if e.GroupConversationId != 0 {
		return e.GroupConversationId
	}
	return e.ConversationId
}

type readEvent struct {
	ConversationId      int64 `json:"conversationId,omitempty"`
	GroupConversationId int64 `json:"groupConversationId,omitempty"`
	ReaderId            int64 `json:"readerId"`
}

func (e *readEvent) targetId() int64 {
	if e.GroupConversationId != 0 {
		return e.GroupConversationId
	}
	return e.ConversationId
}

type messageErrorEvent struct {
	ClientMsgId string `json:"clientMsgId,omitempty"`
	Error       string `json:"error,omitempty"`
}
