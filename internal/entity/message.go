package entity

import (
	"strings"

	"github.com/PrincexMacbay/saas-platform-sub000/pkg/idgen"
)

// Attachment types
const (
	AttachmentImage = "image"
	AttachmentVideo = "video"
	AttachmentAudio = "audio"
	AttachmentFile  = "file"
)

// Sender is the denormalized snapshot of the author's display identity
// at send time. It is never re-fetched after the message is stored.
type Sender struct {
	Id        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Message represents a chat message in either a direct or a group
// conversation. Exactly one of ConversationId / GroupConversationId is
// set. Id is either a server-assigned stable id or a provisional
// temp_-prefixed id awaiting confirmation.
type Message struct {
	Id                  string  `json:"id"`
	ClientMsgId         string  `json:"clientMsgId,omitempty"`
	ConversationId      int64   `json:"conversationId,omitempty"`
	GroupConversationId int64   `json:"groupConversationId,omitempty"`
	SenderId            int64   `json:"senderId"`
	Content             string  `json:"content,omitempty"`
	Attachment          string  `json:"attachment,omitempty"`
	AttachmentType      string  `json:"attachmentType,omitempty"`
	CreatedAt           int64   `json:"createdAt"`
	Read                bool    `json:"read"`
	ReadAt              int64   `json:"readAt,omitempty"`
	Sender              *Sender `json:"sender,omitempty"`
}

// Scope returns the scope the message belongs to.
func (m *Message) Scope() Scope {
	if m.GroupConversationId != 0 {
		return ScopeGroup
	}
	return ScopeDirect
}

// TargetId returns the id of the owning conversation in the message's scope.
func (m *Message) TargetId() int64 {
	if m.GroupConversationId != 0 {
		return m.GroupConversationId
	}
	return m.ConversationId
}

// IsProvisional reports whether the message still carries a
// client-generated id, i.e. the server has not confirmed it yet.
func (m *Message) IsProvisional() bool {
	return idgen.IsProvisional(m.Id)
}

// MatchesContent reports whether other carries the same
// (senderId, content, attachment) tuple. Used to pair a provisional
// entry with its server-confirmed counterpart when no client msg id was
// echoed back.
func (m *Message) MatchesContent(other *Message) bool {
	return m.SenderId == other.SenderId &&
		strings.TrimSpace(m.Content) == strings.TrimSpace(other.Content) &&
		m.Attachment == other.Attachment
}
