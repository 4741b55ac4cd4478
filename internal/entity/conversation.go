package entity

// Conversation represents a direct conversation with one peer.
// LastMessage / LastMessageAt are denormalized preview fields kept in
// sync by the store on every applied message.
type Conversation struct {
	Id            int64    `json:"id"`
	PeerUserId    int64    `json:"peerUserId,omitempty"`
	Peer          *Sender  `json:"peer,omitempty"`
	LastMessage   *Message `json:"lastMessage,omitempty"`
	LastMessageAt int64    `json:"lastMessageAt,omitempty"`
	UnreadCount   int64    `json:"unreadCount"`
}

// GroupConversation represents a group conversation. When
// OnlyCreatorCanSend is set, members other than the creator are not
// allowed to send.
type GroupConversation struct {
	Id                 int64    `json:"id"`
	Name               string   `json:"name,omitempty"`
	CreatorId          int64    `json:"creatorId,omitempty"`
	Members            []Sender `json:"members,omitempty"`
	OnlyCreatorCanSend bool     `json:"onlyCreatorCanSend,omitempty"`
	LastMessage        *Message `json:"lastMessage,omitempty"`
	LastMessageAt      int64    `json:"lastMessageAt,omitempty"`
	UnreadCount        int64    `json:"unreadCount"`
}

// UnreadCounts is the aggregate unread view across both scopes. It is
// always derived by summation over per-conversation counts, never
// stored as independently mutable state.
type UnreadCounts struct {
	Conversations int64 `json:"conversations"`
	Groups        int64 `json:"groups"`
	Total         int64 `json:"total"`
}
