package domain

import "time"

// MessageType values stored in messages.message_type
const (
	// MessageTypeText plain text message
	MessageTypeText = "text"
	// MessageTypeImage media message backed by an object store entry
	MessageTypeImage = "image"
	// MessageTypeVideo media message backed by an object store entry
	MessageTypeVideo = "video"
)

// NewMessage is the insert payload for a chat message. ExpiresAt is derived
// from the client's expires_in_seconds before insert.
type NewMessage struct {
	ChatRoomID  string
	SenderID    string
	MessageType string
	Content     *string
	MediaURL    *string
	ViewOnce    bool
	ExpiresAt   *time.Time
}

// MessageMeta is the subset of a message row the event handlers need after a
// receipt insert: who sent it, where it lives, and its deletion triggers.
type MessageMeta struct {
	ID         string
	ChatRoomID string
	SenderID   string
	ViewOnce   bool
	MediaURL   *string
}

// ExpiredMessage is one sweep candidate: the row id plus the media reference
// that must be purged alongside it.
type ExpiredMessage struct {
	ID       string
	MediaURL *string
}

// MessageHistory is one message in a room history read, annotated with the
// viewer's receipt state. Soft-deleted messages never appear here.
type MessageHistory struct {
	ID                string     `json:"id"`
	ChatRoomID        string     `json:"chat_room_id"`
	SenderID          string     `json:"sender_id"`
	SenderUsername    string     `json:"sender_username"`
	MessageType       string     `json:"message_type"`
	Content           *string    `json:"content,omitempty"`
	MediaURL          *string    `json:"media_url,omitempty"`
	MediaThumbnailURL *string    `json:"media_thumbnail_url,omitempty"`
	ViewOnce          bool       `json:"view_once"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	IsViewed          bool       `json:"is_viewed"`
	IsRead            bool       `json:"is_read"`
	IsSaved           bool       `json:"is_saved"`
}

// ChatRoom is a conversation: direct (two members, no stored name) or group.
type ChatRoom struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name,omitempty"`
	IsGroup   bool      `json:"is_group"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMember is one membership row joined with the member's username.
type ChatMember struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// ChatRoomDetail is a room plus the derived display name, members, and the
// last live message, as returned to clients.
type ChatRoomDetail struct {
	ID          string          `json:"id"`
	Name        *string         `json:"name,omitempty"`
	IsGroup     bool            `json:"is_group"`
	CreatedAt   time.Time       `json:"created_at"`
	Members     []ChatMember    `json:"members"`
	LastMessage *MessageHistory `json:"last_message,omitempty"`
}

// RoomUnread is the unread counter for one room.
type RoomUnread struct {
	RoomID      string `json:"room_id"`
	UnreadCount int64  `json:"unread_count"`
}
