package domain

import "encoding/json"

// TimeLayout is the wire format for timestamps in outbound frames.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// EventType tags a websocket frame, snake_case on the wire.
type EventType string

const (
	// Client -> Server

	// EventSendMessage websocket frame send_message
	EventSendMessage EventType = "send_message"
	// EventTypingStart websocket frame typing_start
	EventTypingStart EventType = "typing_start"
	// EventTypingStop websocket frame typing_stop
	EventTypingStop EventType = "typing_stop"
	// EventMarkRead websocket frame mark_read
	EventMarkRead EventType = "mark_read"
	// EventMarkViewed websocket frame mark_viewed
	EventMarkViewed EventType = "mark_viewed"

	// Server -> Client

	// EventNewMessage websocket frame new_message
	EventNewMessage EventType = "new_message"
	// EventUserTyping websocket frame user_typing
	EventUserTyping EventType = "user_typing"
	// EventUserStoppedTyping websocket frame user_stopped_typing
	EventUserStoppedTyping EventType = "user_stopped_typing"
	// EventMessageRead websocket frame message_read
	EventMessageRead EventType = "message_read"
	// EventMessageViewed websocket frame message_viewed
	EventMessageViewed EventType = "message_viewed"
	// EventMessageExpired websocket frame message_expired
	EventMessageExpired EventType = "message_expired"
	// EventError websocket frame error
	EventError EventType = "error"
)

// ClientEvent is the inbound frame. Which fields are meaningful depends on
// Type; unknown or missing fields are rejected by the handler, not here.
type ClientEvent struct {
	Type EventType `json:"type"`

	// send_message / typing_start / typing_stop
	ChatRoomID       string  `json:"chat_room_id,omitempty"`
	Content          *string `json:"content,omitempty"`
	MessageType      string  `json:"message_type,omitempty"`
	MediaURL         *string `json:"media_url,omitempty"`
	ViewOnce         bool    `json:"view_once,omitempty"`
	ExpiresInSeconds *int64  `json:"expires_in_seconds,omitempty"`

	// mark_read / mark_viewed
	MessageID string `json:"message_id,omitempty"`
}

// NewMessageEvent outbound new_message frame
type NewMessageEvent struct {
	Type              EventType `json:"type"`
	ID                string    `json:"id"`
	ChatRoomID        string    `json:"chat_room_id"`
	SenderID          string    `json:"sender_id"`
	SenderUsername    string    `json:"sender_username"`
	MessageType       string    `json:"message_type"`
	Content           *string   `json:"content,omitempty"`
	MediaURL          *string   `json:"media_url,omitempty"`
	MediaThumbnailURL *string   `json:"media_thumbnail_url,omitempty"`
	ViewOnce          bool      `json:"view_once"`
	CreatedAt         string    `json:"created_at"`
}

// UserTypingEvent outbound user_typing frame
type UserTypingEvent struct {
	Type       EventType `json:"type"`
	ChatRoomID string    `json:"chat_room_id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
}

// UserStoppedTypingEvent outbound user_stopped_typing frame
type UserStoppedTypingEvent struct {
	Type       EventType `json:"type"`
	ChatRoomID string    `json:"chat_room_id"`
	UserID     string    `json:"user_id"`
}

// MessageReadEvent outbound message_read frame, delivered to the sender only
type MessageReadEvent struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	ReadAt    string    `json:"read_at"`
}

// MessageViewedEvent outbound message_viewed frame, delivered to the sender only
type MessageViewedEvent struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	ViewedAt  string    `json:"viewed_at"`
}

// MessageExpiredEvent outbound message_expired frame
type MessageExpiredEvent struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"message_id"`
}

// ErrorEvent outbound error frame, non-fatal to the connection
type ErrorEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

// Encode marshals an outbound frame. Marshaling these structs cannot fail, so
// the error is swallowed and a nil payload means "skip".
func Encode(event interface{}) []byte {
	b, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return b
}
