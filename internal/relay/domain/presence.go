package domain

import "time"

// Presence TTLs. Absence of a key means offline with no typing state, so
// disconnect never needs an explicit "clear everything".
const (
	// PresenceOnlineTTL refreshed on every activity
	PresenceOnlineTTL = 5 * time.Minute
	// PresenceOfflineTTL keeps last_seen around for a day
	PresenceOfflineTTL = 24 * time.Hour
	// TypingTTL lets a crashed client's typing indicator self-clear
	TypingTTL = 5 * time.Second
)

// UserPresence is the transient per-user record kept in the presence store.
type UserPresence struct {
	UserID       string    `json:"user_id"`
	Online       bool      `json:"online"`
	LastSeen     time.Time `json:"last_seen"`
	TypingInChat *string   `json:"typing_in_chat,omitempty"`
}
