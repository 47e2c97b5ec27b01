package model

import "time"

// Reaction is unique per (message, user, emoji); a user may stack distinct
// emojis on one message but never the same one twice.
type Reaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}
