package model

import "time"

// Conversation is a container for messages. For any two distinct profiles at
// most one conversation exists with IsGroup=false between exactly that pair;
// the world conversation is exempt and globally shared.
type Conversation struct {
	ID             string    `json:"id"`
	IsGroup        bool      `json:"is_group"`
	Name           string    `json:"name,omitempty"`
	Theme          string    `json:"theme,omitempty"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Participant links a profile to a conversation, unique per pair. Rows are
// never updated; they go away only with the conversation.
type Participant struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
}
