package model

import "time"

// Profile is the identity-scoped user record. The id is assigned at account
// creation and never changes; everything else is owner-mutable.
type Profile struct {
	ID               string     `json:"id"`
	DisplayName      string     `json:"display_name"` // cooldown on change
	Handle           string     `json:"handle"`       // unique
	AvatarURL        string     `json:"avatar_url,omitempty"`
	LastSeenAt       time.Time  `json:"last_seen_at"`
	LastNameChangeAt *time.Time `json:"last_name_change_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`

	// Computed at read time from the presence heartbeat; never stored.
	IsOnline bool `json:"is_online"`
}
