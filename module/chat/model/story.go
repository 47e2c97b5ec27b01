package model

import "time"

// Story visibility scopes. A "friend" is any profile sharing a non-world
// conversation with the author.
const (
	StoryVisibilityWorld   = "world"
	StoryVisibilityFriends = "friends"
)

// Story is a time-bounded media post. Expiry is filtered on every read path,
// never physically deleted; rows are immutable after creation.
type Story struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MediaURL   string    `json:"media_url"`
	MediaKind  string    `json:"media_kind"`
	Caption    string    `json:"caption,omitempty"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s *Story) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StoryView records that a viewer opened a story; unique per (story, viewer),
// never written for the author's own stories.
type StoryView struct {
	StoryID  string    `json:"story_id"`
	ViewerID string    `json:"viewer_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

// StoryGroup is one author's visible stories, ordered oldest first, with the
// viewer's seen-state folded in for feed ordering.
type StoryGroup struct {
	AuthorID  string  `json:"author_id"`
	Stories   []Story `json:"stories"`
	AllViewed bool    `json:"all_viewed"`
}
