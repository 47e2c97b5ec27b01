package store

import (
	"context"
	"time"

	"LumeChat/module/chat/model"
)

// Store is the durable-store query surface the chat core runs against.
// Backed by Postgres in production (store/pg) and by an in-memory fake in
// tests (store/memstore). Every method takes a context and returns coded
// errors from tools/errs; callers never see driver errors.
type Store interface {
	// WithPairLock runs fn while holding a mutual-exclusion lock keyed by the
	// unordered pair (userA, userB). Both orders of the arguments contend on
	// the same lock. fn runs inside the same transaction/critical section as
	// the lock, so a find-or-create sequence inside fn is race-free.
	WithPairLock(ctx context.Context, userA, userB string, fn func(ctx context.Context, tx Store) error) error

	// Profiles
	CreateProfile(ctx context.Context, p *model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	// UpdateDisplayName enforces the cooldown at the authority: it re-reads
	// last_name_change_at inside the statement and fails with ErrCooldownActive
	// when now-last < cooldown.
	UpdateDisplayName(ctx context.Context, userID, name string, now time.Time, cooldown time.Duration) error
	UpdateHandle(ctx context.Context, userID, handle string) error
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
	TouchLastSeen(ctx context.Context, userID string, t time.Time) error

	// Conversations
	// FindPrivateConversation returns the id of the non-group, non-world
	// conversation whose participants are exactly {userA,userB}, or "" when
	// none exists.
	FindPrivateConversation(ctx context.Context, userA, userB string) (string, error)
	CreateConversation(ctx context.Context, c *model.Conversation) error
	AddParticipant(ctx context.Context, conversationID, userID string) error
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	TouchConversation(ctx context.Context, id string, t time.Time) error
	SetConversationTheme(ctx context.Context, id, theme string) error
	// FriendIDs lists profiles sharing at least one non-world conversation
	// with userID.
	FriendIDs(ctx context.Context, userID string) ([]string, error)

	// Messages
	InsertMessage(ctx context.Context, m *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	MarkMessageRead(ctx context.Context, id string) error
	SoftDeleteMessage(ctx context.Context, id string, t time.Time) error

	// Reactions
	// InsertReaction fails with ErrConflict when the (message,user,emoji)
	// triple already exists.
	InsertReaction(ctx context.Context, r *model.Reaction) error
	// DeleteReaction removes the triple and returns the deleted reaction's id,
	// or "" when nothing matched.
	DeleteReaction(ctx context.Context, messageID, userID, emoji string) (string, error)
	ListReactions(ctx context.Context, messageID string) ([]model.Reaction, error)

	// Stories
	InsertStory(ctx context.Context, s *model.Story) error
	GetStory(ctx context.Context, id string) (*model.Story, error)
	// ListWorldStories returns non-expired world-visible stories.
	ListWorldStories(ctx context.Context, now time.Time) ([]model.Story, error)
	// ListFriendStories returns non-expired friends-visible stories authored
	// by viewerID or by any profile sharing a non-world conversation with it.
	ListFriendStories(ctx context.Context, viewerID string, now time.Time) ([]model.Story, error)
	// InsertStoryView is first-view-wins; a duplicate fails with ErrConflict.
	InsertStoryView(ctx context.Context, storyID, viewerID string, t time.Time) error
	ViewedStoryIDs(ctx context.Context, viewerID string) (map[string]bool, error)
}
