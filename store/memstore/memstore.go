// Package memstore is an in-memory Store used by tests. It emulates the same
// unique constraints and lock discipline as the Postgres implementation.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"LumeChat/global/config"
	"LumeChat/module/chat/model"
	"LumeChat/store"
	"LumeChat/tools/errs"
)

type Mem struct {
	mu sync.RWMutex

	profiles      map[string]*model.Profile
	handles       map[string]string // handle -> user id
	conversations map[string]*model.Conversation
	participants  map[string]map[string]time.Time // conv -> user -> joined
	messages      map[string]*model.Message
	msgOrder      []string // insertion order of message ids
	reactions     map[string]*model.Reaction
	reactionKeys  map[string]string // msg|user|emoji -> reaction id
	stories       map[string]*model.Story
	storyViews    map[string]time.Time // story|viewer -> viewed at

	seq       int64
	pairLocks map[string]*sync.Mutex
}

var _ store.Store = (*Mem)(nil)

func New() *Mem {
	return &Mem{
		profiles:      make(map[string]*model.Profile),
		handles:       make(map[string]string),
		conversations: make(map[string]*model.Conversation),
		participants:  make(map[string]map[string]time.Time),
		messages:      make(map[string]*model.Message),
		reactions:     make(map[string]*model.Reaction),
		reactionKeys:  make(map[string]string),
		stories:       make(map[string]*model.Story),
		storyViews:    make(map[string]time.Time),
		pairLocks:     make(map[string]*sync.Mutex),
	}
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// WithPairLock serializes fn per unordered pair with a mutex map, matching
// the advisory-lock discipline of the pg implementation.
func (m *Mem) WithPairLock(ctx context.Context, userA, userB string, fn func(ctx context.Context, tx store.Store) error) error {
	key := pairKey(userA, userB)
	m.mu.Lock()
	lk, ok := m.pairLocks[key]
	if !ok {
		lk = &sync.Mutex{}
		m.pairLocks[key] = lk
	}
	m.mu.Unlock()

	lk.Lock()
	defer lk.Unlock()
	return fn(ctx, m)
}

// Profiles

func (m *Mem) CreateProfile(ctx context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return errs.ErrConflict.WithDetail("profile exists")
	}
	if _, ok := m.handles[p.Handle]; ok {
		return errs.ErrConflict.WithDetail("handle taken")
	}
	cp := *p
	m.profiles[p.ID] = &cp
	m.handles[p.Handle] = p.ID
	return nil
}

func (m *Mem) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("profile " + id)
	}
	cp := *p
	return &cp, nil
}

func (m *Mem) UpdateDisplayName(ctx context.Context, userID, name string, now time.Time, cooldown time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return errs.ErrNotFound.WithDetail("profile " + userID)
	}
	if p.LastNameChangeAt != nil && now.Sub(*p.LastNameChangeAt) < cooldown {
		return errs.ErrCooldownActive
	}
	p.DisplayName = name
	t := now
	p.LastNameChangeAt = &t
	return nil
}

func (m *Mem) UpdateHandle(ctx context.Context, userID, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return errs.ErrNotFound.WithDetail("profile " + userID)
	}
	if owner, taken := m.handles[handle]; taken && owner != userID {
		return errs.ErrConflict.WithDetail("handle taken")
	}
	delete(m.handles, p.Handle)
	p.Handle = handle
	m.handles[handle] = userID
	return nil
}

func (m *Mem) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return errs.ErrNotFound.WithDetail("profile " + userID)
	}
	p.AvatarURL = avatarURL
	return nil
}

func (m *Mem) TouchLastSeen(ctx context.Context, userID string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		p.LastSeenAt = t
	}
	return nil
}

// Conversations

func (m *Mem) FindPrivateConversation(ctx context.Context, userA, userB string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, c := range m.conversations {
		if c.IsGroup || id == config.WorldConversationID {
			continue
		}
		members := m.participants[id]
		if _, a := members[userA]; !a {
			continue
		}
		if _, b := members[userB]; b {
			return id, nil
		}
	}
	return "", nil
}

func (m *Mem) CreateConversation(ctx context.Context, c *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[c.ID]; ok {
		return nil // idempotent by id, like ON CONFLICT DO NOTHING
	}
	cp := *c
	m.conversations[c.ID] = &cp
	m.participants[c.ID] = make(map[string]time.Time)
	return nil
}

func (m *Mem) AddParticipant(ctx context.Context, conversationID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.participants[conversationID]
	if !ok {
		return errs.ErrNotFound.WithDetail("conversation " + conversationID)
	}
	if _, exists := members[userID]; !exists {
		members[userID] = time.Now()
	}
	return nil
}

func (m *Mem) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("conversation " + id)
	}
	cp := *c
	return &cp, nil
}

func (m *Mem) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Conversation
	for id, members := range m.participants {
		if _, ok := members[userID]; ok {
			out = append(out, *m.conversations[id])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out, nil
}

func (m *Mem) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members, ok := m.participants[conversationID]
	if !ok {
		return false, nil
	}
	_, in := members[userID]
	return in, nil
}

func (m *Mem) TouchConversation(ctx context.Context, id string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conversations[id]; ok {
		c.LastActivityAt = t
	}
	return nil
}

func (m *Mem) SetConversationTheme(ctx context.Context, id, theme string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return errs.ErrNotFound.WithDetail("conversation " + id)
	}
	c.Theme = theme
	return nil
}

func (m *Mem) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	for convID, members := range m.participants {
		if convID == config.WorldConversationID {
			continue
		}
		if _, in := members[userID]; !in {
			continue
		}
		for other := range members {
			if other != userID {
				seen[other] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Messages

func (m *Mem) InsertMessage(ctx context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[msg.ID]; ok {
		return errs.ErrConflict.WithDetail("message exists")
	}
	if _, ok := m.conversations[msg.ConversationID]; !ok {
		return errs.ErrNotFound.WithDetail("conversation " + msg.ConversationID)
	}
	m.seq++
	msg.Seq = m.seq
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	cp := *msg
	m.messages[msg.ID] = &cp
	m.msgOrder = append(m.msgOrder, msg.ID)
	return nil
}

func (m *Mem) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("message " + id)
	}
	cp := *msg
	return &cp, nil
}

func (m *Mem) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Message
	for _, id := range m.msgOrder {
		msg := m.messages[id]
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mem) MarkMessageRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return errs.ErrNotFound.WithDetail("message " + id)
	}
	msg.IsRead = true
	return nil
}

func (m *Mem) SoftDeleteMessage(ctx context.Context, id string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil // matches pg: zero rows updated is a no-op
	}
	if msg.DeletedAt == nil {
		ts := t
		msg.DeletedAt = &ts
	}
	return nil
}

// Reactions

func reactionKey(msgID, userID, emoji string) string {
	return msgID + "|" + userID + "|" + emoji
}

func (m *Mem) InsertReaction(ctx context.Context, r *model.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := reactionKey(r.MessageID, r.UserID, r.Emoji)
	if _, ok := m.reactionKeys[key]; ok {
		return errs.ErrConflict.WithDetail("reaction already present")
	}
	if _, ok := m.messages[r.MessageID]; !ok {
		return errs.ErrNotFound.WithDetail("message " + r.MessageID)
	}
	cp := *r
	m.reactions[r.ID] = &cp
	m.reactionKeys[key] = r.ID
	return nil
}

func (m *Mem) DeleteReaction(ctx context.Context, messageID, userID, emoji string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := reactionKey(messageID, userID, emoji)
	id, ok := m.reactionKeys[key]
	if !ok {
		return "", nil
	}
	delete(m.reactionKeys, key)
	delete(m.reactions, id)
	return id, nil
}

func (m *Mem) ListReactions(ctx context.Context, messageID string) ([]model.Reaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Reaction
	for _, r := range m.reactions {
		if r.MessageID == messageID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Stories

func (m *Mem) InsertStory(ctx context.Context, s *model.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[s.ID]; ok {
		return errs.ErrConflict.WithDetail("story exists")
	}
	cp := *s
	m.stories[s.ID] = &cp
	return nil
}

func (m *Mem) GetStory(ctx context.Context, id string) (*model.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stories[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("story " + id)
	}
	cp := *s
	return &cp, nil
}

func (m *Mem) ListWorldStories(ctx context.Context, now time.Time) ([]model.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Story
	for _, s := range m.stories {
		if s.Visibility == model.StoryVisibilityWorld && now.Before(s.ExpiresAt) {
			out = append(out, *s)
		}
	}
	sortStories(out)
	return out, nil
}

func (m *Mem) ListFriendStories(ctx context.Context, viewerID string, now time.Time) ([]model.Story, error) {
	friends, _ := m.FriendIDs(ctx, viewerID)
	allowed := make(map[string]bool, len(friends)+1)
	allowed[viewerID] = true
	for _, f := range friends {
		allowed[f] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Story
	for _, s := range m.stories {
		if s.Visibility == model.StoryVisibilityFriends && now.Before(s.ExpiresAt) && allowed[s.UserID] {
			out = append(out, *s)
		}
	}
	sortStories(out)
	return out, nil
}

func sortStories(ss []model.Story) {
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].CreatedAt.Equal(ss[j].CreatedAt) {
			return ss[i].ID < ss[j].ID
		}
		return ss[i].CreatedAt.Before(ss[j].CreatedAt)
	})
}

func viewKey(storyID, viewerID string) string { return storyID + "|" + viewerID }

func (m *Mem) InsertStoryView(ctx context.Context, storyID, viewerID string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[storyID]; !ok {
		return errs.ErrNotFound.WithDetail("story " + storyID)
	}
	key := viewKey(storyID, viewerID)
	if _, ok := m.storyViews[key]; ok {
		return errs.ErrConflict.WithDetail("story already viewed")
	}
	m.storyViews[key] = t
	return nil
}

func (m *Mem) ViewedStoryIDs(ctx context.Context, viewerID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool)
	suffix := "|" + viewerID
	for key := range m.storyViews {
		if strings.HasSuffix(key, suffix) {
			out[strings.TrimSuffix(key, suffix)] = true
		}
	}
	return out, nil
}
