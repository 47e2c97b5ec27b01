// Package sync keeps a client's derived views consistent with the durable
// store by applying changefeed events as incremental patches. The merge rules
// make an optimistic local write and its echoed remote event converge without
// duplication, and make stale events harmless.
package sync

import (
	"sort"
	"sync"

	"LumeChat/logger"
	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/tools/decode"
)

// Coordinator holds one client's view of an open conversation plus its
// conversation list and story index. Safe for concurrent use; feed events
// arrive on the subscription goroutine while the UI reads.
type Coordinator struct {
	mu sync.RWMutex

	messages []model.Message
	msgIndex map[string]int // message id -> position in messages

	reactions map[string]model.Reaction // reaction id -> reaction

	conversations map[string]model.Conversation
	stories       map[string]model.Story
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		msgIndex:      make(map[string]int),
		reactions:     make(map[string]model.Reaction),
		conversations: make(map[string]model.Conversation),
		stories:       make(map[string]model.Story),
	}
}

// Apply merges one feed event into local state.
//
// Rules: an Insert appends only if the id is not already present (guards the
// optimistic-insert-plus-echo double add); an Update replaces the entry by id
// preserving list position; a Delete removes by exact id; an Update or Delete
// for an id not present locally is dropped as stale, never an error.
func (c *Coordinator) Apply(ev feed.Event) {
	switch ev.Table {
	case feed.TableMessages:
		c.applyMessage(ev)
	case feed.TableReactions:
		c.applyReaction(ev)
	case feed.TableConversations:
		c.applyConversation(ev)
	case feed.TableStories:
		c.applyStory(ev)
	default:
		logger.Debug("[sync] ignoring event for table " + ev.Table)
	}
}

func (c *Coordinator) applyMessage(ev feed.Event) {
	m, err := decode.Map[model.Message](ev.Row)
	if err != nil {
		logger.Warnf("[sync] drop undecodable message event: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, known := c.msgIndex[m.ID]
	switch ev.Op {
	case feed.OpInsert:
		if known {
			return // locally-optimistic insert already present
		}
		c.msgIndex[m.ID] = len(c.messages)
		c.messages = append(c.messages, *m)
	case feed.OpUpdate:
		if !known {
			return // stale
		}
		c.messages[pos] = *m
	case feed.OpDelete:
		if !known {
			return
		}
		c.messages = append(c.messages[:pos], c.messages[pos+1:]...)
		delete(c.msgIndex, m.ID)
		for i := pos; i < len(c.messages); i++ {
			c.msgIndex[c.messages[i].ID] = i
		}
	}
}

func (c *Coordinator) applyReaction(ev feed.Event) {
	r, err := decode.Map[model.Reaction](ev.Row)
	if err != nil {
		logger.Warnf("[sync] drop undecodable reaction event: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, known := c.reactions[r.ID]
	switch ev.Op {
	case feed.OpInsert:
		if known {
			return
		}
		c.reactions[r.ID] = *r
	case feed.OpUpdate:
		if !known {
			return
		}
		c.reactions[r.ID] = *r
	case feed.OpDelete:
		delete(c.reactions, r.ID)
	}
}

func (c *Coordinator) applyConversation(ev feed.Event) {
	conv, err := decode.Map[model.Conversation](ev.Row)
	if err != nil {
		logger.Warnf("[sync] drop undecodable conversation event: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, known := c.conversations[conv.ID]
	switch ev.Op {
	case feed.OpInsert:
		if known {
			return
		}
		c.conversations[conv.ID] = *conv
	case feed.OpUpdate:
		if !known {
			return
		}
		c.conversations[conv.ID] = *conv
	case feed.OpDelete:
		delete(c.conversations, conv.ID)
	}
}

func (c *Coordinator) applyStory(ev feed.Event) {
	s, err := decode.Map[model.Story](ev.Row)
	if err != nil {
		logger.Warnf("[sync] drop undecodable story event: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ev.Op == feed.OpInsert {
		if _, known := c.stories[s.ID]; !known {
			c.stories[s.ID] = *s
		}
	}
	// stories are immutable after creation; updates and deletes are stale
}

// Messages returns the ordered message list.
func (c *Coordinator) Messages() []model.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Coordinator) Reactions(messageID string) []model.Reaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Reaction
	for _, r := range c.reactions {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Conversations returns the list ordered by last activity, newest first.
func (c *Coordinator) Conversations() []model.Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Conversation, 0, len(c.conversations))
	for _, conv := range c.conversations {
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out
}

func (c *Coordinator) Stories() []model.Story {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Story, 0, len(c.stories))
	for _, s := range c.stories {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ReconcileMessages replaces the message view wholesale with a fresh fetch.
// The feed has no cursor or gap detection, so this is the recovery path after
// a resubscribe or suspected loss.
func (c *Coordinator) ReconcileMessages(msgs []model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make([]model.Message, len(msgs))
	copy(c.messages, msgs)
	c.msgIndex = make(map[string]int, len(msgs))
	for i, m := range c.messages {
		c.msgIndex[m.ID] = i
	}
}

func (c *Coordinator) ReconcileConversations(convs []model.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversations = make(map[string]model.Conversation, len(convs))
	for _, conv := range convs {
		c.conversations[conv.ID] = conv
	}
}

func (c *Coordinator) ReconcileStories(stories []model.Story) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stories = make(map[string]model.Story, len(stories))
	for _, s := range stories {
		c.stories[s.ID] = s
	}
}
