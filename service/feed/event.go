package feed

import (
	"context"
	"encoding/json"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Table names carried on the feed. These match the durable-store tables.
const (
	TableMessages      = "messages"
	TableReactions     = "reactions"
	TableConversations = "conversations"
	TableStories       = "stories"
	TableProfiles      = "profiles"
)

// Event is one row change, published in store-commit order. Row is the full
// row as a generic map; consumers decode it with tools/decode.
type Event struct {
	Op             Op             `json:"op"`
	Table          string         `json:"table"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Row            map[string]any `json:"row"`
}

// Publisher is the write side of the changefeed. The NATS Feed implements it;
// tests use a recorder.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RowOf flattens an entity struct into the generic row map the feed carries.
func RowOf(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
