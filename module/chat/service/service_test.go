package service

import (
	"context"
	"testing"
	"time"

	"LumeChat/global/config"
	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/store/memstore"
)

const (
	userA = "aaaaaaaa-0000-0000-0000-000000000001"
	userB = "bbbbbbbb-0000-0000-0000-000000000002"
	userC = "cccccccc-0000-0000-0000-000000000003"
)

func newTestService(t *testing.T) (*Service, *memstore.Mem, *feed.Recorder) {
	t.Helper()
	st := memstore.New()
	rec := feed.NewRecorder()
	svc := New(st, rec, Config{
		WorldID:      config.WorldConversationID,
		NameCooldown: 12 * time.Hour,
		StoryTTL:     24 * time.Hour,
	})
	ctx := context.Background()
	if err := svc.EnsureWorld(ctx); err != nil {
		t.Fatalf("EnsureWorld: %v", err)
	}
	for i, u := range []struct{ id, name, handle string }{
		{userA, "Alice", "alice"},
		{userB, "Bob", "bob"},
		{userC, "Carol", "carol"},
	} {
		if _, err := svc.Provision(ctx, u.id, u.name, u.handle); err != nil {
			t.Fatalf("Provision %d: %v", i, err)
		}
	}
	return svc, st, rec
}

// startPrivateChat is shared setup: resolve A<->B and return the id.
func startPrivateChat(t *testing.T, svc *Service) string {
	t.Helper()
	id, err := svc.GetOrCreatePrivate(context.Background(), userA, userB, "")
	if err != nil {
		t.Fatalf("GetOrCreatePrivate: %v", err)
	}
	return id
}

func sendText(t *testing.T, svc *Service, sender, convID, content string) *model.Message {
	t.Helper()
	m, err := svc.SendText(context.Background(), sender, convID, content, nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	return m
}
