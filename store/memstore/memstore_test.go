package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LumeChat/module/chat/model"
	"LumeChat/store"
	"LumeChat/tools/errs"
)

func TestHandleUniqueness(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.CreateProfile(ctx, &model.Profile{ID: "u1", Handle: "ada"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := m.CreateProfile(ctx, &model.Profile{ID: "u2", Handle: "ada"})
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate handle: got %v, want conflict", err)
	}

	if err := m.CreateProfile(ctx, &model.Profile{ID: "u2", Handle: "grace"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err = m.UpdateHandle(ctx, "u2", "ada")
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("update to taken handle: got %v, want conflict", err)
	}
	// re-asserting your own handle is fine
	if err := m.UpdateHandle(ctx, "u1", "ada"); err != nil {
		t.Fatalf("self handle update: %v", err)
	}
}

func TestReactionUniqueTriple(t *testing.T) {
	m := New()
	ctx := context.Background()
	if err := m.CreateConversation(ctx, &model.Conversation{ID: "c1"}); err != nil {
		t.Fatalf("conv: %v", err)
	}
	if err := m.InsertMessage(ctx, &model.Message{ID: "m1", ConversationID: "c1", SenderID: "u1"}); err != nil {
		t.Fatalf("msg: %v", err)
	}

	r := &model.Reaction{ID: "r1", MessageID: "m1", UserID: "u2", Emoji: "👍"}
	if err := m.InsertReaction(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	dup := &model.Reaction{ID: "r2", MessageID: "m1", UserID: "u2", Emoji: "👍"}
	if err := m.InsertReaction(ctx, dup); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate triple: got %v, want conflict", err)
	}

	id, err := m.DeleteReaction(ctx, "m1", "u2", "👍")
	if err != nil || id != "r1" {
		t.Fatalf("delete: id=%q err=%v", id, err)
	}
	// absent row deletes to empty id without error
	id, err = m.DeleteReaction(ctx, "m1", "u2", "👍")
	if err != nil || id != "" {
		t.Fatalf("second delete: id=%q err=%v", id, err)
	}
}

func TestStoryViewOncePerViewer(t *testing.T) {
	m := New()
	ctx := context.Background()
	now := time.Now()
	s := &model.Story{ID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := m.InsertStory(ctx, s); err != nil {
		t.Fatalf("insert story: %v", err)
	}
	if err := m.InsertStoryView(ctx, "s1", "u2", now); err != nil {
		t.Fatalf("view: %v", err)
	}
	if err := m.InsertStoryView(ctx, "s1", "u2", now); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("repeat view: got %v, want conflict", err)
	}

	viewed, err := m.ViewedStoryIDs(ctx, "u2")
	if err != nil {
		t.Fatalf("viewed ids: %v", err)
	}
	if !viewed["s1"] || len(viewed) != 1 {
		t.Fatalf("viewed = %v", viewed)
	}
	if other, _ := m.ViewedStoryIDs(ctx, "u3"); len(other) != 0 {
		t.Fatalf("u3 viewed = %v, want none", other)
	}
}

func TestPairLockSerializesSamePair(t *testing.T) {
	m := New()
	ctx := context.Background()

	var inside, maxInside int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// lock key is order independent, so mixing argument order
			// must still serialize
			a, b := "u1", "u2"
			if len(a) > 0 && time.Now().UnixNano()%2 == 0 {
				a, b = b, a
			}
			err := m.WithPairLock(ctx, a, b, func(ctx context.Context, tx store.Store) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("pair lock: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("critical section overlapped, max concurrent = %d", maxInside)
	}
}
