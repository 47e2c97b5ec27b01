package service

import (
	"context"
	"testing"
	"time"

	"LumeChat/module/chat/model"
	"LumeChat/store/memstore"
	"LumeChat/tools/ids"
)

// plantStory inserts a story directly so tests control timestamps.
func plantStory(t *testing.T, st *memstore.Mem, author, visibility string, createdAt, expiresAt time.Time) model.Story {
	t.Helper()
	s := model.Story{
		ID:         ids.New(),
		UserID:     author,
		MediaURL:   "u/pic.jpg",
		MediaKind:  model.MediaImage,
		Visibility: visibility,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
	}
	if err := st.InsertStory(context.Background(), &s); err != nil {
		t.Fatalf("InsertStory: %v", err)
	}
	return s
}

func TestExpiredStoriesAreInvisible(t *testing.T) {
	svc, st, _ := newTestService(t)
	startPrivateChat(t, svc) // A and B become friends
	now := time.Now().UTC()

	// expired in both scopes, regardless of visibility
	plantStory(t, st, userB, model.StoryVisibilityWorld, now.Add(-25*time.Hour), now.Add(-time.Hour))
	plantStory(t, st, userB, model.StoryVisibilityFriends, now.Add(-25*time.Hour), now.Add(-time.Hour))
	live := plantStory(t, st, userB, model.StoryVisibilityWorld, now, now.Add(24*time.Hour))

	groups, err := svc.StoryFeed(context.Background(), userA, model.StoryVisibilityWorld)
	if err != nil {
		t.Fatalf("StoryFeed world: %v", err)
	}
	total := 0
	for _, g := range groups {
		total += len(g.Stories)
		for _, s := range g.Stories {
			if s.ID != live.ID {
				t.Fatalf("expired story %s leaked into feed", s.ID)
			}
		}
	}
	if total != 1 {
		t.Fatalf("expected 1 visible story, got %d", total)
	}

	groups, err = svc.StoryFeed(context.Background(), userA, model.StoryVisibilityFriends)
	if err != nil {
		t.Fatalf("StoryFeed friends: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expired friends story leaked: %d groups", len(groups))
	}
}

func TestFriendScopeExcludesStrangers(t *testing.T) {
	svc, st, _ := newTestService(t)
	startPrivateChat(t, svc) // A-B share a private conversation
	now := time.Now().UTC()

	fromFriend := plantStory(t, st, userB, model.StoryVisibilityFriends, now, now.Add(time.Hour))
	// C shares only the world conversation with A, so C is not a friend
	plantStory(t, st, userC, model.StoryVisibilityFriends, now, now.Add(time.Hour))

	groups, err := svc.StoryFeed(context.Background(), userA, model.StoryVisibilityFriends)
	if err != nil {
		t.Fatalf("StoryFeed: %v", err)
	}
	if len(groups) != 1 || groups[0].AuthorID != userB {
		t.Fatalf("friend scope wrong: %+v", groups)
	}
	if groups[0].Stories[0].ID != fromFriend.ID {
		t.Fatal("wrong story in friend group")
	}
}

func TestStoryFeedOrdering(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	// make B and C both friends of A
	if _, err := svc.GetOrCreatePrivate(ctx, userA, userB, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetOrCreatePrivate(ctx, userA, userC, ""); err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()

	own := plantStory(t, st, userA, model.StoryVisibilityFriends, now.Add(-3*time.Hour), now.Add(time.Hour))
	viewedStory := plantStory(t, st, userB, model.StoryVisibilityFriends, now.Add(-2*time.Hour), now.Add(time.Hour))
	plantStory(t, st, userC, model.StoryVisibilityFriends, now.Add(-1*time.Hour), now.Add(time.Hour))

	// A has seen B's story but not C's
	if err := svc.ViewStory(ctx, userA, viewedStory.ID); err != nil {
		t.Fatalf("ViewStory: %v", err)
	}

	groups, err := svc.StoryFeed(ctx, userA, model.StoryVisibilityFriends)
	if err != nil {
		t.Fatalf("StoryFeed: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].AuthorID != userA {
		t.Fatalf("own group must come first, got %s", groups[0].AuthorID)
	}
	if groups[1].AuthorID != userC {
		t.Fatalf("unviewed group before viewed, got %s", groups[1].AuthorID)
	}
	if groups[2].AuthorID != userB {
		t.Fatalf("all-viewed group last, got %s", groups[2].AuthorID)
	}
	_ = own
}

func TestViewStorySemantics(t *testing.T) {
	svc, st, _ := newTestService(t)
	startPrivateChat(t, svc)
	ctx := context.Background()
	now := time.Now().UTC()
	s := plantStory(t, st, userB, model.StoryVisibilityFriends, now, now.Add(time.Hour))

	// author viewing own story writes nothing
	if err := svc.ViewStory(ctx, userB, s.ID); err != nil {
		t.Fatalf("author view: %v", err)
	}
	authorViewed, _ := st.ViewedStoryIDs(ctx, userB)
	if len(authorViewed) != 0 {
		t.Fatal("author view must not create a story view")
	}

	// first view recorded, repeat swallowed
	if err := svc.ViewStory(ctx, userA, s.ID); err != nil {
		t.Fatalf("first view: %v", err)
	}
	if err := svc.ViewStory(ctx, userA, s.ID); err != nil {
		t.Fatalf("repeat view: %v", err)
	}
	viewed, _ := st.ViewedStoryIDs(ctx, userA)
	if !viewed[s.ID] || len(viewed) != 1 {
		t.Fatalf("viewed set wrong: %v", viewed)
	}
}

func TestPostStorySetsExpiry(t *testing.T) {
	svc, _, _ := newTestService(t)
	st, err := svc.PostStory(context.Background(), userA, "u/clip.mp4", model.MediaVideo, "", model.StoryVisibilityWorld)
	if err != nil {
		t.Fatalf("PostStory: %v", err)
	}
	if got := st.ExpiresAt.Sub(st.CreatedAt); got != 24*time.Hour {
		t.Fatalf("expiry offset = %v, want 24h", got)
	}
}
