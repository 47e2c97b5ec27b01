package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"LumeChat/global/config"
	"LumeChat/tools/errs"
)

func TestNameCooldownAtService(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.UpdateDisplayName(ctx, userA, "Alice Two"); err != nil {
		t.Fatalf("first rename: %v", err)
	}
	// immediate retry is inside the window
	err := svc.UpdateDisplayName(ctx, userA, "Alice Three")
	if !errors.Is(err, errs.ErrCooldownActive) {
		t.Fatalf("expected cooldown, got %v", err)
	}
}

// TestNameCooldownWindows drives the store directly with explicit clocks to
// check the 12h boundary: T+1h rejected, T+13h allowed.
func TestNameCooldownWindows(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC()
	cooldown := 12 * time.Hour

	if err := st.UpdateDisplayName(ctx, userA, "First", base, cooldown); err != nil {
		t.Fatalf("rename at T: %v", err)
	}
	err := st.UpdateDisplayName(ctx, userA, "Second", base.Add(time.Hour), cooldown)
	if !errors.Is(err, errs.ErrCooldownActive) {
		t.Fatalf("rename at T+1h: expected cooldown, got %v", err)
	}
	if err := st.UpdateDisplayName(ctx, userA, "Third", base.Add(13*time.Hour), cooldown); err != nil {
		t.Fatalf("rename at T+13h: %v", err)
	}

	p, _ := st.GetProfile(ctx, userA)
	if p.DisplayName != "Third" {
		t.Fatalf("display name = %q, want Third", p.DisplayName)
	}
	_ = svc
}

func TestUpdateDisplayNameValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.UpdateDisplayName(context.Background(), userA, "   ")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty name: expected validation error, got %v", err)
	}
}

func TestProvisionJoinsWorld(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	in, err := st.IsParticipant(ctx, config.WorldConversationID, userA)
	if err != nil {
		t.Fatalf("IsParticipant: %v", err)
	}
	if !in {
		t.Fatal("provisioned profile not auto-joined to world conversation")
	}
	_ = svc
}

func TestUpdateHandleConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	err := svc.UpdateHandle(ctx, userA, "bob") // taken by B
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected conflict on taken handle, got %v", err)
	}
	if err := svc.UpdateHandle(ctx, userA, "alice2"); err != nil {
		t.Fatalf("free handle: %v", err)
	}
}
