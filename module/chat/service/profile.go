package service

import (
	"context"
	"strings"
	"time"

	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/tools/errs"
)

// Provision creates the profile for a fresh identity and auto-joins it to the
// world conversation. Runs from the signup hook; repeat calls for the same id
// are conflicts the hook treats as already-provisioned.
func (s *Service) Provision(ctx context.Context, userID, displayName, handle string) (*model.Profile, error) {
	if userID == "" {
		return nil, errs.ErrUnauthenticated
	}
	displayName = strings.TrimSpace(displayName)
	handle = strings.TrimSpace(handle)
	if displayName == "" || handle == "" {
		return nil, errs.ErrValidation.WithDetail("display name and handle required")
	}

	now := time.Now().UTC()
	p := &model.Profile{
		ID:          userID,
		DisplayName: displayName,
		Handle:      handle,
		LastSeenAt:  now,
		CreatedAt:   now,
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, err
	}
	if err := s.store.AddParticipant(ctx, s.cfg.WorldID, userID); err != nil {
		return nil, err
	}
	s.publish(ctx, feed.Event{
		Op:    feed.OpInsert,
		Table: feed.TableProfiles,
		Row:   feed.RowOf(p),
	})
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

// UpdateDisplayName is cooldown-limited at the authority: the store rejects
// with ErrCooldownActive when the last change is fresher than the window, no
// matter what the client claimed.
func (s *Service) UpdateDisplayName(ctx context.Context, selfID, name string) error {
	if selfID == "" {
		return errs.ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.ErrValidation.WithDetail("empty name")
	}
	now := time.Now().UTC()
	if err := s.store.UpdateDisplayName(ctx, selfID, name, now, s.cfg.NameCooldown); err != nil {
		return err
	}
	s.publishProfile(ctx, selfID)
	return nil
}

func (s *Service) UpdateHandle(ctx context.Context, selfID, handle string) error {
	if selfID == "" {
		return errs.ErrUnauthenticated
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return errs.ErrValidation.WithDetail("empty handle")
	}
	if err := s.store.UpdateHandle(ctx, selfID, handle); err != nil {
		return err
	}
	s.publishProfile(ctx, selfID)
	return nil
}

func (s *Service) UpdateAvatar(ctx context.Context, selfID, avatarURL string) error {
	if selfID == "" {
		return errs.ErrUnauthenticated
	}
	if err := s.store.UpdateAvatar(ctx, selfID, avatarURL); err != nil {
		return err
	}
	s.publishProfile(ctx, selfID)
	return nil
}

// TouchLastSeen persists the heartbeat timestamp; the online flag itself
// lives only in the presence TTL key.
func (s *Service) TouchLastSeen(ctx context.Context, selfID string, t time.Time) error {
	if selfID == "" {
		return errs.ErrUnauthenticated
	}
	return s.store.TouchLastSeen(ctx, selfID, t)
}

func (s *Service) publishProfile(ctx context.Context, id string) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return
	}
	s.publish(ctx, feed.Event{
		Op:    feed.OpUpdate,
		Table: feed.TableProfiles,
		Row:   feed.RowOf(p),
	})
}
