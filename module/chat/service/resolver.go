package service

import (
	"context"
	"time"

	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/store"
	"LumeChat/tools/errs"
	"LumeChat/tools/ids"
)

// GetOrCreatePrivate returns the id of the single private conversation
// between selfID and otherID, creating it when absent. clientID, when
// non-empty, is the client-proposed conversation id and must be a UUID.
//
// The whole find-or-create sequence runs under a lock keyed by the unordered
// pair, so simultaneous calls from either direction serialize and can never
// both reach the create step. On ErrTransientStorage the caller retries the
// whole operation, never a half-finished one: the lock plus the find step
// make that retry safe.
func (s *Service) GetOrCreatePrivate(ctx context.Context, selfID, otherID, clientID string) (string, error) {
	if selfID == "" {
		return "", errs.ErrUnauthenticated
	}
	if otherID == "" || selfID == otherID {
		return "", errs.ErrValidation.WithDetail("cannot start a conversation with yourself")
	}
	if clientID != "" && !ids.Valid(clientID) {
		return "", errs.ErrValidation.WithDetail("conversation id must be a UUID")
	}
	if _, err := s.store.GetProfile(ctx, otherID); err != nil {
		return "", err
	}

	var (
		convID  string
		created *model.Conversation
	)
	err := s.store.WithPairLock(ctx, selfID, otherID, func(ctx context.Context, tx store.Store) error {
		existing, err := tx.FindPrivateConversation(ctx, selfID, otherID)
		if err != nil {
			return err
		}
		if existing != "" {
			convID = existing
			return nil
		}

		now := time.Now().UTC()
		c := &model.Conversation{
			ID:             clientID,
			IsGroup:        false,
			LastActivityAt: now,
			CreatedAt:      now,
		}
		if c.ID == "" {
			c.ID = ids.New()
		}
		if err := tx.CreateConversation(ctx, c); err != nil {
			return err
		}
		if err := tx.AddParticipant(ctx, c.ID, selfID); err != nil {
			return err
		}
		if err := tx.AddParticipant(ctx, c.ID, otherID); err != nil {
			return err
		}
		convID = c.ID
		created = c
		return nil
	})
	if err != nil {
		return "", err
	}
	if created != nil {
		s.publish(ctx, feed.Event{
			Op:             feed.OpInsert,
			Table:          feed.TableConversations,
			ConversationID: created.ID,
			Row:            feed.RowOf(created),
		})
	}
	return convID, nil
}

// EnsureWorld creates the broadcast conversation under its well-known id.
// The insert is idempotent, so this runs on every startup.
func (s *Service) EnsureWorld(ctx context.Context) error {
	now := time.Now().UTC()
	return s.store.CreateConversation(ctx, &model.Conversation{
		ID:             s.cfg.WorldID,
		IsGroup:        true,
		Name:           "World Chat",
		LastActivityAt: now,
		CreatedAt:      now,
	})
}

func (s *Service) ListConversations(ctx context.Context, selfID string) ([]model.Conversation, error) {
	if selfID == "" {
		return nil, errs.ErrUnauthenticated
	}
	return s.store.ListConversations(ctx, selfID)
}

// SetTheme changes a conversation's display theme; participants only.
func (s *Service) SetTheme(ctx context.Context, selfID, conversationID, theme string) error {
	if selfID == "" {
		return errs.ErrUnauthenticated
	}
	in, err := s.store.IsParticipant(ctx, conversationID, selfID)
	if err != nil {
		return err
	}
	if !in {
		return errs.ErrNotFound.WithDetail("conversation " + conversationID)
	}
	if err := s.store.SetConversationTheme(ctx, conversationID, theme); err != nil {
		return err
	}
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err == nil {
		s.publish(ctx, feed.Event{
			Op:             feed.OpUpdate,
			Table:          feed.TableConversations,
			ConversationID: conversationID,
			Row:            feed.RowOf(conv),
		})
	}
	return nil
}
