package service

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"

	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/tools/errs"
	"LumeChat/tools/ids"
)

// React adds a reaction. A duplicate (message,user,emoji) triple is benign:
// added=false, no error. Toggle state is the caller's to track; SetReaction
// is the idempotent alternative.
func (s *Service) React(ctx context.Context, selfID, messageID, emoji string) (added bool, err error) {
	if selfID == "" {
		return false, errs.ErrUnauthenticated
	}
	if emoji == "" {
		return false, errs.ErrValidation.WithDetail("empty emoji")
	}
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	r := &model.Reaction{
		ID:        ids.New(),
		MessageID: messageID,
		UserID:    selfID,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertReaction(ctx, r); err != nil {
		if pkgerrors.Is(err, errs.ErrConflict) {
			return false, nil // already present
		}
		return false, err
	}
	s.publish(ctx, feed.Event{
		Op:             feed.OpInsert,
		Table:          feed.TableReactions,
		ConversationID: m.ConversationID,
		Row:            feed.RowOf(r),
	})
	return true, nil
}

// Unreact removes a reaction; absent is a no-op.
func (s *Service) Unreact(ctx context.Context, selfID, messageID, emoji string) (removed bool, err error) {
	if selfID == "" {
		return false, errs.ErrUnauthenticated
	}
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	deletedID, err := s.store.DeleteReaction(ctx, messageID, selfID, emoji)
	if err != nil {
		return false, err
	}
	if deletedID == "" {
		return false, nil
	}
	s.publish(ctx, feed.Event{
		Op:             feed.OpDelete,
		Table:          feed.TableReactions,
		ConversationID: m.ConversationID,
		Row: map[string]any{
			"id":         deletedID,
			"message_id": messageID,
			"user_id":    selfID,
			"emoji":      emoji,
		},
	})
	return true, nil
}

// SetReaction is the idempotent membership primitive: present=true behaves
// like React, present=false like Unreact, and repeating either is harmless.
func (s *Service) SetReaction(ctx context.Context, selfID, messageID, emoji string, present bool) error {
	if present {
		_, err := s.React(ctx, selfID, messageID, emoji)
		return err
	}
	_, err := s.Unreact(ctx, selfID, messageID, emoji)
	return err
}

func (s *Service) ListReactions(ctx context.Context, selfID, messageID string) ([]model.Reaction, error) {
	if selfID == "" {
		return nil, errs.ErrUnauthenticated
	}
	if _, err := s.store.GetMessage(ctx, messageID); err != nil {
		return nil, err
	}
	return s.store.ListReactions(ctx, messageID)
}
