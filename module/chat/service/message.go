package service

import (
	"context"
	"strings"
	"time"

	"LumeChat/logger"
	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/tools/errs"
	"LumeChat/tools/ids"
)

// Attachment is one uploaded file in a composite send.
type Attachment struct {
	URL  string
	Kind string // image/video/document
}

// BatchInput is one user action: any number of attachments plus an optional
// caption and reply target.
type BatchInput struct {
	ConversationID string
	Caption        string
	ReplyToID      *string
	Attachments    []Attachment
}

// BatchFailure reports one message of a composite send that was not stored,
// keyed by its media refs so the client can retry just that part.
type BatchFailure struct {
	MediaURL string
	Err      error
}

// SendText sends a plain text message.
func (s *Service) SendText(ctx context.Context, selfID, conversationID, content string, replyToID *string) (*model.Message, error) {
	if selfID == "" {
		return nil, errs.ErrUnauthenticated
	}
	if strings.TrimSpace(content) == "" {
		return nil, errs.ErrValidation.WithDetail("empty message")
	}
	m := &model.Message{
		ID:             ids.New(),
		ConversationID: conversationID,
		SenderID:       selfID,
		Content:        content,
		ReplyToID:      replyToID,
	}
	if err := s.sendOne(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SendBatch applies the media fan-out rule: all images collapse into a single
// message (gallery kind when more than one), every non-image attachment
// becomes its own message. The caption lands on exactly one message in the
// batch: the image/gallery message when images exist, otherwise the first
// non-image message. Every other message carries the fixed placeholder for
// its kind. A reply target attaches only to the first message of the batch.
func (s *Service) SendBatch(ctx context.Context, selfID string, in BatchInput) ([]*model.Message, []BatchFailure, error) {
	if selfID == "" {
		return nil, nil, errs.ErrUnauthenticated
	}
	if len(in.Attachments) == 0 {
		return nil, nil, errs.ErrValidation.WithDetail("no attachments")
	}

	var imageURLs []string
	var others []Attachment
	for _, a := range in.Attachments {
		if a.URL == "" {
			return nil, nil, errs.ErrValidation.WithDetail("attachment missing url")
		}
		if a.Kind == model.MediaImage {
			imageURLs = append(imageURLs, a.URL)
		} else {
			others = append(others, a)
		}
	}

	caption := strings.TrimSpace(in.Caption)
	var batch []*model.Message

	if len(imageURLs) > 0 {
		kind := model.MediaImage
		if len(imageURLs) > 1 {
			kind = model.MediaGallery
		}
		content := caption
		if content == "" {
			content = model.PlaceholderFor(kind)
		}
		batch = append(batch, &model.Message{
			ID:             ids.New(),
			ConversationID: in.ConversationID,
			SenderID:       selfID,
			Content:        content,
			MediaURL:       strings.Join(imageURLs, ","),
			MediaKind:      kind,
		})
	}

	for i, a := range others {
		content := model.PlaceholderFor(a.Kind)
		if len(imageURLs) == 0 && i == 0 && caption != "" {
			content = caption
		}
		batch = append(batch, &model.Message{
			ID:             ids.New(),
			ConversationID: in.ConversationID,
			SenderID:       selfID,
			Content:        content,
			MediaURL:       a.URL,
			MediaKind:      a.Kind,
		})
	}

	if in.ReplyToID != nil {
		batch[0].ReplyToID = in.ReplyToID
	}

	// Per-file failure: one bad insert does not abort the rest of the batch,
	// and every failure is reported back with its media refs.
	var sent []*model.Message
	var failed []BatchFailure
	for _, m := range batch {
		if err := s.sendOne(ctx, m); err != nil {
			failed = append(failed, BatchFailure{MediaURL: m.MediaURL, Err: err})
			continue
		}
		sent = append(sent, m)
	}
	if len(sent) == 0 {
		return nil, failed, failed[0].Err
	}
	return sent, failed, nil
}

func (s *Service) sendOne(ctx context.Context, m *model.Message) error {
	in, err := s.store.IsParticipant(ctx, m.ConversationID, m.SenderID)
	if err != nil {
		return err
	}
	if !in {
		return errs.ErrNotFound.WithDetail("conversation " + m.ConversationID)
	}
	if m.ReplyToID != nil {
		target, err := s.store.GetMessage(ctx, *m.ReplyToID)
		if err != nil {
			return err
		}
		if target.ConversationID != m.ConversationID {
			return errs.ErrValidation.WithDetail("reply target in another conversation")
		}
	}
	if err := s.store.InsertMessage(ctx, m); err != nil {
		return err
	}
	if err := s.store.TouchConversation(ctx, m.ConversationID, m.CreatedAt); err != nil {
		// last-activity drift is recoverable; the message is already durable
		logger.Warnf("[chat] touch conversation %s: %v", m.ConversationID, err)
	}
	s.publish(ctx, feed.Event{
		Op:             feed.OpInsert,
		Table:          feed.TableMessages,
		ConversationID: m.ConversationID,
		Row:            feed.RowOf(m),
	})
	return nil
}

func (s *Service) ListMessages(ctx context.Context, selfID, conversationID string, limit int) ([]model.Message, error) {
	if selfID == "" {
		return nil, errs.ErrUnauthenticated
	}
	in, err := s.store.IsParticipant(ctx, conversationID, selfID)
	if err != nil {
		return nil, err
	}
	if !in {
		return nil, errs.ErrNotFound.WithDetail("conversation " + conversationID)
	}
	msgs, err := s.store.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	// deleted bodies never leave the service
	for i := range msgs {
		msgs[i].Redact()
	}
	return msgs, nil
}

// MarkRead flips the read flag. Any participant other than the sender may do
// it; repeating it is a no-op.
func (s *Service) MarkRead(ctx context.Context, selfID, messageID string) error {
	if selfID == "" {
		return errs.ErrUnauthenticated
	}
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID == selfID {
		return errs.ErrValidation.WithDetail("sender cannot mark own message read")
	}
	in, err := s.store.IsParticipant(ctx, m.ConversationID, selfID)
	if err != nil {
		return err
	}
	if !in {
		return errs.ErrNotFound.WithDetail("message " + messageID)
	}
	if m.IsRead {
		return nil
	}
	if err := s.store.MarkMessageRead(ctx, messageID); err != nil {
		return err
	}
	m.IsRead = true
	m.Redact()
	s.publish(ctx, feed.Event{
		Op:             feed.OpUpdate,
		Table:          feed.TableMessages,
		ConversationID: m.ConversationID,
		Row:            feed.RowOf(m),
	})
	return nil
}

// SoftDelete marks the message deleted. Sender only, terminal, idempotent.
// The row stays so replies and reactions keep their references; readers see
// the tombstone from DisplayContent.
func (s *Service) SoftDelete(ctx context.Context, selfID, messageID string) error {
	if selfID == "" {
		return errs.ErrUnauthenticated
	}
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != selfID {
		return errs.ErrNotFound.WithDetail("message " + messageID)
	}
	if m.Deleted() {
		return nil
	}
	now := time.Now().UTC()
	if err := s.store.SoftDeleteMessage(ctx, messageID, now); err != nil {
		return err
	}
	m.DeletedAt = &now
	m.Redact() // subscribers get the tombstone, never the body
	s.publish(ctx, feed.Event{
		Op:             feed.OpUpdate,
		Table:          feed.TableMessages,
		ConversationID: m.ConversationID,
		Row:            feed.RowOf(m),
	})
	return nil
}
