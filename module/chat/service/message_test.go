package service

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/tools/errs"
)

func TestSendBatchGalleryPlusDocument(t *testing.T) {
	svc, _, _ := newTestService(t)
	conv := startPrivateChat(t, svc)

	msgs, failures, err := svc.SendBatch(context.Background(), userA, BatchInput{
		ConversationID: conv,
		Caption:        "trip photos",
		Attachments: []Attachment{
			{URL: "u/1.jpg", Kind: model.MediaImage},
			{URL: "u/2.jpg", Kind: model.MediaImage},
			{URL: "u/3.jpg", Kind: model.MediaImage},
			{URL: "u/report.pdf", Kind: model.MediaDocument},
		},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	gallery := msgs[0]
	if gallery.MediaKind != model.MediaGallery {
		t.Fatalf("first message kind = %s, want gallery", gallery.MediaKind)
	}
	if refs := strings.Split(gallery.MediaURL, ","); len(refs) != 3 {
		t.Fatalf("gallery holds %d refs, want 3", len(refs))
	}
	if gallery.Content != "trip photos" {
		t.Fatalf("caption went to %q, want gallery message", gallery.Content)
	}

	doc := msgs[1]
	if doc.MediaKind != model.MediaDocument {
		t.Fatalf("second message kind = %s, want document", doc.MediaKind)
	}
	if doc.Content != model.PlaceholderFile {
		t.Fatalf("document content = %q, want %q", doc.Content, model.PlaceholderFile)
	}
}

func TestSendBatchCaptionFallsToFirstNonImage(t *testing.T) {
	svc, _, _ := newTestService(t)
	conv := startPrivateChat(t, svc)

	msgs, _, err := svc.SendBatch(context.Background(), userA, BatchInput{
		ConversationID: conv,
		Caption:        "see attached",
		Attachments: []Attachment{
			{URL: "u/a.pdf", Kind: model.MediaDocument},
			{URL: "u/b.mp4", Kind: model.MediaVideo},
		},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "see attached" {
		t.Fatalf("caption on first non-image: got %q", msgs[0].Content)
	}
	if msgs[1].Content != model.PlaceholderVideo {
		t.Fatalf("second message content = %q, want %q", msgs[1].Content, model.PlaceholderVideo)
	}
}

func TestSendBatchSingleImageKeepsImageKind(t *testing.T) {
	svc, _, _ := newTestService(t)
	conv := startPrivateChat(t, svc)

	msgs, _, err := svc.SendBatch(context.Background(), userA, BatchInput{
		ConversationID: conv,
		Attachments:    []Attachment{{URL: "u/solo.png", Kind: model.MediaImage}},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MediaKind != model.MediaImage {
		t.Fatalf("single image batch: got %d messages, kind %s", len(msgs), msgs[0].MediaKind)
	}
	if msgs[0].Content != model.PlaceholderImage {
		t.Fatalf("no caption means placeholder, got %q", msgs[0].Content)
	}
}

func TestSendBatchReplyOnFirstMessageOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	conv := startPrivateChat(t, svc)
	target := sendText(t, svc, userB, conv, "original")

	msgs, _, err := svc.SendBatch(context.Background(), userA, BatchInput{
		ConversationID: conv,
		ReplyToID:      &target.ID,
		Attachments: []Attachment{
			{URL: "u/1.jpg", Kind: model.MediaImage},
			{URL: "u/doc.pdf", Kind: model.MediaDocument},
		},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if msgs[0].ReplyToID == nil || *msgs[0].ReplyToID != target.ID {
		t.Fatal("reply link missing on first batch message")
	}
	if msgs[1].ReplyToID != nil {
		t.Fatal("reply link leaked onto second batch message")
	}
}

func TestSoftDeleteTombstone(t *testing.T) {
	svc, st, _ := newTestService(t)
	conv := startPrivateChat(t, svc)
	m := sendText(t, svc, userA, conv, "secret")
	ctx := context.Background()

	// only the sender may delete
	if err := svc.SoftDelete(ctx, userB, m.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("non-sender delete: expected not found, got %v", err)
	}
	if err := svc.SoftDelete(ctx, userA, m.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	// terminal and idempotent
	if err := svc.SoftDelete(ctx, userA, m.ID); err != nil {
		t.Fatalf("repeat SoftDelete: %v", err)
	}

	got, err := st.GetMessage(ctx, m.ID)
	if err != nil {
		t.Fatalf("row must survive soft delete: %v", err)
	}
	if !got.Deleted() {
		t.Fatal("deleted_at not set")
	}
	if got.DisplayContent() != model.TombstoneText {
		t.Fatalf("DisplayContent = %q, want tombstone", got.DisplayContent())
	}
	if urls := got.DisplayMediaURLs(); urls != nil {
		t.Fatalf("deleted message leaked media: %v", urls)
	}
}

func TestSoftDeleteKeepsReplyLink(t *testing.T) {
	svc, st, _ := newTestService(t)
	conv := startPrivateChat(t, svc)
	target := sendText(t, svc, userA, conv, "will be deleted")
	ctx := context.Background()

	reply, err := svc.SendText(ctx, userB, conv, "replying", &target.ID)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if err := svc.SoftDelete(ctx, userA, target.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	gotReply, err := st.GetMessage(ctx, reply.ID)
	if err != nil {
		t.Fatalf("GetMessage reply: %v", err)
	}
	if gotReply.ReplyToID == nil || *gotReply.ReplyToID != target.ID {
		t.Fatal("reply link must stay intact after target soft delete")
	}
	gotTarget, _ := st.GetMessage(ctx, target.ID)
	if gotTarget.DisplayContent() != model.TombstoneText {
		t.Fatal("reply target must render the tombstone")
	}
}

func TestListMessagesRedactsDeleted(t *testing.T) {
	svc, _, rec := newTestService(t)
	conv := startPrivateChat(t, svc)
	ctx := context.Background()

	msgs, _, err := svc.SendBatch(ctx, userA, BatchInput{
		ConversationID: conv,
		Caption:        "super secret body",
		Attachments:    []Attachment{{URL: "u/secret.jpg", Kind: model.MediaImage}},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	m := msgs[0]
	if err := svc.SoftDelete(ctx, userA, m.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	// the other participant reads the tombstone, never the body or media
	listed, err := svc.ListMessages(ctx, userB, conv, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	var got *model.Message
	for i := range listed {
		if listed[i].ID == m.ID {
			got = &listed[i]
		}
	}
	if got == nil {
		t.Fatal("deleted message row missing from list")
	}
	if got.Content != model.TombstoneText {
		t.Fatalf("deleted body leaked: %q", got.Content)
	}
	if got.MediaURL != "" || got.MediaKind != "" {
		t.Fatalf("deleted media leaked: %q %q", got.MediaURL, got.MediaKind)
	}
	if !got.Deleted() {
		t.Fatal("deleted_at lost in redaction")
	}

	// subscribers get the tombstone too
	for _, ev := range rec.Events() {
		if ev.Table == feed.TableMessages && ev.Op == feed.OpUpdate && ev.Row["id"] == m.ID {
			if ev.Row["content"] != model.TombstoneText {
				t.Fatalf("feed event leaked deleted body: %v", ev.Row["content"])
			}
			if u, ok := ev.Row["media_url"]; ok && u != "" {
				t.Fatalf("feed event leaked deleted media: %v", u)
			}
			return
		}
	}
	t.Fatal("no update event published for the soft delete")
}

func TestSendBatchReportsPartialFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	conv := startPrivateChat(t, svc)
	ctx := context.Background()

	other, err := svc.GetOrCreatePrivate(ctx, userA, userC, "")
	if err != nil {
		t.Fatalf("resolve A-C: %v", err)
	}
	foreign := sendText(t, svc, userC, other, "elsewhere")

	// the reply rides the first (image) message only; its cross-conversation
	// target sinks that message while the document still lands
	msgs, failures, err := svc.SendBatch(ctx, userA, BatchInput{
		ConversationID: conv,
		ReplyToID:      &foreign.ID,
		Attachments: []Attachment{
			{URL: "u/pic.jpg", Kind: model.MediaImage},
			{URL: "u/doc.pdf", Kind: model.MediaDocument},
		},
	})
	if err != nil {
		t.Fatalf("partial failure must not fail the batch: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MediaKind != model.MediaDocument {
		t.Fatalf("surviving subset wrong: %+v", msgs)
	}
	if len(failures) != 1 || failures[0].MediaURL != "u/pic.jpg" {
		t.Fatalf("failure report wrong: %+v", failures)
	}
	if !errors.Is(failures[0].Err, errs.ErrValidation) {
		t.Fatalf("failure cause = %v, want validation", failures[0].Err)
	}
}

func TestMarkRead(t *testing.T) {
	svc, st, _ := newTestService(t)
	conv := startPrivateChat(t, svc)
	m := sendText(t, svc, userA, conv, "hi")
	ctx := context.Background()

	if err := svc.MarkRead(ctx, userA, m.ID); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("sender marking own message: expected validation error, got %v", err)
	}
	if err := svc.MarkRead(ctx, userB, m.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	// idempotent
	if err := svc.MarkRead(ctx, userB, m.ID); err != nil {
		t.Fatalf("repeat MarkRead: %v", err)
	}
	got, _ := st.GetMessage(ctx, m.ID)
	if !got.IsRead {
		t.Fatal("read flag not set")
	}
}

func TestSendTextValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	conv := startPrivateChat(t, svc)
	ctx := context.Background()

	if _, err := svc.SendText(ctx, userA, conv, "   ", nil); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("blank message: expected validation error, got %v", err)
	}
	// non-participant cannot send
	if _, err := svc.SendText(ctx, userC, conv, "hi", nil); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("outsider send: expected not found, got %v", err)
	}
}

func TestSendUpdatesLastActivity(t *testing.T) {
	svc, st, _ := newTestService(t)
	conv := startPrivateChat(t, svc)
	ctx := context.Background()

	before, _ := st.GetConversation(ctx, conv)
	m := sendText(t, svc, userA, conv, "bump")
	after, _ := st.GetConversation(ctx, conv)
	if after.LastActivityAt.Before(before.LastActivityAt) || !after.LastActivityAt.Equal(m.CreatedAt) {
		t.Fatalf("last activity not touched: %v vs message %v", after.LastActivityAt, m.CreatedAt)
	}
}
