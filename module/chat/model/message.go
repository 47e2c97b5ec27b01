package model

import (
	"strings"
	"time"
)

// Media kinds carried by a message.
const (
	MediaImage    = "image"
	MediaVideo    = "video"
	MediaGallery  = "gallery" // multiple image refs in one message
	MediaDocument = "document"
)

// Placeholder labels for messages whose text slot is not the user's caption.
// These exact literals are treated as non-content by renderers.
const (
	PlaceholderImage   = "📷 Photo"
	PlaceholderGallery = "📷 Photos"
	PlaceholderVideo   = "🎥 Video"
	PlaceholderFile    = "📎 File"
)

// TombstoneText is rendered in place of soft-deleted content.
const TombstoneText = "Message deleted"

// Message belongs to exactly one conversation. MediaURL holds one ref, or a
// comma-joined ordered list when MediaKind is gallery. A soft-deleted message
// keeps its row so replies and reactions stay referentially intact, but its
// body and media are inaccessible to every consumer.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	MediaURL       string     `json:"media_url,omitempty"`
	MediaKind      string     `json:"media_kind,omitempty"`
	IsRead         bool       `json:"is_read"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	ReplyToID      *string    `json:"reply_to_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	Seq            int64      `json:"seq"` // store-assigned insertion order, breaks created_at ties
}

func (m *Message) Deleted() bool { return m.DeletedAt != nil }

// DisplayContent is what a reader may show: the tombstone for deleted
// messages, the body otherwise.
func (m *Message) DisplayContent() string {
	if m.Deleted() {
		return TombstoneText
	}
	return m.Content
}

// Redact strips the body and media of a deleted message in place, leaving the
// tombstone. Reads and feed publishes go through this so the original content
// never crosses a serving boundary; the row itself keeps the body.
func (m *Message) Redact() {
	if !m.Deleted() {
		return
	}
	m.Content = TombstoneText
	m.MediaURL = ""
	m.MediaKind = ""
}

// DisplayMediaURLs returns the renderable media refs, empty for deleted
// messages.
func (m *Message) DisplayMediaURLs() []string {
	if m.Deleted() || m.MediaURL == "" {
		return nil
	}
	if m.MediaKind == MediaGallery {
		return strings.Split(m.MediaURL, ",")
	}
	return []string{m.MediaURL}
}

// PlaceholderFor maps a media kind to its fixed label.
func PlaceholderFor(kind string) string {
	switch kind {
	case MediaImage:
		return PlaceholderImage
	case MediaGallery:
		return PlaceholderGallery
	case MediaVideo:
		return PlaceholderVideo
	default:
		return PlaceholderFile
	}
}

// IsPlaceholder reports whether content is one of the fixed non-content
// labels, so renderers know not to show it as a text body alongside media.
func IsPlaceholder(content string) bool {
	switch content {
	case PlaceholderImage, PlaceholderGallery, PlaceholderVideo, PlaceholderFile:
		return true
	}
	return false
}
