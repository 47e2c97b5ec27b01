package pg

import (
	"context"
	"time"

	"LumeChat/module/chat/model"
	"LumeChat/tools/errs"
)

// InsertMessage writes the row and reads back the store-assigned created_at
// and seq, which are what message ordering is derived from.
func (p *PG) InsertMessage(ctx context.Context, m *model.Message) error {
	err := p.q.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, media_url, media_kind, reply_to_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, seq`,
		m.ID, m.ConversationID, m.SenderID, m.Content, m.MediaURL, m.MediaKind, m.ReplyToID).
		Scan(&m.CreatedAt, &m.Seq)
	return wrapErr(err, "insert message")
}

func (p *PG) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := p.q.QueryRow(ctx, `
		SELECT id, conversation_id, sender_id, content, media_url, media_kind,
		       is_read, deleted_at, reply_to_id, created_at, seq
		FROM messages WHERE id = $1`, id).
		Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.MediaURL, &m.MediaKind,
			&m.IsRead, &m.DeletedAt, &m.ReplyToID, &m.CreatedAt, &m.Seq)
	if err != nil {
		return nil, wrapErr(err, "get message")
	}
	return &m, nil
}

func (p *PG) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := p.q.Query(ctx, `
		SELECT id, conversation_id, sender_id, content, media_url, media_kind,
		       is_read, deleted_at, reply_to_id, created_at, seq
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, seq
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, wrapErr(err, "list messages")
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.MediaURL, &m.MediaKind,
			&m.IsRead, &m.DeletedAt, &m.ReplyToID, &m.CreatedAt, &m.Seq); err != nil {
			return nil, wrapErr(err, "scan message")
		}
		out = append(out, m)
	}
	return out, wrapErr(rows.Err(), "list messages rows")
}

func (p *PG) MarkMessageRead(ctx context.Context, id string) error {
	tag, err := p.q.Exec(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "mark read")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound.WithDetail("message " + id)
	}
	return nil
}

// SoftDeleteMessage sets deleted_at once; a second call matches no row and is
// a no-op, keeping the transition terminal and idempotent.
func (p *PG) SoftDeleteMessage(ctx context.Context, id string, t time.Time) error {
	_, err := p.q.Exec(ctx, `
		UPDATE messages SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL`, id, t)
	return wrapErr(err, "soft delete message")
}
