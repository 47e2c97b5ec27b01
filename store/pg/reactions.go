package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"

	"LumeChat/module/chat/model"
	"LumeChat/tools/errs"
)

// InsertReaction relies on the (message,user,emoji) unique constraint; a
// duplicate surfaces as ErrConflict for the caller to swallow.
func (p *PG) InsertReaction(ctx context.Context, r *model.Reaction) error {
	tag, err := p.q.Exec(ctx, `
		INSERT INTO reactions (id, message_id, user_id, emoji, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING`,
		r.ID, r.MessageID, r.UserID, r.Emoji, r.CreatedAt)
	if err != nil {
		return wrapErr(err, "insert reaction")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrConflict.WithDetail("reaction already present")
	}
	return nil
}

func (p *PG) DeleteReaction(ctx context.Context, messageID, userID, emoji string) (string, error) {
	var id string
	err := p.q.QueryRow(ctx, `
		DELETE FROM reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3
		RETURNING id`,
		messageID, userID, emoji).Scan(&id)
	if pkgerrors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapErr(err, "delete reaction")
	}
	return id, nil
}

func (p *PG) ListReactions(ctx context.Context, messageID string) ([]model.Reaction, error) {
	rows, err := p.q.Query(ctx, `
		SELECT id, message_id, user_id, emoji, created_at
		FROM reactions WHERE message_id = $1
		ORDER BY created_at`, messageID)
	if err != nil {
		return nil, wrapErr(err, "list reactions")
	}
	defer rows.Close()

	var out []model.Reaction
	for rows.Next() {
		var r model.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji, &r.CreatedAt); err != nil {
			return nil, wrapErr(err, "scan reaction")
		}
		out = append(out, r)
	}
	return out, wrapErr(rows.Err(), "list reactions rows")
}
