package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"

	"LumeChat/global/config"
	"LumeChat/module/chat/model"
	"LumeChat/tools/errs"
)

// FindPrivateConversation looks for the one non-group conversation whose
// participant set is exactly the unordered pair. The world conversation is
// excluded by id; group conversations by flag.
func (p *PG) FindPrivateConversation(ctx context.Context, userA, userB string) (string, error) {
	var id string
	err := p.q.QueryRow(ctx, `
		SELECT c.id
		FROM conversations c
		JOIN participants pa ON pa.conversation_id = c.id AND pa.user_id = $1
		JOIN participants pb ON pb.conversation_id = c.id AND pb.user_id = $2
		WHERE c.is_group = FALSE
		  AND c.id <> $3
		LIMIT 1`,
		userA, userB, config.WorldConversationID).Scan(&id)
	if pkgerrors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapErr(err, "find private conversation")
	}
	return id, nil
}

// CreateConversation inserts idempotently by id, so the world-conversation
// bootstrap can run on every startup.
func (p *PG) CreateConversation(ctx context.Context, c *model.Conversation) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO conversations (id, is_group, name, theme, last_activity_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO NOTHING`,
		c.ID, c.IsGroup, c.Name, c.Theme, c.CreatedAt)
	return wrapErr(err, "create conversation")
}

func (p *PG) AddParticipant(ctx context.Context, conversationID, userID string) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO participants (conversation_id, user_id, joined_at)
		VALUES ($1, $2, now())
		ON CONFLICT (conversation_id, user_id) DO NOTHING`,
		conversationID, userID)
	return wrapErr(err, "add participant")
}

func (p *PG) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	err := p.q.QueryRow(ctx, `
		SELECT id, is_group, name, theme, last_activity_at, created_at
		FROM conversations WHERE id = $1`, id).
		Scan(&c.ID, &c.IsGroup, &c.Name, &c.Theme, &c.LastActivityAt, &c.CreatedAt)
	if err != nil {
		return nil, wrapErr(err, "get conversation")
	}
	return &c, nil
}

func (p *PG) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	rows, err := p.q.Query(ctx, `
		SELECT c.id, c.is_group, c.name, c.theme, c.last_activity_at, c.created_at
		FROM conversations c
		JOIN participants pa ON pa.conversation_id = c.id
		WHERE pa.user_id = $1
		ORDER BY c.last_activity_at DESC`, userID)
	if err != nil {
		return nil, wrapErr(err, "list conversations")
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.IsGroup, &c.Name, &c.Theme, &c.LastActivityAt, &c.CreatedAt); err != nil {
			return nil, wrapErr(err, "scan conversation")
		}
		out = append(out, c)
	}
	return out, wrapErr(rows.Err(), "list conversations rows")
}

func (p *PG) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var ok bool
	err := p.q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM participants WHERE conversation_id = $1 AND user_id = $2)`,
		conversationID, userID).Scan(&ok)
	if err != nil {
		return false, wrapErr(err, "is participant")
	}
	return ok, nil
}

func (p *PG) TouchConversation(ctx context.Context, id string, t time.Time) error {
	_, err := p.q.Exec(ctx, `UPDATE conversations SET last_activity_at = $2 WHERE id = $1`, id, t)
	return wrapErr(err, "touch conversation")
}

func (p *PG) SetConversationTheme(ctx context.Context, id, theme string) error {
	tag, err := p.q.Exec(ctx, `UPDATE conversations SET theme = $2 WHERE id = $1`, id, theme)
	if err != nil {
		return wrapErr(err, "set theme")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound.WithDetail("conversation " + id)
	}
	return nil
}

// FriendIDs: everyone sharing a non-world conversation with userID.
func (p *PG) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := p.q.Query(ctx, `
		SELECT DISTINCT other.user_id
		FROM participants mine
		JOIN participants other
		  ON other.conversation_id = mine.conversation_id
		 AND other.user_id <> mine.user_id
		WHERE mine.user_id = $1
		  AND mine.conversation_id <> $2`,
		userID, config.WorldConversationID)
	if err != nil {
		return nil, wrapErr(err, "friend ids")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr(err, "scan friend id")
		}
		out = append(out, id)
	}
	return out, wrapErr(rows.Err(), "friend ids rows")
}
