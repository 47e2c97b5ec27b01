package pg

import (
	"context"
	"time"

	"LumeChat/global/config"
	"LumeChat/module/chat/model"
	"LumeChat/tools/errs"
)

func (p *PG) InsertStory(ctx context.Context, s *model.Story) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO stories (id, user_id, media_url, media_kind, caption, visibility, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, s.MediaURL, s.MediaKind, s.Caption, s.Visibility, s.CreatedAt, s.ExpiresAt)
	return wrapErr(err, "insert story")
}

func (p *PG) GetStory(ctx context.Context, id string) (*model.Story, error) {
	var s model.Story
	err := p.q.QueryRow(ctx, `
		SELECT id, user_id, media_url, media_kind, caption, visibility, created_at, expires_at
		FROM stories WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.MediaURL, &s.MediaKind, &s.Caption, &s.Visibility, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, wrapErr(err, "get story")
	}
	return &s, nil
}

func (p *PG) ListWorldStories(ctx context.Context, now time.Time) ([]model.Story, error) {
	return p.scanStories(ctx, `
		SELECT id, user_id, media_url, media_kind, caption, visibility, created_at, expires_at
		FROM stories
		WHERE visibility = 'world' AND expires_at > $1
		ORDER BY created_at`, now)
}

// ListFriendStories: friends-visible stories authored by the viewer or by
// anyone sharing a non-world conversation with the viewer. Expiry is filtered
// here too, so no read path ever sees a dead story.
func (p *PG) ListFriendStories(ctx context.Context, viewerID string, now time.Time) ([]model.Story, error) {
	return p.scanStories(ctx, `
		SELECT s.id, s.user_id, s.media_url, s.media_kind, s.caption, s.visibility, s.created_at, s.expires_at
		FROM stories s
		WHERE s.visibility = 'friends'
		  AND s.expires_at > $1
		  AND (s.user_id = $2 OR s.user_id IN (
		      SELECT other.user_id
		      FROM participants mine
		      JOIN participants other
		        ON other.conversation_id = mine.conversation_id
		       AND other.user_id <> mine.user_id
		      WHERE mine.user_id = $2
		        AND mine.conversation_id <> $3))
		ORDER BY s.created_at`, now, viewerID, config.WorldConversationID)
}

func (p *PG) scanStories(ctx context.Context, sql string, args ...any) ([]model.Story, error) {
	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr(err, "list stories")
	}
	defer rows.Close()

	var out []model.Story
	for rows.Next() {
		var s model.Story
		if err := rows.Scan(&s.ID, &s.UserID, &s.MediaURL, &s.MediaKind, &s.Caption,
			&s.Visibility, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, wrapErr(err, "scan story")
		}
		out = append(out, s)
	}
	return out, wrapErr(rows.Err(), "list stories rows")
}

func (p *PG) InsertStoryView(ctx context.Context, storyID, viewerID string, t time.Time) error {
	tag, err := p.q.Exec(ctx, `
		INSERT INTO story_views (story_id, viewer_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (story_id, viewer_id) DO NOTHING`,
		storyID, viewerID, t)
	if err != nil {
		return wrapErr(err, "insert story view")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrConflict.WithDetail("story already viewed")
	}
	return nil
}

func (p *PG) ViewedStoryIDs(ctx context.Context, viewerID string) (map[string]bool, error) {
	rows, err := p.q.Query(ctx, `SELECT story_id FROM story_views WHERE viewer_id = $1`, viewerID)
	if err != nil {
		return nil, wrapErr(err, "viewed story ids")
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr(err, "scan viewed story id")
		}
		out[id] = true
	}
	return out, wrapErr(rows.Err(), "viewed story ids rows")
}
