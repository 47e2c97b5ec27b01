package pg

import (
	"context"
	"time"

	"LumeChat/module/chat/model"
	"LumeChat/tools/errs"
)

func (p *PG) CreateProfile(ctx context.Context, prof *model.Profile) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO profiles (id, display_name, handle, avatar_url, last_seen_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		prof.ID, prof.DisplayName, prof.Handle, prof.AvatarURL, prof.CreatedAt)
	return wrapErr(err, "create profile")
}

func (p *PG) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var prof model.Profile
	err := p.q.QueryRow(ctx, `
		SELECT id, display_name, handle, avatar_url, last_seen_at, last_name_change_at, created_at
		FROM profiles WHERE id = $1`, id).
		Scan(&prof.ID, &prof.DisplayName, &prof.Handle, &prof.AvatarURL,
			&prof.LastSeenAt, &prof.LastNameChangeAt, &prof.CreatedAt)
	if err != nil {
		return nil, wrapErr(err, "get profile")
	}
	return &prof, nil
}

// UpdateDisplayName enforces the cooldown in the UPDATE predicate so the check
// and the write are one atomic statement at the authority.
func (p *PG) UpdateDisplayName(ctx context.Context, userID, name string, now time.Time, cooldown time.Duration) error {
	tag, err := p.q.Exec(ctx, `
		UPDATE profiles
		SET display_name = $2, last_name_change_at = $3
		WHERE id = $1
		  AND (last_name_change_at IS NULL OR last_name_change_at <= $4)`,
		userID, name, now, now.Add(-cooldown))
	if err != nil {
		return wrapErr(err, "update display name")
	}
	if tag.RowsAffected() == 0 {
		// Either the profile is missing or the window has not elapsed.
		var exists bool
		if err := p.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return wrapErr(err, "update display name recheck")
		}
		if !exists {
			return errs.ErrNotFound.WithDetail("profile " + userID)
		}
		return errs.ErrCooldownActive
	}
	return nil
}

func (p *PG) UpdateHandle(ctx context.Context, userID, handle string) error {
	tag, err := p.q.Exec(ctx, `UPDATE profiles SET handle = $2 WHERE id = $1`, userID, handle)
	if err != nil {
		return wrapErr(err, "update handle")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound.WithDetail("profile " + userID)
	}
	return nil
}

func (p *PG) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	tag, err := p.q.Exec(ctx, `UPDATE profiles SET avatar_url = $2 WHERE id = $1`, userID, avatarURL)
	if err != nil {
		return wrapErr(err, "update avatar")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound.WithDetail("profile " + userID)
	}
	return nil
}

func (p *PG) TouchLastSeen(ctx context.Context, userID string, t time.Time) error {
	_, err := p.q.Exec(ctx, `UPDATE profiles SET last_seen_at = $2 WHERE id = $1`, userID, t)
	return wrapErr(err, "touch last seen")
}
