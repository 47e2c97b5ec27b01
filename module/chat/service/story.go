package service

import (
	"context"
	"sort"
	"time"

	pkgerrors "github.com/pkg/errors"

	"LumeChat/module/chat/model"
	"LumeChat/service/feed"
	"LumeChat/tools/errs"
	"LumeChat/tools/ids"
)

// PostStory creates an immutable story expiring StoryTTL after creation.
func (s *Service) PostStory(ctx context.Context, selfID, mediaURL, mediaKind, caption, visibility string) (*model.Story, error) {
	if selfID == "" {
		return nil, errs.ErrUnauthenticated
	}
	if mediaURL == "" {
		return nil, errs.ErrValidation.WithDetail("story requires media")
	}
	switch mediaKind {
	case model.MediaImage, model.MediaVideo:
	default:
		return nil, errs.ErrValidation.WithDetail("story media must be image or video")
	}
	switch visibility {
	case model.StoryVisibilityWorld, model.StoryVisibilityFriends:
	default:
		return nil, errs.ErrValidation.WithDetail("unknown visibility " + visibility)
	}

	now := time.Now().UTC()
	st := &model.Story{
		ID:         ids.New(),
		UserID:     selfID,
		MediaURL:   mediaURL,
		MediaKind:  mediaKind,
		Caption:    caption,
		Visibility: visibility,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.StoryTTL),
	}
	if err := s.store.InsertStory(ctx, st); err != nil {
		return nil, err
	}
	s.publish(ctx, feed.Event{
		Op:    feed.OpInsert,
		Table: feed.TableStories,
		Row:   feed.RowOf(st),
	})
	return st, nil
}

// StoryFeed lists the viewer's stories for one tab, grouped by author and
// ordered: the viewer's own group first, then groups holding at least one
// story the viewer has not seen, then the rest. Ties break on latest story
// first, then author id, so every client derives the same order.
//
// Expiry is applied before anything else; an expired story never appears in
// any scope regardless of visibility.
func (s *Service) StoryFeed(ctx context.Context, selfID, scope string) ([]model.StoryGroup, error) {
	if selfID == "" {
		return nil, errs.ErrUnauthenticated
	}
	now := time.Now().UTC()

	var (
		stories []model.Story
		err     error
	)
	switch scope {
	case model.StoryVisibilityWorld:
		stories, err = s.store.ListWorldStories(ctx, now)
	case model.StoryVisibilityFriends:
		stories, err = s.store.ListFriendStories(ctx, selfID, now)
	default:
		return nil, errs.ErrValidation.WithDetail("unknown scope " + scope)
	}
	if err != nil {
		return nil, err
	}

	viewed, err := s.store.ViewedStoryIDs(ctx, selfID)
	if err != nil {
		return nil, err
	}

	byAuthor := make(map[string]*model.StoryGroup)
	var order []string
	for _, st := range stories {
		g, ok := byAuthor[st.UserID]
		if !ok {
			g = &model.StoryGroup{AuthorID: st.UserID, AllViewed: true}
			byAuthor[st.UserID] = g
			order = append(order, st.UserID)
		}
		g.Stories = append(g.Stories, st)
		// own stories never count against the unviewed ordering
		if st.UserID != selfID && !viewed[st.ID] {
			g.AllViewed = false
		}
	}

	groups := make([]model.StoryGroup, 0, len(order))
	for _, author := range order {
		groups = append(groups, *byAuthor[author])
	}

	latest := func(g model.StoryGroup) time.Time {
		return g.Stories[len(g.Stories)-1].CreatedAt
	}
	sort.SliceStable(groups, func(i, j int) bool {
		gi, gj := groups[i], groups[j]
		if (gi.AuthorID == selfID) != (gj.AuthorID == selfID) {
			return gi.AuthorID == selfID
		}
		if gi.AllViewed != gj.AllViewed {
			return !gi.AllViewed
		}
		li, lj := latest(gi), latest(gj)
		if !li.Equal(lj) {
			return li.After(lj)
		}
		return gi.AuthorID < gj.AuthorID
	})
	return groups, nil
}

// ViewStory records the first time a viewer opens a story. The author viewing
// their own story writes nothing; a repeat view hits the unique constraint
// and is swallowed.
func (s *Service) ViewStory(ctx context.Context, selfID, storyID string) error {
	if selfID == "" {
		return errs.ErrUnauthenticated
	}
	st, err := s.store.GetStory(ctx, storyID)
	if err != nil {
		return err
	}
	if st.Expired(time.Now().UTC()) {
		return errs.ErrNotFound.WithDetail("story " + storyID)
	}
	if st.UserID == selfID {
		return nil
	}
	err = s.store.InsertStoryView(ctx, storyID, selfID, time.Now().UTC())
	if pkgerrors.Is(err, errs.ErrConflict) {
		return nil
	}
	return err
}
