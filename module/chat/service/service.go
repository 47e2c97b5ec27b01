// Package service is the chat core: the conversation resolver, the
// message/story lifecycle engine, and profile mutations. Handlers call in
// with a verified caller id; everything here returns coded errors.
package service

import (
	"context"
	"time"

	"LumeChat/logger"
	"LumeChat/service/feed"
	"LumeChat/store"
)

type Config struct {
	WorldID      string
	NameCooldown time.Duration
	StoryTTL     time.Duration
}

type Service struct {
	store store.Store
	pub   feed.Publisher
	cfg   Config
}

func New(st store.Store, pub feed.Publisher, cfg Config) *Service {
	if cfg.NameCooldown <= 0 {
		cfg.NameCooldown = 12 * time.Hour
	}
	if cfg.StoryTTL <= 0 {
		cfg.StoryTTL = 24 * time.Hour
	}
	return &Service{store: st, pub: pub, cfg: cfg}
}

// publish pushes a change event onto the feed. The write already committed;
// a feed failure is logged and swallowed so the send path never depends on
// subscription health.
func (s *Service) publish(ctx context.Context, ev feed.Event) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		logger.Errorf("[chat] feed publish %s/%s failed: %v", ev.Table, ev.Op, err)
	}
}
