package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Presence is a heartbeat with TTL, not a sticky boolean: a client that dies
// without cleanup simply stops renewing and the key expires. Readers treat a
// missing key as offline.
//
// key: chat:presence:<user>

func presenceKey(user string) string { return "chat:presence:" + user }

// Heartbeat marks the user online and renews the TTL.
func Heartbeat(ctx context.Context, user string, ttl time.Duration) error {
	c, err := client()
	if err != nil {
		return err
	}
	return c.Set(ctx, presenceKey(user), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

// Offline removes the key ahead of its TTL (explicit logout).
func Offline(ctx context.Context, user string) error {
	c, err := client()
	if err != nil {
		return err
	}
	return c.Del(ctx, presenceKey(user)).Err()
}

// IsOnline reports whether a live heartbeat key exists.
func IsOnline(ctx context.Context, user string) (bool, error) {
	c, err := client()
	if err != nil {
		return false, err
	}
	_, err = c.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
