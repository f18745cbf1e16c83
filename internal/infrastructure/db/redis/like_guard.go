package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLikeWindow = 2 * time.Second

// setNXer is the slice of the Redis client the guard needs.
type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// LikeGuard holds a short per (user, article) window so that a second like
// toggle arriving inside it replays state instead of flipping it again.
// Key format: like:toggle:<user_id>:<article_id>
type LikeGuard struct {
	client setNXer
	window time.Duration
}

// NewLikeGuard wraps the given Redis client. If window <= 0, defaultLikeWindow is used.
func NewLikeGuard(client setNXer, window time.Duration) *LikeGuard {
	if window <= 0 {
		window = defaultLikeWindow
	}
	return &LikeGuard{client: client, window: window}
}

// Acquire reports whether the caller owns the window for this pair. The key
// expires on its own; it is never released early.
func (g *LikeGuard) Acquire(ctx context.Context, userID, articleID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(userID, articleID), "1", g.window).Result()
	if err != nil {
		return false, fmt.Errorf("like guard: %w", err)
	}
	return ok, nil
}

func (g *LikeGuard) key(userID, articleID string) string {
	return fmt.Sprintf("like:toggle:%s:%s", userID, articleID)
}
