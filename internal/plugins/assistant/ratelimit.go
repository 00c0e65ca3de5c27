package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ChatLimiter enforces the per-user LLM budget with a sliding window kept in
// a Redis sorted set. Scores are call timestamps; entries older than the
// window are trimmed on every check, so the set self-cleans.
type ChatLimiter struct {
	redis       *redis.Client
	maxRequests int
	window      time.Duration
}

// NewChatLimiter creates a limiter allowing maxRequests calls per window.
func NewChatLimiter(rdb *redis.Client, maxRequests int, window time.Duration) *ChatLimiter {
	return &ChatLimiter{redis: rdb, maxRequests: maxRequests, window: window}
}

func limitKey(userID string) string {
	return "chatlimit:" + userID
}

// Allow records an LLM call for the user if the budget permits. When the
// budget is exhausted it returns false and how long until a slot frees up.
func (l *ChatLimiter) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	key := limitKey(userID)
	now := time.Now()
	cutoff := now.Add(-l.window)

	if err := l.redis.ZRemRangeByScore(ctx, key,
		"0", fmt.Sprintf("%d", cutoff.UnixMilli())).Err(); err != nil {
		return false, 0, fmt.Errorf("trimming rate window: %w", err)
	}

	count, err := l.redis.ZCard(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("counting rate window: %w", err)
	}
	if count >= int64(l.maxRequests) {
		// Oldest remaining entry decides when the window frees up.
		oldest, err := l.redis.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err != nil || len(oldest) == 0 {
			return false, l.window, nil
		}
		at := time.UnixMilli(int64(oldest[0].Score))
		retryAfter := time.Until(at.Add(l.window))
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	member := fmt.Sprintf("%d:%s", now.UnixMilli(), uuid.NewString())
	if err := l.redis.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: member,
	}).Err(); err != nil {
		return false, 0, fmt.Errorf("recording rate window: %w", err)
	}
	if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
		return false, 0, fmt.Errorf("expiring rate window: %w", err)
	}
	return true, 0, nil
}

// retryMessage phrases the wait for the chat UI, rounding up to whole
// minutes so "0 minutes" never appears.
func retryMessage(retryAfter time.Duration) string {
	minutes := int(retryAfter.Minutes())
	if retryAfter > time.Duration(minutes)*time.Minute {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("you have reached the request limit, please try again in %d %s", minutes, unit)
}
