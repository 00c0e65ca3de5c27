package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// eventChannel returns the pub/sub channel carrying auth-state events for a
// user. Every browser tab holds an event stream subscription on this channel
// so sign-in, sign-out, and refresh in one tab reach the others.
func eventChannel(userID string) string {
	return "auth:events:" + userID
}

// publish broadcasts an auth-state event. Delivery is best-effort: a failed
// publish never fails the operation that triggered it.
func (s *authService) publish(ctx context.Context, userID, eventType string) {
	event := Event{
		Type:   eventType,
		UserID: userID,
		At:     time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal auth event", slog.Any("error", err))
		return
	}
	if err := s.redis.Publish(ctx, eventChannel(userID), data).Err(); err != nil {
		slog.Warn("failed to publish auth event",
			slog.String("type", eventType),
			slog.Any("error", err),
		)
	}
}

// Subscribe returns a channel of auth-state events for a user. The channel
// closes when ctx ends or the Redis subscription drops.
func (s *authService) Subscribe(ctx context.Context, userID string) (<-chan Event, error) {
	sub := s.redis.Subscribe(ctx, eventChannel(userID))
	// Force the subscription to be established before returning so callers
	// don't miss events raced against the subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Event, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.Warn("failed to decode auth event", slog.Any("error", err))
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
