package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// Redis key prefixes. The same cookie token keys both entries: a short-lived
// access entry holding the session snapshot and a long-lived refresh entry
// holding only the user id. Losing the access entry while the refresh entry
// survives means the session can be re-issued without re-authentication.
const (
	sessionKeyPrefix = "session:"
	refreshKeyPrefix = "refresh:"
)

// Transient Redis failures are retried a bounded number of times with a
// doubling delay before the lookup is treated as unauthenticated.
const (
	sessionRetryAttempts = 3
	sessionRetryDelay    = 100 * time.Millisecond
)

func sessionKey(token string) string { return sessionKeyPrefix + token }
func refreshKey(token string) string { return refreshKeyPrefix + token }

// createSession stores a new session in Redis and returns the cookie token.
func (s *authService) createSession(ctx context.Context, user *User) (string, *Session, error) {
	token, err := generateToken(sessionTokenBytes)
	if err != nil {
		return "", nil, fmt.Errorf("generating session token: %w", err)
	}

	now := time.Now().UTC()
	session := &Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.DisplayName,
		IsAdmin:   user.IsAdmin,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", nil, fmt.Errorf("marshaling session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(token), data, s.sessionTTL).Err(); err != nil {
		return "", nil, fmt.Errorf("storing session: %w", err)
	}
	if err := s.redis.Set(ctx, refreshKey(token), user.ID, s.refreshTTL).Err(); err != nil {
		return "", nil, fmt.Errorf("storing refresh entry: %w", err)
	}

	s.publish(ctx, user.ID, EventSignedIn)
	return token, session, nil
}

// GetSession resolves a cookie token to a session. A live access entry wins
// outright. When it has lapsed but the refresh entry survives, the user is
// reloaded from the database and a fresh access entry with a later expiry is
// issued in place. Only when both entries are gone is the caller
// unauthenticated.
func (s *authService) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized("not authenticated")
	}

	data, err := s.getWithRetry(ctx, sessionKey(token))
	if err == nil {
		var session Session
		if jsonErr := json.Unmarshal(data, &session); jsonErr != nil {
			// Corrupt entry; treat as signed out rather than guessing.
			s.redis.Del(ctx, sessionKey(token), refreshKey(token))
			return nil, apperror.NewUnauthorized("not authenticated")
		}
		return &session, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Infrastructure failure after retries: fail closed.
		slog.Error("session lookup failed", slog.Any("error", err))
		return nil, apperror.NewUnauthorized("not authenticated")
	}

	return s.reissueSession(ctx, token)
}

// Refresh force-reissues the access entry for a token, extending its expiry.
// Called when a client tab regains visibility so long-idle sessions converge
// to the server's view immediately instead of on the next request.
func (s *authService) Refresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized("not authenticated")
	}
	return s.reissueSession(ctx, token)
}

// reissueSession rebuilds the access entry from the refresh entry, loading a
// fresh user snapshot so role or name changes are picked up.
func (s *authService) reissueSession(ctx context.Context, token string) (*Session, error) {
	raw, err := s.getWithRetry(ctx, refreshKey(token))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("refresh lookup failed", slog.Any("error", err))
		}
		return nil, apperror.NewUnauthorized("not authenticated")
	}

	userID := string(raw)
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		// The user was deleted after the session was issued.
		s.redis.Del(ctx, sessionKey(token), refreshKey(token))
		return nil, apperror.NewUnauthorized("not authenticated")
	}

	now := time.Now().UTC()
	session := &Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.DisplayName,
		IsAdmin:   user.IsAdmin,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("marshaling session: %w", err))
	}
	if err := s.redis.Set(ctx, sessionKey(token), data, s.sessionTTL).Err(); err != nil {
		slog.Error("failed to store refreshed session", slog.Any("error", err))
		return nil, apperror.NewUnauthorized("not authenticated")
	}

	s.publish(ctx, user.ID, EventRefreshed)
	return session, nil
}

// ClearSession removes both session entries and broadcasts sign-out so every
// open tab for the user converges to the signed-out state. Clearing an
// already-absent token succeeds.
func (s *authService) ClearSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	userID := ""
	if raw, err := s.getWithRetry(ctx, refreshKey(token)); err == nil {
		userID = string(raw)
	}

	if err := s.redis.Del(ctx, sessionKey(token), refreshKey(token)).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("clearing session: %w", err))
	}

	if userID != "" {
		s.publish(ctx, userID, EventSignedOut)
	}
	return nil
}

// getWithRetry performs a Redis GET with bounded retries on transient
// failures. redis.Nil is returned immediately -- a genuine miss is not a
// failure.
func (s *authService) getWithRetry(ctx context.Context, key string) ([]byte, error) {
	delay := sessionRetryDelay
	var lastErr error
	for attempt := 0; attempt < sessionRetryAttempts; attempt++ {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err == nil {
			return data, nil
		}
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("redis get %s: %w", key, lastErr)
}

// --- Background session keeper ---

// StartRefresh launches the keeper goroutine. It periodically scans live
// access entries and drops those whose refresh entry has expired, publishing
// sign-out so connected clients learn about the expiry without a request.
func (s *authService) StartRefresh() {
	if s.keeperStop != nil {
		return
	}
	s.keeperStop = make(chan struct{})

	go func() {
		ticker := time.NewTicker(s.keeperInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.keeperStop:
				return
			case <-ticker.C:
				s.sweepSessions(context.Background())
			}
		}
	}()

	slog.Info("session keeper started", slog.Duration("interval", s.keeperInterval))
}

// StopRefresh halts the keeper goroutine. Safe to call when never started.
func (s *authService) StopRefresh() {
	if s.keeperStop == nil {
		return
	}
	close(s.keeperStop)
	s.keeperStop = nil
}

// sweepSessions removes access entries orphaned by an expired refresh entry.
func (s *authService) sweepSessions(ctx context.Context) {
	iter := s.redis.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	swept := 0
	for iter.Next(ctx) {
		key := iter.Val()
		token := strings.TrimPrefix(key, sessionKeyPrefix)

		exists, err := s.redis.Exists(ctx, refreshKey(token)).Result()
		if err != nil {
			slog.Warn("session sweep check failed", slog.Any("error", err))
			continue
		}
		if exists > 0 {
			continue
		}

		userID := ""
		if data, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var session Session
			if json.Unmarshal(data, &session) == nil {
				userID = session.UserID
			}
		}

		if err := s.redis.Del(ctx, key).Err(); err != nil {
			slog.Warn("session sweep delete failed", slog.Any("error", err))
			continue
		}
		swept++
		if userID != "" {
			s.publish(ctx, userID, EventSignedOut)
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("session sweep scan failed", slog.Any("error", err))
	}
	if swept > 0 {
		slog.Info("session keeper swept expired sessions", slog.Int("count", swept))
	}
}
