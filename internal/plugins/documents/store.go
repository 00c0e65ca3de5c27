package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Form state expires after a week of inactivity; every save renews the TTL.
const formStateTTL = 7 * 24 * time.Hour

// FormStore persists in-progress form state per user and template.
type FormStore interface {
	// Load returns the stored state, or nil when none exists.
	Load(ctx context.Context, userID, templateID string) (*FormState, error)
	Save(ctx context.Context, userID string, state *FormState) error
	Delete(ctx context.Context, userID, templateID string) error
}

// redisFormStore implements FormStore on Redis JSON blobs.
type redisFormStore struct {
	redis *redis.Client
}

// NewFormStore creates a Redis-backed form store.
func NewFormStore(rdb *redis.Client) FormStore {
	return &redisFormStore{redis: rdb}
}

func formKey(userID, templateID string) string {
	return fmt.Sprintf("form:%s:%s", userID, templateID)
}

func (s *redisFormStore) Load(ctx context.Context, userID, templateID string) (*FormState, error) {
	data, err := s.redis.Get(ctx, formKey(userID, templateID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading form state: %w", err)
	}

	var state FormState
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt state is unrecoverable; start over.
		_ = s.redis.Del(ctx, formKey(userID, templateID)).Err()
		return nil, nil
	}
	if state.Values == nil {
		state.Values = map[string]string{}
	}
	if state.Instances == nil {
		state.Instances = map[string][]map[string]string{}
	}
	return &state, nil
}

func (s *redisFormStore) Save(ctx context.Context, userID string, state *FormState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding form state: %w", err)
	}
	if err := s.redis.Set(ctx, formKey(userID, state.TemplateID), data, formStateTTL).Err(); err != nil {
		return fmt.Errorf("saving form state: %w", err)
	}
	return nil
}

func (s *redisFormStore) Delete(ctx context.Context, userID, templateID string) error {
	if err := s.redis.Del(ctx, formKey(userID, templateID)).Err(); err != nil {
		return fmt.Errorf("deleting form state: %w", err)
	}
	return nil
}
