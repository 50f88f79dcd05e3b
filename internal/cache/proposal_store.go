// Package cache provides a Redis-backed store for generated schedule
// proposals so proposals survive across API replicas instead of living in
// per-process memory.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusforge/timetable-engine/internal/scheduler"
)

const keyPrefix = "schedule_proposal:"

// ProposalStore persists a batch's most recently generated GenerateResult
// for the store's configured TTL, so a later export call can reference it
// without recomputation.
type ProposalStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProposalStore wires a store against an open Redis client.
func NewProposalStore(client *redis.Client, ttl time.Duration) *ProposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ProposalStore{client: client, ttl: ttl}
}

// Put stores the batch's generated result, keyed by batch ID.
func (s *ProposalStore) Put(ctx context.Context, batchID string, result *scheduler.GenerateResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	if err := s.client.Set(ctx, key(batchID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store proposal: %w", err)
	}
	return nil
}

// Get returns the last stored result for a batch, or ok=false if absent or
// expired.
func (s *ProposalStore) Get(ctx context.Context, batchID string) (*scheduler.GenerateResult, bool, error) {
	raw, err := s.client.Get(ctx, key(batchID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load proposal: %w", err)
	}

	var result scheduler.GenerateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode proposal: %w", err)
	}
	return &result, true, nil
}

// Invalidate removes any stored proposal for a batch. No code in this
// repository calls it.
func (s *ProposalStore) Invalidate(ctx context.Context, batchID string) error {
	if err := s.client.Del(ctx, key(batchID)).Err(); err != nil {
		return fmt.Errorf("invalidate proposal: %w", err)
	}
	return nil
}

func key(batchID string) string {
	return keyPrefix + batchID
}
