// Package redis holds the go-redis backed stores: idempotency replay
// and the request rate limiter's counters.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// StoredResponse is a replayable HTTP response captured under an
// Idempotency-Key.
type StoredResponse struct {
	Status int
	Body   []byte
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*StoredResponse, error) {
	val, err := s.client.Get(ctx, "idemp:"+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp StoredResponse
	err = json.Unmarshal(val, &resp)
	return &resp, err
}

func (s *IdempotencyStore) Set(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "idemp:"+key, data, ttl).Err()
}
