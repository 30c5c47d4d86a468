package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "idempotency:"

// Response is a finished request replayed for a repeated Idempotency-Key.
type Response struct {
	Pending     bool   `json:"pending"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore remembers the outcome of write requests in Redis.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore accepts either a redis:// URL or a bare host:port.
func NewIdempotencyStore(url string, ttl time.Duration) (*IdempotencyStore, error) {
	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	return &IdempotencyStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Begin claims key for a new request. When the key was already claimed it
// returns the stored response instead; Pending is set while the first
// request is still running.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (*Response, bool, error) {
	marker, _ := json.Marshal(Response{Pending: true})
	ok, err := s.client.SetNX(ctx, keyPrefix+key, marker, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SetNX and Get; treat as a fresh claim next time.
		return &Response{Pending: true}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read idempotency key: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &resp, false, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp Response) error {
	resp.Pending = false
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err()
}

// Release forgets key so the client may retry a request that failed.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}
