//go:build integration

package cache

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "localhost:6379"
	}
	store, err := NewIdempotencyStore(url, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Ping(t.Context()), "redis must be running for integration tests")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	store := newRedisStore(t)
	ctx := t.Context()
	key := "test:" + uuid.NewString()

	prior, claimed, err := store.Begin(ctx, key)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Nil(t, prior)

	prior, claimed, err = store.Begin(ctx, key)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.True(t, prior.Pending)

	require.NoError(t, store.Complete(ctx, key, Response{Status: 201, ContentType: "application/json", Body: []byte(`{"id":"res-1"}`)}))

	prior, claimed, err = store.Begin(ctx, key)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.False(t, prior.Pending)
	assert.Equal(t, 201, prior.Status)
	assert.JSONEq(t, `{"id":"res-1"}`, string(prior.Body))

	require.NoError(t, store.Release(ctx, key))
	_, claimed, err = store.Begin(ctx, key)
	require.NoError(t, err)
	assert.True(t, claimed)
	require.NoError(t, store.Release(ctx, key))
}
