package conversation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/brain-service/internal/db"
)

// Runs only when BRAIN_TEST_REDIS_URL points at a disposable Redis.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("BRAIN_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BRAIN_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := db.NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	store := NewRedisStore(rdb, time.Minute)
	s, err := store.Create(ctx)
	require.NoError(t, err)

	ttl, err := rdb.TTL(ctx, key(s.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	s.AppendUser("list resumes")
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "list resumes", got.Messages[0].Content)

	require.NoError(t, store.End(ctx, s.ID))
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
