package redisad_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "hostaway_reviews/internal/adapters/redis"
	"hostaway_reviews/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func newStore(t *testing.T) (*redisad.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_DefaultAndMerge(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	got, err := s.Get(ctx, 7453)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationFlags{}, got)

	st, err := s.Set(ctx, 7453, domain.ModerationPatch{Featured: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationFlags{Featured: true}, st)

	st, err = s.Set(ctx, 7453, domain.ModerationPatch{Approved: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationFlags{Approved: true, Featured: true}, st)

	// only the patched field was written
	assert.Equal(t, "1", mr.HGet("moderation:review:7453", "approved"))
	assert.Equal(t, "1", mr.HGet("moderation:review:7453", "featured"))
	assert.Zero(t, mr.TTL("moderation:review:7453"), "entries never expire")

	// empty patch reads back current state without writing
	st, err = s.Set(ctx, 7454, domain.ModerationPatch{})
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationFlags{}, st)
	assert.False(t, mr.Exists("moderation:review:7454"))
}

func TestStore_GetMany(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Set(ctx, 1, domain.ModerationPatch{Approved: ptr(true)})
	require.NoError(t, err)
	_, err = s.Set(ctx, 3, domain.ModerationPatch{Featured: ptr(true), Approved: ptr(false)})
	require.NoError(t, err)

	got, err := s.GetMany(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int64]domain.ModerationFlags{
		1: {Approved: true},
		2: {},
		3: {Featured: true},
	}, got)

	empty, err := s.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_ConcurrentPatches(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Set(ctx, 9, domain.ModerationPatch{Approved: ptr(true)})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Set(ctx, 9, domain.ModerationPatch{Featured: ptr(true)})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationFlags{Approved: true, Featured: true}, got)
}

func TestStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	s := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = s.Close() })
	mr.Close()

	_, err = s.Set(context.Background(), 1, domain.ModerationPatch{Approved: ptr(true)})
	assert.Error(t, err)
	_, err = s.GetMany(context.Background(), []int64{1})
	assert.Error(t, err)
}
