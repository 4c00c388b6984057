package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RedisTouchStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTouchStore(client)
}

func TestRedisTouchStore_TopOrderedByTouches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordTouch(ctx, "a1"))
	require.NoError(t, s.RecordTouch(ctx, "a2"))
	require.NoError(t, s.RecordTouch(ctx, "a2"))
	require.NoError(t, s.RecordTouch(ctx, "a3"))
	require.NoError(t, s.RecordTouch(ctx, "a3"))
	require.NoError(t, s.RecordTouch(ctx, "a3"))

	top, err := s.GetTopTouched(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Touched{{ArticleID: "a3", Score: 3}, {ArticleID: "a2", Score: 2}}, top)
}

func TestRedisTouchStore_ClearTouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordTouch(ctx, "a1"))
	require.NoError(t, s.RecordTouch(ctx, "a2"))
	require.NoError(t, s.ClearTouched(ctx, Touched{ArticleID: "a1", Score: 1}))
	require.NoError(t, s.ClearTouched(ctx))

	top, err := s.GetTopTouched(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []Touched{{ArticleID: "a2", Score: 1}}, top)
}

func TestRedisTouchStore_ClearKeepsRetouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordTouch(ctx, "a1"))
	require.NoError(t, s.RecordTouch(ctx, "a2"))
	read, err := s.GetTopTouched(ctx, 10)
	require.NoError(t, err)
	require.Len(t, read, 2)

	// a1 changes again after the read.
	require.NoError(t, s.RecordTouch(ctx, "a1"))
	require.NoError(t, s.ClearTouched(ctx, read...))

	top, err := s.GetTopTouched(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []Touched{{ArticleID: "a1", Score: 2}}, top)
}

func TestRedisTouchStore_ClearMissingMember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ClearTouched(ctx, Touched{ArticleID: "gone", Score: 1}))

	top, err := s.GetTopTouched(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
