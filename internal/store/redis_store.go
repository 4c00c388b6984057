// Package store tracks which articles had relation changes since the last
// reconciliation pass.
package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const touchedArticlesKey = "conduit:projection:touched"

// clearUnchangedScript removes each member only while its score still
// equals the score the caller read. ARGV holds member, score pairs.
var clearUnchangedScript = redis.NewScript(`
local removed = 0
for i = 1, #ARGV, 2 do
	local current = redis.call('ZSCORE', KEYS[1], ARGV[i])
	if current and tonumber(current) == tonumber(ARGV[i + 1]) then
		removed = removed + redis.call('ZREM', KEYS[1], ARGV[i])
	end
end
return removed
`)

// Touched is an article in the touched set with the score it was read at.
type Touched struct {
	ArticleID string
	Score     float64
}

// TouchStore defines the Redis operations backing the reconciler.
type TouchStore interface {
	RecordTouch(ctx context.Context, articleID string) error
	GetTopTouched(ctx context.Context, n int64) ([]Touched, error)
	ClearTouched(ctx context.Context, touched ...Touched) error
}

// RedisTouchStore implements TouchStore with a sorted set scored by the
// number of changes seen.
type RedisTouchStore struct {
	client *redis.Client
}

// NewRedisTouchStore creates a touch store on an existing client.
func NewRedisTouchStore(client *redis.Client) *RedisTouchStore {
	return &RedisTouchStore{client: client}
}

// RecordTouch bumps the score of an article.
func (s *RedisTouchStore) RecordTouch(ctx context.Context, articleID string) error {
	if err := s.client.ZIncrBy(ctx, touchedArticlesKey, 1, articleID).Err(); err != nil {
		return fmt.Errorf("redis record touch: %w", err)
	}
	return nil
}

// GetTopTouched returns up to n articles, most touched first.
func (s *RedisTouchStore) GetTopTouched(ctx context.Context, n int64) ([]Touched, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, touchedArticlesKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get top touched: %w", err)
	}
	touched := make([]Touched, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		touched = append(touched, Touched{ArticleID: id, Score: z.Score})
	}
	return touched, nil
}

// ClearTouched removes the given articles from the set unless they were
// touched again after being read, in which case they stay for the next pass.
func (s *RedisTouchStore) ClearTouched(ctx context.Context, touched ...Touched) error {
	if len(touched) == 0 {
		return nil
	}
	args := make([]interface{}, 0, 2*len(touched))
	for _, t := range touched {
		args = append(args, t.ArticleID, strconv.FormatFloat(t.Score, 'f', -1, 64))
	}
	if err := clearUnchangedScript.Run(ctx, s.client, []string{touchedArticlesKey}, args...).Err(); err != nil {
		return fmt.Errorf("redis clear touched: %w", err)
	}
	return nil
}

var _ TouchStore = (*RedisTouchStore)(nil)
