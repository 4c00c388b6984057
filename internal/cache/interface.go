package cache

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

// UserCacheResult is the cached form of a user. It carries no password
// material since domain.User omits it from JSON.
type UserCacheResult struct {
	User domain.User `json:"user"`
}

type UserCache interface {
	Get(ctx context.Context, key string) (*UserCacheResult, error)
	Set(ctx context.Context, key string, result *UserCacheResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByID(userID string) string
	BuildKeyByUsername(username string) string
}
