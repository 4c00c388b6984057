package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-io-conduit/internal/cache"
	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
	"github.com/weiawesome/wes-io-conduit/pkg/log"
)

// UserLookup resolves users for views and viewer checks. Lookups go through
// the Redis cache when one is configured, and concurrent misses for the same
// key share a single database read.
//
// Users returned here carry no password material and must not be modified.
type UserLookup struct {
	repo  repository.UserRepository
	cache cache.UserCache
	ttl   time.Duration
	group singleflight.Group

	// generation is bumped by every Invalidate. A read that started under
	// an older generation does not write the cache.
	generation atomic.Uint64
	// redeleteAfter delays a second delete of invalidated keys, catching a
	// stale write from a read that started before the update committed on
	// another instance.
	redeleteAfter time.Duration
}

// DefaultRedeleteDelay is how long Invalidate waits before deleting the
// same keys again.
const DefaultRedeleteDelay = time.Second

// NewUserLookup creates a lookup. userCache may be nil.
func NewUserLookup(repo repository.UserRepository, userCache cache.UserCache, ttl time.Duration) *UserLookup {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &UserLookup{repo: repo, cache: userCache, ttl: ttl, redeleteAfter: DefaultRedeleteDelay}
}

// ByID returns the user with the given ID or repository.ErrUserNotFound.
func (u *UserLookup) ByID(ctx context.Context, id string) (*domain.User, error) {
	return u.load(ctx, "id:"+id, u.keyByID(id), func(ctx context.Context) (*domain.User, error) {
		return u.repo.GetByID(ctx, id)
	})
}

// ByUsername returns the user with the given username or
// repository.ErrUserNotFound.
func (u *UserLookup) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = normalizeIdentity(username)
	return u.load(ctx, "username:"+username, u.keyByUsername(username), func(ctx context.Context) (*domain.User, error) {
		return u.repo.GetByUsername(ctx, username)
	})
}

// Invalidate drops cached entries for the user under its current and any
// previous usernames. The keys are deleted again after redeleteAfter.
func (u *UserLookup) Invalidate(ctx context.Context, user *domain.User, oldUsernames ...string) {
	if u.cache == nil {
		return
	}
	u.generation.Add(1)

	keys := []string{u.keyByID(user.ID), u.keyByUsername(user.Username)}
	for _, name := range oldUsernames {
		if name != "" && name != user.Username {
			keys = append(keys, u.keyByUsername(name))
		}
	}
	u.deleteKeys(ctx, user.ID, keys)

	if u.redeleteAfter > 0 {
		bg := context.WithoutCancel(ctx)
		time.AfterFunc(u.redeleteAfter, func() {
			u.deleteKeys(bg, user.ID, keys)
		})
	}
}

func (u *UserLookup) deleteKeys(ctx context.Context, userID string, keys []string) {
	if err := u.cache.Delete(ctx, keys...); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("failed to invalidate user cache")
	}
}

func (u *UserLookup) keyByID(id string) string {
	if u.cache == nil {
		return ""
	}
	return u.cache.BuildKeyByID(id)
}

func (u *UserLookup) keyByUsername(username string) string {
	if u.cache == nil {
		return ""
	}
	return u.cache.BuildKeyByUsername(username)
}

// load serves from the cache, else shares one repository read among
// concurrent callers. The shared read is detached from any single caller's
// cancellation; each caller still stops waiting when its own ctx is done.
func (u *UserLookup) load(ctx context.Context, flightKey, cacheKey string, fetch func(context.Context) (*domain.User, error)) (*domain.User, error) {
	l := log.Ctx(ctx)

	if u.cache != nil {
		cached, err := u.cache.Get(ctx, cacheKey)
		if err == nil {
			user := cached.User
			return &user, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Str("key", cacheKey).Msg("user cache read failed")
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := u.group.DoChan(flightKey, func() (interface{}, error) {
		gen := u.generation.Load()
		user, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		if u.cache != nil && u.generation.Load() == gen {
			if err := u.cache.Set(shared, cacheKey, &cache.UserCacheResult{User: *user}, u.ttl); err != nil {
				l.Warn().Err(err).Str("key", cacheKey).Msg("user cache write failed")
			}
		}
		return user, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.User), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
