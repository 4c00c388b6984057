package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &domain.User{Username: "jake", Email: "jake@jake.jake", PasswordSalt: "aa", PasswordHash: "bb"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "jake@jake.jake")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "bb", byEmail.PasswordHash)

	byName, err := repo.GetByUsername(ctx, "jake")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jake", byID.Username)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_UniqueFields(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "jake", Email: "jake@jake.jake"}))

	err := repo.Create(ctx, &domain.User{Username: "jake", Email: "other@jake.jake"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	err = repo.Create(ctx, &domain.User{Username: "other", Email: "jake@jake.jake"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepository_Update(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &domain.User{Username: "jake", Email: "jake@jake.jake"}
	require.NoError(t, repo.Create(ctx, user))
	other := &domain.User{Username: "anne", Email: "anne@anne.anne"}
	require.NoError(t, repo.Create(ctx, other))

	user.Bio = "I work at statefarm"
	user.Image = "https://example.com/jake.png"
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "I work at statefarm", got.Bio)
	assert.Equal(t, "https://example.com/jake.png", got.Image)

	user.Email = "anne@anne.anne"
	assert.ErrorIs(t, repo.Update(ctx, user), ErrEmailExists)

	missing := &domain.User{ID: "does-not-exist", Username: "ghost", Email: "ghost@example.com"}
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrUserNotFound)
}
