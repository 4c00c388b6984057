package service

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

func TestRegister_ReturnsSelfWithToken(t *testing.T) {
	env := newTestEnv(t, nil)

	self, err := env.users.Register(context.Background(), &domain.RegisterRequest{
		Username: "Jake", Email: "Jake@Jake.jake", Password: "jakejake",
	})
	require.NoError(t, err)

	assert.Equal(t, "jake", self.Username)
	assert.Equal(t, "jake@jake.jake", self.Email)
	assert.Equal(t, domain.DefaultImage, self.Image)

	claims, err := env.tokens.Verify(self.Token)
	require.NoError(t, err)
	assert.Equal(t, "jake", claims.Username)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.users.Register(ctx, &domain.RegisterRequest{})
	assert.Equal(t, map[string]string{
		"username": domain.MsgBlank,
		"email":    domain.MsgBlank,
		"password": domain.MsgBlank,
	}, fieldsOf(t, err))

	_, err = env.users.Register(ctx, &domain.RegisterRequest{Username: "ja ke", Email: "nope", Password: "x"})
	assert.Equal(t, map[string]string{
		"username": domain.MsgInvalid,
		"email":    domain.MsgInvalid,
	}, fieldsOf(t, err))
}

func TestRegister_TakenIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "jake", "jake@jake.jake", "jakejake")

	_, err := env.users.Register(context.Background(), &domain.RegisterRequest{
		Username: "JAKE", Email: "JAKE@jake.jake", Password: "other",
	})
	assert.Equal(t, map[string]string{
		"username": domain.MsgTaken,
		"email":    domain.MsgTaken,
	}, fieldsOf(t, err))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "alice", "a@x.com", "secret123")

	self, err := env.users.Login(ctx, &domain.LoginRequest{Email: "A@x.com", Password: "secret123"})
	require.NoError(t, err)
	claims, err := env.tokens.Verify(self.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	_, err = env.users.Login(ctx, &domain.LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	_, err = env.users.Login(ctx, &domain.LoginRequest{Email: "nobody@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	_, err = env.users.Login(ctx, &domain.LoginRequest{Email: "", Password: ""})
	assert.Equal(t, map[string]string{
		"email":    domain.MsgBlank,
		"password": domain.MsgBlank,
	}, fieldsOf(t, err))
}

func TestGetCurrentUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "jake", "jake@jake.jake", "jakejake")

	self, err := env.users.GetCurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jake@jake.jake", self.Email)
	assert.NotEmpty(t, self.Token)

	_, err = env.users.GetCurrentUser(ctx, "deleted-user")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = env.users.GetCurrentUser(ctx, "")
	assert.ErrorIs(t, err, domain.ErrCredentialsMissing)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "jake", "jake@jake.jake", "jakejake")
	env.register(t, "anne", "anne@anne.anne", "anneanne")

	bio := "I like to skateboard"
	name := "Jacob"
	password := "newpassword"
	self, err := env.users.UpdateUser(ctx, id, &domain.UpdateUserRequest{Bio: &bio, Username: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "jacob", self.Username)
	assert.Equal(t, bio, self.Bio)

	_, err = env.users.Login(ctx, &domain.LoginRequest{Email: "jake@jake.jake", Password: "newpassword"})
	assert.NoError(t, err)
	_, err = env.users.Login(ctx, &domain.LoginRequest{Email: "jake@jake.jake", Password: "jakejake"})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	taken := "anne@anne.anne"
	_, err = env.users.UpdateUser(ctx, id, &domain.UpdateUserRequest{Email: &taken})
	assert.Equal(t, map[string]string{"email": domain.MsgTaken}, fieldsOf(t, err))

	empty := ""
	_, err = env.users.UpdateUser(ctx, id, &domain.UpdateUserRequest{Password: &empty})
	assert.Equal(t, map[string]string{"password": domain.MsgBlank}, fieldsOf(t, err))
}

func encodeTestImage(t *testing.T, width, height int, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "jake", "jake@jake.jake", "jakejake")

	content := encodeTestImage(t, 200, 40, imaging.PNG)
	self, err := env.users.UploadImage(ctx, id, &domain.ImageUpload{
		Filename:    "me.png",
		ContentType: "image/png",
		Size:        int64(len(content)),
		Content:     bytes.NewReader(content),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(self.Image, "/uploads/images/"+id+"/"), self.Image)
	assert.True(t, strings.HasSuffix(self.Image, ".jpg"), self.Image)

	key := strings.TrimPrefix(self.Image, "/uploads/")
	stored, err := imaging.Open(filepath.Join(env.images.BasePath(), key))
	require.NoError(t, err)
	assert.Equal(t, 64, stored.Bounds().Dx())
	assert.LessOrEqual(t, stored.Bounds().Dy(), 64)

	current, err := env.users.GetCurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, self.Image, current.Image)
}

func TestUploadImage_SmallImageKeepsSize(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "jake", "jake@jake.jake", "jakejake")

	content := encodeTestImage(t, 16, 8, imaging.GIF)
	self, err := env.users.UploadImage(ctx, id, &domain.ImageUpload{
		ContentType: "image/gif", Size: int64(len(content)), Content: bytes.NewReader(content),
	})
	require.NoError(t, err)

	stored, err := imaging.Open(filepath.Join(env.images.BasePath(), strings.TrimPrefix(self.Image, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, 16, stored.Bounds().Dx())
	assert.Equal(t, 8, stored.Bounds().Dy())
}

func TestUploadImage_Rejects(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "jake", "jake@jake.jake", "jakejake")

	tests := []struct {
		name   string
		upload *domain.ImageUpload
		want   string
	}{
		{
			name:   "unsupported content type",
			upload: &domain.ImageUpload{ContentType: "text/plain", Size: 3, Content: strings.NewReader("abc")},
			want:   domain.MsgInvalid,
		},
		{
			name:   "bytes that are not an image",
			upload: &domain.ImageUpload{ContentType: "image/png", Size: 16, Content: strings.NewReader("\x89PNG fake image")},
			want:   domain.MsgInvalid,
		},
		{
			name:   "declared size over limit",
			upload: &domain.ImageUpload{ContentType: "image/jpeg", Size: 2 << 10, Content: bytes.NewReader(make([]byte, 2<<10))},
			want:   "is too large",
		},
		{
			name:   "content longer than declared",
			upload: &domain.ImageUpload{ContentType: "image/jpeg", Size: 10, Content: bytes.NewReader(make([]byte, 2<<10))},
			want:   "is too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.UploadImage(ctx, id, tt.upload)
			assert.Equal(t, map[string]string{"image": tt.want}, fieldsOf(t, err))
		})
	}

	current, err := env.users.GetCurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultImage, current.Image)

	entries, err := os.ReadDir(env.images.BasePath())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
