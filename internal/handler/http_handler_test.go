package handler

import (
	"bytes"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-conduit/internal/credential"
	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/projection"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
	"github.com/weiawesome/wes-io-conduit/internal/service"
	"github.com/weiawesome/wes-io-conduit/internal/slug"
	"github.com/weiawesome/wes-io-conduit/pkg/database"
	"github.com/weiawesome/wes-io-conduit/pkg/jwt"
	"github.com/weiawesome/wes-io-conduit/pkg/middleware"
	"github.com/weiawesome/wes-io-conduit/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     "file:" + uuid.New().String() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.ArticleModel{},
		&domain.ArticleTagModel{},
		&domain.FavoriteModel{},
		&domain.FollowModel{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	tokens, err := jwt.NewManager(jwt.Config{Secret: "test-secret"})
	require.NoError(t, err)
	images, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), URLPrefix: "/uploads"})
	require.NoError(t, err)

	userRepo := repository.NewGormUserRepository(db)
	articleRepo := repository.NewGormArticleRepository(db)
	graph := repository.NewGormRelationGraph(db)
	lookup := service.NewUserLookup(userRepo, nil, 0)

	h := NewHandler(
		service.NewUserService(userRepo, lookup, credential.NewStore(credential.DefaultParams()), tokens, images, service.ImageOptions{}),
		service.NewProfileService(lookup, graph, nil),
		service.NewArticleService(articleRepo, graph, projection.NewCountProjection(graph, articleRepo),
			slug.NewNanoIDGenerator(), lookup, nil),
		middleware.NewAuthMiddleware(tokens),
	)

	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.TokenPrefix+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type userData struct {
	User domain.AuthUser `json:"user"`
}

type articleData struct {
	Article domain.ArticleView `json:"article"`
}

func register(t *testing.T, r *gin.Engine, username, email, password string) string {
	t.Helper()
	w, env := call(t, r, http.MethodPost, "/api/users", "", domain.RegisterBody{User: domain.RegisterRequest{
		Username: username, Email: email, Password: password,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[userData](t, env.Data).User.Token
}

func TestAPI_FavoriteFlow(t *testing.T) {
	r := newTestRouter(t)

	register(t, r, "alice", "a@x.com", "secret123")

	w, env := call(t, r, http.MethodPost, "/api/users/login", "", domain.LoginBody{User: domain.LoginRequest{Email: "a@x.com", Password: "secret123"}})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[userData](t, env.Data).User.Token
	require.NotEmpty(t, token)

	w, env = call(t, r, http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", decode[userData](t, env.Data).User.Email)

	w, env = call(t, r, http.MethodPost, "/api/articles", token, domain.CreateArticleBody{Article: domain.CreateArticleRequest{
		Title: "My title", Description: "d", Body: "b", TagList: []string{"go"},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	articleSlug := decode[articleData](t, env.Data).Article.Slug
	assert.True(t, strings.HasPrefix(articleSlug, "my-title-"))

	w, env = call(t, r, http.MethodPost, "/api/articles/"+articleSlug+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fav := decode[articleData](t, env.Data).Article
	assert.True(t, fav.Favorited)
	assert.Equal(t, int64(1), fav.FavoritesCount)

	w, env = call(t, r, http.MethodDelete, "/api/articles/"+articleSlug+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	unfav := decode[articleData](t, env.Data).Article
	assert.False(t, unfav.Favorited)
	assert.Zero(t, unfav.FavoritesCount)

	w, env = call(t, r, http.MethodGet, "/api/articles/"+articleSlug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[articleData](t, env.Data).Article.Author.Following)

	w, env = call(t, r, http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tags":["go"]}`, string(env.Data))
}

func TestAPI_ErrorMapping(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice", "a@x.com", "secret123")
	bob := register(t, r, "bob", "b@x.com", "secret123")

	_, env := call(t, r, http.MethodPost, "/api/articles", alice, domain.CreateArticleBody{Article: domain.CreateArticleRequest{
		Title: "Owned", Description: "d", Body: "b",
	}})
	articleSlug := decode[articleData](t, env.Data).Article.Slug

	t.Run("duplicate registration", func(t *testing.T) {
		w, env := call(t, r, http.MethodPost, "/api/users", "", domain.RegisterBody{User: domain.RegisterRequest{
			Username: "alice", Email: "new@x.com", Password: "x",
		}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, map[string]string{"username": domain.MsgTaken}, env.Error.Fields)
	})

	t.Run("wrong password", func(t *testing.T) {
		w, env := call(t, r, http.MethodPost, "/api/users/login", "", domain.LoginBody{User: domain.LoginRequest{Email: "a@x.com", Password: "nope"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "CREDENTIALS_INVALID", env.Error.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w, env := call(t, r, http.MethodGet, "/api/user", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, middleware.CodeCredentialsMissing, env.Error.Code)
	})

	t.Run("invalid token on optional route", func(t *testing.T) {
		w, env := call(t, r, http.MethodGet, "/api/profiles/alice", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, middleware.CodeTokenInvalid, env.Error.Code)
	})

	t.Run("not owner", func(t *testing.T) {
		w, _ := call(t, r, http.MethodDelete, "/api/articles/"+articleSlug, bob, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown profile", func(t *testing.T) {
		w, _ := call(t, r, http.MethodGet, "/api/profiles/nobody", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("self follow", func(t *testing.T) {
		w, env := call(t, r, http.MethodPost, "/api/profiles/alice/follow", alice, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, env.Error.Fields, "profile")
	})

	t.Run("owner deletes", func(t *testing.T) {
		w, _ := call(t, r, http.MethodDelete, "/api/articles/"+articleSlug, alice, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("health", func(t *testing.T) {
		w, _ := call(t, r, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAPI_WrappedBodies(t *testing.T) {
	r := newTestRouter(t)

	w, env := call(t, r, http.MethodPost, "/api/users", "",
		json.RawMessage(`{"user":{"username":"jake","email":"jake@jake.jake","password":"jakejake"}}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "jake", decode[userData](t, env.Data).User.Username)

	w, env = call(t, r, http.MethodPost, "/api/users/login", "",
		json.RawMessage(`{"user":{"email":"jake@jake.jake","password":"jakejake"}}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[userData](t, env.Data).User.Token

	w, env = call(t, r, http.MethodPut, "/api/user", token,
		json.RawMessage(`{"user":{"bio":"I like to skateboard"}}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "I like to skateboard", decode[userData](t, env.Data).User.Bio)

	w, env = call(t, r, http.MethodPost, "/api/articles", token,
		json.RawMessage(`{"article":{"title":"How to train your dragon","description":"Ever wonder how?","body":"You have to believe","tagList":["dragons"]}}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[articleData](t, env.Data).Article
	assert.Equal(t, []string{"dragons"}, created.TagList)

	w, env = call(t, r, http.MethodPut, "/api/articles/"+created.Slug, token,
		json.RawMessage(`{"article":{"body":"With two hands"}}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[articleData](t, env.Data).Article
	assert.Equal(t, "With two hands", updated.Body)
	assert.Equal(t, created.Slug, updated.Slug)

	t.Run("unwrapped body", func(t *testing.T) {
		w, env := call(t, r, http.MethodPost, "/api/users/login", "",
			json.RawMessage(`{"email":"jake@jake.jake","password":"jakejake"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, map[string]string{"email": domain.MsgBlank, "password": domain.MsgBlank}, env.Error.Fields)
	})
}

func uploadImage(t *testing.T, r *gin.Engine, token, contentType string, content []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="me.png"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/user/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.AuthHeaderKey, middleware.TokenPrefix+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestAPI_UploadImage(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "alice", "a@x.com", "secret123")

	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, imaging.New(32, 32, color.White), imaging.PNG))

	w, env := uploadImage(t, r, token, "image/png", png.Bytes())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	image := decode[userData](t, env.Data).User.Image
	assert.True(t, strings.HasPrefix(image, "/uploads/images/"), image)
	assert.True(t, strings.HasSuffix(image, ".jpg"), image)

	t.Run("not an image", func(t *testing.T) {
		w, env := uploadImage(t, r, token, "image/png", []byte("\x89PNG data"))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, map[string]string{"image": domain.MsgInvalid}, env.Error.Fields)
	})
}
