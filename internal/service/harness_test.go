package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-conduit/internal/cache"
	"github.com/weiawesome/wes-io-conduit/internal/credential"
	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/projection"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
	"github.com/weiawesome/wes-io-conduit/internal/slug"
	"github.com/weiawesome/wes-io-conduit/pkg/database"
	"github.com/weiawesome/wes-io-conduit/pkg/jwt"
	"github.com/weiawesome/wes-io-conduit/pkg/pubsub"
	"github.com/weiawesome/wes-io-conduit/pkg/storage"
)

type publishedEvent struct {
	channel string
	event   *pubsub.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{channel: channel, event: event})
	return nil
}

func (p *recordingPublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.channel)
	}
	return out
}

type testEnv struct {
	users    UserService
	profiles ProfileService
	articles ArticleService

	graph     repository.RelationGraph
	articleDB repository.ArticleRepository
	tokens    *jwt.Manager
	published *recordingPublisher
	images    *storage.LocalStorage
}

func newTestEnv(t *testing.T, userCache cache.UserCache) *testEnv {
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
	lookup := NewUserLookup(userRepo, userCache, 0)
	lookup.redeleteAfter = 0
	published := &recordingPublisher{}

	return &testEnv{
		users:    NewUserService(userRepo, lookup, credential.NewStore(credential.DefaultParams()), tokens, images,
			ImageOptions{MaxBytes: 1 << 10, MaxDimension: 64}),
		profiles: NewProfileService(lookup, graph, published),
		articles: NewArticleService(articleRepo, graph, projection.NewCountProjection(graph, articleRepo),
			slug.NewNanoIDGenerator(), lookup, published),
		graph:     graph,
		articleDB: articleRepo,
		tokens:    tokens,
		published: published,
		images:    images,
	}
}

// register creates a user and returns its ID.
func (e *testEnv) register(t *testing.T, username, email, password string) string {
	t.Helper()
	self, err := e.users.Register(context.Background(), &domain.RegisterRequest{
		Username: username, Email: email, Password: password,
	})
	require.NoError(t, err)
	claims, err := e.tokens.Verify(self.Token)
	require.NoError(t, err)
	return claims.UserID
}

func (e *testEnv) createArticle(t *testing.T, authorID, title string, tags ...string) *domain.ArticleView {
	t.Helper()
	view, err := e.articles.CreateArticle(context.Background(), authorID, &domain.CreateArticleRequest{
		Title: title, Description: "desc", Body: "body", TagList: tags,
	})
	require.NoError(t, err)
	return view
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	verr, ok := err.(*domain.ValidationError)
	require.True(t, ok, "expected *domain.ValidationError, got %T: %v", err, err)
	return verr.Fields
}
