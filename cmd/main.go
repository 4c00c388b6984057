package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-io-conduit/internal/cache"
	"github.com/weiawesome/wes-io-conduit/internal/config"
	"github.com/weiawesome/wes-io-conduit/internal/consumer"
	"github.com/weiawesome/wes-io-conduit/internal/credential"
	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/handler"
	"github.com/weiawesome/wes-io-conduit/internal/projection"
	"github.com/weiawesome/wes-io-conduit/internal/reconciler"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
	"github.com/weiawesome/wes-io-conduit/internal/service"
	"github.com/weiawesome/wes-io-conduit/internal/slug"
	"github.com/weiawesome/wes-io-conduit/internal/store"
	"github.com/weiawesome/wes-io-conduit/pkg/database"
	"github.com/weiawesome/wes-io-conduit/pkg/jwt"
	pkglog "github.com/weiawesome/wes-io-conduit/pkg/log"
	"github.com/weiawesome/wes-io-conduit/pkg/middleware"
	"github.com/weiawesome/wes-io-conduit/pkg/pubsub"
	"github.com/weiawesome/wes-io-conduit/pkg/storage"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	// 3. Init DB (GORM, auto-migrate all tables)
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.ArticleModel{},
		&domain.ArticleTagModel{},
		&domain.FavoriteModel{},
		&domain.FollowModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// 4. Init Redis client (user cache + touched-article set)
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unavailable; cache and reconciler disabled")
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
		}
	}

	// 5. Init event bus
	var events pubsub.PubSub
	if ps, err := pubsub.NewPubSub(cfg.Events); err != nil {
		logger.Warn().Err(err).Str("driver", cfg.Events.Driver).Msg("event bus unavailable; relation events disabled")
	} else {
		events = ps
		defer events.Close()
		logger.Info().Str("driver", cfg.Events.Driver).Msg("event bus connected")
	}

	// 6. Init object storage
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to init storage")
	}

	// 7. Token manager
	tokens, err := jwt.NewManager(cfg.Auth)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager; set JWT_SECRET")
	}

	// 8. Create repos, services
	userRepo := repository.NewGormUserRepository(db)
	articleRepo := repository.NewGormArticleRepository(db)
	graph := repository.NewGormRelationGraph(db)
	counts := projection.NewCountProjection(graph, articleRepo)

	var userCache cache.UserCache
	if redisClient != nil && cfg.Cache.Enabled {
		userCache = cache.NewRedisUserCache(redisClient, cfg.Cache.Prefix)
	}
	lookup := service.NewUserLookup(userRepo, userCache, cfg.Cache.UserTTL)

	var publisher pubsub.Publisher
	if events != nil {
		publisher = events
	}

	userSvc := service.NewUserService(userRepo, lookup, credential.NewStore(credential.DefaultParams()), tokens, images, service.ImageOptions{
		MaxBytes:     cfg.Upload.MaxImageBytes,
		MaxDimension: cfg.Upload.MaxDimension,
		JPEGQuality:  cfg.Upload.JPEGQuality,
	})
	profileSvc := service.NewProfileService(lookup, graph, publisher)
	articleSvc := service.NewArticleService(articleRepo, graph, counts, slug.NewNanoIDGenerator(), lookup, publisher)

	// 9. Init relation consumer and reconciler
	var relationConsumer *consumer.PubSubConsumer
	var rec *reconciler.Reconciler
	if redisClient != nil && cfg.Reconciler.Enabled {
		touchStore := store.NewRedisTouchStore(redisClient)

		if events != nil {
			rc := consumer.NewPubSubConsumer(events, pubsub.PatternFavorite, consumer.NewTouchRecorder(touchStore))
			if err := rc.Start(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to start relation consumer")
			} else {
				relationConsumer = rc
			}
		}

		rec = reconciler.New(touchStore, counts, cfg.Reconciler)
		rec.Start(ctx)
		logger.Info().Dur("interval", cfg.Reconciler.Interval).Int("top_n", cfg.Reconciler.TopN).Msg("reconciler started")
	} else {
		logger.Warn().Msg("reconciler disabled")
	}

	// 10. Setup Gin router + HTTP server
	gin.SetMode(cfg.Server.Mode)
	httpHandler := handler.NewHandler(userSvc, profileSvc, articleSvc, middleware.NewAuthMiddleware(tokens))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	if local, ok := images.(*storage.LocalStorage); ok {
		r.Static(local.URLPrefix(), local.BasePath())
	}
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg("conduit starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 11. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		// Drain HTTP first so no new relation changes arrive.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}

		// Stop the consumer loop and reconciler ticker.
		cancel()
		if relationConsumer != nil {
			if err := relationConsumer.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing relation consumer")
			}
		}
		if rec != nil {
			rec.Stop()
			<-rec.Done()
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("conduit stopped")
	case <-time.After(shutdownTimeout + 20*time.Second):
		logger.Warn().Msg("shutdown timed out")
	}
}
