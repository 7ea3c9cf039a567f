package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nikhil123421/theGlobalMixtape/internal/config"
	"github.com/nikhil123421/theGlobalMixtape/internal/handler"
	"github.com/nikhil123421/theGlobalMixtape/internal/hub"
	"github.com/nikhil123421/theGlobalMixtape/internal/repository"
	"github.com/nikhil123421/theGlobalMixtape/internal/resolver"
	"github.com/nikhil123421/theGlobalMixtape/internal/service"
	"github.com/nikhil123421/theGlobalMixtape/internal/session"
	"github.com/nikhil123421/theGlobalMixtape/internal/store"
	pkglog "github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "mixtape-server",
	})
	logger := pkglog.L()

	logger.Info().Str("version", version).Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).
		Str("store_type", cfg.Store.Type).Str("cache_type", cfg.Cache.Type).
		Msg("starting mixtape server")

	ctx := context.Background()

	// Initialize session state mirror
	stateStore, cleanup := initStateStore(cfg)
	if cleanup != nil {
		defer cleanup()
	}
	logger.Info().Str("type", cfg.Store.Type).Msg("state store initialized")

	// Initialize track metadata cache
	trackCache := initTrackCache(cfg)

	// Initialize playback session, restored from the mirror when one
	// is available
	sess := session.New()
	if state, err := stateStore.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to load persisted session state")
	} else if state != nil {
		sess.Restore(*state)
		logger.Info().Int("playlist_len", len(state.Playlist)).
			Bool("has_current", state.CurrentTrack != nil).
			Msg("session state restored")
	}

	// Initialize track resolver
	resolverOpts := []resolver.Option{
		resolver.WithHTTPClient(&http.Client{Timeout: cfg.Resolver.Timeout}),
	}
	if cfg.Resolver.Endpoint != "" {
		resolverOpts = append(resolverOpts, resolver.WithEndpoint(cfg.Resolver.Endpoint))
	}
	trackResolver := resolver.NewOEmbedResolver(trackCache, resolverOpts...)

	// Initialize broadcast hub
	broadcastHub := hub.NewHub(cfg.WebSocket)
	go broadcastHub.Run()

	// Initialize radio service
	radioSvc := service.NewRadioService(sess, trackResolver, broadcastHub, stateStore)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(version)
	httpHandler := handler.NewHandler(radioSvc)
	wsHandler := handler.NewWSHandler(broadcastHub, radioSvc, cfg.WebSocket)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Register routes
	healthHandler.RegisterRoutes(r)
	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("mixtape server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down mixtape server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("mixtape server stopped")
}

// initStateStore initializes the session state mirror based on
// configuration. Returns the store and a cleanup function.
func initStateStore(cfg *config.Config) (store.StateStore, func()) {
	l := pkglog.L()
	switch cfg.Store.Type {
	case "redis":
		if cfg.Store.Address == "" {
			l.Warn().Msg("redis state store configured but address is empty, using no-op store")
			return store.NewNoOpStateStore(), nil
		}

		st, err := store.NewRedisStateStore(store.RedisConfig{
			Address:  cfg.Store.Address,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
			Key:      cfg.Store.Key,
		})
		if err != nil {
			l.Warn().Err(err).Msg("failed to connect to redis, using no-op store")
			return store.NewNoOpStateStore(), nil
		}

		return st, func() {
			if err := st.Close(); err != nil {
				l.Error().Err(err).Msg("error closing redis connection")
			}
		}

	case "none", "":
		l.Warn().Msg("no state store configured, using no-op store")
		return store.NewNoOpStateStore(), nil

	default:
		l.Warn().Str("type", cfg.Store.Type).Msg("unknown store type, using no-op store")
		return store.NewNoOpStateStore(), nil
	}
}

// initTrackCache initializes the resolved-track metadata cache based
// on configuration.
func initTrackCache(cfg *config.Config) repository.TrackRepository {
	l := pkglog.L()
	switch cfg.Cache.Type {
	case "sqlite":
		repo, err := repository.NewGormTrackRepository(cfg.Cache.Path)
		if err != nil {
			l.Warn().Err(err).Msg("failed to open track cache, using no-op cache")
			return repository.NewNoOpTrackRepository()
		}
		return repo

	case "none", "":
		l.Warn().Msg("no track cache configured, using no-op cache")
		return repository.NewNoOpTrackRepository()

	default:
		l.Warn().Str("type", cfg.Cache.Type).Msg("unknown cache type, using no-op cache")
		return repository.NewNoOpTrackRepository()
	}
}
