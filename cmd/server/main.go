package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"confide/internal/admin"
	"confide/internal/assistant"
	"confide/internal/content"
	contenthandler "confide/internal/content/handler"
	contentstore "confide/internal/content/store"
	"confide/internal/gate"
	confideHTTP "confide/internal/http"
	"confide/internal/identity"
	jwttoken "confide/internal/jwt_token"
	"confide/internal/moderation"
	"confide/internal/platform/config"
	"confide/internal/platform/database"
	"confide/internal/platform/httpserver"
	"confide/internal/platform/logger"
	"confide/internal/platform/metrics"
	"confide/internal/platform/redis"
	"confide/internal/realtime"
	"confide/internal/rejection"
	rejectionhandler "confide/internal/rejection/handler"
	rejectionstore "confide/internal/rejection/store"
	"confide/internal/suspension"
	suspensionMiddleware "confide/internal/suspension/middleware"
	suspensionstore "confide/internal/suspension/store"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	hasher, err := identity.NewHasher(cfg.IdentitySecret)
	if err != nil {
		return err
	}

	var (
		contentStore    content.Store
		rejectionStore  rejection.Store
		suspensionStore suspension.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		contentStore = contentstore.NewPostgres(db)
		rejectionStore = rejectionstore.NewPostgres(db)
		suspensionStore = suspensionstore.NewPostgres(db)
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		contentStore = contentstore.NewMemory()
		rejectionStore = rejectionstore.NewMemory()
		suspensionStore = suspensionstore.NewMemory()
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}

	var broadcaster gate.Broadcaster
	if redisClient != nil {
		defer redisClient.Close()
		broadcaster = realtime.New(redisClient.Client, realtime.WithLogger(log))
	}

	contentService, err := content.New(contentStore, content.WithLogger(log))
	if err != nil {
		return err
	}
	rejectionService, err := rejection.New(rejectionStore, rejection.WithLogger(log))
	if err != nil {
		return err
	}
	suspensionService, err := suspension.New(suspensionStore, suspension.WithLogger(log))
	if err != nil {
		return err
	}

	if cfg.Assistant.AssistantID == "" {
		log.Warn("no moderation assistant configured, all submissions will be rejected")
	}
	assistantClient := assistant.NewClient(cfg.Assistant.BaseURL, cfg.Assistant.APIKey)
	moderator, err := moderation.New(assistantClient, cfg.Assistant.AssistantID,
		moderation.WithLogger(log),
		moderation.WithMetrics(m),
		moderation.WithPollPolicy(cfg.Assistant.PollInterval, cfg.Assistant.PollAttempts),
	)
	if err != nil {
		return err
	}

	gateOpts := []gate.Option{gate.WithLogger(log), gate.WithMetrics(m)}
	if broadcaster != nil {
		gateOpts = append(gateOpts, gate.WithBroadcaster(broadcaster))
	}
	submissionGate, err := gate.New(hasher, suspensionService, moderator, rejectionService, contentService, gateOpts...)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "confide")

	router := confideHTTP.NewRouter(confideHTTP.RouterConfig{
		Content:     contenthandler.New(submissionGate, contentService, hasher, log),
		Rejections:  rejectionhandler.New(rejectionService, suspensionService, hasher, log),
		Admin:       admin.New(cfg.AdminEmail, cfg.AdminPasswordHash, jwtService, log),
		Suspensions: suspensionMiddleware.New(suspensionService, hasher, log, m),
		JWT:         jwttoken.NewMiddlewareAdapter(jwtService),
		Logger:      log,
	})

	server := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
