// Package main is the entry point for the LinkSeal HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/LinkSeal/internal/config"
	"github.com/dharsanguruparan/LinkSeal/internal/database"
	"github.com/dharsanguruparan/LinkSeal/internal/logging"
	"github.com/dharsanguruparan/LinkSeal/internal/processing"
	"github.com/dharsanguruparan/LinkSeal/internal/queue"
	"github.com/dharsanguruparan/LinkSeal/internal/ratelimit"
	"github.com/dharsanguruparan/LinkSeal/internal/repository"
	"github.com/dharsanguruparan/LinkSeal/internal/s3storage"
	"github.com/dharsanguruparan/LinkSeal/internal/server"
	"github.com/dharsanguruparan/LinkSeal/internal/signing"
	"github.com/dharsanguruparan/LinkSeal/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Cancel on SIGINT/SIGTERM so the server shuts down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.GeneratedSecret {
		logger.Warn("LINKSEAL_SECRETS not set, using a generated secret; issued links will not survive a restart")
	}
	signer, err := signing.New(signing.Config{
		Secrets: cfg.SigningSecrets,
		TTL:     cfg.SignedURLTTL,
		Hash:    cfg.SigningHash,
	})
	if err != nil {
		return fmt.Errorf("init signer: %w", err)
	}

	objects, err := buildObjectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var audit repository.AuditLog = repository.NewMemoryAuditLog()
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		audit = repository.NewPostgresAuditLog(pool)
		logger.Info("using postgres audit log")
	} else {
		logger.Info("using in-memory audit log")
	}

	deps := server.Deps{
		Signer:  signer,
		Objects: objects,
		Audit:   audit,
		Logger:  logger,
	}
	if cfg.RedisAddr != "" {
		// Access events go through asynq so cmd/worker can write them; the
		// rate limit window is shared across server replicas.
		opt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		client := asynq.NewClient(opt)
		defer client.Close()
		deps.Recorder = queue.NewRecorder(client, logger)

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		if cfg.RateLimit > 0 {
			deps.Limiter = ratelimit.NewRedisLimiter(rdb, "linkseal:rl:", cfg.RateLimit, cfg.RateWindow)
		}
		logger.Info("using redis queue and rate limiter", zap.String("addr", cfg.RedisAddr))
	} else {
		processor := processing.New(audit, cfg.ProcessingPool, logger)
		processor.Start(ctx)
		deps.Recorder = processor
		if cfg.RateLimit > 0 {
			deps.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
		}
	}

	srv, err := server.New(cfg, deps)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	return srv.Serve(ctx)
}

func buildObjectStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.ObjectStore, error) {
	if cfg.S3Endpoint == "" {
		logger.Info("using in-memory object store")
		return storage.NewMemoryStore(), nil
	}
	store, err := s3storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	logger.Info("using s3 object store", zap.String("endpoint", cfg.S3Endpoint), zap.String("bucket", cfg.Bucket))
	return store, nil
}
