package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/luis-polezi/stock-control/internal/archive"
	"github.com/luis-polezi/stock-control/internal/auth"
	"github.com/luis-polezi/stock-control/internal/config"
	"github.com/luis-polezi/stock-control/internal/infra"
	"github.com/luis-polezi/stock-control/internal/repository"
	"github.com/luis-polezi/stock-control/internal/router"
	"github.com/luis-polezi/stock-control/internal/service"
	"github.com/luis-polezi/stock-control/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	infra.ConfigureLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Ledger state ─────────────────────────────────────────────────────────
	state, closeState, err := repository.Open(repository.StoreOptions{
		Backend:     cfg.StateBackend,
		Dir:         cfg.StateDir,
		RedisURL:    cfg.RedisURL,
		RedisPrefix: "estoque:server:",
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StateBackend).Msg("failed to open state store")
	}
	defer func() { _ = closeState() }()

	// ── Backup bucket ────────────────────────────────────────────────────────
	var bucket archive.Bucket
	if cfg.BucketConfigured() {
		s3b, err := infra.NewS3Bucket(ctx, infra.S3Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Bucket:          cfg.R2BucketName,
			Endpoint:        cfg.R2Endpoint,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure backup bucket")
		}
		bucket = s3b
	} else {
		log.Warn().Msg("no backup bucket configured, backups are kept in memory")
		bucket = archive.NewMemoryBucket()
	}
	backups := archive.NewService(bucket, cfg.BackupPrefix, cfg.R2PublicURL)

	// ── Automatic backup queue ───────────────────────────────────────────────
	var (
		rdb     *redis.Client
		queue   service.BackupQueue
		workers *sync.WaitGroup
		inline  *worker.InlineQueue
	)
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer func() { _ = rdb.Close() }()
		queue = worker.NewDispatcher(rdb)
		workers = worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, backups)
	} else {
		inline = worker.NewInlineQueue(ctx, backups)
		queue = inline
	}

	// ── Credentials ──────────────────────────────────────────────────────────
	table := cfg.AuthUsers
	if table == "" {
		if cfg.AuthEnabled {
			log.Warn().Msg("AUTH_USERS not set, using the built-in credential table")
		}
		table = auth.DefaultUsers
	}
	creds, err := auth.ParseCredentials(table, bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid AUTH_USERS")
	}

	r := router.New(ctx, cfg, router.Deps{
		State:   state,
		Archive: backups,
		Queue:   queue,
		Gate:    auth.NewGate(creds),
		Redis:   rdb,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().
			Str("state", cfg.StateBackend).
			Bool("auth", cfg.AuthEnabled).
			Msgf("stock-control server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// pending inline backups finish before the workers are stopped
	if inline != nil {
		inline.Wait()
	}
	cancel()
	if workers != nil {
		workers.Wait()
	}
	log.Info().Msg("server exited")
}
