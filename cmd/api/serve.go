package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/5w1tchy/reading-journal/internal/api/handlers/books"
	"github.com/5w1tchy/reading-journal/internal/api/handlers/memos"
	"github.com/5w1tchy/reading-journal/internal/api/router"
	"github.com/5w1tchy/reading-journal/internal/auth"
	"github.com/5w1tchy/reading-journal/internal/config"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/logging"
	"github.com/5w1tchy/reading-journal/internal/maintenance"
	"github.com/5w1tchy/reading-journal/internal/repository/sqlconnect"
	jwtutil "github.com/5w1tchy/reading-journal/internal/security/jwt"
	"github.com/5w1tchy/reading-journal/internal/security/password"
	"github.com/5w1tchy/reading-journal/internal/storage/s3"
	bookstore "github.com/5w1tchy/reading-journal/internal/store/books"
	memberstore "github.com/5w1tchy/reading-journal/internal/store/members"
	memostore "github.com/5w1tchy/reading-journal/internal/store/memos"
	"github.com/5w1tchy/reading-journal/internal/validate"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the image sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err := validate.Env(cfg); err != nil {
		return err
	}
	for _, w := range validate.HardeningWarnings(cfg) {
		logger.Warn(w)
	}

	db, err := sqlconnect.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	rdb, err := newRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := validate.PingRedis(rdb, 3*time.Second); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	objects, err := s3.NewClient(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	queue := maintenance.NewImageQueue(rdb)

	memberStore := memberstore.New(db)
	bookStore := bookstore.New(db)
	memoStore := memostore.New(db)

	signer := jwtutil.NewSigner(jwtutil.Config{
		Secret:    cfg.Auth.JWTSecret,
		ClockSkew: cfg.Auth.ClockSkew,
		AccessTTL: cfg.Auth.AccessTTL,
	})
	hasher := password.NewHasher(password.Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})

	bookSvc := journal.NewBookService(bookStore, memoStore)
	memoSvc := journal.NewMemoService(bookStore, memoStore, objects)
	memoSvc.MaxImageBytes = cfg.Limits.MaxImageBytes
	memoSvc.ImageReleased = queue.Release

	handler := router.Router(router.Deps{
		Config:   cfg,
		RDB:      rdb,
		Resolver: &auth.Resolver{Signer: signer, Members: memberStore},
		Auth: &auth.Handler{
			Members:       memberStore,
			Memos:         memoStore,
			Tokens:        auth.NewRedisRefreshStore(rdb, cfg.Auth.RefreshTTL),
			Signer:        signer,
			Hasher:        hasher,
			ImageReleased: queue.Release,
		},
		Books: books.New(bookSvc, journal.NewViewAssembler(bookStore)),
		Memos: memos.New(memoSvc, cfg.Memo.SampleDefault, cfg.Memo.SampleMax),
	})

	if _, err := maintenance.StartImageGC(ctx, cfg.ImageGCSchedule, &maintenance.Sweeper{Queue: queue, Objects: objects, Refs: memoStore}); err != nil {
		return err
	}

	errLog := logger.WriterLevel(logrus.ErrorLevel)
	defer errLog.Close()
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(errLog, "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "tls": cfg.TLSCertFile != ""}).Info("server listening")
		if cfg.TLSCertFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
