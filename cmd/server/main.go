package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kichiro01/ToPick-api/internal/auth"
	"github.com/kichiro01/ToPick-api/internal/config"
	"github.com/kichiro01/ToPick-api/internal/database"
	"github.com/kichiro01/ToPick-api/internal/email"
	"github.com/kichiro01/ToPick-api/internal/logging"
	"github.com/kichiro01/ToPick-api/internal/metrics"
	redisx "github.com/kichiro01/ToPick-api/internal/redis"
	"github.com/kichiro01/ToPick-api/internal/repository/postgres"
	"github.com/kichiro01/ToPick-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("log setup error: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL, database.WithMaxConns(cfg.DBMaxConns))
	if err != nil {
		logger.Error("database error", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redisx.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("redis error", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	if !cfg.Mail.Enabled() {
		logger.Warn("mail is not configured; contact and report requests will fail")
	}
	if cfg.Admin.TokenHash == "" {
		logger.Warn("ADMIN_TOKEN_HASH is empty; moderation endpoints are disabled")
	}

	m := metrics.New()
	rateLimiter := auth.NewRateLimiter(redisClient, auth.Limits{
		RedeemMaxFailures: cfg.Auth.MaxRedeemFailures,
		RedeemFailureTTL:  cfg.Auth.RedeemFailureTTL,
		NotifyCooldown:    cfg.Auth.NotifyCooldown,
	})
	authService := auth.NewService(postgres.NewAuthRepository(db), logger,
		auth.WithTTL(cfg.Auth.CodeTTL),
		auth.WithAuditor(auth.NewAuditLogger(redisClient, cfg.Auth.AuditMaxLen)),
		auth.WithRecorder(m),
		auth.WithRedeemLimiter(rateLimiter),
	)
	notifier := email.NewNotifier(email.NewSender(cfg.Mail), cfg.Mail, logger, m)

	api := server.NewServer(cfg, server.Deps{
		Users:       postgres.NewUserRepository(db),
		Lists:       postgres.NewMyListRepository(db),
		Themes:      postgres.NewThemeRepository(db),
		Auth:        authService,
		Notifier:    notifier,
		RateLimiter: rateLimiter,
		AdminTokens: auth.NewAdminTokenVerifier(cfg.Admin.TokenHash),
		Metrics:     m,
		DB:          db,
		Logger:      logger,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}
}
