package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"portfolio-api/internal/admission"
	"portfolio-api/internal/api"
	"portfolio-api/internal/auth"
	"portfolio-api/internal/turnstile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	if err := cfg.ServeReady(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	limiter, claims, closeRedis := antiAbuse(ctx)
	defer closeRedis()

	captcha := cfg.Captcha()
	if captcha.Enabled && !captcha.Configured {
		if captcha.Debug {
			logger.Warn("turnstile enabled but not configured, skipping verification in debug/test mode")
		} else {
			logger.Error("turnstile enabled but not configured, submissions will be refused")
		}
	}

	pipeline := admission.NewPipeline(st, turnstile.NewClient(), admission.Config{
		Cooldown:        cfg.Cooldown,
		DuplicateWindow: cfg.DuplicateWindow,
		Captcha:         captcha,
	}, admission.WithOriginClaim(claims), admission.WithLogger(logger))

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, using an insecure development secret")
		sessionSecret = "insecure-development-secret"
	}
	sessions := auth.NewSessions(sessionSecret, cfg.SessionTTL)

	srv, err := api.NewServer(cfg, st, pipeline, limiter, sessions, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
