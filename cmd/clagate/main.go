/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the CLA gate service: a GitHub App webhook receiver that
// reconciles pull requests against signed contributor agreements and reports
// the result back as check runs, comments, and commit statuses.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/clagate/dispatcher"
	"chainguard.dev/clagate/ghapp"
	"chainguard.dev/clagate/reconcilers/clareconciler"
	"chainguard.dev/clagate/reconcilers/clareconciler/statusmanager"
	"chainguard.dev/clagate/store"
	"chainguard.dev/clagate/store/inmem"
	"chainguard.dev/clagate/store/postgres"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/sync/errgroup"
)

type config struct {
	Port        int `env:"PORT, default=8080"`
	MetricsPort int `env:"METRICS_PORT, default=2112"`

	// DatabaseURL selects the PostgreSQL store. When empty the service runs
	// on an in-memory store, which is only useful for local development.
	DatabaseURL string `env:"DATABASE_URL"`

	GitHubAppID         int64  `env:"GITHUB_APP_ID"`
	GitHubAppPrivateKey string `env:"GITHUB_APP_PRIVATE_KEY"`
	// GitHubToken is a development fallback used when no app credentials are
	// configured.
	GitHubToken         string `env:"GITHUB_TOKEN"`
	GitHubWebhookSecret string `env:"GITHUB_WEBHOOK_SECRET, required"`

	Notification  string `env:"NOTIFICATION, default=status+comment"`
	StatusContext string `env:"STATUS_CONTEXT"`
	APIBase       string `env:"API_BASE, required"`
	LandingPage   string `env:"LANDING_PAGE"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	stores, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "opening store: %v", err)
	}
	defer cleanup()

	hosts, err := hostProvider(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "configuring GitHub credentials: %v", err)
	}

	sm, err := statusmanager.New(statusmanager.Config{
		Notification:  statusmanager.NotificationMode(cfg.Notification),
		StatusContext: cfg.StatusContext,
		APIBase:       cfg.APIBase,
		LandingPage:   cfg.LandingPage,
	})
	if err != nil {
		clog.FatalContextf(ctx, "creating status manager: %v", err)
	}

	engine := clareconciler.NewEngine(stores, hosts, sm)
	d := dispatcher.New(engine, []byte(cfg.GitHubWebhookSecret))

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Mount("/", d.Routes())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	msrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		clog.InfoContextf(ctx, "listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		clog.InfoContextf(ctx, "serving metrics on :%d", cfg.MetricsPort)
		if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		_ = msrv.Shutdown(sctx)
		return srv.Shutdown(sctx)
	})
	if err := eg.Wait(); err != nil {
		clog.FatalContextf(ctx, "serving: %v", err)
	}
}

// openStore connects to PostgreSQL when a database URL is configured, running
// pending migrations first, and otherwise falls back to the in-memory store.
func openStore(ctx context.Context, cfg config) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		clog.WarnContextf(ctx, "DATABASE_URL is not set - using the in-memory store")
		return inmem.New(), func() {}, nil
	}
	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

// hostProvider prefers GitHub App credentials; a personal token is accepted
// as a development fallback.
func hostProvider(ctx context.Context, cfg config) (clareconciler.HostProvider, error) {
	if cfg.GitHubAppID != 0 && cfg.GitHubAppPrivateKey != "" {
		return ghapp.NewApp(cfg.GitHubAppID, []byte(cfg.GitHubAppPrivateKey))
	}
	if cfg.GitHubToken != "" {
		clog.WarnContextf(ctx, "no GitHub App credentials - falling back to token authentication")
		return ghapp.NewTokenProvider(ctx, cfg.GitHubToken), nil
	}
	return nil, fmt.Errorf("either GITHUB_APP_ID and GITHUB_APP_PRIVATE_KEY or GITHUB_TOKEN must be set")
}
