package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paycall-platform/internal/audit"
	"paycall-platform/internal/auth"
	"paycall-platform/internal/calls"
	"paycall-platform/internal/campaigns"
	"paycall-platform/internal/config"
	"paycall-platform/internal/httpapi"
	"paycall-platform/internal/pricing"
	"paycall-platform/internal/reporting"
	"paycall-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log, logCloser := logger.New(logger.Options{Env: cfg.App.Env, File: cfg.App.LogFile})
	defer logCloser.Close()
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	st, err := openStorage(rootCtx, cfg, log)
	if err != nil {
		log.Error("storage init failed", "err", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	defer st.close()

	auditSvc := audit.NewService(st.audit)
	campaignSvc := campaigns.NewService(st.campaigns, campaigns.AuditAdapter{Audit: auditSvc})
	rateSvc := pricing.NewService(st.rates)
	callSvc := calls.NewService(calls.Deps{
		Repo:      st.calls,
		Campaigns: campaignSvc,
		Rates:     rateSvc,
		Slots:     st.slots,
		Audit:     calls.AuditAdapter{Audit: auditSvc},
	})

	h := httpapi.Handlers{
		Auth:      authManager,
		Campaigns: campaignSvc,
		Calls:     callSvc,
		Reports:   reporting.NewService(st.calls, st.cache, cfg.Reporting.CacheTTL),
		Rates:     rateSvc,
		DevTokens: !cfg.IsProduction(),
	}
	r := newRouter(cfg, log, authManager, h, st)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
