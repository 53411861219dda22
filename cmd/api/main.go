package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecotrade/ecotrade-backend/internal/api"
	"github.com/ecotrade/ecotrade-backend/internal/api/handlers"
	"github.com/ecotrade/ecotrade-backend/internal/auth"
	"github.com/ecotrade/ecotrade-backend/internal/config"
	"github.com/ecotrade/ecotrade-backend/internal/db"
	"github.com/ecotrade/ecotrade-backend/internal/logger"
	"github.com/ecotrade/ecotrade-backend/internal/metrics"
	"github.com/ecotrade/ecotrade-backend/internal/notify"
	"github.com/ecotrade/ecotrade-backend/internal/repository/postgres"
	"github.com/ecotrade/ecotrade-backend/internal/services"
	"github.com/ecotrade/ecotrade-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	metrics.Init()

	store := postgres.NewStore(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTIssuer, cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	notifier := notify.LogNotifier{}

	userSvc := services.NewUserService(store, tm)
	creditSvc := services.NewCreditService(store, wp, notifier)
	marketSvc := services.NewMarketService(store, wp, notifier)
	walletSvc := services.NewWalletService(store)

	h := handlers.New(userSvc, creditSvc, marketSvc, walletSvc)
	r := api.NewRouter(cfg, tm, h)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
