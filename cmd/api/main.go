package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/resellerhq/resellerhq-backend/api/routes"
	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/internal/commission"
	"github.com/resellerhq/resellerhq-backend/internal/earnings"
	"github.com/resellerhq/resellerhq-backend/internal/wallet"
	"github.com/resellerhq/resellerhq-backend/internal/withdrawals"
	"github.com/resellerhq/resellerhq-backend/pkg/config"
	"github.com/resellerhq/resellerhq-backend/pkg/db"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
	"github.com/resellerhq/resellerhq-backend/pkg/metrics"
	"github.com/resellerhq/resellerhq-backend/pkg/migrate"
	"github.com/resellerhq/resellerhq-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	agentsRepo := agents.NewRepository(dbClient.DB())
	earningsRepo := earnings.NewRepository(dbClient.DB())
	walletRepo := wallet.NewRepository(dbClient.DB())
	withdrawalsRepo := withdrawals.NewRepository(dbClient.DB())

	earningsService, err := earnings.NewService(earningsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create earnings service", err)
		os.Exit(1)
	}
	commissionService, err := commission.NewService(earningsRepo, agentsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create commission service", err)
		os.Exit(1)
	}
	walletService, err := wallet.NewService(walletRepo, agentsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}
	withdrawalsService, err := withdrawals.NewService(withdrawals.ServiceParams{
		Logger:      logg,
		DB:          dbClient,
		Repo:        withdrawalsRepo,
		Events:      earningsRepo,
		Agents:      agentsRepo,
		Commissions: commissionService,
		Wallet:      walletService,
		Metrics:     metrics.NewSettlementMetrics(prometheus.DefaultRegisterer),
		MaxAttempts: cfg.Withdrawals.ReservationMaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawals service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			agentsRepo,
			earningsService,
			commissionService,
			walletService,
			withdrawalsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
