package main

import (
	"context"
	"net/http"
	"os"

	"github.com/codana-ai/billing-sync/api/routes"
	"github.com/codana-ai/billing-sync/internal/billing"
	"github.com/codana-ai/billing-sync/internal/linking"
	"github.com/codana-ai/billing-sync/internal/subscriptions"
	"github.com/codana-ai/billing-sync/internal/users"
	paddlewebhook "github.com/codana-ai/billing-sync/internal/webhooks/paddle"
	"github.com/codana-ai/billing-sync/pkg/config"
	"github.com/codana-ai/billing-sync/pkg/db"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/metrics"
	"github.com/codana-ai/billing-sync/pkg/migrate"
	"github.com/codana-ai/billing-sync/pkg/paddle"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
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

	paddleClient, err := paddle.NewClient(context.Background(), cfg.Paddle, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create paddle client", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())

	linker, err := linking.NewService(linking.ServiceParams{
		UsersRepo: usersRepo,
		Paddle:    paddleClient,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create linking service", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	webhookService, err := paddlewebhook.NewService(paddlewebhook.ServiceParams{
		BillingRepo: billingRepo,
		Linker:      linker,
		Logger:      logg,
		Metrics:     webhookMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		UsersRepo:   usersRepo,
		BillingRepo: billingRepo,
		Paddle:      paddleClient,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
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
			paddleClient,
			webhookService,
			webhookMetrics,
			subscriptionService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
