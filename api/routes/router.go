package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codana-ai/billing-sync/api/controllers"
	webhookcontrollers "github.com/codana-ai/billing-sync/api/controllers/webhooks"
	"github.com/codana-ai/billing-sync/api/middleware"
	subscriptionsvc "github.com/codana-ai/billing-sync/internal/subscriptions"
	paddlewebhook "github.com/codana-ai/billing-sync/internal/webhooks/paddle"
	"github.com/codana-ai/billing-sync/pkg/config"
	"github.com/codana-ai/billing-sync/pkg/db"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/metrics"
	"github.com/codana-ai/billing-sync/pkg/paddle"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	paddleClient *paddle.Client,
	webhookService *paddlewebhook.Service,
	webhookMetrics *metrics.WebhookMetrics,
	subscriptionService *subscriptionsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		webhook := webhookcontrollers.PaddleWebhook(webhookService, paddleClient, cfg.Paddle.SignatureTolerance, webhookMetrics, logg)
		r.Post("/paddle/webhook", webhook)
		r.Options("/paddle/webhook", webhook)

		r.Get("/products", controllers.ListProducts(paddleClient, logg))
		r.Get("/subscriptions/{subscriptionID}", controllers.GetSubscription(subscriptionService, logg))
		r.Get("/customer/{customerID}/subscription", controllers.GetCustomerSubscription(subscriptionService, logg))
		r.Post("/users/register", controllers.RegisterUser(subscriptionService, logg))
		r.Get("/check-subscription", controllers.CheckSubscription(subscriptionService, logg))
	})

	return r
}
