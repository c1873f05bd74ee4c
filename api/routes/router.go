package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glowdesk/glowdesk-backend/api/controllers"
	"github.com/glowdesk/glowdesk-backend/api/middleware"
	"github.com/glowdesk/glowdesk-backend/internal/bookings"
	"github.com/glowdesk/glowdesk-backend/internal/transactions"
	"github.com/glowdesk/glowdesk-backend/pkg/config"
	"github.com/glowdesk/glowdesk-backend/pkg/db"
	"github.com/glowdesk/glowdesk-backend/pkg/logger"
	"github.com/glowdesk/glowdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	transactionsService transactions.Service,
	bookingsRepo bookings.Repository,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, logg, cfg.Checkout.IdempotencyTTL))

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/checkout", controllers.Checkout(transactionsService, logg))
			r.Get("/", controllers.TransactionList(transactionsService, logg))
			r.Get("/{transactionId}", controllers.TransactionDetail(transactionsService, logg))
			r.Delete("/{transactionId}", controllers.TransactionDelete(transactionsService, logg))
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.BookingList(bookingsRepo, logg))
			r.Get("/{bookingId}", controllers.BookingDetail(bookingsRepo, logg))
			r.Patch("/{bookingId}/payment-status", controllers.BookingPaymentStatus(bookingsRepo, logg))
		})
	})

	return r
}
