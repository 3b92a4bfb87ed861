package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quaidirect/quaidirect-backend/api/controllers"
	webhookcontrollers "github.com/quaidirect/quaidirect-backend/api/controllers/webhooks"
	"github.com/quaidirect/quaidirect-backend/api/middleware"
	authsvc "github.com/quaidirect/quaidirect-backend/internal/auth"
	contactsvc "github.com/quaidirect/quaidirect-backend/internal/contacts"
	dropsvc "github.com/quaidirect/quaidirect-backend/internal/drops"
	"github.com/quaidirect/quaidirect-backend/internal/messaging"
	stripewebhook "github.com/quaidirect/quaidirect-backend/internal/webhooks/stripe"
	"github.com/quaidirect/quaidirect-backend/pkg/auth/session"
	"github.com/quaidirect/quaidirect-backend/pkg/config"
	"github.com/quaidirect/quaidirect-backend/pkg/db"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
	"github.com/quaidirect/quaidirect-backend/pkg/redis"
	"github.com/quaidirect/quaidirect-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager *session.Manager,
	authService authsvc.Service,
	contactService contactsvc.Service,
	dropService dropsvc.Service,
	messagingService messaging.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/contacts", func(r chi.Router) {
			r.Get("/", controllers.ContactList(contactService, logg))
			r.Post("/", controllers.ContactCreate(contactService, logg))
			r.Get("/{contactId}", controllers.ContactDetail(contactService, logg))
			r.Put("/{contactId}", controllers.ContactUpdate(contactService, logg))
			r.Delete("/{contactId}", controllers.ContactDelete(contactService, logg))
		})

		r.Route("/v1/drops", func(r chi.Router) {
			r.Get("/", controllers.DropList(dropService, logg))
			r.Post("/", controllers.DropCreate(dropService, logg))
			r.Get("/{dropId}", controllers.DropDetail(dropService, logg))
			r.Post("/{dropId}/publish", controllers.DropPublish(dropService, logg))
			r.Post("/{dropId}/close", controllers.DropClose(dropService, logg))
		})

		r.Route("/v1/messages", func(r chi.Router) {
			r.Get("/", controllers.MessageList(messagingService, logg))
			r.Get("/quota", controllers.MessageQuota(messagingService, logg))
			r.Post("/send", controllers.MessageSend(messagingService, logg))
			r.Post("/sms-invitations", controllers.MessageSendInvitations(messagingService, logg))
		})
	})

	return r
}
