package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quaidirect/quaidirect-backend/api/routes"
	authsvc "github.com/quaidirect/quaidirect-backend/internal/auth"
	"github.com/quaidirect/quaidirect-backend/internal/contacts"
	"github.com/quaidirect/quaidirect-backend/internal/drops"
	"github.com/quaidirect/quaidirect-backend/internal/fishermen"
	"github.com/quaidirect/quaidirect-backend/internal/messaging"
	stripewebhook "github.com/quaidirect/quaidirect-backend/internal/webhooks/stripe"
	"github.com/quaidirect/quaidirect-backend/pkg/auth/session"
	"github.com/quaidirect/quaidirect-backend/pkg/config"
	"github.com/quaidirect/quaidirect-backend/pkg/db"
	"github.com/quaidirect/quaidirect-backend/pkg/email"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
	"github.com/quaidirect/quaidirect-backend/pkg/metrics"
	"github.com/quaidirect/quaidirect-backend/pkg/migrate"
	"github.com/quaidirect/quaidirect-backend/pkg/redis"
	"github.com/quaidirect/quaidirect-backend/pkg/sms"
	"github.com/quaidirect/quaidirect-backend/pkg/stripe"
)

const webhookIdempotencyTTL = 7 * 24 * time.Hour

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	fishermenService, err := fishermen.NewService(fishermen.NewRepository(dbClient.DB()), cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create fishermen service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Fishermen:      fishermenService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	contactService, err := contacts.NewService(contacts.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create contact service", err)
		os.Exit(1)
	}

	dropService, err := drops.NewService(drops.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create drop service", err)
		os.Exit(1)
	}

	var smsTransport messaging.Transport
	if cfg.SMS.Configured() {
		smsClient, err := sms.NewClient(context.Background(), cfg.SMS, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create sms client", err)
			os.Exit(1)
		}
		smsTransport = smsClient
	} else {
		logg.Warn(context.Background(), "sms gateway not configured, sms dispatch disabled")
	}

	lease, err := messaging.NewDispatchLease(redisClient, cfg.Messaging.LeaseTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch lease", err)
		os.Exit(1)
	}

	messagingParams := messaging.ServiceParams{
		Ledgers:    messaging.NewLedgerRepository(dbClient.DB()),
		Logs:       messaging.NewLogRepository(dbClient.DB()),
		Contacts:   contactService,
		Drops:      dropService,
		Plans:      fishermenService,
		Lease:      lease,
		SMS:        smsTransport,
		SignupLink: cfg.App.SignupLink,
		Logger:     logg,
		Metrics:    metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
	}
	if cfg.Email.Configured() {
		emailClient, err := email.NewClient(context.Background(), cfg.Email, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create email client", err)
			os.Exit(1)
		}
		messagingParams.Email = emailClient
	} else {
		logg.Warn(context.Background(), "email provider not configured, email dispatch disabled")
	}

	messagingService, err := messaging.NewService(messagingParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create messaging service", err)
		os.Exit(1)
	}

	var stripeClient *stripe.Client
	var webhookService *stripewebhook.Service
	var webhookGuard *stripewebhook.IdempotencyGuard
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}

		webhookService, err = stripewebhook.NewService(stripewebhook.ServiceParams{
			Purchases: stripewebhook.NewRepository(dbClient.DB()),
			Messaging: messagingService,
			Logger:    logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe webhook service", err)
			os.Exit(1)
		}

		webhookGuard, err = stripewebhook.NewIdempotencyGuard(redisClient, webhookIdempotencyTTL, "stripe-webhook")
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe webhook guard", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe not configured, credit purchases disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			contactService,
			dropService,
			messagingService,
			stripeClient,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
