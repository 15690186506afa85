package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hki-dev/hki-crm/internal/config"
	"github.com/hki-dev/hki-crm/internal/infra/database"
	"github.com/hki-dev/hki-crm/internal/infra/http/handlers"
	"github.com/hki-dev/hki-crm/internal/infra/http/middleware"
	"github.com/hki-dev/hki-crm/internal/infra/integration/mautic"
	"github.com/hki-dev/hki-crm/internal/infra/mail"
	"github.com/hki-dev/hki-crm/internal/infra/queue"
	"github.com/hki-dev/hki-crm/internal/usecase"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)

	// 2. Gateways and adapters
	platform := mautic.NewClient(cfg.MauticBaseURL, cfg.MauticClientID, cfg.MauticClientSecret)
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	var alerts usecase.AlertService
	if cfg.MailConfigured() {
		alerts = mail.NewEmailSender(
			cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass,
			cfg.MailFrom, cfg.SalesInbox,
		)
	}

	// 3. Use cases
	syncUC := usecase.NewSyncLeadUseCase(leadRepo, platform, alerts, nil)

	// 4. Worker (consumes the sync queue and pushes leads to Mautic)
	worker := queue.NewWorker(rabbitMQ.Ch, syncUC)
	go worker.Start(queue.QueueName)

	// 5. Handlers
	syncHandler := handlers.NewSyncHandler(platform)
	leadHandler := handlers.NewLeadHandler(leadRepo, producer)
	webhookHandler := handlers.NewWebhookHandler(leadRepo)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn, cfg.MauticBaseURL)
	tokenResetHandler := handlers.NewTokenResetHandler(platform.Tokens())

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/api/platform/sync", syncHandler.Handle)
	r.Post("/api/leads", leadHandler.CaptureLead)
	r.Post("/webhook/mautic", webhookHandler.Handle)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/internal/platform/reset-token", tokenResetHandler.Handle)

	log.Printf("🔥 HKI CRM sync service running on :%s", cfg.ServerPort)
	http.ListenAndServe(":"+cfg.ServerPort, r)
}
