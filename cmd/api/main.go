package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/globaltierra/crm-api/internal/entity"
	"github.com/globaltierra/crm-api/internal/infra/database"
	"github.com/globaltierra/crm-api/internal/infra/http/handlers"
	"github.com/globaltierra/crm-api/internal/infra/http/middleware"
	"github.com/globaltierra/crm-api/internal/infra/integration/paypal"
	"github.com/globaltierra/crm-api/internal/infra/integration/stripe"
	"github.com/globaltierra/crm-api/internal/infra/mail"
	"github.com/globaltierra/crm-api/internal/infra/queue"
	"github.com/globaltierra/crm-api/internal/infra/snapshot"
	"github.com/globaltierra/crm-api/internal/infra/worker"
	"github.com/globaltierra/crm-api/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		getenv("RABBITMQ_USER", "guest"),
		getenv("RABBITMQ_PASS", "guest"),
		getenv("RABBITMQ_HOST", "localhost"),
		getenv("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	eventRepo := database.NewPaymentEventRepository(db)
	messageRepo := database.NewMessageEventRepository(db)

	// 2. Adapters
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(
		os.Getenv("SMTP_HOST"),
		getenvInt("SMTP_PORT", 587),
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASS"),
		getenv("EMAIL_FROM_NAME", "Global Tierra"),
		getenv("EMAIL_FROM", "no-reply@globaltierra.com"),
		os.Getenv("NOTIFY_EMAIL"),
	)
	publisher := snapshot.NewFilePublisher(getenv("KPI_SNAPSHOT_PATH", "public/data/kpis.json"))
	if err := publisher.Load(); err != nil {
		log.Printf("could not restore previous snapshot: %v", err)
	}

	providers := map[entity.PaymentProvider]usecase.WebhookProvider{
		entity.ProviderStripe: stripe.NewWebhook(os.Getenv("STRIPE_WEBHOOK_SECRET")),
		entity.ProviderPaypal: paypal.NewWebhook(os.Getenv("PAYPAL_WEBHOOK_SECRET")),
	}

	// 3. Notification worker (consumes the queue, sends mail, records
	// message events for the dashboard)
	notifyWorker := queue.NewWorker(rabbitMQ.Ch, mailSender, messageRepo)
	go notifyWorker.Start(queue.QueueName)

	// 4. Use cases
	submitLeadUC := usecase.NewSubmitLeadUseCase(
		leadRepo, producer,
		getenvDuration("LEAD_DEDUP_WINDOW", 24*time.Hour),
	)

	ingestWebhookUC := usecase.NewIngestWebhookUseCase(
		eventRepo, leadRepo, providers, producer,
		strings.Split(getenv("ALLOWED_CURRENCIES", "USD,COP,EUR"), ","),
		getenvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
	)

	aggregatorUC := usecase.NewComputeSnapshotUseCase(
		leadRepo, eventRepo, messageRepo,
		int64(getenvInt("LOYALTY_POINT_RATE_CENTS", 1000)),
	)

	// 5. Periodic KPI refresh
	bucket, err := entity.ParseBucketSize(getenv("KPI_BUCKET", "day"))
	if err != nil {
		log.Fatal(err)
	}
	snapshotWorker := worker.NewSnapshotWorker(
		aggregatorUC, publisher,
		getenvDuration("KPI_LOOKBACK", 90*24*time.Hour),
		bucket,
		getenvDuration("KPI_REFRESH_INTERVAL", 15*time.Minute),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go snapshotWorker.Start(ctx)

	// 6. Handlers
	leadHandler := handlers.NewLeadHandler(submitLeadUC)
	webhookHandler := handlers.NewWebhookHandler(ingestWebhookUC)
	kpiHandler := handlers.NewKPIHandler(publisher, snapshotWorker)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/leads", leadHandler.Handle)
	r.Post("/webhooks/{provider}", webhookHandler.Handle)
	r.Get("/kpis/current", kpiHandler.HandleCurrent)
	r.Post("/kpis/recompute", kpiHandler.HandleRecompute)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":" + getenv("PORT", "8080")
	log.Printf("🔥 Global Tierra CRM API listening on %s", port)
	http.ListenAndServe(port, r)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
