package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/axiomfin/be-invoice-review/internal/client"
	"github.com/axiomfin/be-invoice-review/internal/config"
	"github.com/axiomfin/be-invoice-review/internal/handler"
	"github.com/axiomfin/be-invoice-review/internal/logger"
	"github.com/axiomfin/be-invoice-review/internal/middleware"
	"github.com/axiomfin/be-invoice-review/internal/repository"
	"github.com/axiomfin/be-invoice-review/internal/risk"
	"github.com/axiomfin/be-invoice-review/internal/workflow"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Invoice Review Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select the risk store backend and optional audit sink
	var (
		riskStore   risk.Store
		auditSink   workflow.AuditSink
		auditReader handler.AuditReader
	)

	switch {
	case cfg.Database.URL != "":
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("Database ping failed")
		}
		log.Info().Msg("Database connection established")

		riskStore = risk.NewPostgresStore(pool)
		auditRepo := repository.NewWorkflowAuditRepository(pool)
		auditSink = auditRepo
		auditReader = auditRepo

	case cfg.Risk.ServiceURL != "":
		riskStore = risk.NewHTTPStore(cfg.Risk.ServiceURL)
		log.Info().Str("risk_service", cfg.Risk.ServiceURL).Msg("Using remote risk service")

	default:
		riskStore = seededStaticStore()
		log.Warn().Msg("No risk backend configured; using seeded in-memory store")
	}

	// Optional NATS: event publisher + decision channel
	var events workflow.EventPublisher
	var nc *nats.Conn
	if cfg.Nats.URL != "" {
		nc, err = nats.Connect(cfg.Nats.URL, nats.Name(cfg.Service.Name))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nc.Close()
		events = client.NewEventPublisher(nc, log.Logger)
		log.Info().Str("nats_url", cfg.Nats.URL).Msg("NATS connection established")
	}

	// The orchestrator is constructed per tenant with its own immutable
	// configuration value.
	orch := workflow.NewOrchestrator(workflow.Config{
		Tolerance:             cfg.Workflow.ToleranceAmount,
		UnknownVendorPolicy:   workflow.UnknownVendorPolicy(cfg.Workflow.UnknownVendorPolicy),
		RiskUnavailablePolicy: workflow.RiskUnavailablePolicy(cfg.Workflow.RiskUnavailablePolicy),
		RiskLookupTimeout:     cfg.Workflow.RiskLookupTimeout,
		ReviewTimeout:         cfg.Workflow.ReviewTimeout,
	}, riskStore, auditSink, events, log)

	if nc != nil {
		subscriber := client.NewDecisionSubscriber(nc, orch, log)
		if err := subscriber.Start(cfg.Nats.DecisionSubject); err != nil {
			log.Fatal().Err(err).Msg("Failed to start decision subscriber")
		}
		defer subscriber.Stop()
	}

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(orch, auditReader, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Invoice review routes
	mux.HandleFunc("/api/v1/invoices/submit", httpHandler.SubmitInvoice)
	mux.HandleFunc("/api/v1/invoices/decision", httpHandler.DecideInvoice)
	mux.HandleFunc("/api/v1/invoices/status", httpHandler.GetStatus)
	mux.HandleFunc("/api/v1/invoices/audit", httpHandler.GetAuditTrail)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(cfg.Server.WriteTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

// seededStaticStore mirrors the demo vendor book used before a real risk
// backend is wired in.
func seededStaticStore() *risk.StaticStore {
	store := risk.NewStaticStore()
	store.Put(risk.Profile{VendorID: "dark-web-corp", Level: risk.LevelHigh, Note: "Suspicious payment history"})
	store.Put(risk.Profile{VendorID: "aws", Level: risk.LevelLow, Note: "Infrastructure"})
	store.Put(risk.Profile{VendorID: "mckenzie-consulting", Level: risk.LevelMedium, Note: "Professional services"})
	return store
}
