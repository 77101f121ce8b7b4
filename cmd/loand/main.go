package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corebank/loanengine/internal/application/job"
	"github.com/corebank/loanengine/internal/application/usecase"
	"github.com/corebank/loanengine/internal/domain/service"
	"github.com/corebank/loanengine/internal/infrastructure/adapter"
	"github.com/corebank/loanengine/internal/infrastructure/config"
	"github.com/corebank/loanengine/internal/infrastructure/kafka"
	pgRepo "github.com/corebank/loanengine/internal/infrastructure/postgres"
	grpcPresentation "github.com/corebank/loanengine/internal/presentation/grpc"
	"github.com/corebank/loanengine/internal/presentation/rest"
	"github.com/corebank/loanengine/pkg/auth"
	pkgkafka "github.com/corebank/loanengine/pkg/kafka"
	"github.com/corebank/loanengine/pkg/observability"
	pkgpostgres "github.com/corebank/loanengine/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()
	cfg.Validate()

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	logger.Info("starting loanengine",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Initialize tracing.
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(ctx) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	// Initialize metrics.
	_, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Warn("failed to initialize metrics, continuing without metrics", "error", err)
	}

	// Database connection.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, cfg.DB)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Run database migrations.
	if migErr := pkgpostgres.RunMigrations(cfg.DB.DSN(), cfg.MigrationsDir); migErr != nil {
		logger.Warn("migration warning", "error", migErr)
	}

	// Wire infrastructure adapters.
	loanRepo := pgRepo.NewLoanRepo(pool)
	productRepo := pgRepo.NewProductRepo(pool)
	journalRepo := pgRepo.NewJournalRepo(pool)

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers: cfg.Kafka.Brokers,
		TLS:     cfg.TLS.Enabled,
	})
	defer kafkaProducer.Close()
	publisher := kafka.NewKafkaEventPublisher(kafkaProducer, cfg.Kafka.EventTopic, logger)

	savings := adapter.NewStubSavingsService()

	locks := job.NewLockRegistry()
	runner := job.NewRunner(cfg.Jobs.Workers, locks, logger)
	allocator := service.AllocatorByName(cfg.AllocationStrategy)
	logger.Info("payment allocation strategy selected", "strategy", allocator.Name())

	// Wire use cases.
	useCases := grpcPresentation.UseCases{
		Submit:        usecase.NewSubmitLoanUseCase(loanRepo, productRepo, publisher),
		Approve:       usecase.NewApproveLoanUseCase(loanRepo, publisher, locks),
		UndoApproval:  usecase.NewUndoApprovalUseCase(loanRepo, publisher, locks),
		Disburse:      usecase.NewDisburseLoanUseCase(loanRepo, journalRepo, publisher, locks, savings),
		UndoDisbursal: usecase.NewUndoDisbursalUseCase(loanRepo, journalRepo, publisher, locks, savings),
		Repay:         usecase.NewMakeRepaymentUseCase(loanRepo, journalRepo, publisher, locks, allocator),
		WaiveInterest: usecase.NewWaiveInterestUseCase(loanRepo, journalRepo, publisher, locks),
		AddCharge:     usecase.NewAddChargeUseCase(loanRepo, publisher, locks),
		UpdateCharge:  usecase.NewUpdateChargeUseCase(loanRepo, publisher, locks),
		DeleteCharge:  usecase.NewDeleteChargeUseCase(loanRepo, publisher, locks),
		WaiveCharge:   usecase.NewWaiveChargeUseCase(loanRepo, journalRepo, publisher, locks),
		PayCharge:     usecase.NewPayChargeUseCase(loanRepo, journalRepo, publisher, locks, savings),
		Refund:        usecase.NewRefundUseCase(loanRepo, journalRepo, publisher, locks),
		Foreclose:     usecase.NewForecloseLoanUseCase(loanRepo, journalRepo, publisher, locks),
		WriteOff:      usecase.NewWriteOffLoanUseCase(loanRepo, journalRepo, publisher, locks),
		GetLoan:       usecase.NewGetLoanUseCase(loanRepo),
		ListLoans:     usecase.NewListClientLoansUseCase(loanRepo),
		Accrual:       usecase.NewRunAccrualUseCase(loanRepo, journalRepo, publisher, runner),
		Overdue:       usecase.NewApplyOverdueChargesUseCase(loanRepo, publisher, runner),
	}

	// JWT service (validation-only unless AUTH_DISABLED).
	var jwtSvc *auth.JWTService
	if !cfg.Auth.Disabled {
		jwtSvc, err = auth.NewJWTService(auth.JWTConfig{
			Issuer: "loanengine",
			Secret: cfg.Auth.JWTSecret,
		})
		if err != nil {
			logger.Error("failed to initialize JWT service", "error", err)
			os.Exit(1)
		}
	}

	// gRPC server.
	handler := grpcPresentation.NewLoanHandler(useCases, logger)
	grpcServer := grpcPresentation.NewServer(handler, logger, jwtSvc, cfg.TLS.CertFile, cfg.TLS.KeyFile)

	// HTTP server (health checks and metrics).
	mux := http.NewServeMux()
	healthHandler := rest.NewHealthHandler(pool, logger)
	healthHandler.RegisterRoutes(mux)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("loanengine stopped")
}
