package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/felixLandlord/eventRSVP/internal/app"
	"github.com/felixLandlord/eventRSVP/internal/auth"
	"github.com/felixLandlord/eventRSVP/internal/clock"
	"github.com/felixLandlord/eventRSVP/internal/config"
	"github.com/felixLandlord/eventRSVP/internal/credential"
	"github.com/felixLandlord/eventRSVP/internal/notify"
	"github.com/felixLandlord/eventRSVP/internal/ratelimit"
	"github.com/felixLandlord/eventRSVP/internal/storage/postgres"
	transporthttp "github.com/felixLandlord/eventRSVP/internal/transport/http"
	"github.com/felixLandlord/eventRSVP/migrations"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		return err
	}

	sysClock := clock.NewSystem()
	issuer := credential.NewJWTIssuer([]byte(cfg.CredentialSecret), sysClock, cfg.CredentialTTL)
	verifier := auth.NewHS256Verifier([]byte(cfg.AccessTokenSecret), sysClock)

	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		publisher, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer func() { _ = publisher.Close() }()
		notifier = publisher
		logger.Info("notifications via amqp", zap.String("exchange", cfg.AMQPExchange))
	} else {
		notifier = notify.NewLogNotifier(logger)
		logger.Info("notifications via log only")
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.New(ratelimit.DefaultBudgets())
	}

	eventRepo := postgres.NewEventRepository(pool)
	eventSvc := app.NewEventService(eventRepo, sysClock)
	ticketRepo := postgres.NewTicketRepository(pool)
	ticketSvc := app.NewTicketService(ticketRepo, sysClock)
	rsvpRepo := postgres.NewRSVPRepository(pool)
	rsvpSvc := app.NewRSVPService(rsvpRepo, sysClock, issuer, notifier, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/events", transporthttp.HandleEvents(eventSvc, verifier, limiter))
	mux.Handle("/events/", transporthttp.HandleEventSubroutes(eventSvc, ticketSvc, rsvpSvc, verifier, limiter))
	mux.Handle("/organizer/events", transporthttp.HandleOrganizerEvents(eventSvc, verifier, limiter))
	mux.Handle("/rsvps", transporthttp.HandleRSVPs(rsvpSvc, verifier, limiter))
	mux.Handle("/rsvps/", transporthttp.HandleRSVPSubroutes(rsvpSvc, verifier, limiter))
	mux.Handle("/tiers/", transporthttp.HandleTierCapacity(ticketSvc, verifier, limiter))
	mux.Handle("/checkin/validate", transporthttp.HandleValidateCredential(rsvpSvc, verifier, limiter))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", zap.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
