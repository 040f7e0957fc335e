package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"example.com/stravahook/internal/api"
	"example.com/stravahook/internal/auth"
	"example.com/stravahook/internal/config"
	"example.com/stravahook/internal/domain"
	"example.com/stravahook/internal/events"
	"example.com/stravahook/internal/observability"
	"example.com/stravahook/internal/persistence"
	"example.com/stravahook/internal/strava"
	httptransport "example.com/stravahook/internal/transport/http"
)

const (
	serviceName     = "stravahook"
	maxRequestBytes = 1 << 20
)

func main() {
	logger := observability.NewLogger(serviceName)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Error("failed to set up tracing", "err", err)
		os.Exit(1)
	}

	store, err := persistence.Open(ctx, cfg.StoreDSN)
	if err != nil {
		logger.Error("failed to open dedup store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	client := strava.NewClient(cfg.StravaAPIURL, cfg.StravaAccessToken, cfg.StravaTimeout)

	opts := []domain.ProcessorOption{domain.WithLogger(logger)}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()
		opts = append(opts, domain.WithNotifier(events.NewPublisher(producer, cfg.KafkaTopic)))
		logger.Info("publishing privatized activities", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	processor := domain.NewProcessor(store, client, opts...)
	dispatcher := domain.NewDispatcher(ctx, processor, logger)

	handler := api.NewHandler(dispatcher, domain.NewLedger(store),
		api.WithVerifyToken(cfg.WebhookVerifyToken),
		api.WithHealthCheck(store),
		api.WithLogger(logger),
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	var root http.Handler = httptransport.Chain(mux,
		httptransport.WithRequestID,
		httptransport.WithAccessLog(logger),
		httptransport.WithBodyLimit(maxRequestBytes),
		authMiddleware.Wrap,
	)
	root = otelhttp.NewHandler(root, serviceName)

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), root)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("webhook receiver listening", "addr", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-shutdownCh
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}

	// Accepted events finish before the store and producer close.
	dispatcher.Wait()

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", "err", err)
	}
}
