package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/harborwatch/sector-scoring/internal/adapter/httpadapter"
	kafkaadapter "github.com/harborwatch/sector-scoring/internal/adapter/kafka"
	"github.com/harborwatch/sector-scoring/internal/adapter/middleware"
	"github.com/harborwatch/sector-scoring/internal/adapter/openmeteo"
	"github.com/harborwatch/sector-scoring/internal/adapter/opentopo"
	"github.com/harborwatch/sector-scoring/internal/adapter/sourcecache"
	"github.com/harborwatch/sector-scoring/internal/config"
	"github.com/harborwatch/sector-scoring/internal/domain"
	"github.com/harborwatch/sector-scoring/internal/observability"
	"github.com/harborwatch/sector-scoring/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// One limiter per provider host; Open-Meteo and OpenTopoData rate-limit
	// independently.
	forecastLimiter := rate.NewLimiter(rate.Limit(cfg.ProviderRateLimit), 1)
	marineLimiter := rate.NewLimiter(rate.Limit(cfg.ProviderRateLimit), 1)
	bathyLimiter := rate.NewLimiter(rate.Limit(cfg.ProviderRateLimit), 1)

	weather := openmeteo.NewWeatherClient(cfg.ProviderTimeout, forecastLimiter, metrics, logger)
	marine := openmeteo.NewMarineClient(cfg.ProviderTimeout, marineLimiter, metrics, logger)
	bathy := opentopo.NewClient(cfg.ProviderTimeout, bathyLimiter, metrics, logger)
	geocoder := openmeteo.NewGeocodeClient(cfg.ProviderTimeout, forecastLimiter)

	samplers := pipeline.Samplers{
		Weather:    decorate(weather, cfg, clock, metrics, logger),
		Marine:     decorate(marine, cfg, clock, metrics, logger),
		Bathymetry: decorate(bathy, cfg, clock, metrics, logger),
	}

	opts := []pipeline.Option{
		pipeline.WithGeocoder(geocoder),
		pipeline.WithSunProvider(weather),
	}

	var sink *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		sink = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		opts = append(opts, pipeline.WithScenarioSink(sink))
		logger.Info("kafka scenario sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	planner := pipeline.NewPlanner(samplers, metrics, logger, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, planner, planner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// decorate wraps a provider client with retries, a circuit breaker, and the
// TTL cache.
func decorate(inner domain.Sampler, cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) domain.Sampler {
	resilient := middleware.NewResilientSampler(inner, cfg.ProviderRetries, cfg.ProviderTimeout, logger)
	return sourcecache.NewCachedSampler(resilient, cfg.CacheTTL, cfg.CacheSize, clock, metrics)
}
