// Command plan executes a single planning run from a JSON request and
// prints the scored scenario to stdout, for ad-hoc use without the service.
//
// Usage:
//
//	plan -request request.json
//	cat request.json | plan
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

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
	requestPath := flag.String("request", "", "path to a plan request JSON file; stdin when omitted")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	pretty := flag.Bool("pretty", true, "indent the scenario output")
	flag.Parse()

	if err := run(*requestPath, *timeout, *pretty); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(requestPath string, timeout time.Duration, pretty bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	req, err := readRequest(requestPath)
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout stays clean scenario JSON.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	limiter := rate.NewLimiter(rate.Limit(cfg.ProviderRateLimit), 1)
	weather := openmeteo.NewWeatherClient(cfg.ProviderTimeout, limiter, metrics, logger)
	marine := openmeteo.NewMarineClient(cfg.ProviderTimeout, rate.NewLimiter(rate.Limit(cfg.ProviderRateLimit), 1), metrics, logger)
	bathy := opentopo.NewClient(cfg.ProviderTimeout, rate.NewLimiter(rate.Limit(cfg.ProviderRateLimit), 1), metrics, logger)

	samplers := pipeline.Samplers{
		Weather:    decorate(weather, cfg, clock, metrics, logger),
		Marine:     decorate(marine, cfg, clock, metrics, logger),
		Bathymetry: decorate(bathy, cfg, clock, metrics, logger),
	}

	planner := pipeline.NewPlanner(samplers, metrics, logger,
		pipeline.WithGeocoder(openmeteo.NewGeocodeClient(cfg.ProviderTimeout, limiter)),
		pipeline.WithSunProvider(weather))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	scenario, err := planner.Run(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(scenario)
}

func readRequest(path string) (pipeline.PlanRequest, error) {
	var req pipeline.PlanRequest

	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func decorate(inner domain.Sampler, cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) domain.Sampler {
	resilient := middleware.NewResilientSampler(inner, cfg.ProviderRetries, cfg.ProviderTimeout, logger)
	return sourcecache.NewCachedSampler(resilient, cfg.CacheTTL, cfg.CacheSize, clock, metrics)
}
