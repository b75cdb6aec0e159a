// Package pipeline orchestrates one planning run: resolve the origin, lay
// the grid, fan out to the three data sources, fuse, constrain, score, and
// assemble the scenario record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harborwatch/sector-scoring/internal/domain"
	"github.com/harborwatch/sector-scoring/internal/observability"
)

// Samplers holds the three data sources a run fans out to.
type Samplers struct {
	Weather    domain.Sampler
	Marine     domain.Sampler
	Bathymetry domain.Sampler
}

// Geocoder resolves a named place to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (domain.GeoPoint, string, error)
}

// SunProvider fetches sunrise/sunset for scenario enrichment.
type SunProvider interface {
	SunTimes(ctx context.Context, p domain.GeoPoint, date time.Time) (domain.SunTimes, error)
}

// ScenarioSink receives completed scenarios, e.g. a Kafka topic. Publishing
// is best effort and never fails a run.
type ScenarioSink interface {
	Publish(ctx context.Context, scenario *domain.Scenario) error
}

// PlanRequest is the full input for one run. Either Origin or OriginName
// must be set; OriginName requires a configured geocoder.
type PlanRequest struct {
	Mission    string           `json:"mission"`
	Origin     *domain.GeoPoint `json:"origin,omitempty"`
	OriginName string           `json:"originName,omitempty"`

	CenterBearing float64 `json:"centerBearing"`
	HalfAngle     float64 `json:"halfAngle"`
	RadiusNm      float64 `json:"radiusNm"`
	RingSpacingNm float64 `json:"ringSpacingNm,omitempty"`

	Weights    map[string]float64     `json:"weights,omitempty"`
	Vessel     domain.VesselProfile   `json:"vessel"`
	Hazards    []domain.HazardZone    `json:"hazards,omitempty"`
	Connectors []domain.ConnectorRule `json:"connectors,omitempty"`
	Target     *domain.GeoPoint       `json:"target,omitempty"`
	Window     domain.TimeWindow      `json:"window,omitzero"`

	MinStandoffNm float64 `json:"minStandoffNm,omitempty"`
	MaxStandoffNm float64 `json:"maxStandoffNm,omitempty"`
}

// Planner runs the plan-fetch-fuse-score pipeline.
type Planner struct {
	samplers Samplers
	geocoder Geocoder
	sun      SunProvider
	sink     ScenarioSink
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option configures optional planner collaborators.
type Option func(*Planner)

func WithGeocoder(g Geocoder) Option { return func(p *Planner) { p.geocoder = g } }
func WithSunProvider(s SunProvider) Option { return func(p *Planner) { p.sun = s } }
func WithScenarioSink(s ScenarioSink) Option { return func(p *Planner) { p.sink = s } }

func NewPlanner(samplers Samplers, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Planner {
	p := &Planner{
		samplers: samplers,
		metrics:  metrics,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one planning run. Geometry and weight validation happen
// before any network traffic; a total source outage degrades the run, it
// never fails it.
func (p *Planner) Run(ctx context.Context, req PlanRequest) (*domain.Scenario, error) {
	p.metrics.RunsStarted.Inc()
	started := time.Now()

	origin, err := p.resolveOrigin(ctx, req)
	if err != nil {
		p.metrics.RunsFailed.Inc()
		return nil, err
	}

	sector := domain.Sector{
		Origin:        origin,
		CenterBearing: req.CenterBearing,
		HalfAngle:     req.HalfAngle,
		RadiusNm:      req.RadiusNm,
		RingSpacingNm: req.RingSpacingNm,
	}
	if err := sector.Validate(); err != nil {
		p.metrics.RunsFailed.Inc()
		return nil, err
	}

	weights, err := domain.NewMissionWeights(req.Mission, req.Weights)
	if err != nil {
		p.metrics.RunsFailed.Inc()
		return nil, err
	}

	grid, err := sector.GridPoints()
	if err != nil {
		p.metrics.RunsFailed.Inc()
		return nil, err
	}
	p.metrics.GridPoints.Observe(float64(len(grid)))

	points := make([]domain.GeoPoint, len(grid))
	for i, gp := range grid {
		points[i] = gp.GeoPoint
	}

	sources, unavailable, err := p.fetchAll(ctx, points, req.Window)
	if err != nil {
		p.metrics.RunsFailed.Inc()
		return nil, err
	}

	fused, fusionDiag := domain.Fuse(grid, sources)
	constraints := domain.ApplyConstraints(grid, fused, req.Hazards, req.Connectors, req.Vessel)

	opts := []domain.EngineOption{domain.WithUnavailableSources(unavailable...)}
	if req.Target != nil {
		opts = append(opts, domain.WithTarget(*req.Target))
	}
	if req.MinStandoffNm > 0 || req.MaxStandoffNm > 0 {
		opts = append(opts, domain.WithStandoffBand(req.MinStandoffNm, req.MaxStandoffNm))
	}

	engine := domain.NewEngine(weights, req.Vessel, origin, opts...)
	scored := engine.Score(grid, fused, constraints)
	p.metrics.PointsScored.Add(float64(len(scored)))

	scenario := &domain.Scenario{
		RunID:       domain.NewRunID(sector, weights.Profile, req.Window),
		Mission:     weights.Profile,
		Sector:      sector,
		Weights:     weights,
		Vessel:      req.Vessel,
		Hazards:     req.Hazards,
		Connectors:  req.Connectors,
		Target:      req.Target,
		Window:      req.Window,
		Scored:      scored,
		Diagnostics: domain.BuildDiagnostics(scored, fusionDiag, unavailable),
	}
	scenario.Stamp()

	p.enrichSun(ctx, scenario, origin)
	p.publish(ctx, scenario)

	p.metrics.RunsCompleted.Inc()
	p.metrics.RunDuration.Observe(time.Since(started).Seconds())
	p.logger.Info("planning run complete",
		"runId", scenario.RunID,
		"mission", scenario.Mission,
		"points", len(scored),
		"eligible", scenario.Diagnostics.PointsEligible,
		"sourcesUnavailable", len(unavailable),
		"duration", time.Since(started))

	return scenario, nil
}

func (p *Planner) resolveOrigin(ctx context.Context, req PlanRequest) (domain.GeoPoint, error) {
	if req.Origin != nil {
		return *req.Origin, nil
	}
	if req.OriginName == "" {
		return domain.GeoPoint{}, fmt.Errorf("%w: origin or originName required", domain.ErrInvalidSector)
	}
	if p.geocoder == nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: named origins need a geocoder", domain.ErrInvalidSector)
	}
	point, resolved, err := p.geocoder.Geocode(ctx, req.OriginName)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("resolve origin: %w", err)
	}
	p.logger.Info("resolved origin", "name", req.OriginName, "resolved", resolved,
		"lat", point.Lat, "lon", point.Lon)
	return point, nil
}

// fetchAll fans out to every configured sampler. A sampler reporting
// ErrSourceUnavailable is recorded and skipped; any other error aborts.
func (p *Planner) fetchAll(ctx context.Context, points []domain.GeoPoint, window domain.TimeWindow) ([]domain.SourceSamples, []domain.SourceKind, error) {
	samplers := []domain.Sampler{p.samplers.Weather, p.samplers.Marine, p.samplers.Bathymetry}

	var mu sync.Mutex
	var sources []domain.SourceSamples
	var unavailable []domain.SourceKind

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range samplers {
		if s == nil {
			continue
		}
		g.Go(func() error {
			samples, err := s.Fetch(gctx, points, window)
			if err != nil {
				if errors.Is(err, domain.ErrSourceUnavailable) {
					p.logger.Warn("source unavailable, continuing degraded",
						"source", s.Source(), "error", err)
					p.metrics.SourceUnavailable.WithLabelValues(string(s.Source())).Inc()
					mu.Lock()
					unavailable = append(unavailable, s.Source())
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("fetch %s: %w", s.Source(), err)
			}
			mu.Lock()
			sources = append(sources, samples)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Canonical source order keeps runs byte-for-byte reproducible.
	ordered := make([]domain.SourceSamples, 0, len(sources))
	orderedUnavailable := make([]domain.SourceKind, 0, len(unavailable))
	for _, kind := range domain.Sources() {
		for _, s := range sources {
			if s.Source == kind {
				ordered = append(ordered, s)
			}
		}
		for _, u := range unavailable {
			if u == kind {
				orderedUnavailable = append(orderedUnavailable, u)
			}
		}
	}
	return ordered, orderedUnavailable, nil
}

func (p *Planner) enrichSun(ctx context.Context, scenario *domain.Scenario, origin domain.GeoPoint) {
	if p.sun == nil {
		return
	}
	date := scenario.Window.Start
	if date.IsZero() {
		date = scenario.GeneratedAt
	}
	sun, err := p.sun.SunTimes(ctx, origin, date)
	if err != nil {
		p.logger.Warn("sun times unavailable", "error", err)
		return
	}
	scenario.Sun = &sun
}

func (p *Planner) publish(ctx context.Context, scenario *domain.Scenario) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, scenario); err != nil {
		p.logger.Warn("scenario publish failed", "runId", scenario.RunID, "error", err)
	}
}

// CheckReadiness reports whether the planner can serve runs.
func (p *Planner) CheckReadiness(ctx context.Context) error {
	_ = ctx
	if p.samplers.Weather == nil && p.samplers.Marine == nil && p.samplers.Bathymetry == nil {
		return errors.New("no samplers configured")
	}
	return nil
}
