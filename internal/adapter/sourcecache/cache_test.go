package sourcecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborwatch/sector-scoring/internal/domain"
	"github.com/harborwatch/sector-scoring/internal/observability"
)

// --- mock sampler ---

type countingSampler struct {
	calls   int
	points  [][]domain.GeoPoint
	err     error
	reading func(p domain.GeoPoint) domain.Reading
}

func (m *countingSampler) Source() domain.SourceKind { return domain.SourceBathymetry }

func (m *countingSampler) Fetch(_ context.Context, points []domain.GeoPoint, _ domain.TimeWindow) (domain.SourceSamples, error) {
	m.calls++
	m.points = append(m.points, points)
	if m.err != nil {
		return domain.SourceSamples{}, m.err
	}
	out := domain.SourceSamples{Source: domain.SourceBathymetry, NativeSpacingNm: 0.25}
	for _, p := range points {
		out.Samples = append(out.Samples, domain.Sample{Point: p, Reading: m.reading(p)})
	}
	return out, nil
}

func depthReading(d float64) func(domain.GeoPoint) domain.Reading {
	return func(_ domain.GeoPoint) domain.Reading {
		r := domain.EmptyReading(domain.SourceBathymetry)
		r.Set(domain.FieldDepthM, d)
		return r
	}
}

func newTestCache(inner domain.Sampler, ttl time.Duration, clock clockwork.Clock) *CachedSampler {
	return NewCachedSampler(inner, ttl, 100, clock, observability.NewMetricsForTesting())
}

func TestCachedSampler_SecondFetchHits(t *testing.T) {
	inner := &countingSampler{reading: depthReading(50)}
	cached := newTestCache(inner, 10*time.Minute, clockwork.NewFakeClock())

	points := []domain.GeoPoint{{Lat: 10, Lon: 120}, {Lat: 10.2, Lon: 120}}

	first, err := cached.Fetch(context.Background(), points, domain.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, first.Samples, 2)

	second, err := cached.Fetch(context.Background(), points, domain.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, second.Samples, 2)

	assert.Equal(t, 1, inner.calls, "fully cached fetch must not call inner")
	assert.Equal(t, first.Samples, second.Samples)
	assert.Equal(t, 0.25, second.NativeSpacingNm, "spacing survives a fully cached fetch")
}

func TestCachedSampler_PartialHitFetchesOnlyMisses(t *testing.T) {
	inner := &countingSampler{reading: depthReading(50)}
	cached := newTestCache(inner, 10*time.Minute, clockwork.NewFakeClock())

	a := domain.GeoPoint{Lat: 10, Lon: 120}
	b := domain.GeoPoint{Lat: 10.2, Lon: 120}
	c := domain.GeoPoint{Lat: 10.4, Lon: 120}

	_, err := cached.Fetch(context.Background(), []domain.GeoPoint{a, b}, domain.TimeWindow{})
	require.NoError(t, err)

	got, err := cached.Fetch(context.Background(), []domain.GeoPoint{a, c, b}, domain.TimeWindow{})
	require.NoError(t, err)

	require.Equal(t, 2, inner.calls)
	assert.Equal(t, []domain.GeoPoint{c}, inner.points[1], "only the miss goes to inner")

	// Caller order is preserved across the cached/fresh merge.
	require.Len(t, got.Samples, 3)
	assert.Equal(t, a, got.Samples[0].Point)
	assert.Equal(t, c, got.Samples[1].Point)
	assert.Equal(t, b, got.Samples[2].Point)
}

func TestCachedSampler_TTLExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingSampler{reading: depthReading(50)}
	cached := newTestCache(inner, 10*time.Minute, clock)

	points := []domain.GeoPoint{{Lat: 10, Lon: 120}}

	_, err := cached.Fetch(context.Background(), points, domain.TimeWindow{})
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, err = cached.Fetch(context.Background(), points, domain.TimeWindow{})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "entry still fresh")

	clock.Advance(2 * time.Minute)
	_, err = cached.Fetch(context.Background(), points, domain.TimeWindow{})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "expired entry refetches")
}

func TestCachedSampler_DistinctWindowsMiss(t *testing.T) {
	inner := &countingSampler{reading: depthReading(50)}
	cached := newTestCache(inner, 10*time.Minute, clockwork.NewFakeClock())

	points := []domain.GeoPoint{{Lat: 10, Lon: 120}}
	w1 := domain.TimeWindow{Start: time.Unix(1756000000, 0), End: time.Unix(1756003600, 0)}
	w2 := domain.TimeWindow{Start: time.Unix(1756086400, 0), End: time.Unix(1756090000, 0)}

	_, err := cached.Fetch(context.Background(), points, w1)
	require.NoError(t, err)
	_, err = cached.Fetch(context.Background(), points, w2)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSampler_EmptyReadingsNotCached(t *testing.T) {
	inner := &countingSampler{reading: func(_ domain.GeoPoint) domain.Reading {
		return domain.EmptyReading(domain.SourceBathymetry)
	}}
	cached := newTestCache(inner, 10*time.Minute, clockwork.NewFakeClock())

	points := []domain.GeoPoint{{Lat: 10, Lon: 120}}

	_, err := cached.Fetch(context.Background(), points, domain.TimeWindow{})
	require.NoError(t, err)
	_, err = cached.Fetch(context.Background(), points, domain.TimeWindow{})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "all-missing readings are retried, not cached")
}

func TestCachedSampler_InnerErrorPropagates(t *testing.T) {
	inner := &countingSampler{err: domain.ErrSourceUnavailable}
	cached := newTestCache(inner, 10*time.Minute, clockwork.NewFakeClock())

	_, err := cached.Fetch(context.Background(), []domain.GeoPoint{{Lat: 10, Lon: 120}}, domain.TimeWindow{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}

func TestTTLCache_EvictsLeastRecentlyUsed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newTTLCache(time.Hour, 2, clock)

	sample := func(lat float64) domain.Sample {
		return domain.Sample{Point: domain.GeoPoint{Lat: lat}}
	}

	c.put("a", sample(1))
	c.put("b", sample(2))
	_, ok := c.get("a") // a becomes most recent
	require.True(t, ok)

	c.put("c", sample(3)) // evicts b

	_, ok = c.get("b")
	assert.False(t, ok)
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}
