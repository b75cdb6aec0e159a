// Package sourcecache wraps a sampler with an in-memory per-point cache so
// repeated runs over overlapping sectors do not refetch unchanged provider
// data. Entries expire after a TTL; bathymetry callers typically use a long
// one, weather callers a short one.
package sourcecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/harborwatch/sector-scoring/internal/domain"
	"github.com/harborwatch/sector-scoring/internal/observability"
)

// CachedSampler wraps a Sampler with a TTL cache keyed by point and window.
type CachedSampler struct {
	inner   domain.Sampler
	cache   *ttlCache
	metrics *observability.Metrics

	mu        sync.Mutex
	spacingNm float64 // native spacing learned from the first fetch
}

// NewCachedSampler creates a cache decorator around a sampler.
func NewCachedSampler(inner domain.Sampler, ttl time.Duration, maxEntries int, clock clockwork.Clock, metrics *observability.Metrics) *CachedSampler {
	return &CachedSampler{
		inner:   inner,
		cache:   newTTLCache(ttl, maxEntries, clock),
		metrics: metrics,
	}
}

func (c *CachedSampler) Source() domain.SourceKind { return c.inner.Source() }

// Fetch serves cached samples where fresh entries exist and forwards only
// the missing points to the inner sampler, reassembling the response in the
// caller's point order.
func (c *CachedSampler) Fetch(ctx context.Context, points []domain.GeoPoint, window domain.TimeWindow) (domain.SourceSamples, error) {
	source := string(c.inner.Source())

	samples := make([]domain.Sample, len(points))
	var missing []domain.GeoPoint
	var missingIdx []int

	for i, p := range points {
		if s, ok := c.cache.get(c.key(p, window)); ok {
			c.metrics.CacheLookups.WithLabelValues(source, "hit").Inc()
			samples[i] = s
			continue
		}
		c.metrics.CacheLookups.WithLabelValues(source, "miss").Inc()
		missing = append(missing, p)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return domain.SourceSamples{
			Source:          c.inner.Source(),
			NativeSpacingNm: c.spacing(),
			Samples:         samples,
		}, nil
	}

	fresh, err := c.inner.Fetch(ctx, missing, window)
	if err != nil {
		return domain.SourceSamples{}, err
	}
	c.setSpacing(fresh.NativeSpacingNm)

	for j, s := range fresh.Samples {
		if j >= len(missingIdx) {
			break
		}
		samples[missingIdx[j]] = s
		// Cache under the requested point, not the provider-snapped one,
		// so the next run over the same grid hits.
		if len(s.Reading.Fields) > 0 {
			c.cache.put(c.key(missing[j], window), s)
		}
	}

	return domain.SourceSamples{
		Source:          c.inner.Source(),
		NativeSpacingNm: fresh.NativeSpacingNm,
		Samples:         samples,
	}, nil
}

func (c *CachedSampler) key(p domain.GeoPoint, w domain.TimeWindow) string {
	return fmt.Sprintf("%s|%.4f,%.4f|%d-%d",
		c.inner.Source(), p.Lat, p.Lon, w.Start.Unix(), w.End.Unix())
}

func (c *CachedSampler) spacing() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spacingNm
}

func (c *CachedSampler) setSpacing(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spacingNm = v
}

// ttlCache is a thread-safe LRU cache whose entries also expire after a TTL.
type ttlCache struct {
	ttl        time.Duration
	maxEntries int
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key       string
	value     domain.Sample
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newTTLCache(ttl time.Duration, maxEntries int, clock clockwork.Clock) *ttlCache {
	return &ttlCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *ttlCache) get(key string) (domain.Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Sample{}, false
	}
	if c.clock.Now().After(e.expiresAt) {
		c.remove(e)
		delete(c.entries, key)
		return domain.Sample{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *ttlCache) put(key string, value domain.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *ttlCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *ttlCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *ttlCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *ttlCache) evictTail() {
	if c.tail == nil {
		return
	}
	victim := c.tail
	c.remove(victim)
	delete(c.entries, victim.key)
}
