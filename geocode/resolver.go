// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ResolverOptions tune a Resolver; zero values select the defaults.
type ResolverOptions struct {
	Retry RetryPolicy

	// Cache, when set, answers repeated queries without calling the provider
	Cache Cache

	// Sleep waits between retries; tests replace it
	Sleep func(ctx context.Context, d time.Duration) error
}

// Resolver turns address queries into Outcomes. It is safe for concurrent use,
// and all its callers share the provider's pacing.
type Resolver struct {
	provider Provider
	limiter  *rate.Limiter
	retry    RetryPolicy
	cache    Cache
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewResolver creates a resolver pacing calls to p by its policy.
func NewResolver(p Provider, opts ResolverOptions) *Resolver {
	limit := rate.Inf
	if pacing := p.Policy().Pacing; pacing > 0 {
		limit = rate.Every(pacing)
	}

	r := &Resolver{
		provider: p,
		limiter:  rate.NewLimiter(limit, 1),
		retry:    opts.Retry.withDefaults(),
		cache:    opts.Cache,
		sleep:    opts.Sleep,
	}

	if r.sleep == nil {
		r.sleep = sleepContext
	}

	return r
}

// Provider returns the provider the resolver calls.
func (r *Resolver) Provider() Provider {
	return r.provider
}

// Resolve geocodes query. It never fails: errors end up in an unresolved
// Outcome. An empty query is unresolved without calling the provider.
func (r *Resolver) Resolve(ctx context.Context, query string) Outcome {
	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{Err: ErrEmptyQuery}
	}

	out := Outcome{Query: query}
	m := newRetryMachine(r.retry, query)

	for !m.done() {
		res, cached, err := r.lookup(ctx, m.query)
		if !cached {
			if err := r.limiter.Wait(ctx); err != nil {
				m.abort(err)

				break
			}

			res, err = r.provider.Geocode(ctx, m.query)
			if err == nil && res == nil {
				err = notFound(m.query)
			}

			out.Attempts++
			r.store(ctx, m.query, res, err)
		}

		out.Query = m.query
		out.Cached = cached

		delay := m.observe(err)
		if err == nil {
			out.Point = res.Point()
			out.DisplayName = res.DisplayName
			out.Confidence = res.Confidence
		}

		if delay > 0 && !m.done() {
			if err := r.sleep(ctx, delay); err != nil {
				m.abort(err)
			}
		}
	}

	out.Resolved = m.state == stateResolved
	out.Simplified = out.Query != query
	out.Err = m.lastErr

	return out
}

// lookup answers query from the cache. cached reports a hit, found or not.
func (r *Resolver) lookup(ctx context.Context, query string) (res *GeocodingResult, cached bool, err error) {
	if r.cache == nil {
		return nil, false, nil
	}

	entry, ok, err := r.cache.Get(ctx, r.provider.Name(), query)
	if err != nil {
		log.Printf("Geocode cache lookup failed for %q: %v", query, err)

		return nil, false, nil
	}

	if !ok {
		return nil, false, nil
	}

	if !entry.Found {
		return nil, true, notFound(query)
	}

	return &GeocodingResult{
		Latitude:    entry.Point.Lat,
		Longitude:   entry.Point.Lng,
		Confidence:  entry.Confidence,
		Provider:    r.provider.Name(),
		DisplayName: entry.DisplayName,
	}, true, nil
}

// store caches matches and no-matches; transient failures are never cached.
func (r *Resolver) store(ctx context.Context, query string, res *GeocodingResult, err error) {
	if r.cache == nil {
		return
	}

	var entry CacheEntry

	switch {
	case err == nil:
		entry = CacheEntry{Found: true, Point: res.Point(), DisplayName: res.DisplayName, Confidence: res.Confidence}
	case IsNotFoundError(err):
		entry = CacheEntry{Found: false}
	default:
		return
	}

	if err := r.cache.Put(ctx, r.provider.Name(), query, entry); err != nil {
		log.Printf("Geocode cache store failed for %q: %v", query, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
