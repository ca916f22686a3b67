// Package ratelimit provides the per-source token-bucket rate limiter
// described in §5: one bucket per adapter, contended by all of that
// adapter's concurrent callers, with sleep-to-refill semantics.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Tangerg/biosearch/internal/metrics"
)

// Limiter wraps golang.org/x/time/rate.Limiter, grounded on the token
// bucket used for Google Drive API calls in the wider example pack
// (8 qps, burst 2). Each source adapter owns one instance; instances are
// never shared process-wide (§9 "Global mutable state").
type Limiter struct {
	inner *rate.Limiter
}

// PerSecond constructs a limiter for an rps-style budget (biomedical
// service, DOI registry, open-scholarly graphs).
func PerSecond(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{inner: rate.NewLimiter(rate.Limit(rps), burst)}
}

// PerMinute constructs a limiter for an rpm-style budget (full-text
// aggregator's unauthenticated/authenticated tiers).
func PerMinute(rpm float64, burst int) *Limiter {
	return PerSecond(rpm/60.0, burst)
}

// Wait blocks until a token is available or ctx is cancelled, implementing
// the "sleep-to-refill" semantics of §5.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.ObserveRateLimiterWait(time.Since(start).Seconds()) }()
	return l.inner.Wait(ctx)
}

// Defaults grounded on §4.2's per-source rate limit table.
const (
	BiomedicalRPSNoKey   = 3.0
	BiomedicalRPSWithKey = 10.0
	DOIRegistryRPS       = 50.0
	OpenScholarlyRPS     = 10.0
	FullTextRPMNoKey     = 10.0
	FullTextRPMWithKey   = 25.0
)

// NewBiomedical returns the default limiter for the biomedical source.
func NewBiomedical(hasAPIKey bool) *Limiter {
	if hasAPIKey {
		return PerSecond(BiomedicalRPSWithKey, 2)
	}
	return PerSecond(BiomedicalRPSNoKey, 1)
}

// NewDOIRegistry returns the default limiter for the DOI registry source.
func NewDOIRegistry() *Limiter {
	return PerSecond(DOIRegistryRPS, 5)
}

// NewOpenScholarly returns the default limiter for an open-scholarly graph
// source (OpenAlex, Semantic Scholar).
func NewOpenScholarly() *Limiter {
	return PerSecond(OpenScholarlyRPS, 2)
}

// NewFullText returns the default limiter for the full-text aggregator
// source.
func NewFullText(hasAPIKey bool) *Limiter {
	if hasAPIKey {
		return PerMinute(FullTextRPMWithKey, 2)
	}
	return PerMinute(FullTextRPMNoKey, 1)
}
