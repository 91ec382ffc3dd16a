// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/wneessen/geomarker/internal/logger"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Rough accuracy classes in meters for sources that do not report their own accuracy.
const (
	AccuracyCountry = 300000
	AccuracyRegion  = 100000
	AccuracyCity    = 15000
	AccuracyZip     = 3000
	AccuracyUnknown = 1000000
	TruncPrecision  = 6
)

var ErrLoggerRequired = errors.New("logger is required")

// Provider is a location source. LookupStream emits fixes for key until ctx is done or the
// source gives up, in which case the channel is closed.
type Provider interface {
	Name() string
	LookupStream(ctx context.Context, key string) <-chan Result
}

// Result is a single fix as reported by a Provider.
type Result struct {
	Key            string
	Position       Coordinate
	AccuracyMeters float64
	Source         string
	At             time.Time
	TTL            time.Duration
}

// IsExpired reports whether the result outlived its TTL. A zero TTL never expires.
func (r Result) IsExpired() bool {
	return r.TTL > 0 && time.Since(r.At) > r.TTL
}

// Supersedes reports whether r should replace prev as the best known fix. A fix from the same
// source always replaces its predecessor, otherwise the less accurate source has to wait
// until the better one expires.
func (r Result) Supersedes(prev Result) bool {
	if prev.Key == "" || prev.IsExpired() {
		return true
	}
	if r.At.Before(prev.At) {
		return false
	}
	if r.Source == prev.Source {
		return true
	}
	return r.AccuracyMeters <= prev.AccuracyMeters
}

// GeoBus fans out the best known fix per key to its subscribers.
type GeoBus struct {
	mu          sync.RWMutex
	logger      *logger.Logger
	best        map[string]Result
	subscribers map[string]map[chan Result]struct{}
}

// New returns an empty GeoBus.
func New(log *logger.Logger) (*GeoBus, error) {
	if log == nil {
		return nil, ErrLoggerRequired
	}
	return &GeoBus{
		logger:      log,
		best:        make(map[string]Result),
		subscribers: make(map[string]map[chan Result]struct{}),
	}, nil
}

// NewOrchestrator returns an Orchestrator that feeds this bus from providers.
func (b *GeoBus) NewOrchestrator(providers []Provider) *Orchestrator {
	return &Orchestrator{Bus: b, Providers: providers}
}

// Subscribe registers a subscriber for key. The current best fix, if any, is delivered right
// away. The returned function unsubscribes and closes the channel; it must be called once.
func (b *GeoBus) Subscribe(key string, size int) (<-chan Result, func()) {
	if size < 1 {
		size = 1
	}
	ch := make(chan Result, size)

	b.mu.Lock()
	if _, ok := b.subscribers[key]; !ok {
		b.subscribers[key] = make(map[chan Result]struct{})
	}
	b.subscribers[key][ch] = struct{}{}
	if best, ok := b.best[key]; ok && !best.IsExpired() {
		ch <- best
	}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		if subs, ok := b.subscribers[key]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.subscribers, key)
			}
		}
		b.mu.Unlock()
		close(ch)
	}
	return ch, unsub
}

// Publish offers r to the bus. Invalid fixes and fixes without accuracy are dropped.
func (b *GeoBus) Publish(r Result) {
	if r.AccuracyMeters <= 0 || !r.Position.Valid() {
		return
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.best[r.Key]
	if !r.Supersedes(prev) {
		return
	}
	b.best[r.Key] = r
	b.logger.Debug("geobus: new best fix", slog.String("key", r.Key), slog.String("source", r.Source),
		slog.String("position", r.Position.String()), slog.Float64("accuracy", r.AccuracyMeters))

	for ch := range b.subscribers[r.Key] {
		select {
		case ch <- r:
		default:
		}
	}
}

// Best returns the current best, non-expired fix for key.
func (b *GeoBus) Best(key string) (Result, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.best[key]
	return r, ok && !r.IsExpired()
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d *= 2; d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Truncate cuts x to precision decimal places.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
