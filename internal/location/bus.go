// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package location

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/job"
	"github.com/wneessen/geomarker/internal/logger"
)

// BusProvider serves location subscriptions from the best fix on a GeoBus. The location
// sources only run while a subscription is active.
type BusProvider struct {
	bus        *geobus.GeoBus
	tracker    Tracker
	key        string
	permission Permission
	logger     *logger.Logger
}

// NewBusProvider returns a BusProvider for key. tracker may be nil when something else feeds
// the bus.
func NewBusProvider(bus *geobus.GeoBus, tracker Tracker, key string, permission Permission,
	log *logger.Logger,
) *BusProvider {
	return &BusProvider{bus: bus, tracker: tracker, key: key, permission: permission, logger: log}
}

// Subscribe starts delivering fixes according to req. A new fix is delivered right away unless
// the previous delivery is younger than the fastest interval, in which case it waits for the next
// interval tick. Every interval tick re-delivers the latest fix. The tracker runs for the
// lifetime of the subscription, which ends with Unsubscribe or when ctx is cancelled.
func (p *BusProvider) Subscribe(ctx context.Context, req Request) (Subscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	granted, err := p.permission.Granted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check location permission: %w", err)
	}
	if !granted {
		return nil, ErrPermission
	}

	subCtx, cancel := context.WithCancel(ctx)
	results, unsub := p.bus.Subscribe(p.key, 1)
	ticks := make(chan struct{}, 1)
	ticker := job.New(req.Interval, func(context.Context) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	sub := &busSubscription{
		out:    make(chan geobus.Coordinate),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	tickerDone := ticker.Go(subCtx)
	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		if p.tracker != nil {
			p.tracker.Track(subCtx, p.key)
		}
	}()
	go func() {
		defer close(sub.done)
		defer func() { <-trackerDone }()
		defer func() { <-tickerDone }()
		defer unsub()
		sub.run(subCtx, results, ticks, req.FastestInterval)
	}()

	p.logger.Debug("location subscription started", slog.String("key", p.key),
		slog.Duration("interval", req.Interval), slog.Duration("fastest_interval", req.FastestInterval),
		slog.String("priority", req.Priority.String()))
	return sub, nil
}

type busSubscription struct {
	out    chan geobus.Coordinate
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *busSubscription) C() <-chan geobus.Coordinate {
	return s.out
}

// Unsubscribe stops the subscription and waits until its sender has exited.
func (s *busSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// run is the only sender on s.out.
func (s *busSubscription) run(ctx context.Context, results <-chan geobus.Result, ticks <-chan struct{},
	fastest time.Duration,
) {
	var latest geobus.Coordinate
	var lastSent time.Time
	have, pending := false, false

	for {
		var out chan<- geobus.Coordinate
		if pending {
			out = s.out
		}

		select {
		case <-ctx.Done():
			return
		case r, ok := <-results:
			if !ok {
				return
			}
			latest, have = r.Position, true
			if lastSent.IsZero() || time.Since(lastSent) >= fastest {
				pending = true
			}
		case <-ticks:
			pending = have
		case out <- latest:
			pending = false
			lastSent = time.Now()
		}
	}
}
