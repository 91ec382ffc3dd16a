// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"log/slog"
	"sync"
)

// Orchestrator runs every Provider for a key and publishes their fixes to the bus.
type Orchestrator struct {
	Bus       *GeoBus
	Providers []Provider
}

// Track blocks until ctx is done. Each provider runs in its own goroutine and is restarted with
// exponential backoff whenever its stream ends.
func (o *Orchestrator) Track(ctx context.Context, key string) {
	var wg sync.WaitGroup
	for _, p := range o.Providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			o.trackProvider(ctx, p, key)
		}(p)
	}
	<-ctx.Done()
	wg.Wait()
}

func (o *Orchestrator) trackProvider(ctx context.Context, p Provider, key string) {
	backoff := initialBackoff
	for ctx.Err() == nil {
		published := 0
		if stream := o.safeLookup(ctx, p, key); stream != nil {
			for r := range o.until(ctx, stream) {
				o.Bus.Publish(r)
				published++
			}
		}
		if ctx.Err() != nil {
			return
		}
		if published > 0 {
			backoff = initialBackoff
		}
		o.Bus.logger.Debug("geobus: provider stream ended, backing off", slog.String("provider", p.Name()),
			slog.Duration("backoff", backoff))
		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

// until forwards stream until it is closed or ctx is done.
func (o *Orchestrator) until(ctx context.Context, stream <-chan Result) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-stream:
				if !ok {
					return
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// safeLookup calls LookupStream and turns a panicking provider into a nil stream.
func (o *Orchestrator) safeLookup(ctx context.Context, p Provider, key string) (ch <-chan Result) {
	defer func() {
		if r := recover(); r != nil {
			o.Bus.logger.Error("geobus: provider panicked", slog.String("provider", p.Name()),
				slog.Any("panic", r))
			ch = nil
		}
	}()
	return p.LookupStream(ctx, key)
}
