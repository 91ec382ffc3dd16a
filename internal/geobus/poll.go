// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"time"
)

// LocateFunc performs a single position lookup and returns the position and its accuracy
// in meters.
type LocateFunc func(ctx context.Context) (Coordinate, float64, error)

// Source describes a polling location source.
type Source struct {
	Name   string
	Period time.Duration
	TTL    time.Duration
	Locate LocateFunc
}

// Result wraps pos/acc into a Result for key attributed to the source.
func (s Source) Result(key string, pos Coordinate, acc float64) Result {
	return Result{
		Key:            key,
		Position:       pos,
		AccuracyMeters: acc,
		Source:         s.Name,
		At:             time.Now(),
		TTL:            s.TTL,
	}
}

// Poll calls Locate right away and then once per Period, emitting a Result whenever the fix
// changed. An unchanged fix is emitted again when it would expire before the next poll.
// Failed lookups are skipped. The returned channel is closed when ctx is done.
func (s Source) Poll(ctx context.Context, key string) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		state := GeolocationState{}
		var emitted time.Time
		for first := true; ; first = false {
			if !first && !sleepOrDone(ctx, s.Period) {
				return
			}

			pos, acc, err := s.Locate(ctx)
			if err != nil || !pos.Valid() {
				continue
			}
			if !state.HasChanged(pos, acc) && !s.expiresBeforeNextPoll(emitted) {
				continue
			}
			state.Update(pos, acc)
			emitted = time.Now()

			select {
			case <-ctx.Done():
				return
			case out <- s.Result(key, pos, acc):
			}
		}
	}()
	return out
}

func (s Source) expiresBeforeNextPoll(emitted time.Time) bool {
	return s.TTL > 0 && time.Since(emitted)+s.Period >= s.TTL
}
