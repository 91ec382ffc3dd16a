// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"
)

func TestSource_Poll(t *testing.T) {
	t.Run("only changed fixes are emitted", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			fixes := []Coordinate{berlin, berlin, paris}
			calls := 0
			src := Source{
				Name:   "test",
				Period: time.Minute,
				TTL:    time.Hour,
				Locate: func(context.Context) (Coordinate, float64, error) {
					defer func() { calls++ }()
					if calls >= len(fixes) {
						return Coordinate{}, 0, errors.New("no more fixes")
					}
					return fixes[calls], 10, nil
				},
			}

			var got []Result
			stream := src.Poll(ctx, testKey)
			go func() {
				time.Sleep(time.Minute*5 + time.Second)
				cancel()
			}()
			for r := range stream {
				got = append(got, r)
			}

			if len(got) != 2 {
				t.Fatalf("expected 2 results, got %d", len(got))
			}
			if got[0].Position != berlin || got[1].Position != paris {
				t.Errorf("unexpected results: %+v", got)
			}
			if got[0].Source != "test" || got[0].Key != testKey || got[0].TTL != time.Hour {
				t.Errorf("unexpected result metadata: %+v", got[0])
			}
		})
	})
	t.Run("unchanged fixes are refreshed before they expire", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			src := Source{
				Name:   "test",
				Period: time.Minute * 10,
				TTL:    time.Minute * 30,
				Locate: func(context.Context) (Coordinate, float64, error) {
					return berlin, 10, nil
				},
			}
			bus, err := New(testLogger())
			if err != nil {
				t.Fatalf("failed to create geobus: %s", err)
			}

			var emitted []time.Duration
			start := time.Now()
			stream := src.Poll(ctx, testKey)
			go func() {
				time.Sleep(time.Hour*2 + time.Second)
				cancel()
			}()
			for r := range stream {
				emitted = append(emitted, time.Since(start))
				bus.Publish(r)
				if _, ok := bus.Best(testKey); !ok {
					t.Fatalf("expected a best fix after %s", time.Since(start))
				}
			}

			want := []time.Duration{0, time.Minute * 20, time.Minute * 40, time.Minute * 60,
				time.Minute * 80, time.Minute * 100, time.Minute * 120}
			if len(emitted) != len(want) {
				t.Fatalf("expected %d results, got %d: %v", len(want), len(emitted), emitted)
			}
			for i := range want {
				if emitted[i] != want[i] {
					t.Errorf("expected result %d after %s, got %s", i, want[i], emitted[i])
				}
			}
		})
	})
	t.Run("results without TTL are not refreshed", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			src := Source{
				Name:   "test",
				Period: time.Minute,
				Locate: func(context.Context) (Coordinate, float64, error) {
					return berlin, 10, nil
				},
			}
			count := 0
			stream := src.Poll(ctx, testKey)
			go func() {
				time.Sleep(time.Hour)
				cancel()
			}()
			for range stream {
				count++
			}
			if count != 1 {
				t.Errorf("expected a single result, got %d", count)
			}
		})
	})
}
