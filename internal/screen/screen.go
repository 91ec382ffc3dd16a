// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/geocode"
	"github.com/wneessen/geomarker/internal/location"
	"github.com/wneessen/geomarker/internal/logger"
	"github.com/wneessen/geomarker/internal/mapview"
	"github.com/wneessen/geomarker/internal/marker"
	"github.com/wneessen/geomarker/internal/notify"
)

const eventQueueSize = 16

var ErrClosed = errors.New("screen is closed")

// AddressDisplay turns a coordinate into the text shown for a tapped marker.
type AddressDisplay interface {
	Display(ctx context.Context, coords geobus.Coordinate) string
}

// Options are the presentation settings of a Screen.
type Options struct {
	Zoom      float64
	Duration  notify.Duration
	UserTitle string
	DropTitle string
}

// Screen is the state of the marker map while it is shown. All state is owned by the event
// loop started with Run; the exported event methods are safe for concurrent use.
type Screen struct {
	gate     *location.Gate
	resolver AddressDisplay
	notifier notify.Notifier
	renderer mapview.Renderer
	logger   *logger.Logger
	options  Options

	store     *marker.Store
	camera    mapview.Camera
	lookupCtx context.Context
	lookups   sync.WaitGroup

	events    chan func(context.Context)
	results   chan string
	started   chan struct{}
	done      chan struct{}
	startOnce sync.Once
	runOnce   sync.Once
}

func New(gate *location.Gate, resolver AddressDisplay, notifier notify.Notifier, renderer mapview.Renderer,
	opts Options, log *logger.Logger,
) *Screen {
	if opts.Zoom <= 0 {
		opts.Zoom = mapview.DefaultZoom
	}
	return &Screen{
		gate:     gate,
		resolver: resolver,
		notifier: notifier,
		renderer: renderer,
		logger:   log,
		options:  opts,
		store:    marker.NewStore(opts.UserTitle, opts.DropTitle),
		events:   make(chan func(context.Context), eventQueueSize),
		results:  make(chan string),
		started:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run starts the gate and processes events until ctx is cancelled. On return all pending
// address lookups are cancelled and the location subscription has ended. Run may only be
// called once.
func (s *Screen) Run(ctx context.Context) {
	first := false
	s.runOnce.Do(func() { first = true })
	if !first {
		s.logger.Error("screen event loop already started")
		return
	}

	lookupCtx, cancelLookups := context.WithCancel(ctx)
	s.lookupCtx = lookupCtx
	defer func() {
		cancelLookups()
		s.lookups.Wait()
		s.gate.Pause()
		close(s.done)
		s.logger.Info("map screen closed", slog.Int("markers", s.store.Len()))
	}()

	s.gate.Start(ctx)
	s.startOnce.Do(func() { close(s.started) })

	for {
		select {
		case <-ctx.Done():
			return
		case fix := <-s.gate.Fixes():
			s.onFix(ctx, fix)
		case event := <-s.events:
			event(ctx)
		case text := <-s.results:
			if err := s.notifier.Show(ctx, text, s.options.Duration); err != nil {
				s.logger.Error("failed to show notification", logger.Err(err))
			}
		}
	}
}

// Started is closed once the location gate was started, including a possible permission prompt.
func (s *Screen) Started() <-chan struct{} {
	return s.started
}

// Done is closed after Run returned.
func (s *Screen) Done() <-chan struct{} {
	return s.done
}

// MapTap drops a marker at c.
func (s *Screen) MapTap(c geobus.Coordinate) {
	s.post(func(ctx context.Context) {
		if !s.store.HasUser() {
			s.logger.Debug("ignoring map tap before first location fix", slog.String("position", c.String()))
			return
		}
		if !c.Valid() {
			s.logger.Debug("ignoring map tap with invalid coordinate", slog.String("position", c.String()))
			return
		}
		index := s.store.Add(c)
		s.logger.Debug("marker dropped", slog.Int("index", index), slog.String("position", c.String()))
		s.render(ctx)
	})
}

// MarkerTap looks up the address of the marker at index and shows it as notification.
func (s *Screen) MarkerTap(index int) {
	s.post(func(context.Context) {
		m, err := s.store.Get(index)
		if err != nil {
			s.logger.Debug("ignoring marker tap", slog.Int("index", index), logger.Err(err))
			return
		}
		s.lookup(m)
	})
}

// Foreground re-checks the permission and resumes location updates.
func (s *Screen) Foreground() {
	s.post(func(ctx context.Context) {
		s.gate.Resume(ctx)
	})
}

// Background stops location updates.
func (s *Screen) Background() {
	s.post(func(context.Context) {
		s.gate.Pause()
	})
}

// Refresh renders the current view again. Nothing is rendered before the first fix.
func (s *Screen) Refresh() {
	s.post(func(ctx context.Context) {
		if s.store.HasUser() {
			s.render(ctx)
		}
	})
}

// Snapshot returns the current view as seen by the event loop.
func (s *Screen) Snapshot(ctx context.Context) (mapview.View, error) {
	reply := make(chan mapview.View, 1)
	event := func(context.Context) { reply <- s.view() }
	select {
	case s.events <- event:
	case <-s.done:
		return mapview.View{}, ErrClosed
	case <-ctx.Done():
		return mapview.View{}, ctx.Err()
	}
	select {
	case view := <-reply:
		return view, nil
	case <-s.done:
		return mapview.View{}, ErrClosed
	case <-ctx.Done():
		return mapview.View{}, ctx.Err()
	}
}

func (s *Screen) post(event func(context.Context)) {
	select {
	case s.events <- event:
	case <-s.done:
	}
}

func (s *Screen) onFix(ctx context.Context, c geobus.Coordinate) {
	if !c.Valid() {
		s.logger.Debug("ignoring invalid location fix", slog.String("position", c.String()))
		return
	}
	first := !s.store.HasUser()
	s.store.SetUser(c)
	if first {
		s.camera = mapview.Camera{Center: c, Zoom: s.options.Zoom}
		s.logger.Info("first location fix received", slog.String("position", c.String()))
	}
	s.render(ctx)
}

func (s *Screen) lookup(m marker.Marker) {
	id := uuid.NewString()
	s.logger.Debug("looking up marker address", slog.String("request_id", id),
		slog.String("position", m.Position.String()))

	ctx := s.lookupCtx
	s.lookups.Add(1)
	go func() {
		defer s.lookups.Done()
		text := s.resolver.Display(geocode.WithRequestID(ctx, id), m.Position)
		select {
		case s.results <- text:
		case <-ctx.Done():
			s.logger.Debug("discarding address lookup result", slog.String("request_id", id))
		}
	}()
}

func (s *Screen) render(ctx context.Context) {
	if err := s.renderer.Render(ctx, s.view()); err != nil {
		s.logger.Error("failed to render map", logger.Err(err))
	}
}

func (s *Screen) view() mapview.View {
	return mapview.View{Camera: s.camera, Markers: s.store.Markers()}
}
