// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/text/language"

	"github.com/wneessen/geomarker/internal/config"
	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/geocode"
	"github.com/wneessen/geomarker/internal/i18n"
	"github.com/wneessen/geomarker/internal/location"
	"github.com/wneessen/geomarker/internal/logger"
	"github.com/wneessen/geomarker/internal/mapview"
	"github.com/wneessen/geomarker/internal/screen"
)

const DesktopID = "geomarker"

// Service wires the location sources, the capabilities and the map screen together.
type Service struct {
	config     *config.Config
	geobus     *geobus.GeoBus
	geocoder   geocode.Geocoder
	lang       language.Tag
	logger     *logger.Logger
	resolver   *geocode.Resolver
	scheduler  gocron.Scheduler
	t          i18n.Translator
	SignalSrc  signalSource
	sleepWatch bool

	// input carries permission answers and map events, output the rendered map.
	input   io.Reader
	output  io.Writer
	console io.Writer
}

func New(conf *config.Config, log *logger.Logger, t i18n.Translator) (*Service, error) {
	bus, err := geobus.New(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create geobus: %w", err)
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	service := &Service{
		config:     conf,
		geobus:     bus,
		lang:       i18n.Tag(conf.Locale),
		logger:     log,
		scheduler:  scheduler,
		t:          t,
		SignalSrc:  stdLibSignalSource{},
		sleepWatch: true,
		input:      os.Stdin,
		output:     os.Stdout,
		console:    os.Stderr,
	}

	geocoder, err := service.selectGeocodeProvider()
	if err != nil {
		return nil, err
	}
	service.geocoder = geocoder
	service.resolver = geocode.NewResolver(geocoder, t, log)

	return service, nil
}

// Run shows the map screen until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	providers, err := s.selectGeobusProviders()
	if err != nil {
		return err
	}
	// The sources only run while the gate holds a subscription.
	orchestrator := s.geobus.NewOrchestrator(providers)
	perm := s.selectPermission()
	gate := location.NewGate(perm, location.NewBusProvider(s.geobus, orchestrator, DesktopID, perm, s.logger),
		s.config.LocationRequest(), s.logger)

	notifier, closeNotifier := s.selectNotifier()
	defer closeNotifier()

	renderer, hub := s.selectRenderer()
	scr := screen.New(gate, s.resolver, notifier, renderer, screen.Options{
		Zoom:      s.config.Map.Zoom,
		Duration:  s.config.NotificationDuration(),
		UserTitle: s.t.Get("Your location"),
		DropTitle: s.t.Get("Dropped marker"),
	}, s.logger)

	if hub != nil {
		hub.SetEventHandler(scr)
		go hub.Run(ctx)
		go func() {
			if err := hub.ListenAndServe(ctx, s.config.Map.Listen); err != nil {
				s.logger.Error("map server stopped", logger.Err(err))
			}
		}()
	} else {
		go s.readEvents(ctx, scr)
	}

	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	defer s.SignalSrc.Stop(sigChan)
	go s.HandleSignals(ctx, sigChan, scr)
	if s.sleepWatch {
		go s.monitorSleepResume(ctx, scr)
	}

	if s.config.Intervals.Render > 0 {
		if err = s.createScheduledJob(ctx, s.config.Intervals.Render, func(context.Context) { scr.Refresh() },
			"map_render_job"); err != nil {
			return err
		}
	}
	s.scheduler.Start()

	s.logger.Info("map screen started", slog.String("priority", s.config.Location.Priority),
		slog.String("geocoder", s.geocoder.Name()), slog.String("map", s.config.Map.Backend))
	scr.Run(ctx)

	return s.scheduler.Shutdown()
}

// Resolve looks up the address of a single coordinate. An empty result is reported as the
// localized not found text, every other failure as error.
func (s *Service) Resolve(ctx context.Context, coords geobus.Coordinate) (string, error) {
	address, err := s.resolver.Resolve(ctx, coords)
	switch {
	case errors.Is(err, geocode.ErrNotFound):
		return s.t.Get(geocode.NotFoundText), nil
	case err != nil:
		return "", err
	}
	return geocode.FormatAddress(&address), nil
}

// readEvents feeds map events from the input to the screen. Reading starts after the screen
// started, so a permission prompt on the same input gets its answer first.
func (s *Service) readEvents(ctx context.Context, scr *screen.Screen) {
	select {
	case <-ctx.Done():
		return
	case <-scr.Started():
	}
	if err := mapview.ReadEvents(s.input, scr, s.logger); err != nil {
		s.logger.Error("failed to read map events", logger.Err(err))
		return
	}
	s.logger.Debug("map event input closed")
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}
