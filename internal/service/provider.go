// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"log/slog"

	"github.com/wneessen/geomarker/internal/config"
	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/geobus/provider/geoip"
	"github.com/wneessen/geomarker/internal/geobus/provider/geolocation_file"
	"github.com/wneessen/geomarker/internal/geobus/provider/gpsd"
	"github.com/wneessen/geomarker/internal/geobus/provider/ichnaea"
	"github.com/wneessen/geomarker/internal/geocode"
	geocodeearth "github.com/wneessen/geomarker/internal/geocode/provider/geocode-earth"
	"github.com/wneessen/geomarker/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/geomarker/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/geomarker/internal/http"
	"github.com/wneessen/geomarker/internal/location"
	"github.com/wneessen/geomarker/internal/logger"
	"github.com/wneessen/geomarker/internal/mapview"
	"github.com/wneessen/geomarker/internal/notify"
	"github.com/wneessen/geomarker/internal/permission"
)

// selectGeobusProviders returns the location sources for the configured priority. GPS is only
// used for high accuracy and Wi-Fi positioning is skipped in low power mode.
func (s *Service) selectGeobusProviders() ([]geobus.Provider, error) {
	httpClient := http.New(s.logger)
	priority := s.config.LocationRequest().Priority
	var provider []geobus.Provider

	if !s.config.GeoLocation.DisableGeolocationFile {
		provider = append(provider, geolocation_file.NewGeolocationFileProvider(s.config.GeoLocation.File))
	}

	if priority == location.PriorityHighAccuracy && !s.config.GeoLocation.DisableGPSD {
		provider = append(provider, gpsd.NewGeolocationGPSDProvider(s.config.GeoLocation.GPSDAddress, s.logger))
	}

	if priority != location.PriorityLowPower && !s.config.GeoLocation.DisableICHNAEA {
		mls, err := ichnaea.NewGeolocationICHNAEAProvider(httpClient)
		if err != nil {
			s.logger.Error("failed to create ICHNAEA provider", logger.Err(err))
		} else {
			provider = append(provider, mls)
		}
	}

	if !s.config.GeoLocation.DisableGeoIP {
		provider = append(provider, geoip.NewGeolocationGeoIPProvider(httpClient))
	}

	if len(provider) == 0 {
		return nil, fmt.Errorf("no geolocation providers enabled for priority %s", priority)
	}
	return provider, nil
}

func (s *Service) selectGeocodeProvider() (geocode.Geocoder, error) {
	httpClient := http.New(s.logger)
	switch s.config.Geocoder.Provider {
	case config.GeocoderNominatim:
		return nominatim.New(httpClient, s.lang), nil
	case config.GeocoderOpenCage:
		if s.config.Geocoder.APIKey == "" {
			return nil, fmt.Errorf("opencage geocoder requires an API key")
		}
		return opencage.New(httpClient, s.lang, s.config.Geocoder.APIKey), nil
	case config.GeocoderGeocodeEarth:
		if s.config.Geocoder.APIKey == "" {
			return nil, fmt.Errorf("geocode-earth geocoder requires an API key")
		}
		return geocodeearth.New(httpClient, s.lang, s.config.Geocoder.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", s.config.Geocoder.Provider)
	}
}

func (s *Service) selectPermission() location.Permission {
	switch s.config.Permission.Mode {
	case config.PermissionGranted:
		return permission.Static(true)
	case config.PermissionDenied:
		return permission.Static(false)
	default:
		return permission.NewFileStore(s.config.Permission.File,
			permission.NewTerminalPrompter(s.input, s.console, s.t))
	}
}

// selectNotifier returns the configured notifier and a function releasing it. Without a
// session bus the terminal is used instead.
func (s *Service) selectNotifier() (notify.Notifier, func()) {
	terminal := notify.NewTerminal(s.console, s.config.Notification.Width)
	if s.config.Notification.Backend != config.NotifyDBus {
		return terminal, func() {}
	}

	notifier, err := notify.NewDBus()
	if err != nil {
		s.logger.Error("failed to connect to notification service, falling back to terminal",
			logger.Err(err))
		return terminal, func() {}
	}
	return notifier, func() {
		if err := notifier.Close(); err != nil {
			s.logger.Error("failed to close notification service connection", logger.Err(err))
		}
	}
}

// selectRenderer returns the map renderer. The hub is only returned for the websocket backend.
func (s *Service) selectRenderer() (mapview.Renderer, *mapview.Hub) {
	if s.config.Map.Backend == config.MapWebsocket {
		hub := mapview.NewHub(s.logger, s.config.Map.AllowedOrigins...)
		return hub, hub
	}
	s.logger.Debug("rendering map to output", slog.String("backend", s.config.Map.Backend))
	return mapview.NewStream(s.output), nil
}
