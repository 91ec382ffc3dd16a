// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/geomarker/internal/location"
	"github.com/wneessen/geomarker/internal/notify"
)

const (
	configEnv = "GEOMARKER"
	configDir = "geomarker"

	PermissionPrompt  = "prompt"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"

	GeocoderNominatim    = "osm-nominatim"
	GeocoderOpenCage     = "opencage"
	GeocoderGeocodeEarth = "geocode-earth"

	MapStdout    = "stdout"
	MapWebsocket = "websocket"

	NotifyDBus     = "dbus"
	NotifyTerminal = "terminal"

	maxZoom = 22
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Location struct {
		Interval        time.Duration `fig:"interval" default:"10s"`
		FastestInterval time.Duration `fig:"fastest_interval" default:"5s"`
		// Allowed values: high_accuracy, balanced, low_power
		Priority string `fig:"priority" default:"high_accuracy"`
	} `fig:"location"`

	Permission struct {
		// Allowed values: prompt, granted, denied
		Mode string `fig:"mode" default:"prompt"`
		File string `fig:"file"`
	} `fig:"permission"`

	GeoLocation struct {
		File                   string `fig:"file"`
		GPSDAddress            string `fig:"gpsd_address" default:"localhost:2947"`
		DisableGeoIP           bool   `fig:"disable_geoip"`
		DisableGeolocationFile bool   `fig:"disable_geolocation_file"`
		DisableICHNAEA         bool   `fig:"disable_ichnaea"`
		DisableGPSD            bool   `fig:"disable_gpsd"`
	} `fig:"geolocation"`

	Geocoder struct {
		// Allowed values: osm-nominatim, opencage, geocode-earth
		Provider string `fig:"provider" default:"osm-nominatim"`
		APIKey   string `fig:"apikey"`
	} `fig:"geocoder"`

	Map struct {
		// Allowed values: stdout, websocket
		Backend string  `fig:"backend" default:"stdout"`
		Listen  string  `fig:"listen" default:"127.0.0.1:8089"`
		Zoom    float64 `fig:"zoom" default:"5"`
		// Origins besides the server's own host that may open the websocket, e.g.
		// "http://localhost:3000".
		AllowedOrigins []string `fig:"allowed_origins"`
	} `fig:"map"`

	Notification struct {
		// Allowed values: dbus, terminal
		Backend string `fig:"backend" default:"dbus"`
		// Allowed values: short, long
		Duration string `fig:"duration" default:"short"`
		Width    int    `fig:"width" default:"80"`
	} `fig:"notification"`

	Intervals struct {
		// Zero disables the periodic re-render
		Render time.Duration `fig:"render" default:"1m"`
	} `fig:"intervals"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if err := c.LocationRequest().Validate(); err != nil {
		return err
	}
	if _, err := location.ParsePriority(c.Location.Priority); err != nil {
		return err
	}

	switch c.Permission.Mode {
	case PermissionPrompt, PermissionGranted, PermissionDenied:
	default:
		return fmt.Errorf("invalid permission mode: %s", c.Permission.Mode)
	}
	if c.Permission.File == "" {
		c.Permission.File = filepath.Join(configHome(), "permission")
	}
	if c.GeoLocation.File == "" {
		c.GeoLocation.File = filepath.Join(configHome(), "geolocation")
	}

	switch c.Geocoder.Provider {
	case GeocoderNominatim:
	case GeocoderOpenCage, GeocoderGeocodeEarth:
		if c.Geocoder.APIKey == "" {
			return fmt.Errorf("geocoder %s requires an API key", c.Geocoder.Provider)
		}
	default:
		return fmt.Errorf("invalid geocoder provider: %s", c.Geocoder.Provider)
	}

	switch c.Map.Backend {
	case MapStdout:
	case MapWebsocket:
		if c.Map.Listen == "" {
			return fmt.Errorf("map backend %s requires a listen address", c.Map.Backend)
		}
	default:
		return fmt.Errorf("invalid map backend: %s", c.Map.Backend)
	}
	if c.Map.Zoom <= 0 || c.Map.Zoom > maxZoom {
		return fmt.Errorf("invalid map zoom: %g", c.Map.Zoom)
	}

	switch c.Notification.Backend {
	case NotifyDBus, NotifyTerminal:
	default:
		return fmt.Errorf("invalid notification backend: %s", c.Notification.Backend)
	}
	if _, err := notify.ParseDuration(c.Notification.Duration); err != nil {
		return err
	}
	if c.Notification.Width < 1 {
		return fmt.Errorf("invalid notification width: %d", c.Notification.Width)
	}
	if c.Intervals.Render < 0 {
		return fmt.Errorf("invalid render interval: %s", c.Intervals.Render)
	}

	return nil
}

// LocationRequest returns the location request described by the location section.
func (c *Config) LocationRequest() location.Request {
	priority, _ := location.ParsePriority(c.Location.Priority)
	return location.Request{
		Interval:        c.Location.Interval,
		FastestInterval: c.Location.FastestInterval,
		Priority:        priority,
	}
}

func (c *Config) NotificationDuration() notify.Duration {
	d, _ := notify.ParseDuration(c.Notification.Duration)
	return d
}

// FindFile returns the directory and file name of the first config file found in the
// user's config directory.
func FindFile() (string, string) {
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(configHome(), "config."+ext)
		if _, err := os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}

func configHome() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, configDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", configDir)
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
