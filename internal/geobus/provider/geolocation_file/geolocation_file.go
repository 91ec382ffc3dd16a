// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wneessen/geomarker/internal/geobus"
)

const (
	name = "geolocation_file"

	// Accuracy is what we assume for a position the user wrote down themselves.
	Accuracy = 10
)

var ErrNoCoordinates = errors.New("no valid coordinates found in geolocation file")

// GeolocationFileProvider reads a "lat,lon" position from a text file. Changes to the file are
// picked up through fsnotify; a slow poll covers filesystems without inotify support.
type GeolocationFileProvider struct {
	source   geobus.Source
	path     string
	locateFn func() (geobus.Coordinate, error)
}

// NewGeolocationFileProvider returns a provider for the file at path.
func NewGeolocationFileProvider(path string) *GeolocationFileProvider {
	provider := &GeolocationFileProvider{
		source: geobus.Source{Name: name, Period: time.Minute * 2, TTL: time.Hour},
		path:   filepath.Clean(path),
	}
	provider.locateFn = provider.readFile
	return provider
}

func (p *GeolocationFileProvider) Name() string {
	return p.source.Name
}

func (p *GeolocationFileProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	out := make(chan geobus.Result)
	go func() {
		defer close(out)

		var events chan fsnotify.Event
		if watcher, err := fsnotify.NewWatcher(); err == nil {
			defer func() { _ = watcher.Close() }()
			// Watch the directory, editors and config tools tend to replace files instead of
			// writing them in place.
			if err = watcher.Add(filepath.Dir(p.path)); err == nil {
				events = watcher.Events
			}
		}

		ticker := time.NewTicker(p.source.Period)
		defer ticker.Stop()
		state := geobus.GeolocationState{}

		for {
			if pos, err := p.locateFn(); err == nil && state.HasChanged(pos, Accuracy) {
				state.Update(pos, Accuracy)
				select {
				case <-ctx.Done():
					return
				case out <- p.source.Result(key, pos, Accuracy):
				}
			}
			if !p.waitForChange(ctx, ticker.C, &events) {
				return
			}
		}
	}()
	return out
}

// waitForChange blocks until the file was touched, the poll ticker fired or ctx is done.
func (p *GeolocationFileProvider) waitForChange(ctx context.Context, tick <-chan time.Time,
	events *chan fsnotify.Event,
) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-tick:
			return true
		case ev, ok := <-*events:
			if !ok {
				*events = nil
				continue
			}
			if filepath.Clean(ev.Name) == p.path && ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				return true
			}
		}
	}
}

// readFile returns the first valid "lat,lon" line of the file. Empty lines and lines starting
// with "#" are ignored.
func (p *GeolocationFileProvider) readFile() (geobus.Coordinate, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to read geolocation file %q: %w", p.path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		latStr, lonStr, found := strings.Cut(line, ",")
		if !found {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			continue
		}
		pos, err := geobus.NewCoordinate(lat, lon)
		if err != nil {
			continue
		}
		return pos, nil
	}
	return geobus.Coordinate{}, ErrNoCoordinates
}
