// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapview

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/logger"
)

const (
	EventMapTap     = "map_tap"
	EventMarkerTap  = "marker_tap"
	EventForeground = "foreground"
	EventBackground = "background"

	maxEventSize = 8192
)

var ErrInvalidEvent = errors.New("invalid map event")

// Event is a message from a map frontend.
//
//	{"type":"map_tap","lat":51.5,"lon":-0.1}
//	{"type":"marker_tap","index":0}
//	{"type":"foreground"}
type Event struct {
	Type  string   `json:"type"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
	Index *int     `json:"index,omitempty"`
}

// DecodeEvent parses and validates a single event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	switch event.Type {
	case EventMapTap:
		if event.Lat == nil || event.Lon == nil {
			return Event{}, fmt.Errorf("%w: map tap without coordinates", ErrInvalidEvent)
		}
	case EventMarkerTap:
		if event.Index == nil || *event.Index < 0 {
			return Event{}, fmt.Errorf("%w: marker tap without valid index", ErrInvalidEvent)
		}
	case EventForeground, EventBackground:
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, event.Type)
	}
	return event, nil
}

// Dispatch forwards the event to h.
func (e Event) Dispatch(h EventHandler) {
	switch e.Type {
	case EventMapTap:
		h.MapTap(geobus.Coordinate{Lat: *e.Lat, Lon: *e.Lon})
	case EventMarkerTap:
		h.MarkerTap(*e.Index)
	case EventForeground:
		h.Foreground()
	case EventBackground:
		h.Background()
	}
}

// ReadEvents reads newline delimited events from r and dispatches them to h until r is
// exhausted. Invalid lines are logged and skipped.
func ReadEvents(r io.Reader, h EventHandler, log *logger.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), maxEventSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := DecodeEvent(line)
		if err != nil {
			log.Debug("ignoring map event", slog.String("event", string(line)), logger.Err(err))
			continue
		}
		event.Dispatch(h)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read map events: %w", err)
	}
	return nil
}
