// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/logger"
)

const (
	name = "gpsd"

	DefaultAddress = "localhost:2947"

	fallbackAccuracy3DFix = 10 // typical consumer GPS under open sky
	fallbackAccuracy2DFix = 25
)

// GeolocationGPSDProvider streams TPV reports from a gpsd daemon. Only reports with at least
// a 2D fix are emitted.
type GeolocationGPSDProvider struct {
	source geobus.Source
	addr   string
	logger *logger.Logger
}

// NewGeolocationGPSDProvider returns a provider for the gpsd daemon listening on addr.
func NewGeolocationGPSDProvider(addr string, log *logger.Logger) *GeolocationGPSDProvider {
	if addr == "" {
		addr = DefaultAddress
	}
	return &GeolocationGPSDProvider{
		source: geobus.Source{Name: name, Period: time.Second * 30, TTL: time.Minute * 2},
		addr:   addr,
		logger: log,
	}
}

func (p *GeolocationGPSDProvider) Name() string {
	return p.source.Name
}

func (p *GeolocationGPSDProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	out := make(chan geobus.Result)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			session, err := gpsd.Dial(p.addr)
			if err != nil {
				p.logger.Debug("failed to connect to gpsd", slog.String("address", p.addr), logger.Err(err))
				if !sleep(ctx, p.source.Period) {
					return
				}
				continue
			}

			// Filters run sequentially on the session's reader goroutine, so state needs no lock.
			state := geobus.GeolocationState{}
			session.AddFilter("TPV", func(r interface{}) {
				tpv, ok := r.(*gpsd.TPVReport)
				if !ok {
					return
				}
				pos, acc, ok := fixFromTPV(tpv)
				if !ok || !state.HasChanged(pos, acc) {
					return
				}
				state.Update(pos, acc)
				select {
				case <-ctx.Done():
				case out <- p.source.Result(key, pos, acc):
				}
			})

			select {
			case <-ctx.Done():
				// go-gpsd has no Close; the session goroutine ends with the process or the
				// connection.
				return
			case <-session.Watch():
				p.logger.Debug("gpsd connection closed, reconnecting", slog.String("address", p.addr))
			}
			if !sleep(ctx, p.source.Period) {
				return
			}
		}
	}()
	return out
}

// fixFromTPV converts a TPV report into a position and a horizontal accuracy estimate. Reports
// without at least a 2D fix are rejected.
func fixFromTPV(tpv *gpsd.TPVReport) (geobus.Coordinate, float64, bool) {
	if tpv == nil || tpv.Mode < gpsd.Mode2D {
		return geobus.Coordinate{}, 0, false
	}
	pos, err := geobus.NewCoordinate(geobus.Truncate(tpv.Lat, geobus.TruncPrecision),
		geobus.Truncate(tpv.Lon, geobus.TruncPrecision))
	if err != nil {
		return geobus.Coordinate{}, 0, false
	}

	var acc float64
	switch {
	case tpv.Epx > 0 && tpv.Epy > 0:
		acc = math.Hypot(tpv.Epx, tpv.Epy)
	case tpv.Mode == gpsd.Mode3D:
		acc = fallbackAccuracy3DFix
	default:
		acc = fallbackAccuracy2DFix
	}
	return pos, acc, true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
