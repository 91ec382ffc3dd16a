// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net"
	"testing"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/geomarker/internal/logger"
)

const (
	testLat = 40.7185
	testLon = -74.0025
)

func TestNewGeolocationGPSDProvider(t *testing.T) {
	t.Run("empty address falls back to the default", func(t *testing.T) {
		provider := NewGeolocationGPSDProvider("", testLogger())
		if provider.addr != DefaultAddress {
			t.Errorf("expected address to be %s, got %s", DefaultAddress, provider.addr)
		}
		if provider.Name() != name {
			t.Errorf("expected provider name to be %s, got %s", name, provider.Name())
		}
	})
}

func TestFixFromTPV(t *testing.T) {
	tests := []struct {
		name    string
		tpv     *gpsd.TPVReport
		wantOK  bool
		wantAcc float64
	}{
		{"nil report", nil, false, 0},
		{"no fix", &gpsd.TPVReport{Mode: gpsd.NoFix, Lat: testLat, Lon: testLon}, false, 0},
		{"2D fix without error estimate", &gpsd.TPVReport{Mode: gpsd.Mode2D, Lat: testLat, Lon: testLon}, true, fallbackAccuracy2DFix},
		{"3D fix without error estimate", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: testLat, Lon: testLon}, true, fallbackAccuracy3DFix},
		{"error estimate", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: testLat, Lon: testLon, Epx: 3, Epy: 4}, true, 5},
		{"out of range", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: 123, Lon: testLon}, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, acc, ok := fixFromTPV(tc.tpv)
			if ok != tc.wantOK {
				t.Fatalf("expected ok to be %t, got %t", tc.wantOK, ok)
			}
			if !ok {
				return
			}
			if math.Abs(acc-tc.wantAcc) > 1e-9 {
				t.Errorf("expected accuracy %f, got %f", tc.wantAcc, acc)
			}
			if math.Abs(pos.Lat-testLat) > 1e-5 || math.Abs(pos.Lon-testLon) > 1e-5 {
				t.Errorf("unexpected position: %s", pos)
			}
		})
	}
}

func TestGeolocationGPSDProvider_LookupStream(t *testing.T) {
	t.Run("unreachable gpsd closes the stream on cancel", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %s", err)
		}
		addr := listener.Addr().String()
		_ = listener.Close()

		ctx, cancel := context.WithCancel(t.Context())
		provider := NewGeolocationGPSDProvider(addr, testLogger())
		stream := provider.LookupStream(ctx, "test")
		cancel()
		select {
		case _, ok := <-stream:
			if ok {
				t.Error("expected no result from an unreachable gpsd")
			}
		case <-time.After(time.Second * 5):
			t.Fatal("stream was not closed")
		}
	})
}

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}
