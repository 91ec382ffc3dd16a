// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocodeearth

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/geocode"
	"github.com/wneessen/geomarker/internal/http"
	"github.com/wneessen/geomarker/internal/logger"
	"github.com/wneessen/geomarker/internal/testhelper"
)

const (
	cityExpected = "Friedrichstraße 67, Berlin, Germany"
	cityFile     = "../../../../testdata/geocodeearth_berlin.json"
	emptyFile    = "../../../../testdata/geocodeearth_empty.json"
)

var cityCoords = geobus.Coordinate{Lat: 52.5129, Lon: 13.3910}

func TestNew(t *testing.T) {
	coder := testCoderWithRoundtripFunc(t, nil)
	if coder.Name() != name {
		t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
	}
}

func TestGeocodeEarth_Reverse(t *testing.T) {
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, fileResponder(t, cityFile, 200))
		addr, err := coder.Reverse(t.Context(), cityCoords)
		if err != nil {
			t.Fatal(err)
		}
		if got := geocode.FormatAddress(&addr); got != cityExpected {
			t.Errorf("expected address to be %q, got %q", cityExpected, got)
		}
		if addr.Latitude != 52.512274 || addr.Longitude != 13.390617 {
			t.Errorf("expected feature geometry to be used, got %f,%f", addr.Latitude, addr.Longitude)
		}
	})
	t.Run("request is limited to one result", func(t *testing.T) {
		server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			query := r.URL.Query()
			if query.Get("size") != "1" {
				t.Errorf("expected size=1, got %q", query.Get("size"))
			}
			if query.Get("point.lat") != "52.512900" || query.Get("point.lon") != "13.391000" {
				t.Errorf("unexpected coordinates in query: %s", r.URL.RawQuery)
			}
			data, err := os.ReadFile(cityFile)
			if err != nil {
				t.Fatalf("failed to read JSON response file: %s", err)
			}
			_, _ = w.Write(data)
		}))
		defer server.Close()

		coder := New(http.New(logger.New(slog.LevelDebug)), language.English, "secret")
		coder.endpoint = server.URL
		if _, err := coder.Reverse(t.Context(), cityCoords); err != nil {
			t.Fatal(err)
		}
	})
	t.Run("empty feature collection is not found", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, fileResponder(t, emptyFile, 200))
		if _, err := coder.Reverse(t.Context(), cityCoords); !errors.Is(err, geocode.ErrNotFound) {
			t.Errorf("expected error to be %s, got %v", geocode.ErrNotFound, err)
		}
	})
	t.Run("non-200 response fails", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 403,
				Body:       io.NopCloser(strings.NewReader(`{}`)),
				Header:     make(stdhttp.Header),
			}, nil
		})
		_, err := coder.Reverse(t.Context(), cityCoords)
		if err == nil || errors.Is(err, geocode.ErrNotFound) {
			t.Fatalf("expected a provider failure, got %v", err)
		}
	})
	t.Run("reverse geocoding fails", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := coder.Reverse(t.Context(), cityCoords); err == nil {
			t.Fatal("expected API request to fail")
		}
	})
}

func TestGeocodeEarth_Reverse_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	apikey := os.Getenv("GEOCODEEARTH_APIKEY")
	if apikey == "" {
		t.Skip("no geocode.earth API key set, skipping tests")
	}
	coder := New(http.New(logger.New(slog.LevelDebug)), language.English, apikey)
	addr, err := coder.Reverse(t.Context(), cityCoords)
	if err != nil {
		t.Fatal(err)
	}
	if !addr.Found() {
		t.Fatal("expected address to be found")
	}
}

func fileResponder(t *testing.T, file string, code int) func(*stdhttp.Request) (*stdhttp.Response, error) {
	t.Helper()
	return func(*stdhttp.Request) (*stdhttp.Response, error) {
		data, err := os.Open(file)
		if err != nil {
			t.Fatalf("failed to open JSON response file: %s", err)
		}
		return &stdhttp.Response{StatusCode: code, Body: data, Header: make(stdhttp.Header)}, nil
	}
}

func testCoderWithRoundtripFunc(_ *testing.T, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) *GeocodeEarth {
	testHttpClient := http.New(logger.New(slog.LevelDebug))
	testHttpClient.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(testHttpClient, language.English, "test-key")
}
