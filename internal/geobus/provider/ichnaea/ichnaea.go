// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package ichnaea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/http"
)

const (
	apiEndpoint   = "https://api.beacondb.net/v1/geolocate"
	lookupTimeout = time.Second * 5
	wifiScanTime  = time.Minute * 2
	name          = "ichnaea"
)

var ErrHTTPClientRequired = errors.New("http client is required")

// GeolocationICHNAEAProvider locates the device by sending the visible WiFi access points to
// an Ichnaea compatible API (beaconDB).
type GeolocationICHNAEAProvider struct {
	source geobus.Source
	http   *http.Client
	wlan   *wifi.Client

	apLock sync.RWMutex
	aps    []WirelessNetwork
}

type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type WirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

// NewGeolocationICHNAEAProvider returns the provider. A missing WiFi subsystem is not an error,
// the lookup then falls back to the IP address of the request.
func NewGeolocationICHNAEAProvider(client *http.Client) (*GeolocationICHNAEAProvider, error) {
	if client == nil {
		return nil, ErrHTTPClientRequired
	}
	provider := &GeolocationICHNAEAProvider{
		source: geobus.Source{Name: name, Period: time.Minute * 5, TTL: time.Hour},
		http:   client,
	}
	if wlan, err := wifi.New(); err == nil {
		provider.wlan = wlan
	}
	provider.source.Locate = provider.locate
	return provider, nil
}

func (p *GeolocationICHNAEAProvider) Name() string {
	return p.source.Name
}

// LookupStream scans for access points in the background and polls the API once per period.
func (p *GeolocationICHNAEAProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	if p.wlan != nil {
		go p.monitorWifiAccessPoints(ctx)
	}
	return p.source.Poll(ctx, key)
}

func (p *GeolocationICHNAEAProvider) monitorWifiAccessPoints(ctx context.Context) {
	for first := true; ; first = false {
		if !first {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wifiScanTime):
			}
		}

		list, err := p.wifiAccessPoints()
		if err != nil {
			continue
		}
		p.apLock.Lock()
		p.aps = list
		p.apLock.Unlock()
	}
}

func (p *GeolocationICHNAEAProvider) wifiAccessPoints() ([]WirelessNetwork, error) {
	ifaces, err := p.wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var list []WirelessNetwork
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		aps, err := p.wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		for _, ap := range aps {
			if !mappable(ap.SSID) {
				continue
			}
			list = append(list, WirelessNetwork{
				SignalStrength: ap.Signal / 100,
				MACAddress:     ap.BSSID.String(),
				LastSeen:       ap.LastSeen.Milliseconds(),
			})
		}
	}
	return list, nil
}

// mappable reports whether an access point may be submitted. Hidden networks and networks
// that opted out with the _nomap suffix are excluded.
func mappable(ssid string) bool {
	return ssid != "" && ssid[0] != '\x00' && !strings.HasSuffix(ssid, "_nomap")
}

func (p *GeolocationICHNAEAProvider) locate(ctx context.Context) (geobus.Coordinate, float64, error) {
	p.apLock.RLock()
	wifiList := p.aps
	p.apLock.RUnlock()

	type request struct {
		ConsiderIP   bool              `json:"considerIp"`
		Accesspoints []WirelessNetwork `json:"wifiAccessPoints,omitempty"`
	}
	bodyBuffer := bytes.NewBuffer(nil)
	if err := json.NewEncoder(bodyBuffer).Encode(request{ConsiderIP: true, Accesspoints: wifiList}); err != nil {
		return geobus.Coordinate{}, 0, fmt.Errorf("failed to encode wifi list to JSON: %w", err)
	}

	result := new(APIResult)
	if _, err := p.http.PostWithTimeout(ctx, apiEndpoint, result, bodyBuffer,
		map[string]string{"Content-Type": "application/json"}, lookupTimeout); err != nil {
		return geobus.Coordinate{}, 0, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}

	pos, err := geobus.NewCoordinate(geobus.Truncate(result.Location.Latitude, geobus.TruncPrecision),
		geobus.Truncate(result.Location.Longitude, geobus.TruncPrecision))
	if err != nil {
		return geobus.Coordinate{}, 0, err
	}
	return pos, geobus.Truncate(result.Accuracy, geobus.TruncPrecision), nil
}
