// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package location

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/logger"
)

// Gate ties the location subscription to the permission state and to the foreground state of
// the screen. It is not safe for concurrent use.
type Gate struct {
	permission Permission
	provider   Provider
	request    Request
	logger     *logger.Logger

	prompted bool
	granted  bool
	sub      Subscription
}

func NewGate(permission Permission, provider Provider, req Request, log *logger.Logger) *Gate {
	return &Gate{
		permission: permission,
		provider:   provider,
		request:    req,
		logger:     log,
	}
}

// Start is called when the screen is entered. Without a grant the user is asked once; a denial
// leaves the gate idle without any further notice.
func (g *Gate) Start(ctx context.Context) {
	granted := g.check(ctx)
	if !granted && !g.prompted {
		g.prompted = true
		var err error
		if granted, err = g.permission.Request(ctx); err != nil {
			g.logger.Error("failed to request location permission", logger.Err(err))
			granted = false
		}
	}
	g.granted = granted
	if !granted {
		g.logger.Info("location permission denied, location updates disabled")
		return
	}
	g.subscribe(ctx)
}

// Resume is called when the screen returns to the foreground. The permission is checked again
// but never requested.
func (g *Gate) Resume(ctx context.Context) {
	g.granted = g.check(ctx)
	if !g.granted {
		g.Pause()
		return
	}
	if g.sub == nil {
		g.subscribe(ctx)
	}
}

// Pause ends the current subscription, if any.
func (g *Gate) Pause() {
	if g.sub == nil {
		return
	}
	g.sub.Unsubscribe()
	g.sub = nil
	g.logger.Debug("location updates paused")
}

// Fixes returns the channel of the current subscription or nil without one.
func (g *Gate) Fixes() <-chan geobus.Coordinate {
	if g.sub == nil {
		return nil
	}
	return g.sub.C()
}

func (g *Gate) Subscribed() bool {
	return g.sub != nil
}

func (g *Gate) Granted() bool {
	return g.granted
}

// Prompted reports whether the permission prompt was shown.
func (g *Gate) Prompted() bool {
	return g.prompted
}

func (g *Gate) check(ctx context.Context) bool {
	granted, err := g.permission.Granted(ctx)
	if err != nil {
		g.logger.Error("failed to check location permission", logger.Err(err))
		return false
	}
	return granted
}

func (g *Gate) subscribe(ctx context.Context) {
	sub, err := g.provider.Subscribe(ctx, g.request)
	if err != nil {
		if errors.Is(err, ErrPermission) {
			g.logger.Info("location provider refused subscription", logger.Err(err))
			return
		}
		g.logger.Error("failed to subscribe to location updates", logger.Err(err))
		return
	}
	g.sub = sub
	g.logger.Info("location updates started", slog.String("priority", g.request.Priority.String()))
}
