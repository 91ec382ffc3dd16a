// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/i18n"
	"github.com/wneessen/geomarker/internal/logger"
)

const DefaultTimeout = time.Second * 10

type requestIDKey struct{}

// WithRequestID tags ctx with a request ID that is added to the resolver's log records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Resolver performs one lookup per call. Results are neither retried nor cached.
type Resolver struct {
	coder      Geocoder
	translator i18n.Translator
	logger     *logger.Logger
	timeout    time.Duration
}

// NewResolver returns a Resolver for coder. The translator localizes the not found text and
// may be nil.
func NewResolver(coder Geocoder, translator i18n.Translator, log *logger.Logger) *Resolver {
	return &Resolver{
		coder:      coder,
		translator: translator,
		logger:     log,
		timeout:    DefaultTimeout,
	}
}

// Resolve looks up the address for coords. The error is ErrInvalidCoordinate for coordinates
// out of range, ErrNotFound for empty results and a *ProviderError otherwise.
func (r *Resolver) Resolve(ctx context.Context, coords geobus.Coordinate) (Address, error) {
	if !coords.Valid() {
		return Address{}, fmt.Errorf("%w: %s", ErrInvalidCoordinate, coords)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	address, err := r.coder.Reverse(ctx, coords)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Address{}, err
		}
		return Address{}, &ProviderError{Provider: r.coder.Name(), Err: err}
	}
	if len(address.Lines) == 0 {
		address.Lines = address.ComposeLines()
	}
	if !address.Found() {
		return Address{}, ErrNotFound
	}
	return address, nil
}

// Display resolves coords into the text shown to the user. Every failure is collapsed into
// the not found text.
func (r *Resolver) Display(ctx context.Context, coords geobus.Coordinate) string {
	address, err := r.Resolve(ctx, coords)
	if err != nil {
		r.logger.Debug("address lookup failed", slog.String("request_id", requestID(ctx)),
			slog.String("provider", r.coder.Name()), slog.String("position", coords.String()), logger.Err(err))
		return r.notFound()
	}
	r.logger.Debug("address lookup succeeded", slog.String("request_id", requestID(ctx)),
		slog.String("provider", r.coder.Name()), slog.String("position", coords.String()))
	return FormatAddress(&address)
}

func (r *Resolver) notFound() string {
	if r.translator == nil {
		return NotFoundText
	}
	return r.translator.Get(NotFoundText)
}
