// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/geomarker/internal/geobus"
)

const (
	DefaultInterval        = time.Second * 10
	DefaultFastestInterval = time.Second * 5
)

var (
	// ErrPermission is returned when location updates are requested without a valid grant.
	ErrPermission = errors.New("location permission not granted")

	ErrInvalidPriority = errors.New("invalid location priority")
	ErrInvalidInterval = errors.New("invalid location interval")
)

// Priority is the accuracy/power trade-off requested from the location sources.
type Priority int

const (
	PriorityHighAccuracy Priority = iota
	PriorityBalanced
	PriorityLowPower
)

// ParsePriority parses the config representation of a Priority.
func ParsePriority(value string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high_accuracy", "high":
		return PriorityHighAccuracy, nil
	case "balanced":
		return PriorityBalanced, nil
	case "low_power", "low":
		return PriorityLowPower, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, value)
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityHighAccuracy:
		return "high_accuracy"
	case PriorityBalanced:
		return "balanced"
	case PriorityLowPower:
		return "low_power"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Request configures a location subscription.
type Request struct {
	Interval        time.Duration
	FastestInterval time.Duration
	Priority        Priority
}

// DefaultRequest returns a request with a 10s interval, a 5s fastest interval and high accuracy.
func DefaultRequest() Request {
	return Request{
		Interval:        DefaultInterval,
		FastestInterval: DefaultFastestInterval,
		Priority:        PriorityHighAccuracy,
	}
}

// Validate checks that both intervals are positive and the fastest interval does not exceed
// the interval.
func (r Request) Validate() error {
	if r.Interval <= 0 || r.FastestInterval <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidInterval)
	}
	if r.FastestInterval > r.Interval {
		return fmt.Errorf("%w: fastest interval %s exceeds interval %s", ErrInvalidInterval,
			r.FastestInterval, r.Interval)
	}
	return nil
}

// Permission checks and requests the location permission.
type Permission interface {
	Granted(ctx context.Context) (bool, error)
	Request(ctx context.Context) (bool, error)
}

// Provider delivers periodic location updates.
type Provider interface {
	Subscribe(ctx context.Context, req Request) (Subscription, error)
}

// Tracker runs the location sources that publish fixes for key. Track blocks until ctx is done
// and the sources stopped.
type Tracker interface {
	Track(ctx context.Context, key string)
}

// Subscription is a cancellable stream of fixes. Once Unsubscribe returned, nothing is sent on
// C anymore. C is never closed.
type Subscription interface {
	C() <-chan geobus.Coordinate
	Unsubscribe()
}
