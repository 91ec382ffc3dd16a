// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Duration is how long a transient notification stays visible.
type Duration int

const (
	Short Duration = iota
	Long
)

var ErrInvalidDuration = errors.New("invalid notification duration")

// ParseDuration parses the config representation of a Duration.
func ParseDuration(value string) (Duration, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "short", "":
		return Short, nil
	case "long":
		return Long, nil
	default:
		return Short, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}
}

// Time returns the display time: 2s for Short and 3.5s for Long.
func (d Duration) Time() time.Duration {
	if d == Long {
		return time.Millisecond * 3500
	}
	return time.Second * 2
}

func (d Duration) String() string {
	if d == Long {
		return "long"
	}
	return "short"
}

// Notifier shows a transient text notification.
type Notifier interface {
	Show(ctx context.Context, text string, d Duration) error
}
