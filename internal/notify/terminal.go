// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

const DefaultWidth = 80

// Terminal writes notifications as single lines, cut to a fixed display width.
type Terminal struct {
	out   io.Writer
	width int
	mu    sync.Mutex
}

func NewTerminal(out io.Writer, width int) *Terminal {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Terminal{out: out, width: width}
}

func (t *Terminal) Show(_ context.Context, text string, _ Duration) error {
	line := strings.Join(strings.Fields(text), " ")
	line = runewidth.Truncate(line, t.width, "…")

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintln(t.out, line); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}
