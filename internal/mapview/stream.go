// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapview

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Stream writes one GeoJSON document per render, newline delimited.
type Stream struct {
	out io.Writer
	mu  sync.Mutex
}

func NewStream(out io.Writer) *Stream {
	return &Stream{out: out}
}

func (s *Stream) Render(_ context.Context, v View) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err = s.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write map view: %w", err)
	}
	return nil
}
