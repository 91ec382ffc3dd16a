// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package permission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/geomarker/internal/i18n"
)

const (
	stateGranted = "granted"
	stateDenied  = "denied"

	promptText = "Allow geomarker to access this device's location? [y/N] "
)

var ErrUnknownState = errors.New("unknown permission state")

// Static answers every check and request with the same fixed value.
type Static bool

func (s Static) Granted(context.Context) (bool, error) {
	return bool(s), nil
}

func (s Static) Request(context.Context) (bool, error) {
	return bool(s), nil
}

// Prompter asks the user for the location permission.
type Prompter interface {
	Prompt(ctx context.Context) (bool, error)
}

// FileStore keeps the grant state in a small text file containing either "granted" or
// "denied". A missing file means the permission was never granted.
type FileStore struct {
	path     string
	prompter Prompter
	mu       sync.Mutex
}

func NewFileStore(path string, prompter Prompter) *FileStore {
	return &FileStore{path: path, prompter: prompter}
}

// Path returns the location of the state file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Granted(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Request asks the prompter and persists the answer. Without a prompter the request is denied.
func (s *FileStore) Request(ctx context.Context) (bool, error) {
	if s.prompter == nil {
		return false, nil
	}
	granted, err := s.prompter.Prompt(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to prompt for location permission: %w", err)
	}
	if err = s.Set(granted); err != nil {
		return granted, err
	}
	return granted, nil
}

// Grant persists a granted state.
func (s *FileStore) Grant() error {
	return s.Set(true)
}

// Revoke persists a denied state.
func (s *FileStore) Revoke() error {
	return s.Set(false)
}

// Set persists the given state, creating the parent directory if needed.
func (s *FileStore) Set(granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := stateDenied
	if granted {
		state = stateGranted
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create permission directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(state+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write permission file: %w", err)
	}
	return nil
}

// State returns the stored state as text: granted, denied or unset.
func (s *FileStore) State() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "unset", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read permission file: %w", err)
	}
	state := string(bytes.TrimSpace(data))
	if state != stateGranted && state != stateDenied {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	return state, nil
}

func (s *FileStore) read() (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read permission file: %w", err)
	}
	switch state := string(bytes.TrimSpace(data)); state {
	case stateGranted:
		return true, nil
	case stateDenied:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
}

// TerminalPrompter asks on a terminal. Only an explicit yes grants the permission.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
	t   i18n.Translator
}

func NewTerminalPrompter(in io.Reader, out io.Writer, t i18n.Translator) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out, t: t}
}

// Prompt writes the question and waits for one line of input or for ctx to be cancelled.
func (p *TerminalPrompter) Prompt(ctx context.Context) (bool, error) {
	if _, err := io.WriteString(p.out, p.t.Get(promptText)); err != nil {
		return false, fmt.Errorf("failed to write permission prompt: %w", err)
	}

	answers := make(chan answer, 1)
	go func() {
		line, err := readLine(p.in)
		answers <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		p.abandon(answers)
		return false, ctx.Err()
	case a := <-answers:
		if a.err != nil {
			return false, fmt.Errorf("failed to read permission answer: %w", a.err)
		}
		return p.affirmative(a.line), nil
	}
}

type answer struct {
	line string
	err  error
}

// abandon interrupts the pending read when the input supports read deadlines, so the next line
// stays with the input for later readers. On other inputs, like a non-pollable stdin, the
// pending read still consumes one line.
func (p *TerminalPrompter) abandon(answers <-chan answer) {
	dr, ok := p.in.(interface{ SetReadDeadline(time.Time) error })
	if !ok || dr.SetReadDeadline(time.Now()) != nil {
		return
	}
	<-answers
	_ = dr.SetReadDeadline(time.Time{})
}

// readLine reads up to the next newline one byte at a time, so nothing past the answer is
// consumed from a shared reader such as stdin.
func readLine(r io.Reader) (string, error) {
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return line.String(), nil
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && line.Len() > 0 {
				return line.String(), nil
			}
			return "", err
		}
	}
}

func (p *TerminalPrompter) affirmative(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", p.t.Get("y"), p.t.Get("yes"):
		return true
	default:
		return false
	}
}
