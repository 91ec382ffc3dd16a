// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package permission

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/geomarker/internal/i18n"
)

func TestStatic(t *testing.T) {
	for _, want := range []bool{true, false} {
		s := Static(want)
		granted, err := s.Granted(t.Context())
		if err != nil || granted != want {
			t.Errorf("Granted: expected %t, got %t (%v)", want, granted, err)
		}
		granted, err = s.Request(t.Context())
		if err != nil || granted != want {
			t.Errorf("Request: expected %t, got %t (%v)", want, granted, err)
		}
	}
}

func TestFileStore(t *testing.T) {
	t.Run("missing file is not granted", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "permission"), nil)
		granted, err := store.Granted(t.Context())
		if err != nil {
			t.Fatalf("failed to check permission: %s", err)
		}
		if granted {
			t.Error("expected missing file to mean not granted")
		}
		state, err := store.State()
		if err != nil || state != "unset" {
			t.Errorf("expected state unset, got %q (%v)", state, err)
		}
	})
	t.Run("grant and revoke", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "sub", "permission"), nil)
		if err := store.Grant(); err != nil {
			t.Fatalf("failed to grant permission: %s", err)
		}
		if granted, _ := store.Granted(t.Context()); !granted {
			t.Error("expected permission to be granted")
		}
		if err := store.Revoke(); err != nil {
			t.Fatalf("failed to revoke permission: %s", err)
		}
		if granted, _ := store.Granted(t.Context()); granted {
			t.Error("expected permission to be revoked")
		}
		if state, _ := store.State(); state != stateDenied {
			t.Errorf("expected state %s, got %s", stateDenied, state)
		}
	})
	t.Run("garbage in the state file fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "permission")
		if err := os.WriteFile(path, []byte("maybe\n"), 0o600); err != nil {
			t.Fatalf("failed to write test file: %s", err)
		}
		store := NewFileStore(path, nil)
		if _, err := store.Granted(t.Context()); !errors.Is(err, ErrUnknownState) {
			t.Errorf("expected error to be %s, got %v", ErrUnknownState, err)
		}
	})
	t.Run("request persists the answer", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "permission"), fakePrompter{answer: true})
		granted, err := store.Request(t.Context())
		if err != nil {
			t.Fatalf("failed to request permission: %s", err)
		}
		if !granted {
			t.Fatal("expected permission to be granted")
		}
		if granted, _ = store.Granted(t.Context()); !granted {
			t.Error("expected grant to be persisted")
		}
	})
	t.Run("request persists a denial", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "permission"), fakePrompter{})
		if granted, _ := store.Request(t.Context()); granted {
			t.Fatal("expected permission to be denied")
		}
		if state, _ := store.State(); state != stateDenied {
			t.Errorf("expected state %s, got %s", stateDenied, state)
		}
	})
	t.Run("request without prompter is denied", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "permission"), nil)
		if granted, err := store.Request(t.Context()); granted || err != nil {
			t.Errorf("expected silent denial, got %t (%v)", granted, err)
		}
	})
	t.Run("failing prompter", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "permission"), fakePrompter{err: io.ErrUnexpectedEOF})
		if _, err := store.Request(t.Context()); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("expected error to be %s, got %v", io.ErrUnexpectedEOF, err)
		}
	})
}

func TestTerminalPrompter_Prompt(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		input  string
		want   bool
	}{
		{"yes", "en", "y\n", true},
		{"long yes", "en", "YES\n", true},
		{"no", "en", "n\n", false},
		{"empty line", "en", "\n", false},
		{"no trailing newline", "en", "y", true},
		{"german yes", "de", "j\n", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			localizer, err := i18n.New(tc.locale)
			if err != nil {
				t.Fatalf("failed to create localizer: %s", err)
			}
			out := bytes.NewBuffer(nil)
			prompter := NewTerminalPrompter(strings.NewReader(tc.input), out, localizer)
			got, err := prompter.Prompt(t.Context())
			if err != nil {
				t.Fatalf("failed to prompt: %s", err)
			}
			if got != tc.want {
				t.Errorf("expected %t, got %t", tc.want, got)
			}
			if !strings.Contains(out.String(), "geomarker") {
				t.Errorf("expected prompt to be written, got %q", out.String())
			}
		})
	}
	t.Run("only the answer line is consumed", func(t *testing.T) {
		localizer, _ := i18n.New("en")
		in := strings.NewReader("y\n{\"type\":\"foreground\"}\n")
		prompter := NewTerminalPrompter(in, io.Discard, localizer)
		if _, err := prompter.Prompt(t.Context()); err != nil {
			t.Fatalf("failed to prompt: %s", err)
		}
		rest, _ := io.ReadAll(in)
		if string(rest) != "{\"type\":\"foreground\"}\n" {
			t.Errorf("expected remaining input to be untouched, got %q", rest)
		}
	})
	t.Run("closed input fails", func(t *testing.T) {
		localizer, _ := i18n.New("en")
		prompter := NewTerminalPrompter(strings.NewReader(""), io.Discard, localizer)
		if _, err := prompter.Prompt(t.Context()); err == nil {
			t.Error("expected prompt to fail on closed input")
		}
	})
	t.Run("cancelled context", func(t *testing.T) {
		localizer, _ := i18n.New("en")
		reader, writer := io.Pipe()
		defer func() { _ = writer.Close() }()
		prompter := NewTerminalPrompter(reader, io.Discard, localizer)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := prompter.Prompt(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected error to be %s, got %v", context.Canceled, err)
		}
	})
	t.Run("cancelled prompt leaves the next line on the input", func(t *testing.T) {
		localizer, _ := i18n.New("en")
		local, remote := net.Pipe()
		defer func() { _ = local.Close() }()
		defer func() { _ = remote.Close() }()
		prompter := NewTerminalPrompter(local, io.Discard, localizer)

		ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond*50)
		defer cancel()
		if _, err := prompter.Prompt(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected error to be %s, got %v", context.DeadlineExceeded, err)
		}

		go func() { _, _ = io.WriteString(remote, "{\"type\":\"foreground\"}\n") }()
		_ = local.SetReadDeadline(time.Now().Add(time.Second * 5))
		line, err := readLine(local)
		if err != nil {
			t.Fatalf("failed to read line after cancelled prompt: %s", err)
		}
		if line != `{"type":"foreground"}` {
			t.Errorf("expected the event line to be left on the input, got %q", line)
		}
	})
}

type fakePrompter struct {
	answer bool
	err    error
}

func (p fakePrompter) Prompt(context.Context) (bool, error) {
	return p.answer, p.err
}
