// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wneessen/geomarker/internal/geobus"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    geobus.Coordinate
		wantErr bool
	}{
		{"two arguments", []string{"51.5237", "-0.1585"}, geobus.Coordinate{Lat: 51.5237, Lon: -0.1585}, false},
		{"single argument", []string{"48.8584, 2.2945"}, geobus.Coordinate{Lat: 48.8584, Lon: 2.2945}, false},
		{"missing longitude", []string{"48.8584"}, geobus.Coordinate{}, true},
		{"not a number", []string{"north", "2.2945"}, geobus.Coordinate{}, true},
		{"out of range", []string{"91", "0"}, geobus.Coordinate{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseCoordinate(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected parsing to fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to parse coordinate: %s", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
	t.Run("out of range is an invalid coordinate", func(t *testing.T) {
		_, err := parseCoordinate([]string{"0", "181"})
		if !errors.Is(err, geobus.ErrInvalidCoordinate) {
			t.Errorf("expected error to be %s, got %v", geobus.ErrInvalidCoordinate, err)
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		out := execute(t, "version")
		if !strings.HasPrefix(out, "geomarker dev") {
			t.Errorf("unexpected version output: %q", out)
		}
	})
	t.Run("permission grant, status and revoke", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "permission")
		t.Setenv("XDG_CONFIG_HOME", dir)
		t.Setenv("GEOMARKER_PERMISSION_FILE", path)

		if out := execute(t, "permission", "status"); !strings.Contains(out, "state: unset") {
			t.Errorf("expected unset state, got %q", out)
		}
		execute(t, "permission", "grant")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read permission file: %s", err)
		}
		if strings.TrimSpace(string(data)) != "granted" {
			t.Errorf("expected granted state in file, got %q", data)
		}
		if out := execute(t, "permission", "status"); !strings.Contains(out, "state: granted") {
			t.Errorf("expected granted state, got %q", out)
		}
		execute(t, "permission", "revoke")
		if out := execute(t, "permission", "status"); !strings.Contains(out, "state: denied") {
			t.Errorf("expected denied state, got %q", out)
		}
	})
	t.Run("missing explicit env file fails", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		rootCmd.SetArgs([]string{"permission", "status", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
		rootCmd.SetOut(bytes.NewBuffer(nil))
		rootCmd.SetErr(bytes.NewBuffer(nil))
		t.Cleanup(func() {
			envFile = ".env"
			_ = rootCmd.PersistentFlags().Set("env-file", ".env")
			rootCmd.PersistentFlags().Lookup("env-file").Changed = false
		})
		if err := rootCmd.Execute(); err == nil {
			t.Error("expected command to fail")
		}
	})
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %s", args, err)
	}
	return buf.String()
}
