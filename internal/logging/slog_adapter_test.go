// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogHandlerHandle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := &SlogHandler{logger: zerolog.New(&buf)}

	slogger := slog.New(handler)
	slogger.Info("service started", "service", "http-server")

	output := buf.String()
	if !strings.Contains(output, "service started") {
		t.Errorf("expected message in output: %s", output)
	}
	if !strings.Contains(output, `"service":"http-server"`) {
		t.Errorf("expected attribute in output: %s", output)
	}
}

func TestSlogHandlerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{"debug", slog.LevelDebug, `"level":"debug"`},
		{"info", slog.LevelInfo, `"level":"info"`},
		{"warn", slog.LevelWarn, `"level":"warn"`},
		{"error", slog.LevelError, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			handler := &SlogHandler{logger: zerolog.New(&buf)}
			slogger := slog.New(handler)

			slogger.Log(context.Background(), tt.level, "msg")

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		zerologLevel zerolog.Level
		slogLevel    slog.Level
		want         bool
	}{
		{"debug logger enables debug", zerolog.DebugLevel, slog.LevelDebug, true},
		{"info logger disables debug", zerolog.InfoLevel, slog.LevelDebug, false},
		{"info logger enables info", zerolog.InfoLevel, slog.LevelInfo, true},
		{"warn logger disables info", zerolog.WarnLevel, slog.LevelInfo, false},
		{"error logger enables error", zerolog.ErrorLevel, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := &SlogHandler{logger: zerolog.New(nil).Level(tt.zerologLevel)}
			if got := handler.Enabled(context.Background(), tt.slogLevel); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.slogLevel, got, tt.want)
			}
		})
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := &SlogHandler{logger: zerolog.New(&buf)}

	slogger := slog.New(handler).With("supervisor", "ledgerd")
	slogger.Info("restarting")

	output := buf.String()
	if !strings.Contains(output, `"supervisor":"ledgerd"`) {
		t.Errorf("expected persistent attribute in output: %s", output)
	}
}

func TestSlogHandlerGroupAttr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := &SlogHandler{logger: zerolog.New(&buf)}

	slogger := slog.New(handler)
	slogger.Info("grouped", slog.Group("backoff", slog.Int("failures", 3)))

	output := buf.String()
	if !strings.Contains(output, `"backoff.failures":3`) {
		t.Errorf("expected flattened group key in output: %s", output)
	}
}

func TestNewSlogLogger(t *testing.T) {
	if logger := NewSlogLogger(); logger == nil {
		t.Fatal("NewSlogLogger() = nil, want non-nil")
	}
}
