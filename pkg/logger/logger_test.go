package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorCarriesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithReservationID(ctx, "res-9")
	ctx = log.WithActor(ctx, "maria")

	log.Error(ctx, "boom", errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v; raw=%s", err, buf.String())
	}
	for key, want := range map[string]string{"request_id": "req-123", "reservation_id": "res-9", "actor": "maria", "service": "test", "error": "boom"} {
		if entry[key] != want {
			t.Fatalf("expected %s=%q, got %v", key, want, entry[key])
		}
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatalf("expected stack on error entry")
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{ServiceName: "test", Output: buf}).Warn(context.Background(), "quiet")
	if strings.Contains(buf.String(), "\"stack\"") {
		t.Fatalf("stack should be omitted by default: %s", buf.String())
	}

	buf.Reset()
	New(Options{ServiceName: "test", Output: buf, WarnStack: true}).Warn(context.Background(), "loud")
	if !strings.Contains(buf.String(), "\"stack\"") {
		t.Fatalf("expected stack when warn stack enabled: %s", buf.String())
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("warn"), Output: buf})
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
}

func TestLoggerConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{ServiceName: "test", Format: "console", Output: buf}).Info(context.Background(), "room ready")
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("console format should not emit json: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "room ready") {
		t.Fatalf("expected message in console output: %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"invalid": zerolog.InfoLevel,
		" DEBUG ": zerolog.DebugLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
