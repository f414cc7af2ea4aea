package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type entry struct{ kind, msg string }

type recordingSink struct{ entries []entry }

func (s *recordingSink) Add(kind, msg string) {
	s.entries = append(s.entries, entry{kind, msg})
}

func TestSinkHandlerSummary(t *testing.T) {
	sink := &recordingSink{}
	logger := slog.New(NewSinkHandler(sink, slog.LevelDebug))

	logger.Info("probe started", "metric", "latency", "pid", 42)
	logger.With("component", "probe").WithGroup("proc").Warn("probe exited", "code", 1)
	logger.Error("listener failure")

	want := []entry{
		{KindInfo, "probe started (metric=latency, pid=42)"},
		{KindWarn, "probe exited (component=probe, proc.code=1)"},
		{KindError, "listener failure"},
	}
	if len(sink.entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(sink.entries), len(want), sink.entries)
	}
	for i, w := range want {
		if sink.entries[i] != w {
			t.Errorf("entry %d = %+v, want %+v", i, sink.entries[i], w)
		}
	}
}

func TestSinkHandlerLevel(t *testing.T) {
	sink := &recordingSink{}
	logger := slog.New(NewSinkHandler(sink, slog.LevelWarn))
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	if len(sink.entries) != 1 || sink.entries[0].msg != "shown" {
		t.Errorf("entries = %v", sink.entries)
	}
}

func TestKindForLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, KindDebug},
		{slog.LevelInfo, KindInfo},
		{slog.LevelWarn, KindWarn},
		{slog.LevelError, KindError},
		{slog.LevelError + 4, KindError},
	}
	for _, tt := range tests {
		if got := KindForLevel(tt.level); got != tt.want {
			t.Errorf("KindForLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wttrace.log")
	sink := &recordingSink{}
	logger, closer, err := New(sink, Options{Level: slog.LevelInfo, File: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("spawn failure", "metric", "stack")
	logger.Debug("dropped")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if len(sink.entries) != 1 {
		t.Errorf("sink entries = %v", sink.entries)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("file lines = %q", lines)
	}
	if !strings.Contains(lines[0], `"msg":"spawn failure"`) || !strings.Contains(lines[0], `"metric":"stack"`) {
		t.Errorf("file line = %s", lines[0])
	}
}

func TestNewBadFile(t *testing.T) {
	_, _, err := New(nil, Options{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	if err == nil {
		t.Error("expected error for unwritable log file")
	}
}

func TestNewWithoutOutputs(t *testing.T) {
	logger, closer, err := New(nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	logger.Error("nowhere")
	if err := closer.Close(); err != nil {
		t.Error(err)
	}
}
