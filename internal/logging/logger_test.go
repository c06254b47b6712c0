package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetState(t *testing.T) {
	t.Helper()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Output: OutputNone,
		Modules: map[string]string{
			"vaapi": "debug",
			"api":   "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"vaapi", true, true, true},
		{"api", false, false, true},
		{"scan", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState(t)

	before := GetLogger("nvidia")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should default to info")
	}

	Initialize(Config{
		Level:   "info",
		Output:  OutputNone,
		Modules: map[string]string{"nvidia": "debug"},
	})

	after := GetLogger("nvidia")
	if !after.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger should have debug enabled after Initialize")
	}
}

func TestUpdateLevels(t *testing.T) {
	resetState(t)

	Initialize(Config{Level: "info", Output: OutputNone})
	logger := GetLogger("inventory")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should start disabled")
	}

	UpdateLevels(Config{Level: "warn", Modules: map[string]string{"inventory": "debug"}})

	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("cached logger should follow UpdateLevels")
	}
	if GetLogger("api").Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("new module should pick up the updated global level")
	}
}

func TestBufferHandlerRecordsEntries(t *testing.T) {
	resetState(t)
	Initialize(Config{Level: "debug", Output: OutputNone})

	before := GetBuffer().Count()
	GetLogger("abi").With("device", "/dev/dri/renderD128").
		WithGroup("probe").
		Warn("probe failed", "codec", "hevc", "error", errors.New("VA_STATUS_ERROR_UNKNOWN"), "took", 2*time.Millisecond)

	entries := GetBuffer().Tail(1)
	if GetBuffer().Count() != before+1 || len(entries) != 1 {
		t.Fatalf("expected one new entry, count %d -> %d", before, GetBuffer().Count())
	}
	e := entries[0]
	if e.Module != "abi" || e.Level != "warn" || e.Message != "probe failed" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Attributes["device"] != "/dev/dri/renderD128" {
		t.Errorf("device attr = %v", e.Attributes["device"])
	}
	if e.Attributes["probe.codec"] != "hevc" {
		t.Errorf("grouped attr = %v", e.Attributes["probe.codec"])
	}
	if e.Attributes["probe.error"] != "VA_STATUS_ERROR_UNKNOWN" {
		t.Errorf("error attr = %v", e.Attributes["probe.error"])
	}
	if e.Attributes["probe.took"] != "2ms" {
		t.Errorf("duration attr = %v", e.Attributes["probe.took"])
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		rb.Write(LogEntry{Message: msg})
	}

	all := rb.ReadAll()
	if len(all) != 3 || all[0].Message != "c" || all[2].Message != "e" {
		t.Errorf("ReadAll = %+v", all)
	}
	tail := rb.Tail(2)
	if len(tail) != 2 || tail[0].Message != "d" {
		t.Errorf("Tail(2) = %+v", tail)
	}
	if len(rb.Tail(0)) != 3 {
		t.Error("Tail(0) should return everything")
	}
	if all[0].Seq != 3 || all[2].Seq != 5 {
		t.Errorf("sequence numbers = %d..%d, want 3..5", all[0].Seq, all[2].Seq)
	}
}

func TestLogCallback(t *testing.T) {
	resetState(t)
	Initialize(Config{Level: "info", Output: OutputNone})

	var got []LogEntry
	SetLogCallback(func(e LogEntry) { got = append(got, e) })
	defer SetLogCallback(nil)

	logger := GetLogger("inventory")
	logger.Debug("filtered")
	logger.Info("Scan completed", "devices", 2)

	if len(got) != 1 {
		t.Fatalf("callback entries = %d, want 1", len(got))
	}
	if got[0].Module != "inventory" || got[0].Seq == 0 {
		t.Errorf("unexpected entry %+v", got[0])
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestFanoutFloors(t *testing.T) {
	var stream, journal bytes.Buffer
	debug := &slog.HandlerOptions{Level: slog.LevelDebug}

	logger := slog.New(newFanout(
		sink{handler: slog.NewTextHandler(&stream, debug)},
		sink{handler: slog.NewTextHandler(&journal, debug), floor: journalFloor, gated: true},
	)).With("module", "vaapi")

	logger.Debug("probing profile", "profile", "HEVCMain10")
	logger.Warn("render node vanished", "path", "/dev/dri/renderD129")

	if !strings.Contains(stream.String(), "probing profile") {
		t.Errorf("stream sink missed the debug record: %s", stream.String())
	}
	if strings.Contains(journal.String(), "probing profile") {
		t.Errorf("gated sink received a debug record: %s", journal.String())
	}
	for name, out := range map[string]string{"stream": stream.String(), "journal": journal.String()} {
		if count := strings.Count(out, "render node vanished"); count != 1 {
			t.Errorf("%s sink has %d warn records, want 1", name, count)
		}
		if !strings.Contains(out, "module=vaapi") {
			t.Errorf("%s sink lost logger attrs: %s", name, out)
		}
	}
}

func TestFanoutSingleSink(t *testing.T) {
	h := slog.NewTextHandler(&bytes.Buffer{}, nil)
	if got := newFanout(sink{handler: h}); got != slog.Handler(h) {
		t.Errorf("single ungated sink should be returned as is, got %T", got)
	}
	if _, ok := newFanout(sink{handler: h, floor: journalFloor, gated: true}).(*fanoutHandler); !ok {
		t.Error("a gated sink needs the fanout wrapper")
	}
}

func TestFanoutJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	h := newFanout(sink{handler: failingHandler{ok}}, sink{handler: ok})

	r := slog.NewRecord(time.Now(), slog.LevelError, "encode session lost", 0)
	if err := h.Handle(context.Background(), r); err == nil || !strings.Contains(err.Error(), "sink down") {
		t.Errorf("Handle error = %v, want sink down", err)
	}
	if !strings.Contains(buf.String(), "encode session lost") {
		t.Error("healthy sink should still receive the record")
	}
}

func TestJournalFieldName(t *testing.T) {
	tests := map[string]string{
		"device":      "DEVICE",
		"probe.codec": "PROBE_CODEC",
		"_private":    "PRIVATE",
		"max-width":   "MAX_WIDTH",
	}
	for in, want := range tests {
		if got := journalFieldName(in); got != want {
			t.Errorf("journalFieldName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			switch {
			case tt.isNil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
			case !tt.isNil && got == nil:
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			case !tt.isNil && *got != tt.want:
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}
