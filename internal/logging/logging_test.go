package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInitText(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	if err := Init(&buf, "info", "text"); err != nil {
		t.Fatal(err)
	}
	slog.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("text output missing message: %q", buf.String())
	}
}

func TestInitJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	if err := Init(&buf, "debug", "json"); err != nil {
		t.Fatal(err)
	}
	slog.Debug("detail")
	if !strings.Contains(buf.String(), `"msg":"detail"`) {
		t.Fatalf("json output missing message: %q", buf.String())
	}
	SetLevel(slog.LevelInfo)
}

func TestInitRejectsUnknown(t *testing.T) {
	if err := Init(nil, "loud", "text"); err == nil {
		t.Error("unknown level should fail")
	}
	if err := Init(nil, "info", "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		err   bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"  Error  ", slog.LevelError, false},
		{"unknown", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.err {
			t.Errorf("ParseLevel(%q): err = %v, want err %v", tt.input, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q): got %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestComponentHandlerEnabled(t *testing.T) {
	SetLevel(slog.LevelWarn)
	defer SetLevel(slog.LevelInfo)

	prev := slog.Default()
	defer slog.SetDefault(prev)
	slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: level})))

	h := &componentHandler{}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestForTagsComponent(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	For("store").Info("saved", "key", "k1")

	got, ok := c.AttrValue(slog.LevelInfo, "saved", "component")
	if !ok || got != "store" {
		t.Fatalf("component attr = %q (found %v), want store", got, ok)
	}
	got, ok = c.AttrValue(slog.LevelInfo, "saved", "key")
	if !ok || got != "k1" {
		t.Fatalf("key attr = %q (found %v), want k1", got, ok)
	}
}

func TestForWithKeepsAttrs(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	For("store").With("store_name", "tc1").Warn("slow lock")

	got, ok := c.AttrValue(slog.LevelWarn, "slow lock", "store_name")
	if !ok || got != "tc1" {
		t.Fatalf("store_name attr = %q (found %v), want tc1", got, ok)
	}
	if _, ok := c.AttrValue(slog.LevelWarn, "slow lock", "component"); !ok {
		t.Fatal("component attr lost after With")
	}
}

func TestCaptureCounts(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	slog.Info("hello")
	slog.Warn("warning message")
	slog.Debug("debug detail")

	if n := len(c.Records()); n != 3 {
		t.Fatalf("expected 3 records, got %d", n)
	}
	if !c.Has(slog.LevelWarn, "warning") {
		t.Error("should have warn 'warning'")
	}
	if c.Has(slog.LevelError, "hello") {
		t.Error("should not match error level")
	}
	if c.Count(slog.LevelDebug) != 1 {
		t.Errorf("expected 1 debug, got %d", c.Count(slog.LevelDebug))
	}
	if c.Count(slog.LevelError) != 0 {
		t.Errorf("expected 0 error, got %d", c.Count(slog.LevelError))
	}
}

func TestCaptureRestore(t *testing.T) {
	prev := slog.Default()
	c := CaptureForTest()
	c.Restore()
	if slog.Default() != prev {
		t.Error("default logger not restored")
	}
}
