package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Capture records slog output for test assertions.
type Capture struct {
	mu        sync.Mutex
	records   []slog.Record
	prev      *slog.Logger
	prevLevel slog.Level
}

// CaptureForTest installs a capturing handler as the slog default at debug
// level. Call Restore when done.
func CaptureForTest() *Capture {
	c := &Capture{
		prev:      slog.Default(),
		prevLevel: level.Level(),
	}
	slog.SetDefault(slog.New(&captureHandler{capture: c}))
	SetLevel(slog.LevelDebug)
	return c
}

// Restore reinstates the logger and level active before CaptureForTest.
func (c *Capture) Restore() {
	slog.SetDefault(c.prev)
	level.Set(c.prevLevel)
}

// Records returns a copy of the captured records.
func (c *Capture) Records() []slog.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]slog.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Has reports whether a record at lvl contains msgSubstring.
func (c *Capture) Has(lvl slog.Level, msgSubstring string) bool {
	return c.find(lvl, msgSubstring) != nil
}

// AttrValue returns the string form of attribute key on the first record at
// lvl whose message contains msgSubstring.
func (c *Capture) AttrValue(lvl slog.Level, msgSubstring, key string) (string, bool) {
	r := c.find(lvl, msgSubstring)
	if r == nil {
		return "", false
	}
	var (
		val   string
		found bool
	)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val, found = a.Value.String(), true
			return false
		}
		return true
	})
	return val, found
}

// Count returns the number of records at lvl.
func (c *Capture) Count(lvl slog.Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Level == lvl {
			n++
		}
	}
	return n
}

func (c *Capture) find(lvl slog.Level, msgSubstring string) *slog.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.records {
		if c.records[i].Level == lvl && strings.Contains(c.records[i].Message, msgSubstring) {
			r := c.records[i].Clone()
			return &r
		}
	}
	return nil
}

type captureHandler struct {
	capture *Capture
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.capture.mu.Lock()
	defer h.capture.mu.Unlock()
	h.capture.records = append(h.capture.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }
