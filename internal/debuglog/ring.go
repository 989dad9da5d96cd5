// Package debuglog keeps a scrubbed tail of the node's own log output so an
// operator can fetch it with debug.logs.
package debuglog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const DefaultSize = 500

type buffer struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func (b *buffer) add(line string) {
	b.mu.Lock()
	b.lines[b.next] = line
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.full = true
	}
	b.mu.Unlock()
}

func (b *buffer) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		return append([]string(nil), b.lines[:b.next]...)
	}
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.next:]...)
	return append(out, b.lines[:b.next]...)
}

// Ring is a slog.Handler that records every record at or above Level into a
// fixed-size buffer and then forwards it to the wrapped handler.
type Ring struct {
	next   slog.Handler
	level  slog.Leveler
	buf    *buffer
	prefix string // formatted attrs from WithAttrs
	group  string
}

// NewRing wraps next (may be nil) keeping the last size lines at or above level.
func NewRing(next slog.Handler, level slog.Leveler, size int) *Ring {
	if size <= 0 {
		size = DefaultSize
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &Ring{next: next, level: level, buf: &buffer{lines: make([]string, size)}}
}

func (h *Ring) Enabled(ctx context.Context, l slog.Level) bool {
	if l >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, l)
}

func (h *Ring) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		h.buf.add(Scrub(h.format(r)))
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *Ring) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	var sb strings.Builder
	sb.WriteString(h.prefix)
	for _, a := range attrs {
		writeAttr(&sb, h.group, a)
	}
	c.prefix = sb.String()
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

func (h *Ring) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = h.group + name + "."
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}

// Lines returns captured lines oldest first.
func (h *Ring) Lines() []string { return h.buf.snapshot() }

// Text returns captured lines joined by newlines.
func (h *Ring) Text() string { return strings.Join(h.Lines(), "\n") }

func (h *Ring) format(r slog.Record) string {
	var sb strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(ts.UTC().Format(time.RFC3339Nano))
	sb.WriteByte(' ')
	sb.WriteString(r.Level.String())
	sb.WriteByte(' ')
	sb.WriteString(r.Message)
	sb.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.group, a)
		return true
	})
	return sb.String()
}

func writeAttr(sb *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := group
		if a.Key != "" {
			sub = group + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, sub, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(group)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	v := a.Value.String()
	if strings.ContainsAny(v, " \t\"=") {
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(v, `"`, `\"`))
		sb.WriteByte('"')
		return
	}
	sb.WriteString(v)
}
