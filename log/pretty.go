package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty handlers. Styles are bound to the
// renderer of the output, so colors are dropped when it is not a terminal.
type palette struct {
	key, str, num, dur, tim, null lipgloss.Style
	yes, no                       lipgloss.Style
	trace, debug, info, warn, err lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		dur:   fg("5"),
		tim:   fg("4"),
		null:  fg("8"),
		yes:   fg("2"),
		no:    fg("1"),
		trace: fg("8"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3").Bold(true),
		err:   fg("1").Bold(true),
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.err
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// levelText returns the level name written by the pretty handlers.
func levelText(l slog.Level) string {
	return Level(l).Name()
}

// prettyTextHandler writes each record on one line as colorized key=value
// pairs.
type prettyTextHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	style  palette
	attrs  []slog.Attr
	groups []string
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyTextHandler {
	return &prettyTextHandler{
		opts:  *opts,
		mu:    &sync.Mutex{},
		w:     w,
		style: newPalette(w),
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if t := formattedTime(h.opts, r); t != "" {
		h.writeKey(buf, slog.TimeKey)
		buf.WriteString(h.style.tim.Render(t))
	}

	h.writeKey(buf, slog.LevelKey)
	buf.WriteString(h.style.level(r.Level).Render(levelText(r.Level)))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			h.writeKey(buf, slog.SourceKey)
			buf.WriteString(h.style.str.Render(fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	h.writeKey(buf, slog.MessageKey)
	buf.WriteString(h.style.str.Render(r.Message))

	for _, a := range h.attrs {
		h.writeAttr(buf, "", a)
	}

	prefix := groupPrefix(h.groups)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, prefix, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	prefix := groupPrefix(h.groups)

	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], prefixed(prefix, attrs)...)

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &c
}

func (h *prettyTextHandler) writeKey(buf *bytes.Buffer, key string) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(h.style.key.Render(key))
	buf.WriteByte('=')
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}

		for _, g := range a.Value.Group() {
			h.writeAttr(buf, inner, g)
		}

		return
	}

	h.writeKey(buf, prefix+a.Key)
	h.writeValue(buf, a.Value)
}

func (h *prettyTextHandler) writeValue(buf *bytes.Buffer, v slog.Value) {
	p := h.style

	switch v.Kind() {
	case slog.KindInt64:
		buf.WriteString(p.num.Render(strconv.FormatInt(v.Int64(), 10)))
	case slog.KindUint64:
		buf.WriteString(p.num.Render(strconv.FormatUint(v.Uint64(), 10)))
	case slog.KindFloat64:
		buf.WriteString(p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64)))
	case slog.KindBool:
		if v.Bool() {
			buf.WriteString(p.yes.Render("true"))
		} else {
			buf.WriteString(p.no.Render("false"))
		}
	case slog.KindDuration:
		buf.WriteString(p.dur.Render(v.Duration().String()))
	case slog.KindTime:
		buf.WriteString(p.tim.Render(v.Time().String()))
	default:
		buf.WriteString(p.str.Render(v.String()))
	}
}

// prettyJSONHandler writes each record as an indented, colorized object.
// Strings are written without quotes.
type prettyJSONHandler struct {
	opts  slog.HandlerOptions
	mu    *sync.Mutex
	w     io.Writer
	style palette
	attrs []slog.Attr
	group string
}

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyJSONHandler {
	return &prettyJSONHandler{
		opts:  *opts,
		mu:    &sync.Mutex{},
		w:     w,
		style: newPalette(w),
	}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	first := true

	buf.WriteString("{\n")

	if t := formattedTime(h.opts, r); t != "" {
		h.writeField(buf, 1, slog.TimeKey, &first)
		buf.WriteString(h.style.tim.Render(t))
	}

	h.writeField(buf, 1, slog.LevelKey, &first)
	buf.WriteString(h.style.level(r.Level).Render(levelText(r.Level)))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			h.writeField(buf, 1, slog.SourceKey, &first)
			buf.WriteString(h.style.str.Render(fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	h.writeField(buf, 1, slog.MessageKey, &first)
	buf.WriteString(h.style.str.Render(r.Message))

	for _, a := range h.attrs {
		h.writeAttr(buf, 1, a, &first)
	}

	var record []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		record = append(record, a)

		return true
	})

	if h.group != "" && len(record) > 0 {
		h.writeAttr(buf, 1, slog.Attr{Key: h.group, Value: slog.GroupValue(record...)}, &first)
	} else {
		for _, a := range record {
			h.writeAttr(buf, 1, a, &first)
		}
	}

	buf.WriteString("\n}\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h

	prefix := ""
	if h.group != "" {
		prefix = h.group + "."
	}

	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], prefixed(prefix, attrs)...)

	return &c
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	if c.group != "" {
		name = c.group + "." + name
	}

	c.group = name

	return &c
}

func (h *prettyJSONHandler) writeField(buf *bytes.Buffer, depth int, key string, first *bool) {
	if !*first {
		buf.WriteString(",\n")
	}

	*first = false

	buf.Write(bytes.Repeat([]byte("  "), depth))
	buf.WriteString(h.style.key.Render(key))
	buf.WriteString(": ")
}

func (h *prettyJSONHandler) writeAttr(buf *bytes.Buffer, depth int, a slog.Attr, first *bool) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	h.writeField(buf, depth, a.Key, first)

	if a.Value.Kind() != slog.KindGroup {
		h.writeValue(buf, a.Value)

		return
	}

	buf.WriteString("{\n")

	inner := true
	for _, g := range a.Value.Group() {
		h.writeAttr(buf, depth+1, g, &inner)
	}

	buf.WriteByte('\n')
	buf.Write(bytes.Repeat([]byte("  "), depth))
	buf.WriteByte('}')
}

func (h *prettyJSONHandler) writeValue(buf *bytes.Buffer, v slog.Value) {
	p := h.style

	switch v.Kind() {
	case slog.KindInt64:
		buf.WriteString(p.num.Render(strconv.FormatInt(v.Int64(), 10)))
	case slog.KindUint64:
		buf.WriteString(p.num.Render(strconv.FormatUint(v.Uint64(), 10)))
	case slog.KindFloat64:
		buf.WriteString(p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64)))
	case slog.KindBool:
		if v.Bool() {
			buf.WriteString(p.yes.Render("true"))
		} else {
			buf.WriteString(p.no.Render("false"))
		}
	case slog.KindDuration:
		buf.WriteString(p.dur.Render(v.Duration().String()))
	case slog.KindTime:
		buf.WriteString(p.tim.Render(v.Time().String()))
	case slog.KindAny:
		if v.Any() == nil {
			buf.WriteString(p.null.Render("null"))

			return
		}

		buf.WriteString(p.str.Render(fmt.Sprint(v.Any())))
	default:
		buf.WriteString(p.str.Render(v.String()))
	}
}

// formattedTime returns the record time as rewritten by the handler's
// ReplaceAttr, or "" when timestamps are disabled.
func formattedTime(opts slog.HandlerOptions, r slog.Record) string {
	if r.Time.IsZero() {
		return ""
	}

	a := slog.Time(slog.TimeKey, r.Time)
	if opts.ReplaceAttr != nil {
		a = opts.ReplaceAttr(nil, a)
	}

	if a.Key == "" {
		return ""
	}

	return a.Value.String()
}

func groupPrefix(groups []string) string {
	var prefix string
	for _, g := range groups {
		prefix += g + "."
	}

	return prefix
}

func prefixed(prefix string, attrs []slog.Attr) []slog.Attr {
	if prefix == "" {
		return attrs
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}

	return out
}
