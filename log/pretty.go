package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used for pretty printing. Styles are bound to a
// renderer for the output writer, so color is dropped for writers that are
// not terminals.
type palette struct {
	key, str, num, yes, no, dur, time, null lipgloss.Style
	levels                                  [4]lipgloss.Style // trace, info, warn, error
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		yes:  fg("2"),
		no:   fg("1"),
		dur:  fg("5"),
		time: fg("4"),
		null: fg("8"),
		levels: [4]lipgloss.Style{
			fg("4"),
			fg("2"),
			fg("3"),
			fg("1").Bold(true),
		},
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.levels[3]
	case l >= slog.LevelWarn:
		return p.levels[2]
	case l >= slog.LevelInfo:
		return p.levels[1]
	default:
		return p.levels[0]
	}
}

// prettyHandler implements a colorized handler for log messages, either as
// key=value text on one line or as indented JSON-like fields.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	colors palette
	groups []string
	attrs  []slog.Attr
	json   bool
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		colors: makePalette(w),
	}
}

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	h := newPrettyTextHandler(w, opts)
	h.json = true

	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	builtin := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			fields = append(fields, a)
		}
	}

	if !r.Time.IsZero() {
		builtin(slog.Time(slog.TimeKey, r.Time))
	}

	builtin(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			builtin(slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	builtin(slog.String(slog.MessageKey, r.Message))

	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = h.appendAttr(fields, h.groups, a)

		return true
	})

	buf := new(bytes.Buffer)

	if h.json {
		h.writeJSON(buf, fields, r.Level)
	} else {
		h.writeText(buf, fields, r.Level)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h
	c.attrs = h.attrs[:len(h.attrs):len(h.attrs)]

	for _, a := range attrs {
		c.attrs = h.appendAttr(c.attrs, h.groups, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &c
}

// appendAttr resolves a, applies ReplaceAttr and flattens groups into dotted
// keys.
func (h *prettyHandler) appendAttr(
	dst []slog.Attr,
	groups []string,
	a slog.Attr,
) []slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		if len(members) == 0 {
			return dst
		}

		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}

		for _, m := range members {
			dst = h.appendAttr(dst, groups, m)
		}

		return dst
	}

	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(groups, a)
		a.Value = a.Value.Resolve()
	}

	if a.Equal(slog.Attr{}) {
		return dst
	}

	if len(groups) > 0 {
		a.Key = strings.Join(groups, ".") + "." + a.Key
	}

	return append(dst, a)
}

func (h *prettyHandler) writeText(buf *bytes.Buffer, fields []slog.Attr, level slog.Level) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.colors.key.Render(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.renderValue(a, level))
	}
}

func (h *prettyHandler) writeJSON(buf *bytes.Buffer, fields []slog.Attr, level slog.Level) {
	buf.WriteString("{\n")

	for i, a := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(h.colors.key.Render(a.Key))
		buf.WriteString(": ")
		buf.WriteString(h.renderValue(a, level))
	}

	buf.WriteString("\n}")
}

func (h *prettyHandler) renderValue(a slog.Attr, level slog.Level) string {
	v := a.Value

	if a.Key == slog.LevelKey {
		s := v.String()
		if l, ok := v.Any().(slog.Level); ok {
			s = strings.ToUpper(Level(l).String())
		}

		return h.colors.level(level).Render(s)
	}

	switch v.Kind() {
	case slog.KindString:
		return h.colors.str.Render(v.String())

	case slog.KindInt64:
		return h.colors.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return h.colors.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return h.colors.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return h.colors.yes.Render("true")
		}

		return h.colors.no.Render("false")

	case slog.KindDuration:
		return h.colors.dur.Render(v.Duration().String())

	case slog.KindTime:
		return h.colors.time.Render(v.Time().Format(time.RFC3339))

	case slog.KindAny:
		if v.Any() == nil {
			return h.colors.null.Render("null")
		}

		if err, ok := v.Any().(error); ok {
			return h.colors.no.Render(err.Error())
		}

		return h.colors.str.Render(fmt.Sprint(v.Any()))

	default:
		return h.colors.str.Render(v.String())
	}
}
