package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles for the pretty text handler.
//
//nolint:gochecknoglobals
var (
	styleKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleMsg   = lipgloss.NewStyle().Bold(true)
	styleTrace = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level < slog.LevelDebug:
		return styleTrace
	case level < slog.LevelInfo:
		return styleDebug
	case level < slog.LevelWarn:
		return styleInfo
	case level < slog.LevelError:
		return styleWarn
	default:
		return styleError
	}
}

// prettyHandler implements a colorized text handler for log messages.
type prettyHandler struct {
	opts  slog.HandlerOptions
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		opts: *opts,
		mu:   &sync.Mutex{},
		w:    w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	name := Level(r.Level).String()
	buf.WriteString(levelStyle(r.Level).Render(name))
	buf.WriteByte(' ')
	buf.WriteString(styleMsg.Render(r.Message))

	write := func(a slog.Attr) {
		buf.WriteByte(' ')
		buf.WriteString(styleKey.Render(a.Key + "="))
		buf.WriteString(fmt.Sprintf("%v", a.Value.Resolve().Any()))
	}

	for _, a := range h.attrs {
		write(a)
	}

	r.Attrs(func(a slog.Attr) bool {
		write(a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &prettyHandler{
		opts:  h.opts,
		mu:    h.mu,
		w:     h.w,
		attrs: merged,
	}
}

func (h *prettyHandler) WithGroup(string) slog.Handler {
	// Groups are flattened; attribute keys are already namespaced by the
	// caller where it matters.
	return h
}
