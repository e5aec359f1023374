// Package output renders command results as terminal tables, markdown or
// JSON.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode selects how results are written.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto" // text on a terminal, markdown otherwise
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// ParseMode validates a mode name. The empty string is ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeText, ModeMarkdown, ModeJSON:
		return m, nil
	}
	return "", fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", s)
}

// Renderer writes results in one mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	title  cases.Caser
}

// NewRenderer creates a renderer. ModeAuto is resolved against out.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == ModeAuto || mode == "" {
		mode = ModeMarkdown
		if isTerminal(out) {
			mode = ModeText
		}
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		title:  cases.Title(language.English),
	}
}

// Mode returns the resolved mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// Out returns the result writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// Table writes rows under headers. Headers are title-cased. In JSON mode
// each row becomes an object keyed by the raw header.
func (r *Renderer) Table(headers []string, rows [][]any) error {
	if r.mode == ModeJSON {
		objs := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]any, len(headers))
			for i, h := range headers {
				if i < len(row) {
					obj[h] = row[i]
				}
			}
			objs = append(objs, obj)
		}
		return r.JSON(objs)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = r.title.String(h)
	}
	t.AppendHeader(header)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	if r.mode == ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	return nil
}

// JSON writes v indented.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Printf writes human-readable text. It is silent in JSON mode.
func (r *Renderer) Printf(format string, args ...any) {
	if r.mode == ModeJSON {
		return
	}
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Warnf writes to the error stream in every mode.
func (r *Renderer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errOut, format, args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

type rendererKey struct{}

// NewContext returns a context carrying r.
func NewContext(ctx context.Context, r *Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// FromContext returns the renderer stored in ctx, or a stdout renderer in
// auto mode.
func FromContext(ctx context.Context) *Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*Renderer); ok {
		return r
	}
	return NewRenderer(os.Stdout, os.Stderr, ModeAuto)
}
