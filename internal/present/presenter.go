// Package present writes command results as plain text, JSON or styled
// terminal output.
package present

import (
	"io"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/drafts"
	"github.com/mithrel/agora/internal/present/format"
	"github.com/mithrel/agora/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
)

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	// Color enables lipgloss styling of status words.
	Color bool
	Width int
}

// ParseMode parses "plain", "pretty" or "json".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "plain", "":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	default:
		return ModePlain, false
	}
}

// OptionsFor picks defaults for w: color and pretty output only on a terminal.
func OptionsFor(w io.Writer, mode Mode) Options {
	tty := IsTerminal(w)
	if mode == ModePretty && !tty {
		mode = ModePlain
	}
	return Options{Mode: mode, JSONIndent: tty, Headers: true, Color: tty, Width: TerminalWidth(w)}
}

type validationJSON struct {
	Accepted []api.CandidateFile `json:"accepted"`
	Rejected []rejectionJSON     `json:"rejected"`
}

type rejectionJSON struct {
	api.CandidateFile
	Reason string `json:"reason"`
}

// RenderValidation reports the outcome of attachment validation.
func RenderValidation(w io.Writer, res attach.Result, opts Options) error {
	if opts.Mode == ModeJSON {
		out := validationJSON{Accepted: res.Accepted, Rejected: []rejectionJSON{}}
		if out.Accepted == nil {
			out.Accepted = []api.CandidateFile{}
		}
		for _, r := range res.Rejections {
			out.Rejected = append(out.Rejected, rejectionJSON{CandidateFile: r.File, Reason: r.Reason})
		}
		return format.WriteJSON(w, out, opts.JSONIndent)
	}
	st := NewStyles(opts.Color)
	return format.WritePlainValidation(w, res, st.Accepted, st.Rejected)
}

func RenderDrafts(w io.Writer, ds []drafts.Draft, opts Options) error {
	if opts.Mode == ModeJSON {
		if ds == nil {
			ds = []drafts.Draft{}
		}
		return format.WriteJSON(w, ds, opts.JSONIndent)
	}
	return format.WritePlainDrafts(w, ds, opts.Headers)
}

func RenderDraft(w io.Writer, d drafts.Draft, opts Options) error {
	if opts.Mode == ModeJSON {
		return format.WriteJSON(w, d, opts.JSONIndent)
	}
	return format.WritePlainDraft(w, d)
}

func RenderLocations(w io.Writer, l attach.Locations, opts Options) error {
	if opts.Mode == ModeJSON {
		return format.WriteJSON(w, l, opts.JSONIndent)
	}
	return format.WritePlainLocations(w, l)
}

func RenderCategories(w io.Writer, cs []api.Category, opts Options) error {
	if opts.Mode == ModeJSON {
		return format.WriteJSON(w, cs, opts.JSONIndent)
	}
	return format.WritePlainNamed(w, cs, func(c api.Category) (int64, string) { return c.ID, c.Name })
}

func RenderTags(w io.Writer, ts []api.Tag, opts Options) error {
	if opts.Mode == ModeJSON {
		return format.WriteJSON(w, ts, opts.JSONIndent)
	}
	return format.WritePlainNamed(w, ts, func(t api.Tag) (int64, string) { return t.ID, t.Name })
}

// RenderQuestion shows a question; pretty mode renders its markdown.
func RenderQuestion(w io.Writer, q api.Question, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, q, opts.JSONIndent)
	case ModePretty:
		return format.WritePrettyQuestion(w, q, opts.Width)
	}
	_, err := io.WriteString(w, formatQuestion(q))
	return err
}
