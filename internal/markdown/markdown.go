// Package markdown turns the forum's markdown dialect into HTML fragments.
//
// Render parses the source into an AST and emits the forum markup for each
// node, so code content is never reinterpreted and emphasis markers cannot
// spill across spans. Output is sanitized unless the caller opts out.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options control a single render.
type Options struct {
	// Unsafe skips sanitization. Only for sources the caller trusts.
	Unsafe bool
}

var converter = goldmark.New(
	goldmark.WithRendererOptions(
		// Raw HTML reaches the sanitizer, which decides what survives.
		html.WithUnsafe(),
		renderer.WithNodeRenderers(util.Prioritized(&forumRenderer{}, 100)),
	),
)

// Render converts source to a sanitized HTML fragment.
func Render(source string) string {
	return RenderWith(source, Options{})
}

// RenderWith converts source using opts. It never fails; malformed input
// still yields some HTML.
func RenderWith(source string, opts Options) string {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(source), &buf); err != nil {
		// Conversion only fails on writer errors, which bytes.Buffer never returns.
		buf.Reset()
		buf.WriteString("<p class=\"" + classParagraph + "\">")
		buf.Write(util.EscapeHTML([]byte(source)))
		buf.WriteString("</p>")
	}
	if opts.Unsafe {
		return buf.String()
	}
	return Sanitize(buf.String())
}
