package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyPipeline(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		notWant []string
	}{
		{"h1", "# Hello", []string{`<h1 class="` + classH1 + `">Hello</h1>`}, nil},
		{"longest heading prefix first", "### Three", []string{`<h3 class="` + classH3 + `">Three</h3>`}, []string{"<h1", "##"}},
		{"bold and italic", "**bold** and *italic*", []string{`<strong class="font-semibold">bold</strong>`, `<em class="italic">italic</em>`}, nil},
		{"inline code", "`code`", []string{`<code class="` + classCode + `">code</code>`}, nil},
		{"link", "[x](http://a)", []string{`<a href="http://a"`, `target="_blank" rel="noopener noreferrer">x</a>`}, nil},
		{"image before link", "![alt](u.png)", []string{`<img src="u.png" alt="alt"`}, []string{"<a "}},
		{"image beside link", "![a](u.png) see [b](v)", []string{`<img src="u.png" alt="a"`, `<a href="v"`, `>b</a>`}, []string{"!<a", `href="u.png"`}},
		{"list items", "- a\n* b", []string{bullet + "a</li>", bullet + "b</li>"}, nil},
		{"blockquote", "> q", []string{`<blockquote class="` + classBlockquote + `">q</blockquote>`}, nil},
		{"fence protected", "```x **y**```", []string{`<code class="` + classPreCode + `">x **y**</code></pre>`}, []string{"<strong"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Legacy(tt.in, LegacyOptions{})
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out, nw)
			}
		})
	}
}

func TestLegacyFenceContentIsVerbatim(t *testing.T) {
	out := Legacy("before\n```\n**keep** [a](b)\n```\nafter", LegacyOptions{})
	assert.Contains(t, out, "**keep** [a](b)")
	assert.NotContains(t, out, "<strong")
	assert.NotContains(t, out, "<a ")
}

func TestLegacyFenceMarkerInTextIsInert(t *testing.T) {
	out := Legacy("\x00fence0\x00 text\n\n```code```", LegacyOptions{})
	assert.NotContains(t, out, "\x00")
	assert.Equal(t, 1, strings.Count(out, "<pre"))
	assert.Less(t, strings.Index(out, "fence0 text"), strings.Index(out, "<pre"))
	assert.Contains(t, out, ">code</code></pre>")
}

func TestLegacyParagraphs(t *testing.T) {
	out := Legacy("para1\n\npara2", LegacyOptions{})
	assert.Equal(t, `<p class="mb-4">para1</p><p class="mb-4">para2</p>`, out)
	assert.Equal(t, "", Legacy("", LegacyOptions{}))
	assert.Equal(t, "", Legacy("\n\n\n\n", LegacyOptions{}))
}

func TestLegacyLooseBold(t *testing.T) {
	tight := Legacy("**bold**", LegacyOptions{})
	assert.Contains(t, tight, ">bold</strong>")

	loose := Legacy("**bold**", LegacyOptions{LooseBold: true})
	assert.Equal(t, 2, strings.Count(loose, "<strong"))
	assert.Contains(t, loose, "</strong>bold<strong")
}

func TestLegacyDoesNotEscape(t *testing.T) {
	out := Legacy("<b>raw</b>", LegacyOptions{})
	assert.Contains(t, out, "<b>raw</b>")
	assert.NotContains(t, Sanitize(out), "<b>")
}
