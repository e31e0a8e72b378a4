package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// LegacyOptions tune the substitution pipeline.
type LegacyOptions struct {
	// LooseBold restores the historical bold pattern, which stops at the
	// first position and swallows any run of trailing asterisks.
	LooseBold bool
}

type rule struct {
	re   *regexp.Regexp
	repl string
}

var (
	fenceRe = regexp.MustCompile("```([^`]+)```")

	headingRules = []rule{
		{regexp.MustCompile(`(?m)^### (.*)$`), `<h3 class="` + classH3 + `">$1</h3>`},
		{regexp.MustCompile(`(?m)^## (.*)$`), `<h2 class="` + classH2 + `">$1</h2>`},
		{regexp.MustCompile(`(?m)^# (.*)$`), `<h1 class="` + classH1 + `">$1</h1>`},
	}
	boldTight = rule{regexp.MustCompile(`\*\*(.+?)\*\*`), `<strong class="` + classStrong + `">$1</strong>`}
	boldLoose = rule{regexp.MustCompile(`\*\*(.*?)\**`), `<strong class="` + classStrong + `">$1</strong>`}

	inlineRules = []rule{
		{regexp.MustCompile(`\*(.*?)\*`), `<em class="` + classEm + `">$1</em>`},
		{regexp.MustCompile("`([^`]+)`"), `<code class="` + classCode + `">$1</code>`},
	}
	// Images are matched before links so "![x](y)" never becomes "!<a>".
	tailRules = []rule{
		{regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`), `<img src="$2" alt="$1" class="` + classImage + `" />`},
		{regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`), `<a href="$2" class="` + classLink + `" target="_blank" rel="noopener noreferrer">$1</a>`},
		{regexp.MustCompile(`(?m)^- (.*)$`), `<li class="` + classListItem + `">` + bullet + `$1</li>`},
		{regexp.MustCompile(`(?m)^\* (.*)$`), `<li class="` + classListItem + `">` + bullet + `$1</li>`},
		{regexp.MustCompile(`(?m)^> (.*)$`), `<blockquote class="` + classBlockquote + `">$1</blockquote>`},
	}
)

const (
	paragraphOpen = `<p class="` + classParagraph + `">`
	fenceMark     = "\x00fence"
)

// Legacy renders source with the ordered substitution pipeline the forum
// originally shipped. Each rule runs over the whole text before the next.
// Fenced blocks are lifted out first and put back last, so nothing inside
// them is rewritten. NUL bytes are dropped from source since they delimit
// the lifted blocks. The result is not sanitized.
func Legacy(source string, opts LegacyOptions) string {
	source = strings.ReplaceAll(source, "\x00", "")
	var fences []string
	text := fenceRe.ReplaceAllStringFunc(source, func(m string) string {
		body := fenceRe.FindStringSubmatch(m)[1]
		fences = append(fences, `<pre class="`+classPre+`"><code class="`+classPreCode+`">`+body+`</code></pre>`)
		return fenceMark + strconv.Itoa(len(fences)-1) + "\x00"
	})

	for _, r := range headingRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	bold := boldTight
	if opts.LooseBold {
		bold = boldLoose
	}
	text = bold.re.ReplaceAllString(text, bold.repl)
	for _, r := range inlineRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	for _, r := range tailRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}

	text = strings.ReplaceAll(text, "\n\n", "</p>"+paragraphOpen)
	text = paragraphOpen + text + "</p>"
	text = strings.ReplaceAll(text, paragraphOpen+"</p>", "")

	for i, f := range fences {
		text = strings.Replace(text, fenceMark+strconv.Itoa(i)+"\x00", f, 1)
	}
	return text
}
