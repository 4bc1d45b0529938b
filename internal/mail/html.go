package mail

import (
	"regexp"
	"strings"
)

var (
	htmlHiddenRe = regexp.MustCompile(`(?is)<(script|style|head)[^>]*>.*?</(script|style|head)>`)
	htmlBreakRe  = regexp.MustCompile(`(?i)<(br|/p|/div|/tr|/li|/h[1-6])[^>]*>`)
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// htmlEntities covers the entities that actually show up in marketing and
// notification mail. Anything rarer passes through unchanged.
var htmlEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&mdash;", "—",
	"&ndash;", "–",
	"&copy;", "©",
)

// StripHTML reduces an HTML body to readable text. It is not a full HTML
// parser: scripts, styles and tags are removed, block-level closers become
// newlines, and common entities are decoded. Good enough for feeding email
// bodies to text analysis.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}

	text := htmlHiddenRe.ReplaceAllString(html, "")
	text = htmlBreakRe.ReplaceAllString(text, "\n")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = htmlEntities.Replace(text)

	// Collapse horizontal whitespace per line, keep paragraph breaks.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
