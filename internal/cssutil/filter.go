// internal/cssutil/filter.go
package cssutil

import (
	"regexp"
	"strings"
)

// The @media and @keyframes patterns stop at the first closing brace, so a
// block with nested rules leaves its tail behind. Good enough for prompt input.
var (
	commentPattern   = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	mediaPattern     = regexp.MustCompile(`@media[^{]+\{[\s\S]+?\}`)
	keyframesPattern = regexp.MustCompile(`@keyframes[^{]+\{[\s\S]+?\}`)
	importantPattern = regexp.MustCompile(`\s*!important`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// Filter strips comments, @media and @keyframes blocks and !important
// markers, then collapses whitespace. Passes repeat until the output is
// stable, so Filter(Filter(x)) == Filter(x) even when a removal splices
// together a new comment opener.
func Filter(css string) string {
	out := filterOnce(css)
	for {
		next := filterOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func filterOnce(css string) string {
	out := commentPattern.ReplaceAllString(css, "")
	out = mediaPattern.ReplaceAllString(out, "")
	out = keyframesPattern.ReplaceAllString(out, "")
	out = importantPattern.ReplaceAllString(out, "")
	out = spacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
