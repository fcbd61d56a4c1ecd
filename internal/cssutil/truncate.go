// internal/cssutil/truncate.go
package cssutil

import (
	"strings"
	"unicode/utf8"
)

// Truncate keeps at most maxTokens characters of text and, when the window
// holds a closing brace, cuts right after the last one so the prompt ends on
// a complete rule. Characters stand in for tokens. The result is always a
// byte prefix of text, even when text holds invalid UTF-8.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	end := 0
	for n := 0; n < maxTokens && end < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	window := text[:end]

	if idx := strings.LastIndex(window, "}"); idx >= 0 {
		return window[:idx+1]
	}
	return window
}
