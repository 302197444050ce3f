package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims the input, drops control characters, collapses runs
// of whitespace into one space and cuts the result to maxLen runes.
func SanitizeString(input string, maxLen int) string {
	fields := strings.FieldsFunc(input, unicode.IsSpace)
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		for _, r := range field {
			if unicode.IsControl(r) {
				continue
			}
			b.WriteRune(r)
		}
	}
	out := b.String()
	if maxLen > 0 && utf8.RuneCountInString(out) > maxLen {
		runes := []rune(out)
		out = strings.TrimSpace(string(runes[:maxLen]))
	}
	return out
}
