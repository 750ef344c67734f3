package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxInputLength caps sanitized field values.
const MaxInputLength = 5000

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleBlockRe   = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	htmlTagRe      = regexp.MustCompile(`(?s)<[^>]*>`)
	jsProtocolRe   = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// SanitizeInput strips markup and script fragments from a submitted form
// value and caps its length. The output is safe to embed in the plain-text
// email body; the HTML body additionally goes through html/template escaping.
func SanitizeInput(input string) string {
	s := scriptBlockRe.ReplaceAllString(input, "")
	s = styleBlockRe.ReplaceAllString(s, "")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = jsProtocolRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if len(s) > MaxInputLength {
		cut := MaxInputLength
		// Back off to a rune boundary so the cap never splits a character
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	return s
}
