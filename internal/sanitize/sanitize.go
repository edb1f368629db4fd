// Package sanitize cleans externally supplied text before it is stored on a
// portal or forwarded to an AI provider. Activity descriptions end up in
// report prompts, so markup that could steer a model is stripped here.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/constants"
)

// MaxPortalNameLength bounds portal names accepted from clients.
const MaxPortalNameLength = 64

// MaxPromptLength bounds free-form AI prompts.
const MaxPromptLength = 8000

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	reTripleBacktick    = regexp.MustCompile("```+")
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)
	reSpaces            = regexp.MustCompile(`[ \t]+`)
	reWhitespace        = regexp.MustCompile(`\s+`)
)

// ActivityDescription returns a single-line description: control characters
// and tags removed, whitespace collapsed, at most constants.MaxActivityLength
// bytes plus an ellipsis.
func ActivityDescription(input string) string {
	if input == "" {
		return ""
	}
	s := stripControlChars(input, false)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reTripleBacktick.ReplaceAllString(s, "`")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return truncate(s, constants.MaxActivityLength)
}

// Details cleans recommendation details. Newlines and tabs survive; runs of
// blank lines collapse to one.
func Details(input string) string {
	if input == "" {
		return ""
	}
	s := stripControlChars(input, true)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reTripleBacktick.ReplaceAllString(s, "`")
	s = reSpaces.ReplaceAllString(s, " ")
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	return truncate(s, constants.MaxDetailsLength)
}

// Prompt strips control characters from an AI prompt and bounds its length.
// Markup is kept; callers may legitimately send structured prompts.
func Prompt(input string) string {
	s := strings.TrimSpace(stripControlChars(input, true))
	return truncate(s, MaxPromptLength)
}

// PortalName lowercases a name and keeps only [a-z0-9_-].
func PortalName(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > MaxPortalNameLength {
		s = s[:MaxPortalNameLength]
	}
	return s
}

// stripControlChars drops ASCII control characters and DEL. keepLines
// preserves \n and \t.
func stripControlChars(s string, keepLines bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			if keepLines {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// truncate cuts s to at most max bytes on a rune boundary and appends "...".
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
