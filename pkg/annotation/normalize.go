package annotation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reBold        = regexp.MustCompile(`\*\*\s*(\[[^\[\]]+\])\s*\*\*`)
	reDollarParen = regexp.MustCompile(`\s*\$\(\s*\$([HLN])`)
	reSpacedMark  = regexp.MustCompile(`\$\s+(N\d+|[HL]\s*,)`)
	reSpacedNum   = regexp.MustCompile(`\$N\s+(\d)`)
	reLowerID     = regexp.MustCompile(`\$([hln])(\d+|\s*,)`)
)

// Normalize repairs common formatting slips of model output so that the
// annotations can be parsed. Applying it twice yields the same text.
func Normalize(s string) string {
	s = reBold.ReplaceAllString(s, "${1}")
	s = reDollarParen.ReplaceAllString(s, " ($$${1}")
	s = reSpacedMark.ReplaceAllString(s, "$$${1}")
	s = reSpacedNum.ReplaceAllString(s, "$$N${1}")
	s = reLowerID.ReplaceAllStringFunc(s, func(m string) string {
		return "$" + strings.ToUpper(m[1:2]) + m[2:]
	})
	return dedupeAdjacentRelationships(s)
}

// dedupeAdjacentRelationships drops a relationship annotation that repeats
// the previous one verbatim with only whitespace in between.
func dedupeAdjacentRelationships(s string) string {
	matches := reRelationship.FindAllStringIndex(s, -1)
	if len(matches) < 2 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	cursor := 0

	for mi := 0; mi < len(matches); mi++ {
		start, end := matches[mi][0], matches[mi][1]
		b.WriteString(s[cursor:end])
		cursor = end

		next := mi + 1
		for next < len(matches) {
			ns, ne := matches[next][0], matches[next][1]
			if !onlyWhitespace(s[cursor:ns]) || s[ns:ne] != s[start:end] {
				break
			}
			cursor = ne
			next++
		}
		mi = next - 1
	}

	b.WriteString(s[cursor:])
	return b.String()
}

func onlyWhitespace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
