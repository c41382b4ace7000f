package annotation

import (
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

// Sentence is an exact substring of a text together with its range.
type Sentence struct {
	Text  string
	Range common.OriginRange
}

// SplitSentences splits text into sentences. A sentence ends at ".", "!" or
// "?" outside of annotations, or at a line break. A "." directly followed by
// a letter or digit, as in "3.5" or "example.com", and numeric listings such
// as "1. First" are not split. Surrounding whitespace is not part of a
// sentence.
func SplitSentences(text string) []Sentence {
	var sentences []Sentence
	start := 0
	depth := 0

	flush := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
		s := start + len(raw) - len(trimmed)
		trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
		if trimmed != "" {
			sentences = append(sentences, Sentence{
				Text:  trimmed,
				Range: common.OriginRange{Start: s, End: s + len(trimmed) - 1},
			})
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '\n':
			flush(i + 1)
			depth = 0
		case '.', '!', '?':
			if depth > 0 {
				continue
			}
			if c == '.' && i+1 < len(text) && isAlnum(text[i+1]) {
				continue
			}
			if c == '.' && i > 0 && isDigit(text[i-1]) && i+1 < len(text) && text[i+1] == ' ' && listingStart(text, i-1) {
				continue
			}

			j := i + 1
			for j < len(text) && (text[j] == '.' || text[j] == '!' || text[j] == '?') {
				j++
			}
			for j < len(text) && (text[j] == '"' || text[j] == '\'' || text[j] == ')' || text[j] == '}') {
				j++
			}
			flush(j)
			i = j - 1
		}
	}

	if start < len(text) {
		flush(len(text))
	}

	return sentences
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// listingStart reports whether the number ending at i starts a line.
func listingStart(text string, i int) bool {
	for i >= 0 && isDigit(text[i]) {
		i--
	}
	for i >= 0 && (text[i] == ' ' || text[i] == '\t') {
		i--
	}
	return i < 0 || text[i] == '\n'
}
