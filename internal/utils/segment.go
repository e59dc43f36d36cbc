package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that survive NFD decomposition because they are not a base letter
// plus combining marks (Polish ł, Nordic ø etc.).
var asciiFold = map[rune]string{
	'ł': "l",
	'ø': "o",
	'đ': "d",
	'ð': "d",
	'þ': "th",
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// PathSegment converts a raw location name into its stable ASCII path
// segment: diacritics are transliterated to base Latin letters, everything is
// lowercased, runs of non-alphanumeric characters collapse into a single
// underscore and leading/trailing underscores are trimmed.
//
// The function is deterministic and returns "" for names with no usable
// characters; callers treat that as invalid input.
func PathSegment(raw string) string {
	lowered := strings.ToLower(raw)

	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		stripped = lowered
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range stripped {
		if folded, ok := asciiFold[r]; ok {
			b.WriteString(folded)
			lastUnderscore = false
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}

// ChildPath joins a parent path and a segment into the child's materialized
// path. The parent path is empty for top-level locations.
func ChildPath(parentPath, segment string) string {
	if parentPath == "" {
		return segment
	}
	return parentPath + "." + segment
}
