package service

import (
	"strings"
	"unicode"
)

// The scraped feature/cost blocks arrive as one run-on string with no
// delimiter between a label and its value ("Superficie90 m²Piano2").
// SegmentParts splits it at two kinds of boundary:
//
//   - before an uppercase letter or €, unless the previous rune is
//     whitespace or another uppercase letter (a new label starting)
//   - before a digit, unless the previous rune is whitespace, a digit,
//     or one of + . - ( (a numeric value starting)
//
// The heuristic is lossy for text that does not follow the
// "CapitalizedLabel123Value" convention; mis-segmentation there is an
// accepted approximation.
func SegmentParts(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}

	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if isBoundary(runes[i-1], runes[i]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}

func isBoundary(prev, cur rune) bool {
	if (isUpper(cur) || cur == '€') && !unicode.IsSpace(prev) && !isUpper(prev) {
		return true
	}
	if isDigit(cur) && !unicode.IsSpace(prev) && !isDigit(prev) &&
		prev != '+' && prev != '.' && prev != '-' && prev != '(' {
		return true
	}
	return false
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// SegmentPairs pairs consecutive fragments as label→value.
// A trailing label with no fragment after it gets an empty value;
// on duplicate labels the last occurrence wins.
func SegmentPairs(s string) map[string]string {
	return PairFragments(SegmentParts(s))
}

// PairFragments builds the label→value mapping from an already split
// fragment sequence (even index = label, next = value).
func PairFragments(parts []string) map[string]string {
	pairs := make(map[string]string)
	for i := 0; i < len(parts); i += 2 {
		key := strings.TrimSpace(parts[i])
		if key == "" {
			continue
		}
		value := ""
		if i+1 < len(parts) {
			value = strings.TrimSpace(parts[i+1])
		}
		pairs[key] = value
	}
	return pairs
}

// SegmentList splits a badge block into its trimmed, non-empty entries
func SegmentList(s string) []string {
	var out []string
	for _, p := range SegmentParts(s) {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
