// Package transcript stitches overlapping transcription fragments into one text.
//
// Audio is sliced by time, not by utterance, so consecutive slices repeat a few
// words. The functions here drop the repeated words and keep everything else,
// including the original casing and punctuation of the earlier text.
package transcript

import (
	"slices"
	"strings"
	"unicode"
)

// RemoveOverlap returns the part of a that is not repeated at the start of b.
//
// The longest word sequence that is both a suffix of a and a prefix of b is
// found case-insensitively and cut from a. When words remain, they are
// returned joined by single spaces with one trailing space, so the result can
// be concatenated with b directly. When a is consumed entirely the result is
// empty. When nothing overlaps, the trimmed a is returned with one trailing
// space. An empty a yields "" and an empty b yields a unchanged.
func RemoveOverlap(a, b string) string {
	if a == "" || b == "" {
		return a
	}

	words1 := splitWords(lower(a))
	words2 := splitWords(lower(b))

	maxOverlap := 0
	minLength := min(len(words1), len(words2))
	for i := 1; i <= minLength; i++ {
		// Keep scanning: the largest match wins over a shorter coincidental one.
		if slices.Equal(words1[len(words1)-i:], words2[:i]) {
			maxOverlap = i
		}
	}

	if maxOverlap > 0 {
		original := splitWords(a)
		keepCount := len(original) - maxOverlap
		if keepCount > 0 {
			return strings.Join(original[:keepCount], " ") + " "
		}
		return ""
	}

	return strings.TrimSpace(a) + " "
}

// MergeTranscriptions folds fragments left to right, removing the words each
// fragment repeats from the text accumulated before it. Blank fragments are
// skipped. The result is trimmed.
func MergeTranscriptions(fragments []string) string {
	switch len(fragments) {
	case 0:
		return ""
	case 1:
		return strings.TrimSpace(fragments[0])
	}

	merged := strings.TrimSpace(fragments[0])
	for _, fragment := range fragments[1:] {
		current := strings.TrimSpace(fragment)
		if current == "" {
			continue
		}
		merged = RemoveOverlap(merged, current) + current
	}

	return strings.TrimSpace(merged)
}

// Append merges a single new fragment onto an existing transcript.
func Append(existing, fragment string) string {
	return MergeTranscriptions([]string{existing, fragment})
}

// splitWords trims s and splits it on runs of whitespace. A blank string
// yields one empty word rather than none, so a whitespace-only text still
// counts as one word when overlaps are measured.
func splitWords(s string) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	return words
}

// lower lowercases s, writing capital sigma in its final form at the end of a
// word so "ΟΔΟΣ" compares equal to "οδος".
func lower(s string) string {
	if !strings.ContainsRune(s, 'Σ') {
		return strings.ToLower(s)
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if r == 'Σ' && isFinalSigma(runes, i) {
			b.WriteRune('ς')
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// isFinalSigma reports whether the sigma at i follows a cased letter and is
// not followed by one, ignoring case-ignorable runes in between.
func isFinalSigma(runes []rune, i int) bool {
	before := false
	for j := i - 1; j >= 0; j-- {
		if isCaseIgnorable(runes[j]) {
			continue
		}
		before = isCased(runes[j])
		break
	}
	if !before {
		return false
	}

	for j := i + 1; j < len(runes); j++ {
		if isCaseIgnorable(runes[j]) {
			continue
		}
		return !isCased(runes[j])
	}
	return true
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

func isCaseIgnorable(r rune) bool {
	switch r {
	case '\'', '.', ':', '^', '`', '\u00B7', '\u2019':
		return true
	}
	return unicode.In(r, unicode.Mn, unicode.Me, unicode.Cf, unicode.Lm, unicode.Sk)
}
