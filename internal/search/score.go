package search

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Score rates how well a message matches the keywords, from 0 to 100.
// Only whole-word occurrences count. It also returns the keywords that
// matched, in input order, and the occurrence count per keyword.
func Score(text string, keywords []string) (float64, []string, map[string]int) {
	if text == "" || len(keywords) == 0 {
		return 0, nil, nil
	}

	lower := strings.ToLower(text)
	var matched []string
	counts := make(map[string]int)
	for _, keyword := range keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			continue
		}
		if n := wholeWordCount(lower, kw); n > 0 {
			counts[keyword] = n
			matched = append(matched, keyword)
		}
	}
	if len(counts) == 0 {
		return 0, nil, nil
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	// Short messages that still match are more on-topic than long ones,
	// hence the length factor.
	base := math.Min(100, float64(len(counts))/float64(len(keywords))*100)
	frequency := math.Min(100, float64(total)*10)
	lengthFactor := math.Min(1.0, 50/float64(utf8.RuneCountInString(text)))

	score := (base*0.5 + frequency*0.3) * (0.7 + lengthFactor*0.3)
	return math.Min(100, score), matched, counts
}

// wholeWordCount counts non-overlapping whole-word occurrences of kw in
// text. Both strings must already be lowercased. Word runes include
// Unicode letters and digits, so accented names match correctly.
func wholeWordCount(text, kw string) int {
	count := 0
	start := 0
	for {
		idx := strings.Index(text[start:], kw)
		if idx < 0 {
			return count
		}
		idx += start
		end := idx + len(kw)
		if hasBoundary(text, idx) && hasBoundary(text, end) {
			count++
			start = end
		} else {
			start = idx + 1
		}
	}
}

// hasBoundary reports whether a word boundary sits between byte positions
// i-1 and i: exactly one side is a word rune.
func hasBoundary(text string, i int) bool {
	var before, after bool
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordRune(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func computeWordStats(text string, counts map[string]int) *WordStats {
	words := len(strings.Fields(text))
	total := 0
	for _, n := range counts {
		total += n
	}
	stats := &WordStats{TotalWords: words, TotalKeywords: total}
	if words > 0 {
		stats.KeywordDensity = float64(total) / float64(words)
	}
	return stats
}
