package search

import (
	"sort"
	"strings"
	"unicode/utf8"
)

var sortKeys = []string{
	"relevance", "date_asc", "date_desc", "sender", "chat",
	"length_asc", "length_desc", "keyword_density", "keyword_count",
}

// SortKeys returns the accepted sort criteria in the order shown to users.
func SortKeys() []string {
	out := make([]string, len(sortKeys))
	copy(out, sortKeys)
	return out
}

func validCriterion(c string) bool {
	switch c {
	case "relevance", "date_asc", "date_desc", "sender", "chat",
		"length_asc", "length_desc", "keyword_density", "keyword_count":
		return true
	}
	return false
}

// NormalizeCriteria caps the list at three entries, drops unknown names
// and falls back to relevance when nothing valid remains.
func NormalizeCriteria(criteria []string) []string {
	if len(criteria) > 3 {
		criteria = criteria[:3]
	}
	var out []string
	for _, c := range criteria {
		c = strings.ToLower(strings.TrimSpace(c))
		if validCriterion(c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = []string{"relevance"}
	}
	return out
}

// SortResults orders results by up to three criteria. Criteria apply from
// last to first with stable sorts, so the first criterion dominates and
// later ones break its ties.
func SortResults(results []Result, criteria []string) {
	for i := len(criteria) - 1; i >= 0; i-- {
		sortBy(results, criteria[i])
	}
}

func sortBy(results []Result, criterion string) {
	switch criterion {
	case "date_asc":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Timestamp < results[j].Timestamp
		})
	case "date_desc":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Timestamp > results[j].Timestamp
		})
	case "sender":
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Sender) < strings.ToLower(results[j].Sender)
		})
	case "chat":
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].ChatName) < strings.ToLower(results[j].ChatName)
		})
	case "length_asc":
		sort.SliceStable(results, func(i, j int) bool {
			return utf8.RuneCountInString(results[i].Message) < utf8.RuneCountInString(results[j].Message)
		})
	case "length_desc":
		sort.SliceStable(results, func(i, j int) bool {
			return utf8.RuneCountInString(results[i].Message) > utf8.RuneCountInString(results[j].Message)
		})
	case "keyword_density":
		sort.SliceStable(results, func(i, j int) bool {
			return keywordDensity(results[i]) > keywordDensity(results[j])
		})
	case "keyword_count":
		sort.SliceStable(results, func(i, j int) bool {
			return len(results[i].MatchedKeywords) > len(results[j].MatchedKeywords)
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}
}

func keywordDensity(r Result) float64 {
	if r.WordStats == nil {
		return 0
	}
	return r.WordStats.KeywordDensity
}
