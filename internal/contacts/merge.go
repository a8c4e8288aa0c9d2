package contacts

import "strings"

// MergeStats summarizes what a merge changed.
type MergeStats struct {
	Added   int
	Updated int
	Renamed int
}

// Merge folds src into dst in place. New keys are added as-is. For
// keys already present, the incoming name only wins when the existing
// display name is empty, still equals the key itself, or equals the
// placeholder name; a name someone already curated is never clobbered.
// Provenance always concatenates so a record remembers every source
// that contributed to it.
func Merge(dst, src Book, placeholder string) MergeStats {
	var stats MergeStats
	for _, key := range src.Keys() {
		incoming := src[key]
		existing, ok := dst[key]
		if !ok {
			dst[key] = incoming
			stats.Added++
			continue
		}

		if existing.DisplayName == "" || existing.DisplayName == key || existing.DisplayName == placeholder {
			existing.DisplayName = incoming.DisplayName
			existing.Name = incoming.Name
			stats.Renamed++
		}

		from := existing.Source
		if from == "" {
			from = "unknown"
		}
		existing.Source = from + "," + incoming.Source
		stats.Updated++
	}
	return stats
}

// FindMatching locates the record for a phone number, trying the raw
// key, then the digits-only key, then digit suffixes of length 8, 9
// and 10 against every key in the book. Shorter suffixes go first so
// numbers that differ only in country prefix still meet.
func (b Book) FindMatching(phone string) (string, *Record, bool) {
	if phone == "" {
		return "", nil, false
	}
	if rec, ok := b[phone]; ok {
		return phone, rec, true
	}

	clean := DigitsOnly(phone)
	if clean == "" {
		return "", nil, false
	}
	if rec, ok := b[clean]; ok {
		return clean, rec, true
	}

	for _, length := range []int{8, 9, 10} {
		if len(clean) < length {
			continue
		}
		suffix := clean[len(clean)-length:]
		for _, key := range b.Keys() {
			if strings.HasSuffix(key, suffix) {
				return key, b[key], true
			}
		}
	}
	return "", nil, false
}
