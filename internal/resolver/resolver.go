// Package resolver reconciles the partial, conflicting identity
// signals in a WhatsApp export (JIDs, bare digits, group ids, contact
// books, co-occurrence statistics) into display names with confidence
// scores. Strategies run in a fixed cascade from exact matches down to
// contextual guesses; results memoize once they clear a confidence
// threshold so low-quality guesses stay revisable.
package resolver

import (
	"sort"
	"strings"
	"sync"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/contacts"
)

// DefaultFallback is the display name reported when nothing matches.
// WhatsApp exports from Spanish-locale phones already use it for
// unknown senders, so unresolved and unresolvable look the same.
const DefaultFallback = "Desconocido"

// Options configure a Resolver.
type Options struct {
	// CountryCode prefixes bare short numbers, default "52".
	CountryCode string
	// Fallback is the display name for unresolvable identifiers,
	// default DefaultFallback.
	Fallback string
}

// Resolver is the stateful resolution engine. All methods are safe for
// concurrent use; the indexes build once at construction and mutate
// only through AddManualCorrection and Rebuild.
type Resolver struct {
	mu sync.Mutex

	norm     Normalizer
	fallback string

	contacts map[string]*contacts.Record
	archive  *archive.Archive

	numberIndex      map[string]string
	nameIndex        map[string]string
	chatParticipants map[string][]string
	coOccurrence     map[string]map[string]int

	cache       map[string]Result
	corrections map[string]Result
	chatInfo    map[string]ChatInfo
}

// New builds a resolver over a contact book and an optional chat
// archive. The book is copied shallowly so later merges by the caller
// do not skew an already-built index.
func New(book contacts.Book, arc *archive.Archive, opts Options) *Resolver {
	fallback := opts.Fallback
	if fallback == "" {
		fallback = DefaultFallback
	}
	r := &Resolver{
		norm:        Normalizer{CountryCode: opts.CountryCode},
		fallback:    fallback,
		cache:       map[string]Result{},
		corrections: map[string]Result{},
		chatInfo:    map[string]ChatInfo{},
	}
	r.reset(book, arc)
	return r
}

// Normalizer returns the normalizer the resolver was built with.
func (r *Resolver) Normalizer() Normalizer {
	return r.norm
}

// Fallback returns the configured fallback display name.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Rebuild discards every index, cache and correction and rebuilds from
// fresh tables. Callers that persist corrections replay them after.
func (r *Resolver) Rebuild(book contacts.Book, arc *archive.Archive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = map[string]Result{}
	r.corrections = map[string]Result{}
	r.chatInfo = map[string]ChatInfo{}
	r.reset(book, arc)
}

func (r *Resolver) reset(book contacts.Book, arc *archive.Archive) {
	r.contacts = make(map[string]*contacts.Record, len(book))
	for key, rec := range book {
		r.contacts[key] = rec
	}
	r.archive = arc
	r.buildIndexes()
}

// buildIndexes derives the four lookup structures. Contact keys are
// visited in sorted order so an index collision always resolves the
// same way from run to run.
func (r *Resolver) buildIndexes() {
	r.numberIndex = map[string]string{}
	r.nameIndex = map[string]string{}
	r.chatParticipants = map[string][]string{}
	r.coOccurrence = map[string]map[string]int{}

	for _, key := range sortedRecordKeys(r.contacts) {
		rec := r.contacts[key]
		if rec == nil || rec.DisplayName == "" {
			continue
		}
		if normalized := r.norm.NormalizePhone(key); normalized != "" {
			r.numberIndex[normalized] = key
		}
		if nameKey := r.norm.NormalizeName(rec.DisplayName); nameKey != "" {
			r.nameIndex[nameKey] = key
		}
	}

	if r.archive == nil {
		return
	}
	for _, chatID := range r.archive.ChatIDs() {
		chat, ok := r.archive.Chat(chatID)
		if !ok {
			continue
		}
		participants := chat.Participants()
		r.chatParticipants[chatID] = participants

		// Only chats with more than two participants count as social
		// context; each shared group adds one per pair, not one per
		// message.
		if len(participants) <= 2 {
			continue
		}
		for _, p1 := range participants {
			inner := r.coOccurrence[p1]
			if inner == nil {
				inner = map[string]int{}
				r.coOccurrence[p1] = inner
			}
			for _, p2 := range participants {
				if p1 != p2 {
					inner[p2]++
				}
			}
		}
	}
}

// Resolve finds the best display identity for an identifier. The
// strategy cascade short-circuits on the first qualifying hit: manual
// corrections, the cache, a direct contact-table key, a normalized
// number, a fuzzy digit-suffix match, then chat context. Unresolvable
// identifiers come back with the fallback name and confidence zero.
func (r *Resolver) Resolve(identifier string, ctx Context) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(identifier, ctx)
}

// BatchResolve resolves several identifiers under one lock, sharing
// the cache and indexes across them.
func (r *Resolver) BatchResolve(identifiers []string, ctx Context) map[string]Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make(map[string]Result, len(identifiers))
	for _, id := range identifiers {
		results[id] = r.resolveLocked(id, ctx)
	}
	return results
}

func (r *Resolver) resolveLocked(identifier string, ctx Context) Result {
	if identifier == "" {
		return Result{DisplayName: r.fallback, Phone: r.fallback, Source: SourceEmptyInput}
	}

	if res, ok := r.corrections[identifier]; ok {
		return res
	}
	if res, ok := r.cache[identifier]; ok {
		return res
	}

	result := Result{
		DisplayName: r.fallback,
		Phone:       r.norm.FormatForDisplay(identifier),
		Source:      SourceDefault,
	}

	if rec, ok := r.contacts[identifier]; ok && rec.DisplayName != "" {
		result.DisplayName = rec.DisplayName
		result.Confidence = 100
		result.Source = SourceDirectMatch
		r.cache[identifier] = result
		return result
	}

	normalized := r.norm.NormalizePhone(identifier)
	if normalized != "" {
		if key, ok := r.numberIndex[normalized]; ok {
			if rec, ok := r.contacts[key]; ok && rec.DisplayName != "" {
				result.DisplayName = rec.DisplayName
				result.Confidence = 95
				result.Source = SourceNormalizedMatch
				r.cache[identifier] = result
				return result
			}
		}
	}

	if normalized != "" && !strings.Contains(normalized, "-") {
		if res, ok := r.fuzzyMatch(identifier, normalized); ok {
			return res
		}
	}

	if ctx.ChatID != "" {
		if res, ok := r.contextMatch(identifier, ctx.ChatID); ok && res.Confidence > result.Confidence {
			if res.Confidence > 80 {
				r.cache[identifier] = res
			}
			return res
		}
	}

	if result.Confidence > 50 {
		r.cache[identifier] = result
	}
	return result
}

// fuzzyMatch compares the normalized identifier's digit suffix against
// every non-group entry in the number index. Five shared trailing
// digits score 80, plus two for each further digit until the first
// mismatch. Ties keep the lexicographically smallest indexed number.
// Only confident scores (>85) enter the cache; the result returns
// either way, provided the matched contact carries a display name.
func (r *Resolver) fuzzyMatch(identifier, normalized string) (Result, bool) {
	bestScore := 0
	bestKey := ""
	for _, idxNum := range sortedStringKeys(r.numberIndex) {
		if strings.Contains(idxNum, "-") {
			continue
		}
		if len(normalized) < 5 || len(idxNum) < 5 {
			continue
		}
		if normalized[len(normalized)-5:] != idxNum[len(idxNum)-5:] {
			continue
		}
		score := 80
		for i := 6; i <= min(len(normalized), len(idxNum)); i++ {
			if normalized[len(normalized)-i:] != idxNum[len(idxNum)-i:] {
				break
			}
			score += 2
		}
		if score > bestScore {
			bestScore = score
			bestKey = r.numberIndex[idxNum]
		}
	}
	if bestKey == "" {
		return Result{}, false
	}
	rec, ok := r.contacts[bestKey]
	if !ok || rec.DisplayName == "" {
		return Result{}, false
	}

	res := Result{
		DisplayName: rec.DisplayName,
		Phone:       r.norm.FormatForDisplay(identifier),
		Confidence:  bestScore,
		Source:      SourceFuzzyMatch,
	}
	if bestScore > 85 {
		r.cache[identifier] = res
	}
	return res, true
}

// contextMatch applies the chat-context strategies: in an individual
// chat an unknown sender is probably the chat's own contact (75), and
// failing that, the strongest co-occurring named contact lends its
// name as "Contacto de {name}" (60-70, scaled by shared group count).
func (r *Resolver) contextMatch(identifier, chatID string) (Result, bool) {
	if r.archive != nil && !strings.Contains(chatID, "-") {
		if _, ok := r.archive.Chat(chatID); ok {
			if rec, ok := r.contacts[chatID]; ok && rec.DisplayName != "" {
				return Result{
					DisplayName: rec.DisplayName,
					Phone:       r.norm.FormatForDisplay(identifier),
					Confidence:  75,
					Source:      SourceIndividualChatContext,
				}, true
			}
		}
	}

	co := r.coOccurrence[identifier]
	if len(co) == 0 {
		return Result{}, false
	}
	bestCount := 0
	bestID := ""
	for _, coID := range sortedCountKeys(co) {
		count := co[coID]
		if count <= bestCount {
			continue
		}
		rec, ok := r.contacts[coID]
		if !ok || rec.DisplayName == "" {
			continue
		}
		bestCount = count
		bestID = coID
	}
	if bestID == "" {
		return Result{}, false
	}

	confidence := 60 + bestCount*2
	if confidence > 70 {
		confidence = 70
	}
	return Result{
		DisplayName: "Contacto de " + r.contacts[bestID].DisplayName,
		Phone:       r.norm.FormatForDisplay(identifier),
		Confidence:  confidence,
		Source:      SourceCoOccurrence,
	}, true
}

// AddManualCorrection records an operator-entered name for an
// identifier. The correction wins over every computed strategy, enters
// the cache immediately, and patches the number/name indexes plus the
// contact table so later fuzzy and contextual lookups for other
// identifiers can chain through it. Re-adding the same correction is a
// no-op in outcome.
func (r *Resolver) AddManualCorrection(identifier, displayName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Result{
		DisplayName: displayName,
		Phone:       r.norm.FormatForDisplay(identifier),
		Confidence:  100,
		Source:      SourceManualCorrection,
	}
	r.corrections[identifier] = res
	r.cache[identifier] = res

	if normalized := r.norm.NormalizePhone(identifier); normalized != "" {
		r.numberIndex[normalized] = identifier
	}
	if nameKey := r.norm.NormalizeName(displayName); nameKey != "" {
		r.nameIndex[nameKey] = identifier
	}

	if rec, ok := r.contacts[identifier]; ok {
		if rec.DisplayName != displayName {
			clone := *rec
			clone.DisplayName = displayName
			r.contacts[identifier] = &clone
		}
	} else {
		r.contacts[identifier] = &contacts.Record{
			DisplayName: displayName,
			Name:        displayName,
			Source:      contacts.SourceManualCorrection,
		}
	}
	return true
}

// Corrections returns a copy of the active manual corrections.
func (r *Resolver) Corrections() map[string]Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Result, len(r.corrections))
	for id, res := range r.corrections {
		out[id] = res
	}
	return out
}

func sortedRecordKeys(m map[string]*contacts.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
