// Package search implements keyword search over a message archive:
// filtered extraction, whole-word relevance scoring, surrounding context
// and stacked sort criteria, plus per-contact and per-chat rollups.
package search

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
)

// Filters narrows which messages Extract considers.
type Filters struct {
	Chat      string // case-insensitive substring of the chat display name
	Sender    string // case-insensitive substring of the sender display name
	Phone     string // substring of the raw sender id
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
}

// Result is one extracted, optionally scored, message.
type Result struct {
	ChatID    string  `json:"chat_id"`
	ChatName  string  `json:"chat_name"`
	MessageID string  `json:"msg_id"`
	Sender    string  `json:"sender"`
	SenderID  string  `json:"sender_id,omitempty"`
	Phone     string  `json:"phone"`
	FromMe    bool    `json:"from_me"`
	Date      string  `json:"date"`
	Timestamp float64 `json:"timestamp"`
	Message   string  `json:"message"`

	Score           float64          `json:"score"`
	MatchedKeywords []string         `json:"matched_keywords,omitempty"`
	KeywordCounts   map[string]int   `json:"keyword_counts,omitempty"`
	WordStats       *WordStats       `json:"word_stats,omitempty"`
	Context         []ContextMessage `json:"context,omitempty"`
}

// WordStats summarizes keyword coverage within one message.
type WordStats struct {
	TotalWords     int     `json:"total_words"`
	TotalKeywords  int     `json:"total_keywords"`
	KeywordDensity float64 `json:"keyword_density"`
}

// ContextMessage is a neighboring message shown around a search hit.
type ContextMessage struct {
	Type    string `json:"type"` // "previous" or "next"
	Sender  string `json:"sender"`
	Phone   string `json:"phone"`
	FromMe  bool   `json:"from_me"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// ContactRelevance aggregates match strength for one sender across hits.
type ContactRelevance struct {
	ID            string         `json:"id"`
	DisplayName   string         `json:"display_name"`
	Phone         string         `json:"phone"`
	Score         float64        `json:"score"`
	AvgScore      float64        `json:"avg_score"`
	MessageCount  int            `json:"message_count"`
	KeywordCounts map[string]int `json:"keyword_counts,omitempty"`
}

// ChatRelevance aggregates match strength for one chat.
type ChatRelevance struct {
	ID            string         `json:"id"`
	DisplayName   string         `json:"display_name"`
	Score         float64        `json:"score"`
	AvgScore      float64        `json:"avg_score"`
	MessageCount  int            `json:"message_count"`
	KeywordCounts map[string]int `json:"keyword_counts,omitempty"`
}

// Options controls a Search pass.
type Options struct {
	Keywords    []string
	MinScore    float64 // hits below this score are dropped
	MaxResults  int     // top-N by relevance; 0 means 20
	ContextSize int     // neighboring messages per side
	SortBy      []string
	Filters     Filters
	Reporter    progress.Reporter
}

// Results bundles scored messages with the relevance rollups.
type Results struct {
	Messages []Result           `json:"results"`
	Contacts []ContactRelevance `json:"contact_relevance,omitempty"`
	Chats    []ChatRelevance    `json:"chat_relevance,omitempty"`
	SortedBy []string           `json:"sort_criteria,omitempty"`
}

// Extract flattens the archive into messages that pass the filters. Text
// falls back content to data to caption; messages with none are skipped.
func Extract(arc *archive.Archive, res *resolver.Resolver, filters Filters) ([]Result, error) {
	startTS, endTS, err := filters.timestamps()
	if err != nil {
		return nil, err
	}

	var out []Result
	for _, chatID := range arc.ChatIDs() {
		chat, ok := arc.Chat(chatID)
		if !ok {
			continue
		}
		chatName := res.ResolveChatInfo(chatID).DisplayName
		if filters.Chat != "" && !strings.Contains(strings.ToLower(chatName), strings.ToLower(filters.Chat)) {
			continue
		}

		for _, msgID := range chat.MessageIDs() {
			msg, ok := chat.Message(msgID)
			if !ok {
				continue
			}
			text := msg.Text()
			if text == "" {
				continue
			}

			ts := msg.Timestamp
			if startTS != 0 && ts < startTS {
				continue
			}
			if endTS != 0 && ts > endTS {
				continue
			}

			display, senderID, phone := senderDisplay(msg, chatID, res)

			if filters.Sender != "" {
				want := strings.ToLower(filters.Sender)
				if msg.FromMe {
					if !strings.Contains(strings.ToLower(resolver.SelfLabel), want) {
						continue
					}
				} else if !strings.Contains(strings.ToLower(display), want) {
					continue
				}
			}
			if filters.Phone != "" && (senderID == "" || !strings.Contains(senderID, filters.Phone)) {
				continue
			}

			out = append(out, Result{
				ChatID:    chatID,
				ChatName:  chatName,
				MessageID: msgID,
				Sender:    display,
				SenderID:  senderID,
				Phone:     phone,
				FromMe:    msg.FromMe,
				Date:      time.Unix(int64(ts), 0).Format(time.DateTime),
				Timestamp: ts,
				Message:   text,
			})
		}
	}
	return out, nil
}

// Context returns up to n content-bearing messages on each side of msgID,
// in chronological order.
func Context(chat *archive.Chat, res *resolver.Resolver, msgID string, n int) []ContextMessage {
	if n <= 0 {
		return nil
	}
	ids := chat.MessageIDs()
	at := -1
	for i, id := range ids {
		if id == msgID {
			at = i
			break
		}
	}
	if at < 0 {
		return nil
	}

	var out []ContextMessage
	add := func(id, typ string) {
		msg, ok := chat.Message(id)
		if !ok || msg.Content == "" {
			return
		}
		display, _, phone := senderDisplay(msg, chat.ID, res)
		out = append(out, ContextMessage{
			Type:    typ,
			Sender:  display,
			Phone:   phone,
			FromMe:  msg.FromMe,
			Date:    time.Unix(int64(msg.Timestamp), 0).Format(time.DateTime),
			Message: msg.Content,
		})
	}
	for i := max(0, at-n); i < at; i++ {
		add(ids[i], "previous")
	}
	for i := at + 1; i < min(len(ids), at+1+n); i++ {
		add(ids[i], "next")
	}
	return out
}

// Search extracts, scores and ranks messages, keeping the top MaxResults
// by relevance before the presentation sort is applied.
func Search(arc *archive.Archive, res *resolver.Resolver, opts Options) (*Results, error) {
	extracted, err := Extract(arc, res, opts.Filters)
	if err != nil {
		return nil, err
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Silent()
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	var (
		hits         []Result
		contactAggs  = make(map[string]*ContactRelevance)
		chatAggs     = make(map[string]*ChatRelevance)
		contactOrder []string
		chatOrder    []string
	)

	reporter.Start(len(extracted), "Searching")
	for i := range extracted {
		reporter.Update(i+1, "")
		hit := extracted[i]

		score, matched, counts := Score(hit.Message, opts.Keywords)
		if len(matched) == 0 || score < opts.MinScore {
			continue
		}
		hit.Score = score
		hit.MatchedKeywords = matched
		hit.KeywordCounts = counts
		hit.WordStats = computeWordStats(hit.Message, counts)
		hits = append(hits, hit)

		if hit.SenderID != "" {
			agg, ok := contactAggs[hit.SenderID]
			if !ok {
				agg = &ContactRelevance{
					ID:            hit.SenderID,
					DisplayName:   hit.Sender,
					Phone:         rawPhone(hit.SenderID),
					KeywordCounts: make(map[string]int),
				}
				contactAggs[hit.SenderID] = agg
				contactOrder = append(contactOrder, hit.SenderID)
			}
			agg.Score += score
			agg.MessageCount++
			for k, n := range counts {
				agg.KeywordCounts[k] += n
			}
		}

		agg, ok := chatAggs[hit.ChatID]
		if !ok {
			agg = &ChatRelevance{
				ID:            hit.ChatID,
				DisplayName:   hit.ChatName,
				KeywordCounts: make(map[string]int),
			}
			chatAggs[hit.ChatID] = agg
			chatOrder = append(chatOrder, hit.ChatID)
		}
		agg.Score += score
		agg.MessageCount++
		for k, n := range counts {
			agg.KeywordCounts[k] += n
		}
	}
	reporter.Finish()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	criteria := NormalizeCriteria(opts.SortBy)
	SortResults(hits, criteria)

	if opts.ContextSize > 0 {
		for i := range hits {
			if chat, ok := arc.Chat(hits[i].ChatID); ok {
				hits[i].Context = Context(chat, res, hits[i].MessageID, opts.ContextSize)
			}
		}
	}

	return &Results{
		Messages: hits,
		Contacts: finalizeContacts(contactAggs, contactOrder),
		Chats:    finalizeChats(chatAggs, chatOrder),
		SortedBy: criteria,
	}, nil
}

// senderDisplay decides how a message's sender is shown: own messages as
// the self label, then the resolved contact name, then the raw sender
// text the export recorded, then the formatted identifier.
func senderDisplay(msg *archive.Message, chatID string, res *resolver.Resolver) (display, senderID, phone string) {
	senderID = msg.SenderID
	if senderID == "" && msg.Sender != "" && msg.Sender != res.Fallback() {
		senderID = msg.Sender
	}

	phone = res.Fallback()
	if senderID != "" {
		phone = res.Normalizer().FormatForDisplay(senderID)
	}

	switch {
	case msg.FromMe:
		display = resolver.SelfLabel
	case senderID == "":
		display = res.Fallback()
	default:
		r := res.Resolve(senderID, resolver.Context{ChatID: chatID})
		switch {
		case r.Confidence > 0 && r.DisplayName != res.Fallback():
			display = r.DisplayName
		case msg.Sender != "" && msg.Sender != res.Fallback():
			display = msg.Sender
		default:
			display = phone
		}
	}
	return display, senderID, phone
}

func finalizeContacts(aggs map[string]*ContactRelevance, order []string) []ContactRelevance {
	out := make([]ContactRelevance, 0, len(order))
	for _, id := range order {
		agg := aggs[id]
		if agg.MessageCount > 0 {
			agg.AvgScore = agg.Score / float64(agg.MessageCount)
		}
		out = append(out, *agg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func finalizeChats(aggs map[string]*ChatRelevance, order []string) []ChatRelevance {
	out := make([]ChatRelevance, 0, len(order))
	for _, id := range order {
		agg := aggs[id]
		if agg.MessageCount > 0 {
			agg.AvgScore = agg.Score / float64(agg.MessageCount)
		}
		out = append(out, *agg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func rawPhone(id string) string {
	if at := strings.Index(id, "@"); at >= 0 {
		return id[:at]
	}
	return id
}

func (f Filters) timestamps() (float64, float64, error) {
	var start, end float64
	if f.StartDate != "" {
		t, err := time.ParseInLocation("2006-01-02", f.StartDate, time.Local)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid start date %q (want YYYY-MM-DD)", f.StartDate)
		}
		start = float64(t.Unix())
	}
	if f.EndDate != "" {
		t, err := time.ParseInLocation("2006-01-02", f.EndDate, time.Local)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end date %q (want YYYY-MM-DD)", f.EndDate)
		}
		end = float64(t.Add(24*time.Hour - time.Second).Unix())
	}
	return start, end, nil
}
