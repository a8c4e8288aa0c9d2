package search

import (
	"math"
	"strings"
	"testing"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/contacts"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// newFixture builds a two-chat archive: an unnamed individual chat with a
// known contact, and a named chat with an unknown sender.
func newFixture(t *testing.T) (*archive.Archive, *resolver.Resolver) {
	t.Helper()

	arc := archive.New()

	juan := &archive.Chat{ID: "5213147969080"}
	juan.Append("m1", &archive.Message{FromMe: true, Content: "Nos vemos en la playa mañana", Timestamp: 1620000000})
	juan.Append("m2", &archive.Message{SenderID: "5213147969080@s.whatsapp.net", Content: "La playa estuvo increíble", Timestamp: 1620003600})
	juan.Append("m3", &archive.Message{SenderID: "5213147969080@s.whatsapp.net", Content: "te marco al rato", Timestamp: 1620007200})
	arc.Add(juan)

	office := &archive.Chat{ID: "5215550001111", Name: "Oficina"}
	office.Append("w1", &archive.Message{SenderID: "5215550001111@s.whatsapp.net", Content: "Reunión en la oficina", Timestamp: 1620010000})
	office.Append("w2", &archive.Message{FromMe: true, Content: "playa playa playa", Timestamp: 1620020000})
	arc.Add(office)

	book := contacts.Book{
		"5213147969080": {DisplayName: "Juan Pérez", Name: "juan pérez", Phone: "+52 314 796 9080"},
	}
	return arc, resolver.New(book, arc, resolver.Options{})
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     float64
	}{
		{"single whole word", "hola mundo", []string{"hola"}, 53},
		{"case insensitive", "HOLA mundo", []string{"hola"}, 53},
		{"one of two keywords", "vamos a la playa", []string{"playa", "hotel"}, 28},
		{"substring is not a word", "photoshop", []string{"photo"}, 0},
		{"accented letters bound words", "métodos nuevos", []string{"todo"}, 0},
		{"accented keyword matches", "Feliz cumpleaños mamá", []string{"mamá"}, 53},
		{"long text dampens", "hola " + strings.Repeat("x", 95), []string{"hola"}, 45.05},
		{"blank keyword still counts toward the total", "hola", []string{"hola", " "}, 28},
		{"empty text", "", []string{"hola"}, 0},
		{"no keywords", "hola", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := Score(tt.text, tt.keywords)
			if !almostEqual(got, tt.want) {
				t.Errorf("Score(%q, %v) = %v, want %v", tt.text, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestScoreMatchedAndCounts(t *testing.T) {
	score, matched, counts := Score("la playa es la playa", []string{"playa", "la"})

	if !almostEqual(score, 62) {
		t.Errorf("score = %v, want 62", score)
	}
	if len(matched) != 2 || matched[0] != "playa" || matched[1] != "la" {
		t.Errorf("matched = %v, want [playa la]", matched)
	}
	if counts["playa"] != 2 || counts["la"] != 2 {
		t.Errorf("counts = %v, want playa:2 la:2", counts)
	}
}

func TestWholeWordCount(t *testing.T) {
	tests := []struct {
		text string
		kw   string
		want int
	}{
		{"la playa es la playa", "playa", 2},
		{"photoshop", "photo", 0},
		{"métodos", "todo", 0},
		{"mamá dijo", "mamá", 1},
		{"hola, hola.", "hola", 2},
		{"playaplaya playa", "playa", 1},
	}
	for _, tt := range tests {
		if got := wholeWordCount(tt.text, tt.kw); got != tt.want {
			t.Errorf("wholeWordCount(%q, %q) = %d, want %d", tt.text, tt.kw, got, tt.want)
		}
	}
}

func TestNormalizeCriteria(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty defaults to relevance", nil, []string{"relevance"}},
		{"valid kept in order", []string{"date_desc", "sender"}, []string{"date_desc", "sender"}},
		{"unknown dropped", []string{"bogus"}, []string{"relevance"}},
		{"capped before validation", []string{"bogus", "nope", "date_asc", "sender"}, []string{"date_asc"}},
		{"case and spaces", []string{" DATE_ASC "}, []string{"date_asc"}},
		{"at most three", []string{"relevance", "chat", "sender", "date_asc"}, []string{"relevance", "chat", "sender"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCriteria(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeCriteria(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("NormalizeCriteria(%v) = %v, want %v", tt.in, got, tt.want)
					break
				}
			}
		})
	}
}

func TestSortResults(t *testing.T) {
	build := func() []Result {
		return []Result{
			{Sender: "ana", Timestamp: 3, Score: 10, Message: "aa", MatchedKeywords: []string{"a"}},
			{Sender: "Beto", Timestamp: 1, Score: 30, Message: "aaaa", MatchedKeywords: []string{"a", "b"}},
			{Sender: "ana", Timestamp: 2, Score: 20, Message: "a"},
		}
	}

	rs := build()
	SortResults(rs, []string{"sender", "date_asc"})
	if rs[0].Timestamp != 2 || rs[1].Timestamp != 3 || rs[2].Sender != "Beto" {
		t.Errorf("sender+date_asc order = %v, %v, %v", rs[0].Timestamp, rs[1].Timestamp, rs[2].Sender)
	}

	rs = build()
	SortResults(rs, []string{"relevance"})
	if rs[0].Score != 30 || rs[1].Score != 20 || rs[2].Score != 10 {
		t.Errorf("relevance order = %v, %v, %v", rs[0].Score, rs[1].Score, rs[2].Score)
	}

	rs = build()
	SortResults(rs, []string{"length_desc"})
	if rs[0].Message != "aaaa" || rs[2].Message != "a" {
		t.Errorf("length_desc order = %q, %q, %q", rs[0].Message, rs[1].Message, rs[2].Message)
	}

	rs = build()
	SortResults(rs, []string{"keyword_count"})
	if len(rs[0].MatchedKeywords) != 2 || len(rs[2].MatchedKeywords) != 0 {
		t.Errorf("keyword_count order = %v", rs)
	}
}

func TestExtract(t *testing.T) {
	arc, res := newFixture(t)

	results, err := Extract(arc, res, Filters{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(results))
	}

	wantIDs := []string{"m1", "m2", "m3", "w1", "w2"}
	for i, id := range wantIDs {
		if results[i].MessageID != id {
			t.Errorf("results[%d].MessageID = %q, want %q", i, results[i].MessageID, id)
		}
	}

	first := results[0]
	if first.Sender != "Yo" || !first.FromMe {
		t.Errorf("own message sender = %q (from_me %v), want Yo", first.Sender, first.FromMe)
	}
	if first.Phone != resolver.DefaultFallback {
		t.Errorf("own message phone = %q, want %q", first.Phone, resolver.DefaultFallback)
	}
	if first.ChatName != "Juan Pérez" {
		t.Errorf("unnamed chat resolved to %q, want contact name", first.ChatName)
	}

	second := results[1]
	if second.Sender != "Juan Pérez" {
		t.Errorf("contact sender = %q, want Juan Pérez", second.Sender)
	}
	if second.SenderID != "5213147969080@s.whatsapp.net" {
		t.Errorf("sender id = %q", second.SenderID)
	}

	stranger := results[3]
	if stranger.Sender != "5215550001111@s.whatsapp.net" {
		t.Errorf("unknown sender = %q, want the raw identifier", stranger.Sender)
	}
	if stranger.ChatName != "Oficina" {
		t.Errorf("named chat = %q, want stored name", stranger.ChatName)
	}
}

func TestExtractFilters(t *testing.T) {
	arc, res := newFixture(t)

	byChat, err := Extract(arc, res, Filters{Chat: "ofi"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(byChat) != 2 {
		t.Errorf("chat filter: expected 2 messages, got %d", len(byChat))
	}

	bySender, err := Extract(arc, res, Filters{Sender: "juan"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(bySender) != 2 {
		t.Errorf("sender filter: expected 2 messages, got %d", len(bySender))
	}
	for _, r := range bySender {
		if r.FromMe {
			t.Errorf("sender filter %q matched an own message", "juan")
		}
	}

	own, err := Extract(arc, res, Filters{Sender: "yo"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(own) != 2 || !own[0].FromMe || !own[1].FromMe {
		t.Errorf("sender filter yo: got %d results", len(own))
	}

	byPhone, err := Extract(arc, res, Filters{Phone: "314"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(byPhone) != 2 {
		t.Errorf("phone filter: expected 2 messages, got %d", len(byPhone))
	}
}

func TestExtractDateWindow(t *testing.T) {
	arc, res := newFixture(t)

	inRange, err := Extract(arc, res, Filters{StartDate: "2021-05-01", EndDate: "2021-05-06"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(inRange) != 5 {
		t.Errorf("expected all 5 messages in range, got %d", len(inRange))
	}

	after, err := Extract(arc, res, Filters{StartDate: "2021-05-10"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("expected 0 messages after the window, got %d", len(after))
	}

	if _, err := Extract(arc, res, Filters{StartDate: "mayo"}); err == nil {
		t.Error("expected error for malformed start date")
	}
}

func TestSearchRanksByRelevance(t *testing.T) {
	arc, res := newFixture(t)

	got, err := Search(arc, res, Options{Keywords: []string{"playa"}, ContextSize: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(got.Messages))
	}

	if got.Messages[0].MessageID != "w2" || !almostEqual(got.Messages[0].Score, 59) {
		t.Errorf("top hit = %s (%.2f), want w2 at 59", got.Messages[0].MessageID, got.Messages[0].Score)
	}
	// Equal scores keep archive order.
	if got.Messages[1].MessageID != "m1" || got.Messages[2].MessageID != "m2" {
		t.Errorf("tied hits = %s, %s, want m1 then m2", got.Messages[1].MessageID, got.Messages[2].MessageID)
	}
	if !almostEqual(got.Messages[1].Score, 53) {
		t.Errorf("m1 score = %v, want 53", got.Messages[1].Score)
	}

	stats := got.Messages[0].WordStats
	if stats == nil || stats.TotalWords != 3 || stats.TotalKeywords != 3 || !almostEqual(stats.KeywordDensity, 1) {
		t.Errorf("w2 word stats = %+v", stats)
	}

	ctx := got.Messages[0].Context
	if len(ctx) != 1 || ctx[0].Type != "previous" || ctx[0].Message != "Reunión en la oficina" {
		t.Errorf("w2 context = %+v", ctx)
	}

	if len(got.SortedBy) != 1 || got.SortedBy[0] != "relevance" {
		t.Errorf("SortedBy = %v", got.SortedBy)
	}
}

func TestSearchMinScore(t *testing.T) {
	arc, res := newFixture(t)

	got, err := Search(arc, res, Options{Keywords: []string{"playa"}, MinScore: 55})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].MessageID != "w2" {
		t.Errorf("expected only w2 above 55, got %v", got.Messages)
	}
}

func TestSearchTrimsBeforePresentationSort(t *testing.T) {
	arc, res := newFixture(t)

	got, err := Search(arc, res, Options{
		Keywords:   []string{"playa"},
		MaxResults: 2,
		SortBy:     []string{"date_asc"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(got.Messages))
	}
	// Top two by relevance are w2 and m1; date_asc then puts m1 first.
	if got.Messages[0].MessageID != "m1" || got.Messages[1].MessageID != "w2" {
		t.Errorf("order = %s, %s, want m1 then w2", got.Messages[0].MessageID, got.Messages[1].MessageID)
	}
}

func TestSearchRollups(t *testing.T) {
	arc, res := newFixture(t)

	got, err := Search(arc, res, Options{Keywords: []string{"playa"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(got.Contacts) != 1 {
		t.Fatalf("expected 1 contact rollup, got %d", len(got.Contacts))
	}
	contact := got.Contacts[0]
	if contact.DisplayName != "Juan Pérez" || contact.Phone != "5213147969080" {
		t.Errorf("contact rollup = %+v", contact)
	}
	if contact.MessageCount != 1 || !almostEqual(contact.Score, 53) || !almostEqual(contact.AvgScore, 53) {
		t.Errorf("contact scores = %+v", contact)
	}
	if contact.KeywordCounts["playa"] != 1 {
		t.Errorf("contact keyword counts = %v", contact.KeywordCounts)
	}

	if len(got.Chats) != 2 {
		t.Fatalf("expected 2 chat rollups, got %d", len(got.Chats))
	}
	if got.Chats[0].DisplayName != "Juan Pérez" || got.Chats[0].MessageCount != 2 {
		t.Errorf("top chat rollup = %+v", got.Chats[0])
	}
	if !almostEqual(got.Chats[0].Score, 106) {
		t.Errorf("top chat score = %v, want 106", got.Chats[0].Score)
	}
	if got.Chats[1].DisplayName != "Oficina" || !almostEqual(got.Chats[1].Score, 59) {
		t.Errorf("second chat rollup = %+v", got.Chats[1])
	}
}
