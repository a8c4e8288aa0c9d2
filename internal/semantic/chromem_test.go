package semantic

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/contacts"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
)

// mockEmbedder returns deterministic embeddings based on text content.
// Shared characters contribute to the same vector positions, so similar
// texts produce similar vectors.
type mockEmbedder struct {
	dims int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		vec[(int(ch)+i)%m.dims] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(&mockEmbedder{dims: 64}, 1)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func messageDocs() []Document {
	return []Document{
		{
			ID:      "5213147969080/m1",
			Content: "Nos vemos en la playa mañana",
			Metadata: Metadata{
				ChatID:    "5213147969080",
				ChatName:  "Juan Pérez",
				Sender:    "Yo",
				Date:      "2021-05-03 10:00:00",
				Direction: DirectionSent,
			},
		},
		{
			ID:      "5213147969080/m2",
			Content: "La playa estuvo increíble",
			Metadata: Metadata{
				ChatID:    "5213147969080",
				ChatName:  "Juan Pérez",
				SenderID:  "5213147969080@s.whatsapp.net",
				Sender:    "Juan Pérez",
				Date:      "2021-05-03 11:00:00",
				Direction: DirectionReceived,
			},
		},
		{
			ID:      "5215550001111/w1",
			Content: "Reunión en la oficina a las nueve",
			Metadata: Metadata{
				ChatID:    "5215550001111",
				ChatName:  "Oficina",
				SenderID:  "5215550001111@s.whatsapp.net",
				Sender:    "Oficina",
				Date:      "2021-05-03 12:00:00",
				Direction: DirectionReceived,
			},
		},
	}
}

func TestStoreAddAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Add(ctx, messageDocs()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if count := store.Count(); count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}

	results, err := store.Search(ctx, "vamos a la playa", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || len(results) > 2 {
		t.Fatalf("Search returned %d results, want 1-2", len(results))
	}
	for _, r := range results {
		if r.Similarity == 0 {
			t.Error("result has zero similarity")
		}
	}
}

func TestStoreSearchEmpty(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search(context.Background(), "playa", 5, nil)
	if err != nil {
		t.Fatalf("Search on empty store: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestStoreSearchFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.Add(ctx, messageDocs()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	sent := DirectionSent
	results, err := store.Search(ctx, "playa", 3, &SearchFilter{Direction: &sent})
	if err != nil {
		t.Fatalf("Search with filter: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 sent message", len(results))
	}
	if results[0].Document.ID != "5213147969080/m1" {
		t.Errorf("got %s, want 5213147969080/m1", results[0].Document.ID)
	}

	chatID := "5215550001111"
	results, err = store.Search(ctx, "playa", 3, &SearchFilter{ChatID: &chatID})
	if err != nil {
		t.Fatalf("Search with chat filter: %v", err)
	}
	for _, r := range results {
		if r.Document.Metadata.ChatID != chatID {
			t.Errorf("chat filter leaked document %s", r.Document.ID)
		}
	}
}

func TestStorePersistAndLoad(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbedder{dims: 64}

	store, err := NewStore(embedder, 1)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Add(ctx, messageDocs()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	dir := t.TempDir() + "/cache"
	if err := store.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, err := NewStore(embedder, 1)
	if err != nil {
		t.Fatalf("NewStore for load: %v", err)
	}
	if err := loaded.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if count := loaded.Count(); count != 3 {
		t.Fatalf("Count after load = %d, want 3", count)
	}

	// Exact query text pins the identical document to the top.
	results, err := loaded.Search(ctx, "La playa estuvo increíble", 1, nil)
	if err != nil {
		t.Fatalf("Search after load: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0].Document
	if got.ID != "5213147969080/m2" {
		t.Errorf("top result = %s, want 5213147969080/m2", got.ID)
	}
	if got.Metadata.Sender != "Juan Pérez" || got.Metadata.Direction != DirectionReceived {
		t.Errorf("metadata lost on reload: %+v", got.Metadata)
	}
	if got.Metadata.Date != "2021-05-03 11:00:00" {
		t.Errorf("date lost on reload: %q", got.Metadata.Date)
	}
}

func TestStoreLoadMissingIndex(t *testing.T) {
	store := newTestStore(t)
	if err := store.Load(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error loading from empty directory")
	}
}

func TestIndexerIndexesTextMessages(t *testing.T) {
	ctx := context.Background()

	arc := archive.New()
	juan := &archive.Chat{ID: "5213147969080"}
	juan.Append("m1", &archive.Message{FromMe: true, Content: "Nos vemos en la playa mañana", Timestamp: 1620000000})
	juan.Append("m2", &archive.Message{SenderID: "5213147969080@s.whatsapp.net", Content: "La playa estuvo increíble", Timestamp: 1620003600})
	juan.Append("m3", &archive.Message{SenderID: "5213147969080@s.whatsapp.net", Timestamp: 1620007200}) // media-only
	arc.Add(juan)

	office := &archive.Chat{ID: "5215550001111", Name: "Oficina"}
	office.Append("w1", &archive.Message{SenderID: "5215550001111@s.whatsapp.net", Content: "Reunión en la oficina", Timestamp: 1620010000})
	arc.Add(office)

	book := contacts.Book{
		"5213147969080": {DisplayName: "Juan Pérez", Name: "juan pérez", Phone: "+52 314 796 9080"},
	}
	res := resolver.New(book, arc, resolver.Options{})

	store := newTestStore(t)
	ix := NewIndexer(store, res)

	indexed, err := ix.Index(ctx, arc)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if indexed != 3 {
		t.Errorf("indexed = %d, want 3 (media-only message skipped)", indexed)
	}
	if count := store.Count(); count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}

	results, err := store.Search(ctx, "La playa estuvo increíble", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0].Document
	if got.ID != "5213147969080/m2" {
		t.Errorf("ID = %s, want 5213147969080/m2", got.ID)
	}
	if got.Metadata.ChatName != "Juan Pérez" {
		t.Errorf("ChatName = %q, want Juan Pérez", got.Metadata.ChatName)
	}
	if got.Metadata.Sender != "Juan Pérez" {
		t.Errorf("Sender = %q, want Juan Pérez", got.Metadata.Sender)
	}
	if got.Metadata.SenderID != "5213147969080@s.whatsapp.net" {
		t.Errorf("SenderID = %q", got.Metadata.SenderID)
	}
	if got.Metadata.Direction != DirectionReceived {
		t.Errorf("Direction = %q, want received", got.Metadata.Direction)
	}
	if got.Metadata.Date == "" {
		t.Error("Date empty")
	}

	// Own messages carry the self label and sent direction.
	results, err = store.Search(ctx, "Nos vemos en la playa mañana", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Document.ID != "5213147969080/m1" {
		t.Fatalf("expected m1 on top, got %v", results)
	}
	own := results[0].Document.Metadata
	if own.Sender != "Yo" || own.Direction != DirectionSent {
		t.Errorf("own message metadata = %+v", own)
	}
}

func TestFormatResults(t *testing.T) {
	results := []SearchResult{
		{
			Document: Document{
				ID:      "5213147969080/m2",
				Content: "La playa estuvo increíble",
				Metadata: Metadata{
					ChatName: "Juan Pérez",
					Sender:   "Juan Pérez",
					Date:     "2021-05-03 11:00:00",
				},
			},
			Similarity: 0.9512,
		},
	}

	output := FormatResults(results)
	if !strings.Contains(output, "0.9512") {
		t.Errorf("expected similarity in output, got: %s", output)
	}
	if !strings.Contains(output, "Chat: Juan Pérez") {
		t.Errorf("expected chat line in output, got: %s", output)
	}
	if !strings.Contains(output, "La playa estuvo increíble") {
		t.Errorf("expected content in output, got: %s", output)
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	if got := FormatResults(nil); got != "No results found." {
		t.Errorf("FormatResults(nil) = %q", got)
	}
}

func TestBuildContext(t *testing.T) {
	results := []SearchResult{
		{Document: Document{Content: "primer mensaje", Metadata: Metadata{ChatName: "Oficina", Sender: "Ana", Date: "2021-05-01 09:00:00"}}},
		{Document: Document{Content: "segundo mensaje"}},
	}

	got := BuildContext(results)
	if !strings.Contains(got, "[1] Oficina | Ana | 2021-05-01 09:00:00") {
		t.Errorf("missing header line:\n%s", got)
	}
	if !strings.Contains(got, "[2]\nsegundo mensaje") {
		t.Errorf("missing bare entry:\n%s", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("trailing newline not trimmed")
	}
}
