package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/contacts"
	"github.com/ziadkadry99/chat-lens/internal/llm"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
	"github.com/ziadkadry99/chat-lens/internal/search"
	"github.com/ziadkadry99/chat-lens/internal/semantic"
)

type fakeStore struct {
	mu      sync.Mutex
	results []semantic.SearchResult
	queries []string
}

func (f *fakeStore) Add(ctx context.Context, docs []semantic.Document) error { return nil }

func (f *fakeStore) Search(ctx context.Context, query string, limit int, filter *semantic.SearchFilter) ([]semantic.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results, nil
}

func (f *fakeStore) Persist(ctx context.Context, dir string) error { return nil }
func (f *fakeStore) Load(ctx context.Context, dir string) error    { return nil }
func (f *fakeStore) Count() int                                    { return len(f.results) }

type fakeProvider struct {
	mu       sync.Mutex
	response string
	requests []llm.CompletionRequest
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return &llm.CompletionResponse{Content: f.response, Model: req.Model}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) lastRequest(t *testing.T) llm.CompletionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no completion requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

// testServer builds a viewer over a small two-chat archive.
func testServer(t *testing.T, cfg Config, store semantic.VectorStore, provider llm.Provider) *Server {
	t.Helper()

	book := contacts.Book{"5213147969080": {DisplayName: "Juan"}}

	arc := archive.New()
	beach := &archive.Chat{ID: "5213147969080", Name: "Juan ✨"}
	beach.Append("m1", &archive.Message{SenderID: "5213147969080", Sender: "Juan", Content: "vamos a la playa mañana"})
	beach.Append("m2", &archive.Message{FromMe: true, Content: "va, llevo la sombrilla"})
	arc.Add(beach)

	office := &archive.Chat{ID: "111-222", Name: "Oficina"}
	office.Append("o1", &archive.Message{SenderID: "5215550000111", Sender: "Ana", Content: "fotos de la playa en el canal"})
	arc.Add(office)

	res := resolver.New(book, arc, resolver.Options{})

	srv, err := New(cfg, arc, res, store, provider, "gpt-4o-mini")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func TestHealthCheck(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, nil, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir(), AllowAll: true}, nil, nil)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestIndexListsReports(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "search-playa.md")
	if err := os.WriteFile(older, []byte("# Playa Search\n\nhits\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "2026"), 0o755); err != nil {
		t.Fatal(err)
	}
	newer := filepath.Join(dir, "2026", "analysis.md")
	if err := os.WriteFile(newer, []byte("# May Analysis\n\ntopics\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Pin modification times so the newest-first order is deterministic.
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(older, base, base); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(newer, base.Add(time.Hour), base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	srv := testServer(t, Config{ReportsDir: dir}, nil, nil)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"Playa Search",
		"May Analysis",
		`href="/reports/search-playa.md"`,
		`href="/reports/2026/analysis.md"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}

	if strings.Index(body, "May Analysis") > strings.Index(body, "Playa Search") {
		t.Error("expected newest report listed first")
	}
}

func TestIndexNoReports(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: filepath.Join(t.TempDir(), "missing")}, nil, nil)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No reports yet") {
		t.Error("expected empty-state message")
	}
}

func TestReportRendered(t *testing.T) {
	dir := t.TempDir()
	md := "# Trip Report\n\nMessages about **playa** plans.\n\n| Contact | Score |\n| --- | --- |\n| Juan | 12.5 |\n"
	if err := os.WriteFile(filepath.Join(dir, "trip.md"), []byte(md), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := testServer(t, Config{ReportsDir: dir}, nil, nil)

	req := httptest.NewRequest("GET", "/reports/trip.md", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	for _, want := range []string{
		"<title>Trip Report — ChatLens</title>",
		`<h1 id="trip-report">`,
		"<strong>playa</strong>",
		"<table>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestReportNotFound(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, nil, nil)

	req := httptest.NewRequest("GET", "/reports/missing.md", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestReportPathTraversalBlocked(t *testing.T) {
	dir := t.TempDir()
	reports := filepath.Join(dir, "reports")
	if err := os.MkdirAll(reports, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secret.md"), []byte("# Secret\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := testServer(t, Config{ReportsDir: reports}, nil, nil)

	req := httptest.NewRequest("GET", "/reports/../secret.md", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "Secret") {
		t.Error("traversal leaked file content")
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, nil, nil)

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"query":"playa"}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var results search.Results
	if err := json.NewDecoder(w.Body).Decode(&results); err != nil {
		t.Fatalf("decoding results: %v", err)
	}
	if len(results.Messages) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(results.Messages))
	}
	for _, m := range results.Messages {
		if !strings.Contains(m.Message, "playa") {
			t.Errorf("hit without keyword: %q", m.Message)
		}
		if m.Score <= 0 {
			t.Errorf("expected positive score, got %v", m.Score)
		}
	}
}

func TestSearchEndpointChatFilter(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, nil, nil)

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"query":"playa","chat":"oficina"}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var results search.Results
	if err := json.NewDecoder(w.Body).Decode(&results); err != nil {
		t.Fatalf("decoding results: %v", err)
	}
	if len(results.Messages) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(results.Messages))
	}
	if results.Messages[0].ChatName != "Oficina" {
		t.Errorf("expected Oficina hit, got %q", results.Messages[0].ChatName)
	}
}

func TestSearchEndpointBadRequests(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":"   "}`},
		{"invalid json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/search", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}

	req := httptest.NewRequest("GET", "/api/search", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", w.Code)
	}
}

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(srv.Router())
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketAsk(t *testing.T) {
	store := &fakeStore{results: []semantic.SearchResult{
		{
			Document: semantic.Document{
				ID:      "5213147969080/m1",
				Content: "vamos a la playa mañana",
				Metadata: semantic.Metadata{
					ChatID:    "5213147969080",
					ChatName:  "Juan ✨",
					Sender:    "Juan",
					Date:      "2021-05-02 10:00:00",
					Direction: semantic.DirectionReceived,
				},
			},
			Similarity: 0.91,
		},
		{
			Document: semantic.Document{
				ID:      "5213147969080/m2",
				Content: "va, llevo la sombrilla",
				Metadata: semantic.Metadata{
					ChatID:    "5213147969080",
					ChatName:  "Juan ✨",
					Sender:    "Yo",
					Date:      "2021-05-02 10:01:00",
					Direction: semantic.DirectionSent,
				},
			},
			Similarity: 0.83,
		},
	}}
	provider := &fakeProvider{response: "Juan propuso ir a la playa y tú ofreciste llevar la sombrilla."}

	srv := testServer(t, Config{ReportsDir: t.TempDir()}, store, provider)
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(askRequest{Type: "ask", Content: "¿quién propuso ir a la playa?"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp askResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	if resp.Type != "answer" {
		t.Fatalf("expected answer, got %q: %s", resp.Type, resp.Content)
	}
	if resp.Content != provider.response {
		t.Errorf("answer = %q", resp.Content)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp.Sources))
	}
	if resp.Sources[0].Chat != "Juan ✨" || resp.Sources[0].Sender != "Juan" {
		t.Errorf("first source = %+v", resp.Sources[0])
	}
	if resp.Sources[0].Similarity < 0.9 {
		t.Errorf("similarity = %v", resp.Sources[0].Similarity)
	}
	if resp.Sources[0].Excerpt != "vamos a la playa mañana" {
		t.Errorf("excerpt = %q", resp.Sources[0].Excerpt)
	}

	last := provider.lastRequest(t)
	if len(last.Messages) != 2 || last.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("unexpected prompt shape: %+v", last.Messages)
	}
	prompt := last.Messages[1].Content
	if !strings.Contains(prompt, "¿quién propuso ir a la playa?") {
		t.Error("prompt missing the question")
	}
	if !strings.Contains(prompt, "vamos a la playa mañana") {
		t.Error("prompt missing the retrieved messages")
	}
}

func TestWebSocketAskNoResults(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, &fakeStore{}, &fakeProvider{response: "unused"})
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(askRequest{Type: "ask", Content: "¿hablamos de esquiar?"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp askResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	if resp.Type != "answer" {
		t.Fatalf("expected answer, got %q", resp.Type)
	}
	if !strings.Contains(resp.Content, "No matching messages") {
		t.Errorf("content = %q", resp.Content)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(resp.Sources))
	}
}

func TestWebSocketNoStore(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, nil, &fakeProvider{})
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(askRequest{Type: "ask", Content: "hola"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp askResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	if resp.Type != "error" {
		t.Errorf("expected error type, got %q", resp.Type)
	}
	if !strings.Contains(resp.Content, "semantic index not loaded") {
		t.Errorf("expected index error, got %q", resp.Content)
	}
}

func TestWebSocketNoProvider(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, &fakeStore{}, nil)
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(askRequest{Type: "ask", Content: "hola"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp askResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	if resp.Type != "error" {
		t.Errorf("expected error type, got %q", resp.Type)
	}
	if !strings.Contains(resp.Content, "LLM provider not configured") {
		t.Errorf("expected provider error, got %q", resp.Content)
	}
}

func TestWebSocketEmptyContent(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, &fakeStore{}, &fakeProvider{})
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(askRequest{Type: "ask", Content: ""}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp askResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	if resp.Type != "error" {
		t.Errorf("expected error type, got %q", resp.Type)
	}
	if !strings.Contains(resp.Content, "content is required") {
		t.Errorf("expected content error, got %q", resp.Content)
	}
}

func TestWebSocketUnknownType(t *testing.T) {
	srv := testServer(t, Config{ReportsDir: t.TempDir()}, &fakeStore{}, &fakeProvider{})
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(askRequest{Type: "sing", Content: "hola"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp askResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	if resp.Type != "error" {
		t.Errorf("expected error type, got %q", resp.Type)
	}
	if !strings.Contains(resp.Content, "unknown message type") {
		t.Errorf("expected unknown type error, got %q", resp.Content)
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		relPath string
		want    string
	}{
		{"heading", "# Trip Report\n\nbody", "trip.md", "Trip Report"},
		{"heading after blank lines", "\n\n# Deep Dive\n", "x.md", "Deep Dive"},
		{"no heading", "just text\n", "reports/2026/mayo.md", "mayo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTitle(tt.content, tt.relPath); got != tt.want {
				t.Errorf("extractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
