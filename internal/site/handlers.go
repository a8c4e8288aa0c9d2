package site

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/chat-lens/internal/search"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := listReports(s.cfg.ReportsDir)
	if err != nil {
		http.Error(w, "listing reports: "+err.Error(), http.StatusInternalServerError)
		return
	}

	page, err := s.renderer.indexPage(entries)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(chi.URLParam(r, "*"))
	if name == "." || name == ".." || strings.HasPrefix(name, "../") || path.IsAbs(name) {
		http.Error(w, "invalid report path", http.StatusBadRequest)
		return
	}
	if !strings.HasSuffix(name, ".md") {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}

	content, err := os.ReadFile(filepath.Join(s.cfg.ReportsDir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "reading report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	page, err := s.renderer.reportPage(extractTitle(string(content), name), content)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// searchRequest is the JSON body for the /api/search endpoint.
type searchRequest struct {
	Query string `json:"query"`
	Chat  string `json:"chat,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	keywords := strings.Fields(req.Query)
	if len(keywords) == 0 {
		http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
		return
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	results, err := search.Search(s.arc, s.res, search.Options{
		Keywords:   keywords,
		MaxResults: limit,
		Filters:    search.Filters{Chat: req.Chat},
	})
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"search failed: %s"}`, err.Error()), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(results)
}
