package site

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// renderer converts report markdown into standalone HTML pages.
type renderer struct {
	md    goldmark.Markdown
	page  *template.Template
	index *template.Template
}

func newRenderer() (*renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	index, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}

	return &renderer{md: md, page: page, index: index}, nil
}

// pageData holds the data passed to the HTML template for each page.
type pageData struct {
	Title   string
	Content template.HTML
}

// reportPage converts one markdown report into a full HTML page.
func (r *renderer) reportPage(title string, markdown []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := r.md.Convert(markdown, &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	return r.renderPage(title, template.HTML(body.String()))
}

// indexPage builds the report listing page.
func (r *renderer) indexPage(entries []reportEntry) ([]byte, error) {
	var body bytes.Buffer
	if err := r.index.Execute(&body, entries); err != nil {
		return nil, fmt.Errorf("rendering index: %w", err)
	}
	return r.renderPage("Reports", template.HTML(body.String()))
}

func (r *renderer) renderPage(title string, content template.HTML) ([]byte, error) {
	var out bytes.Buffer
	if err := r.page.Execute(&out, pageData{Title: title, Content: content}); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return out.Bytes(), nil
}

// reportEntry is one markdown report found under the reports directory.
type reportEntry struct {
	Path     string // slash-separated, relative to the reports directory
	Title    string
	Modified time.Time
}

// listReports collects the markdown reports under dir, newest first. A
// missing directory yields an empty listing.
func listReports(dir string) ([]reportEntry, error) {
	var entries []reportEntry
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		title := strings.TrimSuffix(path.Base(rel), ".md")
		if content, err := os.ReadFile(p); err == nil {
			title = extractTitle(string(content), rel)
		}
		entries = append(entries, reportEntry{Path: rel, Title: title, Modified: info.ModTime()})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walking reports dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Modified.Equal(entries[j].Modified) {
			return entries[i].Modified.After(entries[j].Modified)
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// extractTitle pulls the first # heading from markdown content, or falls
// back to the file name.
func extractTitle(content, relPath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	return strings.TrimSuffix(path.Base(relPath), ".md")
}
