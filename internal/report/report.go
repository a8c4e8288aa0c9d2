// Package report renders search results and archive analyses for the
// console and exports them as Markdown or JSON files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/ziadkadry99/chat-lens/internal/analysis"
	"github.com/ziadkadry99/chat-lens/internal/search"
)

// SearchReport is the data rendered into a search report.
type SearchReport struct {
	Title       string
	Keywords    []string
	GeneratedAt time.Time
	Results     *search.Results
}

// AnalysisReport bundles whichever analyses ran. Nil sections are
// omitted from the rendered report.
type AnalysisReport struct {
	Title       string
	GeneratedAt time.Time
	Sentiment   *analysis.SentimentReport
	Topics      *analysis.TopicsReport
	Entities    *analysis.EntitiesReport
	Clusters    []analysis.Cluster
}

// Exporter writes report files into the output directory.
type Exporter struct {
	OutputDir string
}

// NewExporter creates an Exporter that writes to the given directory.
func NewExporter(outputDir string) *Exporter {
	return &Exporter{OutputDir: outputDir}
}

// WriteSearchMarkdown renders a search report and writes it under the
// output directory. Returns the written path.
func (e *Exporter) WriteSearchMarkdown(name string, data *SearchReport) (string, error) {
	return e.writeTemplate(name, searchReportTemplate, data)
}

// WriteAnalysisMarkdown renders an analysis report and writes it under
// the output directory. Returns the written path.
func (e *Exporter) WriteAnalysisMarkdown(name string, data *AnalysisReport) (string, error) {
	return e.writeTemplate(name, analysisReportTemplate, data)
}

// WriteJSON marshals v with indentation and writes it under the output
// directory. Returns the written path.
func (e *Exporter) WriteJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}
	data = append(data, '\n')

	outPath, err := e.outputPath(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", outPath, err)
	}
	return outPath, nil
}

func (e *Exporter) writeTemplate(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", err
	}

	outPath, err := e.outputPath(name)
	if err != nil {
		return "", err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}

	err = tmpl.Execute(f, data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", outPath, err)
	}
	return outPath, nil
}

func (e *Exporter) outputPath(name string) (string, error) {
	dir := e.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
