package site

// pageTemplate is the Go html/template wrapping every rendered page.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} — ChatLens</title>
  <style>` + pageCSS + `</style>
</head>
<body>
  <header class="top-bar">
    <a href="/" class="brand">ChatLens</a>
    <span class="page-title">{{.Title}}</span>
  </header>
  <main class="content">
    <article class="page-content">
      {{.Content}}
    </article>
  </main>
</body>
</html>`

// indexTemplate renders the report listing injected into pageTemplate.
const indexTemplate = `<h1>Reports</h1>
{{if .}}<ul class="report-list">
{{range .}}  <li><a href="/reports/{{.Path}}">{{.Title}}</a><span class="report-meta">{{.Modified.Format "2006-01-02 15:04"}}</span></li>
{{end}}</ul>
{{else}}<p class="empty">No reports yet. Export a search or analysis to markdown first.</p>
{{end}}`

// pageCSS is the stylesheet inlined into every page.
const pageCSS = `
:root {
  --bg: #ffffff;
  --bg-secondary: #f8f9fa;
  --text: #212529;
  --text-muted: #868e96;
  --border: #dee2e6;
  --accent: #228be6;
  --code-bg: #f1f3f5;
  --content-max-width: 900px;
}

@media (prefers-color-scheme: dark) {
  :root {
    --bg: #1a1b26;
    --bg-secondary: #1f2030;
    --text: #c0caf5;
    --text-muted: #565f89;
    --border: #292e42;
    --accent: #7aa2f7;
    --code-bg: #1f2030;
  }
}

*, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }

body {
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
  color: var(--text);
  background: var(--bg);
  line-height: 1.7;
}

.top-bar {
  display: flex;
  align-items: baseline;
  gap: 16px;
  padding: 12px 24px;
  border-bottom: 1px solid var(--border);
  background: var(--bg-secondary);
}

.brand {
  font-weight: 700;
  color: var(--accent);
  text-decoration: none;
}

.page-title { color: var(--text-muted); font-size: 0.9rem; }

.content {
  max-width: var(--content-max-width);
  margin: 0 auto;
  padding: 32px 24px 64px;
}

.page-content h1, .page-content h2, .page-content h3 {
  margin: 1.2em 0 0.5em;
  line-height: 1.3;
}

.page-content h1 { font-size: 1.8rem; }
.page-content h2 { font-size: 1.4rem; border-bottom: 1px solid var(--border); padding-bottom: 0.3em; }
.page-content p, .page-content ul, .page-content ol { margin-bottom: 1em; }
.page-content li { margin-left: 1.5em; }

.page-content blockquote {
  border-left: 3px solid var(--accent);
  padding: 4px 16px;
  margin-bottom: 1em;
  color: var(--text-muted);
  background: var(--bg-secondary);
}

.page-content code {
  font-family: "SF Mono", Consolas, Menlo, monospace;
  font-size: 0.88em;
  background: var(--code-bg);
  padding: 2px 5px;
  border-radius: 4px;
}

.page-content pre { margin-bottom: 1em; padding: 12px; border-radius: 6px; overflow-x: auto; }
.page-content pre code { background: none; padding: 0; }

.page-content table {
  border-collapse: collapse;
  margin-bottom: 1em;
  width: 100%;
}

.page-content th, .page-content td {
  border: 1px solid var(--border);
  padding: 6px 12px;
  text-align: left;
}

.page-content th { background: var(--bg-secondary); }
.page-content tr:nth-child(even) td { background: var(--bg-secondary); }

.report-list { list-style: none; }

.report-list li {
  display: flex;
  justify-content: space-between;
  align-items: baseline;
  padding: 10px 4px;
  border-bottom: 1px solid var(--border);
}

.report-list a { color: var(--accent); text-decoration: none; }
.report-list a:hover { text-decoration: underline; }
.report-meta { color: var(--text-muted); font-size: 0.85rem; }

.empty { color: var(--text-muted); }
`
