package report

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// templateFuncs provides helper functions for the markdown templates.
var templateFuncs = template.FuncMap{
	"join": func(items []string) string {
		return strings.Join(items, ", ")
	},
	"score": func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	},
	"polarity": func(v float64) string {
		return fmt.Sprintf("%+.2f", v)
	},
	"cohesion": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"oneline": func(s string) string {
		s = strings.ReplaceAll(s, "\n", " ")
		s = strings.ReplaceAll(s, "\r", "")
		return strings.TrimSpace(s)
	},
	"inc": func(i int) int {
		return i + 1
	},
	"date": func(t time.Time) string {
		return t.Format(time.DateTime)
	},
}

const searchReportTemplate = `# {{ .Title }}

Generated: {{ date .GeneratedAt }}
{{ if .Keywords }}Keywords: {{ join .Keywords }}
{{ end }}
## Messages ({{ len .Results.Messages }})
{{ range $i, $r := .Results.Messages }}
### {{ inc $i }}. {{ if .ChatName }}{{ .ChatName }}{{ else }}{{ .ChatID }}{{ end }} — {{ .Date }}

- From: {{ .Sender }}{{ if and .Phone (ne .Phone .Sender) }} ({{ .Phone }}){{ end }}
- Score: {{ score .Score }}
{{- if .MatchedKeywords }}
- Keywords: {{ join .MatchedKeywords }}
{{- end }}

> {{ oneline .Message }}
{{ end }}
{{ if .Results.Contacts }}## Contact Relevance

| Contact | Score | Avg | Messages |
|---------|-------|-----|----------|
{{ range .Results.Contacts }}| {{ .DisplayName }}{{ if and .Phone (ne .Phone .DisplayName) }} ({{ .Phone }}){{ end }} | {{ score .Score }} | {{ score .AvgScore }} | {{ .MessageCount }} |
{{ end }}
{{- end }}
{{ if .Results.Chats }}## Chat Relevance

| Chat | Score | Avg | Messages |
|------|-------|-----|----------|
{{ range .Results.Chats }}| {{ .DisplayName }} | {{ score .Score }} | {{ score .AvgScore }} | {{ .MessageCount }} |
{{ end }}
{{- end }}
`

const analysisReportTemplate = `# {{ .Title }}

Generated: {{ date .GeneratedAt }}
{{ if .Sentiment }}
## Sentiment

| Chat | Sentiment | Polarity | Sampled |
|------|-----------|----------|---------|
{{ range .Sentiment.Chats }}| {{ .ChatName }} | {{ .Sentiment }} | {{ polarity .Polarity }} | {{ .Sampled }} |
{{ end }}
{{- end }}
{{ if .Topics }}
## Topics
{{ range .Topics.Topics }}
### {{ .Label }} ({{ .Chats }} chats)
{{ range .Examples }}
> {{ oneline . }}
{{ end }}
{{- end }}
{{- end }}
{{ if .Entities }}
## Entities
{{ if .Entities.People }}
### People

| Name | Chats |
|------|-------|
{{ range .Entities.People }}| {{ .Name }} | {{ .Count }} |
{{ end }}
{{- end }}
{{ if .Entities.Places }}
### Places

| Name | Chats |
|------|-------|
{{ range .Entities.Places }}| {{ .Name }} | {{ .Count }} |
{{ end }}
{{- end }}
{{ if .Entities.Organizations }}
### Organizations

| Name | Chats |
|------|-------|
{{ range .Entities.Organizations }}| {{ .Name }} | {{ .Count }} |
{{ end }}
{{- end }}
{{- end }}
{{ if .Clusters }}
## Clusters
{{ range .Clusters }}
### Cluster {{ .ID }} ({{ .Size }} messages, cohesion {{ cohesion .Cohesion }})
{{ range .Examples }}
> {{ oneline . }}
{{ end }}
{{- end }}
{{- end }}
`
