package worker

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"skillatlas/internal/roadmap"
)

// ReportData feeds the analysis report template.
type ReportData struct {
	FileName        string
	Version         int
	GeneratedAt     time.Time
	TargetRole      string
	ExperienceLevel string
	ATSScore        int
	Feedback        []string
	Skills          []string
	Education       []string

	HasPath      bool
	Insight      string
	GrowthFactor string
	Steps        []roadmap.Step
	ScoreHistory []roadmap.ScoreEntry
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
	"date": func(t time.Time) string { return t.UTC().Format("2006-01-02") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  @page { size: A4; margin: 0; }
  body { font-family: Helvetica, Arial, sans-serif; color: #1f2937; margin: 0; padding: 2cm; }
  h1 { font-size: 22px; margin: 0 0 4px; }
  h2 { font-size: 15px; border-bottom: 1px solid #d1d5db; padding-bottom: 4px; margin-top: 24px; }
  .meta { color: #6b7280; font-size: 11px; margin-bottom: 16px; }
  .score { font-size: 40px; font-weight: bold; color: #2563eb; }
  ul { margin: 6px 0; padding-left: 18px; font-size: 12px; }
  table { width: 100%; border-collapse: collapse; font-size: 12px; }
  th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #e5e7eb; }
  th { color: #6b7280; font-weight: normal; }
  .tag { display: inline-block; background: #eff6ff; color: #1d4ed8; border-radius: 4px; padding: 2px 8px; margin: 2px; font-size: 11px; }
</style>
</head>
<body>
  <h1>Resume Analysis Report</h1>
  <div class="meta">{{.FileName}} &middot; version {{.Version}} &middot; generated {{date .GeneratedAt}}</div>

  <h2>ATS Compatibility{{if .TargetRole}} for {{.TargetRole}}{{end}}</h2>
  <div class="score">{{.ATSScore}}<span style="font-size:16px;color:#6b7280">/100</span></div>
  <ul>{{range .Feedback}}<li>{{.}}</li>{{end}}</ul>

  <h2>Profile</h2>
  <table>
    <tr><th>Experience level</th><td>{{.ExperienceLevel}}</td></tr>
    <tr><th>Education</th><td>{{join .Education}}</td></tr>
  </table>

  <h2>Detected Skills</h2>
  <div>{{range .Skills}}<span class="tag">{{.}}</span>{{end}}</div>

  {{if .HasPath}}
  <h2>Learning Path</h2>
  <p style="font-size:12px">{{.Insight}} (growth factor: {{.GrowthFactor}})</p>
  <table>
    <tr><th>#</th><th>Skill</th><th>Level</th><th>Status</th><th>Estimate</th></tr>
    {{range .Steps}}
    <tr><td>{{.Order}}</td><td>{{.Skill}}</td><td>{{.Level}}</td><td>{{.Status}}</td><td>{{.EstimatedTime}}</td></tr>
    {{end}}
  </table>

  <h2>Progress History</h2>
  <table>
    <tr><th>Date</th><th>Completion score</th></tr>
    {{range .ScoreHistory}}
    <tr><td>{{date .Date}}</td><td>{{.Score}}</td></tr>
    {{end}}
  </table>
  {{end}}
</body>
</html>`))

// renderReportHTML produces the printable report document.
func renderReportHTML(data ReportData) (string, error) {
	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute report template: %w", err)
	}
	return sb.String(), nil
}
