// Package report renders the run outcome into deliverable form. It sits
// outside the analysis core: it only consumes AnalysisResult, the corpus and
// the run summary.
package report

import (
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"aidigest/internal/analysis"
	"aidigest/internal/domain"
)

// Rendered is the assembled report, ready for a ReportSender.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type developmentView struct {
	Title       string
	Category    string
	Importance  string
	KeyTakeaway string
}

type sourceView struct {
	Name       string
	Status     string
	Items      int
	Duplicates int
	Duration   string
}

type stageView struct {
	Name     string
	Status   string
	Attempts int
}

type breakthroughView struct {
	Name         string
	WhyItMatters string
	Maturity     string
}

type sectorView struct {
	Sector        string
	Impact        string
	AffectedRoles []string
}

type reportView struct {
	Date              string
	Outcome           string
	ItemCount         int
	Overview          string
	Significance      string
	Outlook           string
	Developments      []developmentView
	Trends            []string
	Breakthroughs     []breakthroughView
	Sectors           []sectorView
	OverallAssessment string
	Developers        []string
	Businesses        []string
	Researchers       []string
	Predictions       []string
	Sources           []sourceView
	Stages            []stageView
	Warnings          []string
}

// Assemble builds the HTML and plain-text bodies from the run report and
// stage payloads. Missing or degraded stage output leaves its section empty
// rather than failing the render.
func Assemble(run *domain.RunReport, result domain.AnalysisResult) (Rendered, error) {
	view := buildView(run, result)

	var html strings.Builder
	if err := htmlTemplate.Execute(&html, view); err != nil {
		return Rendered{}, fmt.Errorf("render html report: %w", err)
	}

	var text strings.Builder
	if err := textTemplate.Execute(&text, view); err != nil {
		return Rendered{}, fmt.Errorf("render text report: %w", err)
	}

	return Rendered{
		Subject: fmt.Sprintf("Daily AI Digest — %s (%d items)", view.Date, run.ItemCount),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// Summary renders the short side-channel digest.
func Summary(run *domain.RunReport, result domain.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily AI Digest %s: %d items, outcome %s\n",
		run.StartedAt.Format("2006-01-02"), run.ItemCount, run.Outcome)
	for _, dev := range topDevelopments(result, 5) {
		fmt.Fprintf(&b, "- %s [%s]\n", dev.Title, dev.Importance)
	}
	return strings.TrimSpace(b.String())
}

func buildView(run *domain.RunReport, result domain.AnalysisResult) reportView {
	view := reportView{
		Date:              run.StartedAt.Format("January 2, 2006"),
		Outcome:           string(run.Outcome),
		ItemCount:         run.ItemCount,
		Overview:          stageString(result, analysis.StageExecutiveSummary, "overview"),
		Significance:      stageString(result, analysis.StageExecutiveSummary, "significance"),
		Outlook:           stageString(result, analysis.StageExecutiveSummary, "outlook"),
		Developments:      topDevelopments(result, 10),
		Trends:            stageStrings(result, analysis.StageTrends, "trends"),
		Breakthroughs:     breakthroughViews(result),
		Sectors:           sectorViews(result),
		OverallAssessment: stageString(result, analysis.StageIndustryImpact, "overall_assessment"),
		Developers:        stageStrings(result, analysis.StageActionableInsights, "developers"),
		Businesses:        stageStrings(result, analysis.StageActionableInsights, "businesses"),
		Researchers:       stageStrings(result, analysis.StageActionableInsights, "researchers"),
		Predictions:       stageStrings(result, analysis.StagePredictions, "short_term"),
		Warnings:          run.Warnings,
	}

	for _, src := range run.Sources {
		view.Sources = append(view.Sources, sourceView{
			Name:       src.SourceName,
			Status:     string(src.Status),
			Items:      len(src.Items),
			Duplicates: src.Duplicates,
			Duration:   src.Duration.Round(time.Millisecond).String(),
		})
	}

	for _, res := range result.Stages {
		view.Stages = append(view.Stages, stageView{
			Name:     res.Name,
			Status:   string(res.Status),
			Attempts: res.Attempts,
		})
	}
	return view
}

func topDevelopments(result domain.AnalysisResult, limit int) []developmentView {
	res, ok := result.Stages[analysis.StageKeyDevelopments]
	if !ok || res.Payload == nil {
		return nil
	}
	raw, _ := res.Payload["developments"].([]any)

	var devs []developmentView
	for _, entry := range raw {
		if len(devs) == limit {
			break
		}
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		devs = append(devs, developmentView{
			Title:       asString(fields["title"]),
			Category:    asString(fields["category"]),
			Importance:  asString(fields["importance"]),
			KeyTakeaway: asString(fields["key_takeaway"]),
		})
	}
	return devs
}

func breakthroughViews(result domain.AnalysisResult) []breakthroughView {
	res, ok := result.Stages[analysis.StageBreakthroughs]
	if !ok || res.Payload == nil {
		return nil
	}
	raw, _ := res.Payload["breakthroughs"].([]any)

	var views []breakthroughView
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		views = append(views, breakthroughView{
			Name:         asString(fields["name"]),
			WhyItMatters: asString(fields["why_it_matters"]),
			Maturity:     asString(fields["maturity"]),
		})
	}
	return views
}

func sectorViews(result domain.AnalysisResult) []sectorView {
	res, ok := result.Stages[analysis.StageIndustryImpact]
	if !ok || res.Payload == nil {
		return nil
	}
	raw, _ := res.Payload["sectors"].([]any)

	var views []sectorView
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		views = append(views, sectorView{
			Sector:        asString(fields["sector"]),
			Impact:        asString(fields["impact"]),
			AffectedRoles: asStrings(fields["affected_roles"]),
		})
	}
	return views
}

func stageString(result domain.AnalysisResult, stage, field string) string {
	res, ok := result.Stages[stage]
	if !ok || res.Payload == nil {
		return ""
	}
	return asString(res.Payload[field])
}

func stageStrings(result domain.AnalysisResult, stage, field string) []string {
	res, ok := result.Stages[stage]
	if !ok || res.Payload == nil {
		return nil
	}
	raw, _ := res.Payload[field].([]any)
	var out []string
	for _, v := range raw {
		if s := asString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStrings(v any) []string {
	raw, _ := v.([]any)
	var out []string
	for _, entry := range raw {
		if s := asString(entry); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 720px; margin: 0 auto; color: #1c1c1c;">
  <h1 style="border-bottom: 2px solid #4a6fa5;">Daily AI Digest</h1>
  <p>{{.Date}} &middot; {{.ItemCount}} items &middot; outcome: <strong>{{.Outcome}}</strong></p>

  {{if .Overview}}
  <h2>Executive Summary</h2>
  <p>{{.Overview}}</p>
  <p>{{.Significance}}</p>
  <p>{{.Outlook}}</p>
  {{end}}

  {{if .Developments}}
  <h2>Top Developments</h2>
  <ol>
    {{range .Developments}}
    <li><strong>{{.Title}}</strong> ({{.Category}}, {{.Importance}})<br>{{.KeyTakeaway}}</li>
    {{end}}
  </ol>
  {{end}}

  {{if .Trends}}
  <h2>Trends</h2>
  <ul>{{range .Trends}}<li>{{.}}</li>{{end}}</ul>
  {{end}}

  {{if .Breakthroughs}}
  <h2>Breakthroughs</h2>
  <ul>
    {{range .Breakthroughs}}
    <li><strong>{{.Name}}</strong>{{if .Maturity}} ({{.Maturity}}){{end}}<br>{{.WhyItMatters}}</li>
    {{end}}
  </ul>
  {{end}}

  {{if or .Sectors .OverallAssessment}}
  <h2>Industry Impact</h2>
  {{if .OverallAssessment}}<p>{{.OverallAssessment}}</p>{{end}}
  <ul>
    {{range .Sectors}}
    <li><strong>{{.Sector}}</strong>: {{.Impact}}{{if .AffectedRoles}} <em>(roles: {{range $i, $r := .AffectedRoles}}{{if $i}}, {{end}}{{$r}}{{end}})</em>{{end}}</li>
    {{end}}
  </ul>
  {{end}}

  {{if or .Developers .Businesses .Researchers}}
  <h2>Actionable Insights</h2>
  {{if .Developers}}<h3>For Developers</h3><ul>{{range .Developers}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{if .Businesses}}<h3>For Businesses</h3><ul>{{range .Businesses}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{if .Researchers}}<h3>For Researchers</h3><ul>{{range .Researchers}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{end}}

  {{if .Predictions}}
  <h2>What to Watch</h2>
  <ul>{{range .Predictions}}<li>{{.}}</li>{{end}}</ul>
  {{end}}

  <h2>Run Details</h2>
  <table border="0" cellpadding="4">
    <tr><th align="left">Source</th><th align="left">Status</th><th align="left">Items</th><th align="left">Duplicates</th><th align="left">Duration</th></tr>
    {{range .Sources}}
    <tr><td>{{.Name}}</td><td>{{.Status}}</td><td>{{.Items}}</td><td>{{.Duplicates}}</td><td>{{.Duration}}</td></tr>
    {{end}}
  </table>
  <table border="0" cellpadding="4">
    <tr><th align="left">Stage</th><th align="left">Status</th><th align="left">Attempts</th></tr>
    {{range .Stages}}
    <tr><td>{{.Name}}</td><td>{{.Status}}</td><td>{{.Attempts}}</td></tr>
    {{end}}
  </table>

  {{if .Warnings}}
  <h3>Warnings</h3>
  <ul>{{range .Warnings}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
</body>
</html>`))

var textTemplate = texttemplate.Must(texttemplate.New("report").Parse(`DAILY AI DIGEST — {{.Date}}
{{.ItemCount}} items, outcome: {{.Outcome}}
{{if .Overview}}
EXECUTIVE SUMMARY

{{.Overview}}

{{.Significance}}

{{.Outlook}}
{{end}}{{if .Developments}}
TOP DEVELOPMENTS
{{range .Developments}}
- {{.Title}} ({{.Category}}, {{.Importance}})
  {{.KeyTakeaway}}
{{end}}{{end}}{{if .Trends}}
TRENDS
{{range .Trends}}- {{.}}
{{end}}{{end}}{{if .Breakthroughs}}
BREAKTHROUGHS
{{range .Breakthroughs}}
- {{.Name}}{{if .Maturity}} ({{.Maturity}}){{end}}
  {{.WhyItMatters}}
{{end}}{{end}}{{if or .Sectors .OverallAssessment}}
INDUSTRY IMPACT
{{if .OverallAssessment}}
{{.OverallAssessment}}
{{end}}{{range .Sectors}}- {{.Sector}}: {{.Impact}}
{{end}}{{end}}{{if or .Developers .Businesses .Researchers}}
ACTIONABLE INSIGHTS
{{if .Developers}}
For developers:
{{range .Developers}}- {{.}}
{{end}}{{end}}{{if .Businesses}}
For businesses:
{{range .Businesses}}- {{.}}
{{end}}{{end}}{{if .Researchers}}
For researchers:
{{range .Researchers}}- {{.}}
{{end}}{{end}}{{end}}{{if .Predictions}}
WHAT TO WATCH
{{range .Predictions}}- {{.}}
{{end}}{{end}}
RUN DETAILS
{{range .Sources}}source {{.Name}}: {{.Status}}, {{.Items}} items, {{.Duplicates}} duplicates, {{.Duration}}
{{end}}{{range .Stages}}stage {{.Name}}: {{.Status}} after {{.Attempts}} attempts
{{end}}{{if .Warnings}}
WARNINGS
{{range .Warnings}}- {{.}}
{{end}}{{end}}`))
