// internal/report/report.go
// Package report renders evaluation results for people and machines. Nothing
// here computes metrics; every value shown comes from the Result.
package report

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/mwiater/qagate/internal/artifact"
	"github.com/mwiater/qagate/internal/evaluation"
	"github.com/mwiater/qagate/internal/util"
)

const (
	maxQueryRunes = 160
	timeLayout    = "2006-01-02 15:04:05 UTC"
)

type metricRow struct {
	Label     string
	Rate      string
	Threshold string
	Badge     string
}

type findingRow struct {
	Metric   string
	Field    string
	Rule     string
	Detail   string
	Advisory bool
}

type fieldRow struct {
	Key   string
	Value string
}

type reportData struct {
	Status         string
	Query          string
	CapturedAt     string
	Queries        []string
	Rows           []metricRow
	Explanation    string
	Recommendation string
	Evidence       string
	AccuracySource string
	Findings       []findingRow
	Fields         []fieldRow
}

// Generate renders the result and its artifact as a Markdown report: overall
// verdict, a per-metric table, an explanation naming each failed metric, the
// findings behind the rates, and the returned result fields.
func Generate(res evaluation.Result, a artifact.Artifact) string {
	out, err := render(buildReportData(res, a))
	if err != nil {
		return fmt.Sprintf("# Analysis Quality Report\n\nreport could not be rendered: %v\n\n%s\n", err, Explain(res))
	}
	return out
}

func render(data reportData) (string, error) {
	var sb strings.Builder
	if err := markdownTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func buildReportData(res evaluation.Result, a artifact.Artifact) reportData {
	summary := Summarize(res)
	data := reportData{
		Status:         summary.Status,
		Query:          util.SingleLine(a.Query()),
		Explanation:    Explain(res),
		Recommendation: summary.Recommendation,
		Evidence:       res.ExecutionEvidence,
		AccuracySource: res.AccuracySource,
	}
	if ts := a.Timestamp(); !ts.IsZero() {
		data.CapturedAt = ts.UTC().Format(timeLayout)
	}
	for _, q := range a.Queries() {
		data.Queries = append(data.Queries, util.TruncateRunes(util.SingleLine(q), maxQueryRunes))
	}
	for _, v := range res.Verdicts() {
		data.Rows = append(data.Rows, metricRow{
			Label:     v.Metric.Label(),
			Rate:      util.FormatPercent(v.Rate),
			Threshold: v.Direction.Symbol() + " " + util.FormatPercent(v.Threshold),
			Badge:     badge(v.Pass),
		})
	}
	for _, f := range res.Findings {
		data.Findings = append(data.Findings, findingRow{
			Metric:   f.Metric.Label(),
			Field:    f.Field,
			Rule:     f.Rule,
			Detail:   f.Detail,
			Advisory: f.Advisory,
		})
	}
	a.Results().Each(func(key string, v artifact.Value) {
		data.Fields = append(data.Fields, fieldRow{Key: key, Value: util.TruncateRunes(v.String(), maxQueryRunes)})
	})
	return data
}

func badge(pass bool) string {
	if pass {
		return "✅ PASS"
	}
	return "❌ FAIL"
}

// Explain returns the free-text explanation of the verdict. When the analysis
// is rejected it names every failed metric with its rate and threshold.
func Explain(res evaluation.Result) string {
	if res.OverallPass {
		return "All four metrics met their thresholds; the analysis is accepted."
	}
	var reasons []string
	for _, v := range res.Verdicts() {
		if v.Pass {
			continue
		}
		bound := "above the maximum of"
		if v.Direction == evaluation.HigherIsBetter {
			bound = "below the minimum of"
		}
		reasons = append(reasons, fmt.Sprintf("%s %s is %s %s",
			strings.ToLower(v.Metric.Label()),
			util.FormatPercent(v.Rate), bound, util.FormatPercent(v.Threshold)))
	}
	msg := "The analysis is rejected: " + strings.Join(reasons, "; ") + "."
	if res.ExecutionEvidence == evaluation.EvidenceNone {
		msg += " No execution logs or generated queries were supplied, so there is no evidence that anything ran."
	}
	return msg
}

func cell(s string) string {
	s = util.SingleLine(s)
	return strings.ReplaceAll(s, "|", `\|`)
}

func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

var markdownTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"cell": cell,
	"code": code,
	"inc":  func(i int) int { return i + 1 },
}).Parse(markdownTemplateText))

const markdownTemplateText = `# Analysis Quality Report

**Verdict:** {{ .Status }}

**Query:** {{ .Query }}
{{ if .CapturedAt }}
**Analysis time:** {{ .CapturedAt }}
{{ end }}{{ if .Queries }}
**Generated queries:**
{{ range $i, $q := .Queries }}
{{ inc $i }}. {{ code $q }}
{{- end }}
{{ end }}
| Metric | Rate | Threshold | Result |
|---|---:|---:|---|
{{- range .Rows }}
| {{ .Label }} | {{ .Rate }} | {{ .Threshold }} | {{ .Badge }} |
{{- end }}

{{ .Explanation }}

**Recommendation:** {{ .Recommendation }}
{{ if .Evidence }}
_Execution evidence: {{ .Evidence }}. Accuracy source: {{ .AccuracySource }}._
{{ end }}
{{- if .Findings }}
## Findings
{{ range .Findings }}
- **{{ .Metric }}**{{ if .Field }} {{ code .Field }}{{ end }} ({{ .Rule }}): {{ .Detail }}{{ if .Advisory }} _(advisory)_{{ end }}
{{- end }}
{{ end }}
## Result fields
{{ if .Fields }}
| Field | Value |
|---|---|
{{- range .Fields }}
| {{ cell .Key }} | {{ cell .Value }} |
{{- end }}
{{ else }}
_No result fields were returned._
{{ end -}}
`
