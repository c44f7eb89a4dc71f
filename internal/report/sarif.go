package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/runner"
)

// SARIFReporter generates SARIF 2.1.0 reports.
type SARIFReporter struct{}

func (r *SARIFReporter) Format() string { return "sarif" }

// SARIF types
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation struct {
		ArtifactLocation struct {
			URI string `json:"uri"`
		} `json:"artifactLocation"`
		Region *sarifRegion `json:"region,omitempty"`
	} `json:"physicalLocation"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine,omitempty"`
}

func (r *SARIFReporter) Generate(result *runner.Result) (string, error) {
	report := r.buildReport(result)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *SARIFReporter) Write(result *runner.Result, w io.Writer) error {
	report := r.buildReport(result)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (r *SARIFReporter) buildReport(result *runner.Result) *sarifReport {
	report := &sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:    "rulecheck",
					Version: "0.1.0",
				},
			},
			Results: []sarifResult{},
		}},
	}

	seen := map[string]string{}
	for i := range result.Files {
		file := &result.Files[i]
		if file.Report == nil {
			continue
		}

		for _, v := range file.Report.Violations {
			seen[v.RuleID] = v.Title

			res := sarifResult{
				RuleID:  v.RuleID,
				Level:   r.mapLevel(v.Severity),
				Message: sarifMessage{Text: v.Message},
			}

			if v.StartLine > 0 {
				loc := sarifLocation{}
				loc.PhysicalLocation.ArtifactLocation.URI = file.Path
				loc.PhysicalLocation.Region = &sarifRegion{
					StartLine: v.StartLine,
					EndLine:   v.EndLine,
				}
				res.Locations = append(res.Locations, loc)
			}

			report.Runs[0].Results = append(report.Runs[0].Results, res)
		}
	}

	// The driver rule list is built from the rules that actually fired so
	// readers can resolve ruleId without a side channel.
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rule := sarifRule{ID: id, Name: seen[id]}
		rule.Description.Text = seen[id]
		report.Runs[0].Tool.Driver.Rules = append(report.Runs[0].Tool.Driver.Rules, rule)
	}

	return report
}

func (r *SARIFReporter) mapLevel(severity check.Severity) string {
	switch severity {
	case check.SeverityError:
		return "error"
	case check.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
