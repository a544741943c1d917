package finding

import (
	"sort"
	"time"
)

// Summary holds per-severity issue counts for a report. Info-level findings
// are counted separately and excluded from TotalIssues.
type Summary struct {
	TotalIssues int `json:"total_issues"`
	Critical    int `json:"critical"`
	High        int `json:"high"`
	Medium      int `json:"medium"`
	Low         int `json:"low"`
	Info        int `json:"info"`
}

// Count returns the number of findings recorded at the given severity.
func (s Summary) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	default:
		return s.Info
	}
}

func (s *Summary) add(sev Severity) {
	switch sev {
	case SeverityCritical:
		s.Critical++
	case SeverityHigh:
		s.High++
	case SeverityMedium:
		s.Medium++
	case SeverityLow:
		s.Low++
	default:
		s.Info++
		return
	}
	s.TotalIssues++
}

// Section groups the findings of one category.
type Section struct {
	Category Category  `json:"category"`
	Findings []Finding `json:"findings"`
}

// Report is the aggregated output of one scan job. Sections appear in the
// fixed category order; findings within a section are sorted by severity,
// critical first, preserving component output order among equals.
type Report struct {
	Target          string    `json:"target"`
	ScanType        string    `json:"scan_type"`
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds float64   `json:"duration_seconds"`
	Summary         Summary   `json:"summary"`
	Sections        []Section `json:"results"`
}

// Aggregate merges component outputs into the grouped section list and
// computes the severity summary. It performs no I/O and is deterministic for
// identical inputs; callers fill in the report metadata fields afterwards.
func Aggregate(outputs ...[]Finding) Report {
	var report Report

	byCategory := make(map[Category][]Finding, len(Categories))
	for _, findings := range outputs {
		for _, f := range findings {
			byCategory[f.Category] = append(byCategory[f.Category], f)
			report.Summary.add(f.Severity)
		}
	}

	for _, cat := range Categories {
		findings, ok := byCategory[cat]
		if !ok {
			continue
		}
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Severity > findings[j].Severity
		})
		report.Sections = append(report.Sections, Section{Category: cat, Findings: findings})
	}

	return report
}
