package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/maher92-collab/securescan-pro/internal/finding"
)

var categoryTitles = map[finding.Category]string{
	finding.CategoryPortScan:        "Open Ports",
	finding.CategorySecurityHeaders: "HTTP Security Headers",
	finding.CategoryTLSAnalysis:     "TLS/SSL Analysis",
	finding.CategoryVulnerabilities: "Known Vulnerabilities",
}

// EncodePDF renders the report as a narrative PDF document: executive
// summary, severity breakdown, then one section per finding category with
// remediations.
func EncodePDF(r *finding.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "SecureScan Pro - Security Assessment Report", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Executive summary
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Executive Summary", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Target: %s", r.Target), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Scan Type: %s", r.ScanType), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Timestamp: %s", r.Timestamp.Format("2006-01-02 15:04:05 UTC")), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Duration: %.2f seconds", r.DurationSeconds), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Issues: %d", r.Summary.TotalIssues), "", 1, "", false, 0, "")
	pdf.Ln(5)

	// Severity breakdown
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Issue Severity Breakdown", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	rows := []struct {
		label string
		count int
		note  string
	}{
		{"Critical", r.Summary.Critical, "Immediate action required"},
		{"High", r.Summary.High, "Should be addressed soon"},
		{"Medium", r.Summary.Medium, "Address when possible"},
		{"Low", r.Summary.Low, "Minor hardening"},
		{"Info", r.Summary.Info, "Informational"},
	}
	for _, row := range rows {
		pdf.CellFormat(0, 6, fmt.Sprintf("%-10s %3d   %s", row.label, row.count, row.note), "", 1, "", false, 0, "")
	}
	pdf.Ln(5)

	// Per-category sections
	for _, section := range r.Sections {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		title := categoryTitles[section.Category]
		if title == "" {
			title = string(section.Category)
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, title, "", 1, "", false, 0, "")

		for _, f := range section.Findings {
			if pdf.GetY() > 260 {
				pdf.AddPage()
			}
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(0, 6, fmt.Sprintf("[%s] %s", strings.ToUpper(f.Severity.String()), f.Description), "", 1, "", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			if detail := evidenceLine(f); detail != "" {
				pdf.MultiCell(0, 5, detail, "", "", false)
			}
			if f.Remediation != "" {
				pdf.MultiCell(0, 5, "Remediation: "+f.Remediation, "", "", false)
			}
			pdf.Ln(1)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func evidenceLine(f finding.Finding) string {
	switch {
	case f.Port != nil:
		line := fmt.Sprintf("Port %d/%s, service %s", f.Port.Port, f.Port.State, f.Port.Service)
		if f.Port.Version != "" {
			line += " " + f.Port.Version
		}
		if f.Port.Banner != "" {
			banner := f.Port.Banner
			if len(banner) > 60 {
				banner = banner[:60] + "..."
			}
			line += fmt.Sprintf(", banner %q", banner)
		}
		return line
	case f.Header != nil:
		if f.Header.Value != "" {
			return fmt.Sprintf("Header %s is %s (value: %s)", f.Header.Header, f.Header.Status, f.Header.Value)
		}
		return fmt.Sprintf("Header %s is %s", f.Header.Header, f.Header.Status)
	case f.TLS != nil:
		parts := []string{}
		if f.TLS.Protocol != "" {
			parts = append(parts, "protocol "+f.TLS.Protocol)
		}
		if f.TLS.CipherSuite != "" {
			parts = append(parts, "cipher "+f.TLS.CipherSuite)
		}
		if f.TLS.NotAfter != "" {
			parts = append(parts, "valid until "+f.TLS.NotAfter)
		}
		if len(f.TLS.Tags) > 0 {
			parts = append(parts, "tags: "+strings.Join(f.TLS.Tags, ", "))
		}
		return strings.Join(parts, ", ")
	case f.Vulnerability != nil:
		return fmt.Sprintf("%s (CVSS %.1f) affecting %s", f.Vulnerability.CVEID, f.Vulnerability.CVSS, f.Vulnerability.AffectedService)
	}
	return ""
}
