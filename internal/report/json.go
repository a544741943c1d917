// Package report renders a finished scan report into its two external
// encodings: structured JSON and a human-oriented PDF document. The Report
// struct is the single source of truth; both encodings are derived from it
// and nothing else.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/maher92-collab/securescan-pro/internal/finding"
)

// EncodeJSON renders the report as indented JSON: one object per finding,
// grouped by category, plus the summary and scan metadata.
func EncodeJSON(r *finding.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}
