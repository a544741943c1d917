package finding

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the ordered issue severity scale used across all scan
// components. The numeric ordering (info < low < medium < high < critical)
// is relied on for sorting and summary bucketing.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"info", "low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeverityInfo || s > SeverityCritical {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity converts a severity name (case-insensitive) to a Severity.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(name, n) {
			return Severity(i), nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// SeverityFromCVSS buckets a CVSS base score using the standard thresholds.
func SeverityFromCVSS(score float64) Severity {
	switch {
	case score >= 9.0:
		return SeverityCritical
	case score >= 7.0:
		return SeverityHigh
	case score >= 4.0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Category identifies which scan component produced a finding. Reports group
// findings by category in the order of Categories.
type Category string

const (
	CategoryPortScan        Category = "port_scan"
	CategorySecurityHeaders Category = "security_headers"
	CategoryTLSAnalysis     Category = "tls_analysis"
	CategoryVulnerabilities Category = "vulnerabilities"
)

// Categories lists all categories in report order.
var Categories = []Category{
	CategoryPortScan,
	CategorySecurityHeaders,
	CategoryTLSAnalysis,
	CategoryVulnerabilities,
}

// HeaderState describes the outcome of a single security header check.
type HeaderState string

const (
	HeaderPresent HeaderState = "present"
	HeaderMissing HeaderState = "missing"
	HeaderWeak    HeaderState = "weak"
)

// PortEvidence is the variant payload for open-port findings.
type PortEvidence struct {
	Port    int    `json:"port"`
	State   string `json:"state"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Banner  string `json:"banner,omitempty"`
}

// HeaderEvidence is the variant payload for HTTP security header findings.
type HeaderEvidence struct {
	Header         string      `json:"header"`
	Value          string      `json:"value,omitempty"`
	Status         HeaderState `json:"status"`
	Recommendation string      `json:"recommendation"`
}

// TLSEvidence is the variant payload for TLS configuration findings.
type TLSEvidence struct {
	Protocol     string   `json:"protocol,omitempty"`
	CipherSuite  string   `json:"cipher_suite,omitempty"`
	NotBefore    string   `json:"not_before,omitempty"`
	NotAfter     string   `json:"not_after,omitempty"`
	TrustedChain bool     `json:"trusted_chain"`
	Tags         []string `json:"tags,omitempty"`
}

// VulnEvidence is the variant payload for CVE correlation findings.
type VulnEvidence struct {
	CVEID           string  `json:"cve_id"`
	CVSS            float64 `json:"cvss"`
	AffectedService string  `json:"affected_service"`
}

// Finding is the unified result record produced by every scan component.
// Exactly one evidence pointer is set, matching Category.
type Finding struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Remediation string   `json:"remediation,omitempty"`

	Port          *PortEvidence   `json:"port_info,omitempty"`
	Header        *HeaderEvidence `json:"header_info,omitempty"`
	TLS           *TLSEvidence    `json:"tls_info,omitempty"`
	Vulnerability *VulnEvidence   `json:"vulnerability_info,omitempty"`
}
