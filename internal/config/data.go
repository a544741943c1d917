package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maher92-collab/securescan-pro/internal/finding"
)

// CVEEntry is one row of the fingerprint→CVE lookup table. Introduced and
// FixedIn bound the affected version range; an empty Introduced means "all
// versions before FixedIn", an empty FixedIn means "not fixed".
type CVEEntry struct {
	ID          string  `yaml:"id"`
	CVSS        float64 `yaml:"cvss"`
	Introduced  string  `yaml:"introduced,omitempty"`
	FixedIn     string  `yaml:"fixed_in,omitempty"`
	Description string  `yaml:"description"`
	Remediation string  `yaml:"remediation"`
}

// HeaderPolicy describes one entry of the security header checklist.
type HeaderPolicy struct {
	Name            string
	MissingSeverity finding.Severity
	Recommendation  string
}

// ScanData bundles the read-only tables consumed by the scan components:
// per-mode port sets, the header checklist with its per-header severity
// table, and the CVE lookup table keyed by normalized service name.
type ScanData struct {
	QuickPorts []int
	DeepPorts  []int
	Headers    []HeaderPolicy
	CVEs       map[string][]CVEEntry
}

// scanDataFile is the YAML override format for ScanData.
type scanDataFile struct {
	PortSets struct {
		Quick     []int `yaml:"quick"`
		DeepFrom  int   `yaml:"deep_from"`
		DeepTo    int   `yaml:"deep_to"`
		DeepExtra []int `yaml:"deep_extra"`
	} `yaml:"port_sets"`
	Headers []struct {
		Name           string `yaml:"name"`
		Severity       string `yaml:"severity"`
		Recommendation string `yaml:"recommendation"`
	} `yaml:"headers"`
	CVEs map[string][]CVEEntry `yaml:"cves"`
}

// DefaultScanData returns the compiled-in tables.
func DefaultScanData() ScanData {
	return ScanData{
		QuickPorts: []int{21, 22, 23, 25, 53, 80, 110, 143, 443, 993, 995, 8080, 8443},
		DeepPorts:  buildDeepPorts(1, 1024, []int{1433, 1521, 3306, 3389, 5432, 5900, 8000, 8080, 8443, 9000}),
		Headers: []HeaderPolicy{
			{
				Name:            "Strict-Transport-Security",
				MissingSeverity: finding.SeverityHigh,
				Recommendation:  "Add 'Strict-Transport-Security: max-age=31536000; includeSubDomains'",
			},
			{
				Name:            "Content-Security-Policy",
				MissingSeverity: finding.SeverityHigh,
				Recommendation:  "Implement a strict Content-Security-Policy appropriate for your application",
			},
			{
				Name:            "X-Frame-Options",
				MissingSeverity: finding.SeverityMedium,
				Recommendation:  "Add 'X-Frame-Options: DENY' or 'SAMEORIGIN'",
			},
			{
				Name:            "X-Content-Type-Options",
				MissingSeverity: finding.SeverityMedium,
				Recommendation:  "Add 'X-Content-Type-Options: nosniff'",
			},
			{
				Name:            "X-XSS-Protection",
				MissingSeverity: finding.SeverityLow,
				Recommendation:  "Set 'X-XSS-Protection: 0'; the legacy auditor is deprecated",
			},
			{
				Name:            "Referrer-Policy",
				MissingSeverity: finding.SeverityLow,
				Recommendation:  "Add 'Referrer-Policy: strict-origin-when-cross-origin' or 'no-referrer'",
			},
		},
		CVEs: map[string][]CVEEntry{
			"openssh": {
				{
					ID:          "CVE-2020-15778",
					CVSS:        7.8,
					FixedIn:     "8.3",
					Description: "OpenSSH scp command injection via backtick expansion",
					Remediation: "Update to OpenSSH 8.3 or later",
				},
				{
					ID:          "CVE-2023-48795",
					CVSS:        5.9,
					FixedIn:     "9.6",
					Description: "SSH transport prefix truncation (Terrapin attack)",
					Remediation: "Update to OpenSSH 9.6 or later and disable chacha20-poly1305",
				},
			},
			"proftpd": {
				{
					ID:          "CVE-2019-12815",
					CVSS:        9.8,
					FixedIn:     "1.3.6",
					Description: "ProFTPD mod_copy arbitrary file copy without authentication",
					Remediation: "Update ProFTPD to version 1.3.6b or later",
				},
			},
			"apache": {
				{
					ID:          "CVE-2021-41773",
					CVSS:        7.5,
					Introduced:  "2.4.49",
					FixedIn:     "2.4.51",
					Description: "Apache HTTP Server path traversal and file disclosure",
					Remediation: "Update Apache httpd to 2.4.51 or later",
				},
			},
			"nginx": {
				{
					ID:          "CVE-2021-23017",
					CVSS:        7.7,
					FixedIn:     "1.20.1",
					Description: "nginx resolver off-by-one heap write",
					Remediation: "Update nginx to 1.20.1 or later",
				},
			},
			"mysql": {
				{
					ID:          "CVE-2021-2307",
					CVSS:        7.1,
					FixedIn:     "8.0.24",
					Description: "MySQL Server packaging local privilege escalation",
					Remediation: "Update MySQL Server to 8.0.24 or later",
				},
			},
			"redis": {
				{
					ID:          "CVE-2022-0543",
					CVSS:        10.0,
					FixedIn:     "6.2.7",
					Description: "Redis Lua sandbox escape on Debian-packaged builds",
					Remediation: "Update Redis to 6.2.7 / 7.0 or later",
				},
			},
		},
	}
}

// LoadScanData reads a YAML override file and merges it over the defaults.
// Absent sections keep their default values.
func LoadScanData(path string) (ScanData, error) {
	data := DefaultScanData()

	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("read scan data: %w", err)
	}
	var file scanDataFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return data, fmt.Errorf("parse scan data: %w", err)
	}

	if len(file.PortSets.Quick) > 0 {
		data.QuickPorts = file.PortSets.Quick
	}
	if file.PortSets.DeepTo > 0 {
		data.DeepPorts = buildDeepPorts(file.PortSets.DeepFrom, file.PortSets.DeepTo, file.PortSets.DeepExtra)
	}
	if len(file.Headers) > 0 {
		policies := make([]HeaderPolicy, 0, len(file.Headers))
		for _, h := range file.Headers {
			sev, err := finding.ParseSeverity(h.Severity)
			if err != nil {
				return data, fmt.Errorf("header %q: %w", h.Name, err)
			}
			policies = append(policies, HeaderPolicy{
				Name:            h.Name,
				MissingSeverity: sev,
				Recommendation:  h.Recommendation,
			})
		}
		data.Headers = policies
	}
	if len(file.CVEs) > 0 {
		merged := make(map[string][]CVEEntry, len(data.CVEs)+len(file.CVEs))
		for svc, entries := range data.CVEs {
			merged[strings.ToLower(svc)] = entries
		}
		for svc, entries := range file.CVEs {
			merged[strings.ToLower(svc)] = entries
		}
		data.CVEs = merged
	}

	return data, nil
}

func buildDeepPorts(from, to int, extra []int) []int {
	if from < 1 {
		from = 1
	}
	seen := make(map[int]struct{}, to-from+1+len(extra))
	ports := make([]int, 0, to-from+1+len(extra))
	for p := from; p <= to; p++ {
		seen[p] = struct{}{}
		ports = append(ports, p)
	}
	for _, p := range extra {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}
