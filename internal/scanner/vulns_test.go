package scanner

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/config"
	"github.com/maher92-collab/securescan-pro/internal/finding"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in   string
		want []int
		ok   bool
	}{
		{"8.3", []int{8, 3}, true},
		{"8.9p1", []int{8, 9}, true},
		{"2.4.49", []int{2, 4, 49}, true},
		{"1.3.6b", []int{1, 3, 6}, true},
		{"10", []int{10}, true},
		{"beta", nil, false},
		{"", nil, false},
	}

	for _, tc := range cases {
		got, ok := parseVersion(tc.in)
		if ok != tc.ok {
			t.Errorf("parseVersion(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if !ok {
			continue
		}
		if len(got) != len(tc.want) {
			t.Errorf("parseVersion(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("parseVersion(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b []int
		want int
	}{
		{[]int{8, 2}, []int{8, 3}, -1},
		{[]int{8, 3}, []int{8, 3}, 0},
		{[]int{8, 3, 1}, []int{8, 3}, 1},
		{[]int{8, 3}, []int{8, 3, 0}, 0},
		{[]int{2, 4, 49}, []int{2, 4, 51}, -1},
		{[]int{10}, []int{9, 9, 9}, 1},
	}

	for _, tc := range cases {
		if got := compareVersions(tc.a, tc.b); got != tc.want {
			t.Errorf("compareVersions(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestVersionAffected(t *testing.T) {
	fixedOnly := config.CVEEntry{ID: "CVE-TEST-1", FixedIn: "8.3"}
	bounded := config.CVEEntry{ID: "CVE-TEST-2", Introduced: "2.4.49", FixedIn: "2.4.51"}
	openEnded := config.CVEEntry{ID: "CVE-TEST-3", Introduced: "5.0"}

	cases := []struct {
		version string
		entry   config.CVEEntry
		want    bool
	}{
		{"7.5", fixedOnly, true},
		{"8.2", fixedOnly, true},
		{"8.3", fixedOnly, false},
		{"8.9p1", fixedOnly, false},
		{"2.4.48", bounded, false},
		{"2.4.49", bounded, true},
		{"2.4.50", bounded, true},
		{"2.4.51", bounded, false},
		{"4.9", openEnded, false},
		{"5.0", openEnded, true},
		{"6.1", openEnded, true},
		{"garbage", fixedOnly, false},
	}

	for _, tc := range cases {
		if got := versionAffected(tc.version, tc.entry); got != tc.want {
			t.Errorf("versionAffected(%q, %s) = %v, want %v", tc.version, tc.entry.ID, got, tc.want)
		}
	}
}

func TestVulnMapperRun(t *testing.T) {
	mapper := &VulnMapper{
		Table: map[string][]config.CVEEntry{
			"openssh": {
				{ID: "CVE-2020-15778", CVSS: 7.8, FixedIn: "8.3", Description: "scp injection", Remediation: "upgrade"},
				{ID: "CVE-2023-48795", CVSS: 5.9, FixedIn: "9.6", Description: "terrapin", Remediation: "upgrade"},
			},
			"redis": {
				{ID: "CVE-2022-0543", CVSS: 10.0, FixedIn: "6.2.7", Description: "lua escape", Remediation: "upgrade"},
			},
		},
		Logger: zap.NewNop(),
	}

	in := NewInput("example.com", nil)
	in.PublishFingerprints([]Fingerprint{
		{Service: "openssh", Version: "7.9", Port: 22},
		{Service: "redis", Version: "6.0.9", Port: 6379},
		{Service: "nginx", Version: "1.18.0", Port: 80}, // no table entry
		{Service: "ftp", Version: "", Port: 21},         // no version, never looked up
	})

	findings, err := mapper.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(findings))
	}
	for _, f := range findings {
		if f.Category != finding.CategoryVulnerabilities {
			t.Errorf("category = %s, want %s", f.Category, finding.CategoryVulnerabilities)
		}
		if f.Vulnerability == nil {
			t.Fatal("finding has no vulnerability evidence")
		}
	}

	bySeverity := map[string]finding.Severity{}
	for _, f := range findings {
		bySeverity[f.Vulnerability.CVEID] = f.Severity
	}
	if bySeverity["CVE-2022-0543"] != finding.SeverityCritical {
		t.Errorf("CVSS 10.0 mapped to %v, want critical", bySeverity["CVE-2022-0543"])
	}
	if bySeverity["CVE-2020-15778"] != finding.SeverityHigh {
		t.Errorf("CVSS 7.8 mapped to %v, want high", bySeverity["CVE-2020-15778"])
	}
	if bySeverity["CVE-2023-48795"] != finding.SeverityMedium {
		t.Errorf("CVSS 5.9 mapped to %v, want medium", bySeverity["CVE-2023-48795"])
	}
}

func TestVulnMapperDeduplicates(t *testing.T) {
	mapper := &VulnMapper{
		Table: map[string][]config.CVEEntry{
			"openssh": {
				{ID: "CVE-2020-15778", CVSS: 7.8, FixedIn: "8.3", Description: "scp injection"},
			},
		},
		Logger: zap.NewNop(),
	}

	in := NewInput("example.com", nil)
	in.PublishFingerprints([]Fingerprint{
		{Service: "openssh", Version: "7.9", Port: 22},
		{Service: "openssh", Version: "7.9", Port: 2222},
	})

	findings, err := mapper.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(findings) != 1 {
		t.Errorf("expected duplicate CVE collapsed to 1 finding, got %d", len(findings))
	}
}

func TestVulnMapperServiceNameNormalized(t *testing.T) {
	mapper := &VulnMapper{
		Table: map[string][]config.CVEEntry{
			"apache": {
				{ID: "CVE-2021-41773", CVSS: 7.5, Introduced: "2.4.49", FixedIn: "2.4.51"},
			},
		},
		Logger: zap.NewNop(),
	}

	in := NewInput("example.com", nil)
	in.PublishFingerprints([]Fingerprint{{Service: "Apache", Version: "2.4.49", Port: 80}})

	findings, err := mapper.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(findings) != 1 {
		t.Errorf("mixed-case service did not match table key: %d findings", len(findings))
	}
}

func TestVulnMapperCancelledBeforePublish(t *testing.T) {
	mapper := &VulnMapper{Table: nil, Logger: zap.NewNop()}
	in := NewInput("example.com", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mapper.Run(ctx, in); err == nil {
		t.Error("expected error when fingerprints never arrive")
	}
}
