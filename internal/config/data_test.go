package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/maher92-collab/securescan-pro/internal/finding"
)

func TestDefaultScanDataQuickPorts(t *testing.T) {
	data := DefaultScanData()

	if len(data.QuickPorts) != 13 {
		t.Errorf("quick port set has %d entries, want 13", len(data.QuickPorts))
	}
	for _, p := range []int{22, 80, 443, 8080} {
		if !containsPort(data.QuickPorts, p) {
			t.Errorf("quick port set missing %d", p)
		}
	}
}

func TestDefaultScanDataDeepPorts(t *testing.T) {
	data := DefaultScanData()

	if !sort.IntsAreSorted(data.DeepPorts) {
		t.Error("deep port set is not sorted")
	}
	for _, p := range []int{1, 1024, 3306, 3389, 5432, 9000} {
		if !containsPort(data.DeepPorts, p) {
			t.Errorf("deep port set missing %d", p)
		}
	}
	// 1024 contiguous ports plus the 10 extras above 1024.
	want := 1024 + 10
	if len(data.DeepPorts) != want {
		t.Errorf("deep port set has %d entries, want %d", len(data.DeepPorts), want)
	}
}

func TestDefaultScanDataHeaders(t *testing.T) {
	data := DefaultScanData()

	if len(data.Headers) != 6 {
		t.Fatalf("header checklist has %d entries, want 6", len(data.Headers))
	}

	want := map[string]finding.Severity{
		"Strict-Transport-Security": finding.SeverityHigh,
		"Content-Security-Policy":   finding.SeverityHigh,
		"X-Frame-Options":           finding.SeverityMedium,
		"X-Content-Type-Options":    finding.SeverityMedium,
		"X-XSS-Protection":          finding.SeverityLow,
		"Referrer-Policy":           finding.SeverityLow,
	}
	for _, policy := range data.Headers {
		sev, ok := want[policy.Name]
		if !ok {
			t.Errorf("unexpected header policy %q", policy.Name)
			continue
		}
		if policy.MissingSeverity != sev {
			t.Errorf("%s missing severity = %v, want %v", policy.Name, policy.MissingSeverity, sev)
		}
		if policy.Recommendation == "" {
			t.Errorf("%s has no recommendation", policy.Name)
		}
	}
}

func TestDefaultScanDataCVEKeys(t *testing.T) {
	data := DefaultScanData()

	for _, svc := range []string{"openssh", "proftpd", "apache", "nginx", "mysql", "redis"} {
		entries, ok := data.CVEs[svc]
		if !ok {
			t.Errorf("CVE table missing service %q", svc)
			continue
		}
		for _, e := range entries {
			if e.ID == "" || e.CVSS == 0 {
				t.Errorf("%s has incomplete entry %+v", svc, e)
			}
		}
	}
}

func TestLoadScanDataMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-data.yaml")
	content := `
port_sets:
  quick: [80, 443]
headers:
  - name: Strict-Transport-Security
    severity: critical
    recommendation: "Enable HSTS"
cves:
  MyApp:
    - id: CVE-2024-0001
      cvss: 8.1
      fixed_in: "2.0"
      description: "test entry"
      remediation: "upgrade"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := LoadScanData(path)
	if err != nil {
		t.Fatalf("LoadScanData failed: %v", err)
	}

	if len(data.QuickPorts) != 2 {
		t.Errorf("quick ports not overridden: %v", data.QuickPorts)
	}
	if len(data.Headers) != 1 || data.Headers[0].MissingSeverity != finding.SeverityCritical {
		t.Errorf("header override not applied: %+v", data.Headers)
	}
	// Service keys are normalized to lowercase; defaults survive the merge.
	if _, ok := data.CVEs["myapp"]; !ok {
		t.Error("override CVE service not present under lowercase key")
	}
	if _, ok := data.CVEs["openssh"]; !ok {
		t.Error("default CVE entries lost during merge")
	}
	// Deep ports untouched when the override file omits them.
	if len(data.DeepPorts) != len(DefaultScanData().DeepPorts) {
		t.Error("deep ports changed by unrelated override")
	}
}

func TestLoadScanDataMissingFile(t *testing.T) {
	if _, err := LoadScanData(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadScanDataBadSeverity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := `
headers:
  - name: X-Frame-Options
    severity: enormous
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScanData(path); err == nil {
		t.Error("expected error for unknown severity name")
	}
}

func TestBuildDeepPorts(t *testing.T) {
	ports := buildDeepPorts(1, 5, []int{3, 10, 8})

	want := []int{1, 2, 3, 4, 5, 8, 10}
	if len(ports) != len(want) {
		t.Fatalf("got %v, want %v", ports, want)
	}
	for i := range want {
		if ports[i] != want[i] {
			t.Fatalf("got %v, want %v", ports, want)
		}
	}
}

func containsPort(ports []int, p int) bool {
	for _, v := range ports {
		if v == p {
			return true
		}
	}
	return false
}
