package finding

import (
	"encoding/json"
	"testing"
)

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityInfo < SeverityLow && SeverityLow < SeverityMedium &&
		SeverityMedium < SeverityHigh && SeverityHigh < SeverityCritical) {
		t.Error("severity constants are not in ascending order")
	}
}

func TestSeverityString(t *testing.T) {
	cases := []struct {
		sev  Severity
		want string
	}{
		{SeverityInfo, "info"},
		{SeverityLow, "low"},
		{SeverityMedium, "medium"},
		{SeverityHigh, "high"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
		{Severity(-1), "unknown"},
	}

	for _, tc := range cases {
		if got := tc.sev.String(); got != tc.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tc.sev, got, tc.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		name    string
		want    Severity
		wantErr bool
	}{
		{"info", SeverityInfo, false},
		{"LOW", SeverityLow, false},
		{"Medium", SeverityMedium, false},
		{"high", SeverityHigh, false},
		{"critical", SeverityCritical, false},
		{"severe", SeverityInfo, true},
		{"", SeverityInfo, true},
	}

	for _, tc := range cases {
		got, err := ParseSeverity(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSeverity(%q): expected error, got none", tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSeverity(%q): unexpected error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSeverityFromCVSS(t *testing.T) {
	cases := []struct {
		score float64
		want  Severity
	}{
		{10.0, SeverityCritical},
		{9.8, SeverityCritical},
		{9.0, SeverityCritical},
		{8.9, SeverityHigh},
		{7.5, SeverityHigh},
		{7.0, SeverityHigh},
		{6.9, SeverityMedium},
		{4.0, SeverityMedium},
		{3.9, SeverityLow},
		{0.0, SeverityLow},
	}

	for _, tc := range cases {
		if got := SeverityFromCVSS(tc.score); got != tc.want {
			t.Errorf("SeverityFromCVSS(%.1f) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestSeverityJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(SeverityHigh)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"high"` {
		t.Errorf("marshaled severity = %s, want %q", data, `"high"`)
	}

	var sev Severity
	if err := json.Unmarshal([]byte(`"critical"`), &sev); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if sev != SeverityCritical {
		t.Errorf("unmarshaled severity = %v, want %v", sev, SeverityCritical)
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &sev); err == nil {
		t.Error("expected error unmarshaling unknown severity name")
	}
}

func TestFindingJSONEvidenceKeys(t *testing.T) {
	f := Finding{
		Category:    CategoryPortScan,
		Severity:    SeverityHigh,
		Description: "Open ftp port",
		Port:        &PortEvidence{Port: 21, State: "open", Service: "ftp"},
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := decoded["port_info"]; !ok {
		t.Error("expected port_info key in encoded finding")
	}
	for _, absent := range []string{"header_info", "tls_info", "vulnerability_info"} {
		if _, ok := decoded[absent]; ok {
			t.Errorf("unexpected %s key in encoded port finding", absent)
		}
	}
}
