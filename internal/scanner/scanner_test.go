package scanner

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/config"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"quick", ModeQuick, false},
		{"QUICK", ModeQuick, false},
		{"deep", ModeDeep, false},
		{"Deep", ModeDeep, false},
		{"full", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseComponentID(t *testing.T) {
	for _, id := range []string{
		"tcp_port_scanning",
		"http_security_headers",
		"tls_ssl_analysis",
		"cve_vulnerability_mapping",
		"TCP_Port_Scanning",
	} {
		if _, err := ParseComponentID(id); err != nil {
			t.Errorf("ParseComponentID(%q): unexpected error: %v", id, err)
		}
	}

	for _, id := range []string{"", "port_scan", "dns_enumeration"} {
		if _, err := ParseComponentID(id); err == nil {
			t.Errorf("ParseComponentID(%q): expected error", id)
		}
	}
}

func TestInputFingerprintHandOff(t *testing.T) {
	in := NewInput("example.com", nil)

	go func() {
		time.Sleep(10 * time.Millisecond)
		in.PublishFingerprints([]Fingerprint{{Service: "openssh", Version: "8.9", Port: 22}})
	}()

	fps, err := in.Fingerprints(context.Background())
	if err != nil {
		t.Fatalf("Fingerprints failed: %v", err)
	}
	if len(fps) != 1 || fps[0].Service != "openssh" {
		t.Errorf("unexpected fingerprints: %+v", fps)
	}
}

func TestInputPublishOnlyFirstWins(t *testing.T) {
	in := NewInput("example.com", nil)
	in.PublishFingerprints([]Fingerprint{{Service: "nginx", Version: "1.20.0", Port: 80}})
	in.PublishFingerprints([]Fingerprint{{Service: "apache", Version: "2.4.50", Port: 80}})

	fps, err := in.Fingerprints(context.Background())
	if err != nil {
		t.Fatalf("Fingerprints failed: %v", err)
	}
	if len(fps) != 1 || fps[0].Service != "nginx" {
		t.Errorf("second publish overwrote the first: %+v", fps)
	}
}

func TestInputFingerprintsHonorsContext(t *testing.T) {
	in := NewInput("example.com", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := in.Fingerprints(ctx); err == nil {
		t.Error("expected context error when nothing is published")
	}
}

func TestRegistryHasBuiltinComponents(t *testing.T) {
	r := NewRegistry(config.DefaultScanData(), config.DefaultRuntime(), zap.NewNop())

	for _, id := range []ComponentID{ComponentPortScan, ComponentHeaders, ComponentTLS, ComponentVulnMap} {
		c, ok := r.Lookup(id)
		if !ok {
			t.Errorf("component %s not registered", id)
			continue
		}
		if c.ID() != id {
			t.Errorf("component registered under %s reports ID %s", id, c.ID())
		}
	}

	if _, ok := r.Lookup("dns_enumeration"); ok {
		t.Error("unexpected component registered")
	}
}
