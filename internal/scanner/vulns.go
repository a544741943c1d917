package scanner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/config"
	"github.com/maher92-collab/securescan-pro/internal/finding"
)

// VulnMapper correlates the fingerprints discovered by the port prober with
// the static CVE lookup table. Fingerprints without a version never match:
// bare service-name lookups are excluded to avoid false positives.
type VulnMapper struct {
	Table  map[string][]config.CVEEntry
	Logger *zap.Logger
}

func (v *VulnMapper) ID() ComponentID { return ComponentVulnMap }

func (v *VulnMapper) Run(ctx context.Context, in *Input) ([]finding.Finding, error) {
	fps, err := in.Fingerprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("vulnerability mapping: %w", err)
	}

	var findings []finding.Finding
	seen := make(map[string]struct{})
	for _, fp := range fps {
		if fp.Version == "" {
			continue
		}
		entries := v.Table[strings.ToLower(fp.Service)]
		for _, entry := range entries {
			if !versionAffected(fp.Version, entry) {
				continue
			}
			// Identical CVE IDs for the same fingerprint are reported once.
			key := entry.ID + "|" + fp.Service + "|" + fp.Version
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			findings = append(findings, finding.Finding{
				Category:    finding.CategoryVulnerabilities,
				Severity:    finding.SeverityFromCVSS(entry.CVSS),
				Description: fmt.Sprintf("%s: %s", entry.ID, entry.Description),
				Remediation: entry.Remediation,
				Vulnerability: &finding.VulnEvidence{
					CVEID:           entry.ID,
					CVSS:            entry.CVSS,
					AffectedService: fmt.Sprintf("%s %s (port %d)", fp.Service, fp.Version, fp.Port),
				},
			})
		}
	}

	v.Logger.Debug("vulnerability mapping finished",
		zap.Int("fingerprints", len(fps)),
		zap.Int("matches", len(findings)),
	)
	return findings, nil
}

// versionAffected reports whether version falls inside the entry's affected
// range: introduced <= version < fixed_in, with either bound optional.
func versionAffected(version string, entry config.CVEEntry) bool {
	v, ok := parseVersion(version)
	if !ok {
		return false
	}
	if entry.Introduced != "" {
		intro, ok := parseVersion(entry.Introduced)
		if !ok || compareVersions(v, intro) < 0 {
			return false
		}
	}
	if entry.FixedIn != "" {
		fixed, ok := parseVersion(entry.FixedIn)
		if !ok || compareVersions(v, fixed) >= 0 {
			return false
		}
	}
	return true
}

var versionSegment = regexp.MustCompile(`^\d+`)

// parseVersion splits a dotted version into numeric segments, tolerating
// trailing letters per segment ("8.9p1" -> [8 9]).
func parseVersion(s string) ([]int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	segs := make([]int, 0, len(parts))
	for _, part := range parts {
		digits := versionSegment.FindString(part)
		if digits == "" {
			break
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			break
		}
		segs = append(segs, n)
	}
	return segs, len(segs) > 0
}

func compareVersions(a, b []int) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		av, bv := 0, 0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
