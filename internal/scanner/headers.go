package scanner

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/config"
	"github.com/maher92-collab/securescan-pro/internal/finding"
)

// HeaderAuditor issues a single request to the target's root path and checks
// the response against the configured security header checklist. An
// unreachable target is a soft failure with zero findings.
type HeaderAuditor struct {
	Timeout  time.Duration
	Policies []config.HeaderPolicy
	Logger   *zap.Logger
}

func (h *HeaderAuditor) ID() ComponentID { return ComponentHeaders }

func (h *HeaderAuditor) Run(ctx context.Context, in *Input) ([]finding.Finding, error) {
	headers, scheme, err := h.fetch(ctx, in.Target)
	if err != nil {
		h.Logger.Warn("header audit unreachable",
			zap.String("target", in.Target),
			zap.Error(err),
		)
		return nil, fmt.Errorf("header audit: %w", err)
	}

	var findings []finding.Finding
	for _, policy := range h.Policies {
		value := headers.Get(policy.Name)
		if value == "" {
			severity := policy.MissingSeverity
			if policy.Name == "Strict-Transport-Security" && scheme != "https" {
				// HSTS is only meaningful once the target serves HTTPS.
				severity = finding.SeverityLow
			}
			findings = append(findings, finding.Finding{
				Category:    finding.CategorySecurityHeaders,
				Severity:    severity,
				Description: fmt.Sprintf("%s header is missing", policy.Name),
				Remediation: policy.Recommendation,
				Header: &finding.HeaderEvidence{
					Header:         policy.Name,
					Status:         finding.HeaderMissing,
					Recommendation: policy.Recommendation,
				},
			})
			continue
		}

		if reason, weak := weakHeaderValue(policy.Name, value); weak {
			findings = append(findings, finding.Finding{
				Category:    finding.CategorySecurityHeaders,
				Severity:    finding.SeverityMedium,
				Description: fmt.Sprintf("%s header is present but weak: %s", policy.Name, reason),
				Remediation: policy.Recommendation,
				Header: &finding.HeaderEvidence{
					Header:         policy.Name,
					Value:          value,
					Status:         finding.HeaderWeak,
					Recommendation: policy.Recommendation,
				},
			})
		}
	}
	return findings, nil
}

// fetch tries HTTPS first, then plain HTTP, returning the response headers
// and the scheme that answered.
func (h *HeaderAuditor) fetch(ctx context.Context, target string) (http.Header, string, error) {
	client := &http.Client{
		Timeout: h.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	var lastErr error
	for _, scheme := range []string{"https", "http"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+target+"/", nil)
		if err != nil {
			lastErr = err
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		return resp.Header, scheme, nil
	}
	return nil, "", lastErr
}

// weakHeaderValue flags present-but-weak header values.
func weakHeaderValue(name, value string) (string, bool) {
	v := strings.ToLower(value)
	switch name {
	case "Strict-Transport-Security":
		if !strings.Contains(v, "max-age=") {
			return "missing max-age directive", true
		}
		if strings.Contains(v, "max-age=0") {
			return "max-age=0 disables HSTS", true
		}
	case "Content-Security-Policy":
		if strings.Contains(v, "'unsafe-inline'") || strings.Contains(v, "'unsafe-eval'") {
			return "contains unsafe-inline or unsafe-eval directives", true
		}
		if !strings.Contains(v, "default-src") {
			return "missing default-src fallback directive", true
		}
	case "X-Frame-Options":
		if v != "deny" && v != "sameorigin" {
			return "value should be DENY or SAMEORIGIN", true
		}
	case "X-Content-Type-Options":
		if v != "nosniff" {
			return "value should be nosniff", true
		}
	case "X-XSS-Protection":
		if strings.TrimSpace(v) != "0" {
			return "legacy XSS auditor should be disabled with '0'", true
		}
	case "Referrer-Policy":
		if strings.Contains(v, "unsafe-url") {
			return "unsafe-url leaks full URLs in the referrer", true
		}
	}
	return "", false
}
