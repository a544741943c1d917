package scanner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/finding"
)

// versionSSL30 is the legacy SSL 3.0 protocol version (0x0300), defined
// locally to avoid the deprecated tls.VersionSSL30 symbol.
const versionSSL30 uint16 = 0x0300

// Issue tags attached to TLS findings.
const (
	TagLegacyProtocol   = "legacy-protocol"
	TagWeakCipher       = "weak-cipher"
	TagUntrustedChain   = "untrusted-chain"
	TagSelfSigned       = "self-signed"
	TagExpired          = "expired"
	TagNearExpiry       = "near-expiry"
	TagHostnameMismatch = "hostname-mismatch"
	TagUnavailable      = "tls-unavailable"
)

// Weak cipher suites that should not be negotiated (RC4, 3DES, CBC-mode RSA).
var weakCipherSuites = map[uint16]struct{}{
	tls.TLS_RSA_WITH_RC4_128_SHA:                {},
	tls.TLS_RSA_WITH_3DES_EDE_CBC_SHA:           {},
	tls.TLS_RSA_WITH_AES_128_CBC_SHA:            {},
	tls.TLS_RSA_WITH_AES_256_CBC_SHA:            {},
	tls.TLS_ECDHE_ECDSA_WITH_RC4_128_SHA:        {},
	tls.TLS_ECDHE_RSA_WITH_RC4_128_SHA:          {},
	tls.TLS_ECDHE_RSA_WITH_3DES_EDE_CBC_SHA:     {},
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA256: {},
}

// TLSInspector performs a handshake against the target's HTTPS port and
// evaluates the negotiated protocol, cipher suite, and certificate. A failed
// handshake yields a single informational finding, not a job failure.
type TLSInspector struct {
	Timeout    time.Duration
	NearExpiry int // days before expiry that triggers a medium finding
	Port       int // defaults to 443
	Logger     *zap.Logger

	// now is injected in tests; defaults to time.Now.
	now func() time.Time
}

func (t *TLSInspector) ID() ComponentID { return ComponentTLS }

func (t *TLSInspector) Run(ctx context.Context, in *Input) ([]finding.Finding, error) {
	port := t.Port
	if port == 0 {
		port = 443
	}
	addr := net.JoinHostPort(in.Target, fmt.Sprintf("%d", port))

	dialer := &net.Dialer{Timeout: t.Timeout}
	// Verification is done manually below so the handshake also succeeds
	// against misconfigured endpoints that still need to be reported.
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		ServerName:         in.Target,
		InsecureSkipVerify: true,
	})
	if err != nil {
		t.Logger.Debug("tls handshake failed",
			zap.String("target", in.Target),
			zap.Error(err),
		)
		return []finding.Finding{{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityInfo,
			Description: fmt.Sprintf("TLS is not available on %s", addr),
			TLS:         &finding.TLSEvidence{Tags: []string{TagUnavailable}},
		}}, nil
	}
	defer conn.Close()

	state := conn.ConnectionState()
	return t.evaluate(in.Target, state), nil
}

func (t *TLSInspector) evaluate(host string, state tls.ConnectionState) []finding.Finding {
	now := time.Now
	if t.now != nil {
		now = t.now
	}

	protocol := tlsVersionString(state.Version)
	cipher := tls.CipherSuiteName(state.CipherSuite)

	evidence := func(tags ...string) *finding.TLSEvidence {
		ev := &finding.TLSEvidence{
			Protocol:    protocol,
			CipherSuite: cipher,
			Tags:        tags,
		}
		if len(state.PeerCertificates) > 0 {
			leaf := state.PeerCertificates[0]
			ev.NotBefore = leaf.NotBefore.Format(time.RFC3339)
			ev.NotAfter = leaf.NotAfter.Format(time.RFC3339)
		}
		return ev
	}

	var findings []finding.Finding
	protocolClean := true

	// Protocol version.
	switch {
	case state.Version == versionSSL30:
		protocolClean = false
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityCritical,
			Description: "Server negotiated SSL 3.0, which is broken (POODLE)",
			Remediation: "Disable SSL 3.0; allow only TLS 1.2 and TLS 1.3",
			TLS:         evidence(TagLegacyProtocol),
		})
	case state.Version < tls.VersionTLS12:
		protocolClean = false
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityHigh,
			Description: fmt.Sprintf("Server negotiated outdated protocol %s", protocol),
			Remediation: "Disable TLS 1.0 and TLS 1.1; allow only TLS 1.2 and TLS 1.3",
			TLS:         evidence(TagLegacyProtocol),
		})
	}

	// Cipher strength.
	if _, weak := weakCipherSuites[state.CipherSuite]; weak {
		protocolClean = false
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityHigh,
			Description: fmt.Sprintf("Server negotiated weak cipher suite %s", cipher),
			Remediation: "Prefer AEAD suites such as AES-GCM or ChaCha20-Poly1305 with ECDHE key exchange",
			TLS:         evidence(TagWeakCipher),
		})
	}

	if protocolClean {
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityInfo,
			Description: fmt.Sprintf("Server negotiated %s with %s", protocol, cipher),
			TLS:         evidence(),
		})
	}

	// Certificate checks.
	trusted := true
	if len(state.PeerCertificates) > 0 {
		var certFindings []finding.Finding
		certFindings, trusted = t.checkCertificate(host, state.PeerCertificates, now(), evidence)
		findings = append(findings, certFindings...)
	}
	for i := range findings {
		findings[i].TLS.TrustedChain = trusted
	}

	return findings
}

func (t *TLSInspector) checkCertificate(host string, chain []*x509.Certificate, now time.Time, evidence func(...string) *finding.TLSEvidence) ([]finding.Finding, bool) {
	var findings []finding.Finding
	leaf := chain[0]

	// Chain trust, fails closed: a chain we cannot verify is reported.
	intermediates := x509.NewCertPool()
	for _, cert := range chain[1:] {
		intermediates.AddCert(cert)
	}
	trusted := true
	if _, err := leaf.Verify(x509.VerifyOptions{Intermediates: intermediates, CurrentTime: now}); err != nil {
		trusted = false
		tags := []string{TagUntrustedChain}
		desc := "Certificate chain is not trusted by the system roots"
		if leaf.Subject.String() == leaf.Issuer.String() {
			tags = append(tags, TagSelfSigned)
			desc = "Certificate is self-signed"
		}
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityHigh,
			Description: desc,
			Remediation: "Install a certificate issued by a trusted certificate authority",
			TLS:         evidence(tags...),
		})
	}

	// Hostname match.
	if err := leaf.VerifyHostname(host); err != nil {
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityHigh,
			Description: fmt.Sprintf("Certificate does not match hostname %s", host),
			Remediation: "Reissue the certificate with the correct subject alternative names",
			TLS:         evidence(TagHostnameMismatch),
		})
	}

	// Validity window.
	switch {
	case now.After(leaf.NotAfter):
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityCritical,
			Description: fmt.Sprintf("Certificate expired on %s", leaf.NotAfter.Format("2006-01-02")),
			Remediation: "Renew the TLS certificate immediately",
			TLS:         evidence(TagExpired),
		})
	case leaf.NotAfter.Sub(now) <= time.Duration(t.NearExpiry)*24*time.Hour:
		days := int(leaf.NotAfter.Sub(now).Hours() / 24)
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryTLSAnalysis,
			Severity:    finding.SeverityMedium,
			Description: fmt.Sprintf("Certificate expires in %d days", days),
			Remediation: "Plan certificate renewal before the expiry date",
			TLS:         evidence(TagNearExpiry),
		})
	}

	return findings, trusted
}

func tlsVersionString(version uint16) string {
	switch version {
	case versionSSL30:
		return "SSL 3.0"
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("unknown (0x%04x)", version)
	}
}
