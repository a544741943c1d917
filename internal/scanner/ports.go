package scanner

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/maher92-collab/securescan-pro/internal/finding"
)

const maxBannerBytes = 256

// PortProber performs a concurrent TCP connect scan with banner capture.
// Concurrency is bounded by MaxWorkers regardless of port-set size, and an
// optional rate limiter paces connection attempts.
type PortProber struct {
	ConnectTimeout time.Duration
	BannerTimeout  time.Duration
	MaxWorkers     int
	Rate           int // connection attempts per second, 0 = unlimited
	Logger         *zap.Logger
}

func (p *PortProber) ID() ComponentID { return ComponentPortScan }

// Run scans in.Ports against the target. Only open ports are reported;
// refused and timed-out connections are dropped to bound report size. The
// fingerprints derived from banners are always published on in, even when the
// scan is cut short.
func (p *PortProber) Run(ctx context.Context, in *Input) ([]finding.Finding, error) {
	var limiter *rate.Limiter
	if p.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.Rate), p.Rate)
	}

	workers := p.MaxWorkers
	if workers <= 0 {
		workers = 50
	}

	portCh := make(chan int)
	resultCh := make(chan openPort, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for port := range portCh {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}
				if op, ok := p.probe(ctx, in.Target, port); ok {
					resultCh <- op
				}
			}
		}()
	}

	go func() {
		defer close(portCh)
		for _, port := range in.Ports {
			select {
			case portCh <- port:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var open []openPort
	for op := range resultCh {
		open = append(open, op)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].port < open[j].port })

	findings := make([]finding.Finding, 0, len(open))
	var fps []Fingerprint
	for _, op := range open {
		findings = append(findings, op.finding())
		if fp, ok := op.fingerprint(); ok {
			fps = append(fps, fp)
		}
	}
	in.PublishFingerprints(fps)

	p.Logger.Debug("port scan finished",
		zap.String("target", in.Target),
		zap.Int("probed", len(in.Ports)),
		zap.Int("open", len(open)),
	)

	if err := ctx.Err(); err != nil {
		return findings, fmt.Errorf("port scan interrupted: %w", err)
	}
	return findings, nil
}

type openPort struct {
	port    int
	service string
	version string
	banner  string
}

// probe attempts a bounded-timeout connect and a short banner read. A
// refused or timed-out port reports ok=false.
func (p *PortProber) probe(ctx context.Context, target string, port int) (openPort, bool) {
	dialer := net.Dialer{Timeout: p.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(target, fmt.Sprintf("%d", port)))
	if err != nil {
		return openPort{}, false
	}
	defer conn.Close()

	op := openPort{port: port, service: serviceForPort(port)}
	op.banner = p.grabBanner(conn, port)
	if svc, ver, ok := fingerprintBanner(op.banner); ok {
		op.service = svc
		op.version = ver
	}
	return op, true
}

// grabBanner reads the first bytes a service sends, nudging protocols that
// expect the client to speak first.
func (p *PortProber) grabBanner(conn net.Conn, port int) string {
	switch port {
	case 80, 8000, 8080:
		fmt.Fprintf(conn, "GET / HTTP/1.0\r\n\r\n")
	case 21, 22, 25, 110, 143:
		// Server sends its greeting unprompted.
	default:
		fmt.Fprintf(conn, "\r\n")
	}

	_ = conn.SetReadDeadline(time.Now().Add(p.BannerTimeout))
	buf := make([]byte, maxBannerBytes)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return ""
	}
	banner := strings.TrimSpace(string(buf[:n]))
	banner = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x7f) {
			return r
		}
		return -1
	}, banner)
	lines := strings.Split(banner, "\n")
	first := strings.TrimSpace(lines[0])
	// HTTP responses carry the interesting part in the Server header, not
	// the status line.
	if strings.HasPrefix(first, "HTTP/") {
		for _, line := range lines[1:] {
			line = strings.TrimSpace(line)
			if len(line) > 7 && strings.EqualFold(line[:7], "server:") {
				return first + " " + line
			}
		}
	}
	return first
}

func (op openPort) finding() finding.Finding {
	severity, note := portRisk(op.port)
	service := op.service
	if op.version != "" {
		service = fmt.Sprintf("%s %s", op.service, op.version)
	}
	return finding.Finding{
		Category:    finding.CategoryPortScan,
		Severity:    severity,
		Description: fmt.Sprintf("Port %d (%s) is open", op.port, service),
		Remediation: note,
		Port: &finding.PortEvidence{
			Port:    op.port,
			State:   "open",
			Service: op.service,
			Version: op.version,
			Banner:  op.banner,
		},
	}
}

func (op openPort) fingerprint() (Fingerprint, bool) {
	if op.version == "" {
		return Fingerprint{}, false
	}
	return Fingerprint{
		Service: strings.ToLower(op.service),
		Version: op.version,
		Port:    op.port,
	}, true
}

// portServices maps well-known ports to service guesses, refined later by
// banner content.
var portServices = map[int]string{
	21:   "ftp",
	22:   "ssh",
	23:   "telnet",
	25:   "smtp",
	53:   "dns",
	80:   "http",
	110:  "pop3",
	143:  "imap",
	443:  "https",
	445:  "smb",
	993:  "imaps",
	995:  "pop3s",
	1433: "mssql",
	1521: "oracle",
	3306: "mysql",
	3389: "rdp",
	5432: "postgresql",
	5900: "vnc",
	6379: "redis",
	8000: "http-alt",
	8080: "http-proxy",
	8443: "https-alt",
	9000: "http-alt",
}

func serviceForPort(port int) string {
	if svc, ok := portServices[port]; ok {
		return svc
	}
	return "unknown"
}

// portRisk assigns a severity to an exposed port.
func portRisk(port int) (finding.Severity, string) {
	switch port {
	case 23, 3389, 5900:
		return finding.SeverityCritical, "Close or firewall this port; use VPN for remote access instead of direct exposure"
	case 21, 445, 1433, 1521, 3306, 5432, 6379:
		return finding.SeverityHigh, "Restrict database and administrative ports to trusted networks only"
	case 22:
		return finding.SeverityMedium, "Ensure key-based authentication and restrict source addresses"
	case 25, 110, 143, 8000, 8080, 8443, 9000:
		return finding.SeverityLow, "Review whether this service needs to be internet-facing"
	default:
		return finding.SeverityInfo, ""
	}
}

var bannerPatterns = []struct {
	re      *regexp.Regexp
	service string
}{
	{regexp.MustCompile(`(?i)^SSH-[\d.]+-OpenSSH[_-]([\w.]+)`), "openssh"},
	{regexp.MustCompile(`(?i)Server:\s*Apache/([\d.]+)`), "apache"},
	{regexp.MustCompile(`(?i)Server:\s*nginx/([\d.]+)`), "nginx"},
	{regexp.MustCompile(`(?i)ProFTPD\s+([\d.]+[a-z]?)`), "proftpd"},
	{regexp.MustCompile(`(?i)^220.*?vsFTPd\s+([\d.]+)`), "vsftpd"},
	{regexp.MustCompile(`(?i)mysql[_\s-]*([\d]+\.[\d.]+)`), "mysql"},
	{regexp.MustCompile(`(?i)redis[_\s/-]*(?:server\s+|version)?[:=\s]*v?([\d.]+)`), "redis"},
	{regexp.MustCompile(`(?i)([a-z][a-z0-9_-]{2,})[/ ]v?(\d+(?:\.\d+)+)`), ""},
}

// fingerprintBanner extracts a (service, version) pair from a captured
// banner. The last, generic pattern takes the service name from the banner
// itself.
func fingerprintBanner(banner string) (service, version string, ok bool) {
	if banner == "" {
		return "", "", false
	}
	for _, p := range bannerPatterns {
		m := p.re.FindStringSubmatch(banner)
		if m == nil {
			continue
		}
		if p.service != "" {
			return p.service, m[1], true
		}
		return strings.ToLower(m[1]), m[2], true
	}
	return "", "", false
}
