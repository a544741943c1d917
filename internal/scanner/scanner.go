package scanner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/config"
	"github.com/maher92-collab/securescan-pro/internal/finding"
)

// Mode selects the port set and the job timeout ceiling.
type Mode string

const (
	ModeQuick Mode = "quick"
	ModeDeep  Mode = "deep"
)

// ParseMode validates a scan mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeQuick:
		return ModeQuick, nil
	case ModeDeep:
		return ModeDeep, nil
	}
	return "", fmt.Errorf("unknown scan type %q", s)
}

// ComponentID is the wire identifier of a scan component.
type ComponentID string

const (
	ComponentPortScan ComponentID = "tcp_port_scanning"
	ComponentHeaders  ComponentID = "http_security_headers"
	ComponentTLS      ComponentID = "tls_ssl_analysis"
	ComponentVulnMap  ComponentID = "cve_vulnerability_mapping"
)

// DefaultComponents is the component set used when a request names none.
var DefaultComponents = []ComponentID{ComponentPortScan, ComponentHeaders, ComponentTLS}

// ParseComponentID validates a component identifier string.
func ParseComponentID(s string) (ComponentID, error) {
	switch ComponentID(strings.ToLower(s)) {
	case ComponentPortScan, ComponentHeaders, ComponentTLS, ComponentVulnMap:
		return ComponentID(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("unknown component %q", s)
}

// Fingerprint is a (service, version) pair derived from banner analysis,
// used as the CVE lookup key.
type Fingerprint struct {
	Service string
	Version string
	Port    int
}

// Input carries the per-job parameters shared by all components of one scan.
// It also mediates the single ordered hand-off of the run: the port prober
// publishes the fingerprints it derived and the vulnerability mapper awaits
// them, so both can still be launched together.
type Input struct {
	Target string
	Ports  []int

	fpOnce  sync.Once
	fpReady chan struct{}
	fps     []Fingerprint
}

// NewInput builds the shared input for one scan run.
func NewInput(target string, ports []int) *Input {
	return &Input{
		Target:  target,
		Ports:   ports,
		fpReady: make(chan struct{}),
	}
}

// PublishFingerprints records the fingerprints discovered by the port prober.
// Only the first call takes effect; later calls are ignored.
func (in *Input) PublishFingerprints(fps []Fingerprint) {
	in.fpOnce.Do(func() {
		in.fps = fps
		close(in.fpReady)
	})
}

// Fingerprints blocks until fingerprints have been published or the context
// is cancelled.
func (in *Input) Fingerprints(ctx context.Context) ([]Fingerprint, error) {
	select {
	case <-in.fpReady:
		return in.fps, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Component is the capability contract every scan component satisfies. A
// returned error is a soft failure: the job continues and the findings (often
// none) are still merged.
type Component interface {
	ID() ComponentID
	Run(ctx context.Context, in *Input) ([]finding.Finding, error)
}

// Registry maps component identifiers to implementations. Adding a component
// means registering a new entry, not branching in the orchestrator.
type Registry struct {
	components map[ComponentID]Component
}

// NewRegistry builds a registry with the four built-in components wired to
// the supplied static tables and runtime parameters.
func NewRegistry(data config.ScanData, rt config.Runtime, logger *zap.Logger) *Registry {
	rt = rt.Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{components: make(map[ComponentID]Component)}
	r.Register(&PortProber{
		ConnectTimeout: rt.ConnectTimeout,
		BannerTimeout:  rt.BannerTimeout,
		MaxWorkers:     rt.MaxPortWorkers,
		Rate:           rt.ProbeRate,
		Logger:         logger,
	})
	r.Register(&HeaderAuditor{
		Timeout:  rt.HTTPTimeout,
		Policies: data.Headers,
		Logger:   logger,
	})
	r.Register(&TLSInspector{
		Timeout:    rt.TLSTimeout,
		NearExpiry: rt.NearExpiryDays,
		Logger:     logger,
	})
	r.Register(&VulnMapper{
		Table:  data.CVEs,
		Logger: logger,
	})
	return r
}

// Register adds or replaces a component.
func (r *Registry) Register(c Component) {
	r.components[c.ID()] = c
}

// Lookup returns the component registered under id.
func (r *Registry) Lookup(id ComponentID) (Component, bool) {
	c, ok := r.components[id]
	return c, ok
}
