// Package engine owns the scan job lifecycle: submission validation, fan-out
// of the enabled scan components, progress tracking and report aggregation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/config"
	"github.com/maher92-collab/securescan-pro/internal/finding"
	"github.com/maher92-collab/securescan-pro/internal/scanner"
	secerrors "github.com/maher92-collab/securescan-pro/internal/shared/errors"
)

// Request is a scan submission as received from external collaborators.
type Request struct {
	Target     string   `json:"target"`
	ScanType   string   `json:"scan_type"`
	Components []string `json:"components"`
}

// Orchestrator runs scan jobs. Each job gets its own goroutine which is the
// sole writer of that job's record; multiple jobs run independently.
type Orchestrator struct {
	registry *scanner.Registry
	store    Store
	data     config.ScanData
	runtime  config.Runtime
	logger   *zap.Logger

	wg sync.WaitGroup
}

// New builds an orchestrator around a component registry and a job store.
func New(registry *scanner.Registry, store Store, data config.ScanData, rt config.Runtime, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		registry: registry,
		store:    store,
		data:     data,
		runtime:  rt.Normalize(),
		logger:   logger,
	}
}

// Submit validates the request, creates a queued job and launches it in the
// background. Malformed targets are rejected synchronously, before any job
// record exists.
func (o *Orchestrator) Submit(req Request) (*Job, error) {
	target := NormalizeTarget(req.Target)
	if !ValidTarget(target) {
		return nil, secerrors.ErrInvalidTarget
	}

	mode := scanner.ModeQuick
	if req.ScanType != "" {
		parsed, err := scanner.ParseMode(req.ScanType)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", secerrors.ErrUnknownScanType, req.ScanType)
		}
		mode = parsed
	}

	components, err := parseComponents(req.Components)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:         uuid.NewString(),
		Target:     target,
		Mode:       mode,
		Components: components,
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	}
	if err := o.store.Create(job); err != nil {
		return nil, fmt.Errorf("%w: %v", secerrors.ErrStorage, err)
	}

	o.logger.Info("scan submitted",
		zap.String("job_id", job.ID),
		zap.String("target", target),
		zap.String("scan_type", string(mode)),
		zap.Int("components", len(components)),
	)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(job.ID, target, mode, components)
	}()

	return job.clone(), nil
}

// Status returns a snapshot of the job, or ErrJobNotFound.
func (o *Orchestrator) Status(id string) (*Job, error) {
	return o.store.Get(id)
}

// Wait blocks until all in-flight jobs have reached a terminal state. Used
// by the CLI and by tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// run drives one job to a terminal state. Components run concurrently; each
// completion adds an equal share of progress. Component errors are soft
// failures. Only a ceiling timeout or a storage fault fails the job.
func (o *Orchestrator) run(id, target string, mode scanner.Mode, components []scanner.ComponentID) {
	ceiling := o.runtime.QuickScanTimeout
	ports := o.data.QuickPorts
	if mode == scanner.ModeDeep {
		ceiling = o.runtime.DeepScanTimeout
		ports = o.data.DeepPorts
	}

	ctx, cancel := context.WithTimeout(context.Background(), ceiling)
	defer cancel()

	if _, err := o.store.Update(id, func(j *Job) { j.Status = StatusRunning }); err != nil {
		o.logger.Error("failed to mark job running", zap.String("job_id", id), zap.Error(err))
		// The job must not linger in queued: record the storage fault as the
		// terminal state, best effort.
		o.finalize(id, func(j *Job) {
			j.Status = StatusFailed
			j.Error = &JobError{Code: secerrors.ReasonStorage, Message: "job record could not be persisted"}
		})
		return
	}

	in := scanner.NewInput(target, ports)
	if !hasComponent(components, scanner.ComponentPortScan) {
		// No prober in this job, so the vulnerability mapper (if enabled)
		// must not wait for fingerprints that will never arrive.
		in.PublishFingerprints(nil)
	}

	weight := 100 / len(components)
	started := time.Now()

	var (
		mu      sync.Mutex
		outputs [][]finding.Finding
	)
	var wg sync.WaitGroup
	for _, compID := range components {
		component, ok := o.registry.Lookup(compID)
		if !ok {
			// Validated at submission; a missing registration is a bug.
			o.logger.Error("component not registered", zap.String("component", string(compID)))
			continue
		}
		wg.Add(1)
		go func(c scanner.Component) {
			defer wg.Done()
			findings, err := c.Run(ctx, in)
			if err != nil {
				// Soft failure: ordinary scan data, never a job failure.
				o.logger.Warn("component soft failure",
					zap.String("job_id", id),
					zap.String("component", string(c.ID())),
					zap.Error(err),
				)
			}
			mu.Lock()
			outputs = append(outputs, findings)
			mu.Unlock()
			o.advanceProgress(id, weight)
		}(component)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		mu.Lock()
		report := finding.Aggregate(outputs...)
		mu.Unlock()
		report.Target = target
		report.ScanType = string(mode)
		report.Timestamp = started.UTC()
		report.DurationSeconds = time.Since(started).Seconds()
		o.finalize(id, func(j *Job) {
			j.Status = StatusCompleted
			j.Report = &report
		})
		o.logger.Info("scan completed",
			zap.String("job_id", id),
			zap.Int("total_issues", report.Summary.TotalIssues),
			zap.Float64("duration_seconds", report.DurationSeconds),
		)
	case <-ctx.Done():
		// Hard fail on ceiling expiry: in-flight probes are abandoned and no
		// partial report is exposed.
		o.finalize(id, func(j *Job) {
			j.Status = StatusFailed
			j.Error = &JobError{
				Code:    secerrors.ReasonTimeout,
				Message: fmt.Sprintf("scan exceeded the %s ceiling of %s", mode, ceiling),
			}
		})
		o.logger.Warn("scan timed out",
			zap.String("job_id", id),
			zap.String("target", target),
			zap.Duration("ceiling", ceiling),
		)
	}
}

// advanceProgress adds a component's weight while the job is still running.
// Progress stays below 100 until a terminal transition sets it.
func (o *Orchestrator) advanceProgress(id string, weight int) {
	_, err := o.store.Update(id, func(j *Job) {
		if j.Status != StatusRunning {
			return
		}
		p := j.Progress + weight
		if p > 99 {
			p = 99
		}
		j.Progress = p
	})
	if err != nil && !errors.Is(err, secerrors.ErrJobNotFound) {
		o.logger.Error("failed to update progress", zap.String("job_id", id), zap.Error(err))
	}
}

// finalize applies the terminal mutation, stamping completion time and full
// progress. A storage fault during a completed-transition downgrades the job
// to failed on a best-effort retry.
func (o *Orchestrator) finalize(id string, mutate func(*Job)) {
	now := time.Now().UTC()
	_, err := o.store.Update(id, func(j *Job) {
		if j.Status.Terminal() {
			return
		}
		mutate(j)
		j.Progress = 100
		j.CompletedAt = &now
	})
	if err == nil {
		return
	}
	o.logger.Error("failed to finalize job", zap.String("job_id", id), zap.Error(err))
	_, retryErr := o.store.Update(id, func(j *Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = StatusFailed
		j.Report = nil
		j.Error = &JobError{Code: secerrors.ReasonStorage, Message: "job record could not be persisted"}
		j.Progress = 100
		j.CompletedAt = &now
	})
	if retryErr != nil {
		o.logger.Error("failed to record storage failure", zap.String("job_id", id), zap.Error(retryErr))
	}
}

func parseComponents(raw []string) ([]scanner.ComponentID, error) {
	if len(raw) == 0 {
		return append([]scanner.ComponentID(nil), scanner.DefaultComponents...), nil
	}
	seen := make(map[scanner.ComponentID]struct{}, len(raw))
	components := make([]scanner.ComponentID, 0, len(raw))
	for _, s := range raw {
		id, err := scanner.ParseComponentID(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", secerrors.ErrUnknownComponent, s)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		components = append(components, id)
	}
	if len(components) == 0 {
		return nil, secerrors.ErrNoComponents
	}
	return components, nil
}

func hasComponent(components []scanner.ComponentID, id scanner.ComponentID) bool {
	for _, c := range components {
		if c == id {
			return true
		}
	}
	return false
}
