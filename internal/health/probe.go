// Package health runs readiness checks against the service's backing
// dependencies.
package health

import (
	"context"
	"time"
)

type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Result struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ProbeRunner evaluates all registered checks with a shared deadline.
type ProbeRunner struct {
	checks  []Check
	timeout time.Duration
}

func NewProbeRunner(timeout time.Duration, checks ...Check) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ProbeRunner{checks: checks, timeout: timeout}
}

// Ready reports overall readiness plus the per-check results. A single
// failing dependency fails the probe.
func (p *ProbeRunner) Ready(ctx context.Context) (bool, []Result) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ready := true
	results := make([]Result, 0, len(p.checks))
	for _, check := range p.checks {
		result := Result{Name: check.Name, Status: "ok"}
		if err := check.Probe(ctx); err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			ready = false
		}
		results = append(results, result)
	}
	return ready, results
}
