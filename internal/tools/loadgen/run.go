// Package loadgen drives synthetic traffic against a running instance,
// mostly to light up metrics and rate-limit paths during smoke checks.
package loadgen

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Profile     string // "health", "auth" or "mixed"
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int
	Failures      int
	StatusClasses map[string]int
}

// Run fires requests until the duration elapses and aggregates status
// classes. Request failures count, they do not abort the run.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 5 * time.Second
	}
	profile := normalizeProfile(cfg.Profile)

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	paths := profilePaths(profile)
	rng := rand.New(rand.NewSource(cfg.Seed))
	var mu sync.Mutex
	result := &Result{StatusClasses: make(map[string]int)}
	client := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return result, nil
		case <-ticker.C:
		}
		mu.Lock()
		path := paths[rng.Intn(len(paths))]
		mu.Unlock()
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+path, nil)
			if err != nil {
				return nil
			}
			resp, err := client.Do(req)
			mu.Lock()
			defer mu.Unlock()
			result.TotalRequests++
			if err != nil {
				result.Failures++
				return nil
			}
			_ = resp.Body.Close()
			result.StatusClasses[classifyStatusClass(resp.StatusCode)]++
			return nil
		})
	}
}

func profilePaths(profile string) []string {
	switch profile {
	case "health":
		return []string{"/health/live", "/health/ready"}
	case "auth":
		return []string{"/api/v1/me", "/api/v1/workspaces"}
	default:
		return []string{"/health/live", "/health/ready", "/api/v1/me", "/api/v1/workspaces"}
	}
}

func normalizeProfile(profile string) string {
	profile = strings.ToLower(strings.TrimSpace(profile))
	switch profile {
	case "health", "auth", "mixed":
		return profile
	default:
		return "mixed"
	}
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}
