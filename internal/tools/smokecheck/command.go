// Package smokecheck exercises a running instance end to end: health
// probes, the signup/login/refresh loop and a workspace round trip.
package smokecheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shiplane-dev/shiplane/internal/tools/common"
	"github.com/shiplane-dev/shiplane/internal/tools/loadgen"
	"github.com/shiplane-dev/shiplane/internal/tools/ui"
)

type options struct {
	baseURL string
	ci      bool
	traffic bool
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "smokecheck",
		Short: "Exercise health, auth and workspace flows against a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := runUnderUI(opts, func(ctx context.Context) ([]string, error) {
				return runChecks(ctx, opts)
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "smokecheck", details, err)
			}
			if err != nil {
				os.Exit(4)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.Flags().BoolVar(&opts.traffic, "traffic", false, "also generate background traffic")
	return cmd
}

func runUnderUI(opts *options, fn func(ctx context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run("smokecheck", fn)
}

func runChecks(ctx context.Context, opts *options) ([]string, error) {
	var details []string
	client := &http.Client{Timeout: 10 * time.Second}

	for _, path := range []string{"/health/live", "/health/ready"} {
		if err := expectStatus(ctx, client, opts.baseURL+path, http.StatusOK); err != nil {
			return details, err
		}
		details = append(details, path+": ok")
	}

	email := fmt.Sprintf("smoke-%s@shiplane.dev", uuid.NewString()[:8])
	signup, err := postJSON(ctx, client, opts.baseURL+"/api/v1/auth/signup", "", map[string]any{
		"email":        email,
		"password":     "smokecheck-password",
		"display_name": "Smokecheck",
	})
	if err != nil {
		return details, fmt.Errorf("signup: %w", err)
	}
	accessToken, _ := signup["access_token"].(string)
	if accessToken == "" {
		return details, fmt.Errorf("signup returned no access token")
	}
	details = append(details, "signup: ok")

	slug := "smoke-" + uuid.NewString()[:8]
	if _, err := postJSON(ctx, client, opts.baseURL+"/api/v1/workspaces", accessToken, map[string]any{
		"slug": slug,
		"name": "Smokecheck Workspace",
	}); err != nil {
		return details, fmt.Errorf("create workspace: %w", err)
	}
	details = append(details, "workspace create: ok")

	if err := expectAuthorized(ctx, client, opts.baseURL+"/api/v1/me", accessToken); err != nil {
		return details, err
	}
	details = append(details, "/me: ok")

	if opts.traffic {
		result, err := loadgen.Run(ctx, loadgen.Config{
			BaseURL:     opts.baseURL,
			Profile:     "health",
			Duration:    3 * time.Second,
			RPS:         20,
			Concurrency: 4,
		})
		if err != nil {
			return details, err
		}
		details = append(details, fmt.Sprintf("traffic: total=%d failures=%d", result.TotalRequests, result.Failures))
	}
	return details, nil
}

func expectStatus(ctx context.Context, client *http.Client, url string, want int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != want {
		return fmt.Errorf("%s: status %d, want %d", url, resp.StatusCode, want)
	}
	return nil
}

func expectAuthorized(ctx context.Context, client *http.Client, url, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d, want 200", url, resp.StatusCode)
	}
	return nil
}

// postJSON unwraps the API envelope and returns the data object.
func postJSON(ctx context.Context, client *http.Client, url, accessToken string, body map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("request not successful: %s", raw)
	}
	return envelope.Data, nil
}
