// Package bootstrap implements the Config Resolver: the multi-phase
// handshake that turns an application manifest into a set of hub-issued
// service descriptors plus a bearer token, using a cached token file when
// valid and a device-code grant otherwise.
package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nordaxis/hubagent/internal/clock"
	"github.com/nordaxis/hubagent/internal/manifest"
	"github.com/nordaxis/hubagent/internal/metrics"
)

// Resolver runs the config-resolution state machine against a single hub.
type Resolver struct {
	HubBaseURL   string
	TokenPath    string
	PollInterval time.Duration
	PollBudget   int
	HTTPClient   *http.Client
	Log          *slog.Logger

	// Clock drives the poll loop's waits. Defaults to clock.Real{}; tests
	// substitute a clock whose After fires immediately to avoid real waits
	// while still exercising the same After-channel code path.
	Clock clock.Clock
}

// NewResolver creates a Resolver with default poll interval (1s) and
// budget (10 polls).
func NewResolver(hubBaseURL, tokenPath string, log *slog.Logger) *Resolver {
	return &Resolver{
		HubBaseURL:   hubBaseURL,
		TokenPath:    tokenPath,
		PollInterval: time.Second,
		PollBudget:   10,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		Log:          log,
		Clock:        clock.Real{},
	}
}

func (r *Resolver) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-r.Clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startResponse is the body of POST /f/start/.
type startResponse struct {
	Code   string `json:"code"`
	Status string `json:"status"`
}

// challengeResponse is the body of POST /f/challenge/.
type challengeResponse struct {
	Status string `json:"status"`
	Token  string `json:"token,omitempty"`
}

// claimResponse is the body of POST /f/claim/.
type claimResponse struct {
	Config ServiceDescriptors `json:"config"`
}

// Resolve runs CheckCache -> Claim -> Start -> Poll -> Persist -> Claim,
// returning the resolved service descriptors or a wrapped sentinel error
// from errors.go.
func (r *Resolver) Resolve(ctx context.Context, m *manifest.Manifest) (ServiceDescriptors, error) {
	// Phase 1-2: CheckCache + Claim. A cache hit short-circuits Start
	// entirely — no device-code flow is issued when the cache claims
	// successfully.
	if cached, ok, err := readTokenFile(r.TokenPath); err == nil && ok {
		cfg, claimErr := r.claim(ctx, cached)
		if claimErr == nil {
			metrics.BootstrapAttemptsTotal.WithLabelValues("cache_claim", "success").Inc()
			r.logf("resolved config from cached token")
			return cfg, nil
		}
		metrics.BootstrapAttemptsTotal.WithLabelValues("cache_claim", "failure").Inc()
		r.logf("cached token claim failed, falling back to device code: %v", claimErr)
		// The cached token is never proactively deleted here — if it was
		// permanently revoked, the device-code flow below simply runs
		// once more than strictly necessary.
	}

	// Phase 3: Start.
	start, err := r.start(ctx, m)
	if err != nil {
		metrics.BootstrapAttemptsTotal.WithLabelValues("start", "failure").Inc()
		return nil, fmt.Errorf("%w: start: %v", ErrConfigUnavailable, err)
	}
	metrics.BootstrapAttemptsTotal.WithLabelValues("start", "success").Inc()

	operatorURL := fmt.Sprintf("%s/f/configure/?grant=device_code&device_code=%s", r.HubBaseURL, start.Code)
	r.logf("complete device authorization at %s", operatorURL)

	// Phase 4: Poll.
	token, err := r.poll(ctx, start.Code)
	if err != nil {
		metrics.BootstrapAttemptsTotal.WithLabelValues("poll", "failure").Inc()
		return nil, err
	}
	metrics.BootstrapAttemptsTotal.WithLabelValues("poll", "success").Inc()

	// Phase 5: Persist.
	if err := writeTokenFile(r.TokenPath, token); err != nil {
		return nil, fmt.Errorf("%w: persist token: %v", ErrConfigUnavailable, err)
	}

	// Phase 6: Claim(new-token) — fatal on failure.
	cfg, err := r.claim(ctx, token)
	if err != nil {
		metrics.BootstrapAttemptsTotal.WithLabelValues("post_grant_claim", "failure").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPostGrantClaimFailed, err)
	}
	metrics.BootstrapAttemptsTotal.WithLabelValues("post_grant_claim", "success").Inc()
	return cfg, nil
}

func (r *Resolver) claim(ctx context.Context, token string) (ServiceDescriptors, error) {
	var resp claimResponse
	body := map[string]string{"token": token}
	if err := r.postJSON(ctx, "/f/claim/", body, &resp); err != nil {
		return nil, err
	}
	if resp.Config == nil {
		return nil, fmt.Errorf("claim response missing config")
	}
	return resp.Config, nil
}

func (r *Resolver) start(ctx context.Context, m *manifest.Manifest) (startResponse, error) {
	var resp startResponse
	body := map[string]any{
		"manifest":              m,
		"requested_client_kind": "development",
		// A client-generated request id lets the hub de-duplicate a
		// /f/start/ call retried after a dropped response without
		// issuing a second device code for the same attempt.
		"request_id": uuid.NewString(),
	}
	if err := r.postJSON(ctx, "/f/start/", body, &resp); err != nil {
		return startResponse{}, err
	}
	if resp.Code == "" {
		return startResponse{}, fmt.Errorf("start response missing code")
	}
	return resp, nil
}

func (r *Resolver) poll(ctx context.Context, code string) (string, error) {
	for attempt := 1; attempt <= r.PollBudget; attempt++ {
		if err := r.wait(ctx, r.PollInterval); err != nil {
			return "", fmt.Errorf("poll wait: %w", err)
		}

		var resp challengeResponse
		body := map[string]string{"code": code}
		if err := r.postJSON(ctx, "/f/challenge/", body, &resp); err != nil {
			return "", fmt.Errorf("%w: challenge attempt %d: %v", ErrConfigUnavailable, attempt, err)
		}

		if resp.Status == "granted" {
			if resp.Token == "" {
				return "", ErrMalformedGrant
			}
			return resp.Token, nil
		}
		r.logf("device code pending (attempt %d/%d)", attempt, r.PollBudget)
	}
	return "", ErrDeviceCodeTimeout
}

func (r *Resolver) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.HubBaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %s: %s", path, resp.Status, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response %s: %w", path, err)
		}
	}
	return nil
}

func (r *Resolver) logf(msg string, args ...any) {
	if r.Log == nil {
		return
	}
	r.Log.Info(fmt.Sprintf(msg, args...))
}
