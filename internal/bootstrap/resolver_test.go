package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nordaxis/hubagent/internal/manifest"
)

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{
		Identifier: "test-agent",
		Version:    "0.0.1",
		Scopes:     []string{"exec"},
	}
}

// instantClock fires After immediately regardless of the requested
// duration, so poll-loop tests assert call counts and ordering without
// waiting out real device-code poll intervals.
type instantClock struct{ t time.Time }

func (c instantClock) Now() time.Time                  { return c.t }
func (c instantClock) Since(t time.Time) time.Duration { return c.t.Sub(t) }
func (c instantClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.t
	return ch
}

// S1: a valid cached token claims successfully and the device-code flow
// (/f/start/, /f/challenge/) is never invoked.
func TestResolve_CachedTokenHappyPath(t *testing.T) {
	var startCalls, challengeCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/f/claim/", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		if body["token"] != "cached-token" {
			t.Errorf("claim got token %q, want cached-token", body["token"])
		}
		json.NewEncoder(w).Encode(claimResponse{
			Config: ServiceDescriptors{
				"hub": json.RawMessage(`{"endpoint":"https://hub.example/api","control_url":"wss://hub.example/control"}`),
			},
		})
	})
	mux.HandleFunc("/f/start/", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&startCalls, 1)
		t.Error("unexpected call to /f/start/ on cache hit path")
	})
	mux.HandleFunc("/f/challenge/", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&challengeCalls, 1)
		t.Error("unexpected call to /f/challenge/ on cache hit path")
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.json")
	if err := writeTokenFile(tokenPath, "cached-token"); err != nil {
		t.Fatalf("seed token file: %v", err)
	}

	r := NewResolver(srv.URL, tokenPath, nil)
	r.Clock = instantClock{}

	cfg, err := r.Resolve(context.Background(), testManifest())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	hub, err := cfg.Hub("hub")
	if err != nil {
		t.Fatalf("decode hub descriptor: %v", err)
	}
	if hub.ControlURL != "wss://hub.example/control" {
		t.Errorf("control URL = %q", hub.ControlURL)
	}
	if atomic.LoadInt32(&startCalls) != 0 || atomic.LoadInt32(&challengeCalls) != 0 {
		t.Fatalf("device-code flow invoked on cache-hit path")
	}
}

// S2: no cached token, device-code grant goes pending twice before being
// granted on the third poll; the resulting token is persisted to disk.
func TestResolve_DeviceCodeGrant(t *testing.T) {
	var pollCount int32

	mux := http.NewServeMux()
	mux.HandleFunc("/f/start/", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(startResponse{Code: "abc123", Status: "pending"})
	})
	mux.HandleFunc("/f/challenge/", func(w http.ResponseWriter, req *http.Request) {
		n := atomic.AddInt32(&pollCount, 1)
		if n < 3 {
			json.NewEncoder(w).Encode(challengeResponse{Status: "pending"})
			return
		}
		json.NewEncoder(w).Encode(challengeResponse{Status: "granted", Token: "fresh-token"})
	})
	mux.HandleFunc("/f/claim/", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		if body["token"] != "fresh-token" {
			t.Errorf("claim got token %q, want fresh-token", body["token"])
		}
		json.NewEncoder(w).Encode(claimResponse{
			Config: ServiceDescriptors{
				"hub": json.RawMessage(`{"endpoint":"https://hub.example/api","control_url":"wss://hub.example/control"}`),
			},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.json")

	r := NewResolver(srv.URL, tokenPath, nil)
	r.Clock = instantClock{}

	cfg, err := r.Resolve(context.Background(), testManifest())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := cfg.Hub("hub"); err != nil {
		t.Fatalf("decode hub descriptor: %v", err)
	}
	if got := atomic.LoadInt32(&pollCount); got != 3 {
		t.Fatalf("poll count = %d, want 3", got)
	}

	persisted, ok, err := readTokenFile(tokenPath)
	if err != nil || !ok {
		t.Fatalf("readTokenFile after grant: ok=%v err=%v", ok, err)
	}
	if persisted != "fresh-token" {
		t.Fatalf("persisted token = %q, want fresh-token", persisted)
	}
}

// Boundary: the poll budget is exhausted (every challenge stays pending)
// and Resolve reports ErrDeviceCodeTimeout without ever persisting a token.
func TestResolve_DeviceCodeTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/f/start/", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(startResponse{Code: "abc123", Status: "pending"})
	})
	mux.HandleFunc("/f/challenge/", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(challengeResponse{Status: "pending"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.json")

	r := NewResolver(srv.URL, tokenPath, nil)
	r.Clock = instantClock{}
	r.PollBudget = 10

	_, err := r.Resolve(context.Background(), testManifest())
	if err == nil {
		t.Fatal("Resolve: expected error, got nil")
	}
	if !errors.Is(err, ErrDeviceCodeTimeout) {
		t.Fatalf("Resolve error = %v, want ErrDeviceCodeTimeout", err)
	}
	if _, ok, _ := readTokenFile(tokenPath); ok {
		t.Fatal("token file should not exist after a timed-out grant")
	}
}
