package oauthcred

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nordaxis/hubagent/internal/bootstrap"
)

func TestExchanger_Token(t *testing.T) {
	var tokenRequests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tokenRequests++
		if err := req.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := req.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc.def.ghi","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	desc := bootstrap.AuthDescriptor{
		BaseURL:      srv.URL,
		ClientID:     "agent-1",
		ClientSecret: "shh",
		Scopes:       []string{"exec"},
	}

	ex, err := New(context.Background(), desc, srv.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tok, err := ex.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "abc.def.ghi" {
		t.Fatalf("Token = %q, want abc.def.ghi", tok)
	}

	// A second call within the token's lifetime must reuse the cached
	// token rather than hitting the token endpoint again.
	if _, err := ex.Token(context.Background()); err != nil {
		t.Fatalf("Token (second call): %v", err)
	}
	if tokenRequests != 1 {
		t.Fatalf("token endpoint hit %d times, want 1", tokenRequests)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), bootstrap.AuthDescriptor{BaseURL: "https://auth.example"}, nil)
	if err == nil {
		t.Fatal("New: expected error for missing client credentials")
	}
}

func TestNew_MissingBaseURL(t *testing.T) {
	_, err := New(context.Background(), bootstrap.AuthDescriptor{ClientID: "x", ClientSecret: "y"}, nil)
	if err == nil {
		t.Fatal("New: expected error for missing base_url")
	}
}
