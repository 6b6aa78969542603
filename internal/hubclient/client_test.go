package hubclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Request_SetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if got := req.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if got := req.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-123", srv.Client())
	resp, err := c.Request(context.Background(), Envelope{Query: "query{ok}"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !out.OK {
		t.Fatal("expected ok=true")
	}
}

func TestClient_Request_TransportErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", srv.Client())
	if _, err := c.Request(context.Background(), Envelope{Query: "q"}); err == nil {
		t.Fatal("Request: expected error on 500")
	}
}

func TestClient_GetProvision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var env Envelope
		json.NewDecoder(req.Body).Decode(&env)
		if env.OperationName != "GetProvision" {
			t.Errorf("OperationName = %q", env.OperationName)
		}
		if env.Variables["provision"] != float64(7) {
			t.Errorf("provision variable = %v", env.Variables["provision"])
		}
		w.Write([]byte(`{"data":{"provision":{"template":{"id":"TPL-1"}}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", srv.Client())
	res, err := c.GetProvision(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetProvision: %v", err)
	}
	if res.Template.ID != "TPL-1" {
		t.Fatalf("Template.ID = %q, want TPL-1", res.Template.ID)
	}
}

func TestClient_GetProvision_ApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"no such provision"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", srv.Client())
	if _, err := c.GetProvision(context.Background(), 999); err == nil {
		t.Fatal("GetProvision: expected application-level error")
	}
}
