package registry

import (
	"context"
	"testing"
)

func echoExecutor(ctx context.Context, argsJSON string) (string, error) {
	return argsJSON, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New(nil)
	r.Register("TPL-1", ExecutorFunc(echoExecutor), "descriptor-1")

	e := r.Lookup("TPL-1")
	if e == nil {
		t.Fatal("Lookup(TPL-1) = nil, want executor")
	}
	out, err := e.Execute(context.Background(), `{"x":1}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != `{"x":1}` {
		t.Fatalf("Execute result = %q", out)
	}
	if d := r.Descriptor("TPL-1"); d != "descriptor-1" {
		t.Fatalf("Descriptor = %v", d)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_LookupMiss(t *testing.T) {
	r := New(nil)
	if e := r.Lookup("nope"); e != nil {
		t.Fatal("Lookup of unregistered id should return nil")
	}
}

func TestRegistry_LastWriterWins(t *testing.T) {
	r := New(nil)
	r.Register("TPL-1", ExecutorFunc(func(ctx context.Context, s string) (string, error) {
		return "first", nil
	}), "d1")
	r.Register("TPL-1", ExecutorFunc(func(ctx context.Context, s string) (string, error) {
		return "second", nil
	}), "d2")

	out, err := r.Lookup("TPL-1").Execute(context.Background(), "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "second" {
		t.Fatalf("Execute result = %q, want second", out)
	}
	if d := r.Descriptor("TPL-1"); d != "d2" {
		t.Fatalf("Descriptor = %v, want d2", d)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New(nil)
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		go func(n int) {
			r.Register("TPL", ExecutorFunc(echoExecutor), n)
			r.Lookup("TPL")
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 50; i++ {
		<-done
	}
	if r.Lookup("TPL") == nil {
		t.Fatal("expected TPL to be registered after concurrent writers")
	}
}
