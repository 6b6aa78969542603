// Package registry implements the Function Registry: an in-memory
// mapping from hub-assigned template-id to a registered function and the
// template descriptor it was registered with.
package registry

import (
	"context"
	"log/slog"
	"sync"
)

// Executor is the type-erased shape every registered function implements:
// it accepts an application context and a JSON-encoded argument string and
// returns a JSON-encoded result string. A plain function value satisfies
// this via ExecutorFunc; so does any type with an Execute method of the
// same shape.
type Executor interface {
	Execute(ctx context.Context, argsJSON string) (string, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, argsJSON string) (string, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, argsJSON string) (string, error) {
	return f(ctx, argsJSON)
}

// entry pairs a registered executor with the descriptor it was announced
// to the hub under.
type entry struct {
	executor   Executor
	descriptor any
}

// Registry is a concurrency-safe template-id -> executor table. It is
// populated during startup registration and treated as immutable
// read-only state once the Agent Runtime begins dispatching.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	log     *slog.Logger
}

// New creates an empty Registry. log may be nil, in which case collision
// warnings are discarded.
func New(log *slog.Logger) *Registry {
	return &Registry{entries: make(map[string]entry), log: log}
}

// Register binds templateID to executor and its descriptor. A collision
// (registering the same template-id twice) is last-writer-wins: a
// programmer error, logged but never fatal.
func (r *Registry) Register(templateID string, executor Executor, descriptor any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[templateID]; exists && r.log != nil {
		r.log.Warn("template-id re-registered, overwriting previous executor",
			"template_id", templateID)
	}
	r.entries[templateID] = entry{executor: executor, descriptor: descriptor}
}

// Lookup returns the executor bound to templateID, or nil if none is
// registered.
func (r *Registry) Lookup(templateID string) Executor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[templateID]
	if !ok {
		return nil
	}
	return e.executor
}

// Descriptor returns the template descriptor templateID was registered
// with, or nil if none is registered.
func (r *Registry) Descriptor(templateID string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[templateID]
	if !ok {
		return nil
	}
	return e.descriptor
}

// Len reports the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
