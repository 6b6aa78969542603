package runtime

import (
	"encoding/json"
	"sync"
	"time"
)

// assignment is an in-flight execution: created when an ASSIGN frame
// arrives, destroyed when a terminal event (DONE or CRITICAL) is emitted.
type assignment struct {
	id        int64
	provision int64
	args      map[string]json.RawMessage
	startedAt time.Time
}

// assignmentTable tracks assignments currently executing, keyed by
// assignation id; len reports how many are live. It does not gate
// dispatch — the hub, not this agent, is the source of truth for
// assignment ids.
type assignmentTable struct {
	mu      sync.Mutex
	entries map[int64]*assignment
}

func newAssignmentTable() *assignmentTable {
	return &assignmentTable{entries: make(map[int64]*assignment)}
}

func (t *assignmentTable) start(a *assignment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[a.id] = a
}

func (t *assignmentTable) finish(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

func (t *assignmentTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// provisionAdoption records provisions the hub told this agent about
// directly in the INIT handshake, or via a later PROVIDE/UNPROVIDE frame.
// Provisions listed in INIT are already active and require no further
// acknowledgement.
type provisionAdoption struct {
	mu     sync.RWMutex
	active map[int64]bool
}

func newProvisionAdoption() *provisionAdoption {
	return &provisionAdoption{active: make(map[int64]bool)}
}

// adopt marks provisions (typically from an INIT frame's provisions list)
// as already active.
func (p *provisionAdoption) adopt(provisions []int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range provisions {
		p.active[id] = true
	}
}

func (p *provisionAdoption) provide(provision int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[provision] = true
}

// unprovide releases every tracked provision. UNPROVIDE frames carry no
// provision id on the wire, so the agent cannot selectively release one
// binding and instead treats UNPROVIDE as "the hub's adoption state has
// changed, re-resolve on next dispatch" by clearing the set.
func (p *provisionAdoption) unprovide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = make(map[int64]bool)
}

func (p *provisionAdoption) isActive(provision int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active[provision]
}
