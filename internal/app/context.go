// Package app holds the small per-service client bundle every registered
// function executes against. A Context is clonable: each clone shares the
// underlying HTTP client, which is itself internally thread-safe and
// connection-pooled.
package app

import "github.com/nordaxis/hubagent/internal/hubclient"

// Context bundles the clients a Registered Function needs to reach back
// out to the hub or to local collaborators (e.g. the Docker client wired
// up in internal/functions). It carries no mutable state of its own.
type Context struct {
	Hub *hubclient.Client

	// Extra carries per-domain clients (e.g. a *docker.Client) that
	// individual function packages type-assert out of. Kept as `any` here
	// so this package never needs to import every domain it might serve.
	Extra any
}

// Clone returns a shallow copy of c. Clones share the same underlying
// clients; nothing in Context itself requires deep copying.
func (c Context) Clone() Context {
	return c
}

// WithExtra returns a copy of c carrying extra as its Extra field.
func (c Context) WithExtra(extra any) Context {
	c.Extra = extra
	return c
}
