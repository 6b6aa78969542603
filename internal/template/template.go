// Package template implements the Template/Port Builders: fluent
// construction of well-formed template and port descriptors for
// registration with the hub.
package template

// Kind enumerates the closed set of template kinds.
type Kind string

const (
	KindFunction  Kind = "FUNCTION"
	KindGenerator Kind = "GENERATOR"
)

// PortKind enumerates the closed set of port kinds.
type PortKind string

const (
	PortInt       PortKind = "INT"
	PortString    PortKind = "STRING"
	PortList      PortKind = "LIST"
	PortStructure PortKind = "STRUCTURE"
)

// Scope controls the visibility of a port. GLOBAL is the safe default.
type Scope string

const (
	ScopeGlobal Scope = "GLOBAL"
	ScopeLocal  Scope = "LOCAL"
)

// Port is one argument or return slot on a Template.
type Port struct {
	Key          string   `json:"key"`
	Kind         PortKind `json:"kind"`
	Scope        Scope    `json:"scope"`
	Nullable     bool     `json:"nullable"`
	Default      any      `json:"default,omitempty"`
	Label        string   `json:"label,omitempty"`
	Description  string   `json:"description,omitempty"`
	Identifier   string   `json:"identifier,omitempty"`
	Groups       []string `json:"groups"`
	Validators   []string `json:"validators"`
	AssignWidget string   `json:"assign_widget,omitempty"`
	ReturnWidget string   `json:"return_widget,omitempty"`
	Children     []Port   `json:"children,omitempty"`
}

// Template is a stable description of a callable.
type Template struct {
	Name        string   `json:"name"`
	Kind        Kind     `json:"kind"`
	Description string   `json:"description,omitempty"`
	Arguments   []Port   `json:"arguments"`
	Returns     []Port   `json:"returns"`
	Interfaces  []string `json:"interfaces"`
	Dev         bool     `json:"dev"`
	Stateful    bool     `json:"stateful"`
	TestFor     []string `json:"test_for"`
	Collections []string `json:"collections"`
}
