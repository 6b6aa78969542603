package template

import "fmt"

// PortBuilder fluently constructs a Port with safe wire defaults: scope
// defaults to GLOBAL, nullable defaults to false, and collections default
// to empty slices, never null on the wire.
type PortBuilder struct {
	port Port
}

// NewPort starts a port builder for a leaf kind (INT, STRING). Use
// NewListPort or NewStructurePort for LIST and STRUCTURE respectively,
// which carry additional required state.
func NewPort(key string, kind PortKind) *PortBuilder {
	return &PortBuilder{port: Port{
		Key:        key,
		Kind:       kind,
		Scope:      ScopeGlobal,
		Groups:     []string{},
		Validators: []string{},
	}}
}

// NewListPort starts a builder for a LIST port. child describes the single
// element type every LIST port must carry.
func NewListPort(key string, child Port) *PortBuilder {
	b := NewPort(key, PortList)
	b.port.Children = []Port{child}
	return b
}

// NewStructurePort starts a builder for a STRUCTURE port. identifier must
// be namespaced like "@<service>/<type>".
func NewStructurePort(key, identifier string) *PortBuilder {
	b := NewPort(key, PortStructure)
	b.port.Identifier = identifier
	return b
}

func (b *PortBuilder) Scope(s Scope) *PortBuilder            { b.port.Scope = s; return b }
func (b *PortBuilder) Nullable(n bool) *PortBuilder          { b.port.Nullable = n; return b }
func (b *PortBuilder) Default(v any) *PortBuilder            { b.port.Default = v; return b }
func (b *PortBuilder) Label(s string) *PortBuilder           { b.port.Label = s; return b }
func (b *PortBuilder) Description(s string) *PortBuilder     { b.port.Description = s; return b }
func (b *PortBuilder) Groups(g ...string) *PortBuilder       { b.port.Groups = append([]string{}, g...); return b }
func (b *PortBuilder) Validators(v ...string) *PortBuilder   { b.port.Validators = append([]string{}, v...); return b }
func (b *PortBuilder) AssignWidget(s string) *PortBuilder    { b.port.AssignWidget = s; return b }
func (b *PortBuilder) ReturnWidget(s string) *PortBuilder    { b.port.ReturnWidget = s; return b }

// Build validates and returns the constructed Port.
func (b *PortBuilder) Build() (Port, error) {
	if b.port.Key == "" {
		return Port{}, fmt.Errorf("template: port requires a non-empty key")
	}
	switch b.port.Kind {
	case PortInt, PortString:
		// no children permitted
	case PortList:
		if len(b.port.Children) != 1 {
			return Port{}, fmt.Errorf("template: LIST port %q requires exactly one child descriptor", b.port.Key)
		}
	case PortStructure:
		if b.port.Identifier == "" {
			return Port{}, fmt.Errorf("template: STRUCTURE port %q requires an identifier", b.port.Key)
		}
	default:
		return Port{}, fmt.Errorf("template: unknown port kind %q", b.port.Kind)
	}
	return b.port, nil
}

// MustBuild is Build but panics on validation failure, for use with
// compile-time-constant port descriptions.
func (b *PortBuilder) MustBuild() Port {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// TemplateBuilder fluently constructs a Template with safe wire defaults.
type TemplateBuilder struct {
	tmpl Template
	err  error
}

// NewTemplate starts a builder for a template of the given name and kind —
// the only two fields a Template requires at minimum.
func NewTemplate(name string, kind Kind) *TemplateBuilder {
	return &TemplateBuilder{tmpl: Template{
		Name:        name,
		Kind:        kind,
		Arguments:   []Port{},
		Returns:     []Port{},
		Interfaces:  []string{},
		TestFor:     []string{},
		Collections: []string{},
	}}
}

func (b *TemplateBuilder) Description(s string) *TemplateBuilder {
	b.tmpl.Description = s
	return b
}

func (b *TemplateBuilder) Dev(v bool) *TemplateBuilder {
	b.tmpl.Dev = v
	return b
}

func (b *TemplateBuilder) Stateful(v bool) *TemplateBuilder {
	b.tmpl.Stateful = v
	return b
}

func (b *TemplateBuilder) Interfaces(names ...string) *TemplateBuilder {
	b.tmpl.Interfaces = append([]string{}, names...)
	return b
}

func (b *TemplateBuilder) TestFor(names ...string) *TemplateBuilder {
	b.tmpl.TestFor = append([]string{}, names...)
	return b
}

func (b *TemplateBuilder) Collections(names ...string) *TemplateBuilder {
	b.tmpl.Collections = append([]string{}, names...)
	return b
}

// Argument appends an argument port built by a *PortBuilder, surfacing any
// build error at Build time rather than forcing the caller to check it
// inline.
func (b *TemplateBuilder) Argument(pb *PortBuilder) *TemplateBuilder {
	p, err := pb.Build()
	if err != nil {
		b.err = err
		return b
	}
	if err := checkUniqueKey(b.tmpl.Arguments, p.Key); err != nil {
		b.err = err
		return b
	}
	b.tmpl.Arguments = append(b.tmpl.Arguments, p)
	return b
}

// Return appends a return port built by a *PortBuilder.
func (b *TemplateBuilder) Return(pb *PortBuilder) *TemplateBuilder {
	p, err := pb.Build()
	if err != nil {
		b.err = err
		return b
	}
	if err := checkUniqueKey(b.tmpl.Returns, p.Key); err != nil {
		b.err = err
		return b
	}
	b.tmpl.Returns = append(b.tmpl.Returns, p)
	return b
}

func checkUniqueKey(ports []Port, key string) error {
	for _, p := range ports {
		if p.Key == key {
			return fmt.Errorf("template: duplicate port key %q", key)
		}
	}
	return nil
}

// Build returns the constructed Template, or the first error encountered
// while appending a port.
func (b *TemplateBuilder) Build() (Template, error) {
	if b.err != nil {
		return Template{}, b.err
	}
	if b.tmpl.Name == "" {
		return Template{}, fmt.Errorf("template: name is required")
	}
	switch b.tmpl.Kind {
	case KindFunction, KindGenerator:
	default:
		return Template{}, fmt.Errorf("template: unknown kind %q", b.tmpl.Kind)
	}
	return b.tmpl, nil
}
