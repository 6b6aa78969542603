package template

import (
	"encoding/json"
	"testing"
)

func TestPortBuilder_Defaults(t *testing.T) {
	p, err := NewPort("x", PortInt).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Scope != ScopeGlobal {
		t.Errorf("Scope = %q, want GLOBAL", p.Scope)
	}
	if p.Nullable {
		t.Error("Nullable should default to false")
	}
	if p.Groups == nil || p.Validators == nil {
		t.Error("Groups/Validators should default to empty slices, not nil")
	}
}

func TestPortBuilder_ListRequiresChild(t *testing.T) {
	b := &PortBuilder{port: Port{Key: "xs", Kind: PortList}}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error for LIST port with no children")
	}

	child := NewPort("item", PortString).MustBuild()
	p, err := NewListPort("xs", child).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(p.Children) != 1 || p.Children[0].Key != "item" {
		t.Fatalf("Children = %+v", p.Children)
	}
}

func TestPortBuilder_StructureRequiresIdentifier(t *testing.T) {
	b := &PortBuilder{port: Port{Key: "s", Kind: PortStructure}}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error for STRUCTURE port with no identifier")
	}

	p, err := NewStructurePort("s", "@svc/Thing").Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Identifier != "@svc/Thing" {
		t.Fatalf("Identifier = %q", p.Identifier)
	}
}

func TestTemplateBuilder_RequiresNameAndKind(t *testing.T) {
	if _, err := NewTemplate("", KindFunction).Build(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := NewTemplate("do_thing", Kind("BOGUS")).Build(); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestTemplateBuilder_DuplicateArgumentKey(t *testing.T) {
	_, err := NewTemplate("do_thing", KindFunction).
		Argument(NewPort("x", PortInt)).
		Argument(NewPort("x", PortString)).
		Build()
	if err == nil {
		t.Fatal("expected error for duplicate argument key")
	}
}

func TestTemplateBuilder_RoundTrip(t *testing.T) {
	tmpl, err := NewTemplate("resize_image", KindFunction).
		Description("resizes an image").
		Argument(NewPort("width", PortInt).Default(100)).
		Argument(NewPort("path", PortString)).
		Return(NewStructurePort("result", "@images/Resized")).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	encoded, err := json.Marshal(tmpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Template
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	reencoded, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}

	if string(encoded) != string(reencoded) {
		t.Fatalf("round-trip mismatch:\n  first:  %s\n  second: %s", encoded, reencoded)
	}
}
