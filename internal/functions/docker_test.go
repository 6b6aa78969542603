package functions

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nordaxis/hubagent/internal/app"
	"github.com/nordaxis/hubagent/internal/docker"
	"github.com/nordaxis/hubagent/internal/registry"
	"github.com/nordaxis/hubagent/internal/template"
)

type fakeDockerAPI struct {
	containers  []docker.ContainerSummary
	actionCalls []string
	actionErr   error
}

func (f *fakeDockerAPI) ListContainers(ctx context.Context) ([]docker.ContainerSummary, error) {
	return f.containers, nil
}
func (f *fakeDockerAPI) InspectContainer(ctx context.Context, id string) (docker.ContainerSummary, error) {
	return docker.ContainerSummary{}, nil
}
func (f *fakeDockerAPI) ContainerAction(ctx context.Context, id, action string) error {
	f.actionCalls = append(f.actionCalls, id+":"+action)
	return f.actionErr
}
func (f *fakeDockerAPI) ExecContainer(ctx context.Context, id string, cmd []string, timeoutSeconds int) (int, string, error) {
	return 0, "", nil
}
func (f *fakeDockerAPI) Close() error { return nil }

func TestRegisterDocker_ListContainers(t *testing.T) {
	api := &fakeDockerAPI{containers: []docker.ContainerSummary{{ID: "c1", Name: "web"}}}
	reg := registry.New(nil)
	if err := RegisterDocker(reg, &app.Context{Extra: api}, map[string]string{"docker.list_containers": "TPL-LIST"}); err != nil {
		t.Fatalf("RegisterDocker: %v", err)
	}

	exec := reg.Lookup("TPL-LIST")
	if exec == nil {
		t.Fatal("TPL-LIST not registered")
	}
	out, err := exec.Execute(context.Background(), "{}")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var result struct {
		Containers []docker.ContainerSummary `json:"containers"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Containers) != 1 || result.Containers[0].ID != "c1" {
		t.Fatalf("Containers = %+v", result.Containers)
	}
}

func TestRegisterDocker_ContainerAction(t *testing.T) {
	api := &fakeDockerAPI{}
	reg := registry.New(nil)
	if err := RegisterDocker(reg, &app.Context{Extra: api}, map[string]string{"docker.container_action": "TPL-ACTION"}); err != nil {
		t.Fatalf("RegisterDocker: %v", err)
	}

	exec := reg.Lookup("TPL-ACTION")
	if exec == nil {
		t.Fatal("TPL-ACTION not registered")
	}
	out, err := exec.Execute(context.Background(), `{"id":"c1","action":"restart"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(api.actionCalls) != 1 || api.actionCalls[0] != "c1:restart" {
		t.Fatalf("actionCalls = %v", api.actionCalls)
	}
	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.OK {
		t.Fatal("expected ok=true")
	}
}

func TestDockerTemplates_RoundTrip(t *testing.T) {
	tmpls := DockerTemplates()
	for name, tmpl := range tmpls {
		encoded, err := json.Marshal(tmpl)
		if err != nil {
			t.Fatalf("%s: marshal: %v", name, err)
		}
		var decoded template.Template
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			t.Fatalf("%s: unmarshal check: %v", name, err)
		}
		reencoded, err := json.Marshal(decoded)
		if err != nil {
			t.Fatalf("%s: re-marshal: %v", name, err)
		}
		if string(encoded) != string(reencoded) {
			t.Fatalf("%s: round-trip mismatch:\n  first:  %s\n  second: %s", name, encoded, reencoded)
		}
	}
}
