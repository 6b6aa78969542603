// Package functions holds example registered functions: small adapters
// that close over a domain client and satisfy registry.Executor,
// demonstrating end-to-end dispatch through the Function Registry and the
// Template/Port Builders.
package functions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nordaxis/hubagent/internal/app"
	"github.com/nordaxis/hubagent/internal/docker"
	"github.com/nordaxis/hubagent/internal/registry"
	"github.com/nordaxis/hubagent/internal/template"
)

// DockerTemplates builds the template descriptors for every docker.*
// function this package registers, keyed by the local name used to
// register them with the hub via hubclient.CreateTemplate.
func DockerTemplates() map[string]template.Template {
	listContainers := template.NewTemplate("docker.list_containers", template.KindFunction).
		Description("Lists containers on the agent's Docker host.").
		Return(template.NewListPort("containers", template.NewStructurePort("item", "@docker/ContainerSummary").MustBuild())).
		MustBuild()

	containerAction := template.NewTemplate("docker.container_action", template.KindFunction).
		Description("Performs stop, start, or restart on a named container.").
		Argument(template.NewPort("id", template.PortString)).
		Argument(template.NewPort("action", template.PortString)).
		Return(template.NewPort("ok", template.PortInt)).
		MustBuild()

	return map[string]template.Template{
		"docker.list_containers":  listContainers,
		"docker.container_action": containerAction,
	}
}

// RegisterDocker wires docker.* executors into reg, using the hub-assigned
// template-ids in templateIDs (keyed the same way DockerTemplates is) and
// the docker.API (a *docker.Client in production) carried in appCtx.Extra.
func RegisterDocker(reg *registry.Registry, appCtx *app.Context, templateIDs map[string]string) error {
	api, ok := appCtx.Extra.(docker.API)
	if !ok {
		return fmt.Errorf("functions: RegisterDocker: app.Context.Extra is %T, want docker.API", appCtx.Extra)
	}
	if id, ok := templateIDs["docker.list_containers"]; ok {
		reg.Register(id, registry.ExecutorFunc(func(ctx context.Context, argsJSON string) (string, error) {
			return listContainers(ctx, api)
		}), DockerTemplates()["docker.list_containers"])
	}
	if id, ok := templateIDs["docker.container_action"]; ok {
		reg.Register(id, registry.ExecutorFunc(func(ctx context.Context, argsJSON string) (string, error) {
			return containerAction(ctx, api, argsJSON)
		}), DockerTemplates()["docker.container_action"])
	}
	return nil
}

func listContainers(ctx context.Context, api docker.API) (string, error) {
	containers, err := api.ListContainers(ctx)
	if err != nil {
		return "", fmt.Errorf("docker.list_containers: %w", err)
	}
	out, err := json.Marshal(map[string]any{"containers": containers})
	if err != nil {
		return "", fmt.Errorf("docker.list_containers: encode result: %w", err)
	}
	return string(out), nil
}

func containerAction(ctx context.Context, api docker.API, argsJSON string) (string, error) {
	var args struct {
		ID     string `json:"id"`
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("docker.container_action: decode arguments: %w", err)
	}
	if err := api.ContainerAction(ctx, args.ID, args.Action); err != nil {
		return "", fmt.Errorf("docker.container_action: %w", err)
	}
	out, err := json.Marshal(map[string]any{"ok": true})
	if err != nil {
		return "", fmt.Errorf("docker.container_action: encode result: %w", err)
	}
	return string(out), nil
}
