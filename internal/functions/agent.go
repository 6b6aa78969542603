package functions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nordaxis/hubagent/internal/app"
	"github.com/nordaxis/hubagent/internal/registry"
	"github.com/nordaxis/hubagent/internal/template"
)

// AgentTemplates builds the template descriptors for this agent's
// self-management functions.
func AgentTemplates() map[string]template.Template {
	reannounce := template.NewTemplate("agent.reannounce", template.KindFunction).
		Description("Re-registers this agent instance with the hub, refreshing its liveness record without restarting the control channel.").
		Argument(template.NewPort("identifier", template.PortString)).
		Argument(template.NewPort("version", template.PortString)).
		Return(template.NewPort("instance_id", template.PortString)).
		MustBuild()

	return map[string]template.Template{
		"agent.reannounce": reannounce,
	}
}

// RegisterAgent wires agent.* executors into reg using appCtx.Hub, the
// same hub client the runtime uses for GetProvision lookups.
func RegisterAgent(reg *registry.Registry, appCtx *app.Context, templateIDs map[string]string) {
	if id, ok := templateIDs["agent.reannounce"]; ok {
		reg.Register(id, registry.ExecutorFunc(func(ctx context.Context, argsJSON string) (string, error) {
			return reannounce(ctx, appCtx, argsJSON)
		}), AgentTemplates()["agent.reannounce"])
	}
}

func reannounce(ctx context.Context, appCtx *app.Context, argsJSON string) (string, error) {
	var args struct {
		Identifier string `json:"identifier"`
		Version    string `json:"version"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("agent.reannounce: decode arguments: %w", err)
	}
	result, err := appCtx.Hub.EnsureAgent(ctx, args.Identifier, args.Version)
	if err != nil {
		return "", fmt.Errorf("agent.reannounce: %w", err)
	}
	out, err := json.Marshal(map[string]any{"instance_id": result.InstanceID})
	if err != nil {
		return "", fmt.Errorf("agent.reannounce: encode result: %w", err)
	}
	return string(out), nil
}
