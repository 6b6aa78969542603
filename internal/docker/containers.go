package docker

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/client"
)

// ContainerSummary is the trimmed container shape returned to templates —
// only the fields a hub-side caller plausibly needs, not the full Docker
// inspect response.
type ContainerSummary struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Image  string            `json:"image"`
	State  string            `json:"state"`
	Status string            `json:"status"`
	Labels map[string]string `json:"labels,omitempty"`
}

// ListContainers returns all containers regardless of state.
func (c *Client) ListContainers(ctx context.Context) ([]ContainerSummary, error) {
	result, err := c.api.ContainerList(ctx, client.ContainerListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := make([]ContainerSummary, 0, len(result.Items))
	for _, item := range result.Items {
		name := ""
		if len(item.Names) > 0 {
			name = item.Names[0]
		}
		out = append(out, ContainerSummary{
			ID:     item.ID,
			Name:   name,
			Image:  item.Image,
			State:  item.State,
			Status: item.Status,
			Labels: item.Labels,
		})
	}
	return out, nil
}

// InspectContainer returns a trimmed summary for a single container by ID or name.
func (c *Client) InspectContainer(ctx context.Context, id string) (ContainerSummary, error) {
	result, err := c.api.ContainerInspect(ctx, id, client.ContainerInspectOptions{})
	if err != nil {
		return ContainerSummary{}, fmt.Errorf("inspect container %s: %w", id, err)
	}
	summary := ContainerSummary{
		ID:    result.Container.ID,
		Name:  result.Container.Name,
		Image: result.Container.Config.Image,
	}
	if result.Container.State != nil {
		summary.State = result.Container.State.Status
		summary.Status = result.Container.State.Status
	}
	summary.Labels = result.Container.Config.Labels
	return summary, nil
}

// ContainerAction performs stop, start, or restart on a named container.
func (c *Client) ContainerAction(ctx context.Context, id, action string) error {
	switch action {
	case "stop":
		timeout := 10
		_, err := c.api.ContainerStop(ctx, id, client.ContainerStopOptions{Timeout: &timeout})
		return err
	case "start":
		_, err := c.api.ContainerStart(ctx, id, client.ContainerStartOptions{})
		return err
	case "restart":
		_, err := c.api.ContainerRestart(ctx, id, client.ContainerRestartOptions{})
		return err
	default:
		return fmt.Errorf("unknown container action %q", action)
	}
}

// ExecContainer runs a command inside a container and returns exit code + output.
func (c *Client) ExecContainer(ctx context.Context, id string, cmd []string, timeoutSeconds int) (int, string, error) {
	if timeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		defer cancel()
	}

	execResp, err := c.api.ExecCreate(ctx, id, client.ExecCreateOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return -1, "", fmt.Errorf("exec create: %w", err)
	}

	attachResp, err := c.api.ExecAttach(ctx, execResp.ID, client.ExecAttachOptions{})
	if err != nil {
		return -1, "", fmt.Errorf("exec attach: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader); err != nil {
		return -1, "", fmt.Errorf("exec read: %w", err)
	}
	if stderr.Len() > 0 {
		stdout.WriteString(stderr.String())
	}

	inspectResp, err := c.api.ExecInspect(ctx, execResp.ID, client.ExecInspectOptions{})
	if err != nil {
		return -1, stdout.String(), fmt.Errorf("exec inspect: %w", err)
	}

	return inspectResp.ExitCode, stdout.String(), nil
}
