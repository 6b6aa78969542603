package hubclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// EnsureAgentResult is the data payload of an EnsureAgent operation.
type EnsureAgentResult struct {
	InstanceID string `json:"instance_id"`
}

// EnsureAgent registers this agent instance with the hub, idempotently.
func (c *Client) EnsureAgent(ctx context.Context, identifier, version string) (EnsureAgentResult, error) {
	resp, err := c.Request(ctx, Envelope{
		OperationName: "EnsureAgent",
		Query:         ensureAgentQuery,
		Variables: map[string]any{
			"identifier": identifier,
			"version":    version,
		},
	})
	if err != nil {
		return EnsureAgentResult{}, err
	}
	if len(resp.Errors) > 0 {
		return EnsureAgentResult{}, fmt.Errorf("hubclient: EnsureAgent: %s", resp.Errors[0].Message)
	}
	var out struct {
		EnsureAgent EnsureAgentResult `json:"ensureAgent"`
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return EnsureAgentResult{}, fmt.Errorf("hubclient: decode EnsureAgent: %w", err)
	}
	return out.EnsureAgent, nil
}

// CreateTemplateResult is the data payload of a CreateTemplate operation.
type CreateTemplateResult struct {
	TemplateID string `json:"template_id"`
}

// CreateTemplate registers one template descriptor with the hub and
// returns the hub-assigned template-id, which becomes the dispatch key
// stored in the Function Registry.
func (c *Client) CreateTemplate(ctx context.Context, instanceID string, descriptor any) (CreateTemplateResult, error) {
	resp, err := c.Request(ctx, Envelope{
		OperationName: "CreateTemplate",
		Query:         createTemplateQuery,
		Variables: map[string]any{
			"instance_id": instanceID,
			"template":    descriptor,
		},
	})
	if err != nil {
		return CreateTemplateResult{}, err
	}
	if len(resp.Errors) > 0 {
		return CreateTemplateResult{}, fmt.Errorf("hubclient: CreateTemplate: %s", resp.Errors[0].Message)
	}
	var out struct {
		CreateTemplate CreateTemplateResult `json:"createTemplate"`
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return CreateTemplateResult{}, fmt.Errorf("hubclient: decode CreateTemplate: %w", err)
	}
	return out.CreateTemplate, nil
}

// ProvisionResult is the data payload of a GetProvision operation: it
// resolves a provision id to the template-id bound to it, the dispatch key
// the Agent Runtime needs to look up the registered executor.
type ProvisionResult struct {
	Template struct {
		ID string `json:"id"`
	} `json:"template"`
}

// GetProvision resolves provisionID to its bound template-id.
func (c *Client) GetProvision(ctx context.Context, provisionID int64) (ProvisionResult, error) {
	resp, err := c.Request(ctx, Envelope{
		OperationName: "GetProvision",
		Query:         getProvisionQuery,
		Variables: map[string]any{
			"provision": provisionID,
		},
	})
	if err != nil {
		return ProvisionResult{}, err
	}
	if len(resp.Errors) > 0 {
		return ProvisionResult{}, fmt.Errorf("hubclient: GetProvision: %s", resp.Errors[0].Message)
	}
	var out struct {
		Provision ProvisionResult `json:"provision"`
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return ProvisionResult{}, fmt.Errorf("hubclient: decode GetProvision: %w", err)
	}
	return out.Provision, nil
}

// The literal query text is opaque to this client and only needs to
// round-trip to a hub that understands it.
const (
	ensureAgentQuery = `mutation EnsureAgent($identifier: String!, $version: String!) {
  ensureAgent(identifier: $identifier, version: $version) { instance_id }
}`

	createTemplateQuery = `mutation CreateTemplate($instance_id: ID!, $template: TemplateInput!) {
  createTemplate(instanceId: $instance_id, template: $template) { template_id }
}`

	getProvisionQuery = `query GetProvision($provision: ID!) {
  provision(id: $provision) { template { id } }
}`
)
