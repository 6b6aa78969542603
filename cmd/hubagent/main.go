// Command hubagent connects a Docker host to a task-dispatch hub: it
// resolves bootstrap configuration, exchanges client credentials for a
// bearer token, registers its templates, and then runs the persistent
// control-channel loop until the hub closes the session or the process
// receives a termination signal.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nordaxis/hubagent/internal/app"
	"github.com/nordaxis/hubagent/internal/bootstrap"
	"github.com/nordaxis/hubagent/internal/config"
	"github.com/nordaxis/hubagent/internal/docker"
	"github.com/nordaxis/hubagent/internal/functions"
	"github.com/nordaxis/hubagent/internal/hubclient"
	"github.com/nordaxis/hubagent/internal/logging"
	"github.com/nordaxis/hubagent/internal/manifest"
	"github.com/nordaxis/hubagent/internal/oauthcred"
	"github.com/nordaxis/hubagent/internal/registry"
	"github.com/nordaxis/hubagent/internal/runtime"
	"github.com/nordaxis/hubagent/internal/template"
)

var version = "dev"

// defaultManifest is used when HUBAGENT_MANIFEST is unset, so the agent has
// something to bootstrap with out of the box.
func defaultManifest() *manifest.Manifest {
	return &manifest.Manifest{
		Identifier: "docker-host-agent",
		Version:    version,
		Scopes:     []string{"templates:register", "assignments:execute"},
		Services: []manifest.ServiceRequirement{
			{Key: "auth", Service: "oauth2", Optional: false},
			{Key: "hub", Service: "hub", Optional: false},
		},
	}
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogJSON)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	fmt.Println("hubagent " + version)

	m := defaultManifest()
	if cfg.ManifestPath != "" {
		loaded, err := manifest.Load(cfg.ManifestPath)
		if err != nil {
			log.Error("failed to load manifest", "error", err)
			os.Exit(1)
		}
		m = loaded
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn("metrics server exited", "error", err)
			}
		}()
		log.Info("metrics server listening", "addr", cfg.MetricsAddr)
	}

	resolver := bootstrap.NewResolver(hubBaseURL(cfg, m), cfg.TokenCachePath, log.Logger)
	resolver.PollInterval = cfg.PollInterval
	resolver.PollBudget = cfg.PollBudget

	descriptors, err := resolver.Resolve(ctx, m)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	authDesc, err := descriptors.Auth("auth")
	if err != nil {
		log.Error("missing auth service descriptor", "error", err)
		os.Exit(1)
	}
	hubDesc, err := descriptors.Hub("hub")
	if err != nil {
		log.Error("missing hub service descriptor", "error", err)
		os.Exit(1)
	}

	exchanger, err := oauthcred.New(ctx, authDesc, nil)
	if err != nil {
		log.Error("failed to build credential exchanger", "error", err)
		os.Exit(1)
	}
	httpClient := exchanger.HTTPClient(ctx)
	bearer, err := exchanger.Token(ctx)
	if err != nil {
		log.Error("failed to obtain bearer token", "error", err)
		os.Exit(1)
	}

	hub := hubclient.New(hubDesc.Endpoint, bearer, httpClient)

	agentResult, err := hub.EnsureAgent(ctx, m.Identifier, m.Version)
	if err != nil {
		log.Error("failed to register agent", "error", err)
		os.Exit(1)
	}
	log.Info("agent registered", "instance_id", agentResult.InstanceID)

	reg := registry.New(log.Logger)
	templateIDs, dockerClient, err := registerTemplates(ctx, hub, agentResult.InstanceID, reg, log)
	if err != nil {
		log.Error("failed to register templates", "error", err)
		os.Exit(1)
	}
	if dockerClient != nil {
		defer dockerClient.Close()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+bearer)

	rt := runtime.New(runtime.Config{
		ControlURL: hubDesc.ControlURL,
		InstanceID: agentResult.InstanceID,
		Token:      bearer,
		Registry:   reg,
		Hub:        hub,
		Log:        log.Logger,
		Header:     header,
	})

	log.Info("starting control channel", "control_url", hubDesc.ControlURL, "templates", reg.Len())
	if err := rt.Run(ctx); err != nil {
		log.Error("control channel exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("control channel closed cleanly")
}

// registerTemplates registers every template this agent offers with the
// hub and wires their executors into reg, returning the resolved
// template-ids and the Docker client backing the docker.* templates (nil
// if it could not be reached — in which case the docker.* templates are
// simply left unregistered rather than failing the whole agent).
func registerTemplates(ctx context.Context, hub *hubclient.Client, instanceID string, reg *registry.Registry, log *logging.Logger) (map[string]string, *docker.Client, error) {
	templateIDs := make(map[string]string)
	appCtx := &app.Context{Hub: hub}

	for name, tmpl := range functions.AgentTemplates() {
		id, err := createTemplate(ctx, hub, instanceID, name, tmpl)
		if err != nil {
			return nil, nil, err
		}
		templateIDs[name] = id
	}
	functions.RegisterAgent(reg, appCtx, templateIDs)

	dockerSock := os.Getenv("DOCKER_HOST")
	if dockerSock == "" {
		dockerSock = "unix:///var/run/docker.sock"
	}
	// docker.NewClient takes a bare socket path for unix sockets.
	dockerClient, dockerErr := docker.NewClient(strings.TrimPrefix(dockerSock, "unix://"), nil)
	if dockerErr == nil {
		if dockerErr = dockerClient.Ping(ctx); dockerErr != nil {
			dockerClient.Close()
			dockerClient = nil
		}
	}
	if dockerErr != nil {
		log.Warn("docker client unavailable, docker.* templates disabled", "error", dockerErr)
	}

	if dockerClient != nil {
		for name, tmpl := range functions.DockerTemplates() {
			id, err := createTemplate(ctx, hub, instanceID, name, tmpl)
			if err != nil {
				return nil, dockerClient, err
			}
			templateIDs[name] = id
		}
		appCtx.Extra = dockerClient
		if err := functions.RegisterDocker(reg, appCtx, templateIDs); err != nil {
			return nil, dockerClient, err
		}
	}

	return templateIDs, dockerClient, nil
}

func createTemplate(ctx context.Context, hub *hubclient.Client, instanceID, name string, tmpl template.Template) (string, error) {
	result, err := hub.CreateTemplate(ctx, instanceID, tmpl)
	if err != nil {
		return "", fmt.Errorf("register template %q: %w", name, err)
	}
	return result.TemplateID, nil
}

// hubBaseURL picks the hub base URL the resolver talks to before any
// service descriptors exist: the explicit override if set, otherwise the
// fixed local default http://localhost:8080. The manifest is not consulted.
func hubBaseURL(cfg *config.Config, m *manifest.Manifest) string {
	if cfg.HubOverride != "" {
		return cfg.HubOverride
	}
	return "http://localhost:8080"
}
