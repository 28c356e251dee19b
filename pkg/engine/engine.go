package engine

import (
	"context"

	"stevedore/pkg/service"
)

// Labels stamped onto every container this tool creates, so teardown and
// status only ever touch containers we own.
const (
	LabelManaged = "stevedore.managed"
	LabelService = "stevedore.service"
	LabelRunID   = "stevedore.run_id"
)

// Container is the slice of engine-side container state the deploy flow
// cares about. Ports holds the engine's bindings rendered host->container,
// e.g. "0.0.0.0:8080->5000/tcp".
type Container struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Image   string   `json:"image"`
	Running bool     `json:"running"`
	RunID   string   `json:"run_id,omitempty"`
	Ports   []string `json:"ports,omitempty"`
}

// Engine abstracts the container engine so the deploy flow can be exercised
// without a daemon on the host.
type Engine interface {
	// Ping confirms the engine daemon answers.
	Ping(ctx context.Context) error
	// BuildImage builds the service image from its context directory and
	// returns the combined build output, also on failure.
	BuildImage(ctx context.Context, srv service.Spec) ([]byte, error)
	// CreateContainer creates a named, labelled container with the service's
	// port binding and returns its ID.
	CreateContainer(ctx context.Context, srv service.Spec, runID string) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, ref string) error
	RemoveContainer(ctx context.Context, ref string) error
	// FindContainer looks a container up by exact name, running or not.
	// Containers created by something else are invisible to it, even under
	// the wanted name.
	FindContainer(ctx context.Context, name string) (Container, error)
	// ContainerLogs returns up to tail lines of the container's output with
	// the engine's stream framing stripped.
	ContainerLogs(ctx context.Context, ref string, tail int) (string, error)
}
