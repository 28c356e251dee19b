package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Strum355/log"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"stevedore/internal/tools"
	"stevedore/pkg/service"
)

// stopTimeout is how long a container gets to exit cleanly before the engine
// kills it.
const stopTimeout = 20 * time.Second

// maxLogBytes caps how much container output we pull back for diagnostics.
const maxLogBytes = 64 * 1024

// DockerEngine talks to a Docker daemon over its API for the container
// lifecycle, and shells out to the docker CLI for image builds.
type DockerEngine struct {
	client *client.Client
	runner tools.CommandRunner
}

// NewDockerEngine connects using the environment (DOCKER_HOST and friends),
// with host overriding the environment when non-empty.
func NewDockerEngine(host string, runner tools.CommandRunner) (*DockerEngine, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &DockerEngine{client: cli, runner: runner}, nil
}

func (e *DockerEngine) Ping(ctx context.Context) error {
	_, err := e.client.Ping(ctx)
	if err != nil {
		return &EngineError{Op: "ping", Err: fmt.Errorf("%w: %v", ErrEngineUnreachable, err)}
	}
	return nil
}

func (e *DockerEngine) BuildImage(ctx context.Context, srv service.Spec) ([]byte, error) {
	log.WithFields(log.Fields{
		"image":   srv.ImageTag(),
		"context": srv.ContextPath,
	}).Debug("Building image")

	stdout, stderr, code, err := e.runner.Run(ctx, "docker", "build", "-t", srv.ImageTag(), srv.ContextPath)
	output := tools.CombinedOutput(stdout, stderr)
	if err != nil {
		return output, &EngineError{
			Op:  "build",
			Ref: srv.ImageTag(),
			Err: fmt.Errorf("%w: exit status %d", ErrBuildFailed, code),
		}
	}
	return output, nil
}

func (e *DockerEngine) CreateContainer(ctx context.Context, srv service.Spec, runID string) (string, error) {
	portKey := nat.Port(fmt.Sprintf("%d/tcp", srv.ContainerPort))
	resp, err := e.client.ContainerCreate(ctx, &container.Config{
		Image: srv.ImageTag(),
		Labels: map[string]string{
			LabelManaged: "true",
			LabelService: srv.Name(),
			LabelRunID:   runID,
		},
		ExposedPorts: nat.PortSet{portKey: struct{}{}},
	}, &container.HostConfig{
		PortBindings: nat.PortMap{
			portKey: []nat.PortBinding{
				{
					HostIP:   "0.0.0.0",
					HostPort: strconv.Itoa(srv.PublishedPort),
				},
			},
		},
	}, nil, nil, srv.ContainerName())
	if err != nil {
		return "", wrapEngineErr("create", srv.ContainerName(), err)
	}
	return resp.ID, nil
}

func (e *DockerEngine) StartContainer(ctx context.Context, id string) error {
	if err := e.client.ContainerStart(ctx, id, types.ContainerStartOptions{}); err != nil {
		return wrapEngineErr("start", id, err)
	}
	return nil
}

func (e *DockerEngine) StopContainer(ctx context.Context, ref string) error {
	timeout := stopTimeout
	if err := e.client.ContainerStop(ctx, ref, &timeout); err != nil {
		return wrapEngineErr("stop", ref, err)
	}
	return nil
}

func (e *DockerEngine) RemoveContainer(ctx context.Context, ref string) error {
	if err := e.client.ContainerRemove(ctx, ref, types.ContainerRemoveOptions{Force: true}); err != nil {
		return wrapEngineErr("remove", ref, err)
	}
	return nil
}

func (e *DockerEngine) FindContainer(ctx context.Context, name string) (Container, error) {
	containers, err := e.client.ContainerList(ctx, types.ContainerListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return Container{}, wrapEngineErr("find", name, err)
	}

	if cnt, ok := matchContainer(name, containers); ok {
		return cnt, nil
	}
	return Container{}, &EngineError{Op: "find", Ref: name, Err: ErrContainerNotFound}
}

// matchContainer picks the container with exactly the wanted name out of the
// name filter's substring matches. Containers without the managed label are
// skipped, so a foreign container that happens to hold the name is never
// stopped, removed or reported on.
func matchContainer(name string, containers []types.Container) (Container, bool) {
	for _, cnt := range containers {
		if cnt.Labels[LabelManaged] != "true" {
			continue
		}
		for _, n := range cnt.Names {
			if strings.TrimPrefix(n, "/") == name {
				return Container{
					ID:      cnt.ID,
					Name:    name,
					Image:   cnt.Image,
					Running: cnt.State == "running",
					RunID:   cnt.Labels[LabelRunID],
					Ports:   formatPorts(cnt.Ports),
				}, true
			}
		}
	}
	return Container{}, false
}

// formatPorts renders the engine's port bindings the way docker ps does.
func formatPorts(ports []types.Port) []string {
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.PublicPort == 0 {
			out = append(out, fmt.Sprintf("%d/%s", p.PrivatePort, p.Type))
			continue
		}
		ip := p.IP
		if ip == "" {
			ip = "0.0.0.0"
		}
		out = append(out, fmt.Sprintf("%s:%d->%d/%s", ip, p.PublicPort, p.PrivatePort, p.Type))
	}
	return out
}

func (e *DockerEngine) ContainerLogs(ctx context.Context, ref string, tail int) (string, error) {
	reader, err := e.client.ContainerLogs(ctx, ref, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return "", wrapEngineErr("logs", ref, err)
	}
	defer reader.Close()

	buf := new(bytes.Buffer)
	_, _ = io.CopyN(buf, reader, maxLogBytes)
	return stripLogHeaders(buf.Bytes()), nil
}

// wrapEngineErr maps the daemon's answers onto the package sentinels so
// callers can branch with errors.Is.
func wrapEngineErr(op, ref string, err error) error {
	switch {
	case client.IsErrNotFound(err):
		err = fmt.Errorf("%w: %v", ErrContainerNotFound, err)
	case strings.Contains(err.Error(), "port is already allocated"):
		err = fmt.Errorf("%w: %v", ErrPortAllocated, err)
	case strings.Contains(err.Error(), "address already in use"):
		err = fmt.Errorf("%w: %v", ErrPortAllocated, err)
	}
	return &EngineError{Op: op, Ref: ref, Err: err}
}

// stripLogHeaders removes the 8-byte frame headers the engine multiplexes
// stdout and stderr with: a stream marker byte, three zero bytes, then the
// payload size as a big-endian uint32. Logs from containers running with a
// TTY arrive unframed and pass through untouched.
func stripLogHeaders(raw []byte) string {
	if !framedLogs(raw) {
		return strings.TrimRight(string(raw), "\n")
	}

	var out bytes.Buffer
	for len(raw) >= 8 {
		size := int(binary.BigEndian.Uint32(raw[4:8]))
		if size <= 0 || size > len(raw)-8 {
			// The read was cut mid-frame; keep the payload bytes that made it.
			out.Write(raw[8:])
			break
		}
		out.Write(raw[8 : 8+size])
		raw = raw[8+size:]
	}
	return strings.TrimRight(out.String(), "\n")
}

// framedLogs reports whether raw starts with a multiplexed stream header.
func framedLogs(raw []byte) bool {
	return len(raw) >= 8 && raw[0] <= 2 && raw[1] == 0 && raw[2] == 0 && raw[3] == 0
}
