package service

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	minPort = 1
	maxPort = 65535
)

// Spec declares the single web service a deployment run manages: where its
// build context lives, how its ports map and what text a successful probe
// of the published port must serve. It is built once from configuration and
// never mutated afterwards.
type Spec struct {
	SrvName       string `json:"name"`
	ContextPath   string `json:"context"`
	ContainerPort int    `json:"container_port"`
	PublishedPort int    `json:"published_port"`
	Message       string `json:"message"`
}

func (s Spec) Name() string {
	return s.SrvName
}

// ImageTag is the tag the build context is packaged under. The tag is
// stable across runs so redeploys rebuild in place.
func (s Spec) ImageTag() string {
	return fmt.Sprintf("%s:latest", s.SrvName)
}

// ContainerName is the fixed name the running container is created under,
// which is how later teardown and status calls find it again.
func (s Spec) ContainerName() string {
	return s.SrvName
}

// URL is the probe target on the host side of the port mapping.
func (s Spec) URL() string {
	return fmt.Sprintf("http://localhost:%d/", s.PublishedPort)
}

// Validate checks the spec invariants before any engine work starts: both
// ports in [1, 65535] and a readable build context containing a Dockerfile.
func (s Spec) Validate() error {
	if s.SrvName == "" {
		return fmt.Errorf("service name must not be empty")
	}
	if s.ContainerPort < minPort || s.ContainerPort > maxPort {
		return fmt.Errorf("container_port %d outside [%d, %d]", s.ContainerPort, minPort, maxPort)
	}
	if s.PublishedPort < minPort || s.PublishedPort > maxPort {
		return fmt.Errorf("published_port %d outside [%d, %d]", s.PublishedPort, minPort, maxPort)
	}

	info, err := os.Stat(s.ContextPath)
	if err != nil {
		return fmt.Errorf("build context %q: %w", s.ContextPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("build context %q is not a directory", s.ContextPath)
	}
	if _, err := os.Stat(filepath.Join(s.ContextPath, "Dockerfile")); err != nil {
		return fmt.Errorf("build context %q has no Dockerfile: %w", s.ContextPath, err)
	}

	return nil
}
