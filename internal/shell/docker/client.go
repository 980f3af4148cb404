package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// =============================================================================
// Docker Client Implementation
// =============================================================================

// DockerClient implements the Client interface using the Docker SDK.
type DockerClient struct {
	cli *client.Client
}

// NewDockerClient creates a new Docker client.
// If host is empty, it uses the default Docker host from environment.
// On macOS with Docker Desktop, it automatically detects the correct socket.
// ctx bounds the pings used for that detection.
func NewDockerClient(ctx context.Context, host string) (*DockerClient, error) {
	var opts []client.Opt
	opts = append(opts, client.FromEnv)
	opts = append(opts, client.WithAPIVersionNegotiation())

	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, NewDockerError("NewDockerClient", "", "", "failed to create client: "+err.Error(),
			fmt.Errorf("%w: %w", ErrConnectionFailed, err))
	}

	// Try to ping with default settings
	if host == "" {
		if _, pingErr := cli.Ping(ctx); pingErr != nil {
			// If default socket fails, try Docker Desktop socket on macOS
			homeDir, _ := os.UserHomeDir()
			dockerDesktopSocket := "unix://" + homeDir + "/.docker/run/docker.sock"

			cli2, err2 := client.NewClientWithOpts(
				client.WithHost(dockerDesktopSocket),
				client.WithAPIVersionNegotiation(),
			)
			if err2 == nil {
				if _, pingErr2 := cli2.Ping(ctx); pingErr2 == nil {
					cli.Close()
					return &DockerClient{cli: cli2}, nil
				}
				cli2.Close()
			}
		}
	}

	return &DockerClient{cli: cli}, nil
}

// Ping checks if Docker daemon is reachable.
func (d *DockerClient) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return NewDockerError("Ping", "", "", "failed to ping docker: "+err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the Docker client connection.
func (d *DockerClient) Close() error {
	return d.cli.Close()
}

// =============================================================================
// Container Operations
// =============================================================================

// ContainerPorts returns the exposed TCP ports of a container.
func (d *DockerClient) ContainerPorts(ctx context.Context, containerName string) ([]int, error) {
	resp, err := d.cli.ContainerInspect(ctx, containerName)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, NewDockerError("ContainerPorts", "container", containerName, "container not found", ErrContainerNotFound)
		}
		return nil, NewDockerError("ContainerPorts", "container", containerName, err.Error(), err)
	}

	if resp.Config == nil {
		return nil, nil
	}

	raw := make([]string, 0, len(resp.Config.ExposedPorts))
	for port := range resp.Config.ExposedPorts {
		raw = append(raw, string(port))
	}
	return TCPPorts(raw), nil
}

// =============================================================================
// Image Operations
// =============================================================================

// ImagePorts returns the exposed TCP ports of a local image.
func (d *DockerClient) ImagePorts(ctx context.Context, imageName string) ([]int, error) {
	resp, err := d.cli.ImageInspect(ctx, imageName)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, NewDockerError("ImagePorts", "image", imageName, "image not found", ErrImageNotFound)
		}
		return nil, NewDockerError("ImagePorts", "image", imageName, err.Error(), err)
	}

	if resp.Config == nil {
		return nil, nil
	}

	raw := make([]string, 0, len(resp.Config.ExposedPorts))
	for port := range resp.Config.ExposedPorts {
		raw = append(raw, port)
	}
	return TCPPorts(raw), nil
}

// PullImage pulls an image from the registry.
func (d *DockerClient) PullImage(ctx context.Context, imageName string) error {
	reader, err := d.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "not found") ||
			strings.Contains(errStr, "manifest unknown") ||
			strings.Contains(errStr, "repository does not exist") ||
			strings.Contains(errStr, "pull access denied") {
			return NewDockerError("PullImage", "image", imageName, "image not found", ErrImageNotFound)
		}
		return NewDockerError("PullImage", "image", imageName, errStr, ErrImagePullFailed)
	}
	defer reader.Close()

	// Drain the reader to complete the pull
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return NewDockerError("PullImage", "image", imageName, err.Error(), ErrImagePullFailed)
	}

	return nil
}

// ImageExists checks if an image exists locally.
func (d *DockerClient) ImageExists(ctx context.Context, imageName string) (bool, error) {
	_, err := d.cli.ImageInspect(ctx, imageName)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, NewDockerError("ImageExists", "image", imageName, err.Error(), err)
	}

	return true, nil
}

// =============================================================================
// Port Helpers
// =============================================================================

// TCPPorts converts exposed-port keys such as "80/tcp" into sorted,
// distinct TCP port numbers. Other protocols and malformed keys are dropped.
func TCPPorts(exposed []string) []int {
	seen := make(map[int]bool)
	var ports []int
	for _, raw := range exposed {
		port := nat.Port(raw)
		if port.Proto() != "tcp" {
			continue
		}
		n, err := nat.ParsePort(port.Port())
		if err != nil || n == 0 || seen[n] {
			continue
		}
		seen[n] = true
		ports = append(ports, n)
	}
	sort.Ints(ports)
	return ports
}
