// Package docker provides a Docker client for inspecting containers and images.
package docker

import "context"

// =============================================================================
// Client Interface
// =============================================================================

// Client defines the Docker operations label generation needs.
type Client interface {
	// ContainerPorts returns the exposed TCP ports of a container, ascending.
	ContainerPorts(ctx context.Context, container string) ([]int, error)

	// ImagePorts returns the exposed TCP ports of a local image, ascending.
	ImagePorts(ctx context.Context, image string) ([]int, error)

	// Image operations
	ImageExists(ctx context.Context, image string) (bool, error)
	PullImage(ctx context.Context, image string) error

	// Health operations
	Ping(ctx context.Context) error
	Close() error
}
