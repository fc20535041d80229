package runtime

import (
	"context"
	"errors"

	"github.com/costwatch/costwatch/pkg/models"
)

var (
	ErrUnreachable     = errors.New("container runtime unreachable")
	ErrNotFound        = errors.New("container not found")
	ErrInvalidResponse = errors.New("invalid response from container runtime")
	ErrTimeout         = errors.New("runtime request timed out")
)

// Runtime is the consumed capability of the container runtime. Containers
// may vanish between listing and fetching; callers treat ErrNotFound and
// ErrUnreachable on the per-container calls as a skip, not a failure.
type Runtime interface {
	// ListRunningContainers returns the identities of all running containers.
	ListRunningContainers(ctx context.Context) ([]models.ContainerIdentity, error)

	// GetResourceSample fetches one raw stats snapshot for a container.
	GetResourceSample(ctx context.Context, id string) (*models.ResourceSample, error)

	// GetConfiguration fetches the configuration snapshot for a container.
	GetConfiguration(ctx context.Context, id string) (*models.ContainerConfig, error)

	// HealthCheck verifies the runtime API is reachable
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the client
	Close() error
}
