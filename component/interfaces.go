package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed part of the service: storage, the SSE
// hub, the job orchestrator, the HTTP server.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description is a one-line startup summary of a component.
type Description struct {
	// Name is the display name. Empty means Component.Name().
	Name string
	// Type categorizes the component: "storage", "server", "worker".
	Type string
	// Details is shown next to the name, e.g. "s3 bucket=uploads".
	Details string
}

// Describable is optionally implemented by components that report a
// startup summary line.
type Describable interface {
	Describe() Description
}
