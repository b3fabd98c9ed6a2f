package nerrors

import (
	"errors"
	"fmt"
)

// NotFoundError represents a resource not found error, tagged with the
// kind of resource so callers (and the occurrence builder) can render a
// consistent message.
type NotFoundError struct {
	Kind string // e.g. "service", "deployment", "resource"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// NewNotFoundError builds a NotFoundError for the given resource kind.
func NewNotFoundError(kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// WorkerCrashError signals that a deploy worker terminated abnormally
// mid-deploy; the agent runtime recovers the worker's panic and converts
// it into a failed deploy result carrying this error.
type WorkerCrashError struct {
	Reason string
}

func (e *WorkerCrashError) Error() string {
	return fmt.Sprintf("worker crashed: %s", e.Reason)
}

// ApplyFailedError wraps a passthrough failure classification reported
// by the K8s collaborator (e.g. a server-side apply rejection).
type ApplyFailedError struct {
	Msg string
}

func (e *ApplyFailedError) Error() string {
	return fmt.Sprintf("apply failed: %s", e.Msg)
}

// Sentinel errors for conditions with no associated payload.
var (
	// ErrQueueFull is returned when a service agent's waiter queue
	// (its configured capacity, 10 by default) is already full.
	ErrQueueFull = errors.New("queue_full")
	// ErrNoDeploymentFound is returned by the rollout strategy builder
	// when no manifest of kind Deployment was supplied.
	ErrNoDeploymentFound = errors.New("no_deployment_found")
	// ErrForbidden, ErrTimeout, ErrConnectionRefused are passthrough
	// classifications a K8s collaborator implementation may return.
	ErrForbidden         = errors.New("forbidden")
	ErrTimeout           = errors.New("timeout")
	ErrConnectionRefused = errors.New("connection_refused")
)

// Tag renders err to the short, stable string tag used in occurrence
// artifacts, telemetry labels, and JSON-RPC error payloads. nil yields
// the empty string.
func Tag(err error) string {
	if err == nil {
		return ""
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var crash *WorkerCrashError
	if errors.As(err, &crash) {
		return "worker_crash"
	}
	var apply *ApplyFailedError
	if errors.As(err, &apply) {
		return "apply_failed"
	}

	switch {
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrNoDeploymentFound):
		return "no_deployment_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConnectionRefused):
		return "connection_refused"
	default:
		return "error"
	}
}
