package scheduler

import "context"

// Job represents a unit of work that can be executed by the worker pool.
type Job interface {
	// Execute runs the job. ctx carries the per-job timeout.
	Execute(ctx context.Context) error

	// UserUUID identifies the user whose data the job touches, for logs and spans.
	UserUUID() string

	Description() string
}
