package domain

import (
	"context"
	"time"

	"github.com/postflow/postflow/scheduler/domain/jobs"
)

// IDelayedJobQueue is the durable delayed-job queue collaborator.
// Implementations must support millisecond-granularity delays and
// listing of not-yet-fired jobs so cancellation can remove them.
type IDelayedJobQueue interface {
	// Enqueue validates and stores the job to fire after the delay.
	Enqueue(ctx context.Context, job jobs.Job, delay time.Duration) error

	// ListPending returns jobs that have not fired yet.
	ListPending(ctx context.Context) ([]jobs.Job, error)

	// Remove deletes a pending job by id. Removing a missing job is a
	// no-op so repeated cancellations stay idempotent.
	Remove(ctx context.Context, jobID string) error

	// DueBefore pops jobs whose fire time is at or before the given
	// instant. Popped jobs are owned by the caller; failures are
	// reported back via ReportFailure.
	DueBefore(ctx context.Context, t time.Time) ([]jobs.Job, error)

	// NextFireTime returns the fire time of the earliest pending job,
	// or the zero time when the queue is empty.
	NextFireTime(ctx context.Context) (time.Time, error)

	// ReportFailure hands a failed job back to the queue so external
	// retry/backoff policy can apply.
	ReportFailure(ctx context.Context, job jobs.Job, cause error) error
}
