package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/postflow/postflow/scheduler/domain/jobs"
	"github.com/sirupsen/logrus"
)

type memoryJobEntry struct {
	job    jobs.Job
	fireAt time.Time
}

// MemoryJobQueue is the single-node twin of the valkey queue, used for
// tests and dev setups without a valkey instance.
type MemoryJobQueue struct {
	mu      sync.Mutex
	entries map[string]memoryJobEntry
	failed  []jobs.Job
	now     func() time.Time
}

func NewMemoryJobQueue() *MemoryJobQueue {
	return &MemoryJobQueue{
		entries: make(map[string]memoryJobEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the queue's clock. Test hook.
func (q *MemoryJobQueue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

func (q *MemoryJobQueue) Enqueue(ctx context.Context, job jobs.Job, delay time.Duration) error {
	if err := job.Validate(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	fireAt := q.now().Add(delay)
	job.FireAt = fireAt
	q.entries[job.ID] = memoryJobEntry{job: job, fireAt: fireAt}
	return nil
}

func (q *MemoryJobQueue) ListPending(ctx context.Context) ([]jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	res := make([]jobs.Job, 0, len(q.entries))
	for _, e := range q.entries {
		res = append(res, e.job)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].FireAt.Before(res[j].FireAt) })
	return res, nil
}

func (q *MemoryJobQueue) Remove(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, jobID)
	return nil
}

func (q *MemoryJobQueue) DueBefore(ctx context.Context, t time.Time) ([]jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []jobs.Job
	for id, e := range q.entries {
		if !e.fireAt.After(t) {
			due = append(due, e.job)
			delete(q.entries, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })
	return due, nil
}

func (q *MemoryJobQueue) NextFireTime(ctx context.Context) (time.Time, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var next time.Time
	for _, e := range q.entries {
		if next.IsZero() || e.fireAt.Before(next) {
			next = e.fireAt
		}
	}
	return next, nil
}

func (q *MemoryJobQueue) ReportFailure(ctx context.Context, job jobs.Job, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed = append(q.failed, job)
	logrus.WithError(cause).Warnf("[JOBQUEUE] Job %s (%s) reported as failed", job.ID, job.Kind)
	return nil
}

// FailedJobs returns a snapshot of jobs handed back via ReportFailure.
func (q *MemoryJobQueue) FailedJobs() []jobs.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]jobs.Job, len(q.failed))
	copy(out, q.failed)
	return out
}
