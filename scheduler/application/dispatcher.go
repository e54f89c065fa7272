package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/postflow/postflow/scheduler/domain/jobs"
	"github.com/sirupsen/logrus"
)

// Dispatcher converts a scheduled publication into either an immediate
// publish attempt or a delayed-job submission. It owns cancellation
// and rescheduling.
type Dispatcher struct {
	repo         domain.IPublicationRepository
	queue        domain.IDelayedJobQueue
	orchestrator *PublishOrchestrator
	now          func() time.Time
}

func NewDispatcher(repo domain.IPublicationRepository, queue domain.IDelayedJobQueue, orchestrator *PublishOrchestrator) *Dispatcher {
	return &Dispatcher{
		repo:         repo,
		queue:        queue,
		orchestrator: orchestrator,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the dispatcher's clock. Test hook.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// Schedule publishes immediately when 'at' is not in the future,
// otherwise enqueues a publish job with delay = at - now.
func (d *Dispatcher) Schedule(ctx context.Context, publicationID string, at time.Time) error {
	pub, err := d.repo.GetPublication(ctx, publicationID)
	if err != nil {
		return err
	}
	if pub.Status.IsTerminal() {
		return common.ErrTerminalStatus
	}

	now := d.now()
	if !at.After(now) {
		logrus.Infof("[DISPATCHER] Publication %s is due, publishing immediately", publicationID)
		return d.orchestrator.Publish(ctx, publicationID)
	}

	status := common.PublicationStatusPending
	if pub.QueueID != "" {
		status = common.PublicationStatusQueued
	}
	pub.ScheduledFor = at
	pub.Status = status
	pub.UpdatedAt = now
	if err := d.repo.UpdatePublication(ctx, pub); err != nil {
		return err
	}

	job, err := jobs.NewPublishJob(uuid.NewString(), publicationID, at)
	if err != nil {
		return err
	}
	if err := d.queue.Enqueue(ctx, job, at.Sub(now)); err != nil {
		return fmt.Errorf("failed to enqueue publish job: %w", err)
	}
	logrus.Infof("[DISPATCHER] Publication %s scheduled for %s (delay %s)", publicationID, at.Format(time.RFC3339), at.Sub(now))
	return nil
}

// Cancel marks the publication cancelled and then removes every
// pending job referencing it. Cancelling a published or
// already-cancelled record is a no-op success; cancelling mid-publish
// is rejected.
func (d *Dispatcher) Cancel(ctx context.Context, publicationID string) error {
	pub, err := d.repo.GetPublication(ctx, publicationID)
	if err != nil {
		return err
	}
	switch pub.Status {
	case common.PublicationStatusPublished, common.PublicationStatusCancelled:
		return nil
	case common.PublicationStatusPublishing:
		return common.ErrAlreadyClaimed
	}

	// Status flips first: once the row is cancelled a surviving job
	// loses the claim and fizzles, so a failed removal below leaves no
	// resurrectable state. The reverse order could strand a pending row
	// without a job if the update failed.
	pub.Status = common.PublicationStatusCancelled
	pub.UpdatedAt = d.now()
	if err := d.repo.UpdatePublication(ctx, pub); err != nil {
		return err
	}

	pending, err := d.queue.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending jobs: %w", err)
	}
	for _, job := range pending {
		if job.PublicationID() != publicationID {
			continue
		}
		if err := d.queue.Remove(ctx, job.ID); err != nil {
			return fmt.Errorf("failed to remove job %s: %w", job.ID, err)
		}
	}

	logrus.Infof("[DISPATCHER] Publication %s cancelled", publicationID)
	return nil
}

// Reschedule is Cancel followed by Schedule at the new instant.
// Published and cancelled records are terminal; they never come back.
func (d *Dispatcher) Reschedule(ctx context.Context, publicationID string, newAt time.Time) error {
	pub, err := d.repo.GetPublication(ctx, publicationID)
	if err != nil {
		return err
	}
	if pub.Status.IsTerminal() {
		return common.ErrTerminalStatus
	}

	if err := d.Cancel(ctx, publicationID); err != nil {
		return err
	}

	pub, err = d.repo.GetPublication(ctx, publicationID)
	if err != nil {
		return err
	}
	pub.ScheduledFor = newAt
	pub.Status = common.PublicationStatusPending
	if pub.QueueID != "" {
		pub.Status = common.PublicationStatusQueued
	}
	pub.UpdatedAt = d.now()
	if err := d.repo.UpdatePublication(ctx, pub); err != nil {
		return err
	}
	return d.Schedule(ctx, publicationID, newAt)
}
