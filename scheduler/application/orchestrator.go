package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgError "github.com/postflow/postflow/pkg/error"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/postflow/postflow/scheduler/domain/jobs"
	"github.com/sirupsen/logrus"
)

// PublishOrchestrator applies the state transitions and error
// bookkeeping around a single publish attempt. The platform call
// itself is delegated to the registered publishing adapter.
type PublishOrchestrator struct {
	repo     domain.IPublicationRepository
	content  domain.IContentRepository
	accounts domain.IAccountRepository
	adapters *domain.AdapterRegistry
	queue    domain.IDelayedJobQueue
	now      func() time.Time
}

func NewPublishOrchestrator(
	repo domain.IPublicationRepository,
	content domain.IContentRepository,
	accounts domain.IAccountRepository,
	adapters *domain.AdapterRegistry,
	queue domain.IDelayedJobQueue,
) *PublishOrchestrator {
	return &PublishOrchestrator{
		repo:     repo,
		content:  content,
		accounts: accounts,
		adapters: adapters,
		queue:    queue,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the orchestrator's clock. Test hook.
func (o *PublishOrchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Publish drives one attempt: claim -> adapter call -> published or
// failed. The conditional claim is the guard against two workers
// processing the same due job.
func (o *PublishOrchestrator) Publish(ctx context.Context, publicationID string) error {
	pub, err := o.repo.ClaimForPublishing(ctx, publicationID)
	if err != nil {
		if err == common.ErrAlreadyClaimed {
			logrus.Debugf("[ORCHESTRATOR] Publication %s already claimed, skipping", publicationID)
		}
		return err
	}

	post, err := o.content.GetPost(ctx, pub.PostID)
	if err != nil {
		return o.fail(ctx, pub, err)
	}
	account, err := o.accounts.GetAccount(ctx, pub.AccountID)
	if err != nil {
		return o.fail(ctx, pub, err)
	}

	adapter, ok := o.adapters.Get(account.Platform)
	if !ok {
		return o.fail(ctx, pub, common.ErrAdapterNotFound)
	}

	result, err := adapter.Publish(ctx, account, post)
	if err != nil {
		return o.fail(ctx, pub, pkgError.PublishError(fmt.Sprintf("platform %s rejected publication: %v", account.Platform, err)))
	}

	now := o.now()
	pub.Status = common.PublicationStatusPublished
	pub.UpdatedAt = now
	if err := o.repo.UpdatePublication(ctx, pub); err != nil {
		return err
	}
	if err := o.content.MarkPublished(ctx, pub.PostID, pub.AccountID, now, result.ExternalID); err != nil {
		logrus.WithError(err).Errorf("[ORCHESTRATOR] Failed to stamp post %s after publish", pub.PostID)
	}
	logrus.Infof("[ORCHESTRATOR] Publication %s published as %s", pub.ID, result.ExternalID)

	if pub.IsRecurring && pub.RecurringGroupID != "" {
		job, err := jobs.NewAdvanceRecurrenceJob(uuid.NewString(), pub.RecurringGroupID, pub.ID, now)
		if err != nil {
			return err
		}
		if err := o.queue.Enqueue(ctx, job, 0); err != nil {
			logrus.WithError(err).Errorf("[ORCHESTRATOR] Failed to enqueue recurrence advance for group %s", pub.RecurringGroupID)
		}
	}
	return nil
}

// fail records the attempt outcome: failed status, attempt counter and
// error text in one update.
func (o *PublishOrchestrator) fail(ctx context.Context, pub common.ScheduledPublication, cause error) error {
	pub.Status = common.PublicationStatusFailed
	pub.PublishAttempts++
	pub.LastError = cause.Error()
	pub.UpdatedAt = o.now()
	if err := o.repo.UpdatePublication(ctx, pub); err != nil {
		logrus.WithError(err).Errorf("[ORCHESTRATOR] Failed to record failure for publication %s", pub.ID)
	}
	logrus.WithError(cause).Errorf("[ORCHESTRATOR] Publication %s failed (attempt %d)", pub.ID, pub.PublishAttempts)
	return cause
}
