package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/sirupsen/logrus"
)

// RecurrenceEngine materializes the next occurrence of a recurring
// publication: clone the post content, create a fresh publication and
// hand it back to the dispatcher.
type RecurrenceEngine struct {
	repo       domain.IPublicationRepository
	content    domain.IContentRepository
	dispatcher *Dispatcher
	now        func() time.Time
}

func NewRecurrenceEngine(repo domain.IPublicationRepository, content domain.IContentRepository, dispatcher *Dispatcher) *RecurrenceEngine {
	return &RecurrenceEngine{
		repo:       repo,
		content:    content,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the engine's clock. Test hook.
func (e *RecurrenceEngine) SetClock(now func() time.Time) {
	e.now = now
}

// Advance computes the next occurrence of the group after the given
// completed publication. When the next date falls past the group's end
// date the group is deactivated and no occurrence is created; that is
// terminal, not retried.
func (e *RecurrenceEngine) Advance(ctx context.Context, groupID, publicationID string) error {
	group, err := e.repo.GetRecurringGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsActive {
		logrus.Debugf("[RECURRENCE] Group %s is inactive, nothing to advance", groupID)
		return nil
	}
	pub, err := e.repo.GetPublication(ctx, publicationID)
	if err != nil {
		return err
	}

	if group.Pattern == common.RecurrenceCustom && group.CustomInterval <= 0 {
		logrus.Warnf("[RECURRENCE] Group %s has a custom pattern without an interval, falling back to daily", groupID)
	}
	nextDate := group.NextOccurrence(pub.ScheduledFor)

	now := e.now()
	if group.Expired(nextDate) {
		group.IsActive = false
		group.UpdatedAt = now
		if err := e.repo.UpdateRecurringGroup(ctx, group); err != nil {
			return err
		}
		logrus.Infof("[RECURRENCE] Group %s reached its end date, deactivated", groupID)
		return nil
	}

	post, err := e.content.GetPost(ctx, pub.PostID)
	if err != nil {
		return err
	}
	clone := post.CloneForRecurrence(uuid.NewString(), now)
	if err := e.content.CreatePost(ctx, clone); err != nil {
		return err
	}

	next := common.ScheduledPublication{
		ID:                uuid.NewString(),
		PostID:            clone.ID,
		AccountID:         pub.AccountID,
		ScheduledFor:      nextDate,
		Timezone:          pub.Timezone,
		Status:            common.PublicationStatusPending,
		IsRecurring:       true,
		RecurrencePattern: group.Pattern,
		RecurrenceEndDate: group.EndDate,
		RecurringGroupID:  group.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := e.repo.CreatePublication(ctx, next); err != nil {
		return err
	}

	group.NextRunDate = nextDate
	group.UpdatedAt = now
	if err := e.repo.UpdateRecurringGroup(ctx, group); err != nil {
		return err
	}

	logrus.Infof("[RECURRENCE] Group %s advanced: next occurrence %s (publication %s)", groupID, nextDate.Format(time.RFC3339), next.ID)
	return e.dispatcher.Schedule(ctx, next.ID, nextDate)
}
