package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/postflow/postflow/pkg/timeutils"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/sirupsen/logrus"
)

// TimeSlotAllocator finds the next available posting window of a
// weekly queue and attaches queue-bound publications to it.
type TimeSlotAllocator struct {
	queues     domain.IPostingQueueRepository
	repo       domain.IPublicationRepository
	dispatcher *Dispatcher
	now        func() time.Time
}

func NewTimeSlotAllocator(queues domain.IPostingQueueRepository, repo domain.IPublicationRepository, dispatcher *Dispatcher) *TimeSlotAllocator {
	return &TimeSlotAllocator{
		queues:     queues,
		repo:       repo,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the allocator's clock. Test hook.
func (a *TimeSlotAllocator) SetClock(now func() time.Time) {
	a.now = now
}

// FindNextSlot returns the first slot instant strictly after now,
// scanning the queue's active slots in (day, time) order and wrapping
// one week forward when the week's remaining slots have passed. A
// queue without active slots falls back to the top of the next hour.
func (a *TimeSlotAllocator) FindNextSlot(queue common.PostingQueue) time.Time {
	now := a.now()
	slots := queue.ActiveSlots()
	if len(slots) == 0 {
		return timeutils.TopOfNextHour(now)
	}

	var best time.Time
	for _, slot := range slots {
		hour, minute, err := timeutils.ParseClock(slot.Time)
		if err != nil {
			logrus.Warnf("[ALLOCATOR] Skipping slot %s with invalid time %q", slot.ID, slot.Time)
			continue
		}
		candidate := timeutils.NextWeekdayTime(now, time.Weekday(slot.DayOfWeek), hour, minute)
		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}
	if best.IsZero() {
		return timeutils.TopOfNextHour(now)
	}
	return best
}

// AssignToQueue creates a queued publication for the post at the next
// allocated slot, appends it at the tail of the queue ordering and
// hands it to the dispatcher.
func (a *TimeSlotAllocator) AssignToQueue(ctx context.Context, queueID, postID string) (common.ScheduledPublication, error) {
	queue, err := a.queues.GetQueue(ctx, queueID)
	if err != nil {
		return common.ScheduledPublication{}, err
	}

	at := a.FindNextSlot(queue)
	maxPos, err := a.repo.MaxQueuePosition(ctx, queueID)
	if err != nil {
		return common.ScheduledPublication{}, err
	}

	now := a.now()
	pub := common.ScheduledPublication{
		ID:            uuid.NewString(),
		PostID:        postID,
		AccountID:     queue.AccountID,
		ScheduledFor:  at,
		Timezone:      queue.Timezone,
		Status:        common.PublicationStatusQueued,
		QueueID:       queueID,
		QueuePosition: maxPos + 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.repo.CreatePublication(ctx, pub); err != nil {
		return common.ScheduledPublication{}, err
	}
	logrus.Infof("[ALLOCATOR] Post %s assigned to queue %s at position %d for %s", postID, queueID, pub.QueuePosition, at.Format(time.RFC3339))

	if err := a.dispatcher.Schedule(ctx, pub.ID, at); err != nil {
		return common.ScheduledPublication{}, err
	}
	return a.repo.GetPublication(ctx, pub.ID)
}
