package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/postflow/postflow/scheduler/application"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
)

// ScheduleRequest describes one scheduling call from a controller.
type ScheduleRequest struct {
	PostID            string     `json:"post_id"`
	AccountID         string     `json:"account_id"`
	ScheduledFor      time.Time  `json:"scheduled_for"`
	Timezone          string     `json:"timezone"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern"`
	Frequency         int        `json:"frequency"`
	CustomIntervalMs  int64      `json:"custom_interval_ms"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date"`
}

// CreateQueueRequest describes a new posting queue and its initial slots.
type CreateQueueRequest struct {
	OwnerID   string            `json:"owner_id"`
	AccountID string            `json:"account_id"`
	Name      string            `json:"name"`
	Timezone  string            `json:"timezone"`
	Slots     []common.TimeSlot `json:"slots"`
}

// SchedulingUsecase is the thin facade controllers call into. All real
// behavior lives in the application services.
type SchedulingUsecase struct {
	repo       domain.IPublicationRepository
	content    domain.IContentRepository
	accounts   domain.IAccountRepository
	queues     domain.IPostingQueueRepository
	dispatcher *application.Dispatcher
	allocator  *application.TimeSlotAllocator
	calculator *application.OptimalTimeCalculator
}

func NewSchedulingUsecase(
	repo domain.IPublicationRepository,
	content domain.IContentRepository,
	accounts domain.IAccountRepository,
	queues domain.IPostingQueueRepository,
	dispatcher *application.Dispatcher,
	allocator *application.TimeSlotAllocator,
	calculator *application.OptimalTimeCalculator,
) *SchedulingUsecase {
	return &SchedulingUsecase{
		repo:       repo,
		content:    content,
		accounts:   accounts,
		queues:     queues,
		dispatcher: dispatcher,
		allocator:  allocator,
		calculator: calculator,
	}
}

// SchedulePost creates the publication record (and recurring group for
// recurring requests) and hands it to the dispatcher.
func (u *SchedulingUsecase) SchedulePost(ctx context.Context, req ScheduleRequest) (common.ScheduledPublication, error) {
	if _, err := u.content.GetPost(ctx, req.PostID); err != nil {
		return common.ScheduledPublication{}, err
	}
	if _, err := u.accounts.GetAccount(ctx, req.AccountID); err != nil {
		return common.ScheduledPublication{}, err
	}

	now := time.Now().UTC()
	pub := common.ScheduledPublication{
		ID:                uuid.NewString(),
		PostID:            req.PostID,
		AccountID:         req.AccountID,
		ScheduledFor:      req.ScheduledFor,
		Timezone:          req.Timezone,
		Status:            common.PublicationStatusPending,
		IsRecurring:       req.IsRecurring,
		RecurrenceEndDate: req.RecurrenceEndDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if req.IsRecurring {
		pattern := common.RecurrencePattern(req.RecurrencePattern)
		frequency := req.Frequency
		if frequency <= 0 {
			frequency = 1
		}
		group := common.RecurringGroup{
			ID:             uuid.NewString(),
			AccountID:      req.AccountID,
			Pattern:        pattern,
			Frequency:      frequency,
			CustomInterval: time.Duration(req.CustomIntervalMs) * time.Millisecond,
			EndDate:        req.RecurrenceEndDate,
			NextRunDate:    req.ScheduledFor,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := u.repo.CreateRecurringGroup(ctx, group); err != nil {
			return common.ScheduledPublication{}, err
		}
		pub.RecurrencePattern = pattern
		pub.RecurringGroupID = group.ID
	}

	if err := u.repo.CreatePublication(ctx, pub); err != nil {
		return common.ScheduledPublication{}, err
	}
	if err := u.dispatcher.Schedule(ctx, pub.ID, req.ScheduledFor); err != nil {
		return common.ScheduledPublication{}, err
	}
	return u.repo.GetPublication(ctx, pub.ID)
}

func (u *SchedulingUsecase) Reschedule(ctx context.Context, publicationID string, newAt time.Time) (common.ScheduledPublication, error) {
	if err := u.dispatcher.Reschedule(ctx, publicationID, newAt); err != nil {
		return common.ScheduledPublication{}, err
	}
	return u.repo.GetPublication(ctx, publicationID)
}

func (u *SchedulingUsecase) Cancel(ctx context.Context, publicationID string) error {
	return u.dispatcher.Cancel(ctx, publicationID)
}

func (u *SchedulingUsecase) GetPublication(ctx context.Context, publicationID string) (common.ScheduledPublication, error) {
	return u.repo.GetPublication(ctx, publicationID)
}

func (u *SchedulingUsecase) ListPublications(ctx context.Context, accountID string) ([]common.ScheduledPublication, error) {
	return u.repo.ListPublicationsByAccount(ctx, accountID)
}

func (u *SchedulingUsecase) AddToQueue(ctx context.Context, queueID, postID string) (common.ScheduledPublication, error) {
	if _, err := u.content.GetPost(ctx, postID); err != nil {
		return common.ScheduledPublication{}, err
	}
	return u.allocator.AssignToQueue(ctx, queueID, postID)
}

// Posting queue configuration

func (u *SchedulingUsecase) CreateQueue(ctx context.Context, req CreateQueueRequest) (common.PostingQueue, error) {
	if _, err := u.accounts.GetAccount(ctx, req.AccountID); err != nil {
		return common.PostingQueue{}, err
	}
	now := time.Now().UTC()
	queue := common.PostingQueue{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		AccountID: req.AccountID,
		Name:      req.Name,
		Timezone:  req.Timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, s := range req.Slots {
		s.ID = uuid.NewString()
		s.QueueID = queue.ID
		queue.Slots = append(queue.Slots, s)
	}
	if err := u.queues.CreateQueue(ctx, queue); err != nil {
		return common.PostingQueue{}, err
	}
	return u.queues.GetQueue(ctx, queue.ID)
}

func (u *SchedulingUsecase) GetQueue(ctx context.Context, queueID string) (common.PostingQueue, error) {
	return u.queues.GetQueue(ctx, queueID)
}

func (u *SchedulingUsecase) AddSlot(ctx context.Context, queueID string, dayOfWeek int, clock string) (common.TimeSlot, error) {
	if _, err := u.queues.GetQueue(ctx, queueID); err != nil {
		return common.TimeSlot{}, err
	}
	slot := common.TimeSlot{
		ID:        uuid.NewString(),
		QueueID:   queueID,
		DayOfWeek: dayOfWeek,
		Time:      clock,
		Active:    true,
	}
	if err := u.queues.AddSlot(ctx, slot); err != nil {
		return common.TimeSlot{}, err
	}
	return slot, nil
}

func (u *SchedulingUsecase) RemoveSlot(ctx context.Context, slotID string) error {
	return u.queues.RemoveSlot(ctx, slotID)
}

// Optimal times

func (u *SchedulingUsecase) CalculateOptimalTimes(ctx context.Context, accountID string) ([]common.OptimalPostingTime, error) {
	if _, err := u.accounts.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return u.calculator.Calculate(ctx, accountID)
}

func (u *SchedulingUsecase) GetOptimalTimes(ctx context.Context, accountID string) ([]common.OptimalPostingTime, error) {
	return u.calculator.GetOptimalTimes(ctx, accountID)
}

// CountPending exposes monitoring counters for the health endpoint.
func (u *SchedulingUsecase) CountPending(ctx context.Context) (int64, error) {
	return u.repo.CountByStatus(ctx, common.PublicationStatusPending, common.PublicationStatusQueued, common.PublicationStatusPublishing)
}
