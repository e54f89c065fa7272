package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/postflow/postflow/infrastructure/loopback"
	"github.com/postflow/postflow/scheduler/application"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/postflow/postflow/scheduler/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	uc    *SchedulingUsecase
	queue *repository.MemoryJobQueue
	now   time.Time
}

// newFixture wires the facade against sqlite-backed repositories and
// the in-memory job queue, exactly like a dev deployment without
// valkey.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	pubRepo := repository.NewPublicationGormRepository(db)
	queueRepo := repository.NewPostingQueueGormRepository(db)
	optimalRepo := repository.NewOptimalTimeGormRepository(db)
	contentRepo := repository.NewContentGormRepository(db)
	require.NoError(t, pubRepo.Init(ctx))
	require.NoError(t, queueRepo.Init(ctx))
	require.NoError(t, optimalRepo.Init(ctx))
	require.NoError(t, contentRepo.Init(ctx))

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	jobQueue := repository.NewMemoryJobQueue()
	jobQueue.SetClock(clock)

	adapters := domain.NewAdapterRegistry()
	adapters.Register(loopback.NewAdapter())

	orchestrator := application.NewPublishOrchestrator(pubRepo, contentRepo, contentRepo, adapters, jobQueue)
	orchestrator.SetClock(clock)
	dispatcher := application.NewDispatcher(pubRepo, jobQueue, orchestrator)
	dispatcher.SetClock(clock)
	allocator := application.NewTimeSlotAllocator(queueRepo, pubRepo, dispatcher)
	allocator.SetClock(clock)
	calculator := application.NewOptimalTimeCalculator(contentRepo, optimalRepo)
	calculator.SetClock(clock)

	uc := NewSchedulingUsecase(pubRepo, contentRepo, contentRepo, queueRepo, dispatcher, allocator, calculator)

	// Seed the shared account and post rows the engine reads.
	require.NoError(t, db.Exec(
		`INSERT INTO accounts (id, owner_id, platform, handle, enabled, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"account-1", "owner-1", "loopback", "@me", true, now, now,
	).Error)
	require.NoError(t, contentRepo.CreatePost(ctx, common.Post{
		ID: "post-1", OwnerID: "owner-1", Text: "hello", Status: common.PostStatusScheduled, CreatedAt: now, UpdatedAt: now,
	}))

	return &fixture{uc: uc, queue: jobQueue, now: now}
}

func TestSchedulePostFuture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	at := f.now.Add(2 * time.Hour)
	pub, err := f.uc.SchedulePost(ctx, ScheduleRequest{
		PostID: "post-1", AccountID: "account-1", ScheduledFor: at, Timezone: "UTC",
	})
	require.NoError(t, err)
	assert.Equal(t, common.PublicationStatusPending, pub.Status)
	assert.Equal(t, at, pub.ScheduledFor.UTC())

	pending, err := f.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, pub.ID, pending[0].PublicationID())
}

func TestSchedulePostRecurringCreatesGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	end := f.now.AddDate(0, 2, 0)
	pub, err := f.uc.SchedulePost(ctx, ScheduleRequest{
		PostID:            "post-1",
		AccountID:         "account-1",
		ScheduledFor:      f.now.Add(time.Hour),
		IsRecurring:       true,
		RecurrencePattern: "weekly",
		Frequency:         1,
		RecurrenceEndDate: &end,
	})
	require.NoError(t, err)
	assert.True(t, pub.IsRecurring)
	assert.Equal(t, common.RecurrenceWeekly, pub.RecurrencePattern)
	assert.NotEmpty(t, pub.RecurringGroupID)
}

func TestSchedulePostUnknownRefs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.SchedulePost(ctx, ScheduleRequest{
		PostID: "missing", AccountID: "account-1", ScheduledFor: f.now.Add(time.Hour),
	})
	assert.ErrorIs(t, err, common.ErrPostNotFound)

	_, err = f.uc.SchedulePost(ctx, ScheduleRequest{
		PostID: "post-1", AccountID: "missing", ScheduledFor: f.now.Add(time.Hour),
	})
	assert.ErrorIs(t, err, common.ErrAccountNotFound)
}

func TestCreateQueueAndAddToQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	queue, err := f.uc.CreateQueue(ctx, CreateQueueRequest{
		OwnerID:   "owner-1",
		AccountID: "account-1",
		Name:      "weekly plan",
		Timezone:  "UTC",
		Slots: []common.TimeSlot{
			{DayOfWeek: 3, Time: "15:00", Active: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, queue.Slots, 1)

	pub, err := f.uc.AddToQueue(ctx, queue.ID, "post-1")
	require.NoError(t, err)
	assert.Equal(t, common.PublicationStatusQueued, pub.Status)
	assert.Equal(t, 1, pub.QueuePosition)
	// Wednesday 15:00 is later the same day.
	assert.Equal(t, time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC), pub.ScheduledFor.UTC())
}

func TestRescheduleMovesLivePublication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pub, err := f.uc.SchedulePost(ctx, ScheduleRequest{
		PostID: "post-1", AccountID: "account-1", ScheduledFor: f.now.Add(time.Hour),
	})
	require.NoError(t, err)

	moved, err := f.uc.Reschedule(ctx, pub.ID, f.now.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, common.PublicationStatusPending, moved.Status)
	assert.Equal(t, f.now.Add(4*time.Hour), moved.ScheduledFor.UTC())
}

func TestCancelIsFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pub, err := f.uc.SchedulePost(ctx, ScheduleRequest{
		PostID: "post-1", AccountID: "account-1", ScheduledFor: f.now.Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.Cancel(ctx, pub.ID))
	got, err := f.uc.GetPublication(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, common.PublicationStatusCancelled, got.Status)

	// Cancelled is terminal; the record cannot be brought back.
	_, err = f.uc.Reschedule(ctx, pub.ID, f.now.Add(4*time.Hour))
	assert.ErrorIs(t, err, common.ErrTerminalStatus)
}
