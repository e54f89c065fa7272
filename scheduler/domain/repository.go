package domain

import (
	"context"
	"time"

	"github.com/postflow/postflow/scheduler/domain/common"
)

// IPublicationRepository is the durable store for scheduled
// publications and recurring groups.
type IPublicationRepository interface {
	Init(ctx context.Context) error

	CreatePublication(ctx context.Context, pub common.ScheduledPublication) error
	GetPublication(ctx context.Context, id string) (common.ScheduledPublication, error)
	UpdatePublication(ctx context.Context, pub common.ScheduledPublication) error
	ListPublicationsByAccount(ctx context.Context, accountID string) ([]common.ScheduledPublication, error)
	ListDuePublications(ctx context.Context, before time.Time) ([]common.ScheduledPublication, error)
	CountByStatus(ctx context.Context, statuses ...common.PublicationStatus) (int64, error)

	// ClaimForPublishing conditionally transitions the publication to
	// publishing only if it is currently pending or queued. Returns
	// common.ErrAlreadyClaimed when the guard fails. This is the
	// atomic unit protecting against double-processing.
	ClaimForPublishing(ctx context.Context, id string) (common.ScheduledPublication, error)

	// MaxQueuePosition returns the highest queue position currently
	// assigned within a posting queue (0 when empty).
	MaxQueuePosition(ctx context.Context, queueID string) (int, error)

	CreateRecurringGroup(ctx context.Context, group common.RecurringGroup) error
	GetRecurringGroup(ctx context.Context, id string) (common.RecurringGroup, error)
	UpdateRecurringGroup(ctx context.Context, group common.RecurringGroup) error
}

// IPostingQueueRepository stores weekly posting queues and their slots.
type IPostingQueueRepository interface {
	CreateQueue(ctx context.Context, q common.PostingQueue) error
	GetQueue(ctx context.Context, id string) (common.PostingQueue, error)
	ListQueues(ctx context.Context, accountID string) ([]common.PostingQueue, error)
	AddSlot(ctx context.Context, slot common.TimeSlot) error
	RemoveSlot(ctx context.Context, slotID string) error
}

// IOptimalTimeRepository persists ranked engagement buckets.
type IOptimalTimeRepository interface {
	// ReplaceForAccount swaps the account's stored buckets for the
	// given set in a single transaction.
	ReplaceForAccount(ctx context.Context, accountID string, times []common.OptimalPostingTime) error
	ListForAccount(ctx context.Context, accountID string, limit int) ([]common.OptimalPostingTime, error)
}

// IContentRepository is the external content-store collaborator.
type IContentRepository interface {
	GetPost(ctx context.Context, id string) (common.Post, error)
	CreatePost(ctx context.Context, post common.Post) error
	UpdatePost(ctx context.Context, post common.Post) error
	// MarkPublished stamps publish results on the post row without
	// touching engagement counters owned by analytics.
	MarkPublished(ctx context.Context, postID, accountID string, at time.Time, externalID string) error
	// ListRecentPublished returns the most recent published posts with
	// their metrics, newest first, capped at limit.
	ListRecentPublished(ctx context.Context, accountID string, limit int) ([]PublishedPost, error)
}

// PublishedPost pairs a published post with its engagement metrics.
type PublishedPost struct {
	Post    common.Post
	Metrics common.PostMetrics
}

// IAccountRepository is the read-only account-store collaborator.
type IAccountRepository interface {
	GetAccount(ctx context.Context, id string) (common.Account, error)
}
