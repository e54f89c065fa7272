package application

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/sirupsen/logrus"
)

const (
	// historyWindow caps how many recent published posts feed one
	// calculation run.
	historyWindow = 100
	// topBuckets is how many ranked buckets survive a run.
	topBuckets = 10
)

// OptimalTimeCalculator mines historical publication outcomes and
// ranks (day-of-week, hour) buckets by average engagement rate.
type OptimalTimeCalculator struct {
	content domain.IContentRepository
	optimal domain.IOptimalTimeRepository
	now     func() time.Time
}

func NewOptimalTimeCalculator(content domain.IContentRepository, optimal domain.IOptimalTimeRepository) *OptimalTimeCalculator {
	return &OptimalTimeCalculator{
		content: content,
		optimal: optimal,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the calculator's clock. Test hook.
func (c *OptimalTimeCalculator) SetClock(now func() time.Time) {
	c.now = now
}

type bucketKey struct {
	day  int
	hour int
}

type bucketAgg struct {
	sum float64
	n   int
}

// Calculate rebuilds the account's ranked buckets from its recent
// published posts. The stored set is replaced wholesale so no stale
// bucket survives a recalculation.
func (c *OptimalTimeCalculator) Calculate(ctx context.Context, accountID string) ([]common.OptimalPostingTime, error) {
	history, err := c.content.ListRecentPublished(ctx, accountID, historyWindow)
	if err != nil {
		return nil, err
	}

	buckets := make(map[bucketKey]*bucketAgg)
	for _, item := range history {
		if item.Post.PublishedAt == nil {
			continue
		}
		at := item.Post.PublishedAt.UTC()
		key := bucketKey{day: int(at.Weekday()), hour: at.Hour()}
		agg, ok := buckets[key]
		if !ok {
			agg = &bucketAgg{}
			buckets[key] = agg
		}
		agg.sum += item.Metrics.EngagementRate()
		agg.n++
	}

	now := c.now()
	ranked := make([]common.OptimalPostingTime, 0, len(buckets))
	for key, agg := range buckets {
		ranked = append(ranked, common.OptimalPostingTime{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			DayOfWeek:    key.day,
			Hour:         key.hour,
			Score:        agg.sum / float64(agg.n),
			SampleSize:   agg.n,
			CalculatedAt: now,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].DayOfWeek != ranked[j].DayOfWeek {
			return ranked[i].DayOfWeek < ranked[j].DayOfWeek
		}
		return ranked[i].Hour < ranked[j].Hour
	})
	if len(ranked) > topBuckets {
		ranked = ranked[:topBuckets]
	}

	if err := c.optimal.ReplaceForAccount(ctx, accountID, ranked); err != nil {
		return nil, err
	}
	logrus.Infof("[OPTIMAL] Account %s: %d buckets ranked from %d posts", accountID, len(ranked), len(history))
	return ranked, nil
}

// GetOptimalTimes is a pure read, best buckets first.
func (c *OptimalTimeCalculator) GetOptimalTimes(ctx context.Context, accountID string) ([]common.OptimalPostingTime, error) {
	return c.optimal.ListForAccount(ctx, accountID, topBuckets)
}
