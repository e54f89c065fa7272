package repository

import (
	"context"
	"time"

	"github.com/postflow/postflow/scheduler/domain/common"
	"gorm.io/gorm"
)

type optimalTimeModel struct {
	ID           string    `gorm:"primaryKey;column:id"`
	AccountID    string    `gorm:"column:account_id;not null;uniqueIndex:idx_account_bucket"`
	DayOfWeek    int       `gorm:"column:day_of_week;not null;uniqueIndex:idx_account_bucket"`
	Hour         int       `gorm:"column:hour;not null;uniqueIndex:idx_account_bucket"`
	Score        float64   `gorm:"column:score;not null"`
	SampleSize   int       `gorm:"column:sample_size;default:0"`
	CalculatedAt time.Time `gorm:"column:calculated_at;not null"`
}

func (optimalTimeModel) TableName() string { return "optimal_posting_times" }

type OptimalTimeGormRepository struct {
	db *gorm.DB
}

func NewOptimalTimeGormRepository(db *gorm.DB) *OptimalTimeGormRepository {
	return &OptimalTimeGormRepository{db: db}
}

func (r *OptimalTimeGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&optimalTimeModel{})
}

// ReplaceForAccount swaps the account's buckets atomically so stale
// entries never survive a recalculation run.
func (r *OptimalTimeGormRepository) ReplaceForAccount(ctx context.Context, accountID string, times []common.OptimalPostingTime) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&optimalTimeModel{}).Error; err != nil {
			return err
		}
		for _, t := range times {
			model := optimalTimeModel{
				ID:           t.ID,
				AccountID:    t.AccountID,
				DayOfWeek:    t.DayOfWeek,
				Hour:         t.Hour,
				Score:        t.Score,
				SampleSize:   t.SampleSize,
				CalculatedAt: t.CalculatedAt,
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OptimalTimeGormRepository) ListForAccount(ctx context.Context, accountID string, limit int) ([]common.OptimalPostingTime, error) {
	var models []optimalTimeModel
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("score DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]common.OptimalPostingTime, len(models))
	for i, m := range models {
		res[i] = common.OptimalPostingTime{
			ID:           m.ID,
			AccountID:    m.AccountID,
			DayOfWeek:    m.DayOfWeek,
			Hour:         m.Hour,
			Score:        m.Score,
			SampleSize:   m.SampleSize,
			CalculatedAt: m.CalculatedAt,
		}
	}
	return res, nil
}
