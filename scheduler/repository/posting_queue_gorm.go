package repository

import (
	"context"
	"time"

	"github.com/postflow/postflow/scheduler/domain/common"
	"gorm.io/gorm"
)

type postingQueueModel struct {
	ID        string    `gorm:"primaryKey;column:id"`
	OwnerID   string    `gorm:"column:owner_id;not null;index"`
	AccountID string    `gorm:"column:account_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Timezone  string    `gorm:"column:timezone;default:'UTC'"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (postingQueueModel) TableName() string { return "posting_queues" }

type timeSlotModel struct {
	ID        string `gorm:"primaryKey;column:id"`
	QueueID   string `gorm:"column:queue_id;not null;index"`
	DayOfWeek int    `gorm:"column:day_of_week;not null"`
	Time      string `gorm:"column:time;not null"`
	Active    bool   `gorm:"column:active;default:true"`
}

func (timeSlotModel) TableName() string { return "time_slots" }

type PostingQueueGormRepository struct {
	db *gorm.DB
}

func NewPostingQueueGormRepository(db *gorm.DB) *PostingQueueGormRepository {
	return &PostingQueueGormRepository{db: db}
}

func (r *PostingQueueGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&postingQueueModel{}, &timeSlotModel{})
}

func (r *PostingQueueGormRepository) CreateQueue(ctx context.Context, q common.PostingQueue) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := postingQueueModel{
			ID:        q.ID,
			OwnerID:   q.OwnerID,
			AccountID: q.AccountID,
			Name:      q.Name,
			Timezone:  q.Timezone,
			CreatedAt: q.CreatedAt,
			UpdatedAt: q.UpdatedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, s := range q.Slots {
			slot := toTimeSlotModel(s)
			slot.QueueID = q.ID
			if err := tx.Create(&slot).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostingQueueGormRepository) GetQueue(ctx context.Context, id string) (common.PostingQueue, error) {
	var m postingQueueModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return common.PostingQueue{}, common.ErrQueueNotFound
		}
		return common.PostingQueue{}, err
	}
	var slots []timeSlotModel
	if err := r.db.WithContext(ctx).Where("queue_id = ?", id).Order("day_of_week ASC, time ASC").Find(&slots).Error; err != nil {
		return common.PostingQueue{}, err
	}
	return fromPostingQueueModel(m, slots), nil
}

func (r *PostingQueueGormRepository) ListQueues(ctx context.Context, accountID string) ([]common.PostingQueue, error) {
	var models []postingQueueModel
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]common.PostingQueue, 0, len(models))
	for _, m := range models {
		q, err := r.GetQueue(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		res = append(res, q)
	}
	return res, nil
}

func (r *PostingQueueGormRepository) AddSlot(ctx context.Context, slot common.TimeSlot) error {
	model := toTimeSlotModel(slot)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *PostingQueueGormRepository) RemoveSlot(ctx context.Context, slotID string) error {
	return r.db.WithContext(ctx).Delete(&timeSlotModel{}, "id = ?", slotID).Error
}

func toTimeSlotModel(s common.TimeSlot) timeSlotModel {
	return timeSlotModel{
		ID:        s.ID,
		QueueID:   s.QueueID,
		DayOfWeek: s.DayOfWeek,
		Time:      s.Time,
		Active:    s.Active,
	}
}

func fromPostingQueueModel(m postingQueueModel, slots []timeSlotModel) common.PostingQueue {
	q := common.PostingQueue{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		AccountID: m.AccountID,
		Name:      m.Name,
		Timezone:  m.Timezone,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, s := range slots {
		q.Slots = append(q.Slots, common.TimeSlot{
			ID:        s.ID,
			QueueID:   s.QueueID,
			DayOfWeek: s.DayOfWeek,
			Time:      s.Time,
			Active:    s.Active,
		})
	}
	return q
}
