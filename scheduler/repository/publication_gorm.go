package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/postflow/postflow/scheduler/domain/common"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type publicationModel struct {
	ID                string         `gorm:"primaryKey;column:id"`
	PostID            string         `gorm:"column:post_id;not null;index"`
	AccountID         string         `gorm:"column:account_id;not null;index"`
	ScheduledFor      time.Time      `gorm:"column:scheduled_for;not null;index"`
	Timezone          sql.NullString `gorm:"column:timezone"`
	Status            string         `gorm:"column:status;default:'pending';index"`
	IsRecurring       bool           `gorm:"column:is_recurring;default:false"`
	RecurrencePattern sql.NullString `gorm:"column:recurrence_pattern"`
	RecurrenceEndDate *time.Time     `gorm:"column:recurrence_end_date"`
	RecurringGroupID  sql.NullString `gorm:"column:recurring_group_id;index"`
	QueueID           sql.NullString `gorm:"column:queue_id;index"`
	QueuePosition     int            `gorm:"column:queue_position;default:0"`
	PublishAttempts   int            `gorm:"column:publish_attempts;default:0"`
	LastError         sql.NullString `gorm:"column:last_error"`
	CreatedAt         time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;not null"`
}

func (publicationModel) TableName() string { return "scheduled_publications" }

type recurringGroupModel struct {
	ID             string     `gorm:"primaryKey;column:id"`
	AccountID      string     `gorm:"column:account_id;not null;index"`
	Pattern        string     `gorm:"column:pattern;not null"`
	Frequency      int        `gorm:"column:frequency;default:1"`
	CustomInterval int64      `gorm:"column:custom_interval_ms;default:0"`
	EndDate        *time.Time `gorm:"column:end_date"`
	NextRunDate    time.Time  `gorm:"column:next_run_date;not null"`
	IsActive       bool       `gorm:"column:is_active;default:true"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;not null"`
}

func (recurringGroupModel) TableName() string { return "recurring_groups" }

// --- Repository Implementation ---

type PublicationGormRepository struct {
	db *gorm.DB
}

func NewPublicationGormRepository(db *gorm.DB) *PublicationGormRepository {
	return &PublicationGormRepository{db: db}
}

func (r *PublicationGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&publicationModel{},
		&recurringGroupModel{},
	)
}

func (r *PublicationGormRepository) CreatePublication(ctx context.Context, pub common.ScheduledPublication) error {
	model := toPublicationModel(pub)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *PublicationGormRepository) GetPublication(ctx context.Context, id string) (common.ScheduledPublication, error) {
	var m publicationModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return common.ScheduledPublication{}, common.ErrPublicationNotFound
		}
		return common.ScheduledPublication{}, err
	}
	return fromPublicationModel(m), nil
}

func (r *PublicationGormRepository) UpdatePublication(ctx context.Context, pub common.ScheduledPublication) error {
	model := toPublicationModel(pub)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *PublicationGormRepository) ListPublicationsByAccount(ctx context.Context, accountID string) ([]common.ScheduledPublication, error) {
	var models []publicationModel
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("scheduled_for ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]common.ScheduledPublication, len(models))
	for i, m := range models {
		res[i] = fromPublicationModel(m)
	}
	return res, nil
}

func (r *PublicationGormRepository) ListDuePublications(ctx context.Context, before time.Time) ([]common.ScheduledPublication, error) {
	var models []publicationModel
	statuses := []string{string(common.PublicationStatusPending), string(common.PublicationStatusQueued)}
	if err := r.db.WithContext(ctx).Where("status IN ? AND scheduled_for <= ?", statuses, before).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]common.ScheduledPublication, len(models))
	for i, m := range models {
		res[i] = fromPublicationModel(m)
	}
	return res, nil
}

func (r *PublicationGormRepository) CountByStatus(ctx context.Context, statuses ...common.PublicationStatus) (int64, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&publicationModel{}).Where("status IN ?", raw).Count(&count).Error
	return count, err
}

// ClaimForPublishing is the at-most-once guard: a conditional update
// that only moves pending/queued rows into publishing. RowsAffected
// tells us whether this caller won the claim.
func (r *PublicationGormRepository) ClaimForPublishing(ctx context.Context, id string) (common.ScheduledPublication, error) {
	claimable := []string{string(common.PublicationStatusPending), string(common.PublicationStatusQueued)}
	res := r.db.WithContext(ctx).Model(&publicationModel{}).
		Where("id = ? AND status IN ?", id, claimable).
		Updates(map[string]interface{}{
			"status":     string(common.PublicationStatusPublishing),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return common.ScheduledPublication{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetPublication(ctx, id); err != nil {
			return common.ScheduledPublication{}, err
		}
		return common.ScheduledPublication{}, common.ErrAlreadyClaimed
	}
	return r.GetPublication(ctx, id)
}

func (r *PublicationGormRepository) MaxQueuePosition(ctx context.Context, queueID string) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).Model(&publicationModel{}).
		Where("queue_id = ?", queueID).
		Select("MAX(queue_position)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

// Recurring Groups

func (r *PublicationGormRepository) CreateRecurringGroup(ctx context.Context, group common.RecurringGroup) error {
	model := toRecurringGroupModel(group)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *PublicationGormRepository) GetRecurringGroup(ctx context.Context, id string) (common.RecurringGroup, error) {
	var m recurringGroupModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return common.RecurringGroup{}, common.ErrGroupNotFound
		}
		return common.RecurringGroup{}, err
	}
	return fromRecurringGroupModel(m), nil
}

func (r *PublicationGormRepository) UpdateRecurringGroup(ctx context.Context, group common.RecurringGroup) error {
	model := toRecurringGroupModel(group)
	return r.db.WithContext(ctx).Save(&model).Error
}

// --- Mappers ---

func toPublicationModel(p common.ScheduledPublication) publicationModel {
	return publicationModel{
		ID:                p.ID,
		PostID:            p.PostID,
		AccountID:         p.AccountID,
		ScheduledFor:      p.ScheduledFor,
		Timezone:          sql.NullString{String: p.Timezone, Valid: p.Timezone != ""},
		Status:            string(p.Status),
		IsRecurring:       p.IsRecurring,
		RecurrencePattern: sql.NullString{String: string(p.RecurrencePattern), Valid: p.RecurrencePattern != ""},
		RecurrenceEndDate: p.RecurrenceEndDate,
		RecurringGroupID:  sql.NullString{String: p.RecurringGroupID, Valid: p.RecurringGroupID != ""},
		QueueID:           sql.NullString{String: p.QueueID, Valid: p.QueueID != ""},
		QueuePosition:     p.QueuePosition,
		PublishAttempts:   p.PublishAttempts,
		LastError:         sql.NullString{String: p.LastError, Valid: p.LastError != ""},
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPublicationModel(m publicationModel) common.ScheduledPublication {
	return common.ScheduledPublication{
		ID:                m.ID,
		PostID:            m.PostID,
		AccountID:         m.AccountID,
		ScheduledFor:      m.ScheduledFor,
		Timezone:          nullStringValue(m.Timezone),
		Status:            common.PublicationStatus(m.Status),
		IsRecurring:       m.IsRecurring,
		RecurrencePattern: common.RecurrencePattern(nullStringValue(m.RecurrencePattern)),
		RecurrenceEndDate: m.RecurrenceEndDate,
		RecurringGroupID:  nullStringValue(m.RecurringGroupID),
		QueueID:           nullStringValue(m.QueueID),
		QueuePosition:     m.QueuePosition,
		PublishAttempts:   m.PublishAttempts,
		LastError:         nullStringValue(m.LastError),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toRecurringGroupModel(g common.RecurringGroup) recurringGroupModel {
	return recurringGroupModel{
		ID:             g.ID,
		AccountID:      g.AccountID,
		Pattern:        string(g.Pattern),
		Frequency:      g.Frequency,
		CustomInterval: g.CustomInterval.Milliseconds(),
		EndDate:        g.EndDate,
		NextRunDate:    g.NextRunDate,
		IsActive:       g.IsActive,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

func fromRecurringGroupModel(m recurringGroupModel) common.RecurringGroup {
	return common.RecurringGroup{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Pattern:        common.RecurrencePattern(m.Pattern),
		Frequency:      m.Frequency,
		CustomInterval: time.Duration(m.CustomInterval) * time.Millisecond,
		EndDate:        m.EndDate,
		NextRunDate:    m.NextRunDate,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// nullStringValue returns a trimmed string or empty if null to prevent
// legacy data panics.
func nullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return strings.TrimSpace(ns.String)
}
