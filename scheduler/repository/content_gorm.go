package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"gorm.io/gorm"
)

type postModel struct {
	ID             string         `gorm:"primaryKey;column:id"`
	OwnerID        string         `gorm:"column:owner_id;not null;index"`
	Text           sql.NullString `gorm:"column:text"`
	Hashtags       sql.NullString `gorm:"column:hashtags"`   // JSON
	Mentions       sql.NullString `gorm:"column:mentions"`   // JSON
	MediaRefs      sql.NullString `gorm:"column:media_refs"` // JSON
	Status         string         `gorm:"column:status;default:'draft';index"`
	PublishedAt    *time.Time     `gorm:"column:published_at;index"`
	PlatformPostID sql.NullString `gorm:"column:platform_post_id"`
	Likes          int64          `gorm:"column:likes;default:0"`
	Comments       int64          `gorm:"column:comments;default:0"`
	Shares         int64          `gorm:"column:shares;default:0"`
	Views          int64          `gorm:"column:views;default:0"`
	AccountID      sql.NullString `gorm:"column:account_id;index"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;not null"`
}

func (postModel) TableName() string { return "posts" }

type accountModel struct {
	ID            string         `gorm:"primaryKey;column:id"`
	OwnerID       string         `gorm:"column:owner_id;not null;index"`
	Platform      string         `gorm:"column:platform;not null"`
	Handle        string         `gorm:"column:handle;not null"`
	CredentialRef sql.NullString `gorm:"column:credential_ref"`
	Enabled       bool           `gorm:"column:enabled;default:true"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null"`
}

func (accountModel) TableName() string { return "accounts" }

// ContentGormRepository backs both the content-store and account-store
// collaborators with the shared relational database.
type ContentGormRepository struct {
	db *gorm.DB
}

func NewContentGormRepository(db *gorm.DB) *ContentGormRepository {
	return &ContentGormRepository{db: db}
}

func (r *ContentGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&postModel{}, &accountModel{})
}

func (r *ContentGormRepository) GetPost(ctx context.Context, id string) (common.Post, error) {
	var m postModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return common.Post{}, common.ErrPostNotFound
		}
		return common.Post{}, err
	}
	return fromPostModel(m), nil
}

func (r *ContentGormRepository) CreatePost(ctx context.Context, post common.Post) error {
	model := toPostModel(post)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ContentGormRepository) UpdatePost(ctx context.Context, post common.Post) error {
	model := toPostModel(post)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *ContentGormRepository) ListRecentPublished(ctx context.Context, accountID string, limit int) ([]domain.PublishedPost, error) {
	var models []postModel
	q := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ? AND published_at IS NOT NULL", accountID, string(common.PostStatusPublished)).
		Order("published_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.PublishedPost, len(models))
	for i, m := range models {
		res[i] = domain.PublishedPost{
			Post: fromPostModel(m),
			Metrics: common.PostMetrics{
				Likes:    m.Likes,
				Comments: m.Comments,
				Shares:   m.Shares,
				Views:    m.Views,
			},
		}
	}
	return res, nil
}

// MarkPublished performs a partial update so engagement counters
// written by the analytics pipeline are never clobbered.
func (r *ContentGormRepository) MarkPublished(ctx context.Context, postID, accountID string, at time.Time, externalID string) error {
	res := r.db.WithContext(ctx).Model(&postModel{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"status":           string(common.PostStatusPublished),
			"published_at":     at,
			"platform_post_id": externalID,
			"account_id":       accountID,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrPostNotFound
	}
	return nil
}

func (r *ContentGormRepository) GetAccount(ctx context.Context, id string) (common.Account, error) {
	var m accountModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return common.Account{}, common.ErrAccountNotFound
		}
		return common.Account{}, err
	}
	return common.Account{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Platform:      common.PlatformType(m.Platform),
		Handle:        m.Handle,
		CredentialRef: nullStringValue(m.CredentialRef),
		Enabled:       m.Enabled,
	}, nil
}

// --- Mappers ---

func toPostModel(p common.Post) postModel {
	hashtags, _ := json.Marshal(p.Hashtags)
	mentions, _ := json.Marshal(p.Mentions)
	mediaRefs, _ := json.Marshal(p.MediaRefs)
	return postModel{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Text:           sql.NullString{String: p.Text, Valid: p.Text != ""},
		Hashtags:       sql.NullString{String: string(hashtags), Valid: true},
		Mentions:       sql.NullString{String: string(mentions), Valid: true},
		MediaRefs:      sql.NullString{String: string(mediaRefs), Valid: true},
		Status:         string(p.Status),
		PublishedAt:    p.PublishedAt,
		PlatformPostID: sql.NullString{String: p.PlatformPostID, Valid: p.PlatformPostID != ""},
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPostModel(m postModel) common.Post {
	p := common.Post{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Text:           nullStringValue(m.Text),
		Status:         common.PostStatus(m.Status),
		PublishedAt:    m.PublishedAt,
		PlatformPostID: nullStringValue(m.PlatformPostID),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if s := nullStringValue(m.Hashtags); s != "" {
		_ = json.Unmarshal([]byte(s), &p.Hashtags)
	}
	if s := nullStringValue(m.Mentions); s != "" {
		_ = json.Unmarshal([]byte(s), &p.Mentions)
	}
	if s := nullStringValue(m.MediaRefs); s != "" {
		_ = json.Unmarshal([]byte(s), &p.MediaRefs)
	}
	return p
}
