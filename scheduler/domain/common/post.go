package common

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

type PlatformType string

const (
	PlatformTwitter   PlatformType = "twitter"
	PlatformInstagram PlatformType = "instagram"
	PlatformLinkedIn  PlatformType = "linkedin"
	PlatformFacebook  PlatformType = "facebook"
	// PlatformLoopback publishes to an in-process sink. Used for smoke
	// tests and local development without platform credentials.
	PlatformLoopback PlatformType = "loopback"
)

// Post is the content item referenced by a scheduled publication.
// Authoring and validation rules live outside the engine; the engine
// only clones content for recurrence and stamps publish results.
type Post struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Text           string     `json:"text"`
	Hashtags       []string   `json:"hashtags,omitempty"`
	Mentions       []string   `json:"mentions,omitempty"`
	MediaRefs      []string   `json:"media_refs,omitempty"`
	Status         PostStatus `json:"status"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	PlatformPostID string     `json:"platform_post_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CloneForRecurrence copies the post's content into a fresh draft,
// leaving publish bookkeeping behind.
func (p Post) CloneForRecurrence(newID string, now time.Time) Post {
	clone := Post{
		ID:        newID,
		OwnerID:   p.OwnerID,
		Text:      p.Text,
		Status:    PostStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	clone.Hashtags = append(clone.Hashtags, p.Hashtags...)
	clone.Mentions = append(clone.Mentions, p.Mentions...)
	clone.MediaRefs = append(clone.MediaRefs, p.MediaRefs...)
	return clone
}

// PostMetrics carries the engagement numbers used by the optimal-time
// calculator. Analytics computation itself is an external concern.
type PostMetrics struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
	Views    int64 `json:"views"`
}

// EngagementRate is (likes+comments+shares)/max(views,1).
func (m PostMetrics) EngagementRate() float64 {
	views := m.Views
	if views < 1 {
		views = 1
	}
	return float64(m.Likes+m.Comments+m.Shares) / float64(views)
}

// Account is read-only platform account data consumed through the
// account store collaborator.
type Account struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"owner_id"`
	Platform      PlatformType `json:"platform"`
	Handle        string       `json:"handle"`
	CredentialRef string       `json:"credential_ref,omitempty"`
	Enabled       bool         `json:"enabled"`
}
