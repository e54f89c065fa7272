package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/postflow/postflow/scheduler/domain/common"
)

func newContentRepo(t *testing.T) *ContentGormRepository {
	t.Helper()
	repo := NewContentGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestPostRoundTrip(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	post := common.Post{
		ID:        "post-1",
		OwnerID:   "owner-1",
		Text:      "hello world",
		Hashtags:  []string{"go", "scheduling"},
		Mentions:  []string{"@someone"},
		Status:    common.PostStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreatePost(ctx, post))

	got, err := repo.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, []string{"go", "scheduling"}, got.Hashtags)
	assert.Equal(t, common.PostStatusDraft, got.Status)

	_, err = repo.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrPostNotFound)
}

func TestMarkPublishedKeepsMetrics(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.CreatePost(ctx, common.Post{
		ID: "post-1", OwnerID: "owner-1", Text: "hi", Status: common.PostStatusScheduled, CreatedAt: now, UpdatedAt: now,
	}))

	// Simulate the analytics pipeline writing counters.
	require.NoError(t, repo.db.Model(&postModel{}).Where("id = ?", "post-1").
		Updates(map[string]interface{}{"likes": 42, "views": 100}).Error)

	publishedAt := now.Add(time.Minute)
	require.NoError(t, repo.MarkPublished(ctx, "post-1", "account-1", publishedAt, "ext-1"))

	got, err := repo.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPublished, got.Status)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, "ext-1", got.PlatformPostID)

	recent, err := repo.ListRecentPublished(ctx, "account-1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(42), recent[0].Metrics.Likes)
	assert.Equal(t, int64(100), recent[0].Metrics.Views)

	assert.ErrorIs(t, repo.MarkPublished(ctx, "missing", "account-1", publishedAt, "ext-2"), common.ErrPostNotFound)
}

func TestGetAccount(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.db.Create(&accountModel{
		ID: "account-1", OwnerID: "owner-1", Platform: "loopback", Handle: "@me", Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	got, err := repo.GetAccount(ctx, "account-1")
	require.NoError(t, err)
	assert.Equal(t, common.PlatformLoopback, got.Platform)
	assert.Equal(t, "@me", got.Handle)
	assert.True(t, got.Enabled)

	_, err = repo.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrAccountNotFound)
}

func TestListRecentPublishedNewestFirst(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"old", "mid", "new"} {
		now := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.CreatePost(ctx, common.Post{
			ID: id, OwnerID: "owner-1", Text: id, Status: common.PostStatusScheduled, CreatedAt: now, UpdatedAt: now,
		}))
		require.NoError(t, repo.MarkPublished(ctx, id, "account-1", now, "ext-"+id))
	}

	recent, err := repo.ListRecentPublished(ctx, "account-1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].Post.ID)
	assert.Equal(t, "mid", recent[1].Post.ID)
}
