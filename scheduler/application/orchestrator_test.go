package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgError "github.com/postflow/postflow/pkg/error"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/postflow/postflow/scheduler/domain/jobs"
)

func TestPublishSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addPublication("pub-1", common.PublicationStatusPending, env.now)

	require.NoError(t, env.orchestrator.Publish(ctx, "pub-1"))

	pub, err := env.pubs.GetPublication(ctx, "pub-1")
	require.NoError(t, err)
	assert.Equal(t, common.PublicationStatusPublished, pub.Status)

	post, err := env.content.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPublished, post.Status)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, "ext-1", post.PlatformPostID)
}

func TestPublishAdapterFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.adapter.err = errors.New("rate limited")
	env.addPublication("pub-1", common.PublicationStatusPending, env.now)

	err := env.orchestrator.Publish(ctx, "pub-1")
	require.Error(t, err)

	// Adapter failures surface as the typed publish error (502 at the
	// REST boundary), keeping the platform's own message.
	var typed pkgError.PublishError
	require.ErrorAs(t, err, &typed)
	assert.Contains(t, typed.Error(), "rate limited")

	pub, gerr := env.pubs.GetPublication(ctx, "pub-1")
	require.NoError(t, gerr)
	assert.Equal(t, common.PublicationStatusFailed, pub.Status)
	assert.Equal(t, 1, pub.PublishAttempts)
	assert.Contains(t, pub.LastError, "rate limited")
}

func TestPublishAlreadyClaimedSkips(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addPublication("pub-1", common.PublicationStatusPublishing, env.now)

	err := env.orchestrator.Publish(ctx, "pub-1")
	assert.ErrorIs(t, err, common.ErrAlreadyClaimed)
	assert.Equal(t, 0, env.adapter.callCount())
}

func TestPublishMissingAdapterFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.content.accounts["account-1"] = common.Account{
		ID: "account-1", OwnerID: "owner-1", Platform: common.PlatformTwitter, Handle: "@me", Enabled: true,
	}
	env.addPublication("pub-1", common.PublicationStatusPending, env.now)

	err := env.orchestrator.Publish(ctx, "pub-1")
	assert.ErrorIs(t, err, common.ErrAdapterNotFound)

	pub, gerr := env.pubs.GetPublication(ctx, "pub-1")
	require.NoError(t, gerr)
	assert.Equal(t, common.PublicationStatusFailed, pub.Status)
}

func TestPublishMissingPostFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := env.addPublication("pub-1", common.PublicationStatusPending, env.now)
	pub.PostID = "missing"
	env.pubs.pubs["pub-1"] = pub

	err := env.orchestrator.Publish(ctx, "pub-1")
	assert.ErrorIs(t, err, common.ErrPostNotFound)
}

func TestPublishRecurringEnqueuesAdvance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := env.addPublication("pub-1", common.PublicationStatusPending, env.now)
	pub.IsRecurring = true
	pub.RecurrencePattern = common.RecurrenceWeekly
	pub.RecurringGroupID = "group-1"
	env.pubs.pubs["pub-1"] = pub

	require.NoError(t, env.orchestrator.Publish(ctx, "pub-1"))

	pending, err := env.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, jobs.KindAdvanceRecurrence, pending[0].Kind)
	assert.Equal(t, "pub-1", pending[0].PublicationID())
	assert.True(t, !pending[0].FireAt.After(env.now.Add(time.Second)), "advance job fires immediately")
}
