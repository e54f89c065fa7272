package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/postflow/postflow/scheduler/domain/common"
)

func (env *testEnv) addGroup(id string, pattern common.RecurrencePattern, frequency int, endDate *time.Time) common.RecurringGroup {
	group := common.RecurringGroup{
		ID:          id,
		AccountID:   "account-1",
		Pattern:     pattern,
		Frequency:   frequency,
		EndDate:     endDate,
		NextRunDate: env.now,
		IsActive:    true,
		CreatedAt:   env.now,
		UpdatedAt:   env.now,
	}
	env.pubs.groups[id] = group
	return group
}

func TestAdvanceWeeklyCreatesNextOccurrence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addGroup("group-1", common.RecurrenceWeekly, 1, nil)
	pub := env.addPublication("pub-1", common.PublicationStatusPublished, env.now)
	pub.IsRecurring = true
	pub.RecurringGroupID = "group-1"
	env.pubs.pubs["pub-1"] = pub

	require.NoError(t, env.engine.Advance(ctx, "group-1", "pub-1"))

	wantDate := env.now.AddDate(0, 0, 7)

	// A fresh publication exists at +7 days with a cloned post.
	var next common.ScheduledPublication
	for id, p := range env.pubs.pubs {
		if id != "pub-1" {
			next = p
		}
	}
	require.NotEmpty(t, next.ID)
	assert.Equal(t, wantDate, next.ScheduledFor)
	assert.Equal(t, common.PublicationStatusPending, next.Status)
	assert.True(t, next.IsRecurring)
	assert.Equal(t, "group-1", next.RecurringGroupID)
	assert.NotEqual(t, "post-1", next.PostID, "content is cloned, not shared")

	clone, err := env.content.GetPost(ctx, next.PostID)
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusDraft, clone.Status)
	assert.Equal(t, "hi", clone.Text)

	group, err := env.pubs.GetRecurringGroup(ctx, "group-1")
	require.NoError(t, err)
	assert.Equal(t, wantDate, group.NextRunDate)

	// The next occurrence is queued for delayed delivery.
	pending, err := env.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, wantDate, pending[0].FireAt)
}

func TestAdvancePastEndDateDeactivatesGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	end := env.now.AddDate(0, 0, 3)
	env.addGroup("group-1", common.RecurrenceWeekly, 1, &end)
	env.addPublication("pub-1", common.PublicationStatusPublished, env.now)

	require.NoError(t, env.engine.Advance(ctx, "group-1", "pub-1"))

	group, err := env.pubs.GetRecurringGroup(ctx, "group-1")
	require.NoError(t, err)
	assert.False(t, group.IsActive)

	// No new publication, no new job.
	assert.Len(t, env.pubs.pubs, 1)
	pending, err := env.queue.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAdvanceInactiveGroupIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.addGroup("group-1", common.RecurrenceDaily, 1, nil)
	group.IsActive = false
	env.pubs.groups["group-1"] = group
	env.addPublication("pub-1", common.PublicationStatusPublished, env.now)

	require.NoError(t, env.engine.Advance(ctx, "group-1", "pub-1"))
	assert.Len(t, env.pubs.pubs, 1)
}

func TestAdvanceCustomIntervalUsesStoredInterval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.addGroup("group-1", common.RecurrenceCustom, 1, nil)
	group.CustomInterval = 36 * time.Hour
	env.pubs.groups["group-1"] = group
	env.addPublication("pub-1", common.PublicationStatusPublished, env.now)

	require.NoError(t, env.engine.Advance(ctx, "group-1", "pub-1"))

	got, err := env.pubs.GetRecurringGroup(ctx, "group-1")
	require.NoError(t, err)
	assert.Equal(t, env.now.Add(36*time.Hour), got.NextRunDate)
}
