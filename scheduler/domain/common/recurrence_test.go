package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextOccurrence(t *testing.T) {
	from := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		group RecurringGroup
		want  time.Time
	}{
		{"daily", RecurringGroup{Pattern: RecurrenceDaily, Frequency: 1}, from.AddDate(0, 0, 1)},
		{"every 3 days", RecurringGroup{Pattern: RecurrenceDaily, Frequency: 3}, from.AddDate(0, 0, 3)},
		{"weekly", RecurringGroup{Pattern: RecurrenceWeekly, Frequency: 1}, from.AddDate(0, 0, 7)},
		{"biweekly", RecurringGroup{Pattern: RecurrenceBiweekly, Frequency: 1}, from.AddDate(0, 0, 14)},
		{"monthly", RecurringGroup{Pattern: RecurrenceMonthly, Frequency: 1}, from.AddDate(0, 1, 0)},
		{"custom 90m", RecurringGroup{Pattern: RecurrenceCustom, Frequency: 1, CustomInterval: 90 * time.Minute}, from.Add(90 * time.Minute)},
		{"custom without interval falls back to daily", RecurringGroup{Pattern: RecurrenceCustom, Frequency: 1}, from.AddDate(0, 0, 1)},
		{"zero frequency treated as one", RecurringGroup{Pattern: RecurrenceWeekly}, from.AddDate(0, 0, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.group.NextOccurrence(from))
		})
	}
}

func TestExpired(t *testing.T) {
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	group := RecurringGroup{Pattern: RecurrenceDaily, EndDate: &end}

	assert.False(t, group.Expired(end))
	assert.True(t, group.Expired(end.Add(time.Second)))

	openEnded := RecurringGroup{Pattern: RecurrenceDaily}
	assert.False(t, openEnded.Expired(end.AddDate(10, 0, 0)))
}

func TestActiveSlotsOrdering(t *testing.T) {
	queue := PostingQueue{Slots: []TimeSlot{
		{ID: "c", DayOfWeek: 3, Time: "15:00", Active: true},
		{ID: "a", DayOfWeek: 1, Time: "09:00", Active: true},
		{ID: "d", DayOfWeek: 1, Time: "18:00", Active: false},
		{ID: "b", DayOfWeek: 1, Time: "12:00", Active: true},
	}}

	active := queue.ActiveSlots()
	ids := make([]string, len(active))
	for i, s := range active {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestEngagementRate(t *testing.T) {
	m := PostMetrics{Likes: 10, Comments: 5, Shares: 5, Views: 200}
	assert.InDelta(t, 0.1, m.EngagementRate(), 1e-9)

	// Zero views must not divide by zero.
	zero := PostMetrics{Likes: 3}
	assert.InDelta(t, 3.0, zero.EngagementRate(), 1e-9)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, PublicationStatusPublished.IsTerminal())
	assert.True(t, PublicationStatusCancelled.IsTerminal())
	assert.False(t, PublicationStatusFailed.IsTerminal())
	assert.False(t, PublicationStatusPublishing.IsTerminal())
	assert.False(t, PublicationStatusPending.IsTerminal())
}
