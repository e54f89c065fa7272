package common

import "time"

type RecurrencePattern string

const (
	RecurrenceDaily    RecurrencePattern = "daily"
	RecurrenceWeekly   RecurrencePattern = "weekly"
	RecurrenceBiweekly RecurrencePattern = "biweekly"
	RecurrenceMonthly  RecurrencePattern = "monthly"
	RecurrenceCustom   RecurrencePattern = "custom"
)

// RecurringGroup ties an original recurring publication to its
// recurrence configuration.
type RecurringGroup struct {
	ID             string            `json:"id"`
	AccountID      string            `json:"account_id"`
	Pattern        RecurrencePattern `json:"pattern"`
	Frequency      int               `json:"frequency"` // multiplier of the pattern unit
	CustomInterval time.Duration     `json:"custom_interval,omitempty"`
	EndDate        *time.Time        `json:"end_date,omitempty"`
	NextRunDate    time.Time         `json:"next_run_date"`
	IsActive       bool              `json:"is_active"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NextOccurrence advances 'from' by the group's pattern and frequency.
// Custom groups use their stored interval; a custom group without an
// interval falls back to one day per step.
func (g RecurringGroup) NextOccurrence(from time.Time) time.Time {
	freq := g.Frequency
	if freq <= 0 {
		freq = 1
	}
	switch g.Pattern {
	case RecurrenceDaily:
		return from.AddDate(0, 0, freq)
	case RecurrenceWeekly:
		return from.AddDate(0, 0, 7*freq)
	case RecurrenceBiweekly:
		return from.AddDate(0, 0, 14*freq)
	case RecurrenceMonthly:
		return from.AddDate(0, freq, 0)
	case RecurrenceCustom:
		if g.CustomInterval > 0 {
			return from.Add(time.Duration(freq) * g.CustomInterval)
		}
		return from.AddDate(0, 0, freq)
	default:
		return from.AddDate(0, 0, freq)
	}
}

// Expired reports whether the given occurrence falls past the group's
// end date. Groups without an end date never expire.
func (g RecurringGroup) Expired(at time.Time) bool {
	return g.EndDate != nil && at.After(*g.EndDate)
}
