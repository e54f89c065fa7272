package common

import "time"

type PublicationStatus string

const (
	PublicationStatusPending    PublicationStatus = "pending"
	PublicationStatusQueued     PublicationStatus = "queued"
	PublicationStatusPublishing PublicationStatus = "publishing"
	PublicationStatusPublished  PublicationStatus = "published"
	PublicationStatusFailed     PublicationStatus = "failed"
	PublicationStatusCancelled  PublicationStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
// A failed attempt is terminal for that attempt; queue-level retry
// policy is layered externally.
func (s PublicationStatus) IsTerminal() bool {
	return s == PublicationStatusPublished || s == PublicationStatusCancelled
}

// ScheduledPublication is one concrete timed attempt to publish one
// Post via one Account.
type ScheduledPublication struct {
	ID                string             `json:"id"`
	PostID            string             `json:"post_id"`
	AccountID         string             `json:"account_id"`
	ScheduledFor      time.Time          `json:"scheduled_for"`
	Timezone          string             `json:"timezone,omitempty"` // display-only label, timing math is UTC
	Status            PublicationStatus  `json:"status"`
	IsRecurring       bool               `json:"is_recurring"`
	RecurrencePattern RecurrencePattern  `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *time.Time         `json:"recurrence_end_date,omitempty"`
	RecurringGroupID  string             `json:"recurring_group_id,omitempty"`
	QueueID           string             `json:"queue_id,omitempty"`
	QueuePosition     int                `json:"queue_position,omitempty"`
	PublishAttempts   int                `json:"publish_attempts"`
	LastError         string             `json:"last_error,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
