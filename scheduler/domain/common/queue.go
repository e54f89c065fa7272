package common

import "time"

// TimeSlot is one allowed posting window inside a weekly cycle.
// Slots are ordered by (DayOfWeek, Time) within the week.
type TimeSlot struct {
	ID        string `json:"id"`
	QueueID   string `json:"queue_id"`
	DayOfWeek int    `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	Time      string `json:"time"`        // "HH:MM"
	Active    bool   `json:"active"`
}

// Before orders slots lexicographically by (day, time).
func (s TimeSlot) Before(other TimeSlot) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return s.DayOfWeek < other.DayOfWeek
	}
	return s.Time < other.Time
}

// PostingQueue is an account-scoped, cyclic weekly set of allowed
// posting windows.
type PostingQueue struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	AccountID string     `json:"account_id"`
	Name      string     `json:"name"`
	Timezone  string     `json:"timezone"`
	Slots     []TimeSlot `json:"slots"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ActiveSlots returns the queue's active slots sorted by (day, time).
func (q PostingQueue) ActiveSlots() []TimeSlot {
	active := make([]TimeSlot, 0, len(q.Slots))
	for _, s := range q.Slots {
		if s.Active {
			active = append(active, s)
		}
	}
	for i := 1; i < len(active); i++ {
		for j := i; j > 0 && active[j].Before(active[j-1]); j-- {
			active[j], active[j-1] = active[j-1], active[j]
		}
	}
	return active
}
