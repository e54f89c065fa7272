package common

import "time"

// OptimalPostingTime is a ranked (account, dayOfWeek, hour) engagement
// estimate mined from historical published posts. Unique per key; only
// the top-N buckets per calculation run are persisted.
type OptimalPostingTime struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	DayOfWeek    int       `json:"day_of_week"`
	Hour         int       `json:"hour"`
	Score        float64   `json:"score"` // average engagement rate
	SampleSize   int       `json:"sample_size"`
	CalculatedAt time.Time `json:"calculated_at"`
}
