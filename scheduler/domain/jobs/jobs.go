package jobs

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobKind is the closed set of delayed-job kinds the worker consumes.
type JobKind string

const (
	KindPublish           JobKind = "publish"
	KindAdvanceRecurrence JobKind = "advance-recurrence"
)

// PublishPayload fires one publish attempt for a scheduled publication.
type PublishPayload struct {
	PublicationID string `json:"publication_id"`
}

// AdvanceRecurrencePayload asks the recurrence engine to materialize
// the next occurrence of a recurring group.
type AdvanceRecurrencePayload struct {
	GroupID       string `json:"group_id"`
	PublicationID string `json:"publication_id"`
}

// Job is the envelope stored in the delayed-job queue. Payload is the
// JSON encoding of exactly one payload struct matching Kind.
type Job struct {
	ID        string          `json:"id"`
	Kind      JobKind         `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	FireAt    time.Time       `json:"fire_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewPublishJob builds a validated publish job.
func NewPublishJob(id, publicationID string, fireAt time.Time) (Job, error) {
	if publicationID == "" {
		return Job{}, fmt.Errorf("publish job requires a publication id")
	}
	raw, err := json.Marshal(PublishPayload{PublicationID: publicationID})
	if err != nil {
		return Job{}, err
	}
	return Job{ID: id, Kind: KindPublish, Payload: raw, FireAt: fireAt, CreatedAt: time.Now().UTC()}, nil
}

// NewAdvanceRecurrenceJob builds a validated recurrence-advance job.
func NewAdvanceRecurrenceJob(id, groupID, publicationID string, fireAt time.Time) (Job, error) {
	if groupID == "" || publicationID == "" {
		return Job{}, fmt.Errorf("advance-recurrence job requires group and publication ids")
	}
	raw, err := json.Marshal(AdvanceRecurrencePayload{GroupID: groupID, PublicationID: publicationID})
	if err != nil {
		return Job{}, err
	}
	return Job{ID: id, Kind: KindAdvanceRecurrence, Payload: raw, FireAt: fireAt, CreatedAt: time.Now().UTC()}, nil
}

// PublicationID extracts the publication reference from any job kind.
// Cancellation scans use this to match queued jobs to a publication.
func (j Job) PublicationID() string {
	switch j.Kind {
	case KindPublish:
		var p PublishPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return ""
		}
		return p.PublicationID
	case KindAdvanceRecurrence:
		var p AdvanceRecurrencePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return ""
		}
		return p.PublicationID
	default:
		return ""
	}
}

// Validate checks the envelope at the queue boundary: known kind and a
// payload that decodes into the matching struct.
func (j Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	switch j.Kind {
	case KindPublish:
		var p PublishPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("invalid publish payload: %w", err)
		}
		if p.PublicationID == "" {
			return fmt.Errorf("publish payload missing publication id")
		}
	case KindAdvanceRecurrence:
		var p AdvanceRecurrencePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("invalid advance-recurrence payload: %w", err)
		}
		if p.GroupID == "" {
			return fmt.Errorf("advance-recurrence payload missing group id")
		}
	default:
		return fmt.Errorf("unknown job kind: %s", j.Kind)
	}
	return nil
}
