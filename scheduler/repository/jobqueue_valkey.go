package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/postflow/postflow/infrastructure/valkey"
	"github.com/postflow/postflow/scheduler/domain/jobs"
	"github.com/sirupsen/logrus"
)

// ValkeyJobQueue stores delayed jobs in a ZSET scored by fire time in
// unix milliseconds, with the job envelope in a companion HASH. A
// pub/sub signal wakes sleeping workers when new work arrives.
type ValkeyJobQueue struct {
	client *valkey.Client
}

func NewValkeyJobQueue(client *valkey.Client) *ValkeyJobQueue {
	return &ValkeyJobQueue{client: client}
}

func (q *ValkeyJobQueue) scheduleKey() string { return q.client.Key("jobs", "schedule") }
func (q *ValkeyJobQueue) dataKey() string     { return q.client.Key("jobs", "data") }
func (q *ValkeyJobQueue) failedKey() string   { return q.client.Key("jobs", "failed") }

// SignalChannel is the pub/sub channel workers subscribe to for
// wake-up notifications.
func (q *ValkeyJobQueue) SignalChannel() string { return q.client.Key("jobs", "signal") }

func (q *ValkeyJobQueue) Enqueue(ctx context.Context, job jobs.Job, delay time.Duration) error {
	if err := job.Validate(); err != nil {
		return err
	}
	fireAt := time.Now().UTC().Add(delay)
	job.FireAt = fireAt

	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}

	inner := q.client.Inner()
	if err := inner.Do(ctx, inner.B().Hset().Key(q.dataKey()).FieldValue().FieldValue(job.ID, string(raw)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to store job payload: %w", err)
	}
	score := float64(fireAt.UnixMilli())
	if err := inner.Do(ctx, inner.B().Zadd().Key(q.scheduleKey()).ScoreMember().ScoreMember(score, job.ID).Build()).Error(); err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	// Wake any sleeping worker so a nearer fire time is picked up.
	_ = inner.Do(ctx, inner.B().Publish().Channel(q.SignalChannel()).Message(job.ID).Build())
	return nil
}

func (q *ValkeyJobQueue) ListPending(ctx context.Context) ([]jobs.Job, error) {
	inner := q.client.Inner()
	ids, err := inner.Do(ctx, inner.B().Zrangebyscore().Key(q.scheduleKey()).Min("-inf").Max("+inf").Build()).AsStrSlice()
	if err != nil {
		return nil, err
	}
	res := make([]jobs.Job, 0, len(ids))
	for _, id := range ids {
		job, err := q.fetch(ctx, id)
		if err != nil {
			continue
		}
		res = append(res, job)
	}
	return res, nil
}

func (q *ValkeyJobQueue) Remove(ctx context.Context, jobID string) error {
	inner := q.client.Inner()
	if err := inner.Do(ctx, inner.B().Zrem().Key(q.scheduleKey()).Member(jobID).Build()).Error(); err != nil {
		return err
	}
	return inner.Do(ctx, inner.B().Hdel().Key(q.dataKey()).Field(jobID).Build()).Error()
}

// DueBefore pops matured jobs. The ZREM acts as the claim between
// worker replicas: only the caller whose ZREM removed the member owns
// the job.
func (q *ValkeyJobQueue) DueBefore(ctx context.Context, t time.Time) ([]jobs.Job, error) {
	inner := q.client.Inner()
	max := fmt.Sprintf("%d", t.UnixMilli())
	ids, err := inner.Do(ctx, inner.B().Zrangebyscore().Key(q.scheduleKey()).Min("-inf").Max(max).Build()).AsStrSlice()
	if err != nil {
		return nil, err
	}

	var due []jobs.Job
	for _, id := range ids {
		removed, err := inner.Do(ctx, inner.B().Zrem().Key(q.scheduleKey()).Member(id).Build()).AsInt64()
		if err != nil || removed == 0 {
			continue
		}
		job, err := q.fetch(ctx, id)
		if err != nil {
			logrus.WithError(err).Warnf("[JOBQUEUE] Dropping job %s with unreadable payload", id)
			_ = inner.Do(ctx, inner.B().Hdel().Key(q.dataKey()).Field(id).Build())
			continue
		}
		_ = inner.Do(ctx, inner.B().Hdel().Key(q.dataKey()).Field(id).Build())
		due = append(due, job)
	}
	return due, nil
}

func (q *ValkeyJobQueue) NextFireTime(ctx context.Context) (time.Time, error) {
	inner := q.client.Inner()
	peek, err := inner.Do(ctx, inner.B().Zrangebyscore().Key(q.scheduleKey()).Min("-inf").Max("+inf").Limit(0, 1).Build()).AsStrSlice()
	if err != nil || len(peek) == 0 {
		return time.Time{}, err
	}
	score, err := inner.Do(ctx, inner.B().Zscore().Key(q.scheduleKey()).Member(peek[0]).Build()).AsFloat64()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(score)).UTC(), nil
}

func (q *ValkeyJobQueue) ReportFailure(ctx context.Context, job jobs.Job, cause error) error {
	record := struct {
		Job   jobs.Job  `json:"job"`
		Error string    `json:"error"`
		At    time.Time `json:"at"`
	}{Job: job, Error: cause.Error(), At: time.Now().UTC()}

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	inner := q.client.Inner()
	return inner.Do(ctx, inner.B().Lpush().Key(q.failedKey()).Element(string(raw)).Build()).Error()
}

func (q *ValkeyJobQueue) fetch(ctx context.Context, id string) (jobs.Job, error) {
	inner := q.client.Inner()
	raw, err := inner.Do(ctx, inner.B().Hget().Key(q.dataKey()).Field(id).Build()).ToString()
	if err != nil {
		return jobs.Job{}, err
	}
	var job jobs.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return jobs.Job{}, err
	}
	return job, nil
}
