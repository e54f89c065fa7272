package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/postflow/postflow/infrastructure/valkey"
	"github.com/postflow/postflow/pkg/jobworker"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/postflow/postflow/scheduler/domain/jobs"
	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"
)

const (
	execLockTTL      = 30 * time.Second
	safetyInterval   = 5 * time.Minute
	maxSleep         = 1 * time.Hour
	defaultBatchSize = 50
)

// QueueWorker is the consumer loop pulling due jobs and dispatching by
// kind: publish attempts to the orchestrator, recurrence advances to
// the recurrence engine. Replicas share the queue with at-least-once
// semantics; the store-level claim plus the exec lock keep duplicate
// deliveries harmless.
type QueueWorker struct {
	queue        domain.IDelayedJobQueue
	repo         domain.IPublicationRepository
	orchestrator *PublishOrchestrator
	recurrence   *RecurrenceEngine
	vk           *valkey.Client // optional, enables replica exec locks + wake signals
	pool         *jobworker.Pool
	workerID     string
	batchSize    int
	safetyTick   time.Duration
	wake         chan struct{}
	now          func() time.Time
}

func NewQueueWorker(
	queue domain.IDelayedJobQueue,
	repo domain.IPublicationRepository,
	orchestrator *PublishOrchestrator,
	recurrence *RecurrenceEngine,
	vk *valkey.Client,
	workerID string,
) *QueueWorker {
	return &QueueWorker{
		queue:        queue,
		repo:         repo,
		orchestrator: orchestrator,
		recurrence:   recurrence,
		vk:           vk,
		workerID:     workerID,
		batchSize:    defaultBatchSize,
		safetyTick:   safetyInterval,
		wake:         make(chan struct{}, 1),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the worker's clock. Test hook.
func (w *QueueWorker) SetClock(now func() time.Time) {
	w.now = now
}

// UsePool makes ProcessDue hand jobs to a sharded pool instead of
// executing them inline. Jobs are keyed by publication ID so attempts
// for one publication never run concurrently.
func (w *QueueWorker) UsePool(pool *jobworker.Pool) {
	w.pool = pool
}

// SetLimits overrides the per-cycle job cap and the safety-tick
// interval. Non-positive values keep the defaults.
func (w *QueueWorker) SetLimits(batchSize int, safetyTick time.Duration) {
	if batchSize > 0 {
		w.batchSize = batchSize
	}
	if safetyTick > 0 {
		w.safetyTick = safetyTick
	}
}

// wakeUp interrupts the run loop's sleep so newly signalled work is
// picked up immediately.
func (w *QueueWorker) wakeUp() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// signaler is implemented by queues that can announce new work over
// pub/sub (the valkey queue).
type signaler interface {
	SignalChannel() string
}

// Start launches the background loop.
func (w *QueueWorker) Start(ctx context.Context) {
	if w.pool != nil {
		w.pool.Start(ctx)
	}
	if s, ok := w.queue.(signaler); ok && w.vk != nil {
		channel := s.SignalChannel()
		logrus.Infof("[WORKER] Subscribing to wake-up channel %s", channel)
		go func() {
			inner := w.vk.Inner()
			err := inner.Receive(ctx, inner.B().Subscribe().Channel(channel).Build(), func(msg valkeylib.PubSubMessage) {
				logrus.Debugf("[WORKER] Wake-up signal for job %s", msg.Message)
				w.wakeUp()
			})
			if err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("[WORKER] Pub/Sub listener failed")
			}
		}()
	}
	go w.run(ctx)
}

func (w *QueueWorker) run(ctx context.Context) {
	if err := w.Hydrate(ctx); err != nil {
		logrus.WithError(err).Error("[WORKER] Initial hydration failed")
	}

	safetyTicker := time.NewTicker(w.safetyTick)
	defer safetyTicker.Stop()

	for {
		w.ProcessDue(ctx)

		sleep := maxSleep
		if next, err := w.queue.NextFireTime(ctx); err == nil && !next.IsZero() {
			sleep = time.Until(next)
			if sleep < 0 {
				sleep = 1 * time.Second
			}
			if sleep > maxSleep {
				sleep = maxSleep
			}
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			if w.pool != nil {
				w.pool.Stop()
			}
			logrus.Info("[WORKER] Shutting down")
			return
		case <-safetyTicker.C:
			timer.Stop()
			if err := w.Hydrate(ctx); err != nil {
				logrus.WithError(err).Error("[WORKER] Periodic hydration failed")
			}
		case <-w.wake:
			// A job landed with a nearer fire time; re-arm the sleep.
			timer.Stop()
		case <-timer.C:
		}
	}
}

// ProcessDue pops matured jobs and dispatches them by kind. Failures
// are reported back to the queue so external retry policy can apply.
func (w *QueueWorker) ProcessDue(ctx context.Context) {
	due, err := w.queue.DueBefore(ctx, w.now())
	if err != nil {
		logrus.WithError(err).Error("[WORKER] Failed to pop due jobs")
		return
	}

	// Cap the work per cycle; the excess goes straight back on the
	// queue as already-due and is picked up on the next pass.
	if w.batchSize > 0 && len(due) > w.batchSize {
		for _, job := range due[w.batchSize:] {
			if err := w.queue.Enqueue(ctx, job, 0); err != nil {
				logrus.WithError(err).Errorf("[WORKER] Failed to requeue overflow job %s", job.ID)
			}
		}
		due = due[:w.batchSize]
		w.wakeUp()
	}

	for _, job := range due {
		if w.pool != nil {
			job := job
			if !w.pool.TryDispatch(jobworker.Job{
				Key: job.PublicationID(),
				Handler: func(jobCtx context.Context) error {
					w.processOne(jobCtx, job)
					return nil
				},
			}) {
				// Pool saturated. Hydrate picks the publication back up.
				logrus.Warnf("[WORKER] Pool rejected job %s, deferring to hydration", job.ID)
			}
			continue
		}
		w.processOne(ctx, job)
	}
}

func (w *QueueWorker) processOne(ctx context.Context, job jobs.Job) {
	pubID := job.PublicationID()
	if w.vk != nil {
		if !w.vk.AcquireLock(ctx, "lock:exec:"+pubID, w.workerID, execLockTTL) {
			logrus.Debugf("[WORKER] Publication %s locked by another replica, skipping", pubID)
			return
		}
		// Early release once the attempt is done; the TTL only covers
		// a crashed holder.
		defer w.vk.ReleaseLock(ctx, "lock:exec:"+pubID)
	}

	if err := w.dispatch(ctx, job); err != nil {
		if err == common.ErrAlreadyClaimed {
			// Duplicate delivery lost the claim race. Not a failure.
			return
		}
		_ = w.queue.ReportFailure(ctx, job, err)
		w.markFailed(ctx, pubID, err)
	}
}

func (w *QueueWorker) dispatch(ctx context.Context, job jobs.Job) error {
	logrus.Infof("[WORKER] Executing job %s (%s)", job.ID, job.Kind)
	switch job.Kind {
	case jobs.KindPublish:
		var payload jobs.PublishPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return err
		}
		return w.orchestrator.Publish(ctx, payload.PublicationID)
	case jobs.KindAdvanceRecurrence:
		var payload jobs.AdvanceRecurrencePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return err
		}
		return w.recurrence.Advance(ctx, payload.GroupID, payload.PublicationID)
	default:
		logrus.Errorf("[WORKER] Unknown job kind %s, dropping job %s", job.Kind, job.ID)
		return nil
	}
}

// markFailed records a job-level failure on the publication unless the
// orchestrator already did its own bookkeeping for the attempt.
func (w *QueueWorker) markFailed(ctx context.Context, publicationID string, cause error) {
	if publicationID == "" {
		return
	}
	pub, err := w.repo.GetPublication(ctx, publicationID)
	if err != nil {
		return
	}
	if pub.Status == common.PublicationStatusFailed || pub.Status.IsTerminal() {
		return
	}
	pub.Status = common.PublicationStatusFailed
	pub.PublishAttempts++
	pub.LastError = cause.Error()
	pub.UpdatedAt = w.now()
	if err := w.repo.UpdatePublication(ctx, pub); err != nil {
		logrus.WithError(err).Errorf("[WORKER] Failed to mark publication %s as failed", publicationID)
	}
}

// Hydrate re-enqueues due-or-overdue publications that have no pending
// job, e.g. after a crash between store write and queue write.
func (w *QueueWorker) Hydrate(ctx context.Context) error {
	pending, err := w.queue.ListPending(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(pending))
	for _, job := range pending {
		known[job.PublicationID()] = true
	}

	due, err := w.repo.ListDuePublications(ctx, w.now())
	if err != nil {
		return err
	}
	for _, pub := range due {
		if known[pub.ID] {
			continue
		}
		job, err := jobs.NewPublishJob(uuid.NewString(), pub.ID, w.now())
		if err != nil {
			continue
		}
		if err := w.queue.Enqueue(ctx, job, 0); err != nil {
			logrus.WithError(err).Errorf("[WORKER] Failed to re-enqueue publication %s", pub.ID)
			continue
		}
		logrus.Infof("[WORKER] Re-enqueued orphaned publication %s", pub.ID)
	}
	return nil
}
