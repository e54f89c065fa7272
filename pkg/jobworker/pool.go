package jobworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Job is one unit of work handed to the pool. Jobs sharing a Key land
// on the same shard, so attempts for one publication never interleave.
type Job struct {
	Key     string
	Handler func(ctx context.Context) error
}

// Stats contains real-time pool metrics.
type Stats struct {
	NumWorkers      int          `json:"num_workers"`
	QueueSize       int          `json:"queue_size"`
	ActiveWorkers   int          `json:"active_workers"`
	TotalDispatched int64        `json:"total_dispatched"`
	TotalProcessed  int64        `json:"total_processed"`
	TotalDropped    int64        `json:"total_dropped"`
	TotalErrors     int64        `json:"total_errors"`
	WorkerStats     []ShardStats `json:"worker_stats"`
}

// ShardStats contains per-shard metrics.
type ShardStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

// Pool is a fixed set of workers with key-sharded queues. It applies
// backpressure by dropping when a shard queue is full; callers that
// must not lose work check TryDispatch and retry on the next tick.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*shard
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
}

type shard struct {
	id            int
	jobQueue      chan Job
	ctx           context.Context
	cancel        context.CancelFunc
	isProcessing  int32
	jobsProcessed int64
	pool          *Pool
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*shard, numWorkers),
	}
}

// Start launches all shard workers.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		shardCtx, cancel := context.WithCancel(ctx)
		s := &shard{
			id:       i,
			jobQueue: make(chan Job, p.queueSize),
			ctx:      shardCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = s

		p.wg.Add(1)
		go s.run(&p.wg)
	}

	logrus.Infof("[JOB_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// TryDispatch routes a job to its shard without blocking and reports
// whether it was accepted.
func (p *Pool) TryDispatch(job Job) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	idx := p.shardForKey(job.Key)
	atomic.AddInt64(&p.totalDispatched, 1)

	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[idx].jobQueue <- job:
			return true
		default:
			return false
		}
	}()
	if sent {
		return true
	}

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[JOB_POOL] Worker %d queue full (or stopped), dropping job for %s", idx, job.Key)
	return false
}

// Dispatch is TryDispatch with the result ignored.
func (p *Pool) Dispatch(job Job) {
	_ = p.TryDispatch(job)
}

// Stop shuts the pool down gracefully, draining queued jobs.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		logrus.Info("[JOB_POOL] Stopping workers...")

		for _, s := range p.workers {
			if s == nil {
				continue
			}
			s.cancel()
			close(s.jobQueue)
		}
		p.wg.Wait()

		logrus.Info("[JOB_POOL] All workers stopped")
	})
}

func (p *Pool) shardForKey(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.numWorkers))
}

// GetStats returns a snapshot of the pool's counters.
func (p *Pool) GetStats() Stats {
	workerStats := make([]ShardStats, 0, len(p.workers))
	activeWorkers := 0
	for _, s := range p.workers {
		if s == nil {
			continue
		}
		isProcessing := atomic.LoadInt32(&s.isProcessing) == 1
		if isProcessing {
			activeWorkers++
		}
		workerStats = append(workerStats, ShardStats{
			WorkerID:      s.id,
			QueueDepth:    len(s.jobQueue),
			IsProcessing:  isProcessing,
			JobsProcessed: atomic.LoadInt64(&s.jobsProcessed),
		})
	}

	return Stats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   activeWorkers,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
		WorkerStats:     workerStats,
	}
}

func (s *shard) run(wg *sync.WaitGroup) {
	defer wg.Done()

	logrus.Debugf("[JOB_POOL] Worker %d started", s.id)

	for {
		select {
		case job, ok := <-s.jobQueue:
			if !ok {
				logrus.Debugf("[JOB_POOL] Worker %d shutting down", s.id)
				return
			}
			s.process(job)
		case <-s.ctx.Done():
			logrus.Debugf("[JOB_POOL] Worker %d context cancelled, draining queue...", s.id)
			s.drainQueue()
			return
		}
	}
}

func (s *shard) process(job Job) {
	atomic.StoreInt32(&s.isProcessing, 1)
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&s.pool.totalErrors, 1)
			logrus.Errorf("[JOB_POOL] Worker %d panic for %s: %v", s.id, job.Key, r)
		}
		atomic.StoreInt32(&s.isProcessing, 0)
		atomic.AddInt64(&s.jobsProcessed, 1)
		atomic.AddInt64(&s.pool.totalProcessed, 1)
	}()

	if err := job.Handler(s.ctx); err != nil {
		atomic.AddInt64(&s.pool.totalErrors, 1)
		logrus.WithError(err).Errorf("[JOB_POOL] Worker %d job failed for %s", s.id, job.Key)
	}
}

// drainQueue processes whatever is left before shutdown.
func (s *shard) drainQueue() {
	for {
		select {
		case job, ok := <-s.jobQueue:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						atomic.AddInt64(&s.pool.totalErrors, 1)
						logrus.Errorf("[JOB_POOL] Worker %d drain panic: %v", s.id, r)
					}
				}()
				if err := job.Handler(s.ctx); err != nil {
					logrus.WithError(err).Errorf("[JOB_POOL] Worker %d drain job failed", s.id)
				}
			}()
		default:
			return
		}
	}
}
