package concurrent

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"blogflow/pkg/logger"
	"blogflow/pkg/metrics"
)

// Job is a unit of background work. Name is used for logging only.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type WorkerPool struct {
	numWorkers     int
	jobQueue       chan Job
	wg             conc.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	logger         logger.Logger
	started        bool
	mutex          sync.RWMutex
	statsCollector *StatsCollector
}

func NewWorkerPool(numWorkers int, queueSize int, logger logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers:     numWorkers,
		jobQueue:       make(chan Job, queueSize),
		ctx:            ctx,
		cancel:         cancel,
		logger:         logger,
		statsCollector: NewStatsCollector(),
	}
}

func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()

	if wp.started {
		return
	}

	wp.logger.Info("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
		"queue_size":  cap(wp.jobQueue),
	})

	for i := 0; i < wp.numWorkers; i++ {
		workerID := i
		wp.wg.Go(func() {
			wp.worker(workerID)
		})
	}

	wp.started = true
}

// Stop closes the queue and waits for queued jobs to finish. A pool cannot
// be restarted after Stop.
func (wp *WorkerPool) Stop() {
	wp.mutex.Lock()
	if !wp.started {
		wp.mutex.Unlock()
		return
	}
	wp.started = false
	close(wp.jobQueue)
	wp.mutex.Unlock()

	wp.logger.Info("Stopping worker pool", map[string]interface{}{"pending": len(wp.jobQueue)})
	wp.wg.Wait()
	wp.cancel()
	metrics.UpdateWorkerPoolQueue(0)
}

// Submit enqueues job without blocking. It returns false when the pool is
// not running or the queue is full.
func (wp *WorkerPool) Submit(job Job) bool {
	wp.mutex.RLock()
	defer wp.mutex.RUnlock()

	if !wp.started {
		return false
	}

	select {
	case wp.jobQueue <- job:
		wp.statsCollector.IncrementSubmitted()
		metrics.UpdateWorkerPoolQueue(len(wp.jobQueue))
		return true
	default:
		wp.statsCollector.IncrementRejected()
		metrics.RecordWorkerJob("rejected")
		wp.logger.Warn("Job queue is full, job rejected", map[string]interface{}{"job": job.Name})
		return false
	}
}

func (wp *WorkerPool) worker(id int) {
	wp.logger.Debug("Worker started", map[string]interface{}{"worker_id": id})

	for job := range wp.jobQueue {
		metrics.UpdateWorkerPoolQueue(len(wp.jobQueue))
		wp.process(id, job)
	}

	wp.logger.Debug("Job queue closed, worker exiting", map[string]interface{}{"worker_id": id})
}

func (wp *WorkerPool) process(id int, job Job) {
	startTime := time.Now()

	err := wp.run(job)

	processingTime := time.Since(startTime)

	if err != nil {
		wp.statsCollector.IncrementFailed()
		metrics.RecordWorkerJob("failed")
		wp.logger.Error("Job failed", map[string]interface{}{
			"worker_id":       id,
			"job":             job.Name,
			"error":           err.Error(),
			"processing_time": processingTime.String(),
		})
		return
	}

	wp.statsCollector.IncrementCompleted()
	wp.statsCollector.RecordProcessingTime(processingTime)
	metrics.RecordWorkerJob("completed")
}

func (wp *WorkerPool) run(job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()
	return job.Run(wp.ctx)
}

func (wp *WorkerPool) GetStats() Stats {
	return wp.statsCollector.GetStats()
}

func (wp *WorkerPool) QueueLength() int {
	return len(wp.jobQueue)
}

func (wp *WorkerPool) QueueCapacity() int {
	return cap(wp.jobQueue)
}
