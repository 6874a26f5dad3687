package detailpool

import (
	"context"
	"iter"
	"sync"
	"time"

	"fbscraper/pkg/extract"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/ratelimit"
)

// Job is one detail fetch, tagged with its position in the input
type Job struct {
	Index int
	Ref   extract.VideoRef
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Details  *extract.VideoDetails
	Err      error
	Duration time.Duration
}

// Fetcher enriches a single video
type Fetcher interface {
	Fetch(ctx context.Context, ref extract.VideoRef) (*extract.VideoDetails, error)
}

// WorkerPool runs detail fetches on a fixed number of workers
type WorkerPool struct {
	numWorkers  int
	fetcher     Fetcher
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a pool. rateLimiter may be nil for no ceiling.
func NewWorkerPool(numWorkers int, fetcher Fetcher, rateLimiter ratelimit.Limiter, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &WorkerPool{
		numWorkers:  numWorkers,
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		logger:      log.WithField("component", "detailpool"),
	}
}

// Run fetches details for refs and yields results in input order. Breaking
// out of the loop cancels outstanding work. If ctx ends first, a final
// Result carrying ctx.Err() is yielded for the first missing position.
func (wp *WorkerPool) Run(ctx context.Context, refs []extract.VideoRef) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		if len(refs) == 0 {
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		workers := min(wp.numWorkers, len(refs))
		jobQueue := make(chan Job, workers*2)
		resultQueue := make(chan Result, workers)

		wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
			"num_workers": workers,
			"jobs":        len(refs),
		})

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go wp.worker(ctx, i, jobQueue, resultQueue, &wg)
		}

		go func() {
			defer close(jobQueue)
			for i, ref := range refs {
				select {
				case jobQueue <- Job{Index: i, Ref: ref}:
				case <-ctx.Done():
					return
				}
			}
		}()

		go func() {
			wg.Wait()
			close(resultQueue)
		}()

		pending := make(map[int]Result)
		next := 0
		for res := range resultQueue {
			pending[res.Job.Index] = res
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if !yield(r) {
					cancel()
					for range resultQueue {
					}
					return
				}
			}
		}

		if next < len(refs) {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			yield(Result{Job: Job{Index: next, Ref: refs[next]}, Err: err})
		}
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int, jobs <-chan Job, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}

		result := wp.processJob(ctx, job, id)
		if result.Err != nil && ctx.Err() != nil {
			return
		}

		select {
		case results <- result:
		case <-ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled while sending result", map[string]interface{}{
				"worker_id": id,
			})
			return
		}
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if wp.rateLimiter != nil && !wp.rateLimiter.Allow() {
		wp.logger.DebugWithFields("Worker waiting for rate limit", map[string]interface{}{
			"worker_id": workerID,
			"video_id":  job.Ref.VideoID,
		})
		if err := wp.rateLimiter.Wait(ctx); err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Details, result.Err = wp.fetcher.Fetch(ctx, job.Ref)
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"video_id":  job.Ref.VideoID,
		"duration":  result.Duration,
	})
	return result
}
