package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/inkboard/board-renderer/pkg/models"
	"go.uber.org/zap"
)

// renderJob is one board render waiting for a worker.
type renderJob struct {
	target models.RenderTarget
	stops  models.StopData
	layout *models.LayoutConfig
	result chan *renderResult
}

// renderResult carries a finished render back to the submitter.
type renderResult struct {
	png []byte
	err error
}

// WorkerPool bounds the number of concurrent board renders. Renders are
// CPU bound and each job draws on its own canvas, so workers need no
// shared drawing state.
type WorkerPool struct {
	workers  int
	jobQueue chan *renderJob
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	renderer *Renderer
	logger   *zap.Logger
}

// NewWorkerPool creates a pool with the specified number of workers.
func NewWorkerPool(workers int, renderer *Renderer, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 4 // default to 4 workers
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan *renderJob, workers*2), // buffer for 2x workers
		ctx:      ctx,
		cancel:   cancel,
		renderer: renderer,
		logger:   logger,
	}
}

// Start launches all worker goroutines.
func (wp *WorkerPool) Start() {
	wp.logger.Info("Starting render worker pool",
		zap.Int("workers", wp.workers),
		zap.Int("queue_size", cap(wp.jobQueue)))

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool.
func (wp *WorkerPool) Stop() {
	wp.logger.Info("Stopping render worker pool")
	wp.cancel()
	close(wp.jobQueue)
	wp.wg.Wait()
	wp.logger.Info("Render worker pool stopped")
}

// Submit queues a board render and waits for its result.
func (wp *WorkerPool) Submit(ctx context.Context, target models.RenderTarget, stops models.StopData, layout *models.LayoutConfig) ([]byte, error) {
	resultChan := make(chan *renderResult, 1)

	job := &renderJob{
		target: target,
		stops:  stops,
		layout: layout,
		result: resultChan,
	}

	select {
	case wp.jobQueue <- job:
		// Job submitted
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wp.ctx.Done():
		return nil, fmt.Errorf("worker pool is shutting down")
	}

	select {
	case result := <-resultChan:
		return result.png, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wp.ctx.Done():
		return nil, fmt.Errorf("worker pool is shutting down")
	}
}

// worker is the main loop for a single worker.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.Debug("Render worker started", zap.Int("worker_id", id))

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				wp.logger.Debug("Render worker stopping (queue closed)", zap.Int("worker_id", id))
				return
			}
			wp.processJob(id, job)
		case <-wp.ctx.Done():
			wp.logger.Debug("Render worker stopping (context cancelled)", zap.Int("worker_id", id))
			return
		}
	}
}

// processJob handles a single render job.
func (wp *WorkerPool) processJob(workerID int, job *renderJob) {
	png, err := wp.renderer.RenderBoard(job.target, job.stops, job.layout)

	job.result <- &renderResult{
		png: png,
		err: err,
	}
	close(job.result)

	if err != nil {
		wp.logger.Debug("Worker completed job with error",
			zap.Int("worker_id", workerID),
			zap.String("target", job.target.String()),
			zap.Error(err))
	} else {
		wp.logger.Debug("Worker completed job successfully",
			zap.Int("worker_id", workerID),
			zap.String("target", job.target.String()),
			zap.Int("output_size", len(png)))
	}
}
