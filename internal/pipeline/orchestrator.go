package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/audiogest/internal/config"
	"github.com/dgallion1/audiogest/internal/genai"
	"github.com/dgallion1/audiogest/internal/media"
)

// Orchestrator manages the audio ingestion pipeline. Jobs run on a single
// worker goroutine: downloads, transcription and generation are heavy
// enough that one at a time is the intended operating mode.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	gen     *genai.Client
	fetcher *media.Fetcher
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to begin processing.
func NewOrchestrator(cfg config.Config, gen *genai.Client, fetcher *media.Fetcher, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		gen:     gen,
		fetcher: fetcher,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches the worker goroutine and the job store janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		w := NewWorker(o.gen, o.fetcher, o.log, o.cfg)
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				w.Process(workerCtx, job)
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Generator returns the LLM client for direct use by API handlers.
func (o *Orchestrator) Generator() *genai.Client {
	return o.gen
}
