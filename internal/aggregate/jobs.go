// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package aggregate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/fleetstats/internal/logging"
	"github.com/tomtom215/fleetstats/internal/models"
	"github.com/tomtom215/fleetstats/internal/report"
)

// ErrQueueFull is returned when a job cannot be enqueued without blocking.
var ErrQueueFull = errors.New("aggregation queue is full")

// Status is the lifecycle state of a queued aggregation job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusSkipped means the period was already aggregated for the job's
	// source. Not a failure; nothing was written.
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Job is one queued aggregation run and its outcome.
type Job struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`

	Status Status  `json:"status"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`

	run func(ctx context.Context) (*Result, error)
}

// Queue runs aggregation jobs one at a time. Serialization matters: only one
// run may hold the database write path, and the per-period locks then make
// concurrent API submissions safe regardless of order.
type Queue struct {
	engine *Engine

	mu   sync.Mutex
	jobs map[string]*Job
	ch   chan *Job
}

// NewQueue creates a job queue with the given backlog capacity.
func NewQueue(engine *Engine, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 16
	}
	return &Queue{
		engine: engine,
		jobs:   make(map[string]*Job),
		ch:     make(chan *Job, capacity),
	}
}

// EnqueueInternalLog queues an internal-log aggregation run for (month, year).
func (q *Queue) EnqueueInternalLog(month, year int) (*Job, error) {
	job := &Job{
		Source: models.SourceInternalLog,
		Month:  month,
		Year:   year,
	}
	job.run = func(ctx context.Context) (*Result, error) {
		return q.engine.RunInternalLog(ctx, month, year)
	}
	return q.enqueue(job)
}

// EnqueueExternalReport queues ingestion of a mapped external report.
func (q *Queue) EnqueueExternalReport(rep *report.Report, mapping map[string]string, month, year int) (*Job, error) {
	job := &Job{
		Source: models.SourceExternalReport,
		Month:  month,
		Year:   year,
	}
	job.run = func(ctx context.Context) (*Result, error) {
		return q.engine.RunExternalReport(ctx, rep, mapping, month, year)
	}
	return q.enqueue(job)
}

func (q *Queue) enqueue(job *Job) (*Job, error) {
	job.ID = uuid.NewString()
	job.Status = StatusPending
	job.SubmittedAt = time.Now()

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	select {
	case q.ch <- job:
	default:
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return nil, ErrQueueFull
	}

	logging.Info().
		Str("job_id", job.ID).
		Str("source", job.Source).
		Int("month", job.Month).
		Int("year", job.Year).
		Msg("Aggregation job queued")
	return q.snapshot(job.ID), nil
}

// Get returns a point-in-time copy of a job, or false when the ID is unknown.
func (q *Queue) Get(id string) (*Job, bool) {
	job := q.snapshot(id)
	return job, job != nil
}

// snapshot copies a job's public fields under the lock.
func (q *Queue) snapshot(id string) *Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil
	}
	cp := *job
	cp.run = nil
	return &cp
}

// Serve drains the queue until ctx is done. Implements suture.Service.
func (q *Queue) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-q.ch:
			q.runJob(ctx, job)
		}
	}
}

func (q *Queue) runJob(ctx context.Context, job *Job) {
	q.mu.Lock()
	job.Status = StatusRunning
	job.StartedAt = time.Now()
	q.mu.Unlock()

	result, err := job.run(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	job.FinishedAt = time.Now()
	switch {
	case err == nil:
		job.Status = StatusCompleted
		job.Result = result
	default:
		if _, skipped := IsPeriodAggregated(err); skipped {
			job.Status = StatusSkipped
		} else {
			job.Status = StatusFailed
		}
		job.Error = err.Error()
		logging.Err(err).
			Str("job_id", job.ID).
			Str("source", job.Source).
			Str("status", string(job.Status)).
			Msg("Aggregation job did not complete")
	}
}

// String implements fmt.Stringer for supervisor logs.
func (q *Queue) String() string {
	return "aggregation-queue"
}
