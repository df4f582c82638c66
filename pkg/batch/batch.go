// Package batch drives a sync as a resumable job of small invocations.
//
// Each invocation loads the job's checkpoint, processes a few items with a
// fresh pagination.Fetcher and saves the advanced checkpoint. Any process
// can pick up the next invocation, so a job survives restarts, and the admin
// server can advance it one HTTP request at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/posts-sync/pkg/checkpoint"
	"github.com/Sternrassler/posts-sync/pkg/logging"
	"github.com/Sternrassler/posts-sync/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultItemsPerStep is the item budget of one invocation.
const DefaultItemsPerStep = 2

// Labels shown while a job runs.
const (
	Title           = "Syncing Paint Cans"
	InitMessage     = "Batch is starting"
	ProgressMessage = "Currently syncing paint cans."
	ErrorMessage    = "Batch has encountered an error"
)

var (
	batchInvocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posts_sync_batch_invocations_total",
		Help: "Total number of batch step invocations",
	})

	batchItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posts_sync_batch_items_total",
		Help: "Total number of items processed by outcome",
	}, []string{"outcome"}) // "synced", "failed"

	batchLastFraction = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "posts_sync_batch_last_fraction",
		Help: "Completion fraction reported by the most recent invocation",
	})
)

// Reporter receives the checkpoint after every invocation.
type Reporter interface {
	Report(cp *checkpoint.Checkpoint)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(cp *checkpoint.Checkpoint)

// Report calls f(cp).
func (f ReporterFunc) Report(cp *checkpoint.Checkpoint) { f(cp) }

// Config holds the driver dependencies.
type Config struct {
	// API is the remote listing; a new Fetcher wraps it per invocation.
	API pagination.Getter

	// Sink receives every fetched record.
	Sink pagination.Upserter

	// Store persists checkpoints between invocations.
	Store checkpoint.Store

	// ItemsPerStep is the item budget per invocation (DefaultItemsPerStep if < 1).
	ItemsPerStep int
}

// Driver runs sync jobs.
type Driver struct {
	api          pagination.Getter
	sink         pagination.Upserter
	store        checkpoint.Store
	itemsPerStep int
	logger       zerolog.Logger
}

// New creates a Driver.
func New(cfg Config) (*Driver, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("api is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}

	itemsPerStep := cfg.ItemsPerStep
	if itemsPerStep < 1 {
		itemsPerStep = DefaultItemsPerStep
	}

	return &Driver{
		api:          cfg.API,
		sink:         cfg.Sink,
		store:        cfg.Store,
		itemsPerStep: itemsPerStep,
		logger:       logging.NewLogger("batch"),
	}, nil
}

// ItemsPerStep returns the per-invocation item budget.
func (d *Driver) ItemsPerStep() int {
	return d.itemsPerStep
}

// Start registers a new job and returns its id. No items are processed.
func (d *Driver) Start(ctx context.Context) (string, error) {
	jobID := uuid.NewString()

	cp := checkpoint.New(jobID)
	cp.Message = InitMessage
	if err := d.store.Save(ctx, cp); err != nil {
		return "", fmt.Errorf("save new job: %w", err)
	}

	d.logger.Info().
		Str("job_id", jobID).
		Int("items_per_step", d.itemsPerStep).
		Msg("Batch job started")

	return jobID, nil
}

// Status returns the stored checkpoint of a job.
func (d *Driver) Status(ctx context.Context, jobID string) (*checkpoint.Checkpoint, error) {
	return d.store.Load(ctx, jobID)
}

// Invoke performs one invocation of a job and returns the saved checkpoint.
// The first invocation reads the listing size from page 1. Invoking a
// finished job returns its checkpoint unchanged.
func (d *Driver) Invoke(ctx context.Context, jobID string) (*checkpoint.Checkpoint, error) {
	cp, err := d.store.Load(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	if cp.Done() {
		return cp, nil
	}

	batchInvocations.Inc()
	fetcher := pagination.NewFetcher(d.api)

	if !cp.Initialized {
		state, err := pagination.Initialize(ctx, fetcher)
		if err != nil {
			if ctx.Err() != nil {
				return cp, ctx.Err()
			}
			// The job completes immediately with nothing to do.
			cp.InitError = err.Error()
			d.logger.Warn().
				Err(err).
				Str("job_id", jobID).
				Msg("Could not determine listing size")
		} else {
			d.logger.Info().
				Str("job_id", jobID).
				Int("max", state.Max).
				Int("per_page", state.PerPage).
				Msg("Batch job initialized")
		}
		cp.Sandbox = state
		cp.Initialized = true
	}

	res := pagination.Step(ctx, fetcher, d.sink, cp.Sandbox, d.itemsPerStep)

	cp.Sandbox = res.State
	cp.Results = append(cp.Results, res.Results...)
	cp.Errors += len(res.Errors)
	if n := len(res.Messages); n > 0 {
		cp.Message = res.Messages[n-1]
	}
	cp.Finished = res.State.Fraction()

	batchItems.WithLabelValues("synced").Add(float64(len(res.Results)))
	batchItems.WithLabelValues("failed").Add(float64(len(res.Errors)))
	batchLastFraction.Set(cp.Finished)

	// Progress made before a cancellation is still persisted.
	if err := d.store.Save(context.WithoutCancel(ctx), cp); err != nil {
		return nil, fmt.Errorf("save job %s: %w", jobID, err)
	}

	d.logger.Debug().
		Str("job_id", jobID).
		Int("progress", cp.Sandbox.Progress).
		Int("max", cp.Sandbox.Max).
		Float64("finished", cp.Finished).
		Int("errors", len(res.Errors)).
		Msg("Batch invocation complete")

	if cp.Done() {
		d.logger.Info().
			Str("job_id", jobID).
			Int("synced", len(cp.Results)).
			Int("errors", cp.Errors).
			Msg("Batch job finished")
	}

	return cp, ctx.Err()
}

// Run invokes the job until it is finished or ctx is cancelled, reporting
// after every invocation.
func (d *Driver) Run(ctx context.Context, jobID string, reporter Reporter) (*checkpoint.Checkpoint, error) {
	for {
		cp, err := d.Invoke(ctx, jobID)
		if cp != nil && reporter != nil {
			reporter.Report(cp)
		}
		if err != nil {
			return cp, err
		}
		if cp.Done() {
			return cp, nil
		}
	}
}

// Sync starts a job and runs it to completion.
func (d *Driver) Sync(ctx context.Context, reporter Reporter) (string, *checkpoint.Checkpoint, error) {
	jobID, err := d.Start(ctx)
	if err != nil {
		return "", nil, err
	}
	cp, err := d.Run(ctx, jobID, reporter)
	return jobID, cp, err
}

// FinishMessage is the summary shown when a job ends.
func FinishMessage(success bool, results []int) string {
	if !success {
		return "Finished with an error."
	}
	return fmt.Sprintf("%d paint cans were synced successfully.", len(results))
}

// Summary returns the finish message for a checkpoint and the error that
// ended its run, if any.
func Summary(cp *checkpoint.Checkpoint, runErr error) string {
	if cp == nil || runErr != nil || !cp.Done() {
		return FinishMessage(false, nil)
	}
	return FinishMessage(true, cp.Results)
}

// IsNotFound reports whether err means the job does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, checkpoint.ErrNotFound)
}

// Elapsed returns how long a job has been running according to its
// checkpoint timestamps.
func Elapsed(cp *checkpoint.Checkpoint) time.Duration {
	if cp == nil || cp.CreatedAt.IsZero() {
		return 0
	}
	return cp.UpdatedAt.Sub(cp.CreatedAt)
}
