package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/posts-sync/pkg/pagination"
)

var (
	// ErrNotFound indicates no checkpoint exists for the job (or it expired).
	ErrNotFound = errors.New("checkpoint not found")

	// ErrInvalidCheckpoint indicates the stored value could not be decoded.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
)

// Checkpoint is the persisted state of one sync job.
type Checkpoint struct {
	// JobID identifies the job.
	JobID string `json:"job_id"`

	// Sandbox is the pagination state carried between invocations.
	Sandbox pagination.State `json:"sandbox"`

	// Initialized is set once Sandbox has been read from page 1.
	Initialized bool `json:"initialized"`

	// Results accumulates the external ids upserted so far.
	Results []int `json:"results"`

	// Finished is the completion fraction in [0,1].
	Finished float64 `json:"finished"`

	// Message is the last progress line.
	Message string `json:"message"`

	// Errors counts per-item failures across all invocations.
	Errors int `json:"errors"`

	// InitError is set when the listing size could not be determined.
	InitError string `json:"init_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an uninitialized checkpoint for jobID.
func New(jobID string) *Checkpoint {
	now := time.Now().UTC()
	return &Checkpoint{
		JobID:     jobID,
		Results:   []int{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Done returns true once the job has been initialized and fully processed.
func (c *Checkpoint) Done() bool {
	return c.Initialized && c.Finished >= 1
}

// Store persists checkpoints by job id.
type Store interface {
	// Load returns the checkpoint for jobID or ErrNotFound.
	Load(ctx context.Context, jobID string) (*Checkpoint, error)

	// Save stores cp under cp.JobID, replacing any previous value.
	Save(ctx context.Context, cp *Checkpoint) error

	// Delete removes the checkpoint. Deleting a missing job is not an error.
	Delete(ctx context.Context, jobID string) error

	Close() error
}
