package pagination

import (
	"context"
	"fmt"

	"github.com/Sternrassler/posts-sync/pkg/record"
)

// Upserter receives each fully fetched record.
type Upserter interface {
	Upsert(ctx context.Context, rec record.Record) error
}

// State is the progress that must survive between chunked invocations.
// Progress never exceeds Max; Progress == Max means the sync is complete.
type State struct {
	Progress int `json:"progress"`
	Max      int `json:"max"`
	PerPage  int `json:"per_page"`
}

// Done reports whether every item has been processed.
func (s State) Done() bool {
	return s.Progress >= s.Max
}

// Fraction returns the completion ratio in [0,1]. An empty listing is
// complete.
func (s State) Fraction() float64 {
	if s.Max <= 0 {
		return 1
	}
	if s.Progress >= s.Max {
		return 1
	}
	return float64(s.Progress) / float64(s.Max)
}

// StepResult is the outcome of one Step call.
type StepResult struct {
	// State is the advanced state to persist.
	State State

	// Results holds the ids upserted during this call.
	Results []int

	// Messages holds one human-readable progress line per item.
	Messages []string

	// Errors holds per-item failures. They never stop the step.
	Errors []error
}

// Initialize builds a fresh State from page 1 of the listing. When total or
// per_page cannot be read the returned State has Max 0 and is already Done;
// the error is returned for diagnostics only.
func Initialize(ctx context.Context, f *Fetcher) (State, error) {
	total, err := f.TotalCount(ctx)
	if err != nil {
		return State{}, fmt.Errorf("initialize: %w", err)
	}
	perPage, err := f.PerPage(ctx)
	if err != nil {
		return State{}, fmt.Errorf("initialize: %w", err)
	}
	return State{Progress: 0, Max: total, PerPage: perPage}, nil
}

// Step processes up to budget items starting at state.Progress and returns
// the advanced state. Progress moves forward for every attempted item, even
// when its page, its record or its upsert fails, so repeated calls always
// terminate. Cancellation is honoured between items only; a cancelled item
// is not counted.
func Step(ctx context.Context, f *Fetcher, sink Upserter, state State, budget int) StepResult {
	res := StepResult{State: state}
	if budget < 1 {
		budget = 1
	}

	for n := 0; n < budget && res.State.Progress < res.State.Max; n++ {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, err)
			break
		}

		id, err := processItem(ctx, f, sink, res.State)
		if err != nil {
			f.logger.Warn().
				Err(err).
				Int("progress", res.State.Progress).
				Int("max", res.State.Max).
				Msg("Skipping item")
			res.Errors = append(res.Errors, fmt.Errorf("item %d: %w", res.State.Progress, err))
		} else {
			res.Results = append(res.Results, id)
		}

		res.State.Progress++
		res.Messages = append(res.Messages, ProgressMessage(res.State.Progress))
	}

	return res
}

// processItem upserts the record at state.Progress and returns its id.
func processItem(ctx context.Context, f *Fetcher, sink Upserter, state State) (int, error) {
	page, offset := Locate(state.Progress, state.PerPage)
	if page == 0 {
		return 0, fmt.Errorf("%w: per_page is %d", ErrOffsetMiss, state.PerPage)
	}

	records, err := f.PageRecords(ctx, page)
	if err != nil {
		return 0, err
	}
	if offset >= len(records) {
		return 0, fmt.Errorf("%w: page %d has %d records, offset %d", ErrOffsetMiss, page, len(records), offset)
	}

	rec, err := f.RecordByID(ctx, records[offset].ID)
	if err != nil {
		return 0, err
	}

	if err := sink.Upsert(ctx, rec); err != nil {
		return 0, fmt.Errorf("upsert %d: %w", rec.ID, err)
	}

	f.logger.Debug().
		Int("external_id", rec.ID).
		Int("page", page).
		Int("offset", offset).
		Msg("Upserted record")

	return rec.ID, nil
}

// ProgressMessage is the per-item status line shown under the progress bar.
func ProgressMessage(progress int) string {
	return fmt.Sprintf(`Processing item number "%d".`, progress)
}
