// Package migrate exposes the remote listing as a bulk migration source and
// runs a one-pass import over it.
package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/posts-sync/pkg/logging"
	"github.com/Sternrassler/posts-sync/pkg/pagination"
	"github.com/Sternrassler/posts-sync/pkg/record"
	"github.com/rs/zerolog"
)

// Source describes the remote paint cans to a migration runner.
type Source struct {
	api    pagination.Getter
	logger zerolog.Logger
}

// NewSource creates a Source reading from api.
func NewSource(api pagination.Getter) *Source {
	return &Source{
		api:    api,
		logger: logging.NewLogger("migrate"),
	}
}

// Fields returns the source fields and their descriptions.
func (s *Source) Fields() []record.Field {
	return record.Fields()
}

// IDs returns the identifier schema.
func (s *Source) IDs() map[string]string {
	return record.IDSchema()
}

// String lists the available field keys.
func (s *Source) String() string {
	return strings.Join(record.FieldKeys(), ", ")
}

// Iterator returns a fresh iterator over every record. Each call starts with
// an empty page cache.
func (s *Source) Iterator(ctx context.Context) *pagination.Iterator {
	return pagination.NewIterator(ctx, pagination.NewFetcher(s.api))
}

// Summary is the outcome of a Run.
type Summary struct {
	// Total is the advertised number of records.
	Total int

	// Processed counts records upserted.
	Processed int

	// Skipped counts positions whose record could not be loaded.
	Skipped int

	// Failed counts records the sink rejected.
	Failed int

	// Errors holds every skip and failure reason in order.
	Errors []error
}

// ProgressFunc is called after every position with the number of positions
// handled so far.
type ProgressFunc func(done, total int)

// Run iterates the whole listing once and upserts every record into sink.
// Unloadable positions and sink failures are counted and skipped; only
// cancellation or a listing whose size cannot be read ends the run early.
func Run(ctx context.Context, src *Source, sink pagination.Upserter, progress ProgressFunc) (Summary, error) {
	it := src.Iterator(ctx)
	if err := it.Err(); err != nil {
		return Summary{}, fmt.Errorf("open source: %w", err)
	}

	summary := Summary{Total: it.Count()}
	src.logger.Info().
		Int("total", summary.Total).
		Int("per_page", it.PerPage()).
		Msg("Migration started")

	done := 0
	for it.Rewind(ctx); it.Valid(); it.Next(ctx) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		rec, err := it.Current(ctx)
		switch {
		case err != nil:
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Errorf("position %d: %w", it.Key(), err))
			src.logger.Warn().Err(err).Int("position", it.Key()).Msg("Skipping position")
		default:
			if err := sink.Upsert(ctx, rec); err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Errorf("record %d: %w", rec.ID, err))
				src.logger.Warn().Err(err).Int("external_id", rec.ID).Msg("Upsert failed")
			} else {
				summary.Processed++
			}
		}

		done++
		if progress != nil {
			progress(done, summary.Total)
		}
	}

	src.logger.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Migration finished")

	return summary, nil
}
