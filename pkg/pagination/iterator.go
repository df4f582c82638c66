package pagination

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/Sternrassler/posts-sync/pkg/record"
)

// ErrOutOfRange is returned by Current when the iterator is not Valid.
var ErrOutOfRange = errors.New("iterator position out of range")

// Iterator walks every record of the listing in order. It is rewindable and
// keeps the page of the current position loaded as a window.
//
// Typical use:
//
//	for it.Rewind(ctx); it.Valid(); it.Next(ctx) {
//	    rec, err := it.Current(ctx)
//	    ...
//	}
type Iterator struct {
	fetcher  *Fetcher
	position int
	count    int
	perPage  int

	windowPage int
	window     []record.Record
	windowErr  error

	err error
}

// NewIterator reads the total count and page size once. If either cannot be
// determined the iterator is empty and Err reports why.
func NewIterator(ctx context.Context, f *Fetcher) *Iterator {
	it := &Iterator{fetcher: f}

	count, err := f.TotalCount(ctx)
	if err != nil {
		it.err = fmt.Errorf("total count: %w", err)
		return it
	}
	perPage, err := f.PerPage(ctx)
	if err != nil {
		it.err = fmt.Errorf("per page: %w", err)
		return it
	}

	it.count = count
	it.perPage = perPage
	return it
}

// Err returns the initialization error, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Count returns the total number of records.
func (it *Iterator) Count() int {
	return it.count
}

// PerPage returns the page size the iterator maps positions with.
func (it *Iterator) PerPage() int {
	return it.perPage
}

// Key returns the current position.
func (it *Iterator) Key() int {
	return it.position
}

// Valid reports whether the current position addresses a record.
func (it *Iterator) Valid() bool {
	return it.position >= 0 && it.position < it.count
}

// Rewind moves back to the first record.
func (it *Iterator) Rewind(ctx context.Context) {
	it.position = 0
	it.refresh(ctx)
}

// Next advances one position.
func (it *Iterator) Next(ctx context.Context) {
	it.position++
	it.refresh(ctx)
}

// Current returns the record at the current position. It returns
// ErrOffsetMiss when the loaded page is shorter than expected, or the page
// fetch error.
func (it *Iterator) Current(ctx context.Context) (record.Record, error) {
	if !it.Valid() {
		return record.Record{}, ErrOutOfRange
	}

	it.refresh(ctx)
	if it.windowErr != nil {
		return record.Record{}, it.windowErr
	}

	// At position 7 with 6 per page the record is on page 2 at index 1.
	_, offset := Locate(it.position, it.perPage)
	if it.windowPage == 0 || offset >= len(it.window) {
		return record.Record{}, fmt.Errorf("%w: position %d", ErrOffsetMiss, it.position)
	}
	return it.window[offset], nil
}

// refresh loads the page owning the current position if it differs from the
// window. Positions past the end never trigger a fetch.
func (it *Iterator) refresh(ctx context.Context) {
	if !it.Valid() {
		return
	}

	page, _ := Locate(it.position, it.perPage)
	if page == 0 || page == it.windowPage {
		return
	}

	it.window, it.windowErr = it.fetcher.PageRecords(ctx, page)
	it.windowPage = page
}

// All returns the listing as a lazy, finite, restartable sequence keyed by
// position. Each range over it rewinds the iterator. Positions whose record
// cannot be loaded are skipped.
func (it *Iterator) All(ctx context.Context) iter.Seq2[int, record.Record] {
	return func(yield func(int, record.Record) bool) {
		for it.Rewind(ctx); it.Valid(); it.Next(ctx) {
			if ctx.Err() != nil {
				return
			}
			rec, err := it.Current(ctx)
			if err != nil {
				continue
			}
			if !yield(it.Key(), rec) {
				return
			}
		}
	}
}
