// Package pagination turns the page-numbered posts listing into a resumable
// record cursor.
//
// The remote API serves fixed-size pages addressed by a 1-based page number
// (GET /posts?page=N) and single records by id (GET /posts/{id}). Progress
// through the listing is a single 0-based counter; the owning page and the
// offset inside it are always derived from that counter:
//
//	page   = progress/perPage + 1
//	offset = progress % perPage
//
// Two consumers share this mapping:
//
//   - Iterator walks the listing in-process (Rewind/Valid/Current/Next) and
//     keeps the current page as a window so that stepping within a page costs
//     no extra request.
//   - Step advances an externally persisted State by a fixed item budget per
//     call. Each call is independent; the caller stores the returned State and
//     calls again until State.Done.
//
// Example usage:
//
//	fetcher := pagination.NewFetcher(apiClient)
//	state, err := pagination.Initialize(ctx, fetcher)
//	for !state.Done() {
//	    res := pagination.Step(ctx, pagination.NewFetcher(apiClient), sink, state, 2)
//	    state = res.State
//	}
//
// A Fetcher memoizes pages for its own lifetime only. Single-record lookups
// are never cached: the listing is an index, the record endpoint is the
// source of truth.
package pagination
