package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/posts-sync/pkg/logging"
	"github.com/Sternrassler/posts-sync/pkg/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// PostsPath is the listing endpoint; single records live under PostsPath/{id}.
const PostsPath = "/posts"

var (
	// ErrMissingField is returned when a successful response lacks an expected key.
	ErrMissingField = errors.New("field missing from response")

	// ErrOffsetMiss is returned when a page has no record at the computed offset.
	ErrOffsetMiss = errors.New("no record at offset")
)

var (
	pageCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posts_sync_page_cache_hits_total",
		Help: "Total number of page lookups served from the fetcher cache",
	})

	pageCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posts_sync_page_cache_misses_total",
		Help: "Total number of page lookups that required an API request",
	})
)

// Getter is the API client contract: GET path?query and return the JSON body.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

// Page is one listing response.
type Page struct {
	Number     int
	PerPage    int
	Total      int
	TotalPages int
	Data       []record.Record

	hasPerPage bool
	hasTotal   bool
	hasData    bool
}

type pageEnvelope struct {
	Page       *int             `json:"page"`
	PerPage    *int             `json:"per_page"`
	Total      *int             `json:"total"`
	TotalPages *int             `json:"total_pages"`
	Data       *[]record.Record `json:"data"`
}

type recordEnvelope struct {
	Data *record.Record `json:"data"`
}

type pageEntry struct {
	page *Page
	err  error
}

// Fetcher wraps a Getter with a per-page cache. The cache lives as long as
// the Fetcher; create a new Fetcher per sync invocation.
// A Fetcher is not safe for concurrent use.
type Fetcher struct {
	api    Getter
	pages  map[int]pageEntry
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher with an empty page cache.
func NewFetcher(api Getter) *Fetcher {
	return &Fetcher{
		api:    api,
		pages:  make(map[int]pageEntry),
		logger: logging.NewLogger("pagination"),
	}
}

// Page returns listing page n, issuing at most one request per page number
// for the lifetime of the Fetcher. Failures are memoized as well.
func (f *Fetcher) Page(ctx context.Context, n int) (*Page, error) {
	if entry, ok := f.pages[n]; ok {
		pageCacheHits.Inc()
		f.logger.Debug().Int("page", n).Msg("Page cache hit")
		return entry.page, entry.err
	}
	pageCacheMisses.Inc()

	page, err := f.fetchPage(ctx, n)
	f.pages[n] = pageEntry{page: page, err: err}
	return page, err
}

func (f *Fetcher) fetchPage(ctx context.Context, n int) (*Page, error) {
	body, err := f.api.Get(ctx, PostsPath, url.Values{"page": []string{strconv.Itoa(n)}})
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", n, err)
	}

	var env pageEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", n, err)
	}

	page := &Page{Number: n}
	if env.Page != nil {
		page.Number = *env.Page
	}
	if env.PerPage != nil {
		page.PerPage, page.hasPerPage = *env.PerPage, true
	}
	if env.Total != nil {
		page.Total, page.hasTotal = *env.Total, true
	}
	if env.TotalPages != nil {
		page.TotalPages = *env.TotalPages
	}
	if env.Data != nil {
		page.Data, page.hasData = *env.Data, true
	}

	f.logger.Debug().
		Int("page", n).
		Int("records", len(page.Data)).
		Msg("Fetched page")

	return page, nil
}

// PageRecords returns the data of listing page n.
func (f *Fetcher) PageRecords(ctx context.Context, n int) ([]record.Record, error) {
	page, err := f.Page(ctx, n)
	if err != nil {
		return nil, err
	}
	if !page.hasData {
		return nil, fmt.Errorf("page %d: %w: data", n, ErrMissingField)
	}
	return page.Data, nil
}

// RecordByID fetches one record. It always issues a request; results are
// never cached.
func (f *Fetcher) RecordByID(ctx context.Context, id int) (record.Record, error) {
	body, err := f.api.Get(ctx, PostsPath+"/"+strconv.Itoa(id), nil)
	if err != nil {
		return record.Record{}, fmt.Errorf("fetch record %d: %w", id, err)
	}

	var env recordEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return record.Record{}, fmt.Errorf("decode record %d: %w", id, err)
	}
	if env.Data == nil {
		return record.Record{}, fmt.Errorf("record %d: %w: data", id, ErrMissingField)
	}
	return *env.Data, nil
}

// PerPage returns per_page from page 1, or 0 with an error when it cannot be
// determined.
func (f *Fetcher) PerPage(ctx context.Context) (int, error) {
	page, err := f.Page(ctx, 1)
	if err != nil {
		return 0, err
	}
	if !page.hasPerPage {
		return 0, fmt.Errorf("page 1: %w: per_page", ErrMissingField)
	}
	return page.PerPage, nil
}

// TotalCount returns total from page 1, or 0 with an error when it cannot be
// determined.
func (f *Fetcher) TotalCount(ctx context.Context) (int, error) {
	page, err := f.Page(ctx, 1)
	if err != nil {
		return 0, err
	}
	if !page.hasTotal {
		return 0, fmt.Errorf("page 1: %w: total", ErrMissingField)
	}
	return page.Total, nil
}

// CachedPages returns how many page numbers the Fetcher has memoized.
func (f *Fetcher) CachedPages() int {
	return len(f.pages)
}
