package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/posts-sync/pkg/record"
)

// fakeAPI serves a paginated listing from memory and counts requests by
// path+query.
type fakeAPI struct {
	records []record.Record
	perPage int

	// total overrides the advertised total when > 0 (short-page scenarios).
	total int

	failPages   map[int]bool
	failIDs     map[int]bool
	omitPerPage bool
	omitTotal   bool
	omitData    bool

	calls map[string]int
}

func newFakeAPI(n, perPage int) *fakeAPI {
	records := make([]record.Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, record.Record{
			ID:           i,
			Name:         fmt.Sprintf("colour %d", i),
			Year:         2000 + i,
			Color:        fmt.Sprintf("#%06X", i),
			PantoneValue: fmt.Sprintf("%02d-0000", i),
		})
	}
	return &fakeAPI{
		records:   records,
		perPage:   perPage,
		failPages: make(map[int]bool),
		failIDs:   make(map[int]bool),
		calls:     make(map[string]int),
	}
}

func (f *fakeAPI) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	key := path
	if q := query.Encode(); q != "" {
		key += "?" + q
	}
	f.calls[key]++

	if path == PostsPath {
		return f.listing(query)
	}
	if idStr, ok := strings.CutPrefix(path, PostsPath+"/"); ok {
		return f.single(idStr)
	}
	return nil, errors.New("unknown path " + path)
}

func (f *fakeAPI) listing(query url.Values) (json.RawMessage, error) {
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		return nil, errors.New("bad page")
	}
	if f.failPages[page] {
		return nil, fmt.Errorf("page %d unavailable", page)
	}

	start := (page - 1) * f.perPage
	end := start + f.perPage
	if start > len(f.records) {
		start = len(f.records)
	}
	if end > len(f.records) {
		end = len(f.records)
	}

	total := len(f.records)
	if f.total > 0 {
		total = f.total
	}

	body := map[string]any{"page": page}
	if !f.omitPerPage {
		body["per_page"] = f.perPage
	}
	if !f.omitTotal {
		body["total"] = total
	}
	if !f.omitData {
		body["data"] = f.records[start:end]
	}
	return json.Marshal(body)
}

func (f *fakeAPI) single(idStr string) (json.RawMessage, error) {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, err
	}
	if f.failIDs[id] {
		return nil, fmt.Errorf("record %d unavailable", id)
	}
	for _, r := range f.records {
		if r.ID == id {
			return json.Marshal(map[string]any{"data": r})
		}
	}
	return json.Marshal(map[string]any{})
}

// pageCalls counts listing requests.
func (f *fakeAPI) pageCalls() int {
	n := 0
	for k, v := range f.calls {
		if strings.HasPrefix(k, PostsPath+"?") {
			n += v
		}
	}
	return n
}

// recordingSink remembers upserts and can fail on chosen ids.
type recordingSink struct {
	upserted []record.Record
	failIDs  map[int]bool
}

func (s *recordingSink) Upsert(ctx context.Context, rec record.Record) error {
	if s.failIDs[rec.ID] {
		return fmt.Errorf("sink rejected %d", rec.ID)
	}
	s.upserted = append(s.upserted, rec)
	return nil
}
