// Package testutil provides testing utilities for the posts sync.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/posts-sync/pkg/record"
)

// MockResponse defines a canned response for a request key.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a paginated mock of the remote posts API. It serves
// GET /posts?page=N and GET /posts/{id} from Records.
type MockAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	records   []record.Record
	perPage   int
	total     int
	overrides map[string]MockResponse

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	counts            map[string]int
}

// NewMockAPI serves records with perPage records per page.
func NewMockAPI(records []record.Record, perPage int) *MockAPI {
	mock := &MockAPI{
		records:   records,
		perPage:   perPage,
		overrides: make(map[string]MockResponse),
		counts:    make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := RequestKey(r.URL.Path, r.URL.RawQuery)

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.counts[key]++
		resp, overridden := mock.overrides[key]
		mock.mu.Unlock()

		if overridden {
			writeResponse(w, resp)
			return
		}
		mock.serve(w, r)
	}))

	return mock
}

// RequestKey is the tracking key for a path and raw query.
func RequestKey(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// URL returns the mock server URL, usable as the client base URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.counts = make(map[string]int)
}

// SetTotal overrides the advertised total (0 restores len(records)).
func (m *MockAPI) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// SetResponse replaces the response for a request key such as
// "/posts?page=2" or "/posts/3".
func (m *MockAPI) SetResponse(key string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[key] = resp
}

// FailPage makes listing page n answer with status.
func (m *MockAPI) FailPage(n, status int) {
	m.SetResponse(RequestKey("/posts", "page="+strconv.Itoa(n)), NewErrorResponse(status))
}

// FailRecord makes the detail endpoint of id answer with status.
func (m *MockAPI) FailRecord(id, status int) {
	m.SetResponse("/posts/"+strconv.Itoa(id), NewErrorResponse(status))
}

// Count returns how often a request key was requested.
func (m *MockAPI) Count(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[key]
}

// PageRequests returns the number of listing requests.
func (m *MockAPI) PageRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for key, c := range m.counts {
		if strings.HasPrefix(key, "/posts?") {
			n += c
		}
	}
	return n
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

func (m *MockAPI) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	switch {
	case r.URL.Path == "/posts":
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		writeJSON(w, m.listing(page))
	case strings.HasPrefix(r.URL.Path, "/posts/"):
		id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/posts/"))
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{}`))
			return
		}
		rec, ok := m.find(id)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{}`))
			return
		}
		writeJSON(w, map[string]any{"data": rec})
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{}`))
	}
}

func (m *MockAPI) listing(page int) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := min((page-1)*m.perPage, len(m.records))
	end := min(start+m.perPage, len(m.records))

	total := len(m.records)
	if m.total > 0 {
		total = m.total
	}
	totalPages := 0
	if m.perPage > 0 {
		totalPages = (total + m.perPage - 1) / m.perPage
	}

	return map[string]any{
		"page":        page,
		"per_page":    m.perPage,
		"total":       total,
		"total_pages": totalPages,
		"data":        m.records[start:end],
	}
}

func (m *MockAPI) find(id int) (record.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return record.Record{}, false
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewErrorResponse creates a JSON error response with status.
func NewErrorResponse(status int) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       `{"error": "` + http.StatusText(status) + `"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewHealthyResponse creates a 200 OK response with a JSON body.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// PaintCans returns the twelve paint cans the public API serves, six per
// page.
func PaintCans() []record.Record {
	return []record.Record{
		{ID: 1, Name: "cerulean", Year: 2000, Color: "#98B2D1", PantoneValue: "15-4020"},
		{ID: 2, Name: "fuchsia rose", Year: 2001, Color: "#C74375", PantoneValue: "17-2031"},
		{ID: 3, Name: "true red", Year: 2002, Color: "#BF1932", PantoneValue: "19-1664"},
		{ID: 4, Name: "aqua sky", Year: 2003, Color: "#7BC4C4", PantoneValue: "14-4811"},
		{ID: 5, Name: "tigerlily", Year: 2004, Color: "#E2583E", PantoneValue: "17-1456"},
		{ID: 6, Name: "blue turquoise", Year: 2005, Color: "#53B0AE", PantoneValue: "15-5217"},
		{ID: 7, Name: "sand dollar", Year: 2006, Color: "#DECDBE", PantoneValue: "13-1106"},
		{ID: 8, Name: "chili pepper", Year: 2007, Color: "#9B1B30", PantoneValue: "19-1557"},
		{ID: 9, Name: "blue iris", Year: 2008, Color: "#5A5B9F", PantoneValue: "18-3943"},
		{ID: 10, Name: "mimosa", Year: 2009, Color: "#F0C05A", PantoneValue: "14-0848"},
		{ID: 11, Name: "turquoise", Year: 2010, Color: "#45B5AA", PantoneValue: "15-5519"},
		{ID: 12, Name: "honeysuckle", Year: 2011, Color: "#D94F70", PantoneValue: "18-2120"},
	}
}

// PaintCanRecords returns the first n paint cans.
func PaintCanRecords(n int) []record.Record {
	all := PaintCans()
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}
