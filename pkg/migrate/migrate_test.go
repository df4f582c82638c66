package migrate

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/posts-sync/internal/testutil"
	"github.com/Sternrassler/posts-sync/pkg/client"
	"github.com/Sternrassler/posts-sync/pkg/pagination"
	"github.com/Sternrassler/posts-sync/pkg/record"
	"github.com/Sternrassler/posts-sync/pkg/sink"
)

func newSource(t *testing.T, mock *testutil.MockAPI) *Source {
	t.Helper()
	api, err := client.New(client.Config{
		BaseURL:   mock.URL(),
		UserAgent: "posts-sync-test/1.0",
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	return NewSource(api)
}

func TestSource_Schema(t *testing.T) {
	mock := testutil.NewMockAPI(nil, 6)
	defer mock.Close()
	src := newSource(t, mock)

	if got := src.String(); got != "id, name, year, color, pantone_value" {
		t.Errorf("String() = %q", got)
	}

	ids := src.IDs()
	if len(ids) != 1 || ids["id"] != "integer" {
		t.Errorf("IDs() = %v", ids)
	}

	fields := src.Fields()
	if len(fields) != 5 || fields[0].Description != "Paint Can ID" {
		t.Errorf("Fields() = %v", fields)
	}
}

func TestRun_ImportsEverything(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.PaintCans(), 6)
	defer mock.Close()
	nodes := sink.NewMemoryStore()
	ctx := context.Background()

	var calls []int
	summary, err := Run(ctx, newSource(t, mock), sink.NewUpdater(nodes), func(done, total int) {
		if total != 12 {
			t.Errorf("progress total = %d, want 12", total)
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Total != 12 || summary.Processed != 12 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(calls) != 12 || calls[11] != 12 {
		t.Errorf("progress calls = %v", calls)
	}

	// Iteration reads pages only, one request each.
	if got := mock.PageRequests(); got != 2 {
		t.Errorf("page requests = %d, want 2", got)
	}

	node := nodes.Nodes()[2]
	if node.Title != "Fuchsia Rose" || node.Colour != "C74375" {
		t.Errorf("node 2 = %+v", node)
	}
}

func TestRun_RerunStartsWithEmptyCache(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.PaintCans(), 6)
	defer mock.Close()
	src := newSource(t, mock)
	nodes := sink.NewMemoryStore()

	if _, err := Run(context.Background(), src, sink.NewUpdater(nodes), nil); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	mock.Reset()

	summary, err := Run(context.Background(), src, sink.NewUpdater(nodes), nil)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if summary.Processed != 12 {
		t.Errorf("second run processed %d, want 12", summary.Processed)
	}
	if got := mock.PageRequests(); got != 2 {
		t.Errorf("second run page requests = %d, want 2", got)
	}
	if len(nodes.Nodes()) != 12 {
		t.Errorf("re-import created duplicates: %d nodes", len(nodes.Nodes()))
	}
}

func TestRun_SkipsShortPage(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.PaintCanRecords(4), 3)
	mock.SetTotal(6)
	defer mock.Close()

	summary, err := Run(context.Background(), newSource(t, mock), sink.NewUpdater(sink.NewMemoryStore()), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Processed != 4 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want 4 processed and 2 skipped", summary)
	}
	for _, e := range summary.Errors {
		if !errors.Is(e, pagination.ErrOffsetMiss) {
			t.Errorf("unexpected skip reason: %v", e)
		}
	}
}

func TestRun_FailedPageSkipsItsPositions(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.PaintCans(), 6)
	mock.FailPage(2, http.StatusBadGateway)
	defer mock.Close()

	summary, err := Run(context.Background(), newSource(t, mock), sink.NewUpdater(sink.NewMemoryStore()), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Processed != 6 || summary.Skipped != 6 {
		t.Errorf("summary = %+v", summary)
	}
	// The failing page is requested once; its failure is remembered.
	if got := mock.Count("/posts?page=2"); got != 1 {
		t.Errorf("page 2 requested %d times, want 1", got)
	}
}

type rejectingSink struct{ reject int }

func (s rejectingSink) Upsert(ctx context.Context, rec record.Record) error {
	if rec.ID == s.reject {
		return errors.New("rejected")
	}
	return nil
}

func TestRun_SinkFailuresContinue(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.PaintCanRecords(5), 2)
	defer mock.Close()

	summary, err := Run(context.Background(), newSource(t, mock), rejectingSink{reject: 3}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Processed != 4 || summary.Failed != 1 || len(summary.Errors) != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRun_UnreadableListing(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.PaintCans(), 6)
	mock.FailPage(1, http.StatusInternalServerError)
	defer mock.Close()

	_, err := Run(context.Background(), newSource(t, mock), rejectingSink{}, nil)
	if err == nil {
		t.Fatal("expected error when page 1 fails")
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected wrapped APIError 500, got %v", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.PaintCans(), 6)
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	src := newSource(t, mock)

	var seen int
	_, err := Run(ctx, src, rejectingSink{}, func(done, total int) {
		seen = done
		if done == 3 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if seen != 3 {
		t.Errorf("processed %d positions after cancel, want 3", seen)
	}
}
