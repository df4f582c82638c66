package pagination

import (
	"context"
	"testing"
)

func TestInitialize(t *testing.T) {
	api := newFakeAPI(5, 2)
	state, err := Initialize(context.Background(), NewFetcher(api))
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	want := State{Progress: 0, Max: 5, PerPage: 2}
	if state != want {
		t.Errorf("state = %+v, want %+v", state, want)
	}
}

func TestInitialize_FailureIsEmptyAndDone(t *testing.T) {
	api := newFakeAPI(5, 2)
	api.failPages[1] = true

	state, err := Initialize(context.Background(), NewFetcher(api))
	if err == nil {
		t.Error("expected initialization error")
	}
	if state.Max != 0 || !state.Done() || state.Fraction() != 1 {
		t.Errorf("state = %+v, want empty and done", state)
	}
}

func TestStep_ChunkedRunReachesMax(t *testing.T) {
	api := newFakeAPI(5, 2)
	sink := &recordingSink{}
	ctx := context.Background()

	state, err := Initialize(ctx, NewFetcher(api))
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	wantProgress := []int{2, 4, 5}
	for i, want := range wantProgress {
		// Each invocation gets a fresh fetcher, as separate executions would.
		res := Step(ctx, NewFetcher(api), sink, state, 2)
		if res.State.Progress != want {
			t.Fatalf("invocation %d: progress = %d, want %d", i+1, res.State.Progress, want)
		}
		if res.State.Progress > res.State.Max {
			t.Fatalf("invocation %d: progress %d exceeds max %d", i+1, res.State.Progress, res.State.Max)
		}
		if len(res.Errors) != 0 {
			t.Fatalf("invocation %d: unexpected errors %v", i+1, res.Errors)
		}
		state = res.State
	}

	if state.Fraction() != 1.0 {
		t.Errorf("Fraction = %v, want 1.0", state.Fraction())
	}
	if !state.Done() {
		t.Error("state should be done")
	}
	if len(sink.upserted) != 5 {
		t.Errorf("upserted %d records, want 5", len(sink.upserted))
	}

	// Further calls are no-ops.
	res := Step(ctx, NewFetcher(api), sink, state, 2)
	if res.State != state || len(res.Messages) != 0 {
		t.Errorf("step on done state changed it: %+v", res)
	}
}

func TestStep_FirstInvocationAdvancesByBudget(t *testing.T) {
	api := newFakeAPI(5, 2)
	res := Step(context.Background(), NewFetcher(api), &recordingSink{}, State{Max: 5, PerPage: 2}, 2)

	if res.State.Progress != 2 {
		t.Errorf("progress = %d, want 2", res.State.Progress)
	}
	if len(res.Results) != 2 || res.Results[0] != 1 || res.Results[1] != 2 {
		t.Errorf("results = %v, want [1 2]", res.Results)
	}
	if res.State.Fraction() != 0.4 {
		t.Errorf("Fraction = %v, want 0.4", res.State.Fraction())
	}
}

func TestStep_FailuresNeverStall(t *testing.T) {
	api := newFakeAPI(6, 2)
	for p := 1; p <= 3; p++ {
		api.failPages[p] = true
	}
	ctx := context.Background()
	state := State{Max: 6, PerPage: 2}

	for i := 1; i <= 3; i++ {
		before := state.Progress
		res := Step(ctx, NewFetcher(api), &recordingSink{}, state, 2)
		if res.State.Progress != before+2 {
			t.Fatalf("invocation %d: progress %d -> %d, want +2", i, before, res.State.Progress)
		}
		if len(res.Errors) != 2 || len(res.Results) != 0 {
			t.Fatalf("invocation %d: errors=%d results=%d", i, len(res.Errors), len(res.Results))
		}
		state = res.State
	}
	if !state.Done() {
		t.Error("run should complete despite every fetch failing")
	}
}

func TestStep_SkipsOffsetMissRecordAndUpsertFailures(t *testing.T) {
	api := newFakeAPI(3, 2)
	api.total = 5
	api.failIDs[2] = true
	sink := &recordingSink{failIDs: map[int]bool{3: true}}
	ctx := context.Background()

	res := Step(ctx, NewFetcher(api), sink, State{Max: 5, PerPage: 2}, 10)

	if res.State.Progress != 5 {
		t.Errorf("progress = %d, want 5", res.State.Progress)
	}
	if len(res.Results) != 1 || res.Results[0] != 1 {
		t.Errorf("results = %v, want [1]", res.Results)
	}
	// id 2 record fetch fails, id 3 upsert fails, positions 3 and 4 miss.
	if len(res.Errors) != 4 {
		t.Errorf("errors = %d (%v), want 4", len(res.Errors), res.Errors)
	}
}

func TestStep_EmptyListingCompletesImmediately(t *testing.T) {
	api := newFakeAPI(0, 6)
	res := Step(context.Background(), NewFetcher(api), &recordingSink{}, State{Max: 0, PerPage: 6}, 2)

	if res.State.Progress != 0 || res.State.Fraction() != 1 {
		t.Errorf("state = %+v, want complete with no progress", res.State)
	}
	if len(api.calls) != 0 {
		t.Errorf("no requests expected, got %v", api.calls)
	}
}

func TestStep_ZeroPerPageStillAdvances(t *testing.T) {
	api := newFakeAPI(3, 2)
	res := Step(context.Background(), NewFetcher(api), &recordingSink{}, State{Max: 3, PerPage: 0}, 2)

	if res.State.Progress != 2 {
		t.Errorf("progress = %d, want 2", res.State.Progress)
	}
	if len(res.Errors) != 2 {
		t.Errorf("errors = %d, want 2", len(res.Errors))
	}
}

func TestStep_DetailFetchedPerItem(t *testing.T) {
	api := newFakeAPI(4, 4)
	f := NewFetcher(api)

	Step(context.Background(), f, &recordingSink{}, State{Max: 4, PerPage: 4}, 4)

	if api.calls["/posts?page=1"] != 1 {
		t.Errorf("page 1 requested %d times, want 1", api.calls["/posts?page=1"])
	}
	for _, key := range []string{"/posts/1", "/posts/2", "/posts/3", "/posts/4"} {
		if api.calls[key] != 1 {
			t.Errorf("%s requested %d times, want 1", key, api.calls[key])
		}
	}
}

func TestStep_Messages(t *testing.T) {
	api := newFakeAPI(5, 2)
	res := Step(context.Background(), NewFetcher(api), &recordingSink{}, State{Progress: 2, Max: 5, PerPage: 2}, 2)

	want := []string{`Processing item number "3".`, `Processing item number "4".`}
	if len(res.Messages) != len(want) {
		t.Fatalf("messages = %v", res.Messages)
	}
	for i := range want {
		if res.Messages[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, res.Messages[i], want[i])
		}
	}
}

func TestStep_BudgetBelowOne(t *testing.T) {
	api := newFakeAPI(5, 2)
	res := Step(context.Background(), NewFetcher(api), &recordingSink{}, State{Max: 5, PerPage: 2}, 0)

	if res.State.Progress != 1 {
		t.Errorf("progress = %d, want 1", res.State.Progress)
	}
}

func TestStep_CancelledContextDoesNotAdvance(t *testing.T) {
	api := newFakeAPI(5, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Step(ctx, NewFetcher(api), &recordingSink{}, State{Max: 5, PerPage: 2}, 2)
	if res.State.Progress != 0 {
		t.Errorf("progress = %d, want 0", res.State.Progress)
	}
	if len(res.Errors) != 1 {
		t.Errorf("errors = %v, want the context error", res.Errors)
	}
}

func TestState_Fraction(t *testing.T) {
	tests := []struct {
		state State
		want  float64
	}{
		{State{Progress: 0, Max: 4}, 0},
		{State{Progress: 1, Max: 4}, 0.25},
		{State{Progress: 4, Max: 4}, 1},
		{State{Progress: 0, Max: 0}, 1},
		{State{Progress: 9, Max: 4}, 1},
	}

	for _, tt := range tests {
		if got := tt.state.Fraction(); got != tt.want {
			t.Errorf("%+v.Fraction() = %v, want %v", tt.state, got, tt.want)
		}
	}
}
