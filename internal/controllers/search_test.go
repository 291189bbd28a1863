package controllers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amaumene/flickarr/internal/models"
	"github.com/amaumene/flickarr/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQuiet = 30 * time.Millisecond

// fakeSearcher counts calls and lets tests pick results, errors and delays
// per query.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   int64
	queries []string
	results map[string][]models.Movie
	errs    map[string]error
	gates   map[string]chan struct{}
	started map[string]chan struct{}
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: make(map[string][]models.Movie),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		started: make(map[string]chan struct{}),
	}
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]models.Movie, error) {
	atomic.AddInt64(&f.calls, 1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	started := f.started[query]
	gate := f.gates[query]
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) callCount() int64 {
	return atomic.LoadInt64(&f.calls)
}

func searchResult(id int, title string) []models.Movie {
	return []models.Movie{{ID: id, Title: title, VoteAverage: 7, GenreIDs: []int{}}}
}

// stateRecorder collects every published state snapshot
type stateRecorder struct {
	mu     sync.Mutex
	states []SearchState
}

func (r *stateRecorder) record(state SearchState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) snapshot() []SearchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SearchState{}, r.states...)
}

func waitForState(t *testing.T, ctrl *SearchController, predicate func(SearchState) bool) SearchState {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		state := ctrl.State()
		if predicate(state) {
			return state
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for state, last: %+v", ctrl.State())
	return SearchState{}
}

func TestDebounceCollapsesBursts(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.results["inception"] = searchResult(27205, "Inception")

	ctrl := NewSearchController(searcher, testQuiet, nil, utils.NewTestLogger())
	defer ctrl.Close()

	// A typing burst faster than the quiet period
	for _, text := range []string{"i", "in", "inc", "ince", "inception"} {
		ctrl.OnQueryChanged(text)
		time.Sleep(2 * time.Millisecond)
	}

	state := waitForState(t, ctrl, func(s SearchState) bool {
		return len(s.Results) > 0
	})

	assert.Equal(t, int64(1), searcher.callCount(), "only the final text of the burst may be dispatched")
	assert.Equal(t, "inception", state.Query)
	assert.Equal(t, 27205, state.Results[0].ID)
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)
}

func TestEmptyQueryClearsWithoutNetwork(t *testing.T) {
	searcher := newFakeSearcher()

	recorder := &stateRecorder{}
	ctrl := NewSearchController(searcher, testQuiet, recorder.record, utils.NewTestLogger())
	defer ctrl.Close()

	ctrl.OnQueryChanged("incep")
	ctrl.OnQueryChanged("")

	// Wait well past the quiet period: the cancelled dispatch must not fire
	time.Sleep(3 * testQuiet)

	assert.Equal(t, int64(0), searcher.callCount(), "no network call may ever be issued")

	state := ctrl.State()
	assert.Empty(t, state.Query)
	assert.Empty(t, state.Results)
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)

	// The clear itself was published synchronously
	states := recorder.snapshot()
	require.NotEmpty(t, states)
	assert.Empty(t, states[len(states)-1].Query)
}

func TestStaleResponseDiscarded(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.results["slow"] = searchResult(1, "Slow result")
	searcher.results["fast"] = searchResult(2, "Fast result")
	searcher.gates["slow"] = make(chan struct{})
	searcher.started["slow"] = make(chan struct{})

	ctrl := NewSearchController(searcher, 5*time.Millisecond, nil, utils.NewTestLogger())
	defer ctrl.Close()

	ctrl.OnQueryChanged("slow")
	<-searcher.started["slow"] // first request is in flight

	ctrl.OnQueryChanged("fast")
	waitForState(t, ctrl, func(s SearchState) bool {
		return len(s.Results) > 0 && s.Results[0].ID == 2
	})

	// Now let the superseded response arrive late
	close(searcher.gates["slow"])
	time.Sleep(20 * time.Millisecond)

	state := ctrl.State()
	require.Len(t, state.Results, 1)
	assert.Equal(t, 2, state.Results[0].ID, "a stale response must never overwrite newer results")
	assert.Equal(t, "fast", state.Query)
}

func TestStaleErrorDiscarded(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.errs["broken"] = errors.New("boom")
	searcher.gates["broken"] = make(chan struct{})
	searcher.started["broken"] = make(chan struct{})
	searcher.results["fine"] = searchResult(3, "Fine")

	ctrl := NewSearchController(searcher, 5*time.Millisecond, nil, utils.NewTestLogger())
	defer ctrl.Close()

	ctrl.OnQueryChanged("broken")
	<-searcher.started["broken"]

	ctrl.OnQueryChanged("fine")
	waitForState(t, ctrl, func(s SearchState) bool {
		return len(s.Results) > 0
	})

	close(searcher.gates["broken"])
	time.Sleep(20 * time.Millisecond)

	state := ctrl.State()
	assert.NoError(t, state.Err, "a stale error must be discarded too")
	require.Len(t, state.Results, 1)
	assert.Equal(t, 3, state.Results[0].ID)
}

func TestErrorBecomesState(t *testing.T) {
	searcher := newFakeSearcher()
	wantErr := errors.New("catalog unavailable")
	searcher.errs["doomed"] = wantErr

	ctrl := NewSearchController(searcher, 5*time.Millisecond, nil, utils.NewTestLogger())
	defer ctrl.Close()

	ctrl.OnQueryChanged("doomed")

	state := waitForState(t, ctrl, func(s SearchState) bool {
		return s.Err != nil
	})

	assert.ErrorIs(t, state.Err, wantErr)
	assert.Empty(t, state.Results, "results are cleared on failure")
	assert.False(t, state.Loading, "loading must never survive an error")
}

func TestLoadingPublishedDuringDispatch(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.results["x"] = searchResult(4, "X")
	searcher.gates["x"] = make(chan struct{})
	searcher.started["x"] = make(chan struct{})

	recorder := &stateRecorder{}
	ctrl := NewSearchController(searcher, 5*time.Millisecond, recorder.record, utils.NewTestLogger())
	defer ctrl.Close()

	ctrl.OnQueryChanged("x")
	<-searcher.started["x"]

	assert.True(t, ctrl.State().Loading)

	close(searcher.gates["x"])
	waitForState(t, ctrl, func(s SearchState) bool {
		return !s.Loading && len(s.Results) > 0
	})

	// The recorder saw loading go up, then come down with results
	states := recorder.snapshot()
	require.GreaterOrEqual(t, len(states), 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[len(states)-1].Loading)
}

func TestCloseCancelsPendingDispatch(t *testing.T) {
	searcher := newFakeSearcher()

	ctrl := NewSearchController(searcher, testQuiet, nil, utils.NewTestLogger())

	ctrl.OnQueryChanged("about to be abandoned")
	ctrl.Close()

	time.Sleep(3 * testQuiet)

	assert.Equal(t, int64(0), searcher.callCount(), "a timer firing after teardown must be a no-op")
}

func TestCloseDiscardsInFlightResponse(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.results["late"] = searchResult(5, "Late")
	searcher.gates["late"] = make(chan struct{})
	searcher.started["late"] = make(chan struct{})

	ctrl := NewSearchController(searcher, 5*time.Millisecond, nil, utils.NewTestLogger())

	ctrl.OnQueryChanged("late")
	<-searcher.started["late"]

	ctrl.Close()
	close(searcher.gates["late"])
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, ctrl.State().Results, "responses after teardown must not touch state")
}
