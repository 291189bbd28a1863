package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/amaumene/flickarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Searcher is the slice of the catalog client the search controller needs
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Movie, error)
}

// SearchState is the controller's observable state: what a renderer needs
// to draw the search screen at any instant.
type SearchState struct {
	Query   string
	Results []models.Movie
	Loading bool
	Err     error
}

// SearchController turns a noisy stream of keystrokes into a minimal set of
// remote queries. Each change of text restarts a quiet-period timer; only
// the last text of a burst is ever dispatched. Every dispatch takes a fresh
// sequence number, and a response is applied only while its number is still
// the newest one, so an out-of-order response from a superseded query can
// never overwrite newer state.
type SearchController struct {
	searcher Searcher
	quiet    time.Duration
	notify   func(SearchState)
	logger   *logrus.Logger

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	query  string
	state  SearchState
	closed bool
}

// NewSearchController creates a new search controller. notify may be nil;
// when set it is invoked with a state snapshot after every state change.
func NewSearchController(searcher Searcher, quiet time.Duration, notify func(SearchState), logger *logrus.Logger) *SearchController {
	return &SearchController{
		searcher: searcher,
		quiet:    quiet,
		notify:   notify,
		logger:   logger,
	}
}

// OnQueryChanged records the newest text and reschedules the pending
// dispatch. Empty text clears results, error and loading synchronously and
// issues no network call at all; the sequence bump also invalidates any
// response still in flight.
func (c *SearchController) OnQueryChanged(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.query = text

	if text == "" {
		c.seq++
		c.state = SearchState{}
		snapshot := c.state
		c.mu.Unlock()
		c.publish(snapshot)
		return
	}

	c.timer = time.AfterFunc(c.quiet, func() {
		c.dispatch(text)
	})
	c.mu.Unlock()
}

// dispatch runs on timer expiry with the text captured at scheduling time.
func (c *SearchController) dispatch(text string) {
	c.mu.Lock()
	// Stop can lose the race against an already-fired timer, so re-check
	// that this dispatch still matches the latest text.
	if c.closed || text != c.query {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.seq++
	seq := c.seq
	c.state.Query = text
	c.state.Loading = true
	c.state.Err = nil
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snapshot)

	c.logger.WithFields(logrus.Fields{
		"query": text,
		"seq":   seq,
	}).Debug("Dispatching search")

	results, err := c.searcher.Search(context.Background(), text)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		// A newer query (or a clear, or teardown) superseded this one
		// while it was in flight. Drop the result, success or failure.
		c.mu.Unlock()
		c.logger.WithField("seq", seq).Debug("Discarding stale search response")
		return
	}
	if err != nil {
		c.logger.WithError(err).WithField("query", text).Warn("Search failed")
		c.state = SearchState{Query: text, Err: err}
	} else {
		c.state = SearchState{Query: text, Results: results}
	}
	snapshot = c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snapshot)
}

// State returns a snapshot of the current search state
func (c *SearchController) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close cancels any pending dispatch and invalidates in-flight responses.
// Timers or responses arriving after Close are no-ops.
func (c *SearchController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
	c.closed = true
}

func (c *SearchController) publish(state SearchState) {
	if c.notify != nil {
		c.notify(state)
	}
}

func (c *SearchController) snapshotLocked() SearchState {
	snapshot := c.state
	snapshot.Results = append([]models.Movie{}, c.state.Results...)
	return snapshot
}
