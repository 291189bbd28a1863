package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/amaumene/flickarr/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrNotInitialized is returned by Toggle before the persisted set has
// finished loading.
var ErrNotInitialized = errors.New("favorites store is not initialized yet")

// ErrClosed is returned by Toggle after Close.
var ErrClosed = errors.New("favorites store is closed")

// PersistenceError reports a failure to read or write the persisted set as
// a whole. It is logged, never returned from Toggle: in-memory state is
// authoritative and persistence is best-effort behind it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("favorites %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Storage is where the favorites record lives. *models.Database satisfies
// it; tests substitute fakes.
type Storage interface {
	LoadFavorites() (*models.FavoritesRecord, error)
	SaveFavorites(record *models.FavoritesRecord) error
}

// EventKind identifies what a store notification is about
type EventKind int

const (
	// EventReady fires exactly once, when the persisted set has loaded
	EventReady EventKind = iota
	// EventChanged fires on every toggle
	EventChanged
)

// Event carries a notification plus a snapshot of the set at that moment
type Event struct {
	Kind      EventKind
	Favorites []models.Movie
}

// Subscription is a handle to an active subscriber. Cancel releases it.
type Subscription struct {
	store *Store
	id    int
}

// Cancel removes the subscriber. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.store.unsubscribe(s.id)
}

// pendingWrite is one queued whole-set write, tagged with the ticket of the
// mutation that produced it.
type pendingWrite struct {
	payloads []string
	ticket   uint64
}

// Store owns the favorites set: an ordered, id-unique collection of movies
// persisted wholesale as one record. It is created Uninitialized, loads the
// persisted set asynchronously, and transitions to Ready exactly once.
//
// Every mutation takes a ticket under the state lock, and its snapshot
// joins the write queue under the same lock, so mutations, notifications
// and durable writes all share one total order even when Toggle is called
// from concurrent goroutines. Notifications are delivered synchronously on
// the mutating goroutine, in ticket order; the writer goroutine will not
// persist a snapshot until its mutation's notification has been delivered,
// which keeps the notify-before-write contract. The notify-before-write
// ordering is a deliberate responsiveness trade-off: a crash inside that
// window loses at most the newest toggles' durability, never the integrity
// of the persisted record.
type Store struct {
	storage Storage
	logger  *logrus.Logger

	mu         sync.Mutex
	items      []models.Movie
	ready      bool
	closed     bool
	subs       map[int]func(Event)
	nextSub    int
	queue      []pendingWrite
	nextTicket uint64
	writeCond  *sync.Cond // wakes the writer; guarded by mu

	notifyMu   sync.Mutex
	notifyCond *sync.Cond // turnstile for in-order delivery; guarded by notifyMu
	notifyDone uint64     // tickets fully delivered so far

	writeWG sync.WaitGroup
	done    chan struct{}
}

// NewStore creates the store and starts the asynchronous load. The returned
// store reports Initialized() == false until the load finishes.
func NewStore(storage Storage, logger *logrus.Logger) *Store {
	s := &Store{
		storage: storage,
		logger:  logger,
		subs:    make(map[int]func(Event)),
		done:    make(chan struct{}),
	}
	s.writeCond = sync.NewCond(&s.mu)
	s.notifyCond = sync.NewCond(&s.notifyMu)

	go s.writer()
	go s.load()

	return s
}

// load reads the persisted record once. A corrupt individual entry is
// skipped so one bad record cannot destroy every favorite saved before it;
// a failure to read the whole record is logged and the store still becomes
// Ready with an empty set.
func (s *Store) load() {
	loaded := []models.Movie{}

	record, err := s.storage.LoadFavorites()
	if err != nil {
		s.logger.WithError(&PersistenceError{Op: "load", Err: err}).Warn("Failed to read favorites, starting empty")
	} else {
		seen := make(map[int]bool, len(record.Payloads))
		for i, raw := range record.Payloads {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				s.logger.WithError(err).WithField("index", i).Warn("Skipping corrupt favorites entry")
				continue
			}
			movie, err := models.MovieFromPayload(payload)
			if err != nil {
				s.logger.WithError(err).WithField("index", i).Warn("Skipping corrupt favorites entry")
				continue
			}
			if seen[movie.ID] {
				continue
			}
			seen[movie.ID] = true
			loaded = append(loaded, movie)
		}
	}

	s.mu.Lock()
	s.items = loaded
	s.ready = true
	ticket := s.takeTicketLocked()
	snapshot := s.snapshotLocked()
	handlers := s.handlersLocked()
	s.mu.Unlock()

	s.logger.WithField("count", len(loaded)).Info("Favorites loaded")

	s.deliver(ticket, handlers, Event{Kind: EventReady, Favorites: snapshot})
}

// Initialized reports whether the one-time load has completed. Once true it
// stays true for the life of the store.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Favorites returns a snapshot of the set in insertion order. Before Ready
// it is always empty.
func (s *Store) Favorites() []models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return []models.Movie{}
	}
	return s.snapshotLocked()
}

// IsFavorite reports membership by id. Pure read.
func (s *Store) IsFavorite(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return false
	}
	for _, item := range s.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Toggle removes the movie if its id is already present, otherwise appends
// it. The snapshot is queued for persistence under the state lock, in the
// same order as the mutation itself; the notification is delivered before
// Toggle returns, and the durable write completes only after it.
func (s *Store) Toggle(movie models.Movie) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.ready {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	index := -1
	for i, item := range s.items {
		if item.ID == movie.ID {
			index = i
			break
		}
	}
	if index >= 0 {
		s.items = append(s.items[:index], s.items[index+1:]...)
	} else {
		s.items = append(s.items, movie)
	}

	ticket := s.takeTicketLocked()
	snapshot := s.snapshotLocked()
	handlers := s.handlersLocked()
	s.queue = append(s.queue, pendingWrite{payloads: s.payloadsLocked(), ticket: ticket})
	s.writeWG.Add(1)
	s.writeCond.Signal()
	s.mu.Unlock()

	s.deliver(ticket, handlers, Event{Kind: EventChanged, Favorites: snapshot})
	return nil
}

// Subscribe registers a handler for store events. A subscriber that joins
// after the load has finished immediately receives the Ready event so late
// consumers never miss the transition.
func (s *Store) Subscribe(handler func(Event)) *Subscription {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = handler
	replay := s.ready
	var ticket uint64
	var snapshot []models.Movie
	if replay {
		ticket = s.takeTicketLocked()
		snapshot = s.snapshotLocked()
	}
	s.mu.Unlock()

	if replay {
		s.deliver(ticket, []func(Event){handler}, Event{Kind: EventReady, Favorites: snapshot})
	}

	return &Subscription{store: s, id: id}
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Flush blocks until every queued write has hit storage. This is the
// explicit durability point for callers that need one.
func (s *Store) Flush() {
	s.writeWG.Wait()
}

// Close drains pending writes and stops the writer. Toggle calls after
// Close fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.writeCond.Signal()
	s.mu.Unlock()

	s.writeWG.Wait()
	<-s.done
}

// writer drains the queue one record at a time and in queue order, so two
// rapid toggles can never interleave their write phase or persist out of
// order. Each entry is held back until its mutation's notification has
// been delivered, so a completed write always means the change was
// announced first.
func (s *Store) writer() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.writeCond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		entry := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.notifyMu.Lock()
		for s.notifyDone <= entry.ticket {
			s.notifyCond.Wait()
		}
		s.notifyMu.Unlock()

		err := s.storage.SaveFavorites(&models.FavoritesRecord{Payloads: entry.payloads})
		if err != nil {
			s.logger.WithError(&PersistenceError{Op: "save", Err: err}).Error("Failed to persist favorites")
		}
		s.writeWG.Done()
	}
}

// takeTicketLocked assigns the next position in the store's total event
// order. Caller must hold mu.
func (s *Store) takeTicketLocked() uint64 {
	ticket := s.nextTicket
	s.nextTicket++
	return ticket
}

// deliver invokes handlers for one event, strictly in ticket order across
// all goroutines: delivery waits for every earlier ticket to finish first.
func (s *Store) deliver(ticket uint64, handlers []func(Event), event Event) {
	s.notifyMu.Lock()
	for s.notifyDone != ticket {
		s.notifyCond.Wait()
	}
	s.notifyMu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}

	s.notifyMu.Lock()
	s.notifyDone++
	s.notifyCond.Broadcast()
	s.notifyMu.Unlock()
}

func (s *Store) snapshotLocked() []models.Movie {
	return append([]models.Movie{}, s.items...)
}

func (s *Store) payloadsLocked() []string {
	payloads := make([]string, 0, len(s.items))
	for _, item := range s.items {
		data, err := json.Marshal(item.ToPayload())
		if err != nil {
			s.logger.WithError(err).WithField("id", item.ID).Error("Failed to serialize favorite")
			continue
		}
		payloads = append(payloads, string(data))
	}
	return payloads
}

func (s *Store) handlersLocked() []func(Event) {
	handlers := make([]func(Event), 0, len(s.subs))
	for _, handler := range s.subs {
		handlers = append(handlers, handler)
	}
	return handlers
}
