// Package productstore holds the client-side product list and keeps it in
// step with API calls.
package productstore

import (
	"context"
	"errors"
	"sync"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/productapi"
)

// ErrSuperseded is returned by Fetch when a newer fetch was issued before
// this one completed. Its response is discarded.
var ErrSuperseded = errors.New("productstore: fetch superseded by a newer request")

// Lister loads a page of products.
type Lister interface {
	ListProducts(ctx context.Context, params productapi.ListParams) (*productapi.Page, error)
}

// Store owns a State. All changes go through Dispatch, so concurrent callers
// always see whole transitions.
type Store struct {
	lister Lister

	mu        sync.Mutex
	state     State
	query     productapi.ListParams
	latest    uint64
	listeners map[int]func(State)
	nextID    int

	// Listener calls happen outside mu. dispatched numbers each transition
	// under mu; a transition is delivered only after delivered reaches the
	// one before it.
	dispatched uint64
	notifyMu   sync.Mutex
	notified   *sync.Cond
	delivered  uint64
}

// NewStore creates an empty store. query holds the filters, sort and page
// size used by Fetch; its Page is ignored.
func NewStore(lister Lister, query productapi.ListParams) *Store {
	query.Page = 0
	s := &Store{
		lister:    lister,
		query:     query,
		listeners: make(map[int]func(State)),
	}
	s.notified = sync.NewCond(&s.notifyMu)
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Query returns the list parameters used by Fetch.
func (s *Store) Query() productapi.ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetQuery replaces the filters, sort and page size used by later fetches.
func (s *Store) SetQuery(query productapi.ListParams) {
	query.Page = 0
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
}

// Subscribe registers fn to receive the state after every applied action.
// Snapshots arrive in the order the actions were applied, one at a time.
// fn must not dispatch to the same store synchronously. The returned func
// removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Dispatch applies a and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.dispatchLocked(a)
}

// Fetch loads page with the store's query. A failure is recorded in the state
// and returned; the products already shown are kept.
func (s *Store) Fetch(ctx context.Context, page int) error {
	s.mu.Lock()
	s.latest++
	token := s.latest
	params := s.query
	params.Page = page
	s.dispatchLocked(FetchStarted{})

	result, err := s.lister.ListProducts(ctx, params)

	s.mu.Lock()
	if token != s.latest {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.dispatchLocked(FetchFailed{Err: err})
		return err
	}
	s.dispatchLocked(FetchSucceeded{Page: result})
	return nil
}

// Add appends a product created elsewhere.
func (s *Store) Add(p productapi.Product) {
	s.Dispatch(ProductAdded{Product: p})
}

// Update replaces the stored product with the same id. Unknown ids are ignored.
func (s *Store) Update(p productapi.Product) {
	s.Dispatch(ProductUpdated{Product: p})
}

// Delete removes the product with id. Unknown ids are ignored.
func (s *Store) Delete(id int64) {
	s.Dispatch(ProductDeleted{ID: id})
}

// dispatchLocked must be called with mu held and releases it before the
// listeners run.
func (s *Store) dispatchLocked(a Action) {
	s.state = Reduce(s.state, a)
	snapshot := s.snapshot()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.dispatched++
	seq := s.dispatched
	s.mu.Unlock()

	s.notifyMu.Lock()
	for s.delivered != seq-1 {
		s.notified.Wait()
	}
	for _, fn := range listeners {
		fn(snapshot)
	}
	s.delivered = seq
	s.notified.Broadcast()
	s.notifyMu.Unlock()
}

func (s *Store) snapshot() State {
	out := s.state
	out.Products = append([]productapi.Product(nil), s.state.Products...)
	if s.state.Pagination != nil {
		meta := *s.state.Pagination
		out.Pagination = &meta
	}
	return out
}
