// Package listing holds the displayed collection of listing items.
//
// A single goroutine owns the collection. LoadAll and ApplyFilter send
// requests to it and wait for the reply, so every replacement of the
// collection happens in one place. Each call takes a sequence number; with
// the sequence guard enabled only the latest issued call may replace the
// collection, and older in-flight fetches are cancelled.
package listing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"carlist/internal/domain"
	"carlist/internal/eventbus"
)

var (
	// ErrNotLoaded is returned when a non-empty query is applied before any
	// collection has been fetched
	ErrNotLoaded = errors.New("listing: collection not loaded")
	// ErrSuperseded is returned when a newer call was issued before this
	// call's result could be applied
	ErrSuperseded = errors.New("listing: request superseded")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("listing: store closed")
)

// Fetcher retrieves the full collection from the data source
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.Item, error)
}

// FilterBase selects which collection a non-empty query narrows
type FilterBase int

const (
	FilterHeld    FilterBase = iota // the currently held collection
	FilterFetched                   // the last fetched collection
)

// Option configures a Store
type Option func(*Store)

// WithSequenceGuard enables or disables discarding of stale results.
// With the guard off the last response to resolve wins.
func WithSequenceGuard(enabled bool) Option {
	return func(s *Store) { s.guard = enabled }
}

// WithFilterBase selects the collection filtered by non-empty queries
func WithFilterBase(base FilterBase) Option {
	return func(s *Store) { s.base = base }
}

// WithBus publishes collection events on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

type requestKind int

const (
	reqReplace requestKind = iota
	reqFilter
	reqSnapshot
)

type request struct {
	kind  requestKind
	seq   uint64
	query string
	items []domain.Item
	err   error
	reply chan reply
}

type reply struct {
	collection domain.Collection
	err        error
}

// Store is the Listing Store
type Store struct {
	fetcher Fetcher
	bus     eventbus.EventBus
	logger  *zap.Logger
	guard   bool
	base    FilterBase

	seq      atomic.Uint64
	requests chan request
	quit     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once

	mu       sync.Mutex
	inflight map[uint64]context.CancelFunc
}

// NewStore creates a store backed by fetcher and starts its owner goroutine.
// Call Close to stop it.
func NewStore(fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher:  fetcher,
		logger:   zap.NewNop(),
		guard:    true,
		base:     FilterHeld,
		requests: make(chan request),
		quit:     make(chan struct{}),
		inflight: make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("listing")

	s.wg.Add(1)
	go s.run()

	return s
}

// LoadAll fetches the full collection and replaces the held one with it
func (s *Store) LoadAll(ctx context.Context) (domain.Collection, error) {
	return s.LoadAllAt(ctx, s.issue())
}

// ApplyFilter re-fetches for an empty query. Otherwise it narrows the
// collection to items whose model contains query, ignoring case, and
// replaces the held collection with the result.
func (s *Store) ApplyFilter(ctx context.Context, query string) (domain.Collection, error) {
	return s.ApplyFilterAt(ctx, s.issue(), query)
}

// Issue reserves the next sequence number for a later LoadAllAt or
// ApplyFilterAt. Calls are ordered by when Issue ran, not by when they run.
func (s *Store) Issue() uint64 {
	return s.issue()
}

// LoadAllAt is LoadAll with a sequence number taken from Issue
func (s *Store) LoadAllAt(ctx context.Context, seq uint64) (domain.Collection, error) {
	return s.load(ctx, seq)
}

// ApplyFilterAt is ApplyFilter with a sequence number taken from Issue
func (s *Store) ApplyFilterAt(ctx context.Context, seq uint64, query string) (domain.Collection, error) {
	if query == "" {
		return s.load(ctx, seq)
	}
	return s.send(ctx, request{kind: reqFilter, seq: seq, query: query})
}

// Snapshot returns the held collection
func (s *Store) Snapshot() domain.Collection {
	c, _ := s.send(context.Background(), request{kind: reqSnapshot})
	return c
}

// LatestSeq returns the most recently issued sequence number
func (s *Store) LatestSeq() uint64 {
	return s.seq.Load()
}

// Close stops the owner goroutine and cancels in-flight fetches
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.quit)
		s.mu.Lock()
		for seq, cancel := range s.inflight {
			cancel()
			delete(s.inflight, seq)
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
}

// issue hands out the next sequence number. With the guard on, fetches
// started for older numbers can no longer be applied, so they are cancelled.
func (s *Store) issue() uint64 {
	seq := s.seq.Add(1)
	if s.guard {
		s.mu.Lock()
		for old, cancel := range s.inflight {
			if old < seq {
				cancel()
				delete(s.inflight, old)
			}
		}
		s.mu.Unlock()
	}
	return seq
}

func (s *Store) load(ctx context.Context, seq uint64) (domain.Collection, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.inflight[seq] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, seq)
		s.mu.Unlock()
	}()

	s.publish(domain.FetchStartedEvent{Seq: seq})
	s.logger.Debug("fetch started", zap.Uint64("seq", seq))

	items, err := s.fetcher.FetchAll(fetchCtx)
	return s.send(ctx, request{kind: reqReplace, seq: seq, items: items, err: err})
}

func (s *Store) send(ctx context.Context, req request) (domain.Collection, error) {
	req.reply = make(chan reply, 1)

	select {
	case s.requests <- req:
	case <-s.quit:
		return domain.Unloaded, ErrClosed
	case <-ctx.Done():
		return domain.Unloaded, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.collection, r.err
	case <-s.quit:
		return domain.Unloaded, ErrClosed
	}
}

// run owns the held collection; it is the only code that replaces it
func (s *Store) run() {
	defer s.wg.Done()

	held := domain.Unloaded
	fetched := domain.Unloaded

	for {
		select {
		case req := <-s.requests:
			switch req.kind {
			case reqSnapshot:
				req.reply <- reply{collection: held}

			case reqReplace:
				if s.stale(req.seq) {
					req.reply <- reply{collection: held, err: ErrSuperseded}
					continue
				}
				if req.err != nil {
					s.logger.Warn("fetch failed, keeping last collection",
						zap.Uint64("seq", req.seq), zap.Error(req.err))
					s.publish(domain.FetchFailedEvent{Seq: req.seq, Err: req.err})
					req.reply <- reply{collection: held, err: req.err}
					continue
				}
				held = domain.NewCollection(req.items)
				fetched = held
				s.logger.Debug("collection replaced by fetch",
					zap.Uint64("seq", req.seq), zap.Int("items", held.Len()))
				s.publish(domain.CollectionReplacedEvent{Seq: req.seq, Collection: held})
				req.reply <- reply{collection: held}

			case reqFilter:
				if s.stale(req.seq) {
					req.reply <- reply{collection: held, err: ErrSuperseded}
					continue
				}
				base := held
				if s.base == FilterFetched {
					base = fetched
				}
				if !base.Loaded {
					s.logger.Warn("filter applied before first load", zap.String("query", req.query))
					req.reply <- reply{collection: held, err: ErrNotLoaded}
					continue
				}
				held = Filter(base.Items, req.query)
				s.logger.Debug("collection replaced by filter",
					zap.Uint64("seq", req.seq),
					zap.String("query", req.query),
					zap.Int("items", held.Len()))
				s.publish(domain.CollectionReplacedEvent{Seq: req.seq, Query: req.query, Collection: held})
				req.reply <- reply{collection: held}
			}

		case <-s.quit:
			return
		}
	}
}

func (s *Store) stale(seq uint64) bool {
	if !s.guard {
		return false
	}
	latest := s.seq.Load()
	if seq == latest {
		return false
	}
	s.logger.Debug("discarding stale result", zap.Uint64("seq", seq), zap.Uint64("latest", latest))
	s.publish(domain.RequestSupersededEvent{Seq: seq, Latest: latest})
	return true
}

func (s *Store) publish(event domain.DomainEvent) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
