package query

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"carlist/internal/domain"
	"carlist/internal/eventbus"
)

// Filterer is the part of the Listing Store the controller drives
type Filterer interface {
	Issue() uint64
	LoadAllAt(ctx context.Context, seq uint64) (domain.Collection, error)
	ApplyFilterAt(ctx context.Context, seq uint64, query string) (domain.Collection, error)
}

// Result is a store reply with the sequence number and query it was made for
type Result struct {
	Seq        uint64
	Query      string
	Collection domain.Collection
}

// Call is a store call whose query and sequence number were fixed when it
// was prepared
type Call func(ctx context.Context) (Result, error)

// State holds query state
type State struct {
	Query string
}

// Controller holds the search text and signals the store on every change
type Controller struct {
	mu     sync.RWMutex
	state  State
	store  Filterer
	bus    eventbus.EventBus
	logger *zap.Logger
}

// NewController creates a new query controller. bus may be nil.
func NewController(store Filterer, bus eventbus.EventBus, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:  store,
		bus:    bus,
		logger: logger.Named("query"),
	}
}

// SetQuery stores text verbatim and applies it to the store
func (c *Controller) SetQuery(ctx context.Context, text string) (domain.Collection, error) {
	r, err := c.PrepareSetQuery(text)(ctx)
	return r.Collection, err
}

// Submit re-applies the held query
func (c *Controller) Submit(ctx context.Context) (domain.Collection, error) {
	r, err := c.PrepareSubmit()(ctx)
	return r.Collection, err
}

// Refresh fetches the full collection and re-applies the held query to it
func (c *Controller) Refresh(ctx context.Context) (domain.Collection, error) {
	r, err := c.PrepareRefresh()(ctx)
	return r.Collection, err
}

// PrepareSetQuery stores text and reserves its sequence number now. The
// returned call applies it, so calls prepared in order are applied in order
// however they are scheduled.
func (c *Controller) PrepareSetQuery(text string) Call {
	c.mu.Lock()
	changed := c.state.Query != text
	c.state.Query = text
	c.mu.Unlock()

	if changed && c.bus != nil {
		c.bus.Publish(domain.QueryChangedEvent{Query: text, State: domain.StateOf(text)})
	}
	c.logger.Debug("query set", zap.String("query", text), zap.Stringer("state", domain.StateOf(text)))

	return c.apply(c.store.Issue(), text)
}

// PrepareSubmit reserves a call re-applying the held query
func (c *Controller) PrepareSubmit() Call {
	query := c.Query()
	c.logger.Debug("query submitted", zap.String("query", query))
	return c.apply(c.store.Issue(), query)
}

// PrepareRefresh reserves a full load. After it lands the query held at
// that time is re-applied.
func (c *Controller) PrepareRefresh() Call {
	seq := c.store.Issue()
	return func(ctx context.Context) (Result, error) {
		collection, err := c.store.LoadAllAt(ctx, seq)
		if err != nil {
			return Result{Seq: seq, Collection: collection}, err
		}
		if c.Query() == "" {
			return Result{Seq: seq, Collection: collection}, nil
		}
		return c.PrepareSubmit()(ctx)
	}
}

func (c *Controller) apply(seq uint64, query string) Call {
	return func(ctx context.Context) (Result, error) {
		collection, err := c.store.ApplyFilterAt(ctx, seq, query)
		return Result{Seq: seq, Query: query, Collection: collection}, err
	}
}

// Query returns the current query text
func (c *Controller) Query() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Query
}

// State returns whether the current query is empty
func (c *Controller) State() domain.QueryState {
	return domain.StateOf(c.Query())
}
