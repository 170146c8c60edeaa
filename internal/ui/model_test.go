package ui

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"carlist/internal/config"
	"carlist/internal/domain"
	"carlist/internal/eventbus"
	"carlist/internal/listing"
	"carlist/internal/query"
	"carlist/internal/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	mu    sync.Mutex
	items []domain.Item
	err   error
}

func (f *fakeFetcher) FetchAll(ctx context.Context) ([]domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Item(nil), f.items...), nil
}

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type harness struct {
	model   *Model
	fetcher *fakeFetcher
	events  chan eventbus.DomainEvent
}

func newHarness(t *testing.T, items ...domain.Item) *harness {
	t.Helper()

	bus := eventbus.New(nil)
	events := make(chan eventbus.DomainEvent, 64)
	unsubscribe := bus.Subscribe(eventbus.EventCollectionReplaced, func(e eventbus.DomainEvent) {
		events <- e
	})

	fetcher := &fakeFetcher{items: items}
	store := listing.NewStore(fetcher, listing.WithBus(bus))
	controller := query.NewController(store, bus, nil)

	t.Cleanup(func() {
		store.Close()
		unsubscribe()
		bus.Close()
	})

	cfg := config.DefaultConfig()
	cfg.UISettings.ErrorDisplay = config.Duration(time.Second)

	m := NewModel(context.Background(), controller, cfg, nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return &harness{model: m, fetcher: fetcher, events: events}
}

// run executes a store request command, feeds its result back to the
// model and delivers the collection event it produced
func (h *harness) run(t *testing.T, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)

	msg := cmd()
	done, ok := msg.(requestDoneMsg)
	require.True(t, ok, "expected requestDoneMsg, got %T", msg)

	if done.err == nil {
		select {
		case e := <-h.events:
			h.model.Update(EventMsg{Event: e})
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for collection event")
		}
		// A refresh with a query publishes a second collection
		for drained := false; !drained; {
			select {
			case e := <-h.events:
				h.model.Update(EventMsg{Event: e})
			case <-time.After(50 * time.Millisecond):
				drained = true
			}
		}
	}
	_, next := h.model.Update(done)
	return next
}

func (h *harness) load(t *testing.T) {
	t.Helper()
	h.run(t, h.model.request("load", h.model.controller.PrepareRefresh()))
}

func (h *harness) typeQuery(t *testing.T, text string) {
	t.Helper()
	h.model.input.SetValue(text)
	h.run(t, h.model.queryChanged())
}

func cars() []domain.Item {
	return []domain.Item{
		{ID: "1", Model: "Civic"},
		{ID: "2", Model: "Corolla"},
		{ID: "3", Model: "Model 3"},
	}
}

func TestModel_ShowsLoadingBeforeFirstLoad(t *testing.T) {
	h := newHarness(t, cars()...)

	view := h.model.View()
	assert.Contains(t, view, "Loading listings...")
	assert.Contains(t, view, "carlist")
}

func TestModel_LoadDisplaysCollection(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)

	view := h.model.View()
	assert.Contains(t, view, "Civic")
	assert.Contains(t, view, "Corolla")
	assert.Contains(t, view, "3 listings")
	assert.Equal(t, 0, h.model.pending)
}

func TestModel_QueryFiltersCollection(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)

	h.typeQuery(t, "civic")

	assert.Equal(t, []string{"1"}, h.model.collection.IDs())
	view := h.model.View()
	assert.Contains(t, view, "[Query: civic]")
	assert.NotContains(t, view, "Corolla")
}

func TestModel_NoMatchesMessage(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)

	h.typeQuery(t, "tesla")

	assert.Equal(t, 0, h.model.collection.Len())
	assert.Contains(t, h.model.View(), `No listings match "tesla".`)
}

func TestModel_ClearRestoresFullCollection(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)
	h.typeQuery(t, "civic")

	cmd := h.model.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	h.run(t, cmd)

	assert.Equal(t, "", h.model.input.Value())
	assert.Equal(t, []string{"1", "2", "3"}, h.model.collection.IDs())
}

func TestModel_ClearOnEmptyInputDoesNothing(t *testing.T) {
	h := newHarness(t, cars()...)

	assert.Nil(t, h.model.handleKey(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Equal(t, 0, h.model.pending)
}

func TestModel_SubmitReappliesQuery(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)
	h.typeQuery(t, "co")

	h.run(t, h.model.handleKey(tea.KeyMsg{Type: tea.KeyEnter}))

	assert.Equal(t, []string{"2"}, h.model.collection.IDs())
}

func TestModel_QueryBeforeLoadRefreshes(t *testing.T) {
	h := newHarness(t, cars()...)

	h.model.input.SetValue("civic")
	cmd := h.model.queryChanged()
	msg := cmd()
	done := msg.(requestDoneMsg)
	require.ErrorIs(t, done.err, listing.ErrNotLoaded)

	_, next := h.model.Update(done)
	h.run(t, next)

	assert.True(t, h.model.collection.Loaded)
	assert.Equal(t, []string{"1"}, h.model.collection.IDs())
}

func TestModel_FetchErrorKeepsLastGood(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)

	h.fetcher.fail(errors.New("connection refused"))
	next := h.run(t, h.model.handleKey(tea.KeyMsg{Type: tea.KeyCtrlR}))

	assert.NotNil(t, next, "error status should schedule a clear")
	assert.True(t, h.model.statusIsError)
	assert.Equal(t, 3, h.model.collection.Len())

	view := h.model.View()
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "showing last results")
	assert.Contains(t, view, "Civic")
}

func TestModel_FetchErrorBeforeLoad(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fail(&source.FetchError{Endpoint: "http://localhost:3000/cars", StatusCode: 503, Err: errors.New("unexpected status")})

	h.load(t)

	assert.False(t, h.model.collection.Loaded)
	view := h.model.View()
	assert.Contains(t, view, "No listings loaded.")
	assert.Contains(t, view, "Could not load listings")
}

func TestModel_StatusClearsOnlyForLatestMessage(t *testing.T) {
	h := newHarness(t)

	h.model.setStatus("first", true)
	h.model.setStatus("second", true)

	h.model.Update(clearStatusMsg{id: 1})
	assert.Equal(t, "second", h.model.statusMessage)

	h.model.Update(clearStatusMsg{id: 2})
	assert.Empty(t, h.model.statusMessage)
	assert.False(t, h.model.statusIsError)
}

func TestModel_IgnoresStaleCollections(t *testing.T) {
	h := newHarness(t)

	newer := domain.NewCollection([]domain.Item{{ID: "2", Model: "Corolla"}})
	older := domain.NewCollection([]domain.Item{{ID: "1", Model: "Civic"}})

	h.model.Update(EventMsg{Event: eventbus.CollectionReplacedEvent{Seq: 5, Collection: newer}})
	h.model.Update(EventMsg{Event: eventbus.CollectionReplacedEvent{Seq: 4, Collection: older}})

	assert.Equal(t, []string{"2"}, h.model.collection.IDs())
}

func TestModel_SupersededRequestIsSilent(t *testing.T) {
	h := newHarness(t)
	h.model.pending = 1

	_, cmd := h.model.Update(requestDoneMsg{op: "query", err: listing.ErrSuperseded})

	assert.Nil(t, cmd)
	assert.Empty(t, h.model.statusMessage)
	assert.Equal(t, 0, h.model.pending)
}

func TestModel_SelectionStaysInBounds(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)

	h.model.handleKey(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, h.model.selectedIndex)

	for i := 0; i < 5; i++ {
		h.model.handleKey(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 2, h.model.selectedIndex)

	h.typeQuery(t, "civic")
	assert.Equal(t, 0, h.model.selectedIndex)
}

func TestModel_ViewportFollowsSelection(t *testing.T) {
	items := make([]domain.Item, 30)
	for i := range items {
		items[i] = domain.Item{ID: strconv.Itoa(i + 1), Model: "Car"}
	}
	h := newHarness(t, items...)
	h.model.Update(tea.WindowSizeMsg{Width: 80, Height: 15})
	h.load(t)

	rows := 5 // 15 lines minus chrome
	for i := 0; i < 10; i++ {
		h.model.handleKey(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 10, h.model.selectedIndex)
	assert.Equal(t, 10-rows+1, h.model.viewportOffset)
	assert.Contains(t, h.model.View(), "(7-11 of 30)")
}

func TestModel_DetailsNeedsSelection(t *testing.T) {
	h := newHarness(t)
	assert.Nil(t, h.model.handleKey(tea.KeyMsg{Type: tea.KeyCtrlO}))
}

func TestModel_QuitKey(t *testing.T) {
	h := newHarness(t)
	cmd := h.model.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestItemDetails(t *testing.T) {
	item := domain.Item{ID: "1", Model: "Civic", Raw: `{"id":1,"model":"Civic"}`}
	details := itemDetails(item)
	assert.Contains(t, details, "\n")
	assert.Contains(t, details, `"model": "Civic"`)

	assert.Equal(t, "Civic\n", itemDetails(domain.Item{Model: "Civic"}))
}

func TestModel_KeystrokesApplyInTypingOrder(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)

	h.model.input.SetValue("C")
	first := h.model.queryChanged()
	h.model.input.SetValue("Co")
	second := h.model.queryChanged()

	// Bubble Tea may run the commands in either order
	h.run(t, second)
	h.run(t, first)

	assert.Equal(t, "Co", h.model.controller.Query())
	assert.Equal(t, []string{"2"}, h.model.collection.IDs())

	h.run(t, h.model.handleKey(tea.KeyMsg{Type: tea.KeyCtrlR}))
	assert.Equal(t, []string{"2"}, h.model.collection.IDs())
	assert.NotContains(t, h.model.View(), "Civic")
}

func TestModel_ReplyUpdatesWithoutEvents(t *testing.T) {
	fetcher := &fakeFetcher{items: cars()}
	store := listing.NewStore(fetcher)
	defer store.Close()

	cfg := config.DefaultConfig()
	m := NewModel(context.Background(), query.NewController(store, nil, nil), cfg, nil)

	done := m.request("load", m.controller.PrepareRefresh())()
	m.Update(done)
	assert.Equal(t, []string{"1", "2", "3"}, m.collection.IDs())

	m.input.SetValue("civic")
	m.Update(m.queryChanged()())
	assert.Equal(t, []string{"1"}, m.collection.IDs())
}

func TestModel_ReplyForOldQueryIsNotShown(t *testing.T) {
	h := newHarness(t, cars()...)
	h.load(t)

	h.model.input.SetValue("co")
	h.model.Update(requestDoneMsg{
		op:     "query",
		result: query.Result{Seq: 99, Query: "c", Collection: domain.NewCollection([]domain.Item{{ID: "1", Model: "Civic"}})},
	})

	assert.Equal(t, []string{"1", "2", "3"}, h.model.collection.IDs())
}
