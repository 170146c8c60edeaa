package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"carlist/internal/config"
	"carlist/internal/domain"
	"carlist/internal/eventbus"
	"carlist/internal/listing"
	"carlist/internal/query"
	"carlist/internal/source"
	"carlist/internal/ui/views"
)

// Model represents the UI state. It only reads the collection the store
// publishes and sends query changes to the controller.
type Model struct {
	ctx        context.Context
	controller *query.Controller
	config     *config.Config
	logger     *zap.Logger

	width    int
	height   int
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	renderer *views.Renderer

	collection     domain.Collection
	appliedSeq     uint64
	lastQuery      string // last value sent to the controller
	pending        int    // store calls in flight
	selectedIndex  int
	viewportOffset int

	statusMessage string
	statusIsError bool
	statusID      int
}

// NewModel creates a new UI model
func NewModel(ctx context.Context, controller *query.Controller, cfg *config.Config, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Search by car model..."
	ti.Prompt = "" // Prompt is handled in the view
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:        ctx,
		controller: controller,
		config:     cfg,
		logger:     logger.Named("ui"),
		input:      ti,
		spinner:    sp,
		help:       help.New(),
		keys:       defaultKeyMap(),
		renderer:   views.NewRenderer(cfg.UISettings.ExtraFields),
		collection: domain.Unloaded,
	}
}

// Init starts the initial load
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.request("load", m.controller.PrepareRefresh()),
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampSelection()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case requestDoneMsg:
		return m, m.handleRequestDone(msg)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil

	case pagerDoneMsg:
		if msg.err != nil {
			m.logger.Warn("pager failed", zap.Error(msg.err))
			return m, m.setStatus(fmt.Sprintf("Could not open details: %v", msg.err), true)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey follows the text-input mode behaviour: control keys act on
// the list, everything else edits the query
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return nil

	case key.Matches(msg, m.keys.Submit):
		return m.request("submit", m.controller.PrepareSubmit())

	case key.Matches(msg, m.keys.Clear):
		if m.input.Value() == "" {
			return nil
		}
		m.input.SetValue("")
		return m.queryChanged()

	case key.Matches(msg, m.keys.Reload):
		return m.request("reload", m.controller.PrepareRefresh())

	case key.Matches(msg, m.keys.Details):
		if item, ok := m.selectedItem(); ok {
			return showDetails(item)
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return tea.Batch(cmd, m.queryChanged())
}

// queryChanged signals the controller when the input value differs from
// the last value sent. The call is prepared here, on the UI loop, so its
// sequence number follows keystroke order.
func (m *Model) queryChanged() tea.Cmd {
	text := m.input.Value()
	if text == m.lastQuery {
		return nil
	}
	m.lastQuery = text
	return m.request("query", m.controller.PrepareSetQuery(text))
}

// request runs a prepared store call off the UI loop
func (m *Model) request(op string, call query.Call) tea.Cmd {
	m.pending++
	ctx := m.ctx
	return func() tea.Msg {
		result, err := call(ctx)
		return requestDoneMsg{op: op, result: result, err: err}
	}
}

func (m *Model) handleEvent(event eventbus.DomainEvent) tea.Cmd {
	switch e := event.(type) {
	case eventbus.CollectionReplacedEvent:
		m.applyCollection(e.Seq, e.Collection)
	}
	return nil
}

// applyCollection displays c unless a newer collection is already shown
func (m *Model) applyCollection(seq uint64, c domain.Collection) {
	if seq < m.appliedSeq {
		return
	}
	m.appliedSeq = seq
	m.collection = c
	m.clampSelection()
}

func (m *Model) handleRequestDone(msg requestDoneMsg) tea.Cmd {
	if m.pending > 0 {
		m.pending--
	}

	switch {
	case msg.err == nil:
		// Covers a collection event dropped on a full channel
		if msg.result.Query == m.input.Value() {
			m.applyCollection(msg.result.Seq, msg.result.Collection)
		}
		if msg.result.Collection.Loaded && m.statusIsError {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return nil

	case errors.Is(msg.err, listing.ErrSuperseded),
		errors.Is(msg.err, listing.ErrClosed),
		errors.Is(msg.err, context.Canceled):
		return nil

	case errors.Is(msg.err, listing.ErrNotLoaded):
		if msg.result.Query != m.input.Value() {
			return nil
		}
		// Typed before the first load finished: load, then re-apply the query
		m.logger.Debug("query before first load, refreshing", zap.String("query", msg.result.Query))
		return m.request("load", m.controller.PrepareRefresh())
	}

	m.logger.Warn("request failed", zap.String("op", msg.op), zap.Error(msg.err))

	var fetchErr *source.FetchError
	text := fmt.Sprintf("Error: %v", msg.err)
	if errors.As(msg.err, &fetchErr) {
		text = fmt.Sprintf("Could not load listings: %v", fetchErr)
	}
	if m.collection.Loaded {
		text += " (showing last results)"
	}
	return m.setStatus(text, true)
}

// setStatus shows a status message; errors clear after the configured time
func (m *Model) setStatus(text string, isError bool) tea.Cmd {
	m.statusID++
	m.statusMessage = text
	m.statusIsError = isError

	display := m.config.UISettings.ErrorDisplay.Std()
	if !isError || display <= 0 {
		return nil
	}
	id := m.statusID
	return tea.Tick(display, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func (m *Model) moveSelection(delta int) {
	m.selectedIndex += delta
	m.clampSelection()
}

// clampSelection keeps the cursor on an item and inside the viewport
func (m *Model) clampSelection() {
	n := m.collection.Len()
	if m.selectedIndex >= n {
		m.selectedIndex = n - 1
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}

	rows := views.ViewportHeight(m.height)
	if m.selectedIndex < m.viewportOffset {
		m.viewportOffset = m.selectedIndex
	}
	if m.selectedIndex >= m.viewportOffset+rows {
		m.viewportOffset = m.selectedIndex - rows + 1
	}
	if maxOffset := n - rows; m.viewportOffset > maxOffset {
		m.viewportOffset = maxOffset
	}
	if m.viewportOffset < 0 {
		m.viewportOffset = 0
	}
}

func (m *Model) selectedItem() (domain.Item, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= m.collection.Len() {
		return domain.Item{}, false
	}
	return m.collection.Items[m.selectedIndex], true
}

// View renders the UI
func (m *Model) View() string {
	return m.renderer.Render(views.ViewState{
		Width:          m.width,
		Height:         m.height,
		Heading:        m.config.UISettings.Title,
		Input:          m.input.View(),
		Query:          m.input.Value(),
		Collection:     m.collection,
		SelectedIndex:  m.selectedIndex,
		ViewportOffset: m.viewportOffset,
		Pending:        m.pending > 0,
		Spinner:        m.spinner.View(),
		StatusMessage:  m.statusMessage,
		StatusIsError:  m.statusIsError,
		Help:           m.help.View(m.keys),
	})
}
