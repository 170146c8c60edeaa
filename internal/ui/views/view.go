package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"carlist/internal/domain"
)

// chromeLines is the number of lines around the item list (title, heading,
// input, status, help and container padding)
const chromeLines = 10

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width          int
	Height         int
	Heading        string
	Input          string // rendered query input
	Query          string
	Collection     domain.Collection
	SelectedIndex  int
	ViewportOffset int
	Pending        bool
	Spinner        string
	StatusMessage  string
	StatusIsError  bool
	Help           string
}

// Renderer handles all view rendering
type Renderer struct {
	styles     *Styles
	itemRender *ItemRenderer
}

// NewRenderer creates a new renderer
func NewRenderer(extraFields []string) *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:     styles,
		itemRender: NewItemRenderer(styles, extraFields),
	}
}

// ViewportHeight returns how many items fit for a terminal height
func ViewportHeight(height int) int {
	if height <= 0 {
		return 20
	}
	if rows := height - chromeLines; rows > 1 {
		return rows
	}
	return 1
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.renderTitleLine(state))
	content.WriteString("\n")
	if state.Heading != "" {
		content.WriteString(r.styles.Heading.Render(state.Heading))
		content.WriteString("\n")
	}

	content.WriteString(r.styles.Prompt.Render("Search: "))
	content.WriteString(state.Input)
	content.WriteString("\n\n")

	switch {
	case !state.Collection.Loaded && state.StatusIsError:
		content.WriteString(r.styles.Dim.Render("No listings loaded."))
	case !state.Collection.Loaded:
		content.WriteString(r.styles.Dim.Render("Loading listings..."))
	case state.Collection.Len() == 0 && state.Query != "":
		content.WriteString(r.styles.Dim.Render(fmt.Sprintf("No listings match %q.", state.Query)))
	case state.Collection.Len() == 0:
		content.WriteString(r.styles.Dim.Render("No listings."))
	default:
		content.WriteString(r.renderItemList(state))
	}

	if state.StatusMessage != "" {
		style := r.styles.Status
		if state.StatusIsError {
			style = style.Foreground(r.styles.StatusError.GetForeground())
		}
		content.WriteString("\n")
		content.WriteString(style.Render(state.StatusMessage))
	}

	if state.Help != "" {
		content.WriteString("\n\n")
		content.WriteString(r.styles.Help.Render(state.Help))
	}

	mainStyle := r.styles.Main
	if state.Height > 0 {
		mainStyle = mainStyle.MaxHeight(state.Height)
	}
	return mainStyle.Render(content.String())
}

func (r *Renderer) renderTitleLine(state ViewState) string {
	logo := r.styles.Title.Render("carlist")

	var indicators []string
	if state.Pending {
		indicators = append(indicators, r.styles.Dim.Render(state.Spinner+" Loading"))
	}
	if state.Collection.Loaded {
		indicators = append(indicators, r.styles.Dim.Render(fmt.Sprintf("%d listings", state.Collection.Len())))
	}
	if state.Query != "" {
		indicators = append(indicators, r.styles.Query.Render(fmt.Sprintf("[Query: %s]", state.Query)))
	}
	if len(indicators) == 0 {
		return logo
	}

	rightContent := strings.Join(indicators, "  ")

	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	availableWidth := termWidth - 4 // main container padding
	paddingWidth := availableWidth - lipgloss.Width(logo) - lipgloss.Width(rightContent)
	if paddingWidth < 2 {
		paddingWidth = 2
	}
	return logo + strings.Repeat(" ", paddingWidth) + rightContent
}

// renderItemList renders the visible window of items
func (r *Renderer) renderItemList(state ViewState) string {
	items := state.Collection.Items
	rows := ViewportHeight(state.Height)

	start := state.ViewportOffset
	if start < 0 || start >= len(items) {
		start = 0
	}
	end := start + rows
	if end > len(items) {
		end = len(items)
	}

	lineWidth := state.Width - 4
	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		lines = append(lines, r.itemRender.RenderItem(items[i], i == state.SelectedIndex, state.Query, lineWidth))
	}

	if start > 0 || end < len(items) {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(items))))
	}

	return strings.Join(lines, "\n")
}
