package views

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carlist/internal/domain"
)

func TestViewportHeight(t *testing.T) {
	assert.Equal(t, 20, ViewportHeight(0))
	assert.Equal(t, 14, ViewportHeight(24))
	assert.Equal(t, 1, ViewportHeight(5))
}

func TestHighlightMatchKeepsText(t *testing.T) {
	style := lipgloss.NewStyle()
	assert.Equal(t, "CIVIC Type R", highlightMatch("CIVIC Type R", "type", style, style))
	assert.Equal(t, "Civic", highlightMatch("Civic", "tesla", style, style))
	assert.Equal(t, "Civic", highlightMatch("Civic", "", style, style))
}

func TestHighlightMatchMarksEveryOccurrence(t *testing.T) {
	upper := lipgloss.NewStyle().Transform(strings.ToUpper)
	plain := lipgloss.NewStyle()

	assert.Equal(t, "CIVic and CIVic", highlightMatch("civic and civic", "Civ", upper, plain))
	assert.Equal(t, "AAAA", highlightMatch("aaaa", "aa", upper, plain))
	assert.Equal(t, "x COROLLA", highlightMatch("x corolla", "corolla", upper, plain))
}

func TestRenderItemExtras(t *testing.T) {
	r := NewItemRenderer(NewStyles(), []string{"year", "color"})
	item := domain.Item{ID: "7", Model: "", Extra: []domain.Field{{Key: "year", Value: "2020"}}}

	line := r.RenderItem(item, true, "", 0)
	assert.True(t, strings.HasPrefix(line, "> "))
	assert.Contains(t, line, "#7")
	assert.Contains(t, line, "(no model)")
	assert.Contains(t, line, "year: 2020")
	assert.NotContains(t, line, "color")
}

func TestRenderStates(t *testing.T) {
	r := NewRenderer(nil)

	loading := r.Render(ViewState{Width: 80, Height: 24, Collection: domain.Unloaded})
	assert.Contains(t, loading, "Loading listings...")

	failed := r.Render(ViewState{Width: 80, Height: 24, Collection: domain.Unloaded, StatusMessage: "boom", StatusIsError: true})
	assert.Contains(t, failed, "No listings loaded.")
	assert.Contains(t, failed, "boom")

	empty := r.Render(ViewState{Width: 80, Height: 24, Collection: domain.NewCollection(nil)})
	assert.Contains(t, empty, "No listings.")
	assert.Contains(t, empty, "0 listings")
}

func TestHeadingIsSeparateFromTitle(t *testing.T) {
	r := NewRenderer(nil)

	view := r.Render(ViewState{Width: 80, Height: 24, Heading: "Recent listings", Collection: domain.NewCollection(nil)})
	lines := strings.Split(view, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[1], "carlist")
	assert.Contains(t, lines[2], "Recent listings")

	bare := r.Render(ViewState{Width: 80, Height: 24, Collection: domain.NewCollection(nil)})
	assert.Contains(t, bare, "carlist")
	assert.NotContains(t, bare, "Recent listings")
}
