package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"

	"carlist/internal/domain"
)

// ItemRenderer handles rendering of listing items
type ItemRenderer struct {
	styles      *Styles
	extraFields []string
}

// NewItemRenderer creates a new item renderer
func NewItemRenderer(styles *Styles, extraFields []string) *ItemRenderer {
	return &ItemRenderer{
		styles:      styles,
		extraFields: extraFields,
	}
}

// RenderItem renders one listing line
func (r *ItemRenderer) RenderItem(item domain.Item, isSelected bool, query string, width int) string {
	bg := lipgloss.NewStyle()
	if isSelected {
		bg = r.styles.SelectionBg
	}

	cursor := "  "
	if isSelected {
		cursor = "> "
	}

	var parts []string
	parts = append(parts, bg.Render(cursor))
	parts = append(parts, r.styles.ID.Inherit(bg).Render(fmt.Sprintf("#%-4s", item.ID)))
	parts = append(parts, bg.Render(" "))

	model := item.Model
	if model == "" {
		model = "(no model)"
	}
	parts = append(parts, highlightMatch(model, query, r.styles.Highlight.Inherit(bg), bg))

	for _, key := range r.extraFields {
		raw, ok := item.ExtraValue(key)
		if !ok {
			continue
		}
		parts = append(parts, bg.Render("  "))
		parts = append(parts, r.styles.Extra.Inherit(bg).Render(fmt.Sprintf("%s: %s", key, formatValue(raw))))
	}

	line := strings.Join(parts, "")
	if isSelected && width > 0 {
		if lineLen := lipgloss.Width(line); lineLen < width {
			line += bg.Render(strings.Repeat(" ", width-lineLen))
		}
	}
	return line
}

// formatValue renders a raw JSON value without string quotes
func formatValue(raw string) string {
	return gjson.Parse(raw).String()
}

// highlightMatch highlights every case-insensitive occurrence of query
func highlightMatch(text, query string, highlightStyle, normalStyle lipgloss.Style) string {
	if query == "" {
		return normalStyle.Render(text)
	}

	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	// Byte offsets only line up when lowering kept the lengths
	if len(lowerText) != len(text) || len(lowerQuery) != len(query) {
		return normalStyle.Render(text)
	}

	var b strings.Builder
	start := 0
	for {
		index := strings.Index(lowerText[start:], lowerQuery)
		if index == -1 {
			break
		}
		index += start
		if index > start {
			b.WriteString(normalStyle.Render(text[start:index]))
		}
		b.WriteString(highlightStyle.Render(text[index : index+len(query)]))
		start = index + len(query)
	}
	if start < len(text) {
		b.WriteString(normalStyle.Render(text[start:]))
	}

	return b.String()
}
