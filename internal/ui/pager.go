package ui

import (
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
	"github.com/tidwall/gjson"

	"carlist/internal/domain"
)

// pagerCommand runs the ov pager on text. It implements tea.ExecCommand so
// Bubble Tea releases and restores the terminal around it.
type pagerCommand struct {
	content string
}

func (p *pagerCommand) Run() error {
	root, err := oviewer.NewRoot(strings.NewReader(p.content))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// ov talks to the terminal directly
func (p *pagerCommand) SetStdin(io.Reader)  {}
func (p *pagerCommand) SetStdout(io.Writer) {}
func (p *pagerCommand) SetStderr(io.Writer) {}

// itemDetails formats an item's original record for the pager
func itemDetails(item domain.Item) string {
	if item.Raw == "" {
		return item.Model + "\n"
	}
	return gjson.Get(item.Raw, "@pretty").String()
}

// showDetails opens the pager for item
func showDetails(item domain.Item) tea.Cmd {
	return tea.Exec(&pagerCommand{content: itemDetails(item)}, func(err error) tea.Msg {
		return pagerDoneMsg{err: err}
	})
}
