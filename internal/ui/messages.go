package ui

import (
	"carlist/internal/eventbus"
	"carlist/internal/query"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// requestDoneMsg is returned when a store call made for the UI completes
type requestDoneMsg struct {
	op     string
	result query.Result
	err    error
}

// clearStatusMsg clears the status line if it still shows message id
type clearStatusMsg struct {
	id int
}

// pagerDoneMsg is sent after the details pager exits
type pagerDoneMsg struct {
	err error
}
