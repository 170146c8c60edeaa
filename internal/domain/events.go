package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventFetchStarted       EventType = "FetchStarted"
	EventCollectionReplaced EventType = "CollectionReplaced"
	EventFetchFailed        EventType = "FetchFailed"
	EventRequestSuperseded  EventType = "RequestSuperseded"
	EventQueryChanged       EventType = "QueryChanged"
	EventError              EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// FetchStartedEvent is emitted when the store begins a remote fetch
type FetchStartedEvent struct {
	Seq uint64
}

func (e FetchStartedEvent) Type() EventType { return EventFetchStarted }

// CollectionReplacedEvent is emitted after the held collection is superseded
type CollectionReplacedEvent struct {
	Seq        uint64
	Query      string // query that produced the collection ("" for a fetch)
	Collection Collection
}

func (e CollectionReplacedEvent) Type() EventType { return EventCollectionReplaced }

// FetchFailedEvent is emitted when a fetch fails; the held collection is kept
type FetchFailedEvent struct {
	Seq uint64
	Err error
}

func (e FetchFailedEvent) Type() EventType { return EventFetchFailed }

// RequestSupersededEvent is emitted when a result is discarded as stale
type RequestSupersededEvent struct {
	Seq    uint64
	Latest uint64
}

func (e RequestSupersededEvent) Type() EventType { return EventRequestSuperseded }

// QueryChangedEvent is emitted whenever the query text changes
type QueryChangedEvent struct {
	Query string
	State QueryState
}

func (e QueryChangedEvent) Type() EventType { return EventQueryChanged }

// ErrorEvent is emitted when an error occurs outside a fetch
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
