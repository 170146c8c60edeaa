package domain

// Item represents a single listing record from the collection endpoint
type Item struct {
	ID    string  // JSON text of the id (numbers and strings are both valid)
	Model string  // label used for matching
	Extra []Field // remaining attributes in source order
	Raw   string  // original JSON object
}

// Field is a passthrough attribute of an Item
type Field struct {
	Key   string
	Value string // raw JSON value
}

// ExtraValue returns the passthrough value stored under key
func (i Item) ExtraValue(key string) (string, bool) {
	for _, f := range i.Extra {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Collection is an ordered set of items, or unloaded before the first fetch
type Collection struct {
	Items  []Item
	Loaded bool
}

// Unloaded is the sentinel collection held before the first fetch completes
var Unloaded = Collection{}

// NewCollection wraps fetched items into a loaded collection
func NewCollection(items []Item) Collection {
	if items == nil {
		items = []Item{}
	}
	return Collection{Items: items, Loaded: true}
}

// Len returns the number of items (zero when unloaded)
func (c Collection) Len() int {
	return len(c.Items)
}

// IDs returns the item ids in order
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// QueryState represents whether the current query is empty
type QueryState int

const (
	QueryEmpty QueryState = iota
	QueryNonEmpty
)

// StateOf returns the state for a query text
func StateOf(query string) QueryState {
	if query == "" {
		return QueryEmpty
	}
	return QueryNonEmpty
}

func (s QueryState) String() string {
	switch s {
	case QueryEmpty:
		return "Empty"
	case QueryNonEmpty:
		return "NonEmpty"
	default:
		return "Unknown"
	}
}

