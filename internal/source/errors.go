package source

import (
	"fmt"
	"net/http"
)

// FetchError is returned when the collection endpoint is unreachable,
// answers with a non-success status or sends a body that is not a collection
type FetchError struct {
	Endpoint   string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %d %s: %v", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
