package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by errors.Is for every response with status 404.
var ErrNotFound = errors.New("not found")

// ResponseCodeError is returned for every response with a status of 400 or above. Body holds
// the response body as returned by the site API, which is JSON for most errors.
type ResponseCodeError struct {
	Status int
	Body   string
}

// Error ...
func (e *ResponseCodeError) Error() string {
	return fmt.Sprintf("status: %d response: %s", e.Status, e.Body)
}

// Is reports whether target is ErrNotFound and the response was a 404.
func (e *ResponseCodeError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

