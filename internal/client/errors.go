package client

import (
	"fmt"
	"net/http"

	"github.com/vyrodovalexey/avarest/internal/conversion"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// StatusError is returned for responses with a status of 400 or above.
type StatusError struct {
	Method string
	URI    string
	Body   conversion.ErrorBody
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URI, e.Body.Error())
}

// StatusCode returns the HTTP status of the response.
func (e *StatusError) StatusCode() int {
	return e.Body.Status
}

// Is matches the util sentinel corresponding to the status.
func (e *StatusError) Is(target error) bool {
	switch e.Body.Status {
	case http.StatusBadRequest:
		return target == util.ErrBadRequest
	case http.StatusNotFound:
		return target == util.ErrNotFound
	case http.StatusMethodNotAllowed:
		return target == util.ErrMethodNotAllowed
	case http.StatusNotAcceptable:
		return target == util.ErrNotAcceptable
	case http.StatusUnsupportedMediaType:
		return target == util.ErrUnsupportedMediaType
	case http.StatusTooManyRequests:
		return target == util.ErrRateLimited
	}
	return false
}
