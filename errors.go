package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUserNotFound is returned by DataManager.GetUser for unknown handles
var ErrUserNotFound = errors.New("user not found")

// NetworkError is a transport failure or a non-success HTTP status.
// It is the only error class the client retries.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means the payload did not decode into the expected shape
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// BatchError collects the per-id failures of a batch fetch.
// The successful slots of the batch are still returned alongside it.
type BatchError struct {
	Failed map[int]error
}

func (e *BatchError) Error() string {
	ids := make([]int, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d: %v", id, e.Failed[id]))
	}
	return fmt.Sprintf("%d item fetches failed (%s)", len(ids), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}

// isRetryable reports whether another attempt could succeed
func isRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
