package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrStaleResponse marks a response that arrived after a newer request was issued.
// It is only ever logged; stale responses are dropped, not reported.
var ErrStaleResponse = errors.New("stale response discarded")

// ErrorKind classifies failures surfaced in store state.
type ErrorKind string

// Error kinds.
const (
	KindNetwork ErrorKind = "network"
	KindTimeout ErrorKind = "timeout"
	KindSchema  ErrorKind = "schema"
	KindUnknown ErrorKind = "unknown"
)

// NetworkError is a transport or HTTP-level failure.
type NetworkError struct {
	Path       string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("request %s timed out: %v", e.Path, e.Err)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("request %s failed with status %d %s: %v",
			e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("request %s failed with status %d %s",
			e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	default:
		return fmt.Sprintf("request %s failed: %v", e.Path, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SchemaError means the response envelope could not be parsed at all.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// CacheError is a persistent cache failure. It never leaves the cache layer.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// ClassifyError maps err onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	var netErr *NetworkError
	var schemaErr *SchemaError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &netErr):
		if netErr.Timeout {
			return KindTimeout
		}
		return KindNetwork
	case errors.As(err, &schemaErr):
		return KindSchema
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindUnknown
	}
}
