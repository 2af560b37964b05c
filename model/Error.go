package model

import (
	"errors"
	"sort"
	"strings"
)

// RequestError represents the structure of the response, in case of error
type RequestError struct {
	Error   bool              `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var (
	// ErrNotFound is returned when a referenced account, profile or post is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by stores when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("already exists")
	// ErrSelfFollow is returned when an account tries to follow itself.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrForbidden is returned when an account mutates something it does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable marks a cache or broker that could not be reached.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrInvalidPayload marks an image message that cannot be decoded.
	ErrInvalidPayload = errors.New("invalid image payload")
)

// ValidationError carries field-level messages for a rejected request
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add records a message for a field, keeping the first one
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// OrNil returns nil when no field was rejected
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
