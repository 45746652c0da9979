package crawler

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies why a page could not be fetched.
type FetchErrorKind string

const (
	FetchNetwork FetchErrorKind = "network"
	FetchStatus  FetchErrorKind = "status"
	FetchDecode  FetchErrorKind = "decode"
)

// FetchError is returned by Fetcher implementations.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int // set for FetchStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError reports a required field missing from a product page.
type ExtractionError struct {
	Field string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("required field %q not found", e.Field)
}

// ErrUnrecognizedColor is wrapped by NormalizationError when the color text
// does not map to a known wine color.
var ErrUnrecognizedColor = errors.New("unrecognized color")

// NormalizationError reports a field whose raw text could not be converted.
type NormalizationError struct {
	Field string
	Value string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }
