package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two failure classes that abort an operation
// outright. Wrap them with context at the failure site and test with
// errors.Is at the boundary.
var (
	// ErrProviderUnavailable means every configured embedding strategy
	// has been exhausted, including retries.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrStorageUnavailable means the persistence layer is unreachable
	// or failed mid-operation. It is distinct from an empty result set,
	// which is a valid success.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports malformed caller input: an empty URL, a
// non-positive topK, a crawl depth outside its bounds, content that
// fails the quality gate. The operation is aborted before any side
// effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Wrapf prefixes sentinel with formatted context, keeping errors.Is
// matching against the sentinel intact.
func Wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", sentinel)
}

// FetchError is a network-level failure for a single URL: timeout, DNS
// failure, or a non-success HTTP status. During a crawl run it is always
// scoped to one node and never aborts the run.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError means a fetched page could not be turned into
// readable content: unparseable markup or a readable body below the
// minimum useful length.
type ExtractionError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrorKind maps an error to its taxonomy label for structured
// surfaces (tool results, HTTP payloads). Unknown errors report as
// "internal".
func ErrorKind(err error) string {
	var (
		ve *ValidationError
		fe *FetchError
		xe *ExtractionError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.As(err, &fe):
		return "fetch_error"
	case errors.As(err, &xe):
		return "extraction_error"
	default:
		return "internal"
	}
}
