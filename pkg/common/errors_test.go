package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"validation", Validationf("top_k", "must be positive, got %d", -1), "validation"},
		{"wrapped validation", fmt.Errorf("add document: %w", Validationf("url", "empty")), "validation"},
		{"provider", fmt.Errorf("embed query: %w", ErrProviderUnavailable), "provider_unavailable"},
		{"storage", fmt.Errorf("save: %w", ErrStorageUnavailable), "storage_unavailable"},
		{"fetch", &FetchError{URL: "https://example.com", Status: 503}, "fetch_error"},
		{"extraction", &ExtractionError{URL: "https://example.com", Reason: "content too short"}, "extraction_error"},
		{"unknown", errors.New("boom"), "internal"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ErrorKind(c.err); got != c.want {
				t.Fatalf("expected kind %q, got %q", c.want, got)
			}
		})
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &FetchError{URL: "https://example.com", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected FetchError to unwrap to its cause")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := Validationf("max_depth", "must be between 1 and 3, got %d", 7)
	want := "validation: max_depth: must be between 1 and 3, got 7"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
