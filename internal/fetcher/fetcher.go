package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/capmon/capmon/pkg/models"
)

// Fetcher acquires one current usage snapshot from the provider. Both
// strategies produce the same normalized observation or fail; the caller
// does not care which one is behind the interface.
type Fetcher interface {
	Fetch(ctx context.Context) (models.Observation, error)
}

// ErrUsageTimeout is returned when the session strategy never sees the
// background usage API response within the bounded wait.
var ErrUsageTimeout = errors.New("timed out waiting for usage API response")

// ExtractionError means the response no longer matches the expected
// format (the provider changed its page, or an error page came back).
// It is deliberately distinct from network failures so format drift is
// surfaced loudly instead of being retried as transient.
type ExtractionError struct {
	Marker string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("expected marker %q not found in response", e.Marker)
}

// StatusError represents a non-2xx response from the usage endpoint
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("usage endpoint returned status %d", e.StatusCode)
}

// RedirectError means the login flow did not land on the expected
// identity-provider host, guarding against silent provider-side changes.
type RedirectError struct {
	URL string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("unexpected website: %s", e.URL)
}
