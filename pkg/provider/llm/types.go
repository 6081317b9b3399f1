package llm

import "fmt"

// BackendError describes an HTTP-level failure reported by an LLM backend.
// Retry policies use it to distinguish server-side faults from client errors.
type BackendError struct {
	// Status is the HTTP status code returned by the backend.
	Status int

	// Body is a truncated copy of the response body, for logs.
	Body string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("llm backend returned status %d: %s", e.Status, e.Body)
}

// Retryable reports whether the failure is server-side and worth retrying.
// Client errors (4xx) indicate a malformed request and are never retried.
func (e *BackendError) Retryable() bool {
	return e.Status >= 500
}
