package flights

import "fmt"

// APIError is returned for Travelport failures that are not rate limits.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("travelport error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("travelport error: %s", e.Message)
}

// RateLimitError marks a 429 from the supplier so callers can back off
// instead of hammering the API.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("travelport rate limited: %s", e.Message)
}
