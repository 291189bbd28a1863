package tmdb

import "fmt"

// ConfigError means the API key is missing or still the sample placeholder.
// It is raised before any network I/O.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tmdb configuration error: %s", e.Reason)
}

// NetworkError wraps a transport-level failure (DNS, timeout, reset).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("tmdb request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is a completed HTTP exchange with a non-success status.
type StatusError struct {
	Status int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb returned status %d: %s", e.Status, e.Reason)
}
