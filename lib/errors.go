package lib

import (
	"fmt"
	"strings"
)

var (
	// ErrMissingServerURL is returned when no chef server url is configured
	ErrMissingServerURL = fmt.Errorf("missing \"chef_server_url\" config")
	// ErrMissingClientName is returned when no chef client name is configured
	ErrMissingClientName = fmt.Errorf("missing \"client_name\" config")
	// ErrMissingClientKey is returned when no chef client key could be found
	ErrMissingClientKey = fmt.Errorf("missing chef client key")

	errNilInventory  = fmt.Errorf("nil instance inventory")
	errNilNodeSource = fmt.Errorf("nil node source")
)

// MultiError contains a slice of errors and implements the error
// interface
type MultiError struct {
	Errors []error
}

// Error provides a string that is the combination of all errors in
// the internal error slice
func (m *MultiError) Error() string {
	s := []string{}
	for _, err := range m.Errors {
		s = append(s, err.Error())
	}

	return strings.Join(s, ", ")
}

// Unwrap exposes the inner errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// FetchError wraps a failure of one of the upstream collaborators
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
