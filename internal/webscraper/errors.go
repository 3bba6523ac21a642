package webscraper

import (
	"errors"
	"fmt"
	"strings"
)

// UnreachableSeedError is returned when neither the http nor the https form
// of the seed URL answers with 200.
type UnreachableSeedError struct {
	URL      string
	Attempts []error
}

func (e *UnreachableSeedError) Error() string {
	causes := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		causes = append(causes, err.Error())
	}
	return fmt.Sprintf("failed to connect to %s: %s", e.URL, strings.Join(causes, "; "))
}

func (e *UnreachableSeedError) Unwrap() error {
	return errors.Join(e.Attempts...)
}

// FetchError is a failed page download. The page stays visited but its
// links are not explored.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError is a liveness check that could not complete. The link is
// reported as dead.
type ValidationError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("error checking %s (%s): %v", e.URL, e.Reason, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
