package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound means the city list file does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrMalformedInput means a CSV file lacks a required column or cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrOutputConflict means the dataset file already exists and was left untouched.
	// It is reported to the caller but is not a failure of the run.
	ErrOutputConflict = errors.New("output file already exists")

	// ErrEmptyDataset means there are no records to aggregate or plot.
	ErrEmptyDataset = errors.New("dataset is empty")
)

// Fetch failure reasons, used as the "reason" metric label.
const (
	ReasonRequest      = "request"
	ReasonStatus       = "status"
	ReasonDecode       = "decode"
	ReasonMissingField = "missing_field"
)

// FetchError is a per-city failure. It never aborts a run.
type FetchError struct {
	City   string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %s: %v", e.City, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchFailure pairs a city with the error that kept it out of the dataset.
type FetchFailure struct {
	City string
	Err  error
}
