package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/csvprof/internal/chart"
	"github.com/JonMunkholm/csvprof/internal/dataset"
)

var (
	// ErrNotFound is returned when a dataset name is not in the session.
	ErrNotFound = errors.New("dataset not found")

	// ErrNotLoggedIn is returned when an operation needs a user label.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when a batch upload carries no files.
	ErrNoFile = errors.New("no file provided")

	// ErrEmptySelection is returned when fewer than two datasets are available
	// to compare, or a chart has no eligible columns.
	ErrEmptySelection = chart.ErrEmptySelection

	// ErrInvalidValue is returned when an edit does not fit the column.
	ErrInvalidValue = dataset.ErrInvalidValue

	// ErrUnknownColumn is returned when an edit names a missing column.
	ErrUnknownColumn = dataset.ErrUnknownColumn
)

// ParseError reports an upload that could not be read as a table. It is
// returned per file; other files in the same batch are unaffected.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid csv %q: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
