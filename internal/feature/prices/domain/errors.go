// Package domain defines domain-level errors for the prices feature.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable indicates that the backing store cannot be reached at all.
	// It is the only error that aborts a whole ingestion run.
	ErrStoreUnavailable = errors.New("backing store unavailable")

	// ErrTickerNotFound is returned when no ticker matches the requested symbol.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrTickerExists is returned by a ticker store when the symbol is already registered.
	ErrTickerExists = errors.New("ticker already exists")

	// ErrInvalidSymbol is returned for an empty or malformed symbol.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrRunInProgress is returned when an ingestion run is requested while another is running.
	ErrRunInProgress = errors.New("ingestion run already in progress")
)

// FetchError is a network or provider failure while fetching a price window.
// The ticker is skipped for this run.
type FetchError struct {
	Provider   string
	Symbol     string
	StatusCode int // HTTP status, 0 when the request never got a response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s from %s: http %d: %v", e.Symbol, e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s from %s: %v", e.Symbol, e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NormalizationError rejects a single malformed row. Only that row is skipped.
type NormalizationError struct {
	Symbol string
	Date   string
	Field  string // date, open, high, low, close or volume
	Value  string
	Err    error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s %s: field %s (%q): %v", e.Symbol, e.Date, e.Field, e.Value, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// StorageError is a failure of the backing store for one operation.
// A failed batch has been rolled back when this is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NotifyError is a delivery failure of an alert. It never affects stored data.
type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}
