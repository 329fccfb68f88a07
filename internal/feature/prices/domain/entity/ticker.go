// Package entity defines the domain models for the prices feature.
package entity

// Ticker is the persistent identity of a traded symbol.
// Symbol is always stored in its canonical uppercase form.
type Ticker struct {
	ID     uint
	Symbol string // e.g. "AAPL", "MSFT"
	Name   string // display name; empty until backfilled
}
