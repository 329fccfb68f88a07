package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date layout used for trading dates.
const DateLayout = "2006-01-02"

// RawNumber is a provider-native numeric value kept in its textual form.
// An empty RawNumber means the provider did not report the field.
type RawNumber string

// Missing reports whether the provider omitted the value.
func (n RawNumber) Missing() bool {
	return n == ""
}

// RawBar is one daily bar exactly as a price source reported it.
type RawBar struct {
	Date   string // session date, "2006-01-02" or "2006-01-02 15:04:05"
	Open   RawNumber
	High   RawNumber
	Low    RawNumber
	Close  RawNumber
	Volume RawNumber
}

// FetchResult is the outcome of one successful window fetch.
// An empty Bars slice is a valid result, not an error.
type FetchResult struct {
	Symbol string
	Name   string // provider display name, if reported
	Bars   []RawBar
}

// PriceBar is a normalized daily OHLCV bar. Prices carry exactly two fractional digits.
type PriceBar struct {
	TickerID uint
	Date     time.Time // UTC midnight of the trading date
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   int64
}

// DateKey returns the trading date formatted as YYYY-MM-DD.
func (b PriceBar) DateKey() string {
	return b.Date.UTC().Format(DateLayout)
}

// UpsertStats reports how many rows an upsert created and how many it overwrote.
type UpsertStats struct {
	Created int
	Updated int
}
