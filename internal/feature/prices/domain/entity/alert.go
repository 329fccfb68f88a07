package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a close-to-close move. A fired alert always moved.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// AlertEvent describes a day-over-day close move that crossed the configured threshold.
// It is produced by the alert evaluator and consumed once by a notifier; it is never stored.
type AlertEvent struct {
	Symbol        string
	Direction     Direction
	ChangePercent decimal.Decimal // full precision
	PreviousClose decimal.Decimal
	LatestClose   decimal.Decimal
	PreviousDate  time.Time
	LatestDate    time.Time
}

// DisplayPercent returns the change percent truncated (not rounded) to two decimals.
func (a AlertEvent) DisplayPercent() decimal.Decimal {
	return a.ChangePercent.Truncate(2)
}

// Key identifies the alert for at-most-once delivery: one alert per symbol and latest date.
func (a AlertEvent) Key() string {
	return a.Symbol + ":" + a.LatestDate.UTC().Format(DateLayout)
}

// Message renders a plain-text notification body.
func (a AlertEvent) Message() string {
	arrow := "▲"
	if a.Direction == DirectionDown {
		arrow = "▼"
	}
	return fmt.Sprintf("%s %s %s%% (%s → %s, %s → %s)",
		arrow,
		a.Symbol,
		a.DisplayPercent().StringFixed(2),
		a.PreviousClose.StringFixed(2),
		a.LatestClose.StringFixed(2),
		a.PreviousDate.UTC().Format(DateLayout),
		a.LatestDate.UTC().Format(DateLayout),
	)
}
