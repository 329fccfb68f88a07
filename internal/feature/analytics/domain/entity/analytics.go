// Package entity defines the read-side aggregates served by the analytics feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"

	priceentity "stockpulse/internal/feature/prices/domain/entity"
)

// Default window lengths of the dashboard cards, in calendar days.
const (
	DynamicsDays = 30
	AverageDays  = 90
	MinMaxDays   = 365
	SeriesDays   = 365
)

// Dynamics is the move over a window: first bar's open against last bar's close.
type Dynamics struct {
	StartDate      time.Time
	EndDate        time.Time
	StartPrice     decimal.Decimal
	EndPrice       decimal.Decimal
	AbsoluteChange decimal.Decimal
	PercentChange  decimal.Decimal // 0 when StartPrice is 0
}

// MinMax holds the lowest low and the highest high of a window.
type MinMax struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Point is one close of the chart series.
type Point struct {
	Date  time.Time
	Close decimal.Decimal
}

// Dashboard bundles the cards shown for one ticker. Nil fields mean "not enough data".
type Dashboard struct {
	Ticker       priceentity.Ticker
	Dynamics     *Dynamics
	AverageClose *decimal.Decimal
	MinMax       *MinMax
}
