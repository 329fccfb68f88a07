package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"stockpulse/internal/feature/prices/domain/entity"
)

// DefaultThresholdPercent is the absolute day-over-day change that fires an alert.
var DefaultThresholdPercent = decimal.RequireFromString("0.5")

var hundred = decimal.NewFromInt(100)

// AlertEvaluator は直近2本の終値を比較し、変化率が閾値以上であればアラートを生成します。
type AlertEvaluator struct {
	bars      LatestBarReader
	threshold decimal.Decimal
}

// NewAlertEvaluator は新しい AlertEvaluator を作成します。
// threshold が0以下の場合は DefaultThresholdPercent を使用します。
func NewAlertEvaluator(bars LatestBarReader, threshold decimal.Decimal) *AlertEvaluator {
	if !threshold.IsPositive() {
		threshold = DefaultThresholdPercent
	}
	return &AlertEvaluator{bars: bars, threshold: threshold.Abs()}
}

// Threshold returns the configured absolute threshold in percent.
func (e *AlertEvaluator) Threshold() decimal.Decimal {
	return e.threshold
}

// Evaluate returns nil when fewer than two bars exist, when the previous close is zero,
// or when the move stays below the threshold.
func (e *AlertEvaluator) Evaluate(ctx context.Context, t entity.Ticker) (*entity.AlertEvent, error) {
	bars, err := e.bars.Latest(ctx, t.ID, 2)
	if err != nil {
		return nil, fmt.Errorf("read latest bars of %s: %w", t.Symbol, err)
	}
	if len(bars) < 2 {
		return nil, nil
	}

	latest, previous := bars[0], bars[1]
	if previous.Close.IsZero() {
		return nil, nil
	}

	change := latest.Close.Sub(previous.Close).Div(previous.Close).Mul(hundred)
	if change.Abs().LessThan(e.threshold) {
		return nil, nil
	}

	return &entity.AlertEvent{
		Symbol:        t.Symbol,
		Direction:     directionOf(change),
		ChangePercent: change,
		PreviousClose: previous.Close,
		LatestClose:   latest.Close,
		PreviousDate:  previous.Date,
		LatestDate:    latest.Date,
	}, nil
}

// directionOf is only called for a move at or above a positive threshold, so change is never zero.
func directionOf(change decimal.Decimal) entity.Direction {
	if change.IsNegative() {
		return entity.DirectionDown
	}
	return entity.DirectionUp
}
