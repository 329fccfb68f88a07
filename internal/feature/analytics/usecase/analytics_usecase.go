// Package usecase は保存済みの日足から集計値を計算します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/internal/feature/analytics/domain/entity"
	pricedomain "stockpulse/internal/feature/prices/domain"
	priceentity "stockpulse/internal/feature/prices/domain/entity"
)

// ErrInvalidWindow は期間日数が正でない場合に返されます。
var ErrInvalidWindow = errors.New("window days must be positive")

var hundred = decimal.NewFromInt(100)

// TickerFinder は銘柄を大文字小文字を区別せずに検索します。
type TickerFinder interface {
	FindBySymbol(ctx context.Context, symbol string) (priceentity.Ticker, error)
}

// BarWindowReader は from <= date <= to の日足を日付昇順で返します。
type BarWindowReader interface {
	Window(ctx context.Context, tickerID uint, from, to time.Time) ([]priceentity.PriceBar, error)
}

// AnalyticsUsecase は読み取り専用の集計を提供します。
type AnalyticsUsecase struct {
	tickers TickerFinder
	bars    BarWindowReader
	now     func() time.Time
}

// NewAnalyticsUsecase creates the usecase. now may be nil, in which case time.Now is used.
func NewAnalyticsUsecase(tickers TickerFinder, bars BarWindowReader, now func() time.Time) *AnalyticsUsecase {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsUsecase{tickers: tickers, bars: bars, now: now}
}

// bounds は [today-days, today] を UTC の日付で返します。
func (u *AnalyticsUsecase) bounds(days int) (from, to time.Time) {
	n := u.now().UTC()
	to = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return to.AddDate(0, 0, -days), to
}

// window は [today-days, today] の日足を返します。未登録の銘柄は ErrTickerNotFound。
func (u *AnalyticsUsecase) window(ctx context.Context, symbol string, days int) (priceentity.Ticker, []priceentity.PriceBar, error) {
	if days <= 0 {
		return priceentity.Ticker{}, nil, ErrInvalidWindow
	}
	t, err := u.tickers.FindBySymbol(ctx, symbol)
	if err != nil {
		return priceentity.Ticker{}, nil, err
	}

	from, to := u.bounds(days)
	bars, err := u.bars.Window(ctx, t.ID, from, to)
	if err != nil {
		return t, nil, fmt.Errorf("read %s window: %w", t.Symbol, err)
	}
	return t, bars, nil
}

// since は日付昇順の bars から from 以降の部分を返します。
func since(bars []priceentity.PriceBar, from time.Time) []priceentity.PriceBar {
	i := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(from) })
	return bars[i:]
}

// barsOrNone は未登録銘柄を「データなし」として扱います。
func (u *AnalyticsUsecase) barsOrNone(ctx context.Context, symbol string, days int) ([]priceentity.PriceBar, error) {
	_, bars, err := u.window(ctx, symbol, days)
	if errors.Is(err, pricedomain.ErrTickerNotFound) || errors.Is(err, pricedomain.ErrInvalidSymbol) {
		return nil, nil
	}
	return bars, err
}

// AverageClose returns the mean close over the window, or nil when there are no bars.
func (u *AnalyticsUsecase) AverageClose(ctx context.Context, symbol string, days int) (*decimal.Decimal, error) {
	bars, err := u.barsOrNone(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	return averageClose(bars), nil
}

// Dynamics returns the window move, or nil with fewer than two bars.
func (u *AnalyticsUsecase) Dynamics(ctx context.Context, symbol string, days int) (*entity.Dynamics, error) {
	bars, err := u.barsOrNone(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	return dynamics(bars), nil
}

// MinMax returns the lowest low and highest high, or nil when there are no bars.
func (u *AnalyticsUsecase) MinMax(ctx context.Context, symbol string, days int) (*entity.MinMax, error) {
	bars, err := u.barsOrNone(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	return minMax(bars), nil
}

// Series returns date/close points oldest first. Unlike the cards, an unknown
// ticker is reported as ErrTickerNotFound so that callers can answer 404.
func (u *AnalyticsUsecase) Series(ctx context.Context, symbol string, days int) ([]entity.Point, error) {
	_, bars, err := u.window(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Point, 0, len(bars))
	for _, b := range bars {
		out = append(out, entity.Point{Date: b.Date, Close: b.Close})
	}
	return out, nil
}

// Dashboard computes the three cards of a ticker. days > 0 overrides every window.
func (u *AnalyticsUsecase) Dashboard(ctx context.Context, symbol string, days int) (entity.Dashboard, error) {
	dynDays, avgDays, mmDays := entity.DynamicsDays, entity.AverageDays, entity.MinMaxDays
	if days > 0 {
		dynDays, avgDays, mmDays = days, days, days
	}

	// 最も長い期間を一度だけ読み、短い期間はそこから切り出す
	t, bars, err := u.window(ctx, symbol, max(dynDays, avgDays, mmDays))
	if err != nil {
		return entity.Dashboard{}, err
	}
	dynFrom, _ := u.bounds(dynDays)
	avgFrom, _ := u.bounds(avgDays)
	mmFrom, _ := u.bounds(mmDays)

	return entity.Dashboard{
		Ticker:       t,
		Dynamics:     dynamics(since(bars, dynFrom)),
		AverageClose: averageClose(since(bars, avgFrom)),
		MinMax:       minMax(since(bars, mmFrom)),
	}, nil
}

func averageClose(bars []priceentity.PriceBar) *decimal.Decimal {
	if len(bars) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, b := range bars {
		sum = sum.Add(b.Close)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(bars))))
	return &avg
}

func dynamics(bars []priceentity.PriceBar) *entity.Dynamics {
	if len(bars) < 2 {
		return nil
	}
	first, last := bars[0], bars[len(bars)-1]

	// 開始は初日の始値、終了は最終日の終値
	abs := last.Close.Sub(first.Open)
	pct := decimal.Zero
	if !first.Open.IsZero() {
		pct = abs.Div(first.Open).Mul(hundred)
	}
	return &entity.Dynamics{
		StartDate:      first.Date,
		EndDate:        last.Date,
		StartPrice:     first.Open,
		EndPrice:       last.Close,
		AbsoluteChange: abs,
		PercentChange:  pct,
	}
}

func minMax(bars []priceentity.PriceBar) *entity.MinMax {
	if len(bars) == 0 {
		return nil
	}
	mm := entity.MinMax{Min: bars[0].Low, Max: bars[0].High}
	for _, b := range bars[1:] {
		if b.Low.LessThan(mm.Min) {
			mm.Min = b.Low
		}
		if b.High.GreaterThan(mm.Max) {
			mm.Max = b.High
		}
	}
	return &mm
}
