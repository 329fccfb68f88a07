package usecase

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
)

const priceScale = 2

var (
	// maxPrice is the first value that no longer fits numeric(10,2).
	maxPrice  = decimal.New(1, 8)
	maxVolume = decimal.NewFromInt(1<<63 - 1)

	errMissing    = errors.New("missing value")
	errNegative   = errors.New("negative value")
	errRange      = errors.New("value out of range")
	errDateFormat = errors.New("unrecognized date format")
)

// dateLayouts are the session-date formats accepted from providers.
// Only the calendar date is kept; no timezone shift is applied.
var dateLayouts = []string{
	entity.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Normalize validates one raw bar and converts it to a PriceBar with two-decimal prices.
// Any bad field rejects the whole row with a *domain.NormalizationError naming that field.
func Normalize(symbol string, raw entity.RawBar) (entity.PriceBar, error) {
	reject := func(field, value string, err error) (entity.PriceBar, error) {
		return entity.PriceBar{}, &domain.NormalizationError{
			Symbol: symbol,
			Date:   raw.Date,
			Field:  field,
			Value:  value,
			Err:    err,
		}
	}

	date, err := parseSessionDate(raw.Date)
	if err != nil {
		return reject("date", raw.Date, err)
	}

	bar := entity.PriceBar{Date: date}
	for _, f := range []struct {
		name string
		raw  entity.RawNumber
		dst  *decimal.Decimal
	}{
		{"open", raw.Open, &bar.Open},
		{"high", raw.High, &bar.High},
		{"low", raw.Low, &bar.Low},
		{"close", raw.Close, &bar.Close},
	} {
		v, err := parsePrice(f.raw)
		if err != nil {
			return reject(f.name, string(f.raw), err)
		}
		*f.dst = v
	}

	vol, err := parseVolume(raw.Volume)
	if err != nil {
		return reject("volume", string(raw.Volume), err)
	}
	bar.Volume = vol

	return bar, nil
}

// NormalizeBatch normalizes every raw bar, keeping the good rows and collecting
// one NormalizationError per rejected row. A bad row never fails the batch.
func NormalizeBatch(symbol string, raws []entity.RawBar) ([]entity.PriceBar, []*domain.NormalizationError) {
	bars := make([]entity.PriceBar, 0, len(raws))
	var rejected []*domain.NormalizationError
	for _, raw := range raws {
		bar, err := Normalize(symbol, raw)
		if err != nil {
			var nerr *domain.NormalizationError
			if errors.As(err, &nerr) {
				rejected = append(rejected, nerr)
			}
			continue
		}
		bars = append(bars, bar)
	}
	return bars, rejected
}

func parseSessionDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errMissing
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errDateFormat
}

// parseDecimal converts the textual provider value without passing through float64.
func parseDecimal(n entity.RawNumber) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return decimal.Decimal{}, errMissing
	}
	return decimal.NewFromString(s)
}

func parsePrice(n entity.RawNumber) (decimal.Decimal, error) {
	v, err := parseDecimal(n)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if v.IsNegative() {
		return decimal.Decimal{}, errNegative
	}
	v = v.RoundBank(priceScale)
	if v.GreaterThanOrEqual(maxPrice) {
		return decimal.Decimal{}, errRange
	}
	return v, nil
}

func parseVolume(n entity.RawNumber) (int64, error) {
	v, err := parseDecimal(n)
	if err != nil {
		return 0, err
	}
	if v.IsNegative() {
		return 0, errNegative
	}
	if v.GreaterThan(maxVolume) {
		return 0, errRange
	}
	return v.IntPart(), nil
}
