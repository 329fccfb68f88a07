package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
	"stockpulse/internal/platform/externalapi/yahoo/dto"
)

// ProviderName identifies this source in FetchError values and logs.
const ProviderName = "yahoo"

// YahooMarket is a MarketRepository backed by the Yahoo Finance chart API.
type YahooMarket struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

var _ usecase.MarketRepository = (*YahooMarket)(nil)

func NewYahooMarket(cfg Config, client *http.Client, log zerolog.Logger) *YahooMarket {
	return &YahooMarket{cfg: cfg, client: client, log: log, now: time.Now}
}

// FetchWindow requests daily bars between now-windowDays and now.
// Floats are rendered with the shortest exact representation so the normalizer
// sees the same digits the provider sent.
func (y *YahooMarket) FetchWindow(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
	fail := func(status int, err error) (entity.FetchResult, error) {
		return entity.FetchResult{}, &domain.FetchError{Provider: ProviderName, Symbol: symbol, StatusCode: status, Err: err}
	}

	if y.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.cfg.Timeout)
		defer cancel()
	}

	end := y.now().UTC()
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(end.AddDate(0, 0, -windowDays).Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", strings.TrimRight(y.cfg.BaseURL, "/"), url.PathEscape(symbol), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fail(0, err)
	}
	if y.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", y.cfg.UserAgent)
	}

	res, err := y.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			y.log.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	var body dto.ChartResponse
	decodeErr := json.NewDecoder(res.Body).Decode(&body)

	if res.StatusCode >= 400 {
		if decodeErr == nil && body.Chart.Error != nil {
			return fail(res.StatusCode, fmt.Errorf("yahoo: %s: %s", body.Chart.Error.Code, body.Chart.Error.Description))
		}
		return fail(res.StatusCode, fmt.Errorf("yahoo http %d", res.StatusCode))
	}
	if decodeErr != nil {
		return fail(res.StatusCode, fmt.Errorf("decode chart: %w", decodeErr))
	}
	if body.Chart.Error != nil {
		return fail(0, fmt.Errorf("yahoo: %s: %s", body.Chart.Error.Code, body.Chart.Error.Description))
	}
	if len(body.Chart.Result) == 0 {
		return entity.FetchResult{Symbol: symbol}, nil
	}

	return toFetchResult(symbol, body.Chart.Result[0]), nil
}

func toFetchResult(symbol string, r dto.ChartResult) entity.FetchResult {
	out := entity.FetchResult{Symbol: symbol, Name: r.Meta.LongName}
	if out.Name == "" {
		out.Name = r.Meta.ShortName
	}
	if len(r.Indicators.Quote) == 0 {
		return out
	}
	quote := r.Indicators.Quote[0]
	offset := time.Duration(r.Meta.GMTOffset) * time.Second

	out.Bars = make([]entity.RawBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		// 取引所の現地日付を取得する
		local := time.Unix(ts, 0).UTC().Add(offset)
		out.Bars = append(out.Bars, entity.RawBar{
			Date:   local.Format(entity.DateLayout),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}
	return out
}

// at returns the i-th value as text, or missing when absent or null.
func at(vs []*float64, i int) entity.RawNumber {
	if i >= len(vs) || vs[i] == nil {
		return ""
	}
	return entity.RawNumber(strconv.FormatFloat(*vs[i], 'f', -1, 64))
}
