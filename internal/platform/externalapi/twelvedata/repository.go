package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
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
	"stockpulse/internal/platform/externalapi/twelvedata/dto"
)

// ProviderName identifies this source in FetchError values and logs.
const ProviderName = "twelvedata"

// noDataCode は指定期間にデータが存在しない場合にTwelve Dataが返すエラーコードです。
const noDataCode = 400

// TwelveDataMarket はTwelve Data外部APIから日足を取得するMarketRepository実装です。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

// TwelveDataMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client, log zerolog.Logger) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg, client: client, log: log, now: time.Now}
}

// FetchWindow は直近 windowDays 日分の日足を取得します。
// 値は文字列のまま RawBar に格納し、数値への変換は正規化処理に任せます。
func (t *TwelveDataMarket) FetchWindow(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
	fail := func(status int, err error) (entity.FetchResult, error) {
		return entity.FetchResult{}, &domain.FetchError{Provider: ProviderName, Symbol: symbol, StatusCode: status, Err: err}
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	start := t.now().UTC().AddDate(0, 0, -windowDays)
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1day")
	q.Set("start_date", start.Format(entity.DateLayout))
	// 営業日数は暦日数を超えないため windowDays を上限とする
	q.Set("outputsize", strconv.Itoa(windowDays))
	q.Set("order", "ASC")
	q.Set("apikey", t.cfg.TwelveDataAPIKey)

	u := fmt.Sprintf("%s/time_series?%s", strings.TrimRight(t.cfg.BaseURL, "/"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fail(0, err)
	}

	res, err := t.client.Do(req)
	if err != nil {
		// URLにAPIキーが含まれるため url.Error から内側のエラーだけを取り出す
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fail(0, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			t.log.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	if res.StatusCode >= 400 {
		return fail(res.StatusCode, fmt.Errorf("twelvedata http %d", res.StatusCode))
	}

	var body dto.TimeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fail(res.StatusCode, fmt.Errorf("decode time_series: %w", err))
	}
	if body.Status == "error" {
		if body.Code == noDataCode && strings.Contains(strings.ToLower(body.Message), "no data") {
			return entity.FetchResult{Symbol: symbol}, nil
		}
		return fail(body.Code, fmt.Errorf("twelvedata: %s", body.Message))
	}

	bars := make([]entity.RawBar, 0, len(body.Values))
	for _, v := range body.Values {
		bars = append(bars, entity.RawBar{
			Date:   v.Datetime,
			Open:   entity.RawNumber(v.Open),
			High:   entity.RawNumber(v.High),
			Low:    entity.RawNumber(v.Low),
			Close:  entity.RawNumber(v.Close),
			Volume: entity.RawNumber(v.Volume),
		})
	}
	return entity.FetchResult{Symbol: symbol, Bars: bars}, nil
}
