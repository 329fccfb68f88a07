package dto

// 価格はすべて小数点以下2桁の文字列で返します（浮動小数点の誤差を避けるため）。

// DynamicsResponse は期間の値動きカードです。
type DynamicsResponse struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	StartPrice     string `json:"start_price"`
	EndPrice       string `json:"end_price"`
	AbsoluteChange string `json:"absolute_change"`
	PercentChange  string `json:"percentage_change"`
}

// MinMaxResponse は期間の最安値・最高値カードです。
type MinMaxResponse struct {
	MinPrice string `json:"min_price"`
	MaxPrice string `json:"max_price"`
}

// AnalyticsResponse は GET /tickers/:symbol/analytics のレスポンスです。
// データ不足のカードは null になります。
type AnalyticsResponse struct {
	Symbol          string            `json:"symbol"`
	Name            string            `json:"name,omitempty"`
	Dynamics30d     *DynamicsResponse `json:"dynamics_30d"`
	AverageClose90d *string           `json:"average_close_90d"`
	MinMax365d      *MinMaxResponse   `json:"min_max_365d"`
}

// PointResponse はチャート用の1点です。
type PointResponse struct {
	Date  string `json:"date"`
	Close string `json:"close"`
}

// SeriesResponse は GET /tickers/:symbol/bars のレスポンスです。
type SeriesResponse struct {
	Symbol string          `json:"symbol"`
	Points []PointResponse `json:"points"`
}
