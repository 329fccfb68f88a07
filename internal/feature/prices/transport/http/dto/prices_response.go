package dto

// TickerResponse は登録済み銘柄のレスポンスDTOです。
type TickerResponse struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// AlertResponse は発火したアラートです。
type AlertResponse struct {
	Direction     string `json:"direction"`
	ChangePercent string `json:"change_percent"` // 小数点以下2桁で切り捨て
	PreviousClose string `json:"previous_close"`
	LatestClose   string `json:"latest_close"`
	LatestDate    string `json:"latest_date"`
}

// TickerResultResponse は銘柄ごとの処理結果です。
type TickerResultResponse struct {
	Symbol      string         `json:"symbol"`
	Fetched     int            `json:"fetched"`
	Created     int            `json:"created"`
	Updated     int            `json:"updated"`
	Rejected    []string       `json:"rejected"`
	Alert       *AlertResponse `json:"alert"`
	Notified    bool           `json:"notified"`
	Suppressed  bool           `json:"suppressed"`
	NotifyError string         `json:"notify_error,omitempty"`
	Error       string         `json:"error,omitempty"`
	Skipped     bool           `json:"skipped"`
}

// RunSummaryResponse は POST /admin/ingest のレスポンスです。
type RunSummaryResponse struct {
	RunID      string                 `json:"run_id"`
	StartedAt  string                 `json:"started_at"`
	FinishedAt string                 `json:"finished_at"`
	Failed     int                    `json:"failed"`
	Aborted    string                 `json:"aborted,omitempty"`
	Results    []TickerResultResponse `json:"results"`
}
