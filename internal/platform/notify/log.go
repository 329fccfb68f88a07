package notify

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

// ChannelLog identifies the log channel.
const ChannelLog = "log"

// Log writes alerts to the structured logger. It is used when no external channel is configured.
type Log struct {
	log zerolog.Logger
}

var _ usecase.Notifier = (*Log)(nil)

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Send(_ context.Context, e entity.AlertEvent) error {
	l.log.Warn().
		Str("channel", ChannelLog).
		Str("symbol", e.Symbol).
		Str("direction", string(e.Direction)).
		Str("change_pct", e.DisplayPercent().StringFixed(2)).
		Str("previous_close", e.PreviousClose.StringFixed(2)).
		Str("latest_close", e.LatestClose.StringFixed(2)).
		Str("latest_date", e.LatestDate.Format(entity.DateLayout)).
		Msg(e.Message())
	return nil
}

// New returns the Telegram channel when credentials are configured, otherwise the log channel.
func New(cfg TelegramConfig, client *http.Client, log zerolog.Logger) usecase.Notifier {
	if cfg.Enabled() {
		return NewTelegram(cfg, client, log)
	}
	log.Info().Msg("telegram not configured, alerts go to the log")
	return NewLog(log)
}
