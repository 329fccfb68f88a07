package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

// ChannelTelegram identifies the Telegram channel in NotifyError values.
const ChannelTelegram = "telegram"

// Telegram sends alerts through the Telegram Bot API sendMessage method.
type Telegram struct {
	cfg    TelegramConfig
	client *http.Client
	log    zerolog.Logger
}

var _ usecase.Notifier = (*Telegram)(nil)

func NewTelegram(cfg TelegramConfig, client *http.Client, log zerolog.Logger) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTelegramBaseURL
	}
	return &Telegram{cfg: cfg, client: client, log: log}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send makes exactly one delivery attempt. Any failure is returned as *domain.NotifyError.
func (t *Telegram) Send(ctx context.Context, event entity.AlertEvent) error {
	fail := func(err error) error {
		return &domain.NotifyError{Channel: ChannelTelegram, Err: err}
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    t.cfg.ChatID,
		Text:      formatHTML(event),
		ParseMode: "HTML",
	})
	if err != nil {
		return fail(err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.cfg.BaseURL, "/"), t.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fail(errors.New("build request"))
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		// the request URL carries the bot token
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fail(err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			t.log.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	var body sendMessageResponse
	_ = json.NewDecoder(res.Body).Decode(&body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fail(fmt.Errorf("telegram http %d: %s", res.StatusCode, body.Description))
	}
	if !body.OK {
		return fail(fmt.Errorf("telegram rejected message: %s", body.Description))
	}
	return nil
}

func formatHTML(e entity.AlertEvent) string {
	return fmt.Sprintf("<b>%s price alert</b>\n\n%s", escapeHTML(e.Symbol), escapeHTML(e.Message()))
}

// escapeHTML escapes HTML special characters for Telegram.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
