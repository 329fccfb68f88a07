// Package notify delivers price alerts to external channels.
package notify

import (
	"os"
	"time"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramConfig holds the Telegram Bot API settings. Token and chat id are secrets.
type TelegramConfig struct {
	BaseURL  string
	BotToken string
	ChatID   string
	Timeout  time.Duration
}

// Enabled reports whether both credentials are present.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// LoadConfig loads Telegram settings from environment variables.
func LoadConfig() TelegramConfig {
	baseURL := os.Getenv("TELEGRAM_BASE_URL")
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	return TelegramConfig{
		BaseURL:  baseURL,
		BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		Timeout:  5 * time.Second,
	}
}
