// Package config はアプリケーション全体の設定（YAML + 環境変数）を読み込みます。
// シークレット（APIキー、トークン、パスワード）はここでは扱わず、各プラットフォームパッケージが環境変数から直接読み込みます。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"stockpulse/internal/platform/logging"
)

const (
	EnvConfigPath       = "CONFIG_PATH"
	EnvWatchList        = "WATCH_LIST"
	EnvThresholdPercent = "ALERT_THRESHOLD_PERCENT"
	EnvIngestSchedule   = "INGEST_SCHEDULE"

	DefaultPath = "config.yaml"
)

// Config is the root of config.yaml.
type Config struct {
	WatchList []string       `yaml:"watch_list" default:"[\"AAPL\",\"GOOGL\",\"MSFT\",\"AMZN\",\"TSLA\"]" validate:"min=1,unique,dive,min=1,max=10"`
	Ingest    IngestConfig   `yaml:"ingest"`
	Alert     AlertConfig    `yaml:"alert"`
	News      NewsConfig     `yaml:"news"`
	Cache     CacheConfig    `yaml:"cache"`
	Server    ServerConfig   `yaml:"server"`
	Log       logging.Config `yaml:"log"`
}

type IngestConfig struct {
	Provider      string        `yaml:"provider" default:"twelvedata" validate:"oneof=twelvedata yahoo"`
	WindowDays    int           `yaml:"window_days" default:"10" validate:"min=1,max=60"`
	RunTimeout    time.Duration `yaml:"run_timeout" default:"5m" validate:"gt=0"`
	RatePerMinute int           `yaml:"rate_per_minute" default:"8" validate:"min=0"` // 0 = 無制限
	Schedule      string        `yaml:"schedule"`                                     // cron式。空ならスケジュール実行しない
}

type AlertConfig struct {
	ThresholdPercent string        `yaml:"threshold_percent" default:"0.5" validate:"required,numeric"`
	NotifyTimeout    time.Duration `yaml:"notify_timeout" default:"5s" validate:"gt=0"`
	GuardTTL         time.Duration `yaml:"guard_ttl" default:"72h" validate:"gt=0"`
}

// Threshold returns the parsed alert threshold in percent.
func (a AlertConfig) Threshold() decimal.Decimal {
	d, err := decimal.NewFromString(a.ThresholdPercent)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type NewsConfig struct {
	Enabled   bool          `yaml:"enabled" default:"true"`
	SourceURL string        `yaml:"source_url" default:"https://www.marketwatch.com/latest-news" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
}

type CacheConfig struct {
	WindowTTL time.Duration `yaml:"window_ttl" default:"5m" validate:"gt=0"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080" validate:"required"`
}

var validate = validator.New()

// Load は path のYAMLを読み込みます。path が空なら CONFIG_PATH、さらに空なら config.yaml。
// ファイルが存在しない場合はデフォルト値のみを使います。
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	// デフォルト値を先に設定し、YAMLで上書きする
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("set config defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.WatchList = canonical(cfg.WatchList)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags, the threshold value and the cron schedule.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !c.Alert.Threshold().IsPositive() {
		return fmt.Errorf("invalid config: alert.threshold_percent must be positive, got %q", c.Alert.ThresholdPercent)
	}
	if c.Ingest.Schedule != "" {
		if _, err := cron.ParseStandard(c.Ingest.Schedule); err != nil {
			return fmt.Errorf("invalid config: ingest.schedule: %w", err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvWatchList)); v != "" {
		cfg.WatchList = strings.Split(v, ",")
	}
	if v := strings.TrimSpace(os.Getenv(EnvThresholdPercent)); v != "" {
		cfg.Alert.ThresholdPercent = v
	}
	if v, ok := os.LookupEnv(EnvIngestSchedule); ok {
		cfg.Ingest.Schedule = strings.TrimSpace(v)
	}
}

// canonical は銘柄を大文字化し、空要素を取り除きます。順序は保持します。
func canonical(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
