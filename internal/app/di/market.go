// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"stockpulse/internal/feature/prices/usecase"
	"stockpulse/internal/platform/externalapi/twelvedata"
	"stockpulse/internal/platform/externalapi/yahoo"
	infrahttp "stockpulse/internal/platform/http"
)

const (
	ProviderTwelveData = "twelvedata"
	ProviderYahoo      = "yahoo"
)

// NewMarket creates the configured price source with its own HTTP client.
func NewMarket(provider string, log zerolog.Logger) (usecase.MarketRepository, error) {
	switch provider {
	case "", ProviderTwelveData:
		cfg := twelvedata.LoadConfig()
		if cfg.TwelveDataAPIKey == "" {
			log.Warn().Msg("TWELVE_DATA_API_KEY is not set; requests will be rejected by the provider")
		}
		return twelvedata.NewTwelveDataMarket(cfg, infrahttp.NewHTTPClient(cfg.Timeout), log), nil
	case ProviderYahoo:
		cfg := yahoo.LoadConfig()
		client := infrahttp.NewHTTPClient(cfg.Timeout, infrahttp.WithUserAgent(cfg.UserAgent))
		return yahoo.NewYahooMarket(cfg, client, log), nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", provider)
	}
}
