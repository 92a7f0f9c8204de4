package provider

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/config"
	"github.com/Digital-Creators-Team/bingo-game-module/httpclient"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/types"
	"github.com/rs/zerolog"
)

// AdProvider implements providers.AdProvider against an ad mediation service
type AdProvider struct {
	client *httpclient.Client
	logger zerolog.Logger
}

var _ providers.AdProvider = (*AdProvider)(nil)

// NewAdProvider creates a new ad provider
func NewAdProvider(cfg config.ServiceConfig, logger zerolog.Logger) *AdProvider {
	return &AdProvider{
		client: httpclient.New(httpclient.Config{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Logger:  logger,
		}),
		logger: logger.With().Str("component", "ad_provider").Logger(),
	}
}

type availability struct {
	Available bool `json:"available"`
}

// IsRewardAvailable reports whether a rewarded ad is loaded. Errors count as
// unavailable.
func (p *AdProvider) IsRewardAvailable(ctx context.Context) bool {
	var result types.SuccessResponse[availability]
	if err := p.client.GetJSON(ctx, "/rewarded/availability", nil, &result); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to check rewarded ad availability")
		return false
	}
	return result.IsSuccess && result.Data.Available
}

// PresentReward shows a rewarded ad and returns once it is dismissed
func (p *AdProvider) PresentReward(ctx context.Context) error {
	resp, err := p.client.Post(ctx, "/rewarded/present", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to present rewarded ad: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("rewarded ad failed with status %d", resp.StatusCode)
	}
	return nil
}
