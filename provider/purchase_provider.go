package provider

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/config"
	"github.com/Digital-Creators-Team/bingo-game-module/httpclient"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PurchaseProvider implements providers.PurchaseProvider against a store backend over HTTP
type PurchaseProvider struct {
	client *httpclient.Client
	logger zerolog.Logger
}

var _ providers.PurchaseProvider = (*PurchaseProvider)(nil)

// NewPurchaseProvider creates a new purchase provider
func NewPurchaseProvider(cfg config.ServiceConfig, logger zerolog.Logger) *PurchaseProvider {
	return &PurchaseProvider{
		client: httpclient.New(httpclient.Config{
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			Logger:     logger,
			MaxRetries: cfg.MaxRetries,
		}),
		logger: logger.With().Str("component", "purchase_provider").Logger(),
	}
}

// Products lists the purchasable SKUs
func (p *PurchaseProvider) Products(ctx context.Context) ([]providers.Product, error) {
	var result types.SuccessResponse[[]providers.Product]
	if err := p.client.GetJSON(ctx, "/products", nil, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	if !result.IsSuccess {
		return nil, fmt.Errorf("store returned status %d", result.StatusCode)
	}
	return result.Data, nil
}

// IdempotencyKeyHeader carries a per-purchase key so the store can drop
// duplicate submissions of one purchase.
const IdempotencyKeyHeader = "Idempotency-Key"

// Purchase buys a product for a player. Only a successful response counts
// as a completed purchase. The request is sent once and never retried.
func (p *PurchaseProvider) Purchase(ctx context.Context, playerID, productID string) (*providers.PurchaseResult, error) {
	body := map[string]interface{}{
		"player_id":  playerID,
		"product_id": productID,
	}

	key := uuid.NewString()
	headers := map[string]string{IdempotencyKeyHeader: key}

	var result types.SuccessResponse[providers.PurchaseResult]
	if err := p.client.PostJSON(ctx, "/purchases", body, headers, &result); err != nil {
		return nil, fmt.Errorf("failed to purchase %s (key %s): %w", productID, key, err)
	}
	if !result.IsSuccess {
		return nil, fmt.Errorf("purchase of %s failed with status %d", productID, result.StatusCode)
	}
	if result.Data.ProductID != productID {
		return nil, fmt.Errorf("store confirmed %q, expected %q", result.Data.ProductID, productID)
	}

	p.logger.Info().
		Str("player_id", playerID).
		Str("product_id", productID).
		Str("transaction_id", result.Data.TransactionID).
		Msg("Purchase completed")
	return &result.Data, nil
}
