package marketdata

import (
	"context"
	"fmt"
	"strings"

	"FinanceModels/internal/model"
)

// Source fetches scalar and time-series market figures. Implementations
// perform no computation beyond decoding, and no retries.
type Source interface {
	PriceSeries(ctx context.Context, ticker string, lookback int) (*model.PriceSeries, error)
	Beta(ctx context.Context, ticker string) (float64, error)
	RiskFreeRate(ctx context.Context) (float64, error)
	MarketReturn(ctx context.Context) (float64, error)
	LatestPrice(ctx context.Context, ticker string) (float64, error)
	Volatility(ctx context.Context, ticker string) (float64, error)
	Name() string
}

// ValidateTicker rejects blank ticker symbols.
func ValidateTicker(ticker string) error {
	if strings.TrimSpace(ticker) == "" {
		return fmt.Errorf("empty ticker: %w", model.ErrInvalidTicker)
	}
	return nil
}

func validateLookback(lookback int) error {
	if lookback <= 0 {
		return fmt.Errorf("lookback must be positive, got %d: %w", lookback, model.ErrInvalidInput)
	}
	return nil
}
