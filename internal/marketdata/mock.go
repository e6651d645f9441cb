package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinanceModels/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
// Unknown tickers fail with ErrInvalidTicker; Err, when set, is returned by
// every call.
type MockSource struct {
	Prices   map[string][]float64
	Betas    map[string]float64
	Latest   map[string]float64
	Vols     map[string]float64
	RiskFree float64
	Market   float64
	Err      error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockSource) Name() string { return "mock" }

// Calls reports how many times the named operation was invoked.
func (m *MockSource) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockSource) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
	return m.Err
}

func (m *MockSource) PriceSeries(_ context.Context, ticker string, lookback int) (*model.PriceSeries, error) {
	if err := m.record("prices"); err != nil {
		return nil, err
	}
	if err := ValidateTicker(ticker); err != nil {
		return nil, err
	}
	if err := validateLookback(lookback); err != nil {
		return nil, err
	}
	prices, ok := m.Prices[ticker]
	if !ok {
		return nil, unknownTicker(ticker)
	}
	if len(prices) > lookback {
		prices = prices[len(prices)-lookback:]
	}
	return mockSeries(ticker, prices), nil
}

func (m *MockSource) Beta(_ context.Context, ticker string) (float64, error) {
	return m.lookup("beta", m.Betas, ticker)
}

func (m *MockSource) RiskFreeRate(context.Context) (float64, error) {
	if err := m.record("risk_free_rate"); err != nil {
		return 0, err
	}
	return m.RiskFree, nil
}

func (m *MockSource) MarketReturn(context.Context) (float64, error) {
	if err := m.record("market_return"); err != nil {
		return 0, err
	}
	return m.Market, nil
}

func (m *MockSource) LatestPrice(_ context.Context, ticker string) (float64, error) {
	return m.lookup("price", m.Latest, ticker)
}

func (m *MockSource) Volatility(_ context.Context, ticker string) (float64, error) {
	return m.lookup("volatility", m.Vols, ticker)
}

func (m *MockSource) lookup(op string, values map[string]float64, ticker string) (float64, error) {
	if err := m.record(op); err != nil {
		return 0, err
	}
	if err := ValidateTicker(ticker); err != nil {
		return 0, err
	}
	v, ok := values[ticker]
	if !ok {
		return 0, unknownTicker(ticker)
	}
	return v, nil
}

func unknownTicker(ticker string) error {
	return fmt.Errorf("mock: unknown ticker %q: %w", ticker, model.ErrInvalidTicker)
}

// mockSeries stamps prices on consecutive days ending today.
func mockSeries(ticker string, prices []float64) *model.PriceSeries {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	points := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = model.PricePoint{
			Time:  today.AddDate(0, 0, -(len(prices) - 1 - i)),
			Price: p,
		}
	}
	return &model.PriceSeries{Ticker: ticker, Points: points, FetchedAt: time.Now()}
}
