package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"FinanceModels/internal/cache"
	"FinanceModels/internal/model"
)

// CachedSource serves repeated requests for the same (ticker, parameter)
// from a Store for TTL. Failed fetches are never cached, and a failing
// store degrades to pass-through.
type CachedSource struct {
	Source Source
	Store  cache.Store
	TTL    time.Duration
}

// NewCachedSource wraps src with store.
func NewCachedSource(src Source, store cache.Store, ttl time.Duration) *CachedSource {
	return &CachedSource{Source: src, Store: store, TTL: ttl}
}

func (c *CachedSource) Name() string { return c.Source.Name() + "+cache" }

// cachedSeries is the stored form of a price series.
type cachedSeries struct {
	Ticker string    `json:"ticker"`
	Times  []int64   `json:"times"`
	Prices []float64 `json:"prices"`
	At     time.Time `json:"fetched_at"`
}

func (c *CachedSource) PriceSeries(ctx context.Context, ticker string, lookback int) (*model.PriceSeries, error) {
	key := fmt.Sprintf("prices:%s:%d", ticker, lookback)
	if raw, ok := c.load(ctx, key); ok {
		var cs cachedSeries
		if err := json.Unmarshal(raw, &cs); err == nil && len(cs.Times) == len(cs.Prices) {
			points := make([]model.PricePoint, len(cs.Times))
			for i := range cs.Times {
				points[i] = model.PricePoint{Time: time.Unix(cs.Times[i], 0).UTC(), Price: cs.Prices[i]}
			}
			return &model.PriceSeries{Ticker: cs.Ticker, Points: points, FetchedAt: cs.At}, nil
		}
		log.Printf("[WARN] cache entry %s unreadable, refetching", key)
	}

	series, err := c.Source.PriceSeries(ctx, ticker, lookback)
	if err != nil {
		return nil, err
	}
	cs := cachedSeries{Ticker: series.Ticker, At: series.FetchedAt}
	for _, p := range series.Points {
		cs.Times = append(cs.Times, p.Time.Unix())
		cs.Prices = append(cs.Prices, p.Price)
	}
	c.save(ctx, key, cs)
	return series, nil
}

func (c *CachedSource) Beta(ctx context.Context, ticker string) (float64, error) {
	return c.scalar(ctx, "beta:"+ticker, func() (float64, error) { return c.Source.Beta(ctx, ticker) })
}

func (c *CachedSource) RiskFreeRate(ctx context.Context) (float64, error) {
	return c.scalar(ctx, "risk_free_rate", func() (float64, error) { return c.Source.RiskFreeRate(ctx) })
}

func (c *CachedSource) MarketReturn(ctx context.Context) (float64, error) {
	return c.scalar(ctx, "market_return", func() (float64, error) { return c.Source.MarketReturn(ctx) })
}

func (c *CachedSource) LatestPrice(ctx context.Context, ticker string) (float64, error) {
	return c.scalar(ctx, "price:"+ticker, func() (float64, error) { return c.Source.LatestPrice(ctx, ticker) })
}

func (c *CachedSource) Volatility(ctx context.Context, ticker string) (float64, error) {
	return c.scalar(ctx, "volatility:"+ticker, func() (float64, error) { return c.Source.Volatility(ctx, ticker) })
}

func (c *CachedSource) scalar(ctx context.Context, key string, fetch func() (float64, error)) (float64, error) {
	if raw, ok := c.load(ctx, key); ok {
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.Printf("[WARN] cache entry %s unreadable, refetching", key)
	}
	v, err := fetch()
	if err != nil {
		return 0, err
	}
	c.save(ctx, key, v)
	return v, nil
}

func (c *CachedSource) load(ctx context.Context, key string) ([]byte, bool) {
	raw, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		log.Printf("[WARN] cache read %s: %v", key, err)
		return nil, false
	}
	return raw, ok
}

func (c *CachedSource) save(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WARN] cache encode %s: %v", key, err)
		return
	}
	if err := c.Store.Set(ctx, key, raw, c.TTL); err != nil {
		log.Printf("[WARN] cache write %s: %v", key, err)
	}
}
