package marketdata

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"FinanceModels/internal/calculator"
	"FinanceModels/internal/model"
)

// YahooSource implements Source on Yahoo Finance. Yahoo publishes prices
// only, so beta, volatility and market return are derived from daily closes
// over Window observations and reported in annualized terms.
type YahooSource struct {
	MarketIndex string // e.g. ^GSPC
	RateTicker  string // quoted in percent, e.g. ^IRX
	Window      int
}

// NewYahooSource creates a Yahoo-backed source.
func NewYahooSource(marketIndex string, window int) *YahooSource {
	if marketIndex == "" {
		marketIndex = "^GSPC"
	}
	if window <= 0 {
		window = calculator.TradingDaysPerYear
	}
	return &YahooSource{MarketIndex: marketIndex, RateTicker: "^IRX", Window: window}
}

// ConfigureYahooHTTP sets the HTTP client finance-go uses process-wide.
func ConfigureYahooHTTP(proxyURL string, timeout time.Duration) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	finance.SetHTTPClient(&http.Client{Timeout: timeout, Transport: transport})
}

func (y *YahooSource) Name() string { return "yahoo" }

func (y *YahooSource) PriceSeries(ctx context.Context, ticker string, lookback int) (*model.PriceSeries, error) {
	if err := ValidateTicker(ticker); err != nil {
		return nil, err
	}
	if err := validateLookback(lookback); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w: %w", ticker, model.ErrDataUnavailable, err)
	}

	// Calendar span large enough to cover lookback trading days plus holidays.
	end := time.Now()
	start := end.AddDate(0, 0, -(lookback*7/5 + 10))
	iter := chart.Get(&chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})
	var bars []*finance.ChartBar
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w: %w", ticker, model.ErrDataUnavailable, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: no bars: %w", ticker, model.ErrInvalidTicker)
	}

	series, err := barsToSeries(ticker, bars)
	if err != nil {
		return nil, err
	}
	if len(series.Points) > lookback {
		series.Points = series.Points[len(series.Points)-lookback:]
	}
	return series, nil
}

func (y *YahooSource) LatestPrice(ctx context.Context, ticker string) (float64, error) {
	if err := ValidateTicker(ticker); err != nil {
		return 0, err
	}
	return y.quotePrice(ctx, ticker)
}

// RiskFreeRate converts the T-bill yield quote from percent to decimal.
func (y *YahooSource) RiskFreeRate(ctx context.Context) (float64, error) {
	pct, err := y.quotePrice(ctx, y.RateTicker)
	if err != nil {
		return 0, err
	}
	return pct / 100, nil
}

// MarketReturn is the annualized mean daily simple return of the market index.
func (y *YahooSource) MarketReturn(ctx context.Context) (float64, error) {
	series, err := y.PriceSeries(ctx, y.MarketIndex, y.Window)
	if err != nil {
		return 0, err
	}
	returns, err := calculator.CalculateReturns(series.Prices())
	if err != nil {
		return 0, fmt.Errorf("market return %s: %w", y.MarketIndex, err)
	}
	mean, err := calculator.CalculateMean(returns)
	if err != nil {
		return 0, err
	}
	return mean * calculator.TradingDaysPerYear, nil
}

func (y *YahooSource) Volatility(ctx context.Context, ticker string) (float64, error) {
	series, err := y.PriceSeries(ctx, ticker, y.Window)
	if err != nil {
		return 0, err
	}
	vol, err := calculator.CalculateAnnualizedVolatility(series.Prices(), calculator.TradingDaysPerYear)
	if err != nil {
		return 0, fmt.Errorf("volatility %s: %w", ticker, err)
	}
	return vol, nil
}

func (y *YahooSource) Beta(ctx context.Context, ticker string) (float64, error) {
	asset, err := y.PriceSeries(ctx, ticker, y.Window)
	if err != nil {
		return 0, err
	}
	market, err := y.PriceSeries(ctx, y.MarketIndex, y.Window)
	if err != nil {
		return 0, err
	}
	assetPrices, marketPrices := alignSeries(asset, market)
	if len(assetPrices) < len(asset.Points)/2 {
		log.Printf("[WARN] beta %s: only %d of %d sessions overlap with %s", ticker, len(assetPrices), len(asset.Points), y.MarketIndex)
	}
	assetReturns, err := calculator.CalculateReturns(assetPrices)
	if err != nil {
		return 0, fmt.Errorf("beta %s: %w", ticker, err)
	}
	marketReturns, err := calculator.CalculateReturns(marketPrices)
	if err != nil {
		return 0, fmt.Errorf("beta %s: %w", ticker, err)
	}
	return calculator.CalculateBeta(assetReturns, marketReturns)
}

func (y *YahooSource) quotePrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("yahoo quote %s: %w: %w", symbol, model.ErrDataUnavailable, err)
	}
	q, err := quote.Get(symbol)
	if err != nil {
		return 0, fmt.Errorf("yahoo quote %s: %w: %w", symbol, model.ErrDataUnavailable, err)
	}
	if q == nil {
		return 0, fmt.Errorf("yahoo quote %s: not found: %w", symbol, model.ErrInvalidTicker)
	}
	return q.RegularMarketPrice, nil
}

// barsToSeries converts chart bars to a validated series, skipping bars
// without a positive close (holidays, halted sessions).
func barsToSeries(ticker string, bars []*finance.ChartBar) (*model.PriceSeries, error) {
	points := make([]model.PricePoint, 0, len(bars))
	for _, b := range bars {
		if b == nil || b.Close.Sign() <= 0 {
			continue
		}
		t := time.Unix(int64(b.Timestamp), 0).UTC()
		if n := len(points); n > 0 && !points[n-1].Time.Before(t) {
			continue
		}
		points = append(points, model.PricePoint{Time: t, Price: b.Close.InexactFloat64()})
	}
	series := &model.PriceSeries{Ticker: ticker, Points: points, FetchedAt: time.Now()}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	return series, nil
}

// alignSeries keeps the sessions present in both series, matched by UTC date.
func alignSeries(a, b *model.PriceSeries) ([]float64, []float64) {
	byDate := make(map[string]float64, len(b.Points))
	for _, p := range b.Points {
		byDate[p.Time.UTC().Format(time.DateOnly)] = p.Price
	}
	var left, right []float64
	for _, p := range a.Points {
		if v, ok := byDate[p.Time.UTC().Format(time.DateOnly)]; ok {
			left = append(left, p.Price)
			right = append(right, v)
		}
	}
	return left, right
}
