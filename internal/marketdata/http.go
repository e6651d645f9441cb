package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"FinanceModels/internal/model"
)

// HTTPSource implements Source against a JSON market-data service rooted at
// a base URL. Scalars are served as a bare JSON number or as an object keyed
// by the parameter name; series as [[unixSeconds, price], ...], optionally
// wrapped in {"prices": ...}. Timestamps are whole Unix seconds; fractional
// parts are truncated.
type HTTPSource struct {
	BaseURL string
	client  *resty.Client
}

// NewHTTPSource creates a source with optional bearer token and proxy.
func NewHTTPSource(baseURL, apiKey, proxyURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &HTTPSource{BaseURL: baseURL, client: client}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) PriceSeries(ctx context.Context, ticker string, lookback int) (*model.PriceSeries, error) {
	if err := ValidateTicker(ticker); err != nil {
		return nil, err
	}
	if err := validateLookback(lookback); err != nil {
		return nil, err
	}
	body, err := s.get(ctx, "/prices", map[string]string{
		"ticker": ticker,
		"limit":  strconv.Itoa(lookback),
	}, true)
	if err != nil {
		return nil, err
	}
	series, err := decodeSeries(ticker, body)
	if err != nil {
		return nil, err
	}
	// Trim to requested count
	if len(series.Points) > lookback {
		series.Points = series.Points[len(series.Points)-lookback:]
	}
	return series, nil
}

func (s *HTTPSource) Beta(ctx context.Context, ticker string) (float64, error) {
	return s.tickerScalar(ctx, "/beta", "beta", ticker)
}

func (s *HTTPSource) RiskFreeRate(ctx context.Context) (float64, error) {
	body, err := s.get(ctx, "/risk-free-rate", nil, false)
	if err != nil {
		return 0, err
	}
	return decodeScalar(body, "risk_free_rate")
}

func (s *HTTPSource) MarketReturn(ctx context.Context) (float64, error) {
	body, err := s.get(ctx, "/market-return", nil, false)
	if err != nil {
		return 0, err
	}
	return decodeScalar(body, "market_return")
}

func (s *HTTPSource) LatestPrice(ctx context.Context, ticker string) (float64, error) {
	return s.tickerScalar(ctx, "/price", "price", ticker)
}

func (s *HTTPSource) Volatility(ctx context.Context, ticker string) (float64, error) {
	return s.tickerScalar(ctx, "/volatility", "volatility", ticker)
}

func (s *HTTPSource) tickerScalar(ctx context.Context, path, field, ticker string) (float64, error) {
	if err := ValidateTicker(ticker); err != nil {
		return 0, err
	}
	body, err := s.get(ctx, path, map[string]string{"ticker": ticker}, true)
	if err != nil {
		return 0, err
	}
	v, err := decodeScalar(body, field)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", field, ticker, err)
	}
	return v, nil
}

// get issues a GET and maps the status: 2xx passes, 404/422 on a
// ticker-scoped request is a rejected ticker, anything else is unavailable.
func (s *HTTPSource) get(ctx context.Context, path string, params map[string]string, tickerScoped bool) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w: %w", path, model.ErrDataUnavailable, err)
	}
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return resp.Body(), nil
	case tickerScoped && (code == http.StatusNotFound || code == http.StatusUnprocessableEntity):
		return nil, fmt.Errorf("get %s: ticker %q rejected with status %d: %w",
			path, params["ticker"], code, model.ErrInvalidTicker)
	default:
		log.Printf("[WARN] market data %s: status %d, body: %s", path, code, resp.String())
		return nil, fmt.Errorf("get %s: status %d: %w", path, code, model.ErrDataUnavailable)
	}
}

func decodeScalar(body []byte, field string) (float64, error) {
	var v *float64
	if err := json.Unmarshal(body, &v); err != nil {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return 0, fmt.Errorf("decode %s: %w: %w", field, model.ErrDataUnavailable, err)
		}
		raw, ok := obj[field]
		if !ok {
			return 0, fmt.Errorf("decode %s: field missing: %w", field, model.ErrDataUnavailable)
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, fmt.Errorf("decode %s: %w: %w", field, model.ErrDataUnavailable, err)
		}
	}
	if v == nil {
		return 0, fmt.Errorf("decode %s: null value: %w", field, model.ErrDataUnavailable)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("decode %s: non-finite value: %w", field, model.ErrDataUnavailable)
	}
	return *v, nil
}

func decodeSeries(ticker string, body []byte) (*model.PriceSeries, error) {
	var pairs [][]float64
	if err := json.Unmarshal(body, &pairs); err != nil {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("decode prices: %w: %w", model.ErrDataUnavailable, err)
		}
		raw, ok := obj["prices"]
		if !ok {
			return nil, fmt.Errorf("decode prices: field missing: %w", model.ErrDataUnavailable)
		}
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return nil, fmt.Errorf("decode prices: %w: %w", model.ErrDataUnavailable, err)
		}
	}
	// null body or "prices": null
	if pairs == nil {
		return nil, fmt.Errorf("decode prices: null series: %w", model.ErrDataUnavailable)
	}

	points := make([]model.PricePoint, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("decode prices: entry %d has %d fields: %w", i, len(pair), model.ErrDataUnavailable)
		}
		points[i] = model.PricePoint{
			Time:  time.Unix(int64(pair[0]), 0).UTC(),
			Price: pair[1],
		}
	}
	// Ensure chronological order
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

	series := &model.PriceSeries{Ticker: ticker, Points: points, FetchedAt: time.Now()}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}
	return series, nil
}
