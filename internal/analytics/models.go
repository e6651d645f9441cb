// Package analytics computes CAPM alpha, Black-Scholes option prices and
// historical Value-at-Risk for a ticker from figures fetched through a
// marketdata.Source.
//
// Periodicity: the CAPM alpha compares the mean per-period return of the
// ticker's price series, multiplied by Options.AnnualizationFactor, with the
// risk-free rate and market return exactly as the source reports them. No
// reconciliation happens beyond that factor; callers must configure it so
// that all three figures share one horizon (e.g. 252 for daily prices and
// annual rates).
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"FinanceModels/internal/calculator"
	"FinanceModels/internal/marketdata"
	"FinanceModels/internal/model"
)

// Options tune the series-based computations.
type Options struct {
	Lookback            int     // price observations fetched for CAPM and VaR
	AnnualizationFactor float64 // multiplies the mean per-period return in CAPM
}

// DefaultOptions matches one trading year of daily prices and leaves the
// realized return per-period.
func DefaultOptions() Options {
	return Options{Lookback: calculator.TradingDaysPerYear, AnnualizationFactor: 1}
}

// Models is safe for concurrent use; it holds no mutable state.
type Models struct {
	source marketdata.Source
	opts   Options
}

// New creates Models on top of src. Zero option fields take defaults.
func New(src marketdata.Source, opts Options) *Models {
	def := DefaultOptions()
	if opts.Lookback <= 0 {
		opts.Lookback = def.Lookback
	}
	if opts.AnnualizationFactor == 0 {
		opts.AnnualizationFactor = def.AnnualizationFactor
	}
	return &Models{source: src, opts: opts}
}

// NewFromBaseURL creates Models backed by the HTTP market-data service at baseURL.
func NewFromBaseURL(baseURL string) *Models {
	return New(marketdata.NewHTTPSource(baseURL, "", "", 30*time.Second), DefaultOptions())
}

// Source returns the underlying data source.
func (m *Models) Source() marketdata.Source { return m.source }

// Options returns the effective options.
func (m *Models) Options() Options { return m.opts }

// ComputeCAPMAlpha returns realized return minus the CAPM expected return.
func (m *Models) ComputeCAPMAlpha(ctx context.Context, ticker string) (float64, error) {
	if err := marketdata.ValidateTicker(ticker); err != nil {
		return 0, err
	}
	if f := m.opts.AnnualizationFactor; math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, fmt.Errorf("annualization factor %v: %w", f, model.ErrInvalidInput)
	}

	beta, err := m.source.Beta(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("fetch beta: %w", err)
	}
	rf, err := m.source.RiskFreeRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch risk-free rate: %w", err)
	}
	mr, err := m.source.MarketReturn(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch market return: %w", err)
	}
	series, err := m.source.PriceSeries(ctx, ticker, m.opts.Lookback)
	if err != nil {
		return 0, fmt.Errorf("fetch price series: %w", err)
	}

	returns, err := calculator.CalculateReturns(series.Prices())
	if err != nil {
		return 0, fmt.Errorf("%s returns: %w", ticker, err)
	}
	mean, err := calculator.CalculateMean(returns)
	if err != nil {
		return 0, err
	}
	actual := mean * m.opts.AnnualizationFactor

	params := model.MarketParameters{Beta: beta, RiskFreeRate: rf, MarketReturn: mr}
	alpha, err := calculator.CalculateAlpha(params, actual)
	if err != nil {
		return 0, fmt.Errorf("%s alpha: %w", ticker, err)
	}
	return alpha, nil
}

// PriceOption prices a European option; optionType must be "call" or "put".
func (m *Models) PriceOption(ctx context.Context, ticker, optionType string, strike, timeToMaturity float64) (float64, error) {
	typ, err := model.ParseOptionType(optionType)
	if err != nil {
		return 0, err
	}
	return m.PriceOptionType(ctx, ticker, typ, strike, timeToMaturity)
}

// PriceOptionType is PriceOption with an already parsed option type.
func (m *Models) PriceOptionType(ctx context.Context, ticker string, typ model.OptionType, strike, timeToMaturity float64) (float64, error) {
	if err := marketdata.ValidateTicker(ticker); err != nil {
		return 0, err
	}
	if typ != model.Call && typ != model.Put {
		return 0, fmt.Errorf("%s: %w", typ, model.ErrInvalidOptionType)
	}
	if math.IsNaN(strike) || strike <= 0 {
		return 0, fmt.Errorf("strike price must be positive, got %v: %w", strike, model.ErrInvalidInput)
	}
	if math.IsNaN(timeToMaturity) || timeToMaturity <= 0 {
		return 0, fmt.Errorf("time to maturity must be positive, got %v: %w", timeToMaturity, model.ErrInvalidInput)
	}

	spot, err := m.source.LatestPrice(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("fetch spot price: %w", err)
	}
	vol, rf, err := m.optionInputs(ctx, ticker)
	if err != nil {
		return 0, err
	}
	return priceOption(ticker, typ, spot, strike, timeToMaturity, vol, rf)
}

// optionInputs fetches the volatility and risk-free rate an option price needs.
func (m *Models) optionInputs(ctx context.Context, ticker string) (vol, rf float64, err error) {
	vol, err = m.source.Volatility(ctx, ticker)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch volatility: %w", err)
	}
	rf, err = m.source.RiskFreeRate(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch risk-free rate: %w", err)
	}
	return vol, rf, nil
}

func priceOption(ticker string, typ model.OptionType, spot, strike, timeToMaturity, vol, rf float64) (float64, error) {
	price, err := calculator.CalculateBlackScholes(model.OptionParameters{
		Spot:           spot,
		Strike:         strike,
		TimeToMaturity: timeToMaturity,
		RiskFreeRate:   rf,
		Volatility:     vol,
		Type:           typ,
	})
	if err != nil {
		return 0, fmt.Errorf("%s %s option: %w", ticker, typ, err)
	}
	return price, nil
}

// HistoricalVaR estimates VaR over the configured lookback.
func (m *Models) HistoricalVaR(ctx context.Context, ticker string, confidence float64) (model.VaRResult, error) {
	return m.HistoricalVaRWithLookback(ctx, ticker, confidence, m.opts.Lookback)
}

// HistoricalVaRWithLookback estimates VaR from the last lookback prices.
func (m *Models) HistoricalVaRWithLookback(ctx context.Context, ticker string, confidence float64, lookback int) (model.VaRResult, error) {
	if err := marketdata.ValidateTicker(ticker); err != nil {
		return model.VaRResult{}, err
	}
	if !(confidence > 0 && confidence < 1) {
		return model.VaRResult{}, fmt.Errorf("confidence level %v outside (0,1): %w", confidence, model.ErrInvalidInput)
	}
	if lookback <= calculator.MinVaRObservations {
		return model.VaRResult{}, fmt.Errorf("lookback %d yields fewer than %d returns: %w",
			lookback, calculator.MinVaRObservations, model.ErrInsufficientData)
	}

	series, err := m.source.PriceSeries(ctx, ticker, lookback)
	if err != nil {
		return model.VaRResult{}, fmt.Errorf("fetch price series: %w", err)
	}
	returns, err := calculator.CalculateReturns(series.Prices())
	if err != nil {
		return model.VaRResult{}, fmt.Errorf("%s returns: %w", ticker, err)
	}
	res, err := calculator.CalculateHistoricalVaR(returns, confidence)
	if err != nil {
		return model.VaRResult{}, fmt.Errorf("%s VaR: %w", ticker, err)
	}
	return res, nil
}

// Evaluate computes every metric for ticker, recording per-metric failures
// in the report instead of aborting. Options are priced at the money.
func (m *Models) Evaluate(ctx context.Context, ticker string, confidence, maturity float64) *model.Report {
	r := &model.Report{Ticker: ticker, Maturity: maturity, Errors: make(map[string]error), At: time.Now()}

	if alpha, err := m.ComputeCAPMAlpha(ctx, ticker); err != nil {
		r.Errors["alpha"] = err
	} else {
		r.Alpha = alpha
	}

	if v, err := m.HistoricalVaR(ctx, ticker, confidence); err != nil {
		r.Errors["var"] = err
	} else {
		r.VaR = v
	}

	spot, err := m.source.LatestPrice(ctx, ticker)
	if err != nil {
		r.Errors["spot"] = fmt.Errorf("fetch spot price: %w", err)
		return r
	}
	r.Spot = spot
	vol, rf, err := m.optionInputs(ctx, ticker)
	if err != nil {
		r.Errors["call"] = err
		r.Errors["put"] = err
		return r
	}
	// strike and underlying share the one spot fetched above
	if call, err := priceOption(ticker, model.Call, spot, spot, maturity, vol, rf); err != nil {
		r.Errors["call"] = err
	} else {
		r.ATMCall = call
	}
	if put, err := priceOption(ticker, model.Put, spot, spot, maturity, vol, rf); err != nil {
		r.Errors["put"] = err
	} else {
		r.ATMPut = put
	}
	return r
}
