package calculator

import (
	"fmt"
	"math"

	"FinanceModels/internal/model"
)

// TradingDaysPerYear is used to annualize daily statistics.
const TradingDaysPerYear = 252

// CalculateReturns derives simple period-over-period returns p[t]/p[t-1]-1.
// The result is one element shorter than prices.
func CalculateReturns(prices []float64) ([]float64, error) {
	if err := checkPrices(prices); err != nil {
		return nil, err
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = prices[i]/prices[i-1] - 1
	}
	return returns, nil
}

// CalculateLogReturns derives ln(p[t]/p[t-1]) for each consecutive pair.
func CalculateLogReturns(prices []float64) ([]float64, error) {
	if err := checkPrices(prices); err != nil {
		return nil, err
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return returns, nil
}

func checkPrices(prices []float64) error {
	if len(prices) < 2 {
		return fmt.Errorf("need at least 2 prices, got %d: %w", len(prices), model.ErrInsufficientData)
	}
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return fmt.Errorf("price[%d] = %v must be positive: %w", i, p, model.ErrInvalidInput)
		}
	}
	return nil
}

// CalculateMean returns the arithmetic mean of values.
func CalculateMean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("mean of empty series: %w", model.ErrInsufficientData)
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// CalculateStdDev returns the population standard deviation of values.
func CalculateStdDev(values []float64) (float64, error) {
	mean, err := CalculateMean(values)
	if err != nil {
		return 0, err
	}
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values))), nil
}

// CalculateAnnualizedVolatility returns the standard deviation of log returns
// scaled by sqrt(periodsPerYear).
func CalculateAnnualizedVolatility(prices []float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("periods per year must be positive: %w", model.ErrInvalidInput)
	}
	logReturns, err := CalculateLogReturns(prices)
	if err != nil {
		return 0, err
	}
	sd, err := CalculateStdDev(logReturns)
	if err != nil {
		return 0, err
	}
	return sd * math.Sqrt(float64(periodsPerYear)), nil
}

// CalculateBeta estimates cov(asset, market) / var(market) over aligned
// return series.
func CalculateBeta(assetReturns, marketReturns []float64) (float64, error) {
	if len(assetReturns) != len(marketReturns) {
		return 0, fmt.Errorf("return series length mismatch: %d vs %d: %w",
			len(assetReturns), len(marketReturns), model.ErrInvalidInput)
	}
	if len(assetReturns) < 2 {
		return 0, fmt.Errorf("need at least 2 aligned returns: %w", model.ErrInsufficientData)
	}
	ma, _ := CalculateMean(assetReturns)
	mm, _ := CalculateMean(marketReturns)
	var cov, variance float64
	for i := range assetReturns {
		dm := marketReturns[i] - mm
		cov += (assetReturns[i] - ma) * dm
		variance += dm * dm
	}
	if variance == 0 {
		return 0, fmt.Errorf("market returns have zero variance: %w", model.ErrDegenerateParameters)
	}
	return cov / variance, nil
}
