package calculator

import (
	"fmt"
	"math"

	"FinanceModels/internal/model"
)

// NormCDF is the standard normal cumulative distribution function.
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// CalculateBlackScholes prices a European option with the Black-Scholes
// closed form. A zero vol*sqrt(T) is rejected with ErrDegenerateParameters.
func CalculateBlackScholes(p model.OptionParameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	volSqrtT := p.Volatility * math.Sqrt(p.TimeToMaturity)
	if volSqrtT == 0 {
		return 0, fmt.Errorf("volatility*sqrt(T) is zero (vol=%v, T=%v): %w",
			p.Volatility, p.TimeToMaturity, model.ErrDegenerateParameters)
	}

	d1 := (math.Log(p.Spot/p.Strike) + (p.RiskFreeRate+p.Volatility*p.Volatility/2)*p.TimeToMaturity) / volSqrtT
	d2 := d1 - volSqrtT
	discountedStrike := p.Strike * math.Exp(-p.RiskFreeRate*p.TimeToMaturity)

	var price float64
	switch p.Type {
	case model.Call:
		price = p.Spot*NormCDF(d1) - discountedStrike*NormCDF(d2)
	case model.Put:
		price = discountedStrike*NormCDF(-d2) - p.Spot*NormCDF(-d1)
	default:
		return 0, fmt.Errorf("%s: %w", p.Type, model.ErrInvalidOptionType)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("closed form produced %v: %w", price, model.ErrDegenerateParameters)
	}
	// rounding can leave deep out-of-the-money prices a hair below zero
	return math.Max(price, 0), nil
}
