package calculator

import (
	"fmt"
	"math"

	"FinanceModels/internal/model"
)

// CalculateExpectedReturn returns rf + beta*(marketReturn - rf).
func CalculateExpectedReturn(p model.MarketParameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p.RiskFreeRate + p.Beta*(p.MarketReturn-p.RiskFreeRate), nil
}

// CalculateAlpha returns actualReturn minus the CAPM expected return.
// The formula does not reconcile periodicity: actualReturn, the risk-free
// rate and the market return must already share the same horizon.
func CalculateAlpha(p model.MarketParameters, actualReturn float64) (float64, error) {
	if math.IsNaN(actualReturn) || math.IsInf(actualReturn, 0) {
		return 0, fmt.Errorf("actual return %v: %w", actualReturn, model.ErrInvalidInput)
	}
	expected, err := CalculateExpectedReturn(p)
	if err != nil {
		return 0, err
	}
	return actualReturn - expected, nil
}
