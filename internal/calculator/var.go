package calculator

import (
	"fmt"
	"math"
	"sort"

	"FinanceModels/internal/model"
)

// MinVaRObservations is the smallest return sample a historical VaR is
// computed from. Two returns are the least that allow interpolation between
// order statistics.
const MinVaRObservations = 2

// CalculateQuantile returns the p-quantile of an ascending sorted sample,
// interpolating linearly between the order statistics around p*(n-1).
func CalculateQuantile(sorted []float64, p float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, fmt.Errorf("quantile of empty sample: %w", model.ErrInsufficientData)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("quantile level %v outside [0,1]: %w", p, model.ErrInvalidInput)
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo]), nil
}

// CalculateHistoricalVaR estimates Value-at-Risk from the empirical return
// distribution: VaR = -quantile(returns, 1-confidence), floored at zero.
func CalculateHistoricalVaR(returns []float64, confidence float64) (model.VaRResult, error) {
	if !(confidence > 0 && confidence < 1) {
		return model.VaRResult{}, fmt.Errorf("confidence level %v outside (0,1): %w", confidence, model.ErrInvalidInput)
	}
	if len(returns) < MinVaRObservations {
		return model.VaRResult{}, fmt.Errorf("need at least %d returns, got %d: %w",
			MinVaRObservations, len(returns), model.ErrInsufficientData)
	}
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return model.VaRResult{}, fmt.Errorf("return[%d] = %v: %w", i, r, model.ErrInvalidInput)
		}
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	q, err := CalculateQuantile(sorted, 1-confidence)
	if err != nil {
		return model.VaRResult{}, err
	}
	return model.VaRResult{
		Value:           math.Max(-q, 0),
		ConfidenceLevel: confidence,
		Observations:    len(sorted),
	}, nil
}
