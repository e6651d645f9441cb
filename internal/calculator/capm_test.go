package calculator

import (
	"errors"
	"math"
	"testing"

	"FinanceModels/internal/model"
)

func TestCalculateAlpha(t *testing.T) {
	p := model.MarketParameters{Beta: 1.2, RiskFreeRate: 0.04, MarketReturn: 0.10}
	alpha, err := CalculateAlpha(p, 0.15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// expected = 0.04 + 1.2*0.06 = 0.112
	if math.Abs(alpha-0.038) > 1e-12 {
		t.Errorf("expected alpha 0.038, got %v", alpha)
	}
}

func TestCalculateAlpha_LinearInRiskPremium(t *testing.T) {
	const beta, rf, actual = 0.8, 0.03, 0.09
	base := model.MarketParameters{Beta: beta, RiskFreeRate: rf, MarketReturn: 0.07}
	premium := base.MarketReturn - rf
	doubled := base
	doubled.MarketReturn = rf + 2*premium

	a1, err := CalculateAlpha(base, actual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, err := CalculateAlpha(doubled, actual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta := a1 - a2; math.Abs(delta-beta*premium) > 1e-12 {
		t.Errorf("expected alpha to drop by beta*premium=%v, dropped by %v", beta*premium, delta)
	}
}

func TestCalculateAlpha_LinearInBeta(t *testing.T) {
	p := model.MarketParameters{Beta: 1, RiskFreeRate: 0.02, MarketReturn: 0.08}
	a1, _ := CalculateAlpha(p, 0.05)
	p.Beta = 2
	a2, _ := CalculateAlpha(p, 0.05)
	p.Beta = 3
	a3, _ := CalculateAlpha(p, 0.05)
	if math.Abs((a1-a2)-(a2-a3)) > 1e-12 {
		t.Errorf("alpha not linear in beta: %v %v %v", a1, a2, a3)
	}
}

func TestCalculateAlpha_NonFiniteInputs(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name   string
		params model.MarketParameters
		actual float64
	}{
		{"nan beta", model.MarketParameters{Beta: nan, RiskFreeRate: 0.01, MarketReturn: 0.05}, 0.1},
		{"inf risk-free", model.MarketParameters{Beta: 1, RiskFreeRate: inf, MarketReturn: 0.05}, 0.1},
		{"nan market", model.MarketParameters{Beta: 1, RiskFreeRate: 0.01, MarketReturn: nan}, 0.1},
		{"inf actual", model.MarketParameters{Beta: 1, RiskFreeRate: 0.01, MarketReturn: 0.05}, -inf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CalculateAlpha(tt.params, tt.actual); !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
