package calculator

import (
	"errors"
	"math"
	"testing"

	"FinanceModels/internal/model"
)

func bsParams(spot, strike, T, r, vol float64, typ model.OptionType) model.OptionParameters {
	return model.OptionParameters{Spot: spot, Strike: strike, TimeToMaturity: T, RiskFreeRate: r, Volatility: vol, Type: typ}
}

func TestCalculateBlackScholes_ReferenceValues(t *testing.T) {
	tests := []struct {
		params model.OptionParameters
		want   float64
	}{
		{bsParams(100, 100, 1, 0.05, 0.2, model.Call), 10.450583572185565},
		{bsParams(100, 100, 1, 0.05, 0.2, model.Put), 5.573526022256971},
		{bsParams(110, 120, 1, 0.04, 0.55, model.Call), 21.84835644028491},
		{bsParams(110, 100, 0.5, 0.04, 0.55, model.Put), 10.736198577556529},
	}
	for _, tt := range tests {
		got, err := CalculateBlackScholes(tt.params)
		if err != nil {
			t.Fatalf("%+v: unexpected error: %v", tt.params, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%+v: expected %v, got %v", tt.params, tt.want, got)
		}
	}
}

func TestCalculateBlackScholes_PutCallParity(t *testing.T) {
	cases := []model.OptionParameters{
		bsParams(100, 100, 1, 0.05, 0.2, 0),
		bsParams(250, 180, 0.25, 0.01, 0.7, 0),
		bsParams(42, 60, 2, 0.03, 0.35, 0),
		bsParams(10, 9.5, 0.02, -0.005, 0.15, 0),
	}
	for _, p := range cases {
		p.Type = model.Call
		call, err := CalculateBlackScholes(p)
		if err != nil {
			t.Fatalf("call %+v: %v", p, err)
		}
		p.Type = model.Put
		put, err := CalculateBlackScholes(p)
		if err != nil {
			t.Fatalf("put %+v: %v", p, err)
		}
		parity := p.Spot - p.Strike*math.Exp(-p.RiskFreeRate*p.TimeToMaturity)
		if math.Abs((call-put)-parity) > 1e-6 {
			t.Errorf("%+v: call-put=%v, S-K*exp(-rT)=%v", p, call-put, parity)
		}
	}
}

func TestCalculateBlackScholes_MonotoneInVolatility(t *testing.T) {
	for _, typ := range []model.OptionType{model.Call, model.Put} {
		prev := -1.0
		for vol := 0.05; vol <= 1.5; vol += 0.05 {
			price, err := CalculateBlackScholes(bsParams(100, 115, 0.75, 0.03, vol, typ))
			if err != nil {
				t.Fatalf("%s vol=%v: %v", typ, vol, err)
			}
			if price < 0 {
				t.Errorf("%s vol=%v: negative price %v", typ, vol, price)
			}
			if price < prev {
				t.Errorf("%s vol=%v: price %v below price %v at lower volatility", typ, vol, price, prev)
			}
			prev = price
		}
	}
}

func TestCalculateBlackScholes_DeepOutOfTheMoneyNonNegative(t *testing.T) {
	price, err := CalculateBlackScholes(bsParams(10, 1000, 0.1, 0.05, 0.1, model.Call))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price < 0 {
		t.Errorf("expected non-negative price, got %v", price)
	}
}

func TestCalculateBlackScholes_ZeroVolatilityIsDegenerate(t *testing.T) {
	_, err := CalculateBlackScholes(bsParams(100, 100, 1, 0.05, 0, model.Call))
	if !errors.Is(err, model.ErrDegenerateParameters) {
		t.Errorf("expected ErrDegenerateParameters, got %v", err)
	}
}

func TestCalculateBlackScholes_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		params model.OptionParameters
		want   error
	}{
		{"zero strike", bsParams(100, 0, 1, 0.05, 0.2, model.Call), model.ErrInvalidInput},
		{"negative maturity", bsParams(100, 100, -1, 0.05, 0.2, model.Call), model.ErrInvalidInput},
		{"zero maturity", bsParams(100, 100, 0, 0.05, 0.2, model.Put), model.ErrInvalidInput},
		{"negative volatility", bsParams(100, 100, 1, 0.05, -0.2, model.Put), model.ErrInvalidInput},
		{"zero spot", bsParams(0, 100, 1, 0.05, 0.2, model.Call), model.ErrInvalidInput},
		{"nan rate", bsParams(100, 100, 1, math.NaN(), 0.2, model.Call), model.ErrInvalidInput},
		{"unknown type", bsParams(100, 100, 1, 0.05, 0.2, model.OptionType(7)), model.ErrInvalidOptionType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CalculateBlackScholes(tt.params); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormCDF(t *testing.T) {
	if NormCDF(0) != 0.5 {
		t.Errorf("N(0) should be 0.5, got %v", NormCDF(0))
	}
	if math.Abs(NormCDF(1.959963984540054)-0.975) > 1e-12 {
		t.Errorf("N(1.96) = %v", NormCDF(1.959963984540054))
	}
	if math.Abs(NormCDF(-3)+NormCDF(3)-1) > 1e-15 {
		t.Error("N(-x) + N(x) should equal 1")
	}
}
