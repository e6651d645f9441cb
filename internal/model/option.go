package model

import (
	"fmt"
	"strings"
)

// OptionType selects the payoff of a European option.
type OptionType int

const (
	Call OptionType = iota + 1
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

// ParseOptionType accepts "call" or "put", case-insensitive.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidOptionType)
	}
}

// OptionParameters are the inputs of the Black-Scholes closed form.
type OptionParameters struct {
	Spot           float64
	Strike         float64
	TimeToMaturity float64 // years
	RiskFreeRate   float64
	Volatility     float64 // annualized
	Type           OptionType
}

// Validate checks the domain of every parameter. A zero volatility is
// accepted here; the pricer rejects it as degenerate.
func (p OptionParameters) Validate() error {
	if p.Type != Call && p.Type != Put {
		return fmt.Errorf("%s: %w", p.Type, ErrInvalidOptionType)
	}
	if !isFinite(p.Spot) || p.Spot <= 0 {
		return fmt.Errorf("spot price must be positive, got %v: %w", p.Spot, ErrInvalidInput)
	}
	if !isFinite(p.Strike) || p.Strike <= 0 {
		return fmt.Errorf("strike price must be positive, got %v: %w", p.Strike, ErrInvalidInput)
	}
	if !isFinite(p.TimeToMaturity) || p.TimeToMaturity <= 0 {
		return fmt.Errorf("time to maturity must be positive, got %v: %w", p.TimeToMaturity, ErrInvalidInput)
	}
	if !isFinite(p.Volatility) || p.Volatility < 0 {
		return fmt.Errorf("volatility must be non-negative, got %v: %w", p.Volatility, ErrInvalidInput)
	}
	if !isFinite(p.RiskFreeRate) {
		return fmt.Errorf("risk-free rate %v: %w", p.RiskFreeRate, ErrInvalidInput)
	}
	return nil
}
