package model

import (
	"fmt"
	"math"
	"time"
)

// PricePoint is a single observation of a ticker's price.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// PriceSeries holds chronological price observations for one ticker.
type PriceSeries struct {
	Ticker    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Prices returns the price values in chronological order.
func (s *PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price
	}
	return prices
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int { return len(s.Points) }

// Validate checks ordering, uniqueness and positivity of the series.
func (s *PriceSeries) Validate() error {
	for i, p := range s.Points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			return fmt.Errorf("price at %s is %v: %w", p.Time.Format(time.RFC3339), p.Price, ErrDataUnavailable)
		}
		if i > 0 && !s.Points[i-1].Time.Before(p.Time) {
			return fmt.Errorf("timestamps not strictly increasing at index %d: %w", i, ErrDataUnavailable)
		}
	}
	return nil
}

// MarketParameters bundles the scalar CAPM inputs.
type MarketParameters struct {
	Beta         float64
	RiskFreeRate float64 // decimal form, e.g. 0.04
	MarketReturn float64 // same period convention as Beta
}

// Validate requires every field to be finite.
func (m MarketParameters) Validate() error {
	if !isFinite(m.Beta) {
		return fmt.Errorf("beta %v: %w", m.Beta, ErrInvalidInput)
	}
	if !isFinite(m.RiskFreeRate) {
		return fmt.Errorf("risk-free rate %v: %w", m.RiskFreeRate, ErrInvalidInput)
	}
	if !isFinite(m.MarketReturn) {
		return fmt.Errorf("market return %v: %w", m.MarketReturn, ErrInvalidInput)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
