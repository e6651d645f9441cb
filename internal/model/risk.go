package model

import "time"

// VaRResult is a historical Value-at-Risk estimate expressed as a positive
// loss fraction.
type VaRResult struct {
	Value           float64
	ConfidenceLevel float64
	Observations    int
}

// Report bundles the metrics computed for one ticker during a scheduled run.
// Fields whose computation failed are left zero and the error is kept in Errors.
type Report struct {
	Ticker   string
	Spot     float64
	Alpha    float64
	VaR      VaRResult
	ATMCall  float64
	ATMPut   float64
	Maturity float64
	Errors   map[string]error
	At       time.Time
}

// OK reports whether every metric was computed.
func (r *Report) OK() bool { return len(r.Errors) == 0 }
