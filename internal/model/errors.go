package model

import "errors"

// Error classes surfaced by the data sources and calculators. Callers
// classify with errors.Is; concrete errors wrap one of these.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidTicker        = errors.New("invalid ticker")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrDegenerateParameters = errors.New("degenerate parameters")
	ErrDataUnavailable      = errors.New("data unavailable")
	ErrInvalidOptionType    = errors.New("invalid option type")
)
