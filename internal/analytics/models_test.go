package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"FinanceModels/internal/cache"
	"FinanceModels/internal/calculator"
	"FinanceModels/internal/marketdata"
	"FinanceModels/internal/model"
)

// pricesFromReturns compounds returns onto a starting price of 100.
func pricesFromReturns(returns []float64) []float64 {
	prices := []float64{100}
	for _, r := range returns {
		prices = append(prices, prices[len(prices)-1]*(1+r))
	}
	return prices
}

var tenReturns = []float64{0.03, -0.02, 0.05, -0.05, 0.01, 0.0, -0.01, 0.04, -0.03, 0.02}

func newMock() *marketdata.MockSource {
	return &marketdata.MockSource{
		Prices:   map[string][]float64{"TSLA": pricesFromReturns(tenReturns), "FLAT": {100, 102, 104.04}},
		Betas:    map[string]float64{"TSLA": 2.0, "FLAT": 1.5},
		Latest:   map[string]float64{"TSLA": 110, "FLAT": 104.04, "STILL": 50},
		Vols:     map[string]float64{"TSLA": 0.55, "FLAT": 0.2, "STILL": 0},
		RiskFree: 0.04,
		Market:   0.10,
	}
}

// stubService serves the TSLA fixture over HTTP.
func stubService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := r.URL.Query().Get("ticker")
		switch r.URL.Path {
		case "/risk-free-rate":
			fmt.Fprint(w, `0.04`)
			return
		case "/market-return":
			fmt.Fprint(w, `0.10`)
			return
		}
		if ticker != "TSLA" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Path {
		case "/price":
			fmt.Fprint(w, `{"price": 110}`)
		case "/volatility":
			fmt.Fprint(w, `{"volatility": 0.55}`)
		case "/beta":
			fmt.Fprint(w, `{"beta": 2.0}`)
		case "/prices":
			fmt.Fprint(w, "[")
			for i, p := range pricesFromReturns(tenReturns) {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, "[%d, %v]", 1700000000+i*86400, p)
			}
			fmt.Fprint(w, "]")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPriceOption_EndToEndAgainstStubService(t *testing.T) {
	m := NewFromBaseURL(stubService(t).URL)
	ctx := context.Background()

	call, err := m.PriceOption(ctx, "TSLA", "call", 120, 1)
	if err != nil {
		t.Fatalf("call: unexpected error: %v", err)
	}
	if math.Abs(call-21.84835644028491) > 1e-9 {
		t.Errorf("call: expected 21.848356, got %v", call)
	}

	put, err := m.PriceOption(ctx, "TSLA", "put", 100, 0.5)
	if err != nil {
		t.Fatalf("put: unexpected error: %v", err)
	}
	if math.Abs(put-10.736198577556529) > 1e-9 {
		t.Errorf("put: expected 10.736199, got %v", put)
	}

	if _, err := m.PriceOption(ctx, "NOPE", "call", 100, 1); !errors.Is(err, model.ErrInvalidTicker) {
		t.Errorf("unknown ticker: expected ErrInvalidTicker, got %v", err)
	}
}

func TestHistoricalVaR_EndToEndAgainstStubService(t *testing.T) {
	m := NewFromBaseURL(stubService(t).URL)
	res, err := m.HistoricalVaR(context.Background(), "TSLA", 0.90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Value-0.032) > 1e-9 {
		t.Errorf("expected VaR 0.032, got %v", res.Value)
	}
	if res.Observations != 10 {
		t.Errorf("expected 10 returns, got %d", res.Observations)
	}
}

func TestPriceOption_InvalidOptionType(t *testing.T) {
	mock := newMock()
	m := New(mock, DefaultOptions())
	for _, typ := range []string{"straddle", "", "calls"} {
		if _, err := m.PriceOption(context.Background(), "TSLA", typ, 100, 1); !errors.Is(err, model.ErrInvalidOptionType) {
			t.Errorf("%q: expected ErrInvalidOptionType, got %v", typ, err)
		}
	}
	if mock.Calls("price") != 0 {
		t.Error("invalid option type should fail before fetching")
	}
	if _, err := m.PriceOption(context.Background(), "TSLA", " PUT ", 100, 1); err != nil {
		t.Errorf("type parsing should be case-insensitive: %v", err)
	}
}

func TestPriceOption_InvalidInputAndDegenerate(t *testing.T) {
	m := New(newMock(), DefaultOptions())
	ctx := context.Background()
	tests := []struct {
		name   string
		ticker string
		strike float64
		T      float64
		want   error
	}{
		{"zero strike", "TSLA", 0, 1, model.ErrInvalidInput},
		{"negative maturity", "TSLA", 100, -0.5, model.ErrInvalidInput},
		{"empty ticker", "", 100, 1, model.ErrInvalidTicker},
		{"zero volatility", "STILL", 50, 1, model.ErrDegenerateParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.PriceOption(ctx, tt.ticker, "call", tt.strike, tt.T); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestComputeCAPMAlpha(t *testing.T) {
	// FLAT returns are 0.02 each period
	m := New(newMock(), Options{Lookback: 10, AnnualizationFactor: 1})
	alpha, err := m.ComputeCAPMAlpha(context.Background(), "FLAT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// expected = 0.04 + 1.5*(0.10-0.04) = 0.13
	if math.Abs(alpha-(0.02-0.13)) > 1e-12 {
		t.Errorf("expected alpha -0.11, got %v", alpha)
	}

	annual := New(newMock(), Options{Lookback: 10, AnnualizationFactor: 252})
	alpha, err = annual.ComputeCAPMAlpha(context.Background(), "FLAT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(alpha-(0.02*252-0.13)) > 1e-9 {
		t.Errorf("expected annualized alpha 4.91, got %v", alpha)
	}
}

func TestComputeCAPMAlpha_Errors(t *testing.T) {
	ctx := context.Background()

	short := newMock()
	short.Prices["ONE"] = []float64{100}
	short.Betas["ONE"] = 1
	if _, err := New(short, DefaultOptions()).ComputeCAPMAlpha(ctx, "ONE"); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("single price: expected ErrInsufficientData, got %v", err)
	}

	nonFinite := newMock()
	nonFinite.Market = math.Inf(1)
	if _, err := New(nonFinite, DefaultOptions()).ComputeCAPMAlpha(ctx, "TSLA"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("infinite market return: expected ErrInvalidInput, got %v", err)
	}

	down := newMock()
	down.Err = fmt.Errorf("upstream 503: %w", model.ErrDataUnavailable)
	if _, err := New(down, DefaultOptions()).ComputeCAPMAlpha(ctx, "TSLA"); !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("unavailable source: expected ErrDataUnavailable, got %v", err)
	}

	if _, err := New(newMock(), Options{AnnualizationFactor: -1}).ComputeCAPMAlpha(ctx, "TSLA"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("negative annualization: expected ErrInvalidInput, got %v", err)
	}
}

func TestHistoricalVaR_Validation(t *testing.T) {
	mock := newMock()
	m := New(mock, DefaultOptions())
	ctx := context.Background()

	for _, c := range []float64{0, 1, -0.5, 2} {
		if _, err := m.HistoricalVaR(ctx, "TSLA", c); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("confidence %v: expected ErrInvalidInput, got %v", c, err)
		}
	}
	if mock.Calls("prices") != 0 {
		t.Error("invalid confidence should fail before fetching")
	}

	if _, err := m.HistoricalVaRWithLookback(ctx, "TSLA", 0.95, 2); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("lookback 2: expected ErrInsufficientData, got %v", err)
	}
	mock.Prices["TWO"] = []float64{100, 99}
	if _, err := m.HistoricalVaR(ctx, "TWO", 0.95); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("one return: expected ErrInsufficientData, got %v", err)
	}
}

func TestResultsIndependentOfCache(t *testing.T) {
	ctx := context.Background()
	plain := New(newMock(), DefaultOptions())
	cached := New(marketdata.NewCachedSource(newMock(), cache.NewMemoryStore(64), time.Minute), DefaultOptions())

	for i := 0; i < 2; i++ {
		a1, err1 := plain.ComputeCAPMAlpha(ctx, "TSLA")
		a2, err2 := cached.ComputeCAPMAlpha(ctx, "TSLA")
		if err1 != nil || err2 != nil || a1 != a2 {
			t.Errorf("alpha mismatch: %v/%v vs %v/%v", a1, err1, a2, err2)
		}
		v1, _ := plain.HistoricalVaR(ctx, "TSLA", 0.95)
		v2, _ := cached.HistoricalVaR(ctx, "TSLA", 0.95)
		if v1 != v2 {
			t.Errorf("VaR mismatch: %+v vs %+v", v1, v2)
		}
		p1, _ := plain.PriceOption(ctx, "TSLA", "call", 120, 1)
		p2, _ := cached.PriceOption(ctx, "TSLA", "call", 120, 1)
		if p1 != p2 {
			t.Errorf("price mismatch: %v vs %v", p1, p2)
		}
	}
}

func TestModels_ConcurrentCalls(t *testing.T) {
	m := New(newMock(), DefaultOptions())
	ctx := context.Background()
	want, err := m.PriceOption(ctx, "TSLA", "put", 100, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.PriceOption(ctx, "TSLA", "put", 100, 0.5)
			if err != nil || got != want {
				errs <- fmt.Errorf("got %v, %v", got, err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestEvaluate(t *testing.T) {
	m := New(newMock(), DefaultOptions())
	r := m.Evaluate(context.Background(), "TSLA", 0.9, 0.5)
	if !r.OK() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if r.Spot != 110 || r.ATMCall <= 0 || r.ATMPut <= 0 {
		t.Errorf("unexpected option figures %+v", r)
	}
	if math.Abs(r.VaR.Value-0.032) > 1e-9 {
		t.Errorf("expected VaR 0.032, got %v", r.VaR.Value)
	}

	bad := m.Evaluate(context.Background(), "MISSING", 0.9, 0.5)
	if bad.OK() || !errors.Is(bad.Errors["spot"], model.ErrInvalidTicker) {
		t.Errorf("expected spot failure for unknown ticker, got %v", bad.Errors)
	}
}

// driftingSource moves the latest price on every request.
type driftingSource struct {
	*marketdata.MockSource
	quotes int
}

func (d *driftingSource) LatestPrice(_ context.Context, _ string) (float64, error) {
	d.quotes++
	return 100 + float64(d.quotes), nil
}

func TestEvaluate_OptionsPricedAtFetchedSpot(t *testing.T) {
	src := &driftingSource{MockSource: newMock()}
	r := New(src, DefaultOptions()).Evaluate(context.Background(), "TSLA", 0.9, 0.5)
	if !r.OK() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if src.quotes != 1 {
		t.Errorf("expected one spot fetch, got %d", src.quotes)
	}
	for _, tt := range []struct {
		typ model.OptionType
		got float64
	}{{model.Call, r.ATMCall}, {model.Put, r.ATMPut}} {
		want, err := calculator.CalculateBlackScholes(model.OptionParameters{
			Spot: r.Spot, Strike: r.Spot, TimeToMaturity: 0.5,
			RiskFreeRate: 0.04, Volatility: 0.55, Type: tt.typ,
		})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(tt.got-want) > 1e-12 {
			t.Errorf("%s: expected %v at spot %v, got %v", tt.typ, want, r.Spot, tt.got)
		}
	}
}
