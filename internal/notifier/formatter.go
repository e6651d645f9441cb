package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"FinanceModels/internal/model"
)

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

func signedPercent(v float64) string {
	s := percent(v)
	if v >= 0 {
		return "+" + s
	}
	return s
}

// FormatAlpha formats a CAPM alpha reply.
func FormatAlpha(ticker string, alpha float64) string {
	return fmt.Sprintf("📐 <b>%s</b> CAPM alpha: %s", html.EscapeString(ticker), signedPercent(alpha))
}

// FormatOptionPrice formats a Black-Scholes price reply.
func FormatOptionPrice(ticker string, typ model.OptionType, strike, maturity, price float64) string {
	return fmt.Sprintf("🧮 <b>%s</b> %s K=%s T=%sy: %s",
		html.EscapeString(ticker), typ, money(strike),
		decimal.NewFromFloat(maturity).StringFixed(2), money(price))
}

// FormatVaR formats a historical VaR reply.
func FormatVaR(ticker string, res model.VaRResult) string {
	return fmt.Sprintf("📉 <b>%s</b> 1-day VaR @%s: %s (%d returns)",
		html.EscapeString(ticker), percent(res.ConfidenceLevel), percent(res.Value), res.Observations)
}

// FormatError formats a failed command.
func FormatError(err error) string {
	return "⚠️ " + html.EscapeString(err.Error())
}

// FormatReport formats the metrics of one ticker.
func FormatReport(r *model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(r.Ticker))
	if _, failed := r.Errors["spot"]; !failed {
		fmt.Fprintf(&b, "  Spot: %s\n", money(r.Spot))
	}
	if _, failed := r.Errors["alpha"]; !failed {
		fmt.Fprintf(&b, "  Alpha: %s\n", signedPercent(r.Alpha))
	}
	if _, failed := r.Errors["var"]; !failed {
		fmt.Fprintf(&b, "  VaR @%s: %s\n", percent(r.VaR.ConfidenceLevel), percent(r.VaR.Value))
	}
	_, callFailed := r.Errors["call"]
	_, putFailed := r.Errors["put"]
	if _, spotFailed := r.Errors["spot"]; !spotFailed && !(callFailed && putFailed) {
		call, put := "n/a", "n/a"
		if !callFailed {
			call = money(r.ATMCall)
		}
		if !putFailed {
			put = money(r.ATMPut)
		}
		fmt.Fprintf(&b, "  ATM %sy: call %s | put %s\n",
			decimal.NewFromFloat(r.Maturity).StringFixed(2), call, put)
	}

	keys := make([]string, 0, len(r.Errors))
	for k := range r.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  ⚠️ %s: %s\n", k, html.EscapeString(r.Errors[k].Error()))
	}
	return b.String()
}

// FormatReports formats the scheduled watchlist report.
func FormatReports(reports []*model.Report, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>FinanceModels report</b> | %s\n\n", at.Format("2006-01-02 15:04"))
	if len(reports) == 0 {
		b.WriteString("Watchlist is empty.\n")
		return b.String()
	}
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatReport(r))
	}
	return b.String()
}
