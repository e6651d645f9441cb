package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"FinanceModels/internal/analytics"
	"FinanceModels/internal/model"
	"FinanceModels/internal/notifier"
)

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the watchlist report on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron       *cron.Cron
	Models     *analytics.Models
	Notifier   Sender
	Watchlist  []string
	Confidence float64
	Maturity   float64
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, models *analytics.Models, sender Sender, watchlist []string, confidence, maturity float64) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Models:     models,
		Notifier:   sender,
		Watchlist:  watchlist,
		Confidence: confidence,
		Maturity:   maturity,
		Ctx:        ctx,
	}
}

// Register adds the report task under a six-field cron spec.
func (s *Scheduler) Register(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunReportNow executes the report task immediately.
func (s *Scheduler) RunReportNow() {
	s.reportTask()
}

// Reports evaluates every watchlist ticker concurrently, preserving order.
func (s *Scheduler) Reports(ctx context.Context) []*model.Report {
	reports := make([]*model.Report, len(s.Watchlist))
	var wg sync.WaitGroup
	for i, ticker := range s.Watchlist {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			reports[i] = s.Models.Evaluate(ctx, ticker, s.Confidence, s.Maturity)
		}(i, ticker)
	}
	wg.Wait()
	return reports
}

func (s *Scheduler) reportTask() {
	log.Printf("[INFO] running report for %d tickers", len(s.Watchlist))
	reports := s.Reports(s.Ctx)
	for _, r := range reports {
		for metric, err := range r.Errors {
			log.Printf("[WARN] %s %s: %v", r.Ticker, metric, err)
		}
	}
	s.trySend(notifier.FormatReports(reports, time.Now()))
}

const helpText = "Commands:\n" +
	"• /capm TICKER\n" +
	"• /option TICKER call|put STRIKE YEARS\n" +
	"• /var TICKER [CONFIDENCE]\n" +
	"• /report"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]
	// "/var@MyBot" in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/capm":
		if len(args) != 1 {
			return "usage: /capm TICKER"
		}
		ticker := strings.ToUpper(args[0])
		alpha, err := s.Models.ComputeCAPMAlpha(ctx, ticker)
		if err != nil {
			return notifier.FormatError(err)
		}
		return notifier.FormatAlpha(ticker, alpha)

	case "/option":
		if len(args) != 4 {
			return "usage: /option TICKER call|put STRIKE YEARS"
		}
		ticker := strings.ToUpper(args[0])
		typ, err := model.ParseOptionType(args[1])
		if err != nil {
			return notifier.FormatError(err)
		}
		strike, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return notifier.FormatError(fmt.Errorf("strike %q: %w", args[2], model.ErrInvalidInput))
		}
		maturity, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return notifier.FormatError(fmt.Errorf("maturity %q: %w", args[3], model.ErrInvalidInput))
		}
		price, err := s.Models.PriceOptionType(ctx, ticker, typ, strike, maturity)
		if err != nil {
			return notifier.FormatError(err)
		}
		return notifier.FormatOptionPrice(ticker, typ, strike, maturity, price)

	case "/var":
		if len(args) < 1 || len(args) > 2 {
			return "usage: /var TICKER [CONFIDENCE]"
		}
		ticker := strings.ToUpper(args[0])
		confidence := s.Confidence
		if len(args) == 2 {
			c, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return notifier.FormatError(fmt.Errorf("confidence %q: %w", args[1], model.ErrInvalidInput))
			}
			confidence = c
		}
		res, err := s.Models.HistoricalVaR(ctx, ticker, confidence)
		if err != nil {
			return notifier.FormatError(err)
		}
		return notifier.FormatVaR(ticker, res)

	case "/report":
		return notifier.FormatReports(s.Reports(ctx), time.Now())

	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
