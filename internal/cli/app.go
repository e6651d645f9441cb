package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"FinanceModels/internal/analytics"
	"FinanceModels/internal/cache"
	"FinanceModels/internal/config"
	"FinanceModels/internal/marketdata"
	"FinanceModels/internal/model"
)

// Exit codes reported by Execute.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitBadInput   = 2
	ExitBadData    = 3
	ExitDegenerate = 4
)

// ExitCode classifies err into a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrInvalidTicker),
		errors.Is(err, model.ErrInvalidOptionType):
		return ExitBadInput
	case errors.Is(err, model.ErrInsufficientData),
		errors.Is(err, model.ErrDataUnavailable):
		return ExitBadData
	case errors.Is(err, model.ErrDegenerateParameters):
		return ExitDegenerate
	default:
		return ExitFailure
	}
}

// app carries state shared by all subcommands of one invocation.
type app struct {
	configPath string
	baseURL    string
	cfg        *config.Config
	closers    []io.Closer
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.baseURL != "" {
		cfg.DataSource.BaseURL = a.baseURL
		cfg.DataSource.Provider = "http"
	}
	a.cfg = cfg
	a.setupLogging()
	return nil
}

// setupLogging tees the standard logger into a rotated file when configured.
func (a *app) setupLogging() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if a.cfg.Log.File == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.Log.File), 0o755); err != nil {
		log.Printf("[WARN] create log dir: %v", err)
		return
	}
	fileWriter := &lumberjack.Logger{
		Filename:   a.cfg.Log.File,
		MaxSize:    a.cfg.Log.MaxSizeMB,
		MaxBackups: a.cfg.Log.MaxBackups,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, fileWriter))
	a.closers = append(a.closers, fileWriter)
}

// models builds the configured source, wraps it in the cache and returns
// the analytics facade on top.
func (a *app) models() (*analytics.Models, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	cfg := a.cfg

	var src marketdata.Source
	switch cfg.DataSource.Provider {
	case "yahoo":
		marketdata.ConfigureYahooHTTP(cfg.Proxy, cfg.DataSource.Timeout)
		src = marketdata.NewYahooSource(cfg.DataSource.MarketIndex, cfg.Analytics.Lookback)
	default:
		src = marketdata.NewHTTPSource(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	}

	if cfg.Cache.Enabled {
		store, err := a.openStore()
		if err != nil {
			log.Printf("[WARN] init %s cache failed, running uncached: %v", cfg.Cache.Backend, err)
		} else {
			src = marketdata.NewCachedSource(src, store, cfg.Cache.TTL)
		}
	}
	log.Printf("[INFO] data source: %s", src.Name())

	return analytics.New(src, analytics.Options{
		Lookback:            cfg.Analytics.Lookback,
		AnnualizationFactor: cfg.Analytics.AnnualizationFactor,
	}), nil
}

func (a *app) openStore() (cache.Store, error) {
	if a.cfg.Cache.Backend != "sqlite" {
		return cache.NewMemoryStore(a.cfg.Cache.MaxEntries), nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.Cache.SQLitePath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	store, err := cache.NewSQLiteStore(a.cfg.Cache.SQLitePath, a.cfg.Cache.MaxEntries)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)
	return store, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("[WARN] close: %v", err)
		}
	}
	a.closers = nil
}
