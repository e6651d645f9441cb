package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"FinanceModels/internal/model"
	"FinanceModels/internal/notifier"
	"FinanceModels/internal/scheduler"
)

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	a.close()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}

	rootCmd := &cobra.Command{
		Use:   "finmodels",
		Short: "CAPM alpha, Black-Scholes and historical VaR from market data",
		Long: `finmodels fetches market figures from a JSON market-data service (or Yahoo
Finance) and computes CAPM alpha, European option prices and historical
Value-at-Risk for a ticker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", defaultConfig, "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "Market-data service base URL (overrides config)")

	rootCmd.AddCommand(newCAPMCmd(a))
	rootCmd.AddCommand(newOptionCmd(a))
	rootCmd.AddCommand(newVaRCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

func newCAPMCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "capm TICKER",
		Short: "Compute the CAPM alpha of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.models()
			if err != nil {
				return err
			}
			ticker := strings.ToUpper(args[0])
			alpha, err := m.ComputeCAPMAlpha(cmd.Context(), ticker)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s alpha: %.6f\n", ticker, alpha)
			return nil
		},
	}
}

func newOptionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "option TICKER call|put STRIKE MATURITY_YEARS",
		Short: "Price a European option with Black-Scholes",
		Long: `Price a European call or put on TICKER using the latest spot price,
volatility and risk-free rate from the data source.
Example: finmodels option TSLA call 120 0.5`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := strings.ToUpper(args[0])
			typ, err := model.ParseOptionType(args[1])
			if err != nil {
				return err
			}
			strike, err := parseFloatArg("strike", args[2])
			if err != nil {
				return err
			}
			maturity, err := parseFloatArg("maturity", args[3])
			if err != nil {
				return err
			}

			m, err := a.models()
			if err != nil {
				return err
			}
			price, err := m.PriceOptionType(cmd.Context(), ticker, typ, strike, maturity)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s K=%g T=%g: %.6f\n", ticker, typ, strike, maturity, price)
			return nil
		},
	}
}

func newVaRCmd(a *app) *cobra.Command {
	var (
		confidence float64
		lookback   int
	)
	cmd := &cobra.Command{
		Use:   "var TICKER",
		Short: "Estimate one-period historical Value-at-Risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.models()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("confidence") {
				confidence = a.cfg.Analytics.VaRConfidence
			}
			if !cmd.Flags().Changed("lookback") {
				lookback = a.cfg.Analytics.Lookback
			}
			ticker := strings.ToUpper(args[0])
			res, err := m.HistoricalVaRWithLookback(cmd.Context(), ticker, confidence, lookback)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s VaR(%g): %.6f over %d returns\n",
				ticker, res.ConfidenceLevel, res.Value, res.Observations)
			return nil
		},
	}
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "Confidence level in (0,1)")
	cmd.Flags().IntVar(&lookback, "lookback", 252, "Number of prices to use")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Send scheduled watchlist reports and answer Telegram commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if err := cfg.ValidateWatch(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			m, err := a.models()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			sched := scheduler.NewScheduler(ctx, m, tn, cfg.Watchlist, cfg.Analytics.VaRConfidence, cfg.Analytics.OptionMaturity)
			if err := sched.Register(cfg.Schedule.ReportCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Println("[INFO] Telegram polling started")

			if runNow {
				log.Println("[INFO] --run-now set, sending report now")
				go sched.RunReportNow()
			}

			log.Printf("[INFO] watching %v. Press Ctrl+C to stop.", cfg.Watchlist)
			<-ctx.Done()
			log.Println("[INFO] shutdown signal received, stopping...")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", os.Getenv("RUN_ON_START") == "true", "Send a report immediately on start")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(a.cfg.Redacted())
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func parseFloatArg(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number: %w", name, s, model.ErrInvalidInput)
	}
	return v, nil
}
