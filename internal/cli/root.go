// Package cli provides the command-line interface for the dashboard backend.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cryptodesk/internal/chat"
	"cryptodesk/internal/config"
	"cryptodesk/internal/exchange"
	"cryptodesk/internal/logging"
	"cryptodesk/internal/market"
	"cryptodesk/internal/portfolio"
	"cryptodesk/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies shared by all commands.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.DataStore
	Market    *market.Client
	Portfolio *portfolio.Store
	Engine    *exchange.Engine
	Chat      *chat.Service
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("store unavailable, state will not persist")
		app.Store = store.NewMemoryStore()
	} else {
		app.Store = dataStore
	}

	app.Market = market.NewClient(market.Config{
		BaseURL:        cfg.Market.CoinGeckoURL,
		RequestTimeout: cfg.Market.RequestTimeout,
		CacheTTL:       cfg.Market.CacheTTL,
		RateLimit:      cfg.Market.RateLimit,
		RateLimitBurst: cfg.Market.RateLimitBurst,
		FallbackPrice:  cfg.Market.FallbackPrice,
		Logger:         logger,
	})

	pf, err := portfolio.NewStore(portfolio.Config{
		InitialBalance: cfg.Trading.InitialBalance,
		DataStore:      app.Store,
		Logger:         logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("portfolio state restore failed, starting fresh")
		pf, _ = portfolio.NewStore(portfolio.Config{
			InitialBalance: cfg.Trading.InitialBalance,
			Logger:         logger,
		})
	}
	app.Portfolio = pf

	app.Engine = exchange.NewEngine(exchange.Config{
		FillDelay:  cfg.Trading.FillDelay,
		BookLevels: cfg.Trading.BookLevels,
		BookSpread: cfg.Trading.BookSpread,
		Logger:     logger,
	})

	var llm chat.LLMClient
	if cfg.LLM.Enabled() {
		llm = chat.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		logger.Debug().Str("model", cfg.LLM.Model).Msg("llm backend configured")
	}
	app.Chat = chat.NewService(chat.Config{
		LLM:       llm,
		Prices:    app.Market,
		DataStore: app.Store,
		Logger:    logger,
	})

	rootCmd := &cobra.Command{
		Use:   "cryptodesk",
		Short: "Crypto trading dashboard backend",
		Long: `Cryptodesk serves the trading dashboard API: simulated order
execution, portfolio tracking with take-profit/stop-loss monitoring,
live market data and an AI trading assistant.

Use 'cryptodesk serve' to start the API server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/cryptodesk)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newTradeCmd(app))
	rootCmd.AddCommand(newPricesCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Cryptodesk v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Server")
	output.Printf("  Listen:          %s\n", cfg.Server.Addr())
	output.Println()

	output.Bold("Trading")
	output.Printf("  Initial Balance: %.2f USDC\n", cfg.Trading.InitialBalance)
	output.Printf("  Poll Interval:   %s\n", cfg.Trading.PollInterval)
	output.Printf("  Fill Delay:      %s\n", cfg.Trading.FillDelay)
	output.Printf("  Book Levels:     %d\n", cfg.Trading.BookLevels)
	output.Println()

	output.Bold("Market Data")
	output.Printf("  Provider:        %s\n", cfg.Market.CoinGeckoURL)
	output.Printf("  Cache TTL:       %s\n", cfg.Market.CacheTTL)
	output.Printf("  Fallback Price:  %.2f\n", cfg.Market.FallbackPrice)
	output.Println()

	output.Bold("Assistant")
	output.Printf("  Model:           %s\n", cfg.LLM.Model)
	output.Printf("  Configured:      %v\n", cfg.LLM.Enabled())
}
