package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cryptodesk/internal/market"
	"cryptodesk/internal/monitor"
	"cryptodesk/internal/server"
	"cryptodesk/internal/stream"
)

// newServeCmd creates the serve command: the long-running API server
// with the fill engine, trigger monitor and tick stream behind it.
func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		Long: `Start the HTTP API server for the dashboard frontend.

Runs the simulated exchange, the take-profit/stop-loss monitor and the
websocket tick stream until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, app)
		},
	}

	cmd.Flags().Int("port", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, app *App) error {
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		app.Config.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.Engine.Start(ctx)
	defer app.Engine.Stop()

	mon := monitor.New(monitor.Config{
		Portfolio: app.Portfolio,
		Prices:    app.Market,
		Interval:  app.Config.Trading.PollInterval,
		Logger:    app.Logger,
	})
	mon.Start(ctx)
	defer mon.Stop()

	hub := stream.NewHub(stream.DefaultHubConfig(), app.Logger)
	hub.Start(ctx)

	feeder := stream.NewFeeder(stream.FeederConfig{
		Hub:      hub,
		Quotes:   app.Market,
		Symbols:  market.TrackedSymbols(),
		Interval: app.Config.Trading.PollInterval,
		Logger:   app.Logger,
	})
	feeder.Start(ctx)
	defer feeder.Stop()

	srv := server.New(server.Deps{
		Config:    app.Config,
		Logger:    app.Logger,
		Portfolio: app.Portfolio,
		Engine:    app.Engine,
		Market:    app.Market,
		Chat:      app.Chat,
		DataStore: app.Store,
		Hub:       hub,
	})

	app.Logger.Info().
		Str("addr", app.Config.Server.Addr()).
		Msg("starting dashboard backend")

	return srv.Run(ctx)
}
