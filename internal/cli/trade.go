package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cryptodesk/internal/models"
	"cryptodesk/internal/monitor"
	"cryptodesk/internal/portfolio"
	"cryptodesk/pkg/utils"
)

// newTradeCmd creates the trade command group.
func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Open and close simulated trades",
	}

	cmd.AddCommand(newTradeOpenCmd(app))
	cmd.AddCommand(newTradeCloseCmd(app))
	return cmd
}

func newTradeOpenCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open SYMBOL AMOUNT",
		Short: "Open a trade at the current market price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := args[0]

			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			side := models.SideBuy
			if sell, _ := cmd.Flags().GetBool("sell"); sell {
				side = models.SideSell
			}

			price, _ := cmd.Flags().GetFloat64("price")
			if price <= 0 {
				price, err = app.Market.Price(cmd.Context(), symbol)
				if err != nil {
					return err
				}
			}

			tp, _ := cmd.Flags().GetFloat64("tp")
			sl, _ := cmd.Flags().GetFloat64("sl")

			trade, err := app.Portfolio.OpenTrade(cmd.Context(), portfolio.OpenRequest{
				Symbol:     symbol,
				Side:       side,
				Amount:     amount,
				Price:      price,
				TakeProfit: tp,
				StopLoss:   sl,
			})
			if err != nil {
				output.Error("Trade rejected: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Opened %s %s %s at %s", trade.Side, utils.FormatAmount(trade.Amount),
				trade.Symbol, utils.FormatUSD(trade.Price))
			output.Dim("Trade ID: %s", trade.ID)
			return nil
		},
	}

	cmd.Flags().Bool("sell", false, "open a sell (short) trade")
	cmd.Flags().Float64("price", 0, "entry price (default: current market price)")
	cmd.Flags().Float64("tp", 0, "take-profit price")
	cmd.Flags().Float64("sl", 0, "stop-loss price")
	return cmd
}

func newTradeCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close TRADE_ID",
		Short: "Close an open trade at the current market price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			trade, ok := app.Portfolio.Trade(args[0])
			if !ok {
				return fmt.Errorf("trade %s not found", args[0])
			}

			price, err := app.Market.BestAsk(cmd.Context(), trade.Symbol)
			if err != nil {
				return err
			}

			diff := (price - trade.Price) * trade.Amount
			if trade.Side == models.SideSell {
				diff = -diff
			}

			closed, err := app.Portfolio.CloseTrade(cmd.Context(), trade.ID, diff, monitor.ReasonManual)
			if err != nil {
				output.Error("Close failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(closed)
			}
			output.Success("Closed %s at %s, P&L %s", closed.Symbol,
				utils.FormatUSD(price), output.PnL(closed.Profit))
			return nil
		},
	}
}
