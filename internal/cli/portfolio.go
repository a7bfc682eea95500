package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cryptodesk/internal/models"
	"cryptodesk/pkg/utils"
)

// newPortfolioCmd creates the portfolio command group.
func newPortfolioCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Account balance and trades",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Show account balance",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			balance := app.Portfolio.Balance()
			if output.IsJSON() {
				output.JSON(map[string]float64{"balance": balance})
				return
			}
			output.Bold("Balance: %s USDC", utils.FormatUSD(balance))
		},
	})

	trades := &cobra.Command{
		Use:   "trades",
		Short: "List trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			openOnly, _ := cmd.Flags().GetBool("open")

			var list []models.Trade
			if openOnly {
				list = app.Portfolio.OpenTrades()
			} else {
				list = app.Portfolio.Trades()
			}

			if output.IsJSON() {
				return output.JSON(list)
			}
			if len(list) == 0 {
				output.Dim("No trades.")
				return nil
			}

			table := NewTable(output, "ID", "SYMBOL", "SIDE", "AMOUNT", "PRICE", "STATUS", "P&L")
			for _, t := range list {
				table.AddRow(
					shortID(t.ID),
					t.Symbol,
					string(t.Side),
					utils.FormatAmount(t.Amount),
					utils.FormatUSD(t.Price),
					string(t.Status),
					fmt.Sprintf("%+.2f", t.Profit),
				)
			}
			table.Render()
			return nil
		},
	}
	trades.Flags().Bool("open", false, "only open trades")
	cmd.AddCommand(trades)

	return cmd
}

// newPricesCmd creates the prices command.
func newPricesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "prices",
		Short: "Show current market prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			prices := app.Market.Prices(cmd.Context())

			if output.IsJSON() {
				return output.JSON(prices)
			}

			table := NewTable(output, "SYMBOL", "PRICE")
			for _, symbol := range []string{"BTC", "ETH", "SOL", "ADA"} {
				if price, ok := prices[symbol]; ok {
					table.AddRow(symbol, utils.FormatUSD(price))
				}
			}
			table.Render()
			return nil
		},
	}
}

// shortID compacts a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
