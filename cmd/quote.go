package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viktsys/stockfolio/metrics"
	"github.com/viktsys/stockfolio/portfolio"
	"github.com/viktsys/stockfolio/utils"
)

var quoteCMD = &cobra.Command{
	Use:   "quote TICKER",
	Short: "Print the current quote and one month of history as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logCloser, err := bootstrap()
		if err != nil {
			return err
		}
		defer logCloser.Close()

		ctx := utils.WithRequestID(cmd.Context(), "")

		quotes, err := newQuoteStack(ctx, cfg, metrics.New())
		if err != nil {
			return err
		}
		defer quotes.close()

		// Quote lookups never touch the lot repository.
		svc := portfolio.NewService(nil, quotes.provider)
		q, err := svc.Quote(ctx, args[0])
		if err != nil {
			return err
		}

		var out any = []any{}
		if q != nil {
			out = q
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	},
}
