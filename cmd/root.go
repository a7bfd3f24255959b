package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCMD = &cobra.Command{
	Use:   "stockfolio",
	Short: "Personal stock portfolio tracker",
	Long: `A CLI application for tracking a personal stock portfolio.
It serves a REST API to look up quotes and record buys and sells as
lots, values holdings at current market prices and can bulk-load
historical lots from CSV files.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCMD.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCMD.AddCommand(serverCMD, migrateCMD, quoteCMD, importCMD)
}
