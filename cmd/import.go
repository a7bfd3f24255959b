package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viktsys/stockfolio/database"
	"github.com/viktsys/stockfolio/ingest"
	"github.com/viktsys/stockfolio/portfolio"
	"github.com/viktsys/stockfolio/utils"
)

var importCMD = &cobra.Command{
	Use:   "import [file-or-directory]",
	Short: "Bulk-load historical lots from CSV files",
	Long: `Import lots from a semicolon separated CSV file, or from every *.csv file
in a directory. Each file starts with a header line followed by rows of
ticker;quantity;price_bought;date_bought (date as YYYY-MM-DD, optional).
Invalid rows are skipped and counted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logCloser, err := bootstrap()
		if err != nil {
			return err
		}
		defer logCloser.Close()

		db, err := database.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer database.Close(db)

		ctx := utils.WithRequestID(cmd.Context(), "")
		importer := ingest.NewImporter(portfolio.NewLotRepository(db), cfg.Import)

		res, err := importer.ImportPath(ctx, args[0])
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d lots from %d files (%d rows skipped)\n", res.Imported, res.Files, res.Skipped)
		return err
	},
}
