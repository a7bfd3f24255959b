// Package report renders the portfolio as a spreadsheet.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/models"
	"github.com/viktsys/stockfolio/utils"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FileName    = "portfolio.xlsx"

	PortfolioSheet = "Portfolio"
	LotsSheet      = "Lots"
)

var (
	portfolioHeader = []any{"Ticker", "Quantity", "Price bought", "Average price", "Total invested", "Current price", "Market value", "Profit/loss"}
	lotsHeader      = []any{"ID", "Ticker", "Quantity", "Price bought", "Date bought", "Cost"}
)

type XLSXGenerator struct{}

func NewXLSXGenerator() *XLSXGenerator {
	return &XLSXGenerator{}
}

// Generate writes one row per holding followed by a totals row, and every
// lot on a second sheet.
func (g *XLSXGenerator) Generate(ctx context.Context, holdings []models.Holding, lots []models.Lot) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op),
		slog.Int("holdings", len(holdings)), slog.Int("lots", len(lots)))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := f.SetSheetName("Sheet1", PortfolioSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LotsSheet); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", LotsSheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#cfe2f3"}},
	})
	if err != nil {
		return nil, err
	}

	if err := g.fillPortfolio(f, holdings, headerStyle); err != nil {
		return nil, err
	}
	if err := g.fillLots(f, lots, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))
	return buf.Bytes(), nil
}

func (g *XLSXGenerator) fillPortfolio(f *excelize.File, holdings []models.Holding, headerStyle int) error {
	if err := writeHeader(f, PortfolioSheet, portfolioHeader, headerStyle); err != nil {
		return err
	}

	var invested, market, pl decimal.Decimal
	for i, h := range holdings {
		row := []any{
			h.Ticker,
			h.Quantity,
			h.PriceBought.InexactFloat64(),
			h.AveragePrice.InexactFloat64(),
			h.TotalInvested.InexactFloat64(),
			h.CurrentPrice.InexactFloat64(),
			h.MarketValue.InexactFloat64(),
			h.ProfitLoss.InexactFloat64(),
		}
		if err := writeRow(f, PortfolioSheet, i+2, row); err != nil {
			return err
		}
		invested = invested.Add(h.TotalInvested)
		market = market.Add(h.MarketValue)
		pl = pl.Add(h.ProfitLoss)
	}

	totalsRow := len(holdings) + 2
	totals := []any{"Total", nil, nil, nil, invested.InexactFloat64(), nil, market.InexactFloat64(), pl.InexactFloat64()}
	if err := writeRow(f, PortfolioSheet, totalsRow, totals); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, totalsRow)
	last, _ := excelize.CoordinatesToCellName(len(totals), totalsRow)
	return f.SetCellStyle(PortfolioSheet, first, last, headerStyle)
}

func (g *XLSXGenerator) fillLots(f *excelize.File, lots []models.Lot, headerStyle int) error {
	if err := writeHeader(f, LotsSheet, lotsHeader, headerStyle); err != nil {
		return err
	}

	for i, lot := range lots {
		row := []any{
			lot.ID,
			lot.Ticker,
			lot.Quantity,
			lot.PriceBought.InexactFloat64(),
			lot.DateBought.UTC().Format("2006-01-02 15:04:05"),
			lot.Cost().InexactFloat64(),
		}
		if err := writeRow(f, LotsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
