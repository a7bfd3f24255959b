package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/models"
	"github.com/xuri/excelize/v2"
)

func TestGenerate(t *testing.T) {
	holdings := []models.Holding{
		{
			Ticker:        "AAPL",
			Quantity:      10,
			PriceBought:   decimal.NewFromInt(150),
			AveragePrice:  decimal.NewFromInt(150),
			TotalInvested: decimal.NewFromInt(1500),
			CurrentPrice:  decimal.NewFromInt(160),
			MarketValue:   decimal.NewFromInt(1600),
			ProfitLoss:    decimal.NewFromInt(100),
		},
		{
			Ticker:        "MSFT",
			Quantity:      1,
			PriceBought:   decimal.NewFromInt(300),
			AveragePrice:  decimal.NewFromInt(300),
			TotalInvested: decimal.NewFromInt(300),
			CurrentPrice:  decimal.NewFromInt(250),
			MarketValue:   decimal.NewFromInt(250),
			ProfitLoss:    decimal.NewFromInt(-50),
		},
	}
	lots := []models.Lot{
		{ID: 1, Ticker: "AAPL", Quantity: 10, PriceBought: decimal.NewFromInt(150), DateBought: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
		{ID: 2, Ticker: "MSFT", Quantity: 1, PriceBought: decimal.NewFromInt(300), DateBought: time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)},
	}

	data, err := NewXLSXGenerator().Generate(context.Background(), holdings, lots)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to open generated workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != PortfolioSheet || sheets[1] != LotsSheet {
		t.Fatalf("Unexpected sheets: %v", sheets)
	}

	rows, err := f.GetRows(PortfolioSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("Expected header, 2 holdings and totals, got %d rows", len(rows))
	}
	if rows[1][0] != "AAPL" || rows[2][0] != "MSFT" {
		t.Errorf("Unexpected tickers: %v %v", rows[1], rows[2])
	}
	if rows[3][0] != "Total" || rows[3][4] != "1800" || rows[3][7] != "50" {
		t.Errorf("Unexpected totals row: %v", rows[3])
	}

	lotRows, err := f.GetRows(LotsSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(lotRows) != 3 {
		t.Fatalf("Expected header and 2 lots, got %d rows", len(lotRows))
	}
	if lotRows[1][4] != "2024-01-02 15:04:05" {
		t.Errorf("Unexpected date cell: %q", lotRows[1][4])
	}
}

func TestGenerateEmptyPortfolio(t *testing.T) {
	data, err := NewXLSXGenerator().Generate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to open generated workbook: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(PortfolioSheet)
	if len(rows) != 2 || rows[1][0] != "Total" {
		t.Errorf("Expected header and totals only, got %v", rows)
	}
}
