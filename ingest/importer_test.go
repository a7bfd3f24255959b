package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/config"
	"github.com/viktsys/stockfolio/database"
	"github.com/viktsys/stockfolio/models"
	"github.com/viktsys/stockfolio/portfolio"
)

func TestParseLotRecord(t *testing.T) {
	record := LotRecord{
		Ticker:      " aapl ",
		Quantity:    "10",
		PriceBought: "150,25",
		DateBought:  "2024-01-15",
	}

	lot, err := parseLotRecord(record)
	if err != nil {
		t.Fatalf("Failed to parse lot record: %v", err)
	}

	expectedDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !lot.DateBought.Equal(expectedDate) {
		t.Errorf("Expected date %v, got %v", expectedDate, lot.DateBought)
	}

	if lot.Ticker != "AAPL" {
		t.Errorf("Expected ticker AAPL, got %s", lot.Ticker)
	}

	if !lot.PriceBought.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("Expected price 150.25, got %s", lot.PriceBought)
	}

	if lot.Quantity != 10 {
		t.Errorf("Expected quantity 10, got %d", lot.Quantity)
	}
}

func TestParseMissingDate(t *testing.T) {
	lot, err := parseLotRecord(LotRecord{Ticker: "MSFT", Quantity: "1", PriceBought: "300"})
	if err != nil {
		t.Fatalf("Failed to parse lot record: %v", err)
	}
	if !lot.DateBought.IsZero() {
		t.Errorf("Expected zero date to be defaulted on insert, got %v", lot.DateBought)
	}
}

func TestParseInvalidDate(t *testing.T) {
	record := LotRecord{
		Ticker:      "AAPL",
		Quantity:    "10",
		PriceBought: "150",
		DateBought:  "invalid-date",
	}

	_, err := parseLotRecord(record)
	if err == nil {
		t.Fatal("Expected error for invalid date, got nil")
	}

	if !strings.Contains(err.Error(), "invalid date format") {
		t.Errorf("Expected 'invalid date format' error, got %v", err)
	}
}

func TestParseInvalidPrice(t *testing.T) {
	for _, price := range []string{"invalid-price", "0", "-3"} {
		record := LotRecord{Ticker: "AAPL", Quantity: "10", PriceBought: price, DateBought: "2024-01-15"}

		if _, err := parseLotRecord(record); err == nil {
			t.Errorf("Expected error for price %q, got nil", price)
		}
	}
}

func TestParseInvalidQuantity(t *testing.T) {
	for _, quantity := range []string{"invalid-quantity", "0", "-1", "1.5"} {
		record := LotRecord{Ticker: "AAPL", Quantity: quantity, PriceBought: "150", DateBought: "2024-01-15"}

		if _, err := parseLotRecord(record); err == nil {
			t.Errorf("Expected error for quantity %q, got nil", quantity)
		}
	}
}

func TestParseMissingTicker(t *testing.T) {
	if _, err := parseLotRecord(LotRecord{Ticker: "  ", Quantity: "1", PriceBought: "1"}); err == nil {
		t.Error("Expected error for missing ticker, got nil")
	}
}

func newTestRepository(t *testing.T) *portfolio.LotRepository {
	t.Helper()

	db, err := database.Open(config.DB{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "portfolio.db")})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return portfolio.NewLotRepository(db)
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

const lotsCSV = `ticker;quantity;price_bought;date_bought
AAPL;10;150,00;2024-01-02
MSFT;2;300.5;2024-01-03
AAPL;nope;150;2024-01-04
;1;1;2024-01-05
GOOG;1
AAPL;5;160;2024-02-01
`

func TestImportFile(t *testing.T) {
	repo := newTestRepository(t)
	im := NewImporter(repo, config.Import{BatchSize: 2, Workers: 2})
	path := writeCSV(t, t.TempDir(), "lots.csv", lotsCSV)

	res, err := im.ImportPath(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportPath failed: %v", err)
	}

	if res.Files != 1 || res.Imported != 3 || res.Skipped != 3 {
		t.Errorf("Unexpected result: %+v", res)
	}

	lots, err := repo.LotsByTicker(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("LotsByTicker failed: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("Expected 2 AAPL lots, got %d", len(lots))
	}
	var total int64
	for _, lot := range lots {
		total += lot.Quantity
	}
	if total != 15 {
		t.Errorf("Expected 15 AAPL shares, got %d", total)
	}
}

func TestImportDirectory(t *testing.T) {
	repo := newTestRepository(t)
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", "ticker;quantity;price_bought;date_bought\nAAPL;1;100;2024-01-02\n")
	writeCSV(t, dir, "b.csv", "ticker;quantity;price_bought;date_bought\nMSFT;2;200;2024-01-02\n")
	writeCSV(t, dir, "notes.txt", "ignored")

	res, err := NewImporter(repo, config.Import{BatchSize: 100, Workers: 1}).ImportPath(context.Background(), dir)
	if err != nil {
		t.Fatalf("ImportPath failed: %v", err)
	}
	if res.Files != 2 || res.Imported != 2 {
		t.Errorf("Unexpected result: %+v", res)
	}

	tickers, _ := repo.Tickers(context.Background())
	if len(tickers) != 2 {
		t.Errorf("Expected 2 tickers, got %v", tickers)
	}
}

func TestImportEmptyDirectory(t *testing.T) {
	im := NewImporter(newTestRepository(t), config.Import{BatchSize: 10, Workers: 1})

	if _, err := im.ImportPath(context.Background(), t.TempDir()); err == nil {
		t.Error("Expected error for a directory without CSV files, got nil")
	}
}

func TestImportMissingFile(t *testing.T) {
	im := NewImporter(newTestRepository(t), config.Import{BatchSize: 10, Workers: 1})

	if _, err := im.ImportPath(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("Expected error for a missing file, got nil")
	}
}

type failingStore struct{}

func (failingStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (failingStore) InsertBatch(context.Context, []models.Lot, int) error {
	return errors.New("disk full")
}

func TestImportStoreError(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "lots.csv", lotsCSV)
	im := NewImporter(failingStore{}, config.Import{BatchSize: 1, Workers: 3})

	res, err := im.ImportPath(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Expected store error, got %v", err)
	}
	if res.Imported != 0 {
		t.Errorf("Expected nothing imported, got %d", res.Imported)
	}
}
