// Package ingest bulk-loads historical lots from semicolon separated CSV
// files of the form ticker;quantity;price_bought;date_bought.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/config"
	"github.com/viktsys/stockfolio/models"
	"github.com/viktsys/stockfolio/portfolio"
	"github.com/viktsys/stockfolio/utils"
)

const dateLayout = "2006-01-02"

type LotRecord struct {
	Ticker      string
	Quantity    string
	PriceBought string
	DateBought  string
}

type LotStore interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	InsertBatch(ctx context.Context, lots []models.Lot, batchSize int) error
}

// Result counts what an import did.
type Result struct {
	Files    int64
	Imported int64
	Skipped  int64
}

type Importer struct {
	store       LotStore
	batchSize   int
	workerCount int

	importedFiles int64
	importedRows  int64
	skippedRows   int64
}

func NewImporter(store LotStore, cfg config.Import) *Importer {
	return &Importer{
		store:       store,
		batchSize:   cfg.BatchSize,
		workerCount: cfg.Workers,
	}
}

// ImportPath imports a single CSV file, or every *.csv file when path is a
// directory. Files are imported one after another; a failing file stops the
// import but keeps the batches already committed.
func (im *Importer) ImportPath(ctx context.Context, path string) (Result, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Importer.ImportPath"

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.csv"))
		if err != nil {
			return Result{}, fmt.Errorf("failed to find CSV files: %w", err)
		}
		if len(files) == 0 {
			return Result{}, fmt.Errorf("no CSV files found in directory: %s", path)
		}
	}

	slog.Info("import started", slog.String("rqID", rqID), slog.String("op", op),
		slog.Int("files", len(files)), slog.Int("workers", im.workerCount), slog.Int("batchSize", im.batchSize))

	startTime := time.Now()
	for _, file := range files {
		fileStart := time.Now()
		if err := im.ImportFile(ctx, file); err != nil {
			slog.Error("import of file failed", slog.String("rqID", rqID), slog.String("op", op),
				slog.String("file", file), slog.String("err", err.Error()))
			return im.result(), fmt.Errorf("import %s: %w", file, err)
		}
		atomic.AddInt64(&im.importedFiles, 1)
		slog.Info("file imported", slog.String("rqID", rqID), slog.String("op", op),
			slog.String("file", file), slog.Duration("took", time.Since(fileStart)))
	}

	res := im.result()
	slog.Info("import completed", slog.String("rqID", rqID), slog.String("op", op),
		slog.Int64("files", res.Files), slog.Int64("imported", res.Imported), slog.Int64("skipped", res.Skipped),
		slog.Duration("took", time.Since(startTime)))
	return res, nil
}

func (im *Importer) result() Result {
	return Result{
		Files:    atomic.LoadInt64(&im.importedFiles),
		Imported: atomic.LoadInt64(&im.importedRows),
		Skipped:  atomic.LoadInt64(&im.skippedRows),
	}
}

// ImportFile streams filename in batches to a pool of workers. Each batch is
// inserted in its own transaction.
func (im *Importer) ImportFile(ctx context.Context, filename string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Importer.ImportFile"

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	recordChan := make(chan []LotRecord, im.workerCount)
	errorChan := make(chan error, im.workerCount)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < im.workerCount; i++ {
		wg.Add(1)
		go im.worker(ctx, recordChan, errorChan, &wg)
	}

	go func() {
		defer close(recordChan)

		reader := csv.NewReader(file)
		reader.Comma = ';'
		reader.FieldsPerRecord = -1
		reader.ReuseRecord = true

		var batch []LotRecord
		lineNum := 0
		batchCount := 0

		send := func() bool {
			batchCopy := make([]LotRecord, len(batch))
			copy(batchCopy, batch)
			select {
			case recordChan <- batchCopy:
				batchCount++
				batch = batch[:0]
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			lineNum++
			if err != nil {
				slog.Warn("skipping unreadable CSV line", slog.String("rqID", rqID), slog.String("op", op),
					slog.Int("line", lineNum), slog.String("err", err.Error()))
				atomic.AddInt64(&im.skippedRows, 1)
				continue
			}

			if lineNum == 1 {
				continue
			}

			if len(record) < 4 {
				atomic.AddInt64(&im.skippedRows, 1)
				continue
			}

			batch = append(batch, LotRecord{
				Ticker:      strings.TrimSpace(record[0]),
				Quantity:    strings.TrimSpace(record[1]),
				PriceBought: strings.TrimSpace(record[2]),
				DateBought:  strings.TrimSpace(record[3]),
			})

			if len(batch) >= im.batchSize && !send() {
				return
			}
		}

		if len(batch) > 0 && !send() {
			return
		}

		slog.Debug("batches sent", slog.String("rqID", rqID), slog.String("op", op),
			slog.Int("batches", batchCount), slog.String("file", filepath.Base(filename)))
	}()

	go func() {
		wg.Wait()
		close(errorChan)
	}()

	var firstErr error
	for err := range errorChan {
		if err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	if firstErr != nil {
		return fmt.Errorf("worker error: %w", firstErr)
	}
	return ctx.Err()
}

func (im *Importer) worker(ctx context.Context, recordChan <-chan []LotRecord, errorChan chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case batch, ok := <-recordChan:
			if !ok {
				return
			}
			if err := im.processBatch(ctx, batch); err != nil {
				errorChan <- err
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (im *Importer) processBatch(ctx context.Context, records []LotRecord) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Importer.processBatch"

	lots := make([]models.Lot, 0, len(records))
	for _, record := range records {
		lot, err := parseLotRecord(record)
		if err != nil {
			slog.Debug("skipping invalid record", slog.String("rqID", rqID), slog.String("op", op),
				slog.Any("record", record), slog.String("err", err.Error()))
			atomic.AddInt64(&im.skippedRows, 1)
			continue
		}
		lots = append(lots, lot)
	}

	if len(lots) == 0 {
		return nil
	}

	err := im.store.WithinTransaction(ctx, func(ctx context.Context) error {
		return im.store.InsertBatch(ctx, lots, len(lots))
	})
	if err != nil {
		return err
	}

	atomic.AddInt64(&im.importedRows, int64(len(lots)))
	return nil
}

func parseLotRecord(record LotRecord) (models.Lot, error) {
	var lot models.Lot

	ticker := portfolio.NormalizeTicker(record.Ticker)
	if ticker == "" {
		return lot, errors.New("missing ticker")
	}

	quantity, err := strconv.ParseInt(record.Quantity, 10, 64)
	if err != nil {
		return lot, fmt.Errorf("invalid quantity format: %w", err)
	}
	if quantity <= 0 {
		return lot, fmt.Errorf("invalid quantity %d: must be positive", quantity)
	}

	// Accept both decimal separators.
	price, err := decimal.NewFromString(strings.ReplaceAll(record.PriceBought, ",", "."))
	if err != nil {
		return lot, fmt.Errorf("invalid price format: %w", err)
	}
	if !price.IsPositive() {
		return lot, fmt.Errorf("invalid price %s: must be positive", price)
	}

	var dateBought time.Time
	if record.DateBought != "" {
		dateBought, err = time.Parse(dateLayout, record.DateBought)
		if err != nil {
			return lot, fmt.Errorf("invalid date format: %w", err)
		}
	}

	lot.Ticker = ticker
	lot.Quantity = quantity
	lot.PriceBought = price
	lot.DateBought = dateBought

	return lot, nil
}
