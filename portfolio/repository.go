package portfolio

import (
	"context"
	"fmt"

	"github.com/viktsys/stockfolio/models"
	"gorm.io/gorm"
)

type txKey struct{}

// LotRepository stores lots in the portfolio table. Methods join the
// transaction carried by ctx when there is one.
type LotRepository struct {
	db *gorm.DB
}

func NewLotRepository(db *gorm.DB) *LotRepository {
	return &LotRepository{db: db}
}

// WithinTransaction runs fn within a transaction.
//
// The transaction commits when fn returns without error.
func (r *LotRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// txOrDb returns the transaction from ctx if present, otherwise the pool.
func (r *LotRepository) txOrDb(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *LotRepository) Insert(ctx context.Context, lot *models.Lot) error {
	if err := r.txOrDb(ctx).Create(lot).Error; err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (r *LotRepository) InsertBatch(ctx context.Context, lots []models.Lot, batchSize int) error {
	if len(lots) == 0 {
		return nil
	}
	if err := r.txOrDb(ctx).CreateInBatches(lots, batchSize).Error; err != nil {
		return fmt.Errorf("insert lots: %w", err)
	}
	return nil
}

// LotsByTicker returns the lots of ticker oldest first.
func (r *LotRepository) LotsByTicker(ctx context.Context, ticker string) ([]models.Lot, error) {
	var lots []models.Lot
	if err := r.txOrDb(ctx).Where("ticker = ?", ticker).Order("id").Find(&lots).Error; err != nil {
		return nil, fmt.Errorf("select lots of %s: %w", ticker, err)
	}
	return lots, nil
}

// AllLots returns every stored lot oldest first.
func (r *LotRepository) AllLots(ctx context.Context) ([]models.Lot, error) {
	var lots []models.Lot
	if err := r.txOrDb(ctx).Order("id").Find(&lots).Error; err != nil {
		return nil, fmt.Errorf("select lots: %w", err)
	}
	return lots, nil
}

func (r *LotRepository) DeleteLots(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.txOrDb(ctx).Delete(&models.Lot{}, ids).Error; err != nil {
		return fmt.Errorf("delete lots: %w", err)
	}
	return nil
}

func (r *LotRepository) UpdateQuantity(ctx context.Context, id uint, quantity int64) error {
	res := r.txOrDb(ctx).Model(&models.Lot{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("update lot %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update lot %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Tickers returns the distinct tickers currently held.
func (r *LotRepository) Tickers(ctx context.Context) ([]string, error) {
	var tickers []string
	if err := r.txOrDb(ctx).Model(&models.Lot{}).Distinct("ticker").Order("ticker").Pluck("ticker", &tickers).Error; err != nil {
		return nil, fmt.Errorf("select tickers: %w", err)
	}
	return tickers, nil
}
