package portfolio

import (
	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/models"
)

// heldQuantity sums the quantity of lots.
func heldQuantity(lots []models.Lot) int64 {
	var total int64
	for _, lot := range lots {
		total += lot.Quantity
	}
	return total
}

// consumeFIFO takes quantity shares from lots in order. Lots emptied are
// returned in deleted; the lot left partially consumed, if any, is returned
// with its reduced quantity.
func consumeFIFO(lots []models.Lot, quantity int64) (deleted []uint, partial *models.Lot) {
	remaining := quantity
	for _, lot := range lots {
		if remaining == 0 {
			break
		}
		if lot.Quantity <= remaining {
			remaining -= lot.Quantity
			deleted = append(deleted, lot.ID)
			continue
		}
		reduced := lot
		reduced.Quantity -= remaining
		partial = &reduced
		remaining = 0
	}
	return deleted, partial
}

// aggregate folds lots into one holding per ticker, in order of first
// appearance. PriceBought is the price of the last lot folded in.
func aggregate(lots []models.Lot) []models.Holding {
	index := make(map[string]int)
	var holdings []models.Holding

	for _, lot := range lots {
		i, ok := index[lot.Ticker]
		if !ok {
			index[lot.Ticker] = len(holdings)
			holdings = append(holdings, models.Holding{
				Ticker:        lot.Ticker,
				Quantity:      lot.Quantity,
				PriceBought:   lot.PriceBought,
				TotalInvested: lot.Cost(),
			})
			continue
		}
		h := &holdings[i]
		h.Quantity += lot.Quantity
		h.PriceBought = lot.PriceBought
		h.TotalInvested = h.TotalInvested.Add(lot.Cost())
	}

	for i := range holdings {
		h := &holdings[i]
		if h.Quantity > 0 {
			h.AveragePrice = h.TotalInvested.Div(decimal.NewFromInt(h.Quantity)).Round(8)
		}
	}
	return holdings
}

// value prices a holding at currentPrice.
func value(h models.Holding, currentPrice decimal.Decimal) models.Holding {
	h.CurrentPrice = currentPrice
	h.MarketValue = currentPrice.Mul(decimal.NewFromInt(h.Quantity))
	h.ProfitLoss = h.MarketValue.Sub(h.TotalInvested)
	return h
}
