// Package quote looks up current quotes and daily price history from an
// external market-data provider.
package quote

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/models"
)

// ErrNotFound is returned when the provider has no data for a ticker.
var ErrNotFound = errors.New("quote not found")

// Period is a history lookback understood by the provider.
type Period string

const (
	OneDay   Period = "1d"
	OneMonth Period = "1mo"
)

// Info is the descriptive data of a ticker. Any field may be absent.
type Info struct {
	Ticker   string              `json:"ticker"`
	Price    decimal.NullDecimal `json:"currentPrice"`
	Name     string              `json:"longName"`
	Currency string              `json:"currency"`
}

// Complete reports whether price, name and currency are all present.
func (i Info) Complete() bool {
	return i.Price.Valid && i.Name != "" && i.Currency != ""
}

type Provider interface {
	Info(ctx context.Context, ticker string) (Info, error)
	History(ctx context.Context, ticker string, period Period) ([]models.PricePoint, error)
}
