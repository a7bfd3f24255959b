package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Money fields are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Lot is one purchase of a ticker. Only Quantity changes after insert.
type Lot struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Ticker      string          `gorm:"size:20;not null;index:idx_portfolio_ticker" json:"ticker"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	PriceBought decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price_bought"`
	DateBought  time.Time       `gorm:"not null" json:"date_bought"`
}

func (Lot) TableName() string {
	return "portfolio"
}

func (l *Lot) BeforeCreate(tx *gorm.DB) error {
	if l.DateBought.IsZero() {
		l.DateBought = time.Now().UTC()
	}
	return nil
}

// Cost is the amount paid for the shares still held in the lot.
func (l Lot) Cost() decimal.Decimal {
	return l.PriceBought.Mul(decimal.NewFromInt(l.Quantity))
}

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// Quote is the response of a successful quote lookup.
type Quote struct {
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	PriceData []PricePoint    `json:"price_data"`
}

// Holding aggregates every lot of one ticker, valued at the current price.
type Holding struct {
	Ticker        string          `json:"ticker"`
	Quantity      int64           `json:"quantity"`
	PriceBought   decimal.Decimal `json:"price_bought"`
	AveragePrice  decimal.Decimal `json:"average_price"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
}

type BuyResult struct {
	Message   string          `json:"message"`
	TotalCost decimal.Decimal `json:"totalCost"`
}

type SellResult struct {
	Message      string          `json:"message"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}
