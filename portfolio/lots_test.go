package portfolio

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/models"
)

func lot(id uint, ticker string, quantity int64, price string) models.Lot {
	return models.Lot{ID: id, Ticker: ticker, Quantity: quantity, PriceBought: decimal.RequireFromString(price)}
}

func TestConsumeFIFO(t *testing.T) {
	lots := []models.Lot{
		lot(1, "AAPL", 5, "100"),
		lot(2, "AAPL", 3, "110"),
		lot(3, "AAPL", 4, "120"),
	}

	tests := []struct {
		name        string
		quantity    int64
		wantDeleted []uint
		wantPartial *models.Lot
	}{
		{name: "partial first lot", quantity: 2, wantPartial: &models.Lot{ID: 1, Quantity: 3}},
		{name: "exactly first lot", quantity: 5, wantDeleted: []uint{1}},
		{name: "spans two lots", quantity: 7, wantDeleted: []uint{1}, wantPartial: &models.Lot{ID: 2, Quantity: 1}},
		{name: "exactly two lots", quantity: 8, wantDeleted: []uint{1, 2}},
		{name: "everything", quantity: 12, wantDeleted: []uint{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted, partial := consumeFIFO(lots, tt.quantity)

			if !reflect.DeepEqual(deleted, tt.wantDeleted) {
				t.Errorf("Expected deleted %v, got %v", tt.wantDeleted, deleted)
			}
			if (partial == nil) != (tt.wantPartial == nil) {
				t.Fatalf("Expected partial %v, got %v", tt.wantPartial, partial)
			}
			if partial != nil {
				if partial.ID != tt.wantPartial.ID || partial.Quantity != tt.wantPartial.Quantity {
					t.Errorf("Expected partial lot %d qty %d, got lot %d qty %d",
						tt.wantPartial.ID, tt.wantPartial.Quantity, partial.ID, partial.Quantity)
				}
				original := lots[0]
				for _, l := range lots {
					if l.ID == partial.ID {
						original = l
					}
				}
				if !partial.PriceBought.Equal(original.PriceBought) {
					t.Errorf("Expected partial lot to keep price %s, got %s", original.PriceBought, partial.PriceBought)
				}
			}
		})
	}

	if lots[0].Quantity != 5 {
		t.Errorf("Expected input lots to be left untouched, got quantity %d", lots[0].Quantity)
	}
}

func TestHeldQuantity(t *testing.T) {
	if got := heldQuantity(nil); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
	if got := heldQuantity([]models.Lot{lot(1, "A", 2, "1"), lot(2, "A", 3, "1")}); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
}

func TestAggregate(t *testing.T) {
	lots := []models.Lot{
		lot(1, "MSFT", 2, "300"),
		lot(2, "AAPL", 10, "150"),
		lot(3, "MSFT", 1, "330"),
	}

	holdings := aggregate(lots)
	if len(holdings) != 2 {
		t.Fatalf("Expected 2 holdings, got %d", len(holdings))
	}

	msft := holdings[0]
	if msft.Ticker != "MSFT" {
		t.Errorf("Expected first holding MSFT (first appearance), got %s", msft.Ticker)
	}
	if msft.Quantity != 3 {
		t.Errorf("Expected MSFT quantity 3, got %d", msft.Quantity)
	}
	if !msft.TotalInvested.Equal(decimal.NewFromInt(930)) {
		t.Errorf("Expected MSFT total invested 930, got %s", msft.TotalInvested)
	}
	if !msft.PriceBought.Equal(decimal.NewFromInt(330)) {
		t.Errorf("Expected MSFT price_bought of last lot 330, got %s", msft.PriceBought)
	}
	if !msft.AveragePrice.Equal(decimal.NewFromInt(310)) {
		t.Errorf("Expected MSFT average price 310, got %s", msft.AveragePrice)
	}

	aapl := holdings[1]
	if aapl.Quantity != 10 || !aapl.TotalInvested.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Unexpected AAPL holding: %+v", aapl)
	}
}

func TestValue(t *testing.T) {
	h := models.Holding{Ticker: "AAPL", Quantity: 4, TotalInvested: decimal.NewFromInt(400)}

	got := value(h, decimal.RequireFromString("90.5"))

	if !got.MarketValue.Equal(decimal.NewFromInt(362)) {
		t.Errorf("Expected market value 362, got %s", got.MarketValue)
	}
	if !got.ProfitLoss.Equal(decimal.NewFromInt(-38)) {
		t.Errorf("Expected profit/loss -38, got %s", got.ProfitLoss)
	}
}
