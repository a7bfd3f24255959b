package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/models"
	"github.com/viktsys/stockfolio/quote"
	"github.com/viktsys/stockfolio/utils"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInsufficientShares = errors.New("not enough shares to sell")

	ErrTickerRequired      = fmt.Errorf("%w: no ticker symbol provided", ErrInvalidRequest)
	ErrTradeIncomplete     = fmt.Errorf("%w: ticker symbol and quantity are required", ErrInvalidRequest)
	ErrNonPositiveQuantity = fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidRequest)
)

type Repository interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Insert(ctx context.Context, lot *models.Lot) error
	LotsByTicker(ctx context.Context, ticker string) ([]models.Lot, error)
	AllLots(ctx context.Context) ([]models.Lot, error)
	DeleteLots(ctx context.Context, ids []uint) error
	UpdateQuantity(ctx context.Context, id uint, quantity int64) error
	Tickers(ctx context.Context) ([]string, error)
}

type Service struct {
	repo   Repository
	quotes quote.Provider
	locks  tickerLocks
}

func NewService(repo Repository, quotes quote.Provider) *Service {
	return &Service{
		repo:   repo,
		quotes: quotes,
	}
}

// NormalizeTicker trims and uppercases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Quote returns the current quote and one month of daily closes. A nil quote
// with a nil error means the ticker is unknown or its data is incomplete.
func (s *Service) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Service.Quote"

	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return nil, ErrTickerRequired
	}

	info, err := s.quotes.Info(ctx, ticker)
	if errors.Is(err, quote.ErrNotFound) {
		slog.Debug("ticker not found", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.Complete() {
		slog.Debug("incomplete quote info", slog.String("rqID", rqID), slog.String("op", op), slog.Any("info", info))
		return nil, nil
	}

	history, err := s.quotes.History(ctx, ticker, quote.OneMonth)
	if errors.Is(err, quote.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}

	return &models.Quote{
		Ticker:    ticker,
		Price:     info.Price.Decimal,
		Name:      info.Name,
		Currency:  info.Currency,
		PriceData: history,
	}, nil
}

// Buy records a new lot of quantity shares at the current price.
func (s *Service) Buy(ctx context.Context, ticker string, quantity int64) (models.BuyResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Service.Buy"

	ticker = NormalizeTicker(ticker)
	if err := validateTrade(ticker, quantity); err != nil {
		return models.BuyResult{}, err
	}

	unlock := s.locks.Lock(ticker)
	defer unlock()

	price, err := s.currentPrice(ctx, ticker)
	if err != nil {
		return models.BuyResult{}, err
	}

	lot := models.Lot{
		Ticker:      ticker,
		Quantity:    quantity,
		PriceBought: price,
	}
	if err := s.repo.Insert(ctx, &lot); err != nil {
		slog.Error("got error from repo.Insert", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return models.BuyResult{}, err
	}

	slog.Info("lot bought", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker),
		slog.Int64("quantity", quantity), slog.String("price", price.String()), slog.Uint64("lotID", uint64(lot.ID)))

	return models.BuyResult{
		Message:   fmt.Sprintf("Bought %d shares of %s at $%s each", quantity, ticker, price),
		TotalCost: lot.Cost(),
	}, nil
}

// Sell consumes quantity shares from the ticker's lots, oldest first, and
// reports the revenue at the current price. The price is fetched before the
// transaction opens; the holding check is repeated inside it and commits
// together with the lot changes.
func (s *Service) Sell(ctx context.Context, ticker string, quantity int64) (models.SellResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Service.Sell"

	ticker = NormalizeTicker(ticker)
	if err := validateTrade(ticker, quantity); err != nil {
		return models.SellResult{}, err
	}

	unlock := s.locks.Lock(ticker)
	defer unlock()

	lots, err := s.repo.LotsByTicker(ctx, ticker)
	if err != nil {
		return models.SellResult{}, err
	}
	if held := heldQuantity(lots); held < quantity {
		slog.Info("sell rejected", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker),
			slog.Int64("held", held), slog.Int64("requested", quantity))
		return models.SellResult{}, ErrInsufficientShares
	}

	price, err := s.currentPrice(ctx, ticker)
	if err != nil {
		return models.SellResult{}, err
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		lots, err := s.repo.LotsByTicker(ctx, ticker)
		if err != nil {
			return err
		}
		if heldQuantity(lots) < quantity {
			return ErrInsufficientShares
		}

		deleted, partial := consumeFIFO(lots, quantity)
		if err := s.repo.DeleteLots(ctx, deleted); err != nil {
			return err
		}
		if partial != nil {
			if err := s.repo.UpdateQuantity(ctx, partial.ID, partial.Quantity); err != nil {
				return err
			}
		}

		slog.Info("lots sold", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker),
			slog.Int64("quantity", quantity), slog.Int("lotsDeleted", len(deleted)), slog.Bool("lotReduced", partial != nil))
		return nil
	})
	if err != nil {
		return models.SellResult{}, err
	}

	return models.SellResult{
		Message:      fmt.Sprintf("Sold %d shares of %s", quantity, ticker),
		TotalRevenue: price.Mul(decimal.NewFromInt(quantity)),
	}, nil
}

// Portfolio aggregates all lots per ticker and values them at current
// prices. A failed price lookup fails the whole view.
func (s *Service) Portfolio(ctx context.Context) ([]models.Holding, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Service.Portfolio"

	lots, err := s.repo.AllLots(ctx)
	if err != nil {
		slog.Error("got error from repo.AllLots", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	holdings := aggregate(lots)
	for i, h := range holdings {
		price, err := s.currentPrice(ctx, h.Ticker)
		if err != nil {
			return nil, err
		}
		holdings[i] = value(h, price)
	}

	if holdings == nil {
		holdings = []models.Holding{}
	}
	return holdings, nil
}

// Lots lists stored lots oldest first, optionally for one ticker.
func (s *Service) Lots(ctx context.Context, ticker string) ([]models.Lot, error) {
	var (
		lots []models.Lot
		err  error
	)
	if ticker = NormalizeTicker(ticker); ticker != "" {
		lots, err = s.repo.LotsByTicker(ctx, ticker)
	} else {
		lots, err = s.repo.AllLots(ctx)
	}
	if err != nil {
		return nil, err
	}
	if lots == nil {
		lots = []models.Lot{}
	}
	return lots, nil
}

// Tickers lists the tickers currently held.
func (s *Service) Tickers(ctx context.Context) ([]string, error) {
	return s.repo.Tickers(ctx)
}

func (s *Service) currentPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	info, err := s.quotes.Info(ctx, ticker)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get quote for %s: %w", ticker, err)
	}
	if !info.Price.Valid {
		return decimal.Zero, fmt.Errorf("no current price for %s", ticker)
	}
	return info.Price.Decimal, nil
}

func validateTrade(ticker string, quantity int64) error {
	if ticker == "" || quantity == 0 {
		return ErrTradeIncomplete
	}
	if quantity < 0 {
		return ErrNonPositiveQuantity
	}
	return nil
}

// tickerLocks serializes trades of the same ticker.
type tickerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *tickerLocks) Lock(ticker string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[ticker]
	if !ok {
		m = &sync.Mutex{}
		l.locks[ticker] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
