package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/viktsys/stockfolio/utils"
)

type TickerLister interface {
	Tickers(ctx context.Context) ([]string, error)
}

type QuoteRefresher interface {
	Refresh(ctx context.Context, ticker string) error
}

// WarmQuoteCache refreshes the cached quote of every held ticker. One
// failing ticker does not stop the others.
func WarmQuoteCache(tickers TickerLister, refresher QuoteRefresher) TaskFn {
	return func(ctx context.Context) error {
		rqID := utils.GetRequestIDFromCtx(ctx)
		op := "WarmQuoteCache"

		held, err := tickers.Tickers(ctx)
		if err != nil {
			return err
		}

		var errs []error
		for _, ticker := range held {
			if err := refresher.Refresh(ctx, ticker); err != nil {
				slog.Warn("quote refresh failed", slog.String("rqID", rqID), slog.String("op", op),
					slog.String("ticker", ticker), slog.String("err", err.Error()))
				errs = append(errs, err)
			}
		}

		slog.Info("quote cache warmed", slog.String("rqID", rqID), slog.String("op", op),
			slog.Int("tickers", len(held)), slog.Int("failed", len(errs)))
		return errors.Join(errs...)
	}
}
