package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/viktsys/stockfolio/config"
	"github.com/viktsys/stockfolio/logging"
	"github.com/viktsys/stockfolio/metrics"
	"github.com/viktsys/stockfolio/quote"
)

// bootstrap loads the configuration and installs the logger. The returned
// closer flushes the log file.
func bootstrap() (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	return cfg, closer, nil
}

// quoteStack is the provider chain: yahoo, instrumented, optionally cached.
type quoteStack struct {
	provider quote.Provider
	cache    *quote.CachedProvider
	close    func()
}

func newQuoteStack(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*quoteStack, error) {
	var provider quote.Provider = quote.NewInstrumented(quote.NewYahoo(cfg.QuoteAPI), "yahoo", m)
	stack := &quoteStack{provider: provider, close: func() {}}

	if !cfg.CacheEnabled() {
		slog.Info("quote cache disabled")
		return stack, nil
	}

	client, err := quote.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	stack.cache = quote.NewCachedProvider(provider, client, cfg.Cache.QuoteTTL)
	stack.provider = stack.cache
	stack.close = func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("err", err.Error()))
		}
	}

	slog.Info("quote cache enabled", slog.String("addr", cfg.Redis.Addr), slog.Duration("ttl", cfg.Cache.QuoteTTL))
	return stack, nil
}
