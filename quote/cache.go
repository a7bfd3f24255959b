package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viktsys/stockfolio/models"
	"github.com/viktsys/stockfolio/utils"
)

// CachedProvider serves quotes from redis and falls back to the wrapped
// provider. Not-found answers are never cached; redis failures only log.
type CachedProvider struct {
	next  Provider
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedProvider(next Provider, redisClient *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, redis: redisClient, ttl: ttl}
}

func (c *CachedProvider) Info(ctx context.Context, ticker string) (Info, error) {
	key := infoKey(ticker)

	var info Info
	if c.get(ctx, key, &info) {
		return info, nil
	}

	info, err := c.next.Info(ctx, ticker)
	if err != nil {
		return Info{}, err
	}

	c.set(ctx, key, info)
	return info, nil
}

func (c *CachedProvider) History(ctx context.Context, ticker string, period Period) ([]models.PricePoint, error) {
	key := historyKey(ticker, period)

	var points []models.PricePoint
	if c.get(ctx, key, &points) {
		return points, nil
	}

	points, err := c.next.History(ctx, ticker, period)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, points)
	return points, nil
}

// Refresh fetches ticker info upstream and overwrites the cached entry.
func (c *CachedProvider) Refresh(ctx context.Context, ticker string) error {
	info, err := c.next.Info(ctx, ticker)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", ticker, err)
	}
	c.set(ctx, infoKey(ticker), info)
	return nil
}

func (c *CachedProvider) get(ctx context.Context, key string, dest any) bool {
	rqID := utils.GetRequestIDFromCtx(ctx)

	res, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		}
		return false
	}

	if err := json.Unmarshal(res, dest); err != nil {
		slog.Error("can't unmarshall cached quote", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return false
	}
	return true
}

func (c *CachedProvider) set(ctx context.Context, key string, value any) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	b, err := json.Marshal(value)
	if err != nil {
		slog.Error("can't marshall quote for cache", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return
	}

	if err := c.redis.Set(ctx, key, b, c.ttl).Err(); err != nil {
		slog.Warn("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
	}
}

func infoKey(ticker string) string {
	return "quote:info:" + ticker
}

func historyKey(ticker string, period Period) string {
	return fmt.Sprintf("quote:history:%s:%s", ticker, period)
}
