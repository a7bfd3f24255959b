package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/viktsys/stockfolio/config"
	"github.com/viktsys/stockfolio/models"
	"github.com/viktsys/stockfolio/utils"
)

const chartPath = "/v8/finance/chart/{symbol}"

// Yahoo reads quotes from the Yahoo Finance v8 chart endpoint.
type Yahoo struct {
	client *resty.Client
}

func NewYahoo(cfg config.QuoteAPI) *Yahoo {
	client := resty.New().
		SetDebug(cfg.Debug).
		SetTimeout(cfg.Timeout).
		SetBaseURL(cfg.URL).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")
	return &Yahoo{client: client}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		Currency           string   `json:"currency"`
		LongName           string   `json:"longName"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (y *Yahoo) Info(ctx context.Context, ticker string) (Info, error) {
	res, err := y.chart(ctx, ticker, OneDay)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Ticker:   ticker,
		Name:     res.Meta.LongName,
		Currency: res.Meta.Currency,
	}
	if res.Meta.RegularMarketPrice != nil {
		info.Price = decimal.NewNullDecimal(decimal.NewFromFloat(*res.Meta.RegularMarketPrice))
	}
	return info, nil
}

// History returns daily closes ordered by date. Days without a close are skipped.
func (y *Yahoo) History(ctx context.Context, ticker string, period Period) ([]models.PricePoint, error) {
	res, err := y.chart(ctx, ticker, period)
	if err != nil {
		return nil, err
	}

	if len(res.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := res.Indicators.Quote[0].Close

	points := make([]models.PricePoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Price: decimal.NewFromFloat(*closes[i]),
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

func (y *Yahoo) chart(ctx context.Context, ticker string, period Period) (chartResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start Yahoo.chart request", slog.String("rqID", rqID), slog.String("ticker", ticker), slog.String("range", string(period)))

	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", ticker).
		SetQueryParams(map[string]string{
			"range":          string(period),
			"interval":       "1d",
			"includePrePost": "false",
		}).
		Get(chartPath)
	if err != nil {
		slog.Error("error while dialing Yahoo", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return chartResult{}, fmt.Errorf("yahoo request for %s: %w", ticker, err)
	}

	raw := chartResponse{}
	decodeErr := json.Unmarshal(resp.Body(), &raw)

	if resp.StatusCode() == http.StatusNotFound {
		return chartResult{}, ErrNotFound
	}
	if resp.IsError() {
		msg := resp.Status()
		if decodeErr == nil && raw.Chart.Error != nil {
			msg = raw.Chart.Error.Description
		}
		return chartResult{}, fmt.Errorf("yahoo http %d: %s", resp.StatusCode(), msg)
	}
	if decodeErr != nil {
		slog.Error("can't unmarshall Yahoo chart response", slog.String("rqID", rqID), slog.String("err", decodeErr.Error()))
		return chartResult{}, fmt.Errorf("decode yahoo response: %w", decodeErr)
	}
	if len(raw.Chart.Result) == 0 {
		return chartResult{}, ErrNotFound
	}

	slog.Debug("Yahoo.chart request complete", slog.String("rqID", rqID), slog.String("ticker", ticker))

	return raw.Chart.Result[0], nil
}
