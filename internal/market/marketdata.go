package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tradeplot/internal/binance/rest"
	"tradeplot/internal/interval"
	"tradeplot/internal/metrics"

	"go.uber.org/zap"
)

// PageLimit is the most candles the klines endpoint returns per call.
const PageLimit = 500

type KlinesSource interface {
	Klines(ctx context.Context, req rest.KlinesRequest) ([][]any, error)
}

type Fetcher struct {
	source   KlinesSource
	symbol   string
	interval interval.Interval
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewFetcher(source KlinesSource, symbol string, iv interval.Interval, log *zap.Logger, m *metrics.Metrics) *Fetcher {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Fetcher{
		source:   source,
		symbol:   symbol,
		interval: iv,
		log:      log,
		metrics:  m,
	}
}

// Candles pages through [start, end] (epoch millis, both inclusive) one
// request at a time. Any failed page fails the whole call. The result is
// ascending by open time with one candle per open time.
//
// After a non-empty page the cursor moves to the bucket after the last open
// time returned, so short pages neither skip nor repeat candles. After an
// empty page it jumps a full page span ahead.
func (f *Fetcher) Candles(ctx context.Context, start, end int64) ([]Candle, error) {
	span := int64(PageLimit) * f.interval.Duration().Milliseconds()
	seen := make(map[int64]struct{})
	var out []Candle
	cursor := start
	for page := 1; cursor <= end; page++ {
		rows, err := f.source.Klines(ctx, rest.KlinesRequest{
			Symbol:    f.symbol,
			Interval:  f.interval.String(),
			StartTime: cursor,
			EndTime:   end,
			Limit:     PageLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("klines page %d from %d: %w", page, cursor, err)
		}
		f.metrics.PagesFetched.Inc()
		last := int64(-1)
		for i, row := range rows {
			openTime, prices, err := parseKline(row)
			if err != nil {
				return nil, fmt.Errorf("klines page %d row %d: %w", page, i, err)
			}
			ms := openTime.UnixMilli()
			if ms > last {
				last = ms
			}
			if _, dup := seen[ms]; dup {
				continue
			}
			seen[ms] = struct{}{}
			out = append(out, Candle{
				Start: openTime,
				Open:  prices[0],
				High:  prices[1],
				Low:   prices[2],
				Close: prices[3],
			})
		}
		f.log.Debug("klines page fetched",
			zap.Int("page", page),
			zap.Int64("start", cursor),
			zap.Int("rows", len(rows)),
		)
		next := cursor + span
		if last >= cursor {
			next = f.interval.Next(time.UnixMilli(last)).UnixMilli()
		}
		cursor = next
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	f.metrics.CandlesFetched.Add(float64(len(out)))
	f.log.Info("candles fetched",
		zap.String("symbol", f.symbol),
		zap.String("interval", f.interval.String()),
		zap.Int("candles", len(out)),
	)
	return out, nil
}
