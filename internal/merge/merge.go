// Package merge buckets trades onto the candle grid and left-joins them onto
// the candle series.
package merge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tradeplot/internal/interval"
	"tradeplot/internal/market"
	"tradeplot/internal/trades"
)

// TradeTimeLayout formats trade timestamps inside a bucket.
const TradeTimeLayout = "2006-01-02 15:04:05.000000"

// Columns of the merged table, in output order.
var Columns = []string{"Time", "open", "high", "low", "close", "ema", "trades"}

type TradePoint struct {
	Time  string
	Price string
}

// TradeBucket holds the trades of one interval in file order.
type TradeBucket struct {
	Start  time.Time
	Trades []TradePoint
}

func (b *TradeBucket) Empty() bool {
	return b == nil || len(b.Trades) == 0
}

// MergedRow is one candle with its EMA value. Trades is nil when no trade
// fell into the candle's bucket.
type MergedRow struct {
	market.Candle
	EMA    float64
	Trades *TradeBucket
}

type Result struct {
	Rows []MergedRow
	// Dropped holds buckets with no matching candle.
	Dropped []TradeBucket
}

func (r Result) DroppedTrades() int {
	n := 0
	for _, b := range r.Dropped {
		n += len(b.Trades)
	}
	return n
}

// Aggregate groups trades by bucket start. Buckets come out ascending, and
// only intervals holding at least one trade get a bucket.
func Aggregate(list []trades.Trade, iv interval.Interval) []TradeBucket {
	index := make(map[int64]int)
	var buckets []TradeBucket
	for _, tr := range list {
		start := iv.Bucket(tr.Time)
		key := start.UnixMilli()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, TradeBucket{Start: start})
		}
		buckets[i].Trades = append(buckets[i].Trades, TradePoint{
			Time:  tr.Time.UTC().Format(TradeTimeLayout),
			Price: tr.Price.String(),
		})
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Start.Before(buckets[j].Start) })
	return buckets
}

// Join keeps every candle exactly once and attaches the bucket with the same
// start time, if any.
func Join(candles []market.Candle, ema []float64, buckets []TradeBucket) (Result, error) {
	if len(ema) != len(candles) {
		return Result{}, fmt.Errorf("ema has %d values for %d candles", len(ema), len(candles))
	}
	byStart := make(map[int64]*TradeBucket, len(buckets))
	for i := range buckets {
		byStart[buckets[i].Start.UnixMilli()] = &buckets[i]
	}
	rows := make([]MergedRow, len(candles))
	matched := make(map[int64]bool, len(buckets))
	for i, c := range candles {
		key := c.Start.UnixMilli()
		rows[i] = MergedRow{Candle: c, EMA: ema[i]}
		if b, ok := byStart[key]; ok {
			rows[i].Trades = b
			matched[key] = true
		}
	}
	var dropped []TradeBucket
	for _, b := range buckets {
		if !matched[b.Start.UnixMilli()] {
			dropped = append(dropped, b)
		}
	}
	return Result{Rows: rows, Dropped: dropped}, nil
}

// FormatTrades renders "time, price" pairs joined by " <br> " for chart
// hover text. A missing or empty bucket renders as "".
func FormatTrades(b *TradeBucket) string {
	if b.Empty() {
		return ""
	}
	parts := make([]string, len(b.Trades))
	for i, p := range b.Trades {
		parts[i] = p.Time + ", " + p.Price
	}
	return strings.Join(parts, " <br> ")
}
