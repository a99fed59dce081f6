package market

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"tradeplot/internal/binance/rest"
	"tradeplot/internal/interval"
	"tradeplot/internal/metrics"

	"go.uber.org/zap"
)

// fakeKlines serves an hourly series of candles with open times in
// [first, last], honoring startTime/endTime and capping pages at pageCap.
type fakeKlines struct {
	first   time.Time
	last    time.Time
	step    time.Duration
	pageCap int
	gaps    map[int64]bool
	calls   []rest.KlinesRequest
	err     error
}

func (f *fakeKlines) Klines(ctx context.Context, req rest.KlinesRequest) ([][]any, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	limit := req.Limit
	if f.pageCap > 0 && f.pageCap < limit {
		limit = f.pageCap
	}
	var rows [][]any
	for ts := f.first; !ts.After(f.last) && len(rows) < limit; ts = ts.Add(f.step) {
		ms := ts.UnixMilli()
		if ms < req.StartTime || ms > req.EndTime || f.gaps[ms] {
			continue
		}
		price := strconv.FormatInt(ms/1000%1000, 10)
		rows = append(rows, []any{json.Number(strconv.FormatInt(ms, 10)), price + ".5", price + ".9", price + ".1", price + ".7", "12.0"})
	}
	return rows, nil
}

func hourly(t *testing.T) interval.Interval {
	t.Helper()
	iv, err := interval.Parse("1h")
	if err != nil {
		t.Fatalf("parse interval: %v", err)
	}
	return iv
}

func assertContiguous(t *testing.T, candles []Candle, first time.Time, n int, step time.Duration) {
	t.Helper()
	if len(candles) != n {
		t.Fatalf("expected %d candles, got %d", n, len(candles))
	}
	for i, c := range candles {
		want := first.Add(time.Duration(i) * step)
		if !c.Start.Equal(want) {
			t.Fatalf("candle %d: expected %v, got %v", i, want, c.Start)
		}
	}
}

func TestCandlesPagesUntilEnd(t *testing.T) {
	first := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(1199 * time.Hour)
	src := &fakeKlines{first: first, last: last, step: time.Hour}
	prom := metrics.NewPrometheus()
	f := NewFetcher(src, "BTCUSDT", hourly(t), zap.NewNop(), prom.Metrics)

	candles, err := f.Candles(context.Background(), first.UnixMilli(), last.UnixMilli())
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	assertContiguous(t, candles, first, 1200, time.Hour)
	if len(src.calls) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(src.calls))
	}
	for _, call := range src.calls {
		if call.Limit != PageLimit || call.Symbol != "BTCUSDT" || call.Interval != "1h" {
			t.Fatalf("unexpected request %+v", call)
		}
		if call.EndTime != last.UnixMilli() {
			t.Fatalf("expected end %d, got %d", last.UnixMilli(), call.EndTime)
		}
	}
	if src.calls[1].StartTime != first.Add(500*time.Hour).UnixMilli() {
		t.Fatalf("unexpected second cursor %d", src.calls[1].StartTime)
	}
}

func TestCandlesShortPagesDoNotSkip(t *testing.T) {
	first := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(249 * time.Hour)
	src := &fakeKlines{first: first, last: last, step: time.Hour, pageCap: 100}
	f := NewFetcher(src, "BTCUSDT", hourly(t), zap.NewNop(), nil)

	candles, err := f.Candles(context.Background(), first.UnixMilli(), last.UnixMilli())
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	assertContiguous(t, candles, first, 250, time.Hour)
	if len(src.calls) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(src.calls))
	}
}

func TestCandlesSingleBucketRange(t *testing.T) {
	first := time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeKlines{first: first, last: first, step: time.Hour}
	f := NewFetcher(src, "BTCUSDT", hourly(t), zap.NewNop(), nil)

	candles, err := f.Candles(context.Background(), first.UnixMilli(), first.UnixMilli())
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	c := candles[0]
	if c.Open != 400.5 || c.High != 400.9 || c.Low != 400.1 || c.Close != 400.7 {
		t.Fatalf("unexpected prices %+v", c)
	}
}

func TestCandlesLeadingGap(t *testing.T) {
	first := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(799 * time.Hour)
	gaps := map[int64]bool{}
	for i := 0; i < 500; i++ {
		gaps[first.Add(time.Duration(i)*time.Hour).UnixMilli()] = true
	}
	src := &fakeKlines{first: first, last: last, step: time.Hour, gaps: gaps, pageCap: 500}
	f := NewFetcher(src, "BTCUSDT", hourly(t), zap.NewNop(), nil)

	candles, err := f.Candles(context.Background(), first.UnixMilli(), last.UnixMilli())
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	assertContiguous(t, candles, first.Add(500*time.Hour), 300, time.Hour)
	if len(src.calls) != 1 {
		t.Fatalf("expected 1 page, got %d", len(src.calls))
	}
}

func TestCandlesEmptyPageAdvancesBySpan(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(1199 * time.Hour)
	src := &fakeKlines{first: end.Add(time.Hour), last: end.Add(time.Hour), step: time.Hour}
	f := NewFetcher(src, "BTCUSDT", hourly(t), zap.NewNop(), nil)

	candles, err := f.Candles(context.Background(), start.UnixMilli(), end.UnixMilli())
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(candles) != 0 {
		t.Fatalf("expected no candles, got %d", len(candles))
	}
	if len(src.calls) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(src.calls))
	}
	for i, call := range src.calls {
		want := start.Add(time.Duration(i*PageLimit) * time.Hour).UnixMilli()
		if call.StartTime != want {
			t.Fatalf("page %d: expected start %d, got %d", i, want, call.StartTime)
		}
	}
}

func TestCandlesAbortsOnError(t *testing.T) {
	first := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	upstream := &rest.APIError{Status: 400, Code: -1121, Message: "Invalid symbol."}
	src := &fakeKlines{first: first, last: first, step: time.Hour, err: upstream}
	f := NewFetcher(src, "NOPE", hourly(t), zap.NewNop(), nil)

	candles, err := f.Candles(context.Background(), first.UnixMilli(), first.Add(time.Hour).UnixMilli())
	var apiErr *rest.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped APIError, got %v", err)
	}
	if candles != nil {
		t.Fatalf("expected no partial result")
	}
	if len(src.calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(src.calls))
	}
}

func TestParseKlineRejectsShortRow(t *testing.T) {
	if _, _, err := parseKline([]any{json.Number("1"), "1", "2"}); err == nil {
		t.Fatalf("expected error for short row")
	}
	if _, _, err := parseKline([]any{"x", "1", "2", "3", "4"}); err == nil {
		t.Fatalf("expected error for bad open time")
	}
}
