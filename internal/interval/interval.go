// Package interval maps exchange interval strings such as "15m" or "1d" onto
// a UTC bucket grid shared by candles and trades.
package interval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrUnknownUnit = errors.New("unknown interval unit")

type Unit byte

const (
	Minute Unit = 'm'
	Hour   Unit = 'h'
	Day    Unit = 'd'
	Week   Unit = 'w'
	Month  Unit = 'M'
)

type Interval struct {
	raw   string
	Count int
	Unit  Unit
}

// Parse accepts "<N><unit>" with unit one of m, h, d, w, M. N defaults to 1.
func Parse(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Interval{}, fmt.Errorf("%w: empty interval", ErrUnknownUnit)
	}
	unit := Unit(s[len(s)-1])
	switch unit {
	case Minute, Hour, Day, Week, Month:
	default:
		return Interval{}, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
	count := 1
	if digits := s[:len(s)-1]; digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil || n <= 0 {
			return Interval{}, fmt.Errorf("invalid interval count %q", s)
		}
		count = n
	}
	return Interval{raw: s, Count: count, Unit: unit}, nil
}

func (iv Interval) String() string {
	if iv.raw != "" {
		return iv.raw
	}
	return strconv.Itoa(iv.Count) + string(iv.Unit)
}

// Duration is the nominal bucket width. Months count as 31 days, which keeps
// the pagination step an upper bound.
func (iv Interval) Duration() time.Duration {
	n := time.Duration(iv.Count)
	switch iv.Unit {
	case Minute:
		return n * time.Minute
	case Hour:
		return n * time.Hour
	case Day:
		return n * 24 * time.Hour
	case Week:
		return n * 7 * 24 * time.Hour
	case Month:
		return n * 31 * 24 * time.Hour
	}
	return 0
}

// Bucket returns the UTC start of the bucket containing t.
func (iv Interval) Bucket(t time.Time) time.Time {
	t = t.UTC()
	switch iv.Unit {
	case Minute, Hour, Day:
		width := iv.Duration().Milliseconds()
		ms := t.UnixMilli()
		ms -= floorMod(ms, width)
		return time.UnixMilli(ms).UTC()
	case Week:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		monday := day.AddDate(0, 0, -offset)
		// multi-week buckets are counted from the Monday before the epoch
		weeks := monday.Sub(epochMonday).Milliseconds() / (7 * 24 * time.Hour).Milliseconds()
		return monday.AddDate(0, 0, -7*int(floorMod(weeks, int64(iv.Count))))
	case Month:
		months := t.Year()*12 + int(t.Month()) - 1
		months -= int(floorMod(int64(months), int64(iv.Count)))
		return time.Date(months/12, time.Month(months%12+1), 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Next returns the start of the bucket after the one containing t.
func (iv Interval) Next(t time.Time) time.Time {
	start := iv.Bucket(t)
	switch iv.Unit {
	case Week:
		return start.AddDate(0, 0, 7*iv.Count)
	case Month:
		return start.AddDate(0, iv.Count, 0)
	}
	return start.Add(iv.Duration())
}

var epochMonday = time.Date(1969, 12, 29, 0, 0, 0, 0, time.UTC)

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Normalizer turns raw trade timestamps into bucket starts in epoch millis.
type Normalizer struct {
	Interval Interval
	Layout   string
}

func NewNormalizer(iv Interval, layout string) Normalizer {
	return Normalizer{Interval: iv, Layout: layout}
}

// Parse reads raw with the configured layout, in UTC, at full precision.
func (n Normalizer) Parse(raw string) (time.Time, error) {
	return time.ParseInLocation(n.Layout, strings.TrimSpace(raw), time.UTC)
}

// Normalize drops anything finer than a millisecond before bucketing.
func (n Normalizer) Normalize(raw string) (int64, error) {
	t, err := n.Parse(raw)
	if err != nil {
		return 0, err
	}
	return n.Interval.Bucket(t.Truncate(time.Millisecond)).UnixMilli(), nil
}
