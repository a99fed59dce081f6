package trades

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrMissingInput = errors.New("trades file not found")

const (
	ColumnTime  = "Time"
	ColumnPrice = "Price"
)

// Columns names the source header fields renamed to Time and Price.
type Columns struct {
	Time  string
	Price string
}

type Trade struct {
	Raw   string
	Time  time.Time
	Price decimal.Decimal
}

type Table struct {
	Trades []Trade
}

func (t *Table) Columns() []string {
	return []string{ColumnTime, ColumnPrice}
}

func (t *Table) Len() int {
	return len(t.Trades)
}

// TimeRange returns the raw timestamps of the earliest and latest trades.
func (t *Table) TimeRange() (string, string, bool) {
	if len(t.Trades) == 0 {
		return "", "", false
	}
	first, last := t.Trades[0], t.Trades[0]
	for _, tr := range t.Trades[1:] {
		if tr.Time.Before(first.Time) {
			first = tr
		}
		if tr.Time.After(last.Time) {
			last = tr
		}
	}
	return first.Raw, last.Raw, true
}

// TimeParser converts a raw timestamp cell into a time.
type TimeParser interface {
	Parse(raw string) (time.Time, error)
}

func Load(path string, cols Columns, parser TimeParser) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f, cols, parser)
}

// Read parses a header-led CSV stream. Rows keep file order.
func Read(r io.Reader, cols Columns, parser TimeParser) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("trades file is empty")
		}
		return nil, err
	}
	timeIdx, priceIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case cols.Time:
			timeIdx = i
		case cols.Price:
			priceIdx = i
		}
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("trades file missing column %q", cols.Time)
	}
	if priceIdx < 0 {
		return nil, fmt.Errorf("trades file missing column %q", cols.Price)
	}

	table := &Table{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		raw := strings.TrimSpace(record[timeIdx])
		ts, err := parser.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, ColumnTime, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(record[priceIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, ColumnPrice, err)
		}
		table.Trades = append(table.Trades, Trade{Raw: raw, Time: ts, Price: price})
	}
	return table, nil
}
