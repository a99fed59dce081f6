package render

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"tradeplot/internal/merge"
)

// TimeLayout formats bucket starts in both outputs.
const TimeLayout = "2006-01-02 15:04:05"

// WriteCSV writes one line per merged row under the merge.Columns header.
func WriteCSV(w io.Writer, rows []merge.MergedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(merge.Columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Start.UTC().Format(TimeLayout),
			formatFloat(row.Open),
			formatFloat(row.High),
			formatFloat(row.Low),
			formatFloat(row.Close),
			formatFloat(row.EMA),
			TradeList(row.Trades),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TradeList renders a bucket as [('time', price), ...]. Missing buckets render
// as an empty cell.
func TradeList(b *merge.TradeBucket) string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, p := range b.Trades {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("('")
		sb.WriteString(p.Time)
		sb.WriteString("', ")
		sb.WriteString(p.Price)
		sb.WriteByte(')')
	}
	sb.WriteByte(']')
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
