package market

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// parseKline reads [openTimeMs, open, high, low, close, ...]. Trailing
// elements are ignored.
func parseKline(row []any) (time.Time, [4]float64, error) {
	var prices [4]float64
	if len(row) < 5 {
		return time.Time{}, prices, fmt.Errorf("kline has %d fields, need 5", len(row))
	}
	openMs, ok := int64FromAny(row[0])
	if !ok {
		return time.Time{}, prices, fmt.Errorf("kline open time %v is not an integer", row[0])
	}
	for i := 0; i < 4; i++ {
		f, err := priceFromAny(row[i+1])
		if err != nil {
			return time.Time{}, prices, err
		}
		prices[i] = f
	}
	return time.UnixMilli(openMs).UTC(), prices, nil
}

// priceFromAny parses exchange price strings through decimal so the float
// is the nearest value to the text the API sent.
func priceFromAny(v any) (float64, error) {
	var d decimal.Decimal
	var err error
	switch val := v.(type) {
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(val))
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	case float64:
		d = decimal.NewFromFloat(val)
	default:
		return 0, fmt.Errorf("price %v has unexpected type %T", v, v)
	}
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func int64FromAny(v any) (int64, bool) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		return n, err == nil
	case float64:
		return int64(val), val == float64(int64(val))
	case int64:
		return val, true
	case int:
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
