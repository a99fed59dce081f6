package market

import "time"

type Candle struct {
	Start time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
