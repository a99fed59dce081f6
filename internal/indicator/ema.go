package indicator

// EMA is the recursive (unadjusted) exponential moving average of values in
// order. The first output equals the first input. length must be positive.
func EMA(values []float64, length int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2 / (float64(length) + 1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}
