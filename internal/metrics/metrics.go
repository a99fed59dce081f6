package metrics

type Counter interface {
	Inc()
	Add(float64)
}

type Metrics struct {
	PagesFetched   Counter
	CandlesFetched Counter
	TradesLoaded   Counter
	TradesDropped  Counter
	RunsFailed     Counter
}

type noopCounter struct{}

func (noopCounter) Inc()        {}
func (noopCounter) Add(float64) {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		PagesFetched:   n,
		CandlesFetched: n,
		TradesLoaded:   n,
		TradesDropped:  n,
		RunsFailed:     n,
	}
}
