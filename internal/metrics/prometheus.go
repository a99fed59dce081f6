package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const promNamespace = "tradeplot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

func (p promCounter) Add(v float64) {
	p.counter.Add(v)
}

type Prometheus struct {
	Metrics *Metrics

	registry       *prometheus.Registry
	pagesFetched   prometheus.Counter
	candlesFetched prometheus.Counter
	tradesLoaded   prometheus.Counter
	tradesDropped  prometheus.Counter
	runsFailed     prometheus.Counter
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	pagesFetched := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "kline_pages_fetched_total",
		Help:      "Total number of klines pages requested.",
	})
	candlesFetched := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "candles_fetched_total",
		Help:      "Total number of distinct candles fetched.",
	})
	tradesLoaded := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "trades_loaded_total",
		Help:      "Total number of trades read from the input file.",
	})
	tradesDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "trades_dropped_total",
		Help:      "Total number of trades whose bucket had no matching candle.",
	})
	runsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "runs_failed_total",
		Help:      "Total number of runs aborted by an error.",
	})

	registry.MustRegister(pagesFetched, candlesFetched, tradesLoaded, tradesDropped, runsFailed)

	m := &Metrics{
		PagesFetched:   promCounter{pagesFetched},
		CandlesFetched: promCounter{candlesFetched},
		TradesLoaded:   promCounter{tradesLoaded},
		TradesDropped:  promCounter{tradesDropped},
		RunsFailed:     promCounter{runsFailed},
	}

	return &Prometheus{
		Metrics:        m,
		registry:       registry,
		pagesFetched:   pagesFetched,
		candlesFetched: candlesFetched,
		tradesLoaded:   tradesLoaded,
		tradesDropped:  tradesDropped,
		runsFailed:     runsFailed,
	}
}

// WriteTextfile dumps the registry in the text exposition format, for the
// node exporter textfile collector.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}
