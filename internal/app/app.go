package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tradeplot/internal/alerts"
	"tradeplot/internal/binance/rest"
	"tradeplot/internal/config"
	"tradeplot/internal/indicator"
	"tradeplot/internal/interval"
	"tradeplot/internal/market"
	"tradeplot/internal/merge"
	"tradeplot/internal/metrics"
	"tradeplot/internal/render"
	"tradeplot/internal/trades"

	"go.uber.org/zap"
)

const (
	dataFile = "data.csv"
	plotFile = "plot.html"
)

type App struct {
	cfg        *config.Config
	log        *zap.Logger
	runID      string
	interval   interval.Interval
	normalizer interval.Normalizer
	fetcher    *market.Fetcher
	metrics    *metrics.Metrics
	prom       *metrics.Prometheus
	alerts     *alerts.Telegram
}

func New(cfg *config.Config, log *zap.Logger, runID string) (*App, error) {
	iv, err := interval.Parse(cfg.Market.Interval)
	if err != nil {
		return nil, err
	}
	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.EnabledValue() {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}
	restClient := rest.New(cfg.REST.BaseURL, cfg.REST.Timeout, log)
	return &App{
		cfg:        cfg,
		log:        log,
		runID:      runID,
		interval:   iv,
		normalizer: interval.NewNormalizer(iv, cfg.Trades.TimeLayout),
		fetcher:    market.NewFetcher(restClient, cfg.Market.Symbol, iv, log, m),
		metrics:    m,
		prom:       prom,
		alerts:     alerts.NewTelegram(cfg.Telegram, log),
	}, nil
}

func (a *App) DataPath() string {
	return filepath.Join(a.cfg.Output.Dir, dataFile)
}

func (a *App) PlotPath() string {
	return filepath.Join(a.cfg.Output.Dir, plotFile)
}

// Run executes the pipeline once. The first error aborts the run; outputs
// deleted up front are not restored.
func (a *App) Run(ctx context.Context) error {
	summary, err := a.run(ctx)
	if err != nil {
		a.metrics.RunsFailed.Inc()
	}
	a.writeMetrics()
	if err != nil {
		a.alerts.RunFailed(ctx, a.runID, err)
		return err
	}
	a.alerts.RunSucceeded(ctx, summary)
	return nil
}

func (a *App) run(ctx context.Context) (alerts.Summary, error) {
	summary := alerts.Summary{
		RunID:    a.runID,
		Symbol:   a.cfg.Market.Symbol,
		Interval: a.interval.String(),
	}
	if err := os.MkdirAll(a.cfg.Output.Dir, 0o755); err != nil {
		return summary, err
	}
	for _, path := range a.outputs() {
		if err := DeleteFile(path, a.log); err != nil {
			return summary, err
		}
	}

	a.log.Info("getting trades and data", zap.String("trades_path", a.cfg.Trades.Path))
	table, err := trades.Load(a.cfg.Trades.Path, trades.Columns{
		Time:  a.cfg.Trades.TimeColumn,
		Price: a.cfg.Trades.PriceColumn,
	}, a.normalizer)
	if err != nil {
		return summary, err
	}
	a.metrics.TradesLoaded.Add(float64(table.Len()))
	summary.Trades = table.Len()
	first, last, ok := table.TimeRange()
	if !ok {
		return summary, fmt.Errorf("no trades in %s", a.cfg.Trades.Path)
	}
	start, err := a.normalizer.Normalize(first)
	if err != nil {
		return summary, err
	}
	end, err := a.normalizer.Normalize(last)
	if err != nil {
		return summary, err
	}

	candles, err := a.fetcher.Candles(ctx, start, end)
	if err != nil {
		return summary, err
	}
	summary.Candles = len(candles)
	ema := indicator.EMA(market.Closes(candles), a.cfg.Indicator.EMALength)
	buckets := merge.Aggregate(table.Trades, a.interval)
	result, err := merge.Join(candles, ema, buckets)
	if err != nil {
		return summary, err
	}
	if dropped := result.DroppedTrades(); dropped > 0 {
		summary.DroppedTrades = dropped
		a.metrics.TradesDropped.Add(float64(dropped))
		a.log.Warn("trades outside fetched candle range",
			zap.Int("trades", dropped),
			zap.Int("buckets", len(result.Dropped)),
		)
	}

	if err := writeFile(a.DataPath(), func(w io.Writer) error {
		return render.WriteCSV(w, result.Rows)
	}); err != nil {
		return summary, err
	}
	a.log.Info("data saved", zap.String("path", a.DataPath()), zap.Int("rows", len(result.Rows)))

	title := a.cfg.Market.Symbol + " " + a.interval.String()
	if err := writeFile(a.PlotPath(), func(w io.Writer) error {
		return render.WriteChart(w, result.Rows, title)
	}); err != nil {
		return summary, err
	}
	a.log.Info("plot saved", zap.String("path", a.PlotPath()))
	summary.Outputs = []string{a.DataPath(), a.PlotPath()}
	return summary, nil
}

func (a *App) outputs() []string {
	paths := []string{a.PlotPath(), a.DataPath()}
	if a.prom != nil {
		paths = append(paths, a.cfg.Metrics.Textfile)
	}
	return paths
}

func (a *App) writeMetrics() {
	if a.prom == nil {
		return
	}
	if err := a.prom.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Warn("metrics textfile write failed", zap.Error(err))
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Kind classifies a run error for logs and exit handling.
func Kind(err error) string {
	var apiErr *rest.APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, interval.ErrUnknownUnit):
		return "configuration"
	case errors.Is(err, trades.ErrMissingInput):
		return "missing_input"
	case errors.As(err, &apiErr):
		return "upstream"
	default:
		return "internal"
	}
}
