package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tradeplot/internal/binance/rest"
	"tradeplot/internal/config"
	"tradeplot/internal/interval"
	"tradeplot/internal/logging"
	"tradeplot/internal/market"

	"go.uber.org/zap"
)

const (
	defaultRESTTimeout   = 10 * time.Second
	defaultRESTBaseURL   = "https://api.binance.com"
	defaultSymbol        = "BTCUSDT"
	defaultInterval      = "1h"
	defaultVerifyEnvFile = ".env"
)

// verify fetches a short window of candles to check API connectivity and the
// configured symbol/interval before a full run.
func main() {
	configPath := flag.String("config", "", "optional config path for REST and market settings")
	hours := flag.Int("hours", 24, "lookback window ending now")
	flag.Parse()

	if err := config.LoadEnv(defaultVerifyEnvFile); err != nil {
		fatal(err)
	}

	logCfg := config.LoggingConfig{Level: "info"}
	baseURL := defaultRESTBaseURL
	timeout := defaultRESTTimeout
	symbol := defaultSymbol
	rawInterval := defaultInterval
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		logCfg = config.LoggingConfig{Level: cfg.Log.Level}
		baseURL = cfg.REST.BaseURL
		timeout = cfg.REST.Timeout
		symbol = cfg.Market.Symbol
		rawInterval = cfg.Market.Interval
	}
	if *hours <= 0 {
		fatal(fmt.Errorf("hours must be > 0, got %d", *hours))
	}

	log := logging.New(logCfg)
	defer func() { _ = log.Sync() }()

	iv, err := interval.Parse(rawInterval)
	if err != nil {
		fatal(err)
	}
	end := time.Now().UTC()
	start := iv.Bucket(end.Add(-time.Duration(*hours) * time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	fetcher := market.NewFetcher(rest.New(baseURL, timeout, log), symbol, iv, log, nil)
	candles, err := fetcher.Candles(ctx, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		fatal(err)
	}
	log.Info("verify ok",
		zap.String("symbol", symbol),
		zap.String("interval", iv.String()),
		zap.Int("candles", len(candles)),
	)
	for _, c := range candles {
		fmt.Printf("%s open=%g high=%g low=%g close=%g\n", c.Start.Format(time.RFC3339), c.Open, c.High, c.Low, c.Close)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
