package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	REST      RESTConfig      `yaml:"rest"`
	Market    MarketConfig    `yaml:"market"`
	Trades    TradesConfig    `yaml:"trades"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Output    OutputConfig    `yaml:"output"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File receives a plain-text copy of the run log. Empty logs to stderr only.
	File string `yaml:"file"`
}

type RESTConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type MarketConfig struct {
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"`
}

type TradesConfig struct {
	Path        string `yaml:"path"`
	TimeColumn  string `yaml:"time_column"`
	PriceColumn string `yaml:"price_column"`
	TimeLayout  string `yaml:"time_layout"`
}

type IndicatorConfig struct {
	EMALength int `yaml:"ema_length"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

func (m MetricsConfig) EnabledValue() bool {
	return m.Enabled != nil && *m.Enabled
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("TRADEPLOT_SYMBOL")); v != "" {
		cfg.Market.Symbol = v
	}
	if v := strings.TrimSpace(os.Getenv("TRADEPLOT_INTERVAL")); v != "" {
		cfg.Market.Interval = v
	}
	if v := strings.TrimSpace(os.Getenv("TRADEPLOT_TRADES_PATH")); v != "" {
		cfg.Trades.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		cfg.Telegram.ChatID = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = cfg.Output.Dir + "/log.log"
	}
	if cfg.REST.BaseURL == "" {
		cfg.REST.BaseURL = "https://api.binance.com"
	}
	cfg.REST.BaseURL = strings.TrimRight(cfg.REST.BaseURL, "/")
	if cfg.REST.Timeout == 0 {
		cfg.REST.Timeout = 10 * time.Second
	}
	if cfg.Market.Symbol == "" {
		cfg.Market.Symbol = "BTCUSDT"
	}
	if cfg.Market.Interval == "" {
		cfg.Market.Interval = "1h"
	}
	if cfg.Trades.Path == "" {
		cfg.Trades.Path = "input/trades.csv"
	}
	if cfg.Trades.TimeColumn == "" {
		cfg.Trades.TimeColumn = "TS"
	}
	if cfg.Trades.PriceColumn == "" {
		cfg.Trades.PriceColumn = "PRICE"
	}
	if cfg.Trades.TimeLayout == "" {
		cfg.Trades.TimeLayout = "2006-01-02 15:04:05.999999"
	}
	if cfg.Indicator.EMALength == 0 {
		cfg.Indicator.EMALength = 20
	}
	if cfg.Metrics.Enabled == nil {
		enabled := true
		cfg.Metrics.Enabled = &enabled
	}
	if cfg.Metrics.Textfile == "" {
		cfg.Metrics.Textfile = cfg.Output.Dir + "/metrics.prom"
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Market.Symbol) == "" {
		return errors.New("market.symbol is required")
	}
	if cfg.Indicator.EMALength <= 0 {
		return errors.New("indicator.ema_length must be > 0")
	}
	if cfg.REST.Timeout < 0 {
		return errors.New("rest.timeout must be >= 0")
	}
	if !strings.HasPrefix(cfg.REST.BaseURL, "http://") && !strings.HasPrefix(cfg.REST.BaseURL, "https://") {
		return errors.New("rest.base_url must be an http(s) url")
	}
	if cfg.Telegram.Enabled && (strings.TrimSpace(cfg.Telegram.Token) == "" || strings.TrimSpace(cfg.Telegram.ChatID) == "") {
		return errors.New("telegram.token and telegram.chat_id are required when telegram is enabled")
	}
	return nil
}
