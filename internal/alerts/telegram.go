package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tradeplot/internal/config"

	"go.uber.org/zap"
)

const telegramBaseURL = "https://api.telegram.org"

// Summary describes a finished run.
type Summary struct {
	RunID         string
	Symbol        string
	Interval      string
	Trades        int
	Candles       int
	DroppedTrades int
	Outputs       []string
}

func (s Summary) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tradeplot %s %s done (run %s)\n", s.Symbol, s.Interval, s.RunID)
	fmt.Fprintf(&b, "trades: %d, candles: %d", s.Trades, s.Candles)
	if s.DroppedTrades > 0 {
		fmt.Fprintf(&b, ", outside candle range: %d", s.DroppedTrades)
	}
	if len(s.Outputs) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(s.Outputs, ", "))
	}
	return b.String()
}

type Telegram struct {
	enabled bool
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewTelegram(cfg config.TelegramConfig, log *zap.Logger) *Telegram {
	return newTelegram(cfg, log, telegramBaseURL, &http.Client{Timeout: 10 * time.Second})
}

func newTelegram(cfg config.TelegramConfig, log *zap.Logger, baseURL string, client *http.Client) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{
		enabled: cfg.Enabled,
		token:   strings.TrimSpace(cfg.Token),
		chatID:  strings.TrimSpace(cfg.ChatID),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
	}
}

// RunSucceeded and RunFailed only log delivery failures; a notification
// never changes the run's outcome.
func (t *Telegram) RunSucceeded(ctx context.Context, s Summary) {
	if err := t.Send(ctx, s.Message()); err != nil {
		t.log.Warn("telegram notify failed", zap.Error(err))
	}
}

func (t *Telegram) RunFailed(ctx context.Context, runID string, runErr error) {
	msg := fmt.Sprintf("tradeplot run %s failed: %v", runID, runErr)
	if err := t.Send(ctx, msg); err != nil {
		t.log.Warn("telegram notify failed", zap.Error(err))
	}
}

func (t *Telegram) Send(ctx context.Context, message string) error {
	if !t.enabled {
		return nil
	}
	if t.token == "" || t.chatID == "" {
		return errors.New("telegram token and chat_id are required")
	}
	if strings.TrimSpace(message) == "" {
		return errors.New("telegram message is empty")
	}
	payload := map[string]string{
		"chat_id": t.chatID,
		"text":    message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("telegram send failed: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			desc := strings.TrimSpace(result.Description)
			if desc == "" {
				desc = "unknown telegram error"
			}
			return fmt.Errorf("telegram send failed: %s", desc)
		}
	}
	return nil
}
