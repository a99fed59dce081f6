package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const klinesPath = "/api/v3/klines"

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// APIError is a non-2xx reply. Message carries the API's "msg" field when
// the body decodes, otherwise the raw body.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("http %d: code %d: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type KlinesRequest struct {
	Symbol    string
	Interval  string
	StartTime int64
	EndTime   int64
	Limit     int
}

func (r KlinesRequest) values() url.Values {
	q := url.Values{}
	q.Set("symbol", r.Symbol)
	q.Set("interval", r.Interval)
	if r.StartTime > 0 {
		q.Set("startTime", strconv.FormatInt(r.StartTime, 10))
	}
	if r.EndTime > 0 {
		q.Set("endTime", strconv.FormatInt(r.EndTime, 10))
	}
	if r.Limit > 0 {
		q.Set("limit", strconv.Itoa(r.Limit))
	}
	return q
}

// Klines returns the raw kline rows, each an array whose leading elements are
// open time, open, high, low and close.
func (c *Client) Klines(ctx context.Context, req KlinesRequest) ([][]any, error) {
	var rows [][]any
	if err := c.get(ctx, klinesPath, req.values(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	c.log.Debug("rest request", zap.String("url", endpoint))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return decodeAPIError(resp.StatusCode, body)
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	return decoder.Decode(out)
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: strings.TrimSpace(string(body))}
	var payload struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Msg != "" {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Msg
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
