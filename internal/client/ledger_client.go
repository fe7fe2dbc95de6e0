// Package client runs the focus timer on the user's machine and keeps the
// remote ledger informed of completed work sessions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "pomodoro/internal/errors"
	"pomodoro/internal/model"
)

// ErrLedgerUnavailable is returned when the ledger cannot be reached or
// answers with something other than a response envelope.
var ErrLedgerUnavailable = errors.New("ledger unavailable")

// LedgerClient talks to the ledger's JSON API.
type LedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLedgerClient(baseURL string, timeout time.Duration) *LedgerClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LedgerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SessionCompletion is the body of a session-complete request. SessionID
// makes retries idempotent.
type SessionCompletion struct {
	SessionID       string    `json:"session_id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *LedgerClient) Health(ctx context.Context) error {
	var body struct {
		OK *bool `json:"ok"`
	}
	if _, err := c.send(ctx, http.MethodGet, "/api/health", nil, &body); err != nil {
		return err
	}
	if body.OK == nil || !*body.OK {
		return fmt.Errorf("%w: health check failed", ErrLedgerUnavailable)
	}
	return nil
}

func (c *LedgerClient) Settings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	err := c.call(ctx, http.MethodGet, "/api/settings", nil, &settings)
	return settings, err
}

func (c *LedgerClient) UpdateSettings(ctx context.Context, settings model.Settings) (model.Settings, error) {
	var updated model.Settings
	err := c.call(ctx, http.MethodPost, "/api/settings", settings, &updated)
	return updated, err
}

func (c *LedgerClient) Progress(ctx context.Context) (model.ProgressView, error) {
	var view model.ProgressView
	err := c.call(ctx, http.MethodGet, "/api/progress", nil, &view)
	return view, err
}

func (c *LedgerClient) CompleteSession(ctx context.Context, completion SessionCompletion) (model.ProgressView, error) {
	var view model.ProgressView
	err := c.call(ctx, http.MethodPost, "/api/session-complete", completion, &view)
	return view, err
}

func (c *LedgerClient) Achievements(ctx context.Context) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := c.call(ctx, http.MethodGet, "/api/achievements", nil, &achievements)
	return achievements, err
}

func (c *LedgerClient) History(ctx context.Context, limit int) ([]model.Session, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var sessions []model.Session
	err := c.call(ctx, http.MethodGet, "/api/history"+encodeQuery(query), nil, &sessions)
	return sessions, err
}

func (c *LedgerClient) Summary(ctx context.Context, days int) (model.HistorySummary, error) {
	query := url.Values{}
	if days > 0 {
		query.Set("days", strconv.Itoa(days))
	}
	var summary model.HistorySummary
	err := c.call(ctx, http.MethodGet, "/api/history/summary"+encodeQuery(query), nil, &summary)
	return summary, err
}

func encodeQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	return "?" + query.Encode()
}

// call performs an enveloped request and decodes data into out.
func (c *LedgerClient) call(ctx context.Context, method, path string, in, out interface{}) error {
	var env envelope
	status, err := c.send(ctx, method, path, in, &env)
	if err != nil {
		return err
	}
	if !env.Success {
		if env.Error == "" {
			return fmt.Errorf("%w: %s %s returned %d without an envelope", ErrLedgerUnavailable, method, path, status)
		}
		return apperrors.New(status, "ledger_error", env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrLedgerUnavailable, method, path, err)
	}
	return nil
}

func (c *LedgerClient) send(ctx context.Context, method, path string, in, out interface{}) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %s %s returned %d: %v", ErrLedgerUnavailable, method, path, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
