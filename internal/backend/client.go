package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rafcdn/internal/config"
	"rafcdn/internal/logging"
	"rafcdn/internal/uploads"
)

const (
	userAgent    = "rafcdn/1.0"
	maxErrorBody = 4 << 10
)

// HTTPDoer describes the HTTP client used by the backend client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	UploadPath     string
	HistoryPath    string
	LogoutPath     string
	FormField      string
	Token          string
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
	Logger         *slog.Logger
}

// Client talks to the upload backend. It satisfies uploads.Transport and
// uploads.HistorySource.
type Client struct {
	baseURL     string
	uploadPath  string
	historyPath string
	logoutPath  string
	formField   string
	token       string
	timeout     time.Duration
	client      HTTPDoer
	logger      *slog.Logger
}

var (
	_ uploads.Transport     = (*Client)(nil)
	_ uploads.HistorySource = (*Client)(nil)
)

func New(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		uploadPath:  opts.UploadPath,
		historyPath: opts.HistoryPath,
		logoutPath:  opts.LogoutPath,
		formField:   opts.FormField,
		token:       strings.TrimSpace(opts.Token),
		timeout:     opts.RequestTimeout,
		client:      opts.HTTPClient,
		logger:      logging.NewComponentLogger(opts.Logger, "backend"),
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	if c.formField == "" {
		c.formField = "video"
	}
	return c
}

// NewFromConfig builds a client for the configured backend using token as the bearer credential.
func NewFromConfig(cfg *config.Config, token string, logger *slog.Logger) *Client {
	return New(Options{
		BaseURL:        cfg.Backend.BaseURL,
		UploadPath:     cfg.Backend.UploadPath,
		HistoryPath:    cfg.Backend.HistoryPath,
		LogoutPath:     cfg.Backend.LogoutPath,
		FormField:      cfg.Upload.FormField,
		Token:          token,
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         logger,
	})
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}

// History fetches the server's upload history. The response is a JSON array
// of records; an object wrapping the array under "uploads" is also accepted.
func (c *Client) History(ctx context.Context) ([]uploads.ServerRecord, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.historyPath), nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, "fetch history")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("fetch history", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	records, err := decodeHistory(raw)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("history fetched", logging.Int("records", len(records)))
	return records, nil
}

func decodeHistory(raw []byte) ([]uploads.ServerRecord, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Uploads []uploads.ServerRecord `json:"uploads"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		return wrapped.Uploads, nil
	}
	var records []uploads.ServerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.logoutPath), nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	c.authorize(req)

	resp, err := c.do(req, "logout")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return statusError("logout", resp)
	}
	return nil
}

// Ping checks that the backend answers HTTP at all; any status counts.
func (c *Client) Ping(ctx context.Context) (int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.historyPath), nil)
	if err != nil {
		return 0, fmt.Errorf("build ping request: %w", err)
	}
	c.authorize(req)
	resp, err := c.do(req, "ping backend")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode, nil
}
