// internal/remote/client.go
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/projectmdp/marketsync/internal/utils"
)

const defaultTimeout = 15 * time.Second

// HTTPClient talks to the remote transaction service over JSON/HTTP.
// Transport faults are retried with exponential backoff; remote-reported
// failures are returned as decoded envelopes, never retried.
type HTTPClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
	maxTries   uint
	retryDelay time.Duration
}

// Option customizes the HTTPClient.
type Option func(*HTTPClient)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the maximum attempts per call, including the first.
func WithRetries(maxTries uint) Option {
	return func(c *HTTPClient) {
		c.maxTries = maxTries
	}
}

// WithRetryDelay sets the initial backoff interval.
func WithRetryDelay(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// NewHTTPClient creates a client for the given service base URL. The auth
// token, when non-empty, is sent as a bearer credential on every request.
func NewHTTPClient(baseURL, authToken string, logger *zap.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Named("remote"),
		maxTries:   3,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateResponse, error) {
	var resp CreateResponse
	if err := c.call(ctx, http.MethodPost, "/transactions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) MyTransactions(ctx context.Context) (*ListResponse, error) {
	var resp ListResponse
	if err := c.call(ctx, http.MethodGet, "/transactions/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) TransactionByID(ctx context.Context, id string) (*TransactionResponse, error) {
	var resp TransactionResponse
	path := "/transactions/" + url.PathEscape(id)
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateTransactionStatus(ctx context.Context, id string, req UpdateStatusRequest) (*TransactionResponse, error) {
	var resp TransactionResponse
	path := "/transactions/" + url.PathEscape(id) + "/status"
	if err := c.call(ctx, http.MethodPut, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// call performs one logical request with retries around transport faults.
// Any response whose body decodes into the envelope shape is a final
// answer, regardless of HTTP status.
func (c *HTTPClient) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.InitialInterval = c.retryDelay
	backoffPolicy.MaxInterval = c.retryDelay * 10

	notify := func(err error, duration time.Duration) {
		c.logger.Info("Retrying remote call after error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
			zap.Duration("backoff", duration))
	}

	operation := func() (struct{}, error) {
		return struct{}{}, c.doOnce(ctx, method, path, payload, out)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoffPolicy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify))
	if err != nil {
		c.logger.Error("Remote call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return err
	}
	return nil
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	return utils.MeasureRemoteCall(func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if err := json.Unmarshal(raw, out); err != nil {
			if resp.StatusCode >= 500 {
				// Gateway noise; worth another attempt.
				return fmt.Errorf("server error %d with unreadable body: %w", resp.StatusCode, err)
			}
			return backoff.Permanent(fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err))
		}
		return nil
	})
}
