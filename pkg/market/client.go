package market

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

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"

	"github.com/remakery/storefront-backend/pkg/config"
	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/types"
)

// Client wraps the upstream marketplace REST services (listings, cart,
// addresses, orders) with centralized auth forwarding, timeouts, retry on
// idempotent reads, and a circuit breaker.
type Client struct {
	http          *http.Client
	baseURL       string
	breaker       *gobreaker.CircuitBreaker[[]byte]
	retryAttempts uint64
	retryBackoff  time.Duration
	commitTimeout time.Duration
	logger        *logger.Logger
}

type tokenKey struct{}

// ContextWithToken stores the caller's bearer token for upstream forwarding.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if strings.TrimSpace(token) == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(tokenKey{}).(string); ok {
		return token
	}
	return ""
}

// NewClient initializes the marketplace client and validates its config.
func NewClient(cfg config.MarketConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("market base url is required")
	}
	if logg == nil {
		return nil, errors.New("market logger is required")
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "market-reads",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		http:          &http.Client{Timeout: cfg.Timeout},
		baseURL:       baseURL,
		breaker:       breaker,
		retryAttempts: cfg.RetryAttempts,
		retryBackoff:  cfg.RetryBackoff,
		commitTimeout: cfg.CommitTimeout,
		logger:        logg,
	}, nil
}

// getJSON issues an idempotent read through the breaker with bounded retry.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewExponential(c.retryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.roundTrip(ctx, http.MethodGet, path, nil)
		})
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
				return err
			}
			return retry.RetryableError(err)
		}
		return decodeBody(body, out)
	})
}

// sendJSON issues a single mutating call; the caller owns retry semantics.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request payload")
		}
		body = bytes.NewReader(data)
	}
	data, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeBody(data, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read upstream response")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, upstreamError(resp.StatusCode, data)
	}
	return data, nil
}

func decodeBody(data []byte, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upstream response")
	}
	return nil
}

func upstreamError(status int, body []byte) error {
	message := "upstream request rejected"
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	code := pkgerrors.CodeDependency
	switch status {
	case http.StatusBadRequest:
		code = pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		code = pkgerrors.CodeForbidden
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusConflict:
		code = pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		code = pkgerrors.CodeStateConflict
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{"upstream_status": status})
}
