package market_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"frontend/internal/models"

	"go.uber.org/zap"
)

// ErrNoData is returned when a successful envelope carries no payload.
var ErrNoData = errors.New("response contained no data")

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 64 << 10

// APIError is the single error type for failed marketplace API calls.
// Status is 0 when the request never produced an HTTP response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client for interacting with the marketplace REST API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	logger       *zap.Logger
}

// NewClient creates a new marketplace API client. timeout bounds JSON calls
// end to end; for downloads it bounds only the wait for response headers.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
		logger: logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		c.logger.Error("Failed to create marketplace request", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// send performs the request. Non-2xx responses are closed and returned as
// *APIError; the caller owns the body of a successful response.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	return c.sendWith(c.httpClient, req)
}

func (c *Client) sendWith(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("request to %s aborted: %w", req.URL.Path, ctxErr)
		}
		c.logger.Error("Failed to reach marketplace API", zap.String("path", req.URL.Path), zap.Error(err))
		return nil, &APIError{Status: 0, Message: "Network error: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode, Message: errorDetail(resp)}
		c.logger.Warn("Marketplace API returned non-OK status",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	return resp, nil
}

func errorDetail(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if detail, ok := body.Detail.(string); ok && detail != "" {
			return detail
		}
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func (c *Client) readBody(req *http.Request) ([]byte, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL.Path, err)
	}
	return raw, nil
}

// getData sends req and unwraps the data field of the response envelope.
func getData[T any](c *Client, req *http.Request) (*T, error) {
	raw, err := c.readBody(req)
	if err != nil {
		return nil, err
	}

	var envelope models.APIResponse[T]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Error("Failed to decode marketplace response", zap.String("path", req.URL.Path), zap.Error(err))
		return nil, fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%s: %w", req.URL.Path, ErrNoData)
	}
	return envelope.Data, nil
}

// getDataOrBody accepts either an enveloped payload or the bare document.
func getDataOrBody[T any](c *Client, req *http.Request) (*T, error) {
	raw, err := c.readBody(req)
	if err != nil {
		return nil, err
	}

	var envelope models.APIResponse[T]
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return out, nil
}

func segment(s string) string {
	return url.PathEscape(s)
}

// HealthCheck handles GET /health.
func (c *Client) HealthCheck(ctx context.Context) (*models.Health, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}
	return getDataOrBody[models.Health](c, req)
}
