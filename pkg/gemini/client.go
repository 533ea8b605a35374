package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/gemchat/pkg/logger"
)

const (
	// DefaultBaseURL is the public generative-language endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-2.0-flash"
)

// Client sends a request body to the endpoint and returns the decoded reply.
// Implementations do not retry.
type Client interface {
	GenerateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error)
}

// Config is the endpoint configuration for an HTTPClient.
type Config struct {
	// BaseURL of the service (e.g., "https://generativelanguage.googleapis.com")
	BaseURL string

	// Model name (e.g., "gemini-2.0-flash")
	Model string

	// APIKey is appended to the call target as the "key" query parameter.
	APIKey string

	// Timeout bounds a single call. Zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// HTTPClient is a Client that POSTs JSON to the generateContent endpoint.
type HTTPClient struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTPClient. Empty BaseURL and Model fall back to
// DefaultBaseURL and DefaultModel.
func NewHTTPClient(config Config, logger *zap.Logger) *HTTPClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPClient{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Endpoint returns the call target without the key, safe for logging.
func (c *HTTPClient) Endpoint() string {
	return strings.TrimRight(c.config.BaseURL, "/") +
		"/v1beta/models/" + url.PathEscape(c.config.Model) + ":generateContent"
}

func (c *HTTPClient) target() string {
	if c.config.APIKey == "" {
		return c.Endpoint()
	}
	return c.Endpoint() + "?key=" + url.QueryEscape(c.config.APIKey)
}

// GenerateContent performs a single, non-streaming generateContent call.
func (c *HTTPClient) GenerateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	startTime := time.Now()

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("sending request to endpoint",
		zap.String("url", c.Endpoint()),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", redactKey(err, c.config.APIKey))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: httpResp.StatusCode, Body: string(body)}
		var envelope ErrorResponse
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			statusErr.Message = envelope.Error.Message
		}
		c.logger.Error("endpoint returned error",
			zap.Int("status", httpResp.StatusCode),
			zap.String("body", logger.Truncate(string(body), 200)),
		)
		return nil, statusErr
	}

	var resp GenerateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	fields := []zap.Field{
		zap.Int("candidate_count", len(resp.Candidates)),
		zap.Duration("duration", time.Since(startTime)),
	}
	if resp.ModelVersion != "" {
		fields = append(fields, zap.String("model_version", resp.ModelVersion))
	}
	if resp.UsageMetadata != nil {
		fields = append(fields, zap.Int("total_tokens", resp.UsageMetadata.TotalTokenCount))
	}
	c.logger.Debug("received response from endpoint", fields...)

	return &resp, nil
}

// redactKey keeps the API key out of *url.Error messages, which embed the
// full request URL.
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	if urlErr, ok := err.(*url.Error); ok {
		redacted := *urlErr
		redacted.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(key), "REDACTED")
		return &redacted
	}
	return err
}
