// Package perplexity implements the answer API client with bounded
// retries and exponential backoff.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"supwatch/internal/config"
	"supwatch/internal/logger"
)

// Client errors.
var (
	// ErrAnswerUnavailable is returned once all attempts are exhausted.
	// Callers treat it as "no answer for this supplier", not as fatal.
	ErrAnswerUnavailable = errors.New("no answer available after retries")
	// ErrUnexpectedStatusCode indicates a non-2xx HTTP response.
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrMalformedAnswer indicates a 2xx response whose body could not be
	// decoded. Parsing failures are not a transport concern and are never
	// retried.
	ErrMalformedAnswer = errors.New("malformed answer payload")
	// ErrEmptyAnswer indicates a decoded response with no choices.
	ErrEmptyAnswer = errors.New("answer contained no choices")
)

// Doer abstracts the HTTP transport so tests can stub it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues chat-completion requests with config-driven retry logic.
type Client struct {
	httpClient Doer
	baseURL    string
	apiKey     string
	retry      config.RetryPolicy
	sleep      func(time.Duration)
	logger     *logger.Logger
}

// NewClient creates a client from the API and retry configuration.
func NewClient(api config.APIConfig, retry config.RetryPolicy, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: api.Timeout()},
		baseURL:    api.BaseURL,
		apiKey:     api.Key,
		retry:      retry,
		sleep:      time.Sleep,
		logger:     log,
	}
}

// NewClientWithDeps creates a client with injected transport and sleep
// function, useful for testing.
func NewClientWithDeps(doer Doer, baseURL, apiKey string, retry config.RetryPolicy, sleep func(time.Duration), log *logger.Logger) *Client {
	return &Client{
		httpClient: doer,
		baseURL:    baseURL,
		apiKey:     apiKey,
		retry:      retry,
		sleep:      sleep,
		logger:     log,
	}
}

// Execute sends the request and returns the answer text. Transport and
// status failures are retried up to the configured attempt limit with a
// 2^attempt backoff between attempts; after the last failure the
// ErrAnswerUnavailable sentinel is returned instead of sleeping again. A
// well-formed HTTP response with an undecodable body fails immediately.
func (c *Client) Execute(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		content, err := c.attempt(ctx, body)
		if err == nil {
			return content, nil
		}

		if !isRetryable(err) {
			return "", err
		}

		c.logger.Error("request failed",
			"attempt", attempt+1,
			"max_attempts", c.retry.MaxAttempts,
			"error", err,
		)

		if attempt < c.retry.MaxAttempts-1 {
			c.sleep(c.retry.Delay(attempt))
		}
	}

	c.logger.Error("exhausted all attempts", "max_attempts", c.retry.MaxAttempts)

	return "", ErrAnswerUnavailable
}

// attempt performs a single request/decode cycle.
func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)

		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}

	if len(decoded.Choices) == 0 {
		return "", ErrEmptyAnswer
	}

	return decoded.Choices[0].Message.Content, nil
}

// isRetryable reports whether a failed attempt should be retried.
// Transport and status-level failures are; content-level failures on a
// successful response are not.
func isRetryable(err error) bool {
	return !errors.Is(err, ErrMalformedAnswer) && !errors.Is(err, ErrEmptyAnswer)
}
