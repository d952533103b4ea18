package perplexity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supwatch/internal/config"
	"supwatch/internal/logger"
)

const answerBody = `{"choices":[{"message":{"role":"assistant","content":"Edgecore launches NG-OLT"}}]}`

// stubDoer replays a scripted sequence of responses or errors.
type stubDoer struct {
	attempts  int
	responses []stubResponse
}

type stubResponse struct {
	status int
	body   string
	err    error
}

func (d *stubDoer) Do(_ *http.Request) (*http.Response, error) {
	i := d.attempts
	if i >= len(d.responses) {
		i = len(d.responses) - 1
	}

	d.attempts++
	r := d.responses[i]

	if r.err != nil {
		return nil, r.err
	}

	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(strings.NewReader(r.body)),
	}, nil
}

func newTestClient(doer Doer, sleeps *[]time.Duration) *Client {
	retry := config.RetryPolicy{MaxAttempts: 3, BackoffUnitMs: 1000}
	sleep := func(d time.Duration) { *sleeps = append(*sleeps, d) }

	return NewClientWithDeps(doer, "https://api.example.test/chat", "test-key", retry, sleep, logger.NewNop())
}

func testRequest() Request {
	return Request{
		Model: "sonar-pro",
		Messages: []Message{
			{Role: "user", Content: "anything new?"},
		},
	}
}

func TestClient_Execute_SucceedsAfterTwoFailures(t *testing.T) {
	doer := &stubDoer{responses: []stubResponse{
		{err: errors.New("connection refused")},
		{status: http.StatusBadGateway},
		{status: http.StatusOK, body: answerBody},
	}}

	var sleeps []time.Duration
	client := newTestClient(doer, &sleeps)

	content, err := client.Execute(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "Edgecore launches NG-OLT", content)
	assert.Equal(t, 3, doer.attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, sleeps)
}

func TestClient_Execute_ExhaustsAttempts(t *testing.T) {
	doer := &stubDoer{responses: []stubResponse{
		{err: errors.New("connection refused")},
	}}

	var sleeps []time.Duration
	client := newTestClient(doer, &sleeps)

	content, err := client.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrAnswerUnavailable)
	assert.Empty(t, content)
	assert.Equal(t, 3, doer.attempts, "exactly max_attempts requests")
	assert.Len(t, sleeps, 2, "no sleep after the final attempt")
}

func TestClient_Execute_RetriesOnStatusFailure(t *testing.T) {
	doer := &stubDoer{responses: []stubResponse{
		{status: http.StatusTooManyRequests},
		{status: http.StatusOK, body: answerBody},
	}}

	var sleeps []time.Duration
	client := newTestClient(doer, &sleeps)

	content, err := client.Execute(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "Edgecore launches NG-OLT", content)
	assert.Equal(t, 2, doer.attempts)
}

func TestClient_Execute_DoesNotRetryMalformedBody(t *testing.T) {
	doer := &stubDoer{responses: []stubResponse{
		{status: http.StatusOK, body: "not json at all"},
	}}

	var sleeps []time.Duration
	client := newTestClient(doer, &sleeps)

	_, err := client.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrMalformedAnswer)
	assert.Equal(t, 1, doer.attempts, "content failures on a successful response are not retried")
	assert.Empty(t, sleeps)
}

func TestClient_Execute_DoesNotRetryEmptyChoices(t *testing.T) {
	doer := &stubDoer{responses: []stubResponse{
		{status: http.StatusOK, body: `{"choices":[]}`},
	}}

	var sleeps []time.Duration
	client := newTestClient(doer, &sleeps)

	_, err := client.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrEmptyAnswer)
	assert.Equal(t, 1, doer.attempts)
	assert.Empty(t, sleeps)
}
