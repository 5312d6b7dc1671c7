// Package orchestrator is the HTTP client for the external workflow
// orchestrator. Trigger-fired invocations are fire-and-forget: the
// response body is discarded and failures surface only as errors for
// the caller to log.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client posts workflow invocations to the orchestrator API.
type Client struct {
	endpoint string
	apiKey   string
	limiter  *rate.Limiter
	client   *http.Client
}

// Invocation is the initial state handed to a workflow run. The trigger
// context carries the firing event so the workflow can inspect it.
type Invocation struct {
	WorkflowID     string                 `json:"workflow_id"`
	UserID         string                 `json:"user_id"`
	TriggerContext map[string]interface{} `json:"trigger_context"`
}

// NewClient creates an orchestrator client. perSecond caps the outbound
// invocation rate; non-positive values fall back to 5/s.
func NewClient(endpoint, apiKey string, perSecond float64) *Client {
	// Connection pooling tuned for short bursts of small POSTs
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if perSecond <= 0 {
		perSecond = 5
	}

	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 10),
		client: &http.Client{
			Transport: transport,
			Timeout:   15 * time.Second,
		},
	}
}

// Invoke starts a workflow run. Blocks on the rate limiter until a slot
// frees or the context is cancelled; the workflow result is not awaited.
func (c *Client) Invoke(ctx context.Context, inv *Invocation) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	jsonData, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("failed to marshal invocation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("orchestrator error %d: %s", resp.StatusCode, string(body))
	}

	// Drain so the connection returns to the pool.
	io.Copy(io.Discard, resp.Body)
	return nil
}
