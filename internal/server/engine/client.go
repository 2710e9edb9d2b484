// Package engine is the HTTP client for the external chat engine. The engine
// owns conversation state; this package only forwards one message and
// validates the shape of the reply.
package engine

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

	"github.com/dmitrijs2005/tact0/internal/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	chatPath = "/api/chat"

	// maxErrorBody caps how much of a failed engine response is echoed back.
	maxErrorBody = 4 << 10

	defaultErrorText = "Engine request failed"
	unreachableText  = "engine_unreachable"
)

// Request is the body sent to the engine.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Reply is the engine answer. Prompt is always present; the rest is
// optional and passed through to the caller untouched.
type Reply struct {
	Prompt   string          `json:"prompt"`
	Mode     string          `json:"mode,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

type wireReply struct {
	Prompt   *string         `json:"prompt"`
	Mode     *string         `json:"mode"`
	State    json.RawMessage `json:"state"`
	Warnings []string        `json:"warnings"`
}

// UpstreamError is returned when the engine answers with a non-2xx status or
// cannot be reached at all. Status and Body are safe to forward to clients.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("engine responded %d: %s", e.Status, e.Body)
}

// Client calls a single engine base URL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient builds a client. An empty baseURL yields an unconfigured client
// whose Chat fails with common.ErrMisconfigured without touching the network.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("github.com/dmitrijs2005/tact0/internal/server/engine"),
	}
}

// Configured reports whether the client has a base URL.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Chat sends req and decodes the reply. No retries are made.
func (c *Client) Chat(ctx context.Context, req Request) (*Reply, error) {
	if !c.Configured() {
		return nil, common.ErrMisconfigured
	}

	ctx, span := c.tracer.Start(ctx, "engine.Chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	reply, err := c.do(ctx, req)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			span.SetAttributes(attribute.Int("http.status_code", ue.Status))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return reply, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("engine request encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("engine request build: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Body: unreachableText}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = defaultErrorText
		}
		return nil, &UpstreamError{Status: clientStatus(resp.StatusCode), Body: text}
	}

	var wire wireReply
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidResponse, err)
	}
	if wire.Prompt == nil {
		return nil, fmt.Errorf("%w: missing prompt", common.ErrInvalidResponse)
	}

	reply := &Reply{Prompt: *wire.Prompt, State: wire.State, Warnings: wire.Warnings}
	if wire.Mode != nil {
		reply.Mode = *wire.Mode
	}
	return reply, nil
}

// clientStatus is the status forwarded to callers for a failed engine call.
// Only error statuses pass through; redirects and other non-2xx answers
// become 502 so the error body is never dropped.
func clientStatus(engineStatus int) int {
	if engineStatus < http.StatusBadRequest {
		return http.StatusBadGateway
	}
	return engineStatus
}
