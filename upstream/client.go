// Package upstream wraps outbound HTTP calls to the hosted deep research API.
//
// Information Hiding:
// - API endpoint and authentication
// - Request shaping for the Responses API background mode
// - HTTP status to error taxonomy translation
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/richinex/deepresearch/config"
)

// CreateRequest carries the parameters for starting a research job.
// Validation and defaulting happen in the caller; the client passes
// values through uninterpreted.
type CreateRequest struct {
	Query              string
	Model              string
	MaxToolCalls       int
	UseCodeInterpreter bool
}

// Client is the capability for creating and reading research jobs.
// Tests substitute a deterministic fake; production code uses HTTPClient.
type Client interface {
	// CreateJob starts a background research job and returns its initial
	// payload immediately. It never blocks until job completion.
	CreateJob(ctx context.Context, req CreateRequest) (*Payload, error)

	// FetchJob reads the current payload of a previously created job.
	// One call, one upstream read; polling is the caller's decision.
	FetchJob(ctx context.Context, id string) (*Payload, error)
}

// researchPrompt frames the query for the research model.
const researchPrompt = "You are a deep research assistant. Provide comprehensive, well-sourced research with citations.\n\nUser Query: "

// HTTPClient implements Client against the Responses API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	project string
}

// NewHTTPClient creates a client from settings. The underlying http.Client
// is created once and reused across calls; its timeout bounds a single
// round trip, not overall job completion.
func NewHTTPClient(settings config.Settings) *HTTPClient {
	timeout := settings.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(settings.BaseURL, "/"),
		apiKey:  settings.APIKey,
		project: settings.Project,
	}
}

// Wire types for the create call.

type createBody struct {
	Model        string          `json:"model"`
	Input        []inputMessage  `json:"input"`
	Background   bool            `json:"background"`
	Store        bool            `json:"store"`
	MaxToolCalls int             `json:"max_tool_calls,omitempty"`
	Reasoning    *reasoningOpts  `json:"reasoning,omitempty"`
	Tools        []toolSelection `json:"tools"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type reasoningOpts struct {
	Summary string `json:"summary"`
}

type toolSelection struct {
	Type      string         `json:"type"`
	Container *containerOpts `json:"container,omitempty"`
}

type containerOpts struct {
	Type string `json:"type"`
}

// CreateJob posts a background-mode creation request. Background execution
// must be requested explicitly or the upstream blocks until completion.
func (c *HTTPClient) CreateJob(ctx context.Context, req CreateRequest) (*Payload, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrAuth)
	}

	tools := []toolSelection{{Type: "web_search_preview"}}
	if req.UseCodeInterpreter {
		tools = append(tools, toolSelection{
			Type:      "code_interpreter",
			Container: &containerOpts{Type: "auto"},
		})
	}

	body := createBody{
		Model: req.Model,
		Input: []inputMessage{
			{Role: "user", Content: researchPrompt + req.Query},
		},
		Background:   true,
		Store:        true,
		MaxToolCalls: req.MaxToolCalls,
		Reasoning:    &reasoningOpts{Summary: "auto"},
		Tools:        tools,
	}

	return c.do(ctx, http.MethodPost, c.baseURL+"/responses", body)
}

// FetchJob reads the current job payload by identifier.
func (c *HTTPClient) FetchJob(ctx context.Context, id string) (*Payload, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrAuth)
	}
	return c.do(ctx, http.MethodGet, c.baseURL+"/responses/"+id, nil)
}

// do executes one request and maps the result into the error taxonomy.
// The credential never appears in any returned error.
func (c *HTTPClient) do(ctx context.Context, method, url string, body interface{}) (*Payload, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.project != "" {
		req.Header.Set("OpenAI-Project", c.project)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: request deadline exceeded", ErrUnavailable)
		}
		return nil, fmt.Errorf("%w: %s request failed: %s", ErrUnavailable, method, transportDetail(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var payload Payload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &payload, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The upstream auth error body can echo credential fragments;
		// report only the status.
		return nil, fmt.Errorf("%w: HTTP %d", ErrAuth, resp.StatusCode)

	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: HTTP 404", ErrNotFound)

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRequest, resp.StatusCode, c.errorDetail(raw))

	default:
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
}

// transportDetail reduces a transport error to a short description.
// url.Error text repeats the request URL but never request headers, so
// the credential cannot leak through here; truncation keeps tool errors
// readable.
func transportDetail(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// errorEnvelope is the upstream's standard error body.
type errorEnvelope struct {
	Error *ErrorDetail `json:"error"`
}

// errorDetail extracts the upstream-supplied message from an error body,
// falling back to the (truncated) raw body. Any occurrence of the
// credential in the detail is redacted before it can reach a caller.
func (c *HTTPClient) errorDetail(raw []byte) string {
	detail := strings.TrimSpace(string(raw))
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		detail = envelope.Error.Message
	}
	if len(detail) > 500 {
		detail = detail[:500]
	}
	if c.apiKey != "" {
		detail = strings.ReplaceAll(detail, c.apiKey, "[redacted]")
	}
	return detail
}

// Verify HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
