// Package ai probes connectivity to OpenAI-compatible chat-completion
// providers. The probe sends one tiny non-streaming completion and reports
// whether the provider answered; it never persists anything and it is only
// reachable through the admin config surface.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTestPrompt is sent when the caller does not supply one.
const DefaultTestPrompt = "Reply with the single word: ok"

// Known provider base URLs. A request may override any of these with an
// explicit api_url.
var providerBaseURLs = map[string]string{
	"openai":    "https://api.openai.com/v1",
	"deepseek":  "https://api.deepseek.com/v1",
	"anthropic": "https://api.anthropic.com/v1",
}

// ProbeRequest describes one connectivity check.
type ProbeRequest struct {
	Provider   string
	Model      string
	APIKey     string
	APIURL     string // optional; overrides the provider default
	TestPrompt string // optional; DefaultTestPrompt when empty
}

// ProbeResult is the outcome of a successful probe.
type ProbeResult struct {
	Reply     string `json:"reply"`
	LatencyMS int64  `json:"latency_ms"`
}

// Client performs probes. The zero value is not usable; use NewClient.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a Client whose probes time out after timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// baseURL resolves the endpoint for req, preferring an explicit APIURL.
func baseURL(req ProbeRequest) (string, error) {
	if u := strings.TrimSpace(req.APIURL); u != "" {
		return strings.TrimRight(u, "/"), nil
	}
	if u, ok := providerBaseURLs[strings.ToLower(req.Provider)]; ok {
		return u, nil
	}
	return "", fmt.Errorf("unknown provider %q and no api_url given", req.Provider)
}

// Probe sends one chat completion and returns the reply. Errors describe
// the upstream failure (connection, HTTP status, malformed body) so that
// callers can surface them verbatim instead of collapsing them into an
// auth failure.
func (c *Client) Probe(ctx context.Context, req ProbeRequest) (*ProbeResult, error) {
	base, err := baseURL(req)
	if err != nil {
		return nil, err
	}

	prompt := req.TestPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultTestPrompt
	}

	body, err := json.Marshal(chatRequest{
		Model:     req.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		Stream:    false,
		MaxTokens: 16,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal probe request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build probe request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Include the upstream status so a provider 401 stays
		// distinguishable from our own auth gate.
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("malformed provider response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	return &ProbeResult{
		Reply:     strings.TrimSpace(parsed.Choices[0].Message.Content),
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
