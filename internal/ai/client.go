// Package ai proxies chat requests to an Ollama-style backend.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// systemPrompt frames the assistant as a collaborative-work coach.
const systemPrompt = `Instructions:
- You are Deeply, an assistant specialized in collaborative work, business agility, social kudos and deep work.
Your focus is helping teams work better together, recognize achievements and sustain deep productivity.
- Be direct and objective
- Use short sentences
- Avoid unnecessary introductions
- Use bullet points when appropriate
- Give practical examples when asked
- Focus on the essentials`

const (
	maxAttempts  = 3
	retryBackoff = time.Second
)

// Client talks to a single chat-completion endpoint.
type Client struct {
	Endpoint string
	Model    string
	HTTP     *http.Client
}

// NewClient builds a client with a generous timeout; model replies are slow.
func NewClient(endpoint, model string) *Client {
	return &Client{
		Endpoint: endpoint,
		Model:    model,
		HTTP:     &http.Client{Timeout: 240 * time.Second},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature   float64 `json:"temperature"`
	TopK          int     `json:"top_k"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Chat sends the user message and returns the model reply as HTML.
// Transport failures and 5xx responses are retried up to three times
// with a fixed pause between attempts.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("empty message")
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.Model,
		Prompt: message,
		System: systemPrompt,
		Stream: false,
		Options: generateOptions{
			Temperature:   0.7,
			TopK:          40,
			TopP:          0.9,
			RepeatPenalty: 1.1,
		},
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		reply, retryable, err := c.send(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return "", lastErr
}

func (c *Client) send(ctx context.Context, body []byte) (reply string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("ai backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode >= 500, fmt.Errorf("ai backend: status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("ai backend: %w", err)
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", false, fmt.Errorf("empty model response")
	}

	return FormatResponse(text), false, nil
}
