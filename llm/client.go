// Package llm talks to an OpenAI-compatible chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/benjamonnguyen/daybook"
)

type Client struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	l      daybook.Logger
}

var _ daybook.Extractor = (*Client)(nil)

func NewClient(url, apiKey, model string, logger daybook.Logger) (*Client, error) {
	if url == "" {
		return nil, errors.New("provide API url")
	}
	if model == "" {
		return nil, errors.New("provide model")
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
		l:      logger,
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type response struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Extract sends prompt as a single user message and returns the first
// choice's content. ctx bounds the whole exchange.
func (c *Client) Extract(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(request{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := r.Choices[0].Message.Content
	c.l.Debug("llm response", "model", c.model, "content", content)
	return content, nil
}
