// Package client calls the daybook JSON API.
package client

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

	"github.com/google/uuid"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/agent"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

type Client struct {
	baseURL string
	uid     string
	client  *http.Client
	l       daybook.Logger
}

func New(baseURL, uid string, logger daybook.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if uid == "" {
		return nil, errors.New("provide user id")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		uid:     uid,
		client:  &http.Client{Timeout: 30 * time.Second},
		l:       logger,
	}, nil
}

func (c *Client) UserID() string {
	return c.uid
}

// Chat sends one message to the agent and returns its reply.
func (c *Client) Chat(ctx context.Context, message string) (agent.Reply, error) {
	var resp struct {
		Reply agent.Reply `json:"reply"`
	}
	err := c.do(ctx, http.MethodPost, "/api/chat", nil, map[string]string{
		"uid":     c.uid,
		"message": message,
	}, &resp)
	return resp.Reply, err
}

func (c *Client) Tasks(ctx context.Context) ([]daybook.Task, error) {
	var resp struct {
		Tasks []daybook.Task `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "/api/task/all", url.Values{"uid": {c.uid}}, nil, &resp)
	return resp.Tasks, err
}

// ActiveTask returns the user's active task, or false when none is running.
func (c *Client) ActiveTask(ctx context.Context) (daybook.Task, bool, error) {
	tasks, err := c.Tasks(ctx)
	if err != nil {
		return daybook.Task{}, false, err
	}
	for _, t := range tasks {
		if t.Status == daybook.StatusActive {
			return t, true, nil
		}
	}
	return daybook.Task{}, false, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id uuid.UUID, status daybook.Status) (daybook.Task, error) {
	var resp struct {
		Task daybook.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/task/updateStatus/"+id.String(), nil, map[string]string{
		"uid":        c.uid,
		"taskStatus": string(status),
	}, &resp)
	return resp.Task, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.l.Debug("calling api", "method", method, "path", path)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Message}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
