// Package api is the HTTP client for the Git-Done goal API. It owns the
// wire contract and the client-side error taxonomy; goal semantics live
// in the lifecycle package.
package api

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

	"github.com/gitdone-app/gitdone-client/internal/models"
	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

// SessionCookieName is the name of the session credential cookie the
// server issues after login.
const SessionCookieName = "session"

// CreateGoalRequest is the body of POST /api/goals.
type CreateGoalRequest struct {
	Description         string `json:"description"`
	Deadline            string `json:"deadline"` // canonical timestamp
	DeadlineDisplay     string `json:"deadline_display,omitempty"`
	RepoURL             string `json:"repo_url"`
	CompletionCondition string `json:"completion_condition"`
	CompletionType      string `json:"completion_type"`
}

// UpdateGoalRequest is the body of PUT /api/goals/{id}. Nil fields are
// omitted and left unchanged by the server.
type UpdateGoalRequest struct {
	Description         *string `json:"description,omitempty"`
	Deadline            *string `json:"deadline,omitempty"`
	DeadlineDisplay     *string `json:"deadline_display,omitempty"`
	CompletionCondition *string `json:"completion_condition,omitempty"`
	CompletionType      *string `json:"completion_type,omitempty"`
}

// Client talks to the goal API with session-cookie credentials.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session string
}

// NewClient builds a client for the API at baseURL. session is the raw
// session cookie value; it is attached to every request.
func NewClient(baseURL, session string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %v", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host required", baseURL)
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		session: session,
	}, nil
}

// ListGoals fetches the full goal list for the logged-in user.
func (c *Client) ListGoals(ctx context.Context) ([]models.Goal, error) {
	var goals []models.Goal
	if err := c.do(ctx, http.MethodGet, "/api/goals", nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// CreateGoal submits a new goal and returns the full server-assigned record.
func (c *Client) CreateGoal(ctx context.Context, req CreateGoalRequest) (*models.Goal, error) {
	var goal models.Goal
	if err := c.do(ctx, http.MethodPost, "/api/goals", req, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// UpdateGoal applies a partial update and returns the full updated record.
func (c *Client) UpdateGoal(ctx context.Context, id string, req UpdateGoalRequest) (*models.Goal, error) {
	var goal models.Goal
	if err := c.do(ctx, http.MethodPut, "/api/goals/"+url.PathEscape(id), req, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// DeleteGoal removes a goal on the server.
func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/goals/"+url.PathEscape(id), nil, nil)
}

// DownloadCalendar streams the goal's .ics calendar file into w.
func (c *Client) DownloadCalendar(ctx context.Context, id string, w io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/goals/"+url.PathEscape(id)+"/calendar", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: "calendar download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return &NetworkError{Op: "calendar download", Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: c.session})
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Log.WithField("path", path).WithError(err).Warn("Goal API request failed")
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	// The request completed; a body that does not decode is a server
	// contract problem, not a transport failure.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %v", method, path, err)
	}
	return nil
}

// decodeAPIError extracts the server's structured {"error": "..."} body.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
