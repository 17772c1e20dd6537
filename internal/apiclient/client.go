// Package apiclient wraps the Gatherly HTTP API consumed by the agent. Each
// method maps to one endpoint; responses are decoded into the shared models.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gatherly/internal/models"
	"gatherly/internal/payments"
)

var ErrUnauthorized = errors.New("unauthorized")

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", body, &result); err != nil {
		return LoginResult{}, err
	}
	return result, nil
}

// Profile fetches the authenticated user's record. It doubles as the token
// verification call: ErrUnauthorized means the server rejected the token.
func (c *Client) Profile(ctx context.Context, token string) (models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", token, nil, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// Logout tells the server to drop the session. Callers treat it as
// fire-and-forget; no response contract is relied upon.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil, nil)
}

func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications/unread-count", token, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) Notifications(ctx context.Context, token string, limit int) ([]models.Notification, error) {
	path := "/api/v1/notifications"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/notifications/"+url.PathEscape(id)+"/read", token, nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/notifications/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) Events(ctx context.Context, token string) ([]models.Event, error) {
	var resp struct {
		Events []models.Event `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/events", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *Client) EventAttendees(ctx context.Context, token, eventID string) ([]payments.Attendee, error) {
	var resp struct {
		Attendees []payments.Attendee `json:"attendees"`
	}
	path := "/api/v1/events/" + url.PathEscape(eventID) + "/attendees"
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Attendees, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
