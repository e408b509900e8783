package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tOgg1/wirewave/internal/models"
)

// Login exchanges credentials for a token. The returned email falls back to
// the submitted one when the server omits it.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResult, error) {
	email = strings.TrimSpace(email)
	if err := models.ValidateCredentials(email, password); err != nil {
		return models.AuthResult{}, err
	}

	var out models.AuthResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"login"},
		body:     models.Credentials{Email: email, Password: password},
	}, &out)
	if err != nil {
		return models.AuthResult{}, err
	}
	if out.Token == "" {
		return models.AuthResult{}, &APIError{Method: http.MethodPost, Path: "/login", Status: http.StatusOK, Message: "Login failed"}
	}
	if out.Email == "" {
		out.Email = email
	}
	return out, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := models.ValidateCredentials(email, password); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"register"},
		body:     models.Credentials{Email: email, Password: password},
	}, nil)
}

// DeleteAccount removes the logged-in account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, segments: []string{"account"}, auth: true}, nil)
}

// Health probes the server's database check. It returns the reported
// status, or "OK" when the server sends none.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, segments: []string{"testdb"}}, &out); err != nil {
		return "", err
	}
	if out.Status == "" {
		return "OK", nil
	}
	return out.Status, nil
}
