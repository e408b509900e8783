package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tOgg1/wirewave/internal/models"
)

// SearchUser looks up a user by exact email. A 404 means no such user;
// use IsNotFound to tell it apart from other failures.
func (c *Client) SearchUser(ctx context.Context, email string) (models.Profile, error) {
	email = strings.TrimSpace(email)
	if err := models.ValidateMemberEmail(email); err != nil {
		return models.Profile{}, err
	}
	var out models.Profile
	err := c.do(ctx, request{
		method:   http.MethodGet,
		segments: []string{"users", "search"},
		query:    url.Values{"email": {email}},
		auth:     true,
	}, &out)
	if err != nil {
		return models.Profile{}, err
	}
	if out.Email == "" {
		out.Email = email
	}
	return out, nil
}

// Profile returns the session user's profile. exists is false when the
// user has not created one yet.
func (c *Client) Profile(ctx context.Context) (profile models.Profile, exists bool, err error) {
	raw, err := c.send(ctx, request{method: http.MethodGet, segments: []string{"profile"}, auth: true})
	if err != nil {
		if IsNotFound(err) {
			return models.Profile{}, false, nil
		}
		return models.Profile{}, false, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return models.Profile{}, false, nil
	}
	if err := decodeInto(raw, &profile); err != nil {
		return models.Profile{}, false, err
	}
	return profile, true, nil
}

// SaveProfile creates the profile (POST) when it does not exist yet,
// otherwise updates it (PUT). Fields are trimmed.
func (c *Client) SaveProfile(ctx context.Context, p models.Profile, exists bool) (models.Profile, error) {
	method := http.MethodPost
	if exists {
		method = http.MethodPut
	}
	payload := map[string]string{
		"name":       strings.TrimSpace(p.Name),
		"about":      strings.TrimSpace(p.About),
		"avatar_url": strings.TrimSpace(p.AvatarURL),
	}
	var out models.Profile
	if err := c.do(ctx, request{method: method, segments: []string{"profile"}, body: payload, auth: true}, &out); err != nil {
		return models.Profile{}, err
	}
	if out.Name == "" && out.About == "" && out.AvatarURL == "" {
		out = models.Profile{Email: p.Email, Name: payload["name"], About: payload["about"], AvatarURL: payload["avatar_url"]}
	}
	return out, nil
}

// Ping reports the session user as online.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, segments: []string{"presence", "ping"}, body: struct{}{}, auth: true}, nil)
}

// Presence returns another user's liveness.
func (c *Client) Presence(ctx context.Context, email string) (models.Presence, error) {
	email = strings.TrimSpace(email)
	if err := models.ValidateMemberEmail(email); err != nil {
		return models.Presence{}, err
	}
	var out models.Presence
	if err := c.do(ctx, request{method: http.MethodGet, segments: []string{"presence", email}, auth: true}, &out); err != nil {
		return models.Presence{}, err
	}
	if out.Email == "" {
		out.Email = email
	}
	return out, nil
}

// Enhance asks the AI proxy to rewrite text and returns the trimmed result,
// which may be empty.
func (c *Client) Enhance(ctx context.Context, text string) (string, error) {
	var out struct {
		Enhanced string `json:"enhanced"`
	}
	err := c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"ai", "enhance-chat"},
		body:     map[string]string{"text": text},
		auth:     true,
	}, &out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Enhanced), nil
}

// Assist sends a free-form question to the AI assistant.
func (c *Client) Assist(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		errs := &models.ValidationErrors{}
		errs.Add("query", models.ErrEmptyContent)
		return "", errs.Err()
	}
	var out struct {
		Answer string `json:"answer"`
	}
	err := c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"ai", "assistant"},
		body:     map[string]string{"query": query},
		auth:     true,
	}, &out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Answer), nil
}
