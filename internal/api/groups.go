package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tOgg1/wirewave/internal/models"
)

// ListGroups returns the groups the session user belongs to.
func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	req := request{method: http.MethodGet, segments: []string{"groups"}, auth: true}
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Group](req, raw)
}

// GetGroup returns a group with its members.
func (c *Client) GetGroup(ctx context.Context, id models.ID) (models.GroupDetail, error) {
	if err := requireGroup(id); err != nil {
		return models.GroupDetail{}, err
	}
	var out models.GroupDetail
	err := c.do(ctx, request{method: http.MethodGet, segments: []string{"groups", string(id)}, auth: true}, &out)
	if err != nil {
		return models.GroupDetail{}, err
	}
	if out.Members == nil {
		out.Members = []models.Member{}
	}
	return out, nil
}

// CreateGroup creates a group and returns it.
func (c *Client) CreateGroup(ctx context.Context, name string, members []string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if err := models.ValidateGroupName(name); err != nil {
		return models.Group{}, err
	}
	if members == nil {
		members = []string{}
	}

	var out models.CreateGroupResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"groups"},
		body: map[string]any{
			"name":    name,
			"members": members,
		},
		auth: true,
	}, &out)
	if err != nil {
		return models.Group{}, err
	}
	if out.Group.Name == "" {
		out.Group.Name = name
	}
	return out.Group, nil
}

// RenameGroup changes a group's name.
func (c *Client) RenameGroup(ctx context.Context, id models.ID, name string) error {
	if err := requireGroup(id); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := models.ValidateGroupName(name); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:   http.MethodPut,
		segments: []string{"groups", string(id), "name"},
		body:     map[string]string{"name": name},
		auth:     true,
	}, nil)
}

// AddMember adds email to the group, optionally as admin. The same call
// updates the admin flag of an existing member.
func (c *Client) AddMember(ctx context.Context, id models.ID, email string, makeAdmin bool) error {
	if err := requireGroup(id); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if err := models.ValidateMemberEmail(email); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"groups", string(id), "members"},
		body: map[string]any{
			"member_email": email,
			"make_admin":   makeAdmin,
		},
		auth: true,
	}, nil)
}

// SetAdmin promotes or demotes a member.
func (c *Client) SetAdmin(ctx context.Context, id models.ID, email string, admin bool) error {
	return c.AddMember(ctx, id, email, admin)
}

// RemoveMember removes email from the group.
func (c *Client) RemoveMember(ctx context.Context, id models.ID, email string) error {
	if err := requireGroup(id); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if err := models.ValidateMemberEmail(email); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:   http.MethodDelete,
		segments: []string{"groups", string(id), "members", email},
		auth:     true,
	}, nil)
}

// LeaveGroup removes the session user from the group.
func (c *Client) LeaveGroup(ctx context.Context, id models.ID) error {
	if err := requireGroup(id); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"groups", string(id), "leave"},
		body:     struct{}{},
		auth:     true,
	}, nil)
}

// DeleteGroup deletes the group for everyone. Owner only.
func (c *Client) DeleteGroup(ctx context.Context, id models.ID) error {
	if err := requireGroup(id); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, segments: []string{"groups", string(id)}, auth: true}, nil)
}

// GroupMessages returns one page of a group's messages.
func (c *Client) GroupMessages(ctx context.Context, id models.ID, limit, offset int) ([]models.GroupMessage, error) {
	if err := requireGroup(id); err != nil {
		return nil, err
	}
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset >= 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	req := request{
		method:   http.MethodGet,
		segments: []string{"groups", string(id), "messages"},
		query:    query,
		auth:     true,
	}
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	msgs, err := decodeList[models.GroupMessage](req, raw)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].GroupID == "" {
			msgs[i].GroupID = id
		}
	}
	return msgs, nil
}

// SendGroupMessage posts content to the group. ok reports whether the
// response carried the created message.
func (c *Client) SendGroupMessage(ctx context.Context, id models.ID, content string) (models.GroupMessage, bool, error) {
	if err := requireGroup(id); err != nil {
		return models.GroupMessage{}, false, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		errs := &models.ValidationErrors{}
		errs.Add("content", models.ErrEmptyContent)
		return models.GroupMessage{}, false, errs.Err()
	}
	raw, err := c.send(ctx, request{
		method:   http.MethodPost,
		segments: []string{"groups", string(id), "messages"},
		body:     map[string]string{"content": content},
		auth:     true,
	})
	if err != nil {
		return models.GroupMessage{}, false, err
	}
	msg, ok := decodeCreated[models.GroupMessage](raw)
	if ok && msg.GroupID == "" {
		msg.GroupID = id
	}
	return msg, ok, nil
}

func requireGroup(id models.ID) error {
	if strings.TrimSpace(string(id)) == "" {
		errs := &models.ValidationErrors{}
		errs.Add("group_id", models.ErrMissingGroup)
		return errs.Err()
	}
	return nil
}

