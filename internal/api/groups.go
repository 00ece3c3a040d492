package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vedran77/parley/internal/domain"
)

// GroupResponse is the detail payload for one group.
type GroupResponse struct {
	Group    domain.Group     `json:"group"`
	Messages []domain.Message `json:"messages"`
}

// GetGroup fetches one group and its full message history.
func (c *Client) GetGroup(ctx context.Context, groupID int64) (*GroupResponse, error) {
	var resp GroupResponse
	path := fmt.Sprintf("/groups/%d", groupID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type messageInput struct {
	Content string `json:"content"`
}

func (c *Client) CreateGroupMessage(ctx context.Context, groupID int64, content string) (*domain.Message, error) {
	var msg domain.Message
	path := fmt.Sprintf("/groups/%d/create_message", groupID)
	if err := c.do(ctx, http.MethodPost, path, nil, messageInput{Content: content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) UpdateGroupMessage(ctx context.Context, groupID, messageID int64, content string) (*domain.Message, error) {
	var msg domain.Message
	path := fmt.Sprintf("/groups/%d/messages/%d", groupID, messageID)
	if err := c.do(ctx, http.MethodPut, path, nil, messageInput{Content: content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) DeleteGroupMessage(ctx context.Context, groupID, messageID int64) error {
	path := fmt.Sprintf("/groups/%d/messages/%d", groupID, messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ClearGroupNewMessages is the authoritative server-side unread clear for a
// group; callers clear locally first and roll back if this fails.
func (c *Client) ClearGroupNewMessages(ctx context.Context, groupID int64) error {
	path := fmt.Sprintf("/groups/%d/clear_new_messages", groupID)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}
