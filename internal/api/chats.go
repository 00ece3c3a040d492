package api

import (
	"context"
	"net/http"

	"github.com/vedran77/parley/internal/domain"
)

// ChatsResponse is the combined bootstrap payload for the chat list.
type ChatsResponse struct {
	Groups         []domain.Group   `json:"groups"`
	DirectMessages []domain.Message `json:"direct_messages"`
}

// ListChats fetches every group the user belongs to plus all raw direct
// messages, in one call.
func (c *Client) ListChats(ctx context.Context) (*ChatsResponse, error) {
	var resp ChatsResponse
	if err := c.do(ctx, http.MethodGet, "/chats", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GroupNewMessages returns the unread seed for groups: group id → has unread.
func (c *Client) GroupNewMessages(ctx context.Context) (map[int64]bool, error) {
	var resp struct {
		NewMessages map[int64]bool `json:"new_messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups/new_messages", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.NewMessages, nil
}

// DirectNewMessages returns the unread seed for direct threads: sender id →
// has unread.
func (c *Client) DirectNewMessages(ctx context.Context) (map[int64]bool, error) {
	var resp struct {
		NewMessages map[int64]bool `json:"new_messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/direct_messages/new_messages", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.NewMessages, nil
}

// NotificationSetting is the user-level toggle gating unread tracking.
type NotificationSetting struct {
	Enabled bool `json:"enabled"`
}

func (c *Client) GetNotificationSetting(ctx context.Context) (*NotificationSetting, error) {
	var resp NotificationSetting
	if err := c.do(ctx, http.MethodGet, "/notification_setting", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateNotificationSetting(ctx context.Context, enabled bool) error {
	return c.do(ctx, http.MethodPut, "/notification_setting", nil, NotificationSetting{Enabled: enabled}, nil)
}
