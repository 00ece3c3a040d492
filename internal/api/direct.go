package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vedran77/parley/internal/domain"
)

// DirectMessagesResponse is the history payload for one direct thread.
type DirectMessagesResponse struct {
	DirectMessages []domain.Message `json:"direct_messages"`
}

// ListDirectMessages fetches the full history with one partner.
func (c *Client) ListDirectMessages(ctx context.Context, partnerID int64) (*DirectMessagesResponse, error) {
	var resp DirectMessagesResponse
	path := fmt.Sprintf("/direct_messages/%d", partnerID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type directMessageInput struct {
	RecipientID int64  `json:"recipient_id"`
	Content     string `json:"content"`
}

func (c *Client) CreateDirectMessage(ctx context.Context, recipientID int64, content string) (*domain.Message, error) {
	var msg domain.Message
	input := directMessageInput{RecipientID: recipientID, Content: content}
	if err := c.do(ctx, http.MethodPost, "/direct_messages", nil, input, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) UpdateDirectMessage(ctx context.Context, messageID int64, content string) (*domain.Message, error) {
	var msg domain.Message
	path := fmt.Sprintf("/direct_messages/%d", messageID)
	if err := c.do(ctx, http.MethodPut, path, nil, messageInput{Content: content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) DeleteDirectMessage(ctx context.Context, messageID int64) error {
	path := fmt.Sprintf("/direct_messages/%d", messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// MarkAsRead marks the given direct messages read server-side. Safe to call
// with ids that are already read; an empty batch is skipped entirely.
func (c *Client) MarkAsRead(ctx context.Context, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}
	input := struct {
		MessageIDs []int64 `json:"message_ids"`
	}{MessageIDs: messageIDs}
	return c.do(ctx, http.MethodPost, "/direct_messages/mark_as_read", nil, input, nil)
}

// ClearDirectNewMessages is the authoritative unread clear for one partner's
// direct thread.
func (c *Client) ClearDirectNewMessages(ctx context.Context, senderID int64) error {
	query := url.Values{"sender_id": {strconv.FormatInt(senderID, 10)}}
	return c.do(ctx, http.MethodPost, "/direct_messages/clear_new_messages", query, nil, nil)
}
