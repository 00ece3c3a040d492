package service

import (
	"context"

	"github.com/vedran77/parley/internal/api"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/transport"
)

// ChatListAPI is the slice of the REST client the chat list needs.
type ChatListAPI interface {
	ListChats(ctx context.Context) (*api.ChatsResponse, error)
	GroupNewMessages(ctx context.Context) (map[int64]bool, error)
	DirectNewMessages(ctx context.Context) (map[int64]bool, error)
	GetNotificationSetting(ctx context.Context) (*api.NotificationSetting, error)
	UpdateNotificationSetting(ctx context.Context, enabled bool) error
}

// ChatViewAPI is the slice of the REST client a detail view needs.
type ChatViewAPI interface {
	GetGroup(ctx context.Context, groupID int64) (*api.GroupResponse, error)
	CreateGroupMessage(ctx context.Context, groupID int64, content string) (*domain.Message, error)
	UpdateGroupMessage(ctx context.Context, groupID, messageID int64, content string) (*domain.Message, error)
	DeleteGroupMessage(ctx context.Context, groupID, messageID int64) error
	ClearGroupNewMessages(ctx context.Context, groupID int64) error

	ListDirectMessages(ctx context.Context, partnerID int64) (*api.DirectMessagesResponse, error)
	CreateDirectMessage(ctx context.Context, recipientID int64, content string) (*domain.Message, error)
	UpdateDirectMessage(ctx context.Context, messageID int64, content string) (*domain.Message, error)
	DeleteDirectMessage(ctx context.Context, messageID int64) error
	MarkAsRead(ctx context.Context, messageIDs []int64) error
	ClearDirectNewMessages(ctx context.Context, senderID int64) error
}

// Subscription is an open push topic; closing it must be idempotent.
type Subscription interface {
	Close()
}

// Subscriber opens push subscriptions. *transport.Conn satisfies it through
// the cableSubscriber adapter below.
type Subscriber interface {
	Subscribe(ctx context.Context, topic transport.Topic, handler transport.Handler) (Subscription, error)
}

type cableSubscriber struct {
	conn *transport.Conn
}

// NewCableSubscriber wraps a transport connection as a Subscriber.
func NewCableSubscriber(conn *transport.Conn) Subscriber {
	return cableSubscriber{conn: conn}
}

func (s cableSubscriber) Subscribe(ctx context.Context, topic transport.Topic, handler transport.Handler) (Subscription, error) {
	return s.conn.Subscribe(ctx, topic, handler)
}
