package transport

import (
	"encoding/json"
	"strconv"
)

// Push channel names exposed by the server.
const (
	ChannelNewMessageNotification = "NewMessageNotificationChannel"
	ChannelMessage                = "MessageChannel"
	ChannelDirectMessages         = "DirectMessagesChannel"
	ChannelMessageStatus          = "MessageStatusChannel"
	ChannelFriendUpdates          = "FriendUpdatesChannel"
)

// Frame types the server can send outside of data frames.
const (
	frameWelcome    = "welcome"
	framePing       = "ping"
	frameConfirm    = "confirm_subscription"
	frameReject     = "reject_subscription"
	frameDisconnect = "disconnect"
)

// serverFrame is the envelope for everything arriving on the socket. Data
// frames carry no Type, only the echoed Identifier plus the payload.
type serverFrame struct {
	Type       string          `json:"type,omitempty"`
	Identifier string          `json:"identifier,omitempty"`
	Message    json.RawMessage `json:"message,omitempty"`
}

// command is a client → server frame.
type command struct {
	Command    string `json:"command"`
	Identifier string `json:"identifier"`
}

const (
	commandSubscribe   = "subscribe"
	commandUnsubscribe = "unsubscribe"
)

// Topic names one logical subscription: a channel plus its parameters. Field
// order is fixed so a topic always marshals to the same identifier string,
// which is what inbound frames are routed by.
type Topic struct {
	Channel      string `json:"channel"`
	ChatRoomType string `json:"chat_room_type,omitempty"`
	ChatRoomID   int64  `json:"chat_room_id,omitempty"`
	UserID       int64  `json:"user_id,omitempty"`
}

func NewMessageNotificationTopic() Topic {
	return Topic{Channel: ChannelNewMessageNotification}
}

func MessageTopic(chatRoomType string, chatRoomID int64) Topic {
	return Topic{Channel: ChannelMessage, ChatRoomType: chatRoomType, ChatRoomID: chatRoomID}
}

func DirectMessagesTopic(userID int64) Topic {
	return Topic{Channel: ChannelDirectMessages, UserID: userID}
}

func MessageStatusTopic(userID int64) Topic {
	return Topic{Channel: ChannelMessageStatus, UserID: userID}
}

func (t Topic) identifier() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t Topic) String() string {
	s := t.Channel
	if t.ChatRoomType != "" {
		s += "(" + t.ChatRoomType + ":" + strconv.FormatInt(t.ChatRoomID, 10) + ")"
	} else if t.UserID != 0 {
		s += "(" + strconv.FormatInt(t.UserID, 10) + ")"
	}
	return s
}
