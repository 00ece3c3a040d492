package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vedran77/parley/internal/api"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/logging"
	"github.com/vedran77/parley/internal/store"
	"github.com/vedran77/parley/internal/transport"
)

// ChatList owns the merged conversation list and the shared unread state. It
// bootstraps from the REST API, then follows the user's notification topic so
// unread flags track pushes for conversations that are not currently open.
type ChatList struct {
	api      ChatListAPI
	subs     Subscriber
	viewerID int64
	unread   *store.UnreadTracker
	log      zerolog.Logger

	mu             sync.RWMutex
	groups         []domain.Group
	directMessages []domain.Message
	active         *domain.Key
	sub            Subscription
	closed         bool
	onNotify       func(domain.Key)
}

func NewChatList(chatAPI ChatListAPI, subs Subscriber, viewerID int64, unread *store.UnreadTracker) *ChatList {
	return &ChatList{
		api:      chatAPI,
		subs:     subs,
		viewerID: viewerID,
		unread:   unread,
		log:      logging.Component("chatlist"),
	}
}

// Bootstrap fans out the seed fetches, applies them, then subscribes to the
// notification topic. Push events arriving during the fetches are not lost:
// the unread seed is merged with Restore, and the list can be re-bootstrapped
// at any time to reconcile after a delivery gap.
func (l *ChatList) Bootstrap(ctx context.Context) error {
	var (
		chats     *api.ChatsResponse
		groupSeed map[int64]bool
		dmSeed    map[int64]bool
		setting   *api.NotificationSetting
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chats, err = l.api.ListChats(gctx)
		return err
	})
	g.Go(func() (err error) {
		groupSeed, err = l.api.GroupNewMessages(gctx)
		return err
	})
	g.Go(func() (err error) {
		dmSeed, err = l.api.DirectNewMessages(gctx)
		return err
	})
	g.Go(func() (err error) {
		setting, err = l.api.GetNotificationSetting(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("chat list bootstrap: %w", err)
	}

	l.unread.SetEnabled(setting.Enabled)
	// Seeds are server state, not push arrivals: apply them even while the
	// notification toggle is off.
	for groupID, has := range groupSeed {
		if has {
			l.unread.Restore(domain.GroupKey(groupID))
		}
	}
	for senderID, has := range dmSeed {
		if has {
			l.unread.Restore(domain.DirectKey(senderID))
		}
	}

	l.mu.Lock()
	l.groups = chats.Groups
	l.directMessages = chats.DirectMessages
	needSub := l.sub == nil && !l.closed
	l.mu.Unlock()

	if needSub {
		sub, err := l.subs.Subscribe(ctx, transport.NewMessageNotificationTopic(), l.handleNotification)
		if err != nil {
			return fmt.Errorf("subscribing notifications: %w", err)
		}
		l.mu.Lock()
		l.sub = sub
		l.mu.Unlock()
	}

	l.log.Debug().Int("groups", len(chats.Groups)).
		Int("direct_messages", len(chats.DirectMessages)).Msg("bootstrapped")
	return nil
}

// notificationPayload is what the notification topic delivers: a group id for
// group traffic, a sender id for direct traffic.
type notificationPayload struct {
	GroupID  *int64 `json:"group_id"`
	SenderID *int64 `json:"sender_id"`
}

func (l *ChatList) handleNotification(payload json.RawMessage) {
	var p notificationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		l.log.Warn().Err(err).Msg("bad notification payload")
		return
	}

	var key domain.Key
	switch {
	case p.GroupID != nil:
		key = domain.GroupKey(*p.GroupID)
	case p.SenderID != nil:
		if *p.SenderID == l.viewerID {
			return
		}
		key = domain.DirectKey(*p.SenderID)
	default:
		return
	}

	// The open detail view is reading this conversation right now; flagging
	// it unread would contradict what is on screen.
	l.mu.RLock()
	activeHere := l.active != nil && *l.active == key
	onNotify := l.onNotify
	l.mu.RUnlock()

	if !activeHere {
		l.unread.MarkUnread(key)
		l.log.Debug().Stringer("conversation", key).Msg("marked unread")
	}
	if onNotify != nil {
		onNotify(key)
	}
}

// SetNotifyListener registers a callback invoked for every notification push,
// after unread state has been updated. Used by live frontends.
func (l *ChatList) SetNotifyListener(fn func(domain.Key)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onNotify = fn
}

// Conversations recomputes the merged display list from the current raw data.
func (l *ChatList) Conversations() []domain.Conversation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return store.BuildConversations(l.groups, l.directMessages, l.viewerID)
}

// Unread reports the flag for one conversation.
func (l *ChatList) Unread(key domain.Key) bool {
	return l.unread.IsUnread(key)
}

// SetActive records which conversation's detail view is open, so pushes for
// it stop flipping the unread flag.
func (l *ChatList) SetActive(key domain.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = &key
}

// ClearActive drops the active marker if it still points at key. A stale
// close racing a newer open must not clobber the newer view's marker.
func (l *ChatList) ClearActive(key domain.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active != nil && *l.active == key {
		l.active = nil
	}
}

// SetNotificationsEnabled toggles unread tracking, optimistically locally and
// confirmed by the server; a failed confirmation rolls the toggle back.
func (l *ChatList) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	previous := l.unread.Enabled()
	if previous == enabled {
		return nil
	}

	l.unread.SetEnabled(enabled)
	if err := l.api.UpdateNotificationSetting(ctx, enabled); err != nil {
		l.unread.SetEnabled(previous)
		return fmt.Errorf("updating notification setting: %w", err)
	}
	return nil
}

func (l *ChatList) NotificationsEnabled() bool {
	return l.unread.Enabled()
}

// Close releases the notification subscription. Safe to call more than once.
func (l *ChatList) Close() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.closed = true
	l.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
