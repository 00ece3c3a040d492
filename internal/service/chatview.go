package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/logging"
	"github.com/vedran77/parley/internal/store"
	"github.com/vedran77/parley/internal/transport"
	"github.com/vedran77/parley/pkg/validator"
)

var ErrViewClosed = errors.New("chat view closed")

// receiptTimeout bounds the background mark-as-read call triggered by an
// inbound partner message.
const receiptTimeout = 10 * time.Second

// Views creates detail views. One Views instance is shared by the whole
// client; each Open* call produces an independent ChatView.
type Views struct {
	api      ChatViewAPI
	subs     Subscriber
	viewerID int64
	unread   *store.UnreadTracker
	list     *ChatList
}

// NewViews wires the view factory. list may be nil when no chat list is
// mounted (single-conversation tools); active-view tracking is skipped then.
func NewViews(chatAPI ChatViewAPI, subs Subscriber, viewerID int64, unread *store.UnreadTracker, list *ChatList) *Views {
	return &Views{api: chatAPI, subs: subs, viewerID: viewerID, unread: unread, list: list}
}

// ChatView is one open conversation: its message store, its subscriptions and
// the lifecycle guards around them. Create with Views.OpenGroup or
// Views.OpenDirect; always Close when done.
type ChatView struct {
	api      ChatViewAPI
	subs     Subscriber
	viewerID int64
	unread   *store.UnreadTracker
	list     *ChatList
	key      domain.Key
	store    *store.MessageStore
	receipts *readReceipts
	log      zerolog.Logger

	mu            sync.Mutex
	name          string
	fetchToken    uuid.UUID
	subscriptions []Subscription
	closed        bool
	clearErr      error
}

// OpenGroup opens a group conversation: clears its unread flag, fetches the
// history, then subscribes to the group's message topic.
func (v *Views) OpenGroup(ctx context.Context, groupID int64) (*ChatView, error) {
	view := v.newView(domain.GroupKey(groupID))
	if err := view.open(ctx); err != nil {
		view.Close()
		return nil, err
	}
	return view, nil
}

// OpenDirect opens the direct thread with one partner. On top of the group
// flow it subscribes to the read-status topic and marks the fetched history
// read where the viewer is the recipient.
func (v *Views) OpenDirect(ctx context.Context, partnerID int64) (*ChatView, error) {
	view := v.newView(domain.DirectKey(partnerID))
	view.receipts = newReadReceipts(v.api, view.store, v.viewerID, view.log)
	if err := view.open(ctx); err != nil {
		view.Close()
		return nil, err
	}
	return view, nil
}

func (v *Views) newView(key domain.Key) *ChatView {
	return &ChatView{
		api:      v.api,
		subs:     v.subs,
		viewerID: v.viewerID,
		unread:   v.unread,
		list:     v.list,
		key:      key,
		store:    store.NewMessageStore(),
		log:      logging.Component("chatview").With().Stringer("conversation", key).Logger(),
	}
}

func (view *ChatView) open(ctx context.Context) error {
	if view.list != nil {
		view.list.SetActive(view.key)
	}

	view.clearUnread(ctx)

	if err := view.Reload(ctx); err != nil {
		return err
	}

	if err := view.subscribe(ctx); err != nil {
		return err
	}

	if view.receipts != nil {
		if err := view.receipts.syncVisible(ctx); err != nil {
			// History is already on screen; receipts will catch up on the
			// next inbound message.
			view.log.Warn().Err(err).Msg("initial read sync failed")
		}
	}
	return nil
}

// clearUnread clears the flag optimistically, then confirms with the server.
// On failure the flag is restored and the error kept for ClearError, so the
// list never silently disagrees with the server.
func (view *ChatView) clearUnread(ctx context.Context) {
	wasUnread := view.unread.IsUnread(view.key)
	view.unread.ClearUnread(view.key)

	var err error
	switch view.key.Kind {
	case domain.KindGroup:
		err = view.api.ClearGroupNewMessages(ctx, view.key.ID)
	case domain.KindDirect:
		err = view.api.ClearDirectNewMessages(ctx, view.key.ID)
	}
	if err != nil {
		if wasUnread {
			view.unread.Restore(view.key)
		}
		view.mu.Lock()
		view.clearErr = err
		view.mu.Unlock()
		view.log.Warn().Err(err).Msg("unread clear not confirmed")
	}
}

// Reload re-fetches the history and replaces the store contents. Every call
// stamps a fresh token; a response that resolves after Close, or after a
// newer Reload started, is discarded instead of applied.
func (view *ChatView) Reload(ctx context.Context) error {
	view.mu.Lock()
	if view.closed {
		view.mu.Unlock()
		return ErrViewClosed
	}
	token := uuid.New()
	view.fetchToken = token
	view.mu.Unlock()

	var (
		name     string
		messages []domain.Message
	)
	switch view.key.Kind {
	case domain.KindGroup:
		resp, err := view.api.GetGroup(ctx, view.key.ID)
		if err != nil {
			return fmt.Errorf("fetching group %d: %w", view.key.ID, err)
		}
		name = resp.Group.Name
		messages = resp.Messages
	case domain.KindDirect:
		resp, err := view.api.ListDirectMessages(ctx, view.key.ID)
		if err != nil {
			return fmt.Errorf("fetching direct thread %d: %w", view.key.ID, err)
		}
		messages = resp.DirectMessages
		for _, m := range messages {
			if n := m.PartnerName(view.viewerID); n != "" {
				name = n
				break
			}
		}
	}

	view.mu.Lock()
	defer view.mu.Unlock()
	if view.closed {
		view.log.Debug().Msg("discarding fetch for closed view")
		return ErrViewClosed
	}
	if view.fetchToken != token {
		// A newer reload owns the store now.
		view.log.Debug().Msg("discarding superseded fetch")
		return nil
	}
	if name != "" {
		view.name = name
	}
	view.store.Load(messages)
	return nil
}

func (view *ChatView) subscribe(ctx context.Context) error {
	type binding struct {
		topic   transport.Topic
		handler transport.Handler
	}

	var bindings []binding
	switch view.key.Kind {
	case domain.KindGroup:
		bindings = []binding{
			{transport.MessageTopic(string(domain.KindGroup), view.key.ID), view.handleRoomEvent},
		}
	case domain.KindDirect:
		bindings = []binding{
			{transport.DirectMessagesTopic(view.viewerID), view.handleDirectEvent},
			{transport.MessageStatusTopic(view.viewerID), view.receipts.applyStatus},
		}
	}

	for _, b := range bindings {
		sub, err := view.subs.Subscribe(ctx, b.topic, b.handler)
		if err != nil {
			return fmt.Errorf("subscribing %s: %w", b.topic, err)
		}
		view.mu.Lock()
		view.subscriptions = append(view.subscriptions, sub)
		view.mu.Unlock()
	}
	return nil
}

// roomEventPayload is a MessageChannel data frame.
type roomEventPayload struct {
	Message domain.Message `json:"message"`
	Action  string         `json:"action"`
}

func (view *ChatView) handleRoomEvent(payload json.RawMessage) {
	var p roomEventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		view.log.Warn().Err(err).Msg("bad room event")
		return
	}
	view.applyAction(p.Action, p.Message)
}

// directEventPayload is a DirectMessagesChannel data frame. The topic carries
// every direct message for the user, so events for other partners are
// filtered out here.
type directEventPayload struct {
	DirectMessage domain.Message `json:"direct_message"`
	Action        string         `json:"action"`
}

func (view *ChatView) handleDirectEvent(payload json.RawMessage) {
	var p directEventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		view.log.Warn().Err(err).Msg("bad direct event")
		return
	}
	if p.DirectMessage.PartnerID(view.viewerID) != view.key.ID {
		return
	}

	view.applyAction(p.Action, p.DirectMessage)

	// Receiving while the thread is on screen means it is read.
	if p.Action == "" || p.Action == "create" {
		if p.DirectMessage.RecipientID == view.viewerID && view.receipts != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), receiptTimeout)
				defer cancel()
				if err := view.receipts.syncVisible(ctx); err != nil {
					view.log.Warn().Err(err).Msg("read sync failed")
				}
			}()
		}
	}
}

func (view *ChatView) applyAction(action string, m domain.Message) {
	switch action {
	case "", "create":
		view.store.ApplyCreate(m)
	case "update":
		view.store.ApplyUpdate(m)
	case "delete":
		view.store.ApplyDelete(m.ID)
	default:
		view.log.Debug().Str("action", action).Msg("ignoring unknown action")
	}
}

// Send validates and posts a new message, appending the response locally.
// The push echo of the same id collapses into this entry.
func (view *ChatView) Send(ctx context.Context, content string) (*domain.Message, error) {
	if errs := validator.ValidateMessage(content); errs.HasErrors() {
		return nil, errs
	}

	var (
		msg *domain.Message
		err error
	)
	switch view.key.Kind {
	case domain.KindGroup:
		msg, err = view.api.CreateGroupMessage(ctx, view.key.ID, content)
	case domain.KindDirect:
		msg, err = view.api.CreateDirectMessage(ctx, view.key.ID, content)
	}
	if err != nil {
		return nil, err
	}

	view.store.ApplyCreate(*msg)
	return msg, nil
}

// Edit updates a message's content and merges the response in place.
func (view *ChatView) Edit(ctx context.Context, messageID int64, content string) (*domain.Message, error) {
	if errs := validator.ValidateMessage(content); errs.HasErrors() {
		return nil, errs
	}

	var (
		msg *domain.Message
		err error
	)
	switch view.key.Kind {
	case domain.KindGroup:
		msg, err = view.api.UpdateGroupMessage(ctx, view.key.ID, messageID, content)
	case domain.KindDirect:
		msg, err = view.api.UpdateDirectMessage(ctx, messageID, content)
	}
	if err != nil {
		return nil, err
	}

	view.store.ApplyUpdate(*msg)
	return msg, nil
}

// Delete removes a message server-side and locally.
func (view *ChatView) Delete(ctx context.Context, messageID int64) error {
	var err error
	switch view.key.Kind {
	case domain.KindGroup:
		err = view.api.DeleteGroupMessage(ctx, view.key.ID, messageID)
	case domain.KindDirect:
		err = view.api.DeleteDirectMessage(ctx, messageID)
	}
	if err != nil {
		return err
	}

	view.store.ApplyDelete(messageID)
	return nil
}

// Messages returns the current display sequence.
func (view *ChatView) Messages() []domain.Message {
	return view.store.Messages()
}

func (view *ChatView) Key() domain.Key {
	return view.key
}

func (view *ChatView) Name() string {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.name
}

// ClearError reports a failed unread-clear confirmation, if any. The flag has
// already been restored locally when this is non-nil.
func (view *ChatView) ClearError() error {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.clearErr
}

// Close releases every subscription exactly once and detaches the view from
// the chat list. Safe to call multiple times; a fetch still in flight will
// find the view closed and discard its result.
func (view *ChatView) Close() {
	view.mu.Lock()
	if view.closed {
		view.mu.Unlock()
		return
	}
	view.closed = true
	subs := view.subscriptions
	view.subscriptions = nil
	view.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	if view.list != nil {
		view.list.ClearActive(view.key)
	}
}
