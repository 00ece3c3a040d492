package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedran77/parley/internal/api"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/transport"
)

func ids(messages []domain.Message) []int64 {
	out := make([]int64, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}

// fakeAPI implements ChatListAPI and ChatViewAPI in memory.
type fakeAPI struct {
	mu sync.Mutex

	chats     *api.ChatsResponse
	groupSeed map[int64]bool
	dmSeed    map[int64]bool
	setting   api.NotificationSetting

	updateSettingErr error
	updatedSettings  []bool

	group           *api.GroupResponse
	getGroupStarted chan struct{}
	blockGetGroup   chan struct{}

	directs *api.DirectMessagesResponse

	nextID  int64
	created []domain.Message
	edited  []domain.Message
	deleted []int64

	markRead    [][]int64
	markReadErr error

	clearCalls []string
	clearErr   error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		chats:     &api.ChatsResponse{},
		groupSeed: map[int64]bool{},
		dmSeed:    map[int64]bool{},
		setting:   api.NotificationSetting{Enabled: true},
		group:     &api.GroupResponse{},
		directs:   &api.DirectMessagesResponse{},
		nextID:    100,
	}
}

func (f *fakeAPI) ListChats(ctx context.Context) (*api.ChatsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := *f.chats
	return &resp, nil
}

func (f *fakeAPI) GroupNewMessages(ctx context.Context) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groupSeed, nil
}

func (f *fakeAPI) DirectNewMessages(ctx context.Context) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dmSeed, nil
}

func (f *fakeAPI) GetNotificationSetting(ctx context.Context) (*api.NotificationSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	setting := f.setting
	return &setting, nil
}

func (f *fakeAPI) UpdateNotificationSetting(ctx context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateSettingErr != nil {
		return f.updateSettingErr
	}
	f.updatedSettings = append(f.updatedSettings, enabled)
	f.setting.Enabled = enabled
	return nil
}

func (f *fakeAPI) GetGroup(ctx context.Context, groupID int64) (*api.GroupResponse, error) {
	f.mu.Lock()
	started := f.getGroupStarted
	block := f.blockGetGroup
	resp := *f.group
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return &resp, nil
}

func (f *fakeAPI) CreateGroupMessage(ctx context.Context, groupID int64, content string) (*domain.Message, error) {
	return f.create(domain.Message{GroupID: groupID, SenderID: 1, Content: content})
}

func (f *fakeAPI) UpdateGroupMessage(ctx context.Context, groupID, messageID int64, content string) (*domain.Message, error) {
	return f.edit(domain.Message{ID: messageID, GroupID: groupID, Content: content, Edited: true})
}

func (f *fakeAPI) DeleteGroupMessage(ctx context.Context, groupID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeAPI) ClearGroupNewMessages(ctx context.Context, groupID int64) error {
	return f.clear(domain.GroupKey(groupID))
}

func (f *fakeAPI) ListDirectMessages(ctx context.Context, partnerID int64) (*api.DirectMessagesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := *f.directs
	return &resp, nil
}

func (f *fakeAPI) CreateDirectMessage(ctx context.Context, recipientID int64, content string) (*domain.Message, error) {
	return f.create(domain.Message{SenderID: 1, RecipientID: recipientID, Content: content})
}

func (f *fakeAPI) UpdateDirectMessage(ctx context.Context, messageID int64, content string) (*domain.Message, error) {
	return f.edit(domain.Message{ID: messageID, Content: content, Edited: true})
}

func (f *fakeAPI) DeleteDirectMessage(ctx context.Context, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeAPI) MarkAsRead(ctx context.Context, messageIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markReadErr != nil {
		return f.markReadErr
	}
	f.markRead = append(f.markRead, messageIDs)
	return nil
}

func (f *fakeAPI) ClearDirectNewMessages(ctx context.Context, senderID int64) error {
	return f.clear(domain.DirectKey(senderID))
}

func (f *fakeAPI) create(m domain.Message) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	f.created = append(f.created, m)
	return &m, nil
}

func (f *fakeAPI) edit(m domain.Message) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, m)
	return &m, nil
}

func (f *fakeAPI) clear(key domain.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clearCalls = append(f.clearCalls, key.String())
	return nil
}

func (f *fakeAPI) markReadBatches() [][]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]int64, len(f.markRead))
	copy(out, f.markRead)
	return out
}

func (f *fakeAPI) createdMessages() []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Message, len(f.created))
	copy(out, f.created)
	return out
}

// fakeSub counts closes; the contract says any number of Close calls must
// release exactly once.
type fakeSub struct {
	mu     sync.Mutex
	closes int
}

func (s *fakeSub) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
}

func (s *fakeSub) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// fakeSubscriber records handlers by topic and lets tests inject pushes.
type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]transport.Handler
	subs     map[string]*fakeSub
	err      error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		handlers: make(map[string]transport.Handler),
		subs:     make(map[string]*fakeSub),
	}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, topic transport.Topic, handler transport.Handler) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := topic.String()
	if _, ok := f.handlers[key]; ok {
		return nil, fmt.Errorf("%w: %s", transport.ErrAlreadySubscribed, key)
	}
	f.handlers[key] = handler
	sub := &fakeSub{}
	f.subs[key] = sub
	return sub, nil
}

// push delivers one payload to the handler subscribed on topic.
func (f *fakeSubscriber) push(t *testing.T, topic transport.Topic, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	f.mu.Lock()
	handler := f.handlers[topic.String()]
	f.mu.Unlock()
	require.NotNil(t, handler, "no handler for topic %s", topic)
	handler(data)
}

func (f *fakeSubscriber) sub(topic transport.Topic) *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[topic.String()]
}
