package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// testCable is a minimal in-process push server: welcome on connect, confirm
// on subscribe, data frames on demand.
type testCable struct {
	t   *testing.T
	srv *httptest.Server

	mu sync.Mutex
	ws *websocket.Conn

	subscribed   chan string
	unsubscribed chan string
}

func newTestCable(t *testing.T) *testCable {
	t.Helper()
	c := &testCable{
		t:            t,
		subscribed:   make(chan string, 16),
		unsubscribed: make(chan string, 16),
	}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		if err := wsjson.Write(ctx, ws, map[string]any{"type": frameWelcome}); err != nil {
			return
		}
		c.mu.Lock()
		c.ws = ws
		c.mu.Unlock()

		for {
			var cmd command
			if err := wsjson.Read(ctx, ws, &cmd); err != nil {
				return
			}
			switch cmd.Command {
			case commandSubscribe:
				wsjson.Write(ctx, ws, map[string]any{"type": frameConfirm, "identifier": cmd.Identifier})
				c.subscribed <- cmd.Identifier
			case commandUnsubscribe:
				c.unsubscribed <- cmd.Identifier
			}
		}
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *testCable) url() string {
	return "ws" + strings.TrimPrefix(c.srv.URL, "http")
}

func (c *testCable) sendData(identifier string, payload any) {
	c.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(c.t, err)

	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	require.NotNil(c.t, ws)

	frame := map[string]any{"identifier": identifier, "message": json.RawMessage(data)}
	require.NoError(c.t, wsjson.Write(context.Background(), ws, frame))
}

func recvString(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel")
		return ""
	}
}

func TestDialSubscribeAndRoute(t *testing.T) {
	cable := newTestCable(t)

	conn, err := Dial(context.Background(), Options{URL: cable.url()})
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan string, 8)
	topic := MessageTopic("group", 1)
	sub, err := conn.Subscribe(context.Background(), topic, func(p json.RawMessage) {
		received <- string(p)
	})
	require.NoError(t, err)
	defer sub.Close()

	identifier := recvString(t, cable.subscribed)
	want, err := topic.identifier()
	require.NoError(t, err)
	require.Equal(t, want, identifier)

	cable.sendData(identifier, map[string]int{"n": 1})
	cable.sendData(identifier, map[string]int{"n": 2})
	otherIdentifier := `{"channel":"SomethingElseChannel"}`
	cable.sendData(otherIdentifier, map[string]int{"n": 3})

	require.JSONEq(t, `{"n":1}`, recvString(t, received))
	require.JSONEq(t, `{"n":2}`, recvString(t, received))
	select {
	case extra := <-received:
		t.Fatalf("frame for foreign identifier delivered: %s", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	cable := newTestCable(t)

	conn, err := Dial(context.Background(), Options{URL: cable.url()})
	require.NoError(t, err)
	defer conn.Close()

	sub, err := conn.Subscribe(context.Background(), DirectMessagesTopic(7), func(json.RawMessage) {})
	require.NoError(t, err)
	recvString(t, cable.subscribed)

	sub.Close()
	sub.Close()
	sub.Close()

	recvString(t, cable.unsubscribed)
	select {
	case <-cable.unsubscribed:
		t.Fatal("unsubscribe sent more than once")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSubscribeSameTopicTwiceFails(t *testing.T) {
	cable := newTestCable(t)

	conn, err := Dial(context.Background(), Options{URL: cable.url()})
	require.NoError(t, err)
	defer conn.Close()

	topic := MessageStatusTopic(3)
	sub, err := conn.Subscribe(context.Background(), topic, func(json.RawMessage) {})
	require.NoError(t, err)
	defer sub.Close()

	_, err = conn.Subscribe(context.Background(), topic, func(json.RawMessage) {})
	require.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestResubscribeAfterClose(t *testing.T) {
	cable := newTestCable(t)

	conn, err := Dial(context.Background(), Options{URL: cable.url()})
	require.NoError(t, err)
	defer conn.Close()

	topic := DirectMessagesTopic(4)
	sub, err := conn.Subscribe(context.Background(), topic, func(json.RawMessage) {})
	require.NoError(t, err)
	recvString(t, cable.subscribed)

	sub.Close()
	recvString(t, cable.unsubscribed)

	sub2, err := conn.Subscribe(context.Background(), topic, func(json.RawMessage) {})
	require.NoError(t, err)
	defer sub2.Close()
	recvString(t, cable.subscribed)
}

func TestConnCloseIsIdempotent(t *testing.T) {
	cable := newTestCable(t)

	conn, err := Dial(context.Background(), Options{URL: cable.url()})
	require.NoError(t, err)

	conn.Close()
	conn.Close()

	_, err = conn.Subscribe(context.Background(), NewMessageNotificationTopic(), func(json.RawMessage) {})
	require.ErrorIs(t, err, ErrClosed)
}

func TestHandlerPanicDoesNotKillReadLoop(t *testing.T) {
	cable := newTestCable(t)

	conn, err := Dial(context.Background(), Options{URL: cable.url()})
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan string, 2)
	topic := MessageTopic("group", 9)
	_, err = conn.Subscribe(context.Background(), topic, func(p json.RawMessage) {
		if strings.Contains(string(p), "boom") {
			panic("handler bug")
		}
		received <- string(p)
	})
	require.NoError(t, err)

	identifier := recvString(t, cable.subscribed)
	cable.sendData(identifier, map[string]string{"v": "boom"})
	cable.sendData(identifier, map[string]string{"v": "fine"})

	require.JSONEq(t, `{"v":"fine"}`, recvString(t, received))
}

func TestTopicStringForms(t *testing.T) {
	require.Equal(t, "MessageChannel(group:5)", MessageTopic("group", 5).String())
	require.Equal(t, "DirectMessagesChannel(2)", DirectMessagesTopic(2).String())
	require.Equal(t, "NewMessageNotificationChannel", NewMessageNotificationTopic().String())
}
