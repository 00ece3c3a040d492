package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vedran77/parley/internal/api"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/service"
	"github.com/vedran77/parley/internal/session"
	"github.com/vedran77/parley/internal/store"
	"github.com/vedran77/parley/internal/transport"
)

// app is everything a command needs, wired once per invocation: identity from
// the token, the REST client, the live push connection and the sync engine on
// top of both.
type app struct {
	identity *session.Identity
	api      *api.Client
	conn     *transport.Conn
	unread   *store.UnreadTracker
	list     *service.ChatList
	views    *service.Views
}

func newApp(ctx context.Context) (*app, error) {
	identity, err := session.FromToken(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("resolving identity: %w", err)
	}

	client := api.New(cfg.ServerURL, cfg.Token, cfg.RequestTimeout)

	conn, err := transport.Dial(ctx, transport.Options{
		URL:          cfg.CableURL,
		Token:        cfg.Token,
		ReconnectMin: cfg.ReconnectMin,
		ReconnectMax: cfg.ReconnectMax,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting push channel: %w", err)
	}

	subs := service.NewCableSubscriber(conn)
	unread := store.NewUnreadTracker()
	list := service.NewChatList(client, subs, identity.UserID, unread)

	return &app{
		identity: identity,
		api:      client,
		conn:     conn,
		unread:   unread,
		list:     list,
		views:    service.NewViews(client, subs, identity.UserID, unread, list),
	}, nil
}

func (a *app) Close() {
	a.list.Close()
	a.conn.Close()
}

// parseConversation turns "group <id>" / "dm <partner-id>" args into a key.
func parseConversation(kind, idArg string) (domain.Key, error) {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return domain.Key{}, fmt.Errorf("invalid id %q", idArg)
	}
	switch kind {
	case "group":
		return domain.GroupKey(id), nil
	case "dm", "direct":
		return domain.DirectKey(id), nil
	default:
		return domain.Key{}, fmt.Errorf("unknown conversation kind %q (want group or dm)", kind)
	}
}

func (a *app) openView(ctx context.Context, key domain.Key) (*service.ChatView, error) {
	switch key.Kind {
	case domain.KindGroup:
		return a.views.OpenGroup(ctx, key.ID)
	default:
		return a.views.OpenDirect(ctx, key.ID)
	}
}
