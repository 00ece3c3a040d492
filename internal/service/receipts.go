package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vedran77/parley/internal/store"
)

// Read-status values on the message-status topic.
const (
	StatusRead   = "read"
	StatusUnread = "unread"
)

// readReceipts synchronizes per-message read state for a direct view: it
// batches outbound mark-as-read calls and applies inbound status events.
// Status events touch IsRead only, never message content.
type readReceipts struct {
	api      ChatViewAPI
	store    *store.MessageStore
	viewerID int64
	log      zerolog.Logger
}

func newReadReceipts(chatAPI ChatViewAPI, msgStore *store.MessageStore, viewerID int64, log zerolog.Logger) *readReceipts {
	return &readReceipts{api: chatAPI, store: msgStore, viewerID: viewerID, log: log}
}

// syncVisible marks every displayed message addressed to the viewer as read:
// one batched server call, then the local flags. Marking is a side effect of
// rendering as recipient and is idempotent: already-read messages are not in
// the batch, and re-marking them would be harmless anyway.
func (r *readReceipts) syncVisible(ctx context.Context) error {
	ids := r.store.UnreadFrom(r.viewerID)
	if len(ids) == 0 {
		return nil
	}

	if err := r.api.MarkAsRead(ctx, ids); err != nil {
		return fmt.Errorf("marking %d messages read: %w", len(ids), err)
	}
	for _, id := range ids {
		r.store.ApplyReadStatus(id, true)
	}
	r.log.Debug().Int("count", len(ids)).Msg("marked read")
	return nil
}

type statusPayload struct {
	MessageID int64  `json:"message_id"`
	Status    string `json:"status"`
}

// applyStatus handles one inbound read-status event.
func (r *readReceipts) applyStatus(payload json.RawMessage) {
	var p statusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		r.log.Warn().Err(err).Msg("bad status payload")
		return
	}
	r.store.ApplyReadStatus(p.MessageID, p.Status == StatusRead)
}
