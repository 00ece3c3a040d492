// Package store holds the in-memory state of the sync engine: the message
// collection of one open conversation, the shared unread flags and the
// chat-list aggregation.
package store

import (
	"sync"

	"github.com/vedran77/parley/internal/domain"
)

// MessageStore owns the ordered messages of one open conversation view.
// Display order is insertion order; an update never moves a message. Every
// mutation goes through the Apply methods so duplicate and out-of-order push
// delivery collapses instead of corrupting the list.
type MessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
	index    map[int64]int
}

func NewMessageStore() *MessageStore {
	return &MessageStore{index: make(map[int64]int)}
}

// Load replaces the contents with the bulk-fetch history. Called once per
// view open; duplicate ids in the input collapse to the last occurrence.
func (s *MessageStore) Load(messages []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = s.messages[:0]
	s.index = make(map[int64]int, len(messages))
	for _, m := range messages {
		s.upsert(m)
	}
}

// ApplyCreate appends a new message. If the id is already present (the push
// echo of a message this client just sent, or a duplicate delivery) it
// collapses into an in-place update.
func (s *MessageStore) ApplyCreate(m domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(m)
}

// ApplyUpdate replaces the message with the same id in place. If the id was
// never seen (an edit racing ahead of its create) the update is kept as a
// create rather than dropped.
func (s *MessageStore) ApplyUpdate(m domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(m)
}

// ApplyDelete removes the message. Absent ids are a no-op: the delete either
// raced ahead of the create or was delivered twice.
func (s *MessageStore) ApplyDelete(messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[messageID]
	if !ok {
		return
	}
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
	delete(s.index, messageID)
	for j := i; j < len(s.messages); j++ {
		s.index[s.messages[j].ID] = j
	}
}

// ApplyReadStatus flips only the IsRead flag. Read-status events are a
// separate stream and must never clobber content or the edited marker.
func (s *MessageStore) ApplyReadStatus(messageID int64, read bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[messageID]; ok {
		s.messages[i].IsRead = read
	}
}

// Messages returns a copy of the current sequence in display order.
func (s *MessageStore) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// UnreadFrom returns the ids of unread messages addressed to the viewer, in
// display order. This is the batch a recipient view marks as read.
func (s *MessageStore) UnreadFrom(viewerID int64) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, m := range s.messages {
		if m.RecipientID == viewerID && !m.IsRead {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// upsert is the shared create/update merge; callers hold the lock.
func (s *MessageStore) upsert(m domain.Message) {
	if i, ok := s.index[m.ID]; ok {
		s.messages[i] = m
		return
	}
	s.index[m.ID] = len(s.messages)
	s.messages = append(s.messages, m)
}
