package domain

import (
	"time"
)

// Message is one chat message, group or direct. GroupID is set only for
// group messages; RecipientID, RecipientName and IsRead only for direct ones.
type Message struct {
	ID            int64     `json:"id"`
	GroupID       int64     `json:"group_id,omitempty"`
	SenderID      int64     `json:"sender_id"`
	SenderName    string    `json:"sender_name,omitempty"`
	RecipientID   int64     `json:"recipient_id,omitempty"`
	RecipientName string    `json:"recipient_name,omitempty"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Edited        bool      `json:"edited"`
	IsRead        bool      `json:"is_read"`
}

// PartnerID resolves the counterparty of a direct message: the recipient when
// the viewer sent it, the sender otherwise.
func (m Message) PartnerID(viewerID int64) int64 {
	if m.SenderID == viewerID {
		return m.RecipientID
	}
	return m.SenderID
}

// PartnerName returns the display name matching PartnerID.
func (m Message) PartnerName(viewerID int64) string {
	if m.SenderID == viewerID {
		return m.RecipientName
	}
	return m.SenderName
}
