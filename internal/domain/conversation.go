package domain

import "fmt"

// Kind distinguishes the two conversation types.
type Kind string

const (
	KindGroup  Kind = "group"
	KindDirect Kind = "direct"
)

// Key identifies one logical conversation. For groups ID is the group id,
// for direct conversations it is the resolved partner id.
type Key struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

func GroupKey(groupID int64) Key {
	return Key{Kind: KindGroup, ID: groupID}
}

func DirectKey(partnerID int64) Key {
	return Key{Kind: KindDirect, ID: partnerID}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// Group is a multi-party chat room as returned by the server.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Conversation is one entry in the merged chat list: a group, or a direct
// thread collapsed onto its partner. LastMessage is filled only for direct
// entries; the chat list payload carries no group messages.
type Conversation struct {
	Key         Key    `json:"key"`
	Name        string `json:"name"`
	LastMessage string `json:"last_message,omitempty"`
}
