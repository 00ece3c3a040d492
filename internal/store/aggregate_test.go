package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedran77/parley/internal/domain"
)

func dm(id, senderID, recipientID int64, senderName, recipientName string) domain.Message {
	return domain.Message{
		ID:            id,
		SenderID:      senderID,
		SenderName:    senderName,
		RecipientID:   recipientID,
		RecipientName: recipientName,
	}
}

func TestBuildConversationsCollapsesPartners(t *testing.T) {
	directs := []domain.Message{
		dm(1, 1, 2, "me", "bea"),
		dm(2, 2, 1, "bea", "me"),
		dm(3, 1, 3, "me", "cai"),
	}

	out := BuildConversations(nil, directs, 1)

	require.Len(t, out, 2)
	require.Equal(t, domain.DirectKey(2), out[0].Key)
	require.Equal(t, "bea", out[0].Name)
	require.Equal(t, domain.DirectKey(3), out[1].Key)
	require.Equal(t, "cai", out[1].Name)
}

func TestBuildConversationsGroupsFirstStableOrder(t *testing.T) {
	groups := []domain.Group{{ID: 10, Name: "general"}, {ID: 11, Name: "random"}}
	directs := []domain.Message{dm(1, 5, 1, "dana", "me")}

	out := BuildConversations(groups, directs, 1)

	require.Equal(t, []domain.Conversation{
		{Key: domain.GroupKey(10), Name: "general"},
		{Key: domain.GroupKey(11), Name: "random"},
		{Key: domain.DirectKey(5), Name: "dana"},
	}, out)
}

func TestBuildConversationsKeepsLatestMessage(t *testing.T) {
	directs := []domain.Message{
		{ID: 1, SenderID: 2, RecipientID: 1, SenderName: "bea", Content: "older"},
		{ID: 2, SenderID: 1, RecipientID: 2, RecipientName: "bea", Content: "newest"},
	}

	out := BuildConversations(nil, directs, 1)

	require.Len(t, out, 1)
	require.Equal(t, "newest", out[0].LastMessage)
}

func TestBuildConversationsEmptyInput(t *testing.T) {
	require.Empty(t, BuildConversations(nil, nil, 1))
}
