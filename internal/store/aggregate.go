package store

import (
	"github.com/vedran77/parley/internal/domain"
)

// BuildConversations merges the group list and the raw direct messages into
// one display list: every group, then one entry per distinct direct partner
// in order of first appearance. Pure function, recomputed whenever the raw
// input changes.
func BuildConversations(groups []domain.Group, directMessages []domain.Message, viewerID int64) []domain.Conversation {
	out := make([]domain.Conversation, 0, len(groups))
	for _, g := range groups {
		out = append(out, domain.Conversation{Key: domain.GroupKey(g.ID), Name: g.Name})
	}

	seen := make(map[int64]int)
	for _, m := range directMessages {
		partnerID := m.PartnerID(viewerID)
		if i, ok := seen[partnerID]; ok {
			out[i].LastMessage = m.Content
			continue
		}
		seen[partnerID] = len(out)
		out = append(out, domain.Conversation{
			Key:         domain.DirectKey(partnerID),
			Name:        m.PartnerName(viewerID),
			LastMessage: m.Content,
		})
	}
	return out
}
