package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vedran77/parley/internal/domain"
)

var (
	styleUnread = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	styleName   = lipgloss.NewStyle().Bold(true)
	styleMeta   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleSender = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleEdited = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

func renderConversation(c domain.Conversation, unread bool) string {
	marker := "  "
	if unread {
		marker = styleUnread.Render("● ")
	}
	name := c.Name
	if name == "" {
		name = c.Key.String()
	}
	line := fmt.Sprintf("%s%s %s", marker, styleName.Render(name), styleMeta.Render("["+c.Key.String()+"]"))
	if c.LastMessage != "" {
		preview := c.LastMessage
		if len(preview) > 60 {
			preview = preview[:57] + "..."
		}
		line += " " + styleMeta.Render(preview)
	}
	return line
}

func renderMessage(m domain.Message, viewerID int64) string {
	var b strings.Builder
	b.WriteString(styleMeta.Render(m.CreatedAt.Local().Format("15:04")))
	b.WriteString(" ")
	sender := m.SenderName
	if m.SenderID == viewerID {
		sender = "me"
	}
	b.WriteString(styleSender.Render(sender + ":"))
	b.WriteString(" ")
	b.WriteString(m.Content)
	if m.Edited {
		b.WriteString(" " + styleEdited.Render("(edited)"))
	}
	if m.RecipientID != 0 && m.SenderID == viewerID {
		if m.IsRead {
			b.WriteString(" " + styleMeta.Render("✓✓"))
		} else {
			b.WriteString(" " + styleMeta.Render("✓"))
		}
	}
	b.WriteString(" " + styleMeta.Render(fmt.Sprintf("#%d", m.ID)))
	return b.String()
}

func renderEvent(ts time.Time, text string) string {
	return fmt.Sprintf("%s %s", styleMeta.Render(ts.Format("15:04:05")), text)
}
