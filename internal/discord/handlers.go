package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects messages longer than this.
const maxMessageLen = 2000

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	// Only respond to DMs or when mentioned
	if !addressed(m.Message, s.State.User.ID) {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	s.ChannelTyping(m.ChannelID)

	reply := b.handler.Handle(context.Background(), m.Author.ID, content)
	for _, chunk := range splitMessage(reply, maxMessageLen) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			b.logger.Warn("sending reply", "channel", m.ChannelID, "err", err)
			return
		}
	}
}

func addressed(m *discordgo.Message, botID string) bool {
	if m.GuildID == "" {
		return true
	}
	for _, u := range m.Mentions {
		if u.ID == botID {
			return true
		}
	}
	return false
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
