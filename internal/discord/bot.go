package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Handler produces the reply to one incoming message.
type Handler interface {
	Handle(ctx context.Context, userID, text string) string
}

type Bot struct {
	session *discordgo.Session
	handler Handler
	logger  *slog.Logger
}

func NewBot(token string, h Handler, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := &Bot{session: s, handler: h, logger: logger}
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	logger.Info("Discord bot connected", "user", s.State.User.Username)
	return bot, nil
}

// SendDM delivers content to userID's direct-message channel. It satisfies
// scheduler.Sender.
func (b *Bot) SendDM(ctx context.Context, userID, content string) error {
	ch, err := b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening DM channel: %w", err)
	}
	for _, chunk := range splitMessage(content, maxMessageLen) {
		if _, err := b.session.ChannelMessageSend(ch.ID, chunk, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("sending DM: %w", err)
		}
	}
	return nil
}

func (b *Bot) Close() {
	b.session.Close()
}
