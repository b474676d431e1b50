package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// maxDiscordMessage is the longest message content Discord accepts, in runes.
const maxDiscordMessage = 2000

// Discord connects a Bot to the Discord gateway.
type Discord struct {
	session *discordgo.Session
	bot     *Bot
	logger  *slog.Logger
	ctx     context.Context
}

// NewDiscord creates a Discord transport authenticated with a bot token. The
// connection is not opened until Run is called.
func NewDiscord(token string, bot *Bot, logger *slog.Logger) (*Discord, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is empty")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	d := &Discord{
		session: session,
		bot:     bot,
		logger:  logger,
		ctx:     context.Background(),
	}
	session.AddHandler(d.onReady)
	session.AddHandler(d.onMessageCreate)
	return d, nil
}

// Run opens the gateway connection and serves messages until ctx is done.
func (d *Discord) Run(ctx context.Context) error {
	d.ctx = ctx
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	<-ctx.Done()
	d.logger.Info("Closing discord session.")
	return d.session.Close()
}

func (d *Discord) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	d.logger.Info("Logged in to discord", "user", r.User.Username, "guilds", len(r.Guilds))
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || s.State == nil || s.State.User == nil {
		return
	}

	reply, ok := d.bot.Handle(d.ctx, toMessage(m.Message, s.State.User.ID))
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, clampMessage(reply, maxDiscordMessage)); err != nil {
		d.logger.Error("Failed to send discord message", "channel_id", m.ChannelID, "error", err)
	}
}

// toMessage converts a gateway message into the bot's transport-free form.
func toMessage(m *discordgo.Message, selfID string) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.FromSelf = m.Author.ID == selfID
	}
	for _, u := range m.Mentions {
		if u != nil && u.ID == selfID {
			msg.Mentioned = true
			break
		}
	}
	return msg
}

// clampMessage shortens text to at most limit runes, cutting at the last
// space before the limit when there is one.
func clampMessage(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)[:limit]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut
}
