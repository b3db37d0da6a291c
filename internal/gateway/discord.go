package gateway

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/rahul/agentladder/internal/agent"
)

type DiscordGateway struct {
	Session *discordgo.Session
	Brain   agent.Brain

	ctx context.Context
}

func NewDiscordGateway(token string, brain agent.Brain) (*DiscordGateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return &DiscordGateway{
		Session: s,
		Brain:   brain,
		ctx:     context.Background(),
	}, nil
}

func (dg *DiscordGateway) Start(ctx context.Context) error {
	dg.ctx = ctx
	dg.Session.AddHandler(dg.onMessage)
	if err := dg.Session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	if u := dg.Session.State.User; u != nil {
		log.Printf("Authorized on account %s", u.Username)
	}

	<-ctx.Done()
	return dg.Stop()
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	log.Printf("[discord:%s] %s", m.Author.Username, m.Content)

	response, ok := reply(dg.ctx, dg.Brain, m.ChannelID, m.Content)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, response); err != nil {
		log.Printf("Error sending discord reply: %v", err)
	}
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	_, err := dg.Session.ChannelMessageSend(chatID, text)
	return err
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}
