// Package discord mirrors info text into a Discord channel message.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Discord rejects embed descriptions longer than this.
const maxDescription = 4096

// Config holds Discord bot settings.
type Config struct {
	Token     string
	ChannelID string
}

// Service defines the Discord service interface.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
	Publish(ctx context.Context, title, text string) error
}

type service struct {
	log       logrus.FieldLogger
	cfg       Config
	session   *discordgo.Session
	messageID string
	lastText  string
	mu        sync.Mutex
}

// NewService creates a new Discord service.
func NewService(log logrus.FieldLogger, cfg Config) Service {
	return &service{
		log: log.WithField("component", "discord"),
		cfg: cfg,
	}
}

// Start connects to Discord and finds or creates the info message.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := discordgo.New("Bot " + s.cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	s.session = session
	s.log.Info("Connected to Discord")

	// Find existing message from this bot
	if err := s.findOrCreateMessage(); err != nil {
		s.session.Close()
		s.session = nil

		return fmt.Errorf("failed to find or create info message: %w", err)
	}

	return nil
}

// findOrCreateMessage searches for an existing message from this bot or creates a new one.
func (s *service) findOrCreateMessage() error {
	messages, err := s.session.ChannelMessages(s.cfg.ChannelID, 50, "", "", "")
	if err != nil {
		return fmt.Errorf("failed to fetch channel messages: %w", err)
	}

	botID := s.session.State.User.ID

	for _, msg := range messages {
		if msg.Author.ID == botID && len(msg.Embeds) > 0 {
			s.messageID = msg.ID
			s.log.WithField("message_id", s.messageID).Info("Found existing info message")

			return nil
		}
	}

	msg, err := s.session.ChannelMessageSendEmbed(s.cfg.ChannelID, buildEmbed("", "", time.Now()))
	if err != nil {
		return fmt.Errorf("failed to create info message: %w", err)
	}

	s.messageID = msg.ID
	s.log.WithField("message_id", s.messageID).Info("Created new info message")

	return nil
}

// Stop disconnects from Discord.
func (s *service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.Close()
		s.session = nil
		s.log.Info("Disconnected from Discord")
	}

	return nil
}

// Publish replaces the info message with text. Unchanged text is not re-sent.
func (s *service) Publish(ctx context.Context, title, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return fmt.Errorf("not connected to Discord")
	}

	if text == s.lastText {
		s.log.Debug("Info text unchanged, skipping edit")
		return nil
	}

	embed := buildEmbed(title, text, time.Now())

	if _, err := s.session.ChannelMessageEditEmbed(s.cfg.ChannelID, s.messageID, embed); err != nil {
		return fmt.Errorf("failed to update info message: %w", err)
	}

	s.lastText = text

	return nil
}

// buildEmbed renders info text as a code block. Empty text shows a placeholder.
func buildEmbed(title, text string, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Color:     0x2B5B84, // TeamSpeak blue
		Timestamp: now.Format(time.RFC3339),
		Author: &discordgo.MessageEmbedAuthor{
			Name: "TeamSpeak Info",
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Last updated",
		},
	}

	if text == "" {
		embed.Description = "```\nWaiting for info data...\n```"
		embed.Color = 0xFAA61A // Orange - waiting
		return embed
	}

	embed.Title = title
	embed.Description = codeBlock(text)

	return embed
}

// codeBlock wraps text in a fenced block that fits an embed description.
func codeBlock(text string) string {
	const fence = "```\n"
	const closing = "\n```"
	const ellipsis = "\n..."

	text = strings.ReplaceAll(text, "```", "'''")

	limit := maxDescription - len(fence) - len(closing)
	if len(text) > limit {
		n := limit - len(ellipsis)
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}

		text = text[:n] + ellipsis
	}

	return fence + text + closing
}
