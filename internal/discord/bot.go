// Package discord provides the Discord surface for StaffLens. It owns the
// discordgo.Session lifecycle, watches voice-state updates to launch
// interviews for applicants, routes slash command interactions to registered
// handlers, posts reports to the staff channel, and checks staff permissions.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/app"
	"github.com/stafflens/stafflens/internal/config"
	"github.com/stafflens/stafflens/internal/interview"
	"github.com/stafflens/stafflens/pkg/voice"
	discordvoice "github.com/stafflens/stafflens/pkg/voice/discord"
)

// Bot owns the Discord gateway connection. It exposes the voice platform and
// report poster the interview pipeline needs, and once Bind is called it
// starts interviews for applicants joining voice channels.
type Bot struct {
	mu       sync.RWMutex
	session  *discordgo.Session
	platform *discordvoice.Platform
	router   *CommandRouter
	perms    *PermissionChecker
	cfg      config.DiscordConfig
	log      *slog.Logger

	// sessions is nil until Bind; voice events before that are dropped.
	sessions *app.SessionManager

	commands  []*discordgo.ApplicationCommand
	closeOnce sync.Once
}

// New creates a Bot and connects to the Discord gateway.
func New(cfg config.DiscordConfig, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	// GuildMembers keeps role lists on voice-state members, which the
	// applicant check needs.
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}

	b := &Bot{
		session:  session,
		platform: discordvoice.New(session, cfg.GuildID),
		router:   NewCommandRouter(),
		perms:    NewPermissionChecker(cfg.StaffRoleID),
		cfg:      cfg,
		log:      log,
	}

	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.router.Handle(s, i)
	})
	session.AddHandler(func(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		b.handleVoiceState(s, vs)
	})

	return b, nil
}

// Bind attaches the session manager. Voice-state updates are ignored until
// the interview pipeline is wired, so main can build the bot first, wire the
// app from the bot's platform and poster, and bind last.
func (b *Bot) Bind(sessions *app.SessionManager) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = sessions
}

// Platform returns the voice platform for interview connections.
func (b *Bot) Platform() voice.Platform {
	return b.platform
}

// GuildID returns the guild the bot serves.
func (b *Bot) GuildID() string {
	return b.cfg.GuildID
}

// Session returns the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// Router returns the command router for registering handlers.
func (b *Bot) Router() *CommandRouter {
	return b.router
}

// Permissions returns the staff permission checker.
func (b *Bot) Permissions() *PermissionChecker {
	return b.perms
}

// Poster returns a report.Poster targeting the configured report channel.
func (b *Bot) Poster() *ReportPoster {
	return NewReportPoster(b.session, b.cfg.ReportChannelID)
}

// Display returns a DisplayFunc that mirrors spoken interviewer lines into
// the voice channel's text chat.
func (b *Bot) Display() interview.DisplayFunc {
	return func(_ context.Context, sess *interview.Session, text string) {
		if _, err := b.session.ChannelMessageSend(sess.ChannelID, "🎙️ **StaffLens:** "+text); err != nil {
			b.log.Warn("posting interviewer line failed",
				"channel_id", sess.ChannelID, "error", err)
		}
	}
}

// Run registers slash commands with the Discord API and blocks until ctx is
// cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.RLock()
	appID := b.session.State.User.ID
	b.mu.RUnlock()

	cmds := b.router.ApplicationCommands()
	if len(cmds) > 0 {
		registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, cmds)
		if err != nil {
			return fmt.Errorf("discord: register commands: %w", err)
		}
		b.mu.Lock()
		b.commands = registered
		b.mu.Unlock()
		b.log.Info("discord commands registered", "count", len(registered))
	}

	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects from Discord and unregisters commands.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.session != nil && len(b.commands) > 0 {
			appID := b.session.State.User.ID
			for _, cmd := range b.commands {
				if err := b.session.ApplicationCommandDelete(appID, b.cfg.GuildID, cmd.ID); err != nil {
					b.log.Warn("deleting command failed", "name", cmd.Name, "error", err)
				}
			}
		}

		if b.session != nil {
			if err := b.session.Close(); err != nil {
				closeErr = fmt.Errorf("discord: close session: %w", err)
			}
		}

		b.log.Info("discord bot closed")
	})
	return closeErr
}
