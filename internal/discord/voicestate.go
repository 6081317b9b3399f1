package discord

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/app"
	"github.com/stafflens/stafflens/internal/report"
)

// connectTimeout bounds the voice join when an interview starts.
const connectTimeout = 30 * time.Second

// handleVoiceState reacts to members joining or leaving voice channels.
// An applicant joining starts an interview; the applicant leaving or moving
// ends it. Everything runs off the gateway goroutine.
func (b *Bot) handleVoiceState(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	b.mu.RLock()
	sessions := b.sessions
	b.mu.RUnlock()
	if sessions == nil || vs.GuildID != b.cfg.GuildID {
		return
	}

	member := vs.Member
	if member == nil {
		member, _ = s.State.Member(vs.GuildID, vs.UserID)
	}
	if member == nil || member.User == nil || member.User.Bot {
		return
	}

	var prevChannel string
	if vs.BeforeUpdate != nil {
		prevChannel = vs.BeforeUpdate.ChannelID
	}

	// Leaving or moving away ends the interview in the channel left behind.
	if prevChannel != "" && prevChannel != vs.ChannelID {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			sessions.HandleApplicantLeave(ctx, prevChannel, vs.UserID)
		}()
	}

	// Joining a new channel starts an interview for applicants.
	if vs.ChannelID == "" || vs.ChannelID == prevChannel {
		return
	}
	if !slices.Contains(member.Roles, b.cfg.ApplicantRoleID) {
		return
	}

	req := app.StartRequest{
		GuildID:       vs.GuildID,
		ChannelID:     vs.ChannelID,
		ChannelName:   b.channelName(s, vs.ChannelID),
		ApplicantID:   vs.UserID,
		ApplicantName: displayName(member),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := sessions.Start(ctx, req); err != nil {
			if !errors.Is(err, app.ErrSessionExists) {
				b.log.Error("starting interview failed",
					"channel_id", req.ChannelID, "applicant", req.ApplicantName, "error", err)
			}
			return
		}

		embed := report.StartEmbed(req.ApplicantName, req.ApplicantID, req.ChannelName)
		if err := b.Poster().PostReport(ctx, embed); err != nil {
			b.log.Warn("posting start notice failed", "error", err)
		}
	}()
}

// channelName resolves a channel's display name, falling back to the ID.
func (b *Bot) channelName(s *discordgo.Session, channelID string) string {
	if ch, err := s.State.Channel(channelID); err == nil && ch.Name != "" {
		return ch.Name
	}
	return channelID
}

// displayName picks the member's server nickname over the account name.
func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}
