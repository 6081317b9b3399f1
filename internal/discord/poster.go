package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/report"
)

// Compile-time interface assertion.
var _ report.Poster = (*ReportPoster)(nil)

// ReportPoster delivers interview reports and notices to the staff report
// channel.
type ReportPoster struct {
	session   *discordgo.Session
	channelID string
}

// NewReportPoster creates a ReportPoster targeting channelID.
func NewReportPoster(session *discordgo.Session, channelID string) *ReportPoster {
	return &ReportPoster{session: session, channelID: channelID}
}

// PostReport implements report.Poster.
func (p *ReportPoster) PostReport(_ context.Context, embed *discordgo.MessageEmbed) error {
	if _, err := p.session.ChannelMessageSendEmbed(p.channelID, embed); err != nil {
		return fmt.Errorf("discord: post report: %w", err)
	}
	return nil
}

// PostNotice implements report.Poster.
func (p *ReportPoster) PostNotice(_ context.Context, text string) error {
	if _, err := p.session.ChannelMessageSend(p.channelID, text); err != nil {
		return fmt.Errorf("discord: post notice: %w", err)
	}
	return nil
}
