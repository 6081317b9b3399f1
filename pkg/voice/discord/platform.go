// Package discord provides a [voice.Platform] implementation backed by
// Discord voice channels via the bwmarrin/discordgo library. It bridges
// Discord's Opus-based voice transport with the PCM capture buffer and
// playback operations the interview loop works with.
//
// The platform requires an active *discordgo.Session (owned by the bot layer)
// and a guild ID. Each call to [Platform.Connect] joins the specified voice
// channel and returns a [Connection] that accumulates decoded participant
// audio while capture is active.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/pkg/voice"
)

// Compile-time interface assertion.
var _ voice.Platform = (*Platform)(nil)

// Platform implements [voice.Platform] using discordgo voice connections.
// It is safe for concurrent use.
type Platform struct {
	session *discordgo.Session
	guildID string
}

// New creates a new Discord Platform for the given session and guild.
func New(session *discordgo.Session, guildID string) *Platform {
	return &Platform{
		session: session,
		guildID: guildID,
	}
}

// Connect joins the voice channel identified by channelID and returns an
// active [voice.Connection]. The supplied ctx governs the connection-setup
// phase only; once returned, the Connection lives until Disconnect.
func (p *Platform) Connect(ctx context.Context, channelID string) (voice.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// mute=false (we send audio), deaf=false (we receive audio).
	vc, err := p.session.ChannelVoiceJoin(p.guildID, channelID, false, false)
	if err != nil {
		return nil, fmt.Errorf("discord: join voice channel %q: %w", channelID, err)
	}

	botID := ""
	if p.session.State != nil && p.session.State.User != nil {
		botID = p.session.State.User.ID
	}

	return newConnection(vc, p.session, p.guildID, botID), nil
}
