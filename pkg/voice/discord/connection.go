package discord

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/pkg/voice"
)

// Compile-time interface assertion.
var _ voice.Connection = (*Connection)(nil)

// maxCaptureBytes caps the capture buffer at roughly five minutes of 48 kHz
// stereo audio so a stuck session cannot grow without bound.
const maxCaptureBytes = 64 << 20

// Connection wraps a discordgo.VoiceConnection and adapts it to the
// [voice.Connection] interface. Incoming Opus packets are demuxed by SSRC,
// decoded to PCM, and — while capture is active — accumulated into
// per-speaker buffers. Audio from bot accounts is discarded.
//
// Connection is safe for concurrent use.
type Connection struct {
	vc      *discordgo.VoiceConnection
	session *discordgo.Session
	guildID string

	capturing atomic.Bool
	capSize   atomic.Int64

	capMu    sync.Mutex
	capBufs  map[uint32][]byte // keyed by SSRC
	capOrder []uint32          // SSRCs in first-heard order

	idMu     sync.RWMutex
	ssrcUser map[uint32]string
	excluded map[string]bool // bot user IDs whose audio is never captured

	done      chan struct{}
	closeOnce sync.Once

	// disconnectVC is called during Disconnect to tear down the voice
	// connection. Defaults to vc.Disconnect; overridden in tests.
	disconnectVC func() error
}

// newConnection initialises a Connection for an already-joined voice channel
// and starts the receive loop.
func newConnection(vc *discordgo.VoiceConnection, session *discordgo.Session, guildID, botUserID string) *Connection {
	c := &Connection{
		vc:           vc,
		session:      session,
		guildID:      guildID,
		capBufs:      make(map[uint32][]byte),
		ssrcUser:     make(map[uint32]string),
		excluded:     make(map[string]bool),
		done:         make(chan struct{}),
		disconnectVC: vc.Disconnect,
	}
	if botUserID != "" {
		c.excluded[botUserID] = true
	}

	// Speaking updates provide the SSRC → user mapping needed to filter out
	// other bots' audio.
	vc.AddHandler(c.handleSpeakingUpdate)

	go c.recvLoop()

	return c
}

// StartCapture implements voice.Connection.
func (c *Connection) StartCapture() error {
	c.capMu.Lock()
	c.capBufs = make(map[uint32][]byte)
	c.capOrder = nil
	c.capMu.Unlock()
	c.capSize.Store(0)
	c.capturing.Store(true)
	return nil
}

// StopCapture implements voice.Connection.
func (c *Connection) StopCapture() error {
	c.capturing.Store(false)
	return nil
}

// CaptureSize implements voice.Connection.
func (c *Connection) CaptureSize() int64 {
	return c.capSize.Load()
}

// TakeCapture drains the capture buffer. Speakers are concatenated in
// first-heard order; within one speaker the audio is chronological.
func (c *Connection) TakeCapture() voice.Track {
	c.capMu.Lock()
	defer c.capMu.Unlock()

	var pcm []byte
	for _, ssrc := range c.capOrder {
		pcm = append(pcm, c.capBufs[ssrc]...)
	}
	c.capBufs = make(map[uint32][]byte)
	c.capOrder = nil
	c.capSize.Store(0)

	return voice.Track{
		PCM:        pcm,
		SampleRate: opusSampleRate,
		Channels:   opusChannels,
	}
}

// Play converts the track to 48 kHz stereo, encodes it to Opus frames, and
// feeds them to the voice connection. discordgo paces transmission at one
// frame per 20 ms, so pushing into OpusSend provides natural backpressure.
func (c *Connection) Play(ctx context.Context, track voice.Track) error {
	enc, err := newOpusEncoder()
	if err != nil {
		return err
	}

	out := voice.Convert(track, voice.Format{SampleRate: opusSampleRate, Channels: opusChannels})

	c.setSpeaking(true)
	defer c.setSpeaking(false)

	pcm := out.PCM
	for len(pcm) > 0 {
		frame := pcm
		if len(frame) > opusFrameBytes {
			frame = frame[:opusFrameBytes]
		}
		pcm = pcm[len(frame):]

		// Pad the trailing partial frame with silence.
		if len(frame) < opusFrameBytes {
			padded := make([]byte, opusFrameBytes)
			copy(padded, frame)
			frame = padded
		}

		data, err := enc.encode(frame)
		if err != nil {
			return err
		}

		select {
		case c.vc.OpusSend <- data:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		}
	}
	return nil
}

// Disconnect cleanly tears down the voice connection and stops the receive
// loop. Safe to call more than once; subsequent calls return nil.
func (c *Connection) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.capturing.Store(false)
		if c.disconnectVC != nil {
			err = c.disconnectVC()
		}
	})
	return err
}

// recvLoop reads Opus packets from the voice connection, demuxes them by
// SSRC, and appends decoded PCM to the capture buffer while capture is
// active.
func (c *Connection) recvLoop() {
	// Each SSRC gets its own decoder to maintain state across frames.
	decoders := make(map[uint32]*opusDecoder)

	for {
		select {
		case <-c.done:
			return
		case pkt, ok := <-c.vc.OpusRecv:
			if !ok {
				return
			}
			if pkt == nil || !c.capturing.Load() {
				continue
			}
			if c.isExcluded(pkt.SSRC) {
				continue
			}
			if c.capSize.Load() >= maxCaptureBytes {
				continue
			}

			dec, exists := decoders[pkt.SSRC]
			if !exists {
				var err error
				dec, err = newOpusDecoder()
				if err != nil {
					slog.Error("discord: failed to create opus decoder", "ssrc", pkt.SSRC, "error", err)
					continue
				}
				decoders[pkt.SSRC] = dec
			}

			pcm, err := dec.decode(pkt.Opus)
			if err != nil {
				slog.Warn("discord: opus decode error", "ssrc", pkt.SSRC, "error", err)
				continue
			}

			c.capMu.Lock()
			if _, seen := c.capBufs[pkt.SSRC]; !seen {
				c.capOrder = append(c.capOrder, pkt.SSRC)
			}
			c.capBufs[pkt.SSRC] = append(c.capBufs[pkt.SSRC], pcm...)
			c.capMu.Unlock()
			c.capSize.Add(int64(len(pcm)))
		}
	}
}

// handleSpeakingUpdate records the SSRC → user mapping and marks bot accounts
// as excluded from capture.
func (c *Connection) handleSpeakingUpdate(_ *discordgo.VoiceConnection, vs *discordgo.VoiceSpeakingUpdate) {
	if vs == nil || vs.UserID == "" {
		return
	}

	c.idMu.Lock()
	c.ssrcUser[uint32(vs.SSRC)] = vs.UserID
	_, known := c.excluded[vs.UserID]
	c.idMu.Unlock()

	if known {
		return
	}

	member, err := c.session.State.Member(c.guildID, vs.UserID)
	if err != nil || member == nil || member.User == nil {
		return
	}
	if member.User.Bot {
		c.idMu.Lock()
		c.excluded[vs.UserID] = true
		c.idMu.Unlock()
	}
}

// isExcluded reports whether the SSRC belongs to a known bot account.
// Unknown SSRCs are captured; Discord never echoes our own audio back, and a
// human speaker's mapping arrives with their first speaking update.
func (c *Connection) isExcluded(ssrc uint32) bool {
	c.idMu.RLock()
	defer c.idMu.RUnlock()
	userID, ok := c.ssrcUser[ssrc]
	if !ok {
		return false
	}
	return c.excluded[userID]
}

// setSpeaking sends a speaking notification to Discord, logging any errors.
func (c *Connection) setSpeaking(b bool) {
	if err := c.vc.Speaking(b); err != nil {
		slog.Warn("discord: speaking notification error", "speaking", b, "error", err)
	}
}
