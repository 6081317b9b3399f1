// Package voice defines the interfaces and types for voice-channel
// connectivity.
//
// The two primary abstractions are:
//
//   - [Platform] — joins a voice channel and returns a [Connection].
//   - [Connection] — an active session on that channel, exposing a capture
//     buffer for participant audio and a blocking playback operation.
//
// The capture model is deliberately poll-based: the interview listener starts
// capture, watches [Connection.CaptureSize] grow as participants speak, and
// drains the combined audio with [Connection.TakeCapture] once a silence gap
// ends the turn. Audio originating from bot accounts (including this bot's
// own playback) is never counted or captured.
//
// Implementations of these interfaces live in platform-specific adapter
// packages (e.g., voice/discord). This package lives under pkg/ because
// external platform adapters are expected to implement [Platform].
package voice

import (
	"context"
	"time"
)

// Track is a contiguous run of raw 16-bit signed little-endian PCM audio.
type Track struct {
	// PCM is the interleaved sample data.
	PCM []byte

	// SampleRate in Hz (48000 for Discord).
	SampleRate int

	// Channels: 1 for mono, 2 for stereo.
	Channels int
}

// Duration returns the playback length of the track.
func (t Track) Duration() time.Duration {
	bytesPerSec := t.SampleRate * t.Channels * 2
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(len(t.PCM)) * time.Second / time.Duration(bytesPerSec)
}

// Connection represents an active session on a voice channel.
//
// A Connection is obtained from [Platform.Connect] and remains valid until
// [Connection.Disconnect] is called. Implementations must be safe for
// concurrent use.
type Connection interface {
	// StartCapture clears the capture buffer and begins accumulating decoded
	// participant audio. Audio from bot accounts is excluded.
	StartCapture() error

	// StopCapture stops accumulating audio. The buffer contents remain
	// available to TakeCapture. Safe to call when capture is not active.
	StopCapture() error

	// CaptureSize returns the total number of PCM bytes accumulated since the
	// last StartCapture. It only ever grows while capture is active and is
	// cheap enough to poll at a few hundred milliseconds.
	CaptureSize() int64

	// TakeCapture drains the capture buffer and returns the combined audio of
	// all non-bot participants. The returned track is empty if nothing was
	// captured.
	TakeCapture() Track

	// Play synthesises the track to the channel and blocks until playback
	// finishes, ctx is cancelled, or the connection closes. The track is
	// converted to the platform's native format as needed.
	Play(ctx context.Context, track Track) error

	// Disconnect cleanly tears down the connection and stops all background
	// goroutines. Safe to call more than once; subsequent calls return nil.
	Disconnect() error
}

// Platform is the entry point for a voice-channel provider.
//
// Implementations wrap provider-specific SDKs and must be safe for concurrent
// use; one session per channel may be connected at a time, across any number
// of channels.
type Platform interface {
	// Connect joins the voice channel identified by channelID and returns an
	// active [Connection]. The supplied ctx governs the connection attempt
	// only; once connected, the Connection lives until Disconnect.
	Connect(ctx context.Context, channelID string) (Connection, error)
}
