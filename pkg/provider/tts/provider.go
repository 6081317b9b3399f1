// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs or a local
// Coqui server) behind a single batch operation: the orchestrator hands over
// one complete interviewer line and receives one finished audio clip. The
// interview loop never overlaps playback with capture, so streaming synthesis
// would buy nothing here.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"time"
)

// Clip is one synthesised utterance as raw 16-bit signed little-endian PCM.
type Clip struct {
	// PCM is the interleaved sample data.
	PCM []byte

	// SampleRate is the sample rate in Hz.
	SampleRate int

	// Channels is the number of interleaved channels.
	Channels int
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	bytesPerSec := c.SampleRate * c.Channels * 2
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(len(c.PCM)) * time.Second / time.Duration(bytesPerSec)
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts text into one audio clip using the provider's
	// configured voice. Returns an error if synthesis fails or ctx is
	// cancelled first.
	Synthesize(ctx context.Context, text string) (*Clip, error)
}
