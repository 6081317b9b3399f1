// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/stafflens/stafflens/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
}

// Provider is a mock implementation of tts.Provider.
//
// Every call returns Clip (or a small silent clip when nil). Set Err to make
// every call fail instead.
type Provider struct {
	mu sync.Mutex

	// Clip is returned by every Synthesize call. When nil, a short silent
	// 24 kHz mono clip is returned.
	Clip *tts.Clip

	// Err, if non-nil, is returned by every Synthesize call.
	Err error

	// SynthesizeCalls records every invocation of Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Synthesize records the call and returns the configured clip.
func (p *Provider) Synthesize(ctx context.Context, text string) (*tts.Clip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text})

	if p.Err != nil {
		return nil, p.Err
	}
	if p.Clip != nil {
		return p.Clip, nil
	}
	return &tts.Clip{PCM: make([]byte, 480), SampleRate: 24000, Channels: 1}, nil
}

// SpokenTexts returns the texts passed to Synthesize so far, in order.
func (p *Provider) SpokenTexts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.SynthesizeCalls))
	for i, c := range p.SynthesizeCalls {
		out[i] = c.Text
	}
	return out
}
