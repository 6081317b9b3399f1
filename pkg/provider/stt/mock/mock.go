// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/stafflens/stafflens/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Rec is the recording passed to Transcribe.
	Rec stt.Recording
}

// Provider is a mock implementation of stt.Provider.
//
// Texts are served in order across successive calls; once exhausted, the last
// entry repeats. Set Err to make every call fail instead.
type Provider struct {
	mu sync.Mutex

	// Texts is the sequence of transcripts returned by successive calls.
	Texts []string

	// Err, if non-nil, is returned by every Transcribe call.
	Err error

	// TranscribeCalls records every invocation of Transcribe in order.
	TranscribeCalls []TranscribeCall
}

// Compile-time interface assertion.
var _ stt.Provider = (*Provider)(nil)

// Transcribe records the call and returns the next configured text.
func (p *Provider) Transcribe(ctx context.Context, rec stt.Recording) (*stt.Transcript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.TranscribeCalls)
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Rec: rec})

	if p.Err != nil {
		return nil, p.Err
	}

	text := ""
	if len(p.Texts) > 0 {
		if n >= len(p.Texts) {
			n = len(p.Texts) - 1
		}
		text = p.Texts[n]
	}
	return &stt.Transcript{Text: text}, nil
}

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranscribeCalls)
}
