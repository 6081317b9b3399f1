// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify the requests the interview loop sends
// and to feed controlled responses without a live backend. All fields are safe
// to set before calling any method; the mock itself synchronises call records.
package mock

import (
	"context"
	"sync"

	"github.com/stafflens/stafflens/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
//
// Responses are served from Responses in order; once exhausted, the last entry
// repeats. Set Err to make every call fail instead.
type Provider struct {
	mu sync.Mutex

	// Responses is the sequence of reply texts returned by successive Complete
	// calls. Empty means every call returns an empty response.
	Responses []string

	// Err, if non-nil, is returned by every Complete call.
	Err error

	// CompleteCalls records every invocation of Complete in order.
	CompleteCalls []CompleteCall
}

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// Complete records the call and returns the next configured response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.CompleteCalls)
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})

	if p.Err != nil {
		return nil, p.Err
	}

	content := ""
	if len(p.Responses) > 0 {
		if n >= len(p.Responses) {
			n = len(p.Responses) - 1
		}
		content = p.Responses[n]
	}
	return &llm.CompletionResponse{Content: content}, nil
}

// CallCount returns the number of Complete invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.CompleteCalls)
}
