// Package mock provides scriptable test doubles for the voice.Platform and
// voice.Connection interfaces.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/stafflens/stafflens/pkg/voice"
)

// Connection is a mock implementation of voice.Connection.
//
// CaptureSize returns the SizeScript entries in order, repeating the last one
// once exhausted, which lets tests simulate audio growth followed by silence.
type Connection struct {
	mu sync.Mutex

	// SizeScript is the sequence of values returned by successive CaptureSize
	// calls. Empty means CaptureSize always returns 0.
	SizeScript []int64
	sizeIdx    int

	// Capture is returned by TakeCapture.
	Capture voice.Track

	// PlayDelay makes Play block for the given duration (honouring ctx).
	PlayDelay time.Duration

	// Error injection.
	StartErr      error
	StopErr       error
	PlayErr       error
	DisconnectErr error

	// Call records (read after test).
	CallCountStartCapture int
	CallCountStopCapture  int
	CallCountTakeCapture  int
	CallCountDisconnect   int
	PlayCalls             []voice.Track

	capturing bool
}

// Compile-time interface assertion.
var _ voice.Connection = (*Connection)(nil)

// StartCapture implements voice.Connection.
func (c *Connection) StartCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountStartCapture++
	if c.StartErr != nil {
		return c.StartErr
	}
	c.capturing = true
	return nil
}

// StopCapture implements voice.Connection.
func (c *Connection) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountStopCapture++
	if c.StopErr != nil {
		return c.StopErr
	}
	c.capturing = false
	return nil
}

// Capturing reports whether capture is currently active.
func (c *Connection) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

// CaptureSize returns the next scripted size value.
func (c *Connection) CaptureSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.SizeScript) == 0 {
		return 0
	}
	idx := c.sizeIdx
	if idx >= len(c.SizeScript) {
		idx = len(c.SizeScript) - 1
	} else {
		c.sizeIdx++
	}
	return c.SizeScript[idx]
}

// TakeCapture implements voice.Connection.
func (c *Connection) TakeCapture() voice.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountTakeCapture++
	return c.Capture
}

// Play records the track and optionally blocks for PlayDelay.
func (c *Connection) Play(ctx context.Context, track voice.Track) error {
	c.mu.Lock()
	c.PlayCalls = append(c.PlayCalls, track)
	err := c.PlayErr
	delay := c.PlayDelay
	c.mu.Unlock()

	if err != nil {
		return err
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Disconnect implements voice.Connection.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountDisconnect++
	return c.DisconnectErr
}

// Platform is a mock implementation of voice.Platform.
type Platform struct {
	mu sync.Mutex

	// Conns maps channel IDs to pre-configured connections. Channels without
	// an entry receive a fresh zero-value Connection.
	Conns map[string]*Connection

	// ConnectErr, if non-nil, is returned by every Connect call.
	ConnectErr error

	// ConnectCalls records the channel IDs passed to Connect in order.
	ConnectCalls []string
}

// Compile-time interface assertion.
var _ voice.Platform = (*Platform)(nil)

// Connect records the call and returns the connection configured for the
// channel, creating one if necessary.
func (p *Platform) Connect(_ context.Context, channelID string) (voice.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ConnectCalls = append(p.ConnectCalls, channelID)
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if p.Conns == nil {
		p.Conns = make(map[string]*Connection)
	}
	conn, ok := p.Conns[channelID]
	if !ok {
		conn = &Connection{}
		p.Conns[channelID] = conn
	}
	return conn, nil
}

// Conn returns the connection for channelID, if any.
func (p *Platform) Conn(channelID string) *Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Conns[channelID]
}
