package app

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/stafflens/stafflens/internal/interview"
	"github.com/stafflens/stafflens/internal/observe"
	"github.com/stafflens/stafflens/pkg/voice"
)

// ErrSessionExists is returned by Start when the channel already has an
// interview running.
var ErrSessionExists = errors.New("app: session already active in channel")

// ErrNoSession is returned when a command targets a channel without an
// active interview.
var ErrNoSession = errors.New("app: no active session in channel")

// Runner executes one interview conversation until it completes or the
// session is deactivated.
type Runner interface {
	Run(ctx context.Context, sess *interview.Session)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, sess *interview.Session)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, sess *interview.Session) { f(ctx, sess) }

// StartRequest identifies the applicant and channel for a new interview.
type StartRequest struct {
	GuildID       string
	ChannelID     string
	ChannelName   string
	ApplicantID   string
	ApplicantName string
}

// SessionInfo is a read-only snapshot of one active interview.
type SessionInfo struct {
	ChannelID     string
	ChannelName   string
	ApplicantID   string
	ApplicantName string
	StartedAt     time.Time
	Questions     int
}

// sessionEntry pairs a session with its goroutine's cancel handle.
type sessionEntry struct {
	sess   *interview.Session
	cancel context.CancelFunc
	done   chan struct{}

	// endReason is set by the termination trigger before cancelling, so the
	// teardown path can label the metrics. Guarded by the manager mutex.
	endReason string
}

// SessionManager owns the table of active interviews, one per voice channel.
// Every termination trigger (natural completion, staff command, applicant
// leaving) converges on the same finalize-and-teardown path, and teardown is
// idempotent. All exported methods are safe for concurrent use.
type SessionManager struct {
	platform voice.Platform
	runner   Runner
	finalize interview.FinalizeFunc
	metrics  *observe.Metrics
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	wg sync.WaitGroup
}

// SessionManagerConfig holds the dependencies for a [SessionManager].
// Metrics may be nil; Logger defaults to slog.Default.
type SessionManagerConfig struct {
	Platform voice.Platform
	Runner   Runner
	Finalize interview.FinalizeFunc
	Metrics  *observe.Metrics
	Logger   *slog.Logger
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &SessionManager{
		platform: cfg.Platform,
		runner:   cfg.Runner,
		finalize: cfg.Finalize,
		metrics:  cfg.Metrics,
		log:      log,
		sessions: make(map[string]*sessionEntry),
	}
}

// Start connects to the applicant's voice channel and launches the interview
// goroutine. Returns ErrSessionExists when the channel already has one; the
// caller treats that as a no-op.
func (m *SessionManager) Start(ctx context.Context, req StartRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[req.ChannelID]; ok {
		m.log.Info("interview already running in channel",
			"channel_id", req.ChannelID,
			"current_applicant", existing.sess.ApplicantName,
			"joining_applicant", req.ApplicantName,
		)
		return ErrSessionExists
	}

	conn, err := m.platform.Connect(ctx, req.ChannelID)
	if err != nil {
		m.log.Error("voice connect failed",
			"channel_id", req.ChannelID, "applicant", req.ApplicantName, "error", err)
		if conn != nil {
			_ = conn.Disconnect()
		}
		return err
	}

	sess := interview.NewSession(req.GuildID, req.ChannelID, req.ChannelName,
		req.ApplicantID, req.ApplicantName, conn)

	sessCtx, cancel := context.WithCancel(context.Background())
	entry := &sessionEntry{sess: sess, cancel: cancel, done: make(chan struct{})}
	m.sessions[req.ChannelID] = entry

	if m.metrics != nil {
		m.metrics.RecordInterviewStarted(ctx)
	}
	m.log.Info("interview session started",
		"channel_id", req.ChannelID,
		"channel", req.ChannelName,
		"applicant", req.ApplicantName,
		"applicant_id", req.ApplicantID,
	)

	m.wg.Add(1)
	go m.run(sessCtx, entry)

	return nil
}

// run owns one interview goroutine: dialogue loop, then teardown.
func (m *SessionManager) run(ctx context.Context, entry *sessionEntry) {
	defer m.wg.Done()
	defer close(entry.done)
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("interview goroutine panicked",
				"channel_id", entry.sess.ChannelID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			m.teardown(entry, "panic")
		}
	}()

	m.runner.Run(ctx, entry.sess)

	m.mu.Lock()
	reason := entry.endReason
	m.mu.Unlock()
	if reason == "" {
		if entry.sess.Complete() {
			reason = "completed"
		} else {
			reason = "abandoned"
		}
	}
	m.teardown(entry, reason)
}

// End terminates the channel's interview on staff request and produces the
// report from whatever was said so far.
func (m *SessionManager) End(ctx context.Context, channelID string) error {
	entry, err := m.takeover(channelID, "command")
	if err != nil {
		return err
	}
	m.finishEarly(ctx, entry)
	return nil
}

// HandleApplicantLeave terminates the channel's interview when its applicant
// leaves the voice channel. Other users coming and going are ignored. A report
// is still produced when enough was said; the finalizer discards false starts.
func (m *SessionManager) HandleApplicantLeave(ctx context.Context, channelID, userID string) {
	m.mu.Lock()
	entry, ok := m.sessions[channelID]
	if !ok || entry.sess.ApplicantID != userID {
		m.mu.Unlock()
		return
	}
	entry.endReason = "applicant_left"
	m.mu.Unlock()

	m.log.Info("applicant left voice channel mid-interview",
		"channel_id", channelID, "applicant", entry.sess.ApplicantName)
	m.finishEarly(ctx, entry)
}

// takeover marks the entry's termination reason, or reports ErrNoSession.
func (m *SessionManager) takeover(channelID, reason string) (*sessionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[channelID]
	if !ok {
		return nil, ErrNoSession
	}
	entry.endReason = reason
	return entry, nil
}

// finishEarly drives an externally triggered termination: stop the dialogue
// loop, finalize, cancel the goroutine, and wait for it to tear down.
func (m *SessionManager) finishEarly(ctx context.Context, entry *sessionEntry) {
	// Deactivate first so the dialogue loop exits without speaking a closing
	// line into an interview that staff or the applicant already ended.
	entry.sess.End()

	// The finalizer's first-caller-wins guard makes this safe against the
	// orchestrator finalizing concurrently.
	if m.finalize != nil {
		m.finalize(ctx, entry.sess)
	}

	entry.cancel()
	select {
	case <-entry.done:
	case <-ctx.Done():
	}
}

// Active reports whether the channel has a running interview.
func (m *SessionManager) Active(channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[channelID]
	return ok
}

// Sessions returns a snapshot of all active interviews, ordered by start time.
func (m *SessionManager) Sessions() []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, entry := range m.sessions {
		infos = append(infos, SessionInfo{
			ChannelID:     entry.sess.ChannelID,
			ChannelName:   entry.sess.ChannelName,
			ApplicantID:   entry.sess.ApplicantID,
			ApplicantName: entry.sess.ApplicantName,
			StartedAt:     entry.sess.StartedAt,
			Questions:     entry.sess.QuestionCount(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].StartedAt.Before(infos[j].StartedAt) })
	return infos
}

// teardown releases the session's resources. Only the caller that removes the
// entry from the table runs the release steps, so racing triggers cannot
// disconnect twice or double-count metrics.
func (m *SessionManager) teardown(entry *sessionEntry, reason string) {
	m.mu.Lock()
	current, ok := m.sessions[entry.sess.ChannelID]
	if !ok || current != entry {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, entry.sess.ChannelID)
	m.mu.Unlock()

	entry.sess.Deactivate()
	entry.cancel()

	if conn := entry.sess.Conn; conn != nil {
		_ = conn.StopCapture()
		if err := conn.Disconnect(); err != nil {
			m.log.Warn("voice disconnect failed",
				"channel_id", entry.sess.ChannelID, "error", err)
		}
	}

	if m.metrics != nil {
		m.metrics.RecordInterviewEnded(context.Background(), reason)
	}
	m.log.Info("interview session ended",
		"channel_id", entry.sess.ChannelID,
		"applicant", entry.sess.ApplicantName,
		"reason", reason,
		"questions", entry.sess.QuestionCount(),
	)
}

// Shutdown ends every active interview without producing reports and waits
// for the session goroutines to finish, up to ctx's deadline.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for _, entry := range m.sessions {
		entry.endReason = "shutdown"
		entries = append(entries, entry)
	}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.sess.Deactivate()
		entry.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
