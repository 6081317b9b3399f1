package interview

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stafflens/stafflens/pkg/provider/llm"
	"github.com/stafflens/stafflens/pkg/voice"
)

// Session holds the state of one live interview: the voice connection, the
// conversation history sent to the model, the transcript assembled for
// analysis, and the lifecycle flags shared between the orchestrator goroutine
// and the outside world (commands, voice-state events).
//
// The flags are atomics because they are flipped from other goroutines; the
// history and transcript are guarded by a mutex and only ever copied out.
type Session struct {
	GuildID       string
	ChannelID     string
	ChannelName   string
	ApplicantID   string
	ApplicantName string
	StartedAt     time.Time

	// Conn is the live voice connection. Set once at session start.
	Conn voice.Connection

	active     atomic.Bool
	speaking   atomic.Bool
	complete   atomic.Bool
	reportSent atomic.Bool

	mu            sync.Mutex
	history       []llm.Message
	transcript    []string
	questionCount int
}

// NewSession creates an active session for the given channel and applicant.
func NewSession(guildID, channelID, channelName, applicantID, applicantName string, conn voice.Connection) *Session {
	s := &Session{
		GuildID:       guildID,
		ChannelID:     channelID,
		ChannelName:   channelName,
		ApplicantID:   applicantID,
		ApplicantName: applicantName,
		StartedAt:     time.Now().UTC(),
		Conn:          conn,
	}
	s.active.Store(true)
	return s
}

// Active reports whether the session is still running. Every wait loop in the
// conversation re-checks this between iterations.
func (s *Session) Active() bool { return s.active.Load() }

// Deactivate marks the session as no longer running. Idempotent.
func (s *Session) Deactivate() { s.active.Store(false) }

// Speaking reports whether the bot is currently synthesising or playing
// audio. The listener refuses to capture while this is set so the bot never
// transcribes itself.
func (s *Session) Speaking() bool { return s.speaking.Load() }

func (s *Session) setSpeaking(v bool) { s.speaking.Store(v) }

// Complete reports whether the interview reached its natural end.
func (s *Session) Complete() bool { return s.complete.Load() }

// MarkComplete records that the interview finished. Idempotent.
func (s *Session) MarkComplete() { s.complete.Store(true) }

// End terminates the session on request (staff command). The conversation
// loop observes the flags on its next iteration and proceeds to finalise.
func (s *Session) End() {
	s.MarkComplete()
	s.Deactivate()
}

// TryMarkReportSent flips the report-sent flag and reports whether this
// caller won. Exactly one caller ever receives true, which is what keeps
// concurrent termination paths from producing duplicate reports.
func (s *Session) TryMarkReportSent() bool {
	return s.reportSent.CompareAndSwap(false, true)
}

// AppendHistory adds a message to the conversation history.
func (s *Session) AppendHistory(msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
}

// History returns a copy of the full conversation history.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// HistoryLen returns the number of messages in the conversation history.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// AppendTranscript adds one speaker-labelled line to the transcript.
func (s *Session) AppendTranscript(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, line)
}

// TranscriptLen returns the number of transcript lines so far.
func (s *Session) TranscriptLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcript)
}

// Transcript returns the transcript as a single newline-joined string.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.transcript, "\n")
}

// QuestionCount returns the number of questions asked so far.
func (s *Session) QuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionCount
}

func (s *Session) incrQuestionCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionCount++
}
