package interview

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/stafflens/stafflens/internal/config"
	"github.com/stafflens/stafflens/internal/observe"
	"github.com/stafflens/stafflens/internal/resilience"
	"github.com/stafflens/stafflens/pkg/provider/llm"
	"github.com/stafflens/stafflens/pkg/provider/tts"
	"github.com/stafflens/stafflens/pkg/voice"
)

// DisplayFunc posts an interviewer line to a text channel so the interview is
// readable as well as audible.
type DisplayFunc func(ctx context.Context, sess *Session, text string)

// FinalizeFunc runs the end-of-interview pipeline (persist, analyse, report).
type FinalizeFunc func(ctx context.Context, sess *Session)

// Pacing holds the deliberate pauses around scripted lines. Spoken dialogue
// needs breathing room that would only slow tests down, hence the override.
type Pacing struct {
	// Start is the pause after connecting, before the greeting.
	Start time.Duration
	// AfterIntro is the pause between the greeting and the first question lead.
	AfterIntro time.Duration
	// AfterLead is the pause between a lead-in line and the question itself.
	AfterLead time.Duration
	// BeforeFinalize is the pause between the closing line and report work.
	BeforeFinalize time.Duration
}

func defaultPacing() Pacing {
	return Pacing{
		Start:          2 * time.Second,
		AfterIntro:     1500 * time.Millisecond,
		AfterLead:      300 * time.Millisecond,
		BeforeFinalize: time.Second,
	}
}

// Orchestrator drives the conversational interview state machine for one
// session at a time: greeting, listen/accumulate cycles, question advancing,
// and the closing hand-off to the finalizer.
type Orchestrator struct {
	llm      llm.Provider
	tts      tts.Provider
	listener *Listener

	cfgMu sync.RWMutex
	cfg   config.InterviewConfig

	log      *slog.Logger
	metrics  *observe.Metrics
	display  DisplayFunc
	finalize FinalizeFunc
	pacing   Pacing
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithDisplay sets the text-channel mirror for spoken lines.
func WithDisplay(fn DisplayFunc) Option {
	return func(o *Orchestrator) { o.display = fn }
}

// WithFinalizer sets the end-of-interview pipeline.
func WithFinalizer(fn FinalizeFunc) Option {
	return func(o *Orchestrator) { o.finalize = fn }
}

// WithPacing overrides the scripted-line pauses.
func WithPacing(p Pacing) Option {
	return func(o *Orchestrator) { o.pacing = p }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(llmProvider llm.Provider, ttsProvider tts.Provider, listener *Listener, cfg config.InterviewConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		llm:      llmProvider,
		tts:      ttsProvider,
		listener: listener,
		cfg:      cfg,
		log:      slog.Default(),
		pacing:   defaultPacing(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UpdateConfig replaces the conversation tuning. The system prompt is built
// at session start, so prompt changes reach the next interview; timing knobs
// reach the next listen cycle.
func (o *Orchestrator) UpdateConfig(cfg config.InterviewConfig) {
	o.cfgMu.Lock()
	o.cfg = cfg
	o.cfgMu.Unlock()
	o.listener.UpdateConfig(cfg)
}

func (o *Orchestrator) config() config.InterviewConfig {
	o.cfgMu.RLock()
	defer o.cfgMu.RUnlock()
	return o.cfg
}

// Run executes the interview conversation until it completes, the session is
// deactivated, or ctx is cancelled. It owns the session's goroutine: all
// speaking and listening happens here, and the finalizer is invoked before
// returning when the interview ended while still active.
func (o *Orchestrator) Run(ctx context.Context, sess *Session) {
	log := o.log.With("channel_id", sess.ChannelID, "applicant", sess.ApplicantName)

	systemPrompt, err := SystemPrompt(o.config())
	if err != nil {
		log.Error("building system prompt failed", "error", err)
		return
	}
	sess.AppendHistory(llm.Message{Role: llm.RoleSystem, Content: systemPrompt})

	if !o.sleep(ctx, o.pacing.Start) {
		return
	}

	o.speak(ctx, sess, IntroMessage(sess.ApplicantName), true)
	if !o.sleep(ctx, o.pacing.AfterIntro) {
		return
	}

	o.speak(ctx, sess, firstQuestionLead, false)
	if !o.sleep(ctx, o.pacing.AfterLead) {
		return
	}

	if first := o.nextReply(ctx, sess, true); first != "" {
		sess.incrQuestionCount()
		o.recordQuestion(ctx)
		o.speak(ctx, sess, first, true)
	}

	o.converse(ctx, sess, log)

	if sess.Active() && ctx.Err() == nil {
		log.Info("interview complete", "questions", sess.QuestionCount(), "transcript_lines", sess.TranscriptLen())
		o.speak(ctx, sess, ClosingMessage(sess.ApplicantName), true)
		o.sleep(ctx, o.pacing.BeforeFinalize)
		if o.finalize != nil {
			o.finalize(ctx, sess)
		}
	}
}

// converse runs the listen/accumulate/advance loop.
func (o *Orchestrator) converse(ctx context.Context, sess *Session, log *slog.Logger) {
	var accumulated string
	reminderGiven := false

	for sess.Active() && !sess.Complete() {
		if ctx.Err() != nil {
			return
		}

		utterance, err := o.listener.RecordUntilSilence(ctx, sess, false)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("recording failed", "error", err)
			o.sleep(ctx, o.config().PollInterval)
			continue
		}
		if !sess.Active() {
			return
		}

		if utterance == "" {
			// Silence timeout. Remind them of the protocol at most once per
			// gap; prompt gently if they have said nothing at all so far.
			if accumulated != "" && !reminderGiven {
				o.speak(ctx, sess, silenceReminder, false)
				reminderGiven = true
			} else if accumulated == "" && sess.HistoryLen() < 4 {
				o.speak(ctx, sess, patiencePrompt, false)
			}
			continue
		}

		if accumulated != "" {
			accumulated += " " + utterance
		} else {
			accumulated = utterance
		}
		reminderGiven = false

		if !ContainsAdvanceTrigger(utterance) {
			// Still their turn; keep listening and accumulating.
			continue
		}

		answer := StripAdvanceTrigger(accumulated)
		accumulated = ""
		if answer == "" {
			continue
		}

		sess.AppendHistory(llm.Message{Role: llm.RoleUser, Content: answer})
		sess.AppendTranscript("[" + sess.ApplicantName + "]: " + answer)
		log.Info("answer received", "length", len(answer))

		reply := o.nextReply(ctx, sess, false)
		if reply == "" {
			continue
		}

		if strings.Contains(reply, CompleteMarker) {
			reply = strings.TrimSpace(strings.ReplaceAll(reply, CompleteMarker, ""))
			if min := o.config().MinQuestions; sess.QuestionCount() >= min {
				sess.MarkComplete()
				log.Info("model signalled completion", "questions", sess.QuestionCount())
			} else {
				log.Warn("model tried to end early, continuing", "questions", sess.QuestionCount(), "min", min)
			}
		}

		if !sess.Complete() {
			sess.incrQuestionCount()
			o.recordQuestion(ctx)
			o.speak(ctx, sess, transitionLine, false)
			o.sleep(ctx, o.pacing.AfterLead)
		}
		o.speak(ctx, sess, reply, true)
	}
}

// nextReply sends the full conversation history to the model and returns its
// reply, already appended to the history. Transient backend failures are
// retried; a turn that still fails is dropped with an empty result so the
// conversation can continue.
func (o *Orchestrator) nextReply(ctx context.Context, sess *Session, initial bool) string {
	messages := sess.History()
	if initial {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: initialNudge(sess.ApplicantName)})
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config().DialogueTimeout)
	defer cancel()

	start := time.Now()
	resp, err := resilience.RetryWithResult(callCtx, resilience.RetryConfig{Name: "dialogue"}, func() (*llm.CompletionResponse, error) {
		return o.llm.Complete(callCtx, llm.CompletionRequest{
			Messages:    messages,
			Temperature: 0.7,
			MaxTokens:   200,
		})
	})
	if o.metrics != nil {
		o.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		o.log.Error("dialogue completion failed", "channel_id", sess.ChannelID, "error", err)
		return ""
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return ""
	}
	sess.AppendHistory(llm.Message{Role: llm.RoleAssistant, Content: reply})
	return reply
}

// speak mirrors the line to the text channel, appends it to the transcript
// when asked, and plays the synthesised audio. The speaking flag covers the
// whole synthesis-and-playback span and is always cleared, so a failed
// synthesis can never wedge the listener.
func (o *Orchestrator) speak(ctx context.Context, sess *Session, text string, addToTranscript bool) {
	if text == "" {
		return
	}

	displayText := CleanForDisplay(text)
	if addToTranscript {
		sess.AppendTranscript("[" + botName + "]: " + displayText)
	}
	if o.display != nil {
		o.display(ctx, sess, displayText)
	}

	speechText := CleanForSpeech(text)
	if speechText == "" {
		return
	}

	sess.setSpeaking(true)
	defer sess.setSpeaking(false)

	start := time.Now()
	clip, err := o.tts.Synthesize(ctx, speechText)
	if o.metrics != nil {
		o.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		o.log.Error("synthesis failed", "channel_id", sess.ChannelID, "error", err)
		return
	}

	track := voice.Track{PCM: clip.PCM, SampleRate: clip.SampleRate, Channels: clip.Channels}
	if err := sess.Conn.Play(ctx, track); err != nil {
		o.log.Error("playback failed", "channel_id", sess.ChannelID, "error", err)
	}
}

// sleep waits for d unless ctx is done first. Reports whether the full wait
// elapsed.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (o *Orchestrator) recordQuestion(ctx context.Context) {
	if o.metrics != nil {
		o.metrics.RecordQuestionAsked(ctx)
	}
}
