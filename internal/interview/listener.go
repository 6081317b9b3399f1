package interview

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/stafflens/stafflens/internal/config"
	"github.com/stafflens/stafflens/internal/observe"
	"github.com/stafflens/stafflens/pkg/provider/stt"
)

// Listener records one applicant utterance from the session's voice
// connection and transcribes it.
//
// Turn segmentation is driven purely by audio liveness: the capture buffer
// size is polled and any growth counts as speech. Once speech has been heard,
// a buffer that stays flat for the silence window ends the turn. When no
// speech arrives at all, the response timeout ends the turn instead.
type Listener struct {
	stt     stt.Provider
	metrics *observe.Metrics
	log     *slog.Logger

	cfgMu sync.RWMutex
	cfg   config.InterviewConfig
}

// NewListener creates a Listener. metrics may be nil to disable recording.
func NewListener(provider stt.Provider, cfg config.InterviewConfig, metrics *observe.Metrics, log *slog.Logger) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{stt: provider, cfg: cfg, metrics: metrics, log: log}
}

// UpdateConfig replaces the timing knobs. Takes effect on the next turn.
func (l *Listener) UpdateConfig(cfg config.InterviewConfig) {
	l.cfgMu.Lock()
	l.cfg = cfg
	l.cfgMu.Unlock()
}

// RecordUntilSilence captures audio until the applicant finishes a turn and
// returns the trimmed transcript. shortMode swaps the response timeout for
// the shorter confirmation variant; the silence window is unchanged.
//
// An empty string with a nil error means no usable speech: nothing was heard
// before the timeout, the capture came back empty, or transcription failed.
// Transcription failures are deliberately soft so a flaky STT backend
// degrades a single turn instead of killing the session. The returned error
// is reserved for context cancellation and capture-start failures.
func (l *Listener) RecordUntilSilence(ctx context.Context, sess *Session, shortMode bool) (string, error) {
	if sess.Conn == nil || sess.Speaking() {
		return "", nil
	}

	l.cfgMu.RLock()
	cfg := l.cfg
	l.cfgMu.RUnlock()

	responseTimeout := cfg.ResponseTimeout
	if shortMode {
		responseTimeout = cfg.ShortResponseTimeout
	}

	if err := sess.Conn.StartCapture(); err != nil {
		return "", err
	}
	defer sess.Conn.StopCapture()

	var (
		lastSize     int64
		silenceStart time.Time
		heardSpeech  bool
	)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

poll:
	for sess.Active() {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		size := sess.Conn.CaptureSize()
		if size > lastSize {
			// Audio is arriving; any running silence timer resets.
			heardSpeech = true
			lastSize = size
			silenceStart = time.Time{}
			continue
		}

		if silenceStart.IsZero() {
			silenceStart = time.Now()
			continue
		}
		gap := time.Since(silenceStart)
		if heardSpeech {
			if gap >= cfg.SilenceWindow {
				break poll
			}
		} else if gap >= responseTimeout {
			l.log.Debug("no speech before timeout", "channel_id", sess.ChannelID, "timeout", responseTimeout)
			break poll
		}
	}

	if err := sess.Conn.StopCapture(); err != nil {
		l.log.Warn("stop capture failed", "channel_id", sess.ChannelID, "error", err)
	}

	// Give in-flight packets time to land before draining the buffer.
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(cfg.FlushWait):
	}

	if !heardSpeech {
		return "", nil
	}

	track := sess.Conn.TakeCapture()
	if len(track.PCM) == 0 {
		return "", nil
	}

	rec := stt.Recording{
		PCM:        track.PCM,
		SampleRate: track.SampleRate,
		Channels:   track.Channels,
	}

	start := time.Now()
	transcript, err := l.stt.Transcribe(ctx, rec)
	if l.metrics != nil {
		l.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		l.log.Warn("transcription failed, dropping turn",
			"channel_id", sess.ChannelID,
			"audio_duration", rec.Duration(),
			"error", err)
		return "", nil
	}

	return strings.TrimSpace(transcript.Text), nil
}
