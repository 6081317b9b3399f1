package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stafflens/stafflens/internal/config"
	sttmock "github.com/stafflens/stafflens/pkg/provider/stt/mock"
	"github.com/stafflens/stafflens/pkg/voice"
	voicemock "github.com/stafflens/stafflens/pkg/voice/mock"
)

// fastInterviewConfig returns timings scaled down to keep tests quick while
// preserving the ordering constraints (silence window < timeouts).
func fastInterviewConfig() config.InterviewConfig {
	return config.InterviewConfig{
		PollInterval:         time.Millisecond,
		SilenceWindow:        5 * time.Millisecond,
		ResponseTimeout:      40 * time.Millisecond,
		ShortResponseTimeout: 15 * time.Millisecond,
		FlushWait:            time.Millisecond,
		MinQuestions:         5,
		DialogueTimeout:      time.Second,
		AnalysisTimeout:      time.Second,
	}
}

func newListenerSession(conn voice.Connection) *Session {
	return NewSession("g1", "c1", "interview-room", "u1", "Jordan", conn)
}

func TestRecordUntilSilence_SpeechThenSilence(t *testing.T) {
	t.Parallel()

	conn := &voicemock.Connection{
		SizeScript: []int64{0, 50, 100},
		Capture:    voice.Track{PCM: make([]byte, 960), SampleRate: 48000, Channels: 2},
	}
	sttProvider := &sttmock.Provider{Texts: []string{"hello there"}}
	l := NewListener(sttProvider, fastInterviewConfig(), nil, nil)
	sess := newListenerSession(conn)

	got, err := l.RecordUntilSilence(context.Background(), sess, false)
	if err != nil {
		t.Fatalf("RecordUntilSilence: %v", err)
	}
	if got != "hello there" {
		t.Errorf("transcript = %q, want %q", got, "hello there")
	}
	if conn.CallCountStartCapture != 1 {
		t.Errorf("StartCapture calls = %d, want 1", conn.CallCountStartCapture)
	}
	if conn.CallCountStopCapture == 0 {
		t.Error("StopCapture was never called")
	}
	if conn.CallCountTakeCapture != 1 {
		t.Errorf("TakeCapture calls = %d, want 1", conn.CallCountTakeCapture)
	}
	if len(sttProvider.TranscribeCalls) != 1 {
		t.Fatalf("Transcribe calls = %d, want 1", len(sttProvider.TranscribeCalls))
	}
	rec := sttProvider.TranscribeCalls[0].Rec
	if rec.SampleRate != 48000 || rec.Channels != 2 {
		t.Errorf("recording format = %d Hz / %d ch, want 48000/2", rec.SampleRate, rec.Channels)
	}
}

func TestRecordUntilSilence_NoSpeechTimesOut(t *testing.T) {
	t.Parallel()

	conn := &voicemock.Connection{} // CaptureSize always 0
	sttProvider := &sttmock.Provider{Texts: []string{"should never be used"}}
	l := NewListener(sttProvider, fastInterviewConfig(), nil, nil)
	sess := newListenerSession(conn)

	got, err := l.RecordUntilSilence(context.Background(), sess, false)
	if err != nil {
		t.Fatalf("RecordUntilSilence: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
	if conn.CallCountTakeCapture != 0 {
		t.Errorf("TakeCapture calls = %d, want 0", conn.CallCountTakeCapture)
	}
	if sttProvider.CallCount() != 0 {
		t.Errorf("Transcribe calls = %d, want 0", sttProvider.CallCount())
	}
}

func TestRecordUntilSilence_ShortModeTimesOutSooner(t *testing.T) {
	t.Parallel()

	cfg := fastInterviewConfig()
	cfg.ResponseTimeout = 10 * time.Second // would dominate without short mode

	conn := &voicemock.Connection{}
	l := NewListener(&sttmock.Provider{}, cfg, nil, nil)
	sess := newListenerSession(conn)

	start := time.Now()
	got, err := l.RecordUntilSilence(context.Background(), sess, true)
	if err != nil {
		t.Fatalf("RecordUntilSilence: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("short mode took %v, want well under the normal timeout", elapsed)
	}
}

func TestRecordUntilSilence_SkipsWhileSpeaking(t *testing.T) {
	t.Parallel()

	conn := &voicemock.Connection{SizeScript: []int64{100}}
	l := NewListener(&sttmock.Provider{}, fastInterviewConfig(), nil, nil)
	sess := newListenerSession(conn)
	sess.setSpeaking(true)

	got, err := l.RecordUntilSilence(context.Background(), sess, false)
	if err != nil {
		t.Fatalf("RecordUntilSilence: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
	if conn.CallCountStartCapture != 0 {
		t.Error("capture started while the bot was speaking")
	}
}

func TestRecordUntilSilence_InactiveSessionReturnsNothing(t *testing.T) {
	t.Parallel()

	cfg := fastInterviewConfig()
	cfg.ResponseTimeout = 10 * time.Second

	conn := &voicemock.Connection{SizeScript: []int64{100}}
	l := NewListener(&sttmock.Provider{}, cfg, nil, nil)
	sess := newListenerSession(conn)
	sess.Deactivate()

	start := time.Now()
	got, err := l.RecordUntilSilence(context.Background(), sess, false)
	if err != nil {
		t.Fatalf("RecordUntilSilence: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("inactive session still waited %v", elapsed)
	}
}

func TestRecordUntilSilence_TranscriptionFailureIsSoft(t *testing.T) {
	t.Parallel()

	conn := &voicemock.Connection{
		SizeScript: []int64{0, 100},
		Capture:    voice.Track{PCM: make([]byte, 96), SampleRate: 48000, Channels: 2},
	}
	sttProvider := &sttmock.Provider{Err: errors.New("backend down")}
	l := NewListener(sttProvider, fastInterviewConfig(), nil, nil)
	sess := newListenerSession(conn)

	got, err := l.RecordUntilSilence(context.Background(), sess, false)
	if err != nil {
		t.Fatalf("RecordUntilSilence returned error, want soft failure: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
	if sttProvider.CallCount() != 1 {
		t.Errorf("Transcribe calls = %d, want 1", sttProvider.CallCount())
	}
}

func TestRecordUntilSilence_EmptyCaptureSkipsTranscription(t *testing.T) {
	t.Parallel()

	// Buffer growth was observed but the drained capture came back empty.
	conn := &voicemock.Connection{SizeScript: []int64{0, 100}}
	sttProvider := &sttmock.Provider{}
	l := NewListener(sttProvider, fastInterviewConfig(), nil, nil)
	sess := newListenerSession(conn)

	got, err := l.RecordUntilSilence(context.Background(), sess, false)
	if err != nil {
		t.Fatalf("RecordUntilSilence: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
	if sttProvider.CallCount() != 0 {
		t.Errorf("Transcribe calls = %d, want 0", sttProvider.CallCount())
	}
}

func TestRecordUntilSilence_ContextCancelled(t *testing.T) {
	t.Parallel()

	conn := &voicemock.Connection{}
	l := NewListener(&sttmock.Provider{}, fastInterviewConfig(), nil, nil)
	sess := newListenerSession(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.RecordUntilSilence(ctx, sess, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
