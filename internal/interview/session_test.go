package interview

import (
	"sync"
	"testing"

	"github.com/stafflens/stafflens/pkg/provider/llm"
)

func TestSession_TryMarkReportSent_FirstCallerWins(t *testing.T) {
	t.Parallel()

	sess := NewSession("g1", "c1", "room", "u1", "Jordan", nil)

	const callers = 16
	var (
		wg   sync.WaitGroup
		wins = make(chan struct{}, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sess.TryMarkReportSent() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}
}

func TestSession_EndIsIdempotent(t *testing.T) {
	t.Parallel()

	sess := NewSession("g1", "c1", "room", "u1", "Jordan", nil)
	if !sess.Active() {
		t.Fatal("new session should be active")
	}

	sess.End()
	sess.End()

	if sess.Active() {
		t.Error("session still active after End")
	}
	if !sess.Complete() {
		t.Error("session not complete after End")
	}
}

func TestSession_HistoryReturnsCopy(t *testing.T) {
	t.Parallel()

	sess := NewSession("g1", "c1", "room", "u1", "Jordan", nil)
	sess.AppendHistory(llm.Message{Role: llm.RoleSystem, Content: "prompt"})

	h := sess.History()
	h[0].Content = "mutated"

	if got := sess.History()[0].Content; got != "prompt" {
		t.Errorf("history mutated through returned slice: %q", got)
	}
}

func TestSession_TranscriptJoinsLines(t *testing.T) {
	t.Parallel()

	sess := NewSession("g1", "c1", "room", "u1", "Jordan", nil)
	sess.AppendTranscript("[StaffLens]: Hello")
	sess.AppendTranscript("[Jordan]: Hi")

	if got := sess.Transcript(); got != "[StaffLens]: Hello\n[Jordan]: Hi" {
		t.Errorf("Transcript() = %q", got)
	}
	if got := sess.TranscriptLen(); got != 2 {
		t.Errorf("TranscriptLen() = %d, want 2", got)
	}
}
