package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/analysis"
	"github.com/stafflens/stafflens/internal/interview"
	"github.com/stafflens/stafflens/internal/observe"
	"github.com/stafflens/stafflens/pkg/store"
)

// minTranscriptLines is the smallest transcript worth analysing. Anything
// shorter is a false start (applicant joined and left, or nothing was said).
const minTranscriptLines = 3

// defaultFitThreshold is shown in the report footer as the review bar.
const defaultFitThreshold = 70

// Analyzer is the slice of the analysis pipeline the finalizer needs.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (*analysis.Result, error)
}

// Poster delivers the finished report (or a degraded notice) to staff.
type Poster interface {
	// PostReport publishes the full report embed.
	PostReport(ctx context.Context, embed *discordgo.MessageEmbed) error

	// PostNotice publishes a short plain-text notice.
	PostNotice(ctx context.Context, text string) error
}

// Finalizer runs the end-of-interview pipeline: persist the transcript,
// analyse it, persist the analysis, and post the report. Every step degrades
// independently; a storage or analysis failure never prevents the steps that
// can still succeed, and nothing here ever terminates the calling goroutine.
type Finalizer struct {
	store    store.Store
	analyzer Analyzer
	poster   Poster

	metrics      *observe.Metrics
	log          *slog.Logger
	fitThreshold int
}

// NewFinalizer creates a Finalizer. metrics may be nil.
func NewFinalizer(st store.Store, analyzer Analyzer, poster Poster, metrics *observe.Metrics, log *slog.Logger) *Finalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Finalizer{
		store:        st,
		analyzer:     analyzer,
		poster:       poster,
		metrics:      metrics,
		log:          log,
		fitThreshold: defaultFitThreshold,
	}
}

// Finalize produces the interview's report. Multiple termination paths may
// race to call it (natural completion, staff command, applicant leaving);
// the session's report-sent flag guarantees only the first caller proceeds.
func (f *Finalizer) Finalize(ctx context.Context, sess *interview.Session) {
	log := f.log.With("channel_id", sess.ChannelID, "applicant", sess.ApplicantName)

	if !sess.TryMarkReportSent() {
		log.Info("report already handled for this session")
		return
	}

	transcript := sess.Transcript()
	lines := sess.TranscriptLen()
	if strings.TrimSpace(transcript) == "" || lines < minTranscriptLines {
		log.Warn("transcript too short, skipping report", "lines", lines)
		return
	}

	// The transcript is persisted first so a dead analysis backend can never
	// lose the interview record.
	interviewID, err := f.store.SaveInterview(ctx, store.Interview{
		GuildID:       sess.GuildID,
		ChannelID:     sess.ChannelID,
		ChannelName:   sess.ChannelName,
		ApplicantID:   sess.ApplicantID,
		ApplicantName: sess.ApplicantName,
		Transcript:    transcript,
		StartedAt:     sess.StartedAt,
		EndedAt:       time.Now().UTC(),
	})
	if err != nil {
		log.Error("saving interview failed", "error", err)
		interviewID = 0
	} else {
		log.Info("interview saved", "interview_id", interviewID, "transcript_chars", len(transcript))
	}

	result, err := f.analyzer.Analyze(ctx, transcript)
	if err != nil {
		log.Error("analysis failed", "error", err)
		notice := fmt.Sprintf("⚠️ Interview with **%s** completed but analysis failed. Check logs.", sess.ApplicantName)
		if perr := f.poster.PostNotice(ctx, notice); perr != nil {
			log.Error("posting degraded notice failed", "error", perr)
		}
		return
	}

	if interviewID != 0 {
		if err := f.store.SaveAnalysis(ctx, toStoreAnalysis(interviewID, result)); err != nil {
			log.Error("saving analysis failed", "interview_id", interviewID, "error", err)
		}
	}

	embed := ReportEmbed(sess.ApplicantName, sess.ApplicantID, result, transcript, f.fitThreshold)
	if err := f.poster.PostReport(ctx, embed); err != nil {
		log.Error("posting report failed", "error", err)
		return
	}
	log.Info("report posted", "fit_score", result.FitScore, "recommendation", result.Recommendation)
}

// toStoreAnalysis flattens the analysis result into the persistence shape.
func toStoreAnalysis(interviewID int64, r *analysis.Result) store.Analysis {
	evidence := make([]string, 0, len(r.EvidenceQuotes.Positive)+len(r.EvidenceQuotes.Negative))
	evidence = append(evidence, r.EvidenceQuotes.Positive...)
	evidence = append(evidence, r.EvidenceQuotes.Negative...)

	return store.Analysis{
		InterviewID:    interviewID,
		FitScore:       r.FitScore,
		Recommended:    r.Recommended,
		Recommendation: r.Recommendation,
		CategoryScores: r.Scores,
		Strengths:      r.Strengths,
		Concerns:       r.Concerns,
		RedFlags:       r.RedFlags,
		Evidence:       evidence,
		Summary:        r.Summary,
		Raw:            r.Raw,
	}
}
