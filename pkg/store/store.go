// Package store defines the persistence interface for interview records.
//
// An interview record holds the applicant identity, channel, full transcript,
// and timestamps; it is joined 1:1 or 1:0 with an analysis record produced by
// the post-interview assessment. No core logic depends on the storage engine
// beyond these operations; the canonical implementation lives in
// store/postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested interview does not exist.
var ErrNotFound = errors.New("store: interview not found")

// Interview is one persisted interview record.
type Interview struct {
	// ID is the store-assigned record identifier. Zero before SaveInterview.
	ID int64

	GuildID       string
	ChannelID     string
	ChannelName   string
	ApplicantID   string
	ApplicantName string

	// Transcript is the full speaker-labelled transcript, one line per
	// utterance.
	Transcript string

	StartedAt time.Time
	EndedAt   time.Time
}

// Analysis is the structured assessment for one interview.
type Analysis struct {
	InterviewID int64

	// FitScore is the 1–100 aggregate suitability score.
	FitScore int

	// Recommended is the boolean hiring recommendation derived from
	// Recommendation.
	Recommended bool

	// Recommendation is the raw tier (e.g. "STRONG_HIRE", "LEAN_HIRE",
	// "NO_HIRE").
	Recommendation string

	// CategoryScores maps assessment categories (1–10 each) by name.
	CategoryScores map[string]int

	Strengths []string
	Concerns  []string
	RedFlags  []string

	// Evidence holds supporting quotes lifted from the transcript.
	Evidence []string

	// Summary is the free-text assessment.
	Summary string

	// Raw is the unmodified structured response from the analysis backend,
	// kept for audit.
	Raw json.RawMessage

	CreatedAt time.Time
}

// Summary is one row of an interview listing, with analysis fields present
// when the interview has been analyzed.
type Summary struct {
	ID            int64
	ApplicantName string
	ChannelName   string
	StartedAt     time.Time

	// Analyzed reports whether FitScore and Recommended are meaningful.
	Analyzed    bool
	FitScore    int
	Recommended bool
}

// Stats aggregates a guild's interview history.
type Stats struct {
	TotalInterviews int
	AnalyzedCount   int
	RecommendedCount int
	AverageFitScore float64
}

// Store is the abstraction over interview persistence.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// SaveInterview persists the interview and returns its assigned ID.
	SaveInterview(ctx context.Context, iv Interview) (int64, error)

	// SaveAnalysis persists the analysis for a previously saved interview.
	SaveAnalysis(ctx context.Context, a Analysis) error

	// Interview returns the interview and, when present, its analysis.
	// The analysis is nil when the interview was saved without one.
	// Returns ErrNotFound if no interview exists with the given ID.
	Interview(ctx context.Context, id int64) (*Interview, *Analysis, error)

	// Recent returns up to limit summaries for the guild, newest first.
	Recent(ctx context.Context, guildID string, limit int) ([]Summary, error)

	// Stats aggregates the guild's interview history.
	Stats(ctx context.Context, guildID string) (*Stats, error)

	// Delete removes the interview and any attached analysis.
	// Returns ErrNotFound if no interview exists with the given ID.
	Delete(ctx context.Context, id int64) error
}
