// Package postgres implements the store.Store interface on PostgreSQL using
// pgx connection pooling. The schema is applied automatically on startup.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stafflens/stafflens/pkg/store"
)

// Compile-time interface assertion.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL-backed interview store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database, verifies the connection, and applies the
// schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the database connection, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveInterview implements store.Store.
func (s *Store) SaveInterview(ctx context.Context, iv store.Interview) (int64, error) {
	const q = `
INSERT INTO interviews (guild_id, channel_id, channel_name, applicant_id, applicant_name, transcript, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, q,
		iv.GuildID, iv.ChannelID, iv.ChannelName,
		iv.ApplicantID, iv.ApplicantName,
		iv.Transcript, iv.StartedAt, iv.EndedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: save interview: %w", err)
	}
	return id, nil
}

// SaveAnalysis implements store.Store. Saving twice for the same interview
// replaces the earlier analysis.
func (s *Store) SaveAnalysis(ctx context.Context, a store.Analysis) error {
	const q = `
INSERT INTO analysis_results (interview_id, fit_score, recommended, recommendation, category_scores, strengths, concerns, red_flags, evidence, summary, raw)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (interview_id) DO UPDATE SET
    fit_score       = EXCLUDED.fit_score,
    recommended     = EXCLUDED.recommended,
    recommendation  = EXCLUDED.recommendation,
    category_scores = EXCLUDED.category_scores,
    strengths       = EXCLUDED.strengths,
    concerns        = EXCLUDED.concerns,
    red_flags       = EXCLUDED.red_flags,
    evidence        = EXCLUDED.evidence,
    summary         = EXCLUDED.summary,
    raw             = EXCLUDED.raw,
    created_at      = now()`

	_, err := s.pool.Exec(ctx, q,
		a.InterviewID, a.FitScore, a.Recommended, a.Recommendation,
		emptyMap(a.CategoryScores), emptySlice(a.Strengths), emptySlice(a.Concerns),
		emptySlice(a.RedFlags), emptySlice(a.Evidence),
		a.Summary, a.Raw,
	)
	if err != nil {
		return fmt.Errorf("postgres: save analysis: %w", err)
	}
	return nil
}

// Interview implements store.Store.
func (s *Store) Interview(ctx context.Context, id int64) (*store.Interview, *store.Analysis, error) {
	const q = `
SELECT i.id, i.guild_id, i.channel_id, i.channel_name, i.applicant_id, i.applicant_name,
       i.transcript, i.started_at, i.ended_at,
       a.fit_score, a.recommended, a.recommendation, a.category_scores,
       a.strengths, a.concerns, a.red_flags, a.evidence, a.summary, a.raw, a.created_at
FROM interviews i
LEFT JOIN analysis_results a ON a.interview_id = i.id
WHERE i.id = $1`

	var (
		iv store.Interview

		fitScore       *int
		recommended    *bool
		recommendation *string
		categoryScores map[string]int
		strengths      []string
		concerns       []string
		redFlags       []string
		evidence       []string
		summary        *string
		raw            []byte
		createdAt      *time.Time
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&iv.ID, &iv.GuildID, &iv.ChannelID, &iv.ChannelName, &iv.ApplicantID, &iv.ApplicantName,
		&iv.Transcript, &iv.StartedAt, &iv.EndedAt,
		&fitScore, &recommended, &recommendation, &categoryScores,
		&strengths, &concerns, &redFlags, &evidence, &summary, &raw, &createdAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, store.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: load interview %d: %w", id, err)
	}

	if fitScore == nil {
		return &iv, nil, nil
	}

	a := &store.Analysis{
		InterviewID:    iv.ID,
		FitScore:       *fitScore,
		Recommended:    *recommended,
		Recommendation: *recommendation,
		CategoryScores: categoryScores,
		Strengths:      strengths,
		Concerns:       concerns,
		RedFlags:       redFlags,
		Evidence:       evidence,
		Summary:        *summary,
		Raw:            raw,
		CreatedAt:      *createdAt,
	}
	return &iv, a, nil
}

// Recent implements store.Store.
func (s *Store) Recent(ctx context.Context, guildID string, limit int) ([]store.Summary, error) {
	const q = `
SELECT i.id, i.applicant_name, i.channel_name, i.started_at,
       a.fit_score, a.recommended
FROM interviews i
LEFT JOIN analysis_results a ON a.interview_id = i.id
WHERE i.guild_id = $1
ORDER BY i.started_at DESC
LIMIT $2`

	rows, err := s.pool.Query(ctx, q, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list interviews: %w", err)
	}

	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Summary, error) {
		var (
			sum         store.Summary
			fitScore    *int
			recommended *bool
		)
		err := row.Scan(&sum.ID, &sum.ApplicantName, &sum.ChannelName, &sum.StartedAt, &fitScore, &recommended)
		if err != nil {
			return store.Summary{}, err
		}
		if fitScore != nil {
			sum.Analyzed = true
			sum.FitScore = *fitScore
			sum.Recommended = *recommended
		}
		return sum, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: collect interviews: %w", err)
	}
	return summaries, nil
}

// Stats implements store.Store.
func (s *Store) Stats(ctx context.Context, guildID string) (*store.Stats, error) {
	const q = `
SELECT COUNT(i.id),
       COUNT(a.interview_id),
       COUNT(a.interview_id) FILTER (WHERE a.recommended),
       COALESCE(AVG(a.fit_score), 0)
FROM interviews i
LEFT JOIN analysis_results a ON a.interview_id = i.id
WHERE i.guild_id = $1`

	var st store.Stats
	err := s.pool.QueryRow(ctx, q, guildID).Scan(
		&st.TotalInterviews, &st.AnalyzedCount, &st.RecommendedCount, &st.AverageFitScore,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: stats: %w", err)
	}
	return &st, nil
}

// Delete implements store.Store. The analysis row, if present, is removed by
// the cascade.
func (s *Store) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM interviews WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("postgres: delete interview %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// emptyMap substitutes an empty map for nil so the JSONB column stores {}
// instead of NULL.
func emptyMap(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

// emptySlice substitutes an empty slice for nil so the JSONB column stores []
// instead of NULL.
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
