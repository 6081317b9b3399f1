package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema DDL. Statements are idempotent so Migrate can run on every startup.
const (
	createInterviewsTable = `
CREATE TABLE IF NOT EXISTS interviews (
    id             BIGSERIAL PRIMARY KEY,
    guild_id       TEXT NOT NULL,
    channel_id     TEXT NOT NULL,
    channel_name   TEXT NOT NULL DEFAULT '',
    applicant_id   TEXT NOT NULL,
    applicant_name TEXT NOT NULL,
    transcript     TEXT NOT NULL,
    started_at     TIMESTAMPTZ NOT NULL,
    ended_at       TIMESTAMPTZ NOT NULL
)`

	createInterviewsGuildIndex = `
CREATE INDEX IF NOT EXISTS idx_interviews_guild_started
    ON interviews (guild_id, started_at DESC)`

	createAnalysisTable = `
CREATE TABLE IF NOT EXISTS analysis_results (
    interview_id    BIGINT PRIMARY KEY REFERENCES interviews(id) ON DELETE CASCADE,
    fit_score       INTEGER NOT NULL,
    recommended     BOOLEAN NOT NULL,
    recommendation  TEXT NOT NULL DEFAULT '',
    category_scores JSONB NOT NULL DEFAULT '{}',
    strengths       JSONB NOT NULL DEFAULT '[]',
    concerns        JSONB NOT NULL DEFAULT '[]',
    red_flags       JSONB NOT NULL DEFAULT '[]',
    evidence        JSONB NOT NULL DEFAULT '[]',
    summary         TEXT NOT NULL DEFAULT '',
    raw             JSONB,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`
)

// Migrate applies the schema to the connected database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		createInterviewsTable,
		createInterviewsGuildIndex,
		createAnalysisTable,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
