package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE solo_timer_status AS ENUM ('active', 'resolved'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN CREATE TYPE lifecycle_status AS ENUM ('start', 'finished'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN CREATE TYPE join_call_status AS ENUM ('joining', 'finish'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS solo_timers (
		id UUID PRIMARY KEY,
		channel_id TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		status solo_timer_status NOT NULL DEFAULT 'active',
		resolved_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_solo_timers_active ON solo_timers (channel_id) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS voice_channel_lifecycles (
		id UUID PRIMARY KEY,
		voice_channel_id TEXT NOT NULL,
		original_name TEXT NOT NULL,
		status lifecycle_status NOT NULL DEFAULT 'start',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_voice_channel_lifecycles_pending ON voice_channel_lifecycles (created_at) WHERE status = 'start'`,
	`CREATE TABLE IF NOT EXISTS join_calls (
		id BIGSERIAL PRIMARY KEY,
		channel_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		status join_call_status NOT NULL DEFAULT 'joining',
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_join_calls_joining ON join_calls (start_time) WHERE status = 'joining'`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
