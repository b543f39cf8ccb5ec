package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/roomwarden/internal/repository"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS solo_timers (
    id TEXT PRIMARY KEY,
    channel_id TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('active', 'resolved')),
    resolved_at INTEGER
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_solo_timers_active ON solo_timers (channel_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS voice_channel_lifecycles (
    id TEXT PRIMARY KEY,
    voice_channel_id TEXT NOT NULL,
    original_name TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('start', 'finished')),
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_voice_channel_lifecycles_pending ON voice_channel_lifecycles (status, created_at);

CREATE TABLE IF NOT EXISTS join_calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    channel_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('joining', 'finish')),
    start_time INTEGER NOT NULL,
    end_time INTEGER
);
CREATE INDEX IF NOT EXISTS idx_join_calls_status ON join_calls (status, start_time);
`

// SQLiteRepository stores instants as unix milliseconds so range predicates
// compare numerically.
type SQLiteRepository struct {
	db *sql.DB
}

func OpenSQLite(dataSourceName string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, sqliteSchema)
	return repository.Wrap("migrate", err)
}

func (r *SQLiteRepository) Close() {
	_ = r.db.Close()
}

func (r *SQLiteRepository) ListActiveSoloTimers(ctx context.Context) ([]repository.SoloTimer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, channel_id, start_time, status, resolved_at
		 FROM solo_timers WHERE status = 'active' ORDER BY start_time ASC`)
	if err != nil {
		return nil, repository.Wrap("list active solo timers", err)
	}
	defer rows.Close()
	var list []repository.SoloTimer
	for rows.Next() {
		var (
			st         repository.SoloTimer
			startMs    int64
			resolvedMs sql.NullInt64
		)
		if err := rows.Scan(&st.ID, &st.ChannelID, &startMs, &st.Status, &resolvedMs); err != nil {
			return nil, repository.Wrap("scan solo timer", err)
		}
		st.StartTime = fromMillis(startMs)
		st.ResolvedAt = fromNullMillis(resolvedMs)
		list = append(list, st)
	}
	return list, repository.Wrap("list active solo timers", rows.Err())
}

func (r *SQLiteRepository) CreateSoloTimer(ctx context.Context, channelID string, startTime time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO solo_timers (id, channel_id, start_time, status)
		 VALUES (?, ?, ?, 'active')
		 ON CONFLICT DO NOTHING`,
		uuid.NewString(), channelID, startTime.UnixMilli())
	if err != nil {
		return false, repository.Wrap("create solo timer", err)
	}
	return affected(res) == 1, nil
}

func (r *SQLiteRepository) ResolveSoloTimer(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE solo_timers SET status = 'resolved', resolved_at = ?
		 WHERE id = ? AND status = 'active'`,
		at.UnixMilli(), id)
	if err != nil {
		return false, repository.Wrap("resolve solo timer", err)
	}
	return affected(res) > 0, nil
}

func (r *SQLiteRepository) ResolveActiveSoloTimerByChannel(ctx context.Context, channelID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE solo_timers SET status = 'resolved', resolved_at = ?
		 WHERE channel_id = ? AND status = 'active'`,
		at.UnixMilli(), channelID)
	if err != nil {
		return false, repository.Wrap("resolve solo timer by channel", err)
	}
	return affected(res) > 0, nil
}

func (r *SQLiteRepository) CreateLifecycleRecord(ctx context.Context, input repository.CreateLifecycleRecordInput) (*repository.LifecycleRecord, error) {
	rec := repository.LifecycleRecord{
		ID:             uuid.NewString(),
		VoiceChannelID: input.VoiceChannelID,
		OriginalName:   input.OriginalName,
		Status:         repository.LifecycleStatusStart,
		CreatedAt:      fromMillis(input.CreatedAt.UnixMilli()),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO voice_channel_lifecycles (id, voice_channel_id, original_name, status, created_at)
		 VALUES (?, ?, ?, 'start', ?)`,
		rec.ID, rec.VoiceChannelID, rec.OriginalName, input.CreatedAt.UnixMilli())
	if err != nil {
		return nil, repository.Wrap("create lifecycle record", err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) ListPendingLifecycleRecords(ctx context.Context, from, to time.Time) ([]repository.LifecycleRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, voice_channel_id, original_name, status, created_at
		 FROM voice_channel_lifecycles
		 WHERE status = 'start' AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at ASC`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, repository.Wrap("list pending lifecycle records", err)
	}
	defer rows.Close()
	var list []repository.LifecycleRecord
	for rows.Next() {
		var (
			rec       repository.LifecycleRecord
			createdMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.VoiceChannelID, &rec.OriginalName, &rec.Status, &createdMs); err != nil {
			return nil, repository.Wrap("scan lifecycle record", err)
		}
		rec.CreatedAt = fromMillis(createdMs)
		list = append(list, rec)
	}
	return list, repository.Wrap("list pending lifecycle records", rows.Err())
}

func (r *SQLiteRepository) FinishLifecycleRecord(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE voice_channel_lifecycles SET status = 'finished' WHERE id = ? AND status = 'start'`,
		id)
	if err != nil {
		return false, repository.Wrap("finish lifecycle record", err)
	}
	return affected(res) > 0, nil
}

func (r *SQLiteRepository) CreateJoinCall(ctx context.Context, input repository.CreateJoinCallInput) (*repository.JoinCall, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO join_calls (channel_id, user_id, status, start_time) VALUES (?, ?, 'joining', ?)`,
		input.ChannelID, input.UserID, input.StartTime.UnixMilli())
	if err != nil {
		return nil, repository.Wrap("create join call", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, repository.Wrap("create join call", err)
	}
	return &repository.JoinCall{
		ID:        id,
		ChannelID: input.ChannelID,
		UserID:    input.UserID,
		Status:    repository.JoinCallStatusJoining,
		StartTime: fromMillis(input.StartTime.UnixMilli()),
	}, nil
}

func (r *SQLiteRepository) GetJoinCall(ctx context.Context, id int64) (*repository.JoinCall, error) {
	var (
		jc      repository.JoinCall
		startMs int64
		endMs   sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, channel_id, user_id, status, start_time, end_time FROM join_calls WHERE id = ?`,
		id).Scan(&jc.ID, &jc.ChannelID, &jc.UserID, &jc.Status, &startMs, &endMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, repository.Wrap("get join call", err)
	}
	jc.StartTime = fromMillis(startMs)
	jc.EndTime = fromNullMillis(endMs)
	return &jc, nil
}

func (r *SQLiteRepository) FinishJoinCall(ctx context.Context, id int64, endTime time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE join_calls SET status = 'finish', end_time = ? WHERE id = ? AND status = 'joining'`,
		endTime.UnixMilli(), id)
	if err != nil {
		return false, repository.Wrap("finish join call", err)
	}
	return affected(res) > 0, nil
}

func (r *SQLiteRepository) CloseStaleJoinCalls(ctx context.Context, cutoff, endTime time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE join_calls SET status = 'finish', end_time = ?
		 WHERE status = 'joining' AND start_time <= ?`,
		endTime.UnixMilli(), cutoff.UnixMilli())
	if err != nil {
		return 0, repository.Wrap("close stale join calls", err)
	}
	return affected(res), nil
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMillis(ms.Int64)
	return &t
}
