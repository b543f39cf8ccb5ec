package repository

import (
	"context"
	"errors"
	"time"

	"github.com/foxseedlab/roomwarden/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	return repository.Wrap("migrate", RunMigration(ctx, r.pool))
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) ListActiveSoloTimers(ctx context.Context) ([]repository.SoloTimer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, channel_id, start_time, status, resolved_at
		 FROM solo_timers WHERE status = 'active' ORDER BY start_time ASC`)
	if err != nil {
		return nil, repository.Wrap("list active solo timers", err)
	}
	defer rows.Close()
	var list []repository.SoloTimer
	for rows.Next() {
		var st repository.SoloTimer
		if err := rows.Scan(&st.ID, &st.ChannelID, &st.StartTime, &st.Status, &st.ResolvedAt); err != nil {
			return nil, repository.Wrap("scan solo timer", err)
		}
		list = append(list, st)
	}
	return list, repository.Wrap("list active solo timers", rows.Err())
}

func (r *PostgresRepository) CreateSoloTimer(ctx context.Context, channelID string, startTime time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO solo_timers (id, channel_id, start_time, status)
		 VALUES ($1, $2, $3, 'active')
		 ON CONFLICT DO NOTHING`,
		uuid.NewString(), channelID, startTime)
	if err != nil {
		return false, repository.Wrap("create solo timer", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) ResolveSoloTimer(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE solo_timers SET status = 'resolved', resolved_at = $2
		 WHERE id = $1 AND status = 'active'`,
		id, at)
	if err != nil {
		return false, repository.Wrap("resolve solo timer", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) ResolveActiveSoloTimerByChannel(ctx context.Context, channelID string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE solo_timers SET status = 'resolved', resolved_at = $2
		 WHERE channel_id = $1 AND status = 'active'`,
		channelID, at)
	if err != nil {
		return false, repository.Wrap("resolve solo timer by channel", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) CreateLifecycleRecord(ctx context.Context, input repository.CreateLifecycleRecordInput) (*repository.LifecycleRecord, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO voice_channel_lifecycles (id, voice_channel_id, original_name, status, created_at)
		 VALUES ($1, $2, $3, 'start', $4)
		 RETURNING id, voice_channel_id, original_name, status, created_at`,
		uuid.NewString(), input.VoiceChannelID, input.OriginalName, input.CreatedAt)
	var rec repository.LifecycleRecord
	if err := row.Scan(&rec.ID, &rec.VoiceChannelID, &rec.OriginalName, &rec.Status, &rec.CreatedAt); err != nil {
		return nil, repository.Wrap("create lifecycle record", err)
	}
	return &rec, nil
}

func (r *PostgresRepository) ListPendingLifecycleRecords(ctx context.Context, from, to time.Time) ([]repository.LifecycleRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, voice_channel_id, original_name, status, created_at
		 FROM voice_channel_lifecycles
		 WHERE status = 'start' AND created_at >= $1 AND created_at <= $2
		 ORDER BY created_at ASC`,
		from, to)
	if err != nil {
		return nil, repository.Wrap("list pending lifecycle records", err)
	}
	defer rows.Close()
	var list []repository.LifecycleRecord
	for rows.Next() {
		var rec repository.LifecycleRecord
		if err := rows.Scan(&rec.ID, &rec.VoiceChannelID, &rec.OriginalName, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, repository.Wrap("scan lifecycle record", err)
		}
		list = append(list, rec)
	}
	return list, repository.Wrap("list pending lifecycle records", rows.Err())
}

func (r *PostgresRepository) FinishLifecycleRecord(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE voice_channel_lifecycles SET status = 'finished' WHERE id = $1 AND status = 'start'`,
		id)
	if err != nil {
		return false, repository.Wrap("finish lifecycle record", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) CreateJoinCall(ctx context.Context, input repository.CreateJoinCallInput) (*repository.JoinCall, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO join_calls (channel_id, user_id, status, start_time)
		 VALUES ($1, $2, 'joining', $3)
		 RETURNING id, channel_id, user_id, status, start_time, end_time`,
		input.ChannelID, input.UserID, input.StartTime)
	jc, err := scanJoinCall(row)
	if err != nil {
		return nil, repository.Wrap("create join call", err)
	}
	return jc, nil
}

func (r *PostgresRepository) GetJoinCall(ctx context.Context, id int64) (*repository.JoinCall, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, channel_id, user_id, status, start_time, end_time FROM join_calls WHERE id = $1`,
		id)
	jc, err := scanJoinCall(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, repository.Wrap("get join call", err)
	}
	return jc, nil
}

func (r *PostgresRepository) FinishJoinCall(ctx context.Context, id int64, endTime time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE join_calls SET status = 'finish', end_time = $2 WHERE id = $1 AND status = 'joining'`,
		id, endTime)
	if err != nil {
		return false, repository.Wrap("finish join call", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) CloseStaleJoinCalls(ctx context.Context, cutoff, endTime time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE join_calls SET status = 'finish', end_time = $2
		 WHERE status = 'joining' AND start_time <= $1`,
		cutoff, endTime)
	if err != nil {
		return 0, repository.Wrap("close stale join calls", err)
	}
	return tag.RowsAffected(), nil
}

func scanJoinCall(row pgx.Row) (*repository.JoinCall, error) {
	var jc repository.JoinCall
	if err := row.Scan(&jc.ID, &jc.ChannelID, &jc.UserID, &jc.Status, &jc.StartTime, &jc.EndTime); err != nil {
		return nil, err
	}
	return &jc, nil
}
