package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/snusquit/internal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         CHAR(24) PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT,
	country    TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS plans (
	id                        CHAR(24) PRIMARY KEY,
	user_id                   CHAR(24) NOT NULL,
	goal_type                 TEXT NOT NULL CHECK (goal_type IN ('quit', 'reduce')),
	start_date                DATE NOT NULL,
	target_date               DATE,
	baseline_portions_per_day DOUBLE PRECISION,
	target_portions_per_day   DOUBLE PRECISION,
	created_at                TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_user_created ON plans(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS checkins (
	id            CHAR(24) PRIMARY KEY,
	user_id       CHAR(24) NOT NULL,
	date          DATE,
	nicotine_free BOOLEAN NOT NULL,
	portions_used DOUBLE PRECISION,
	craving_level INTEGER,
	note          TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, date)
);

CREATE TABLE IF NOT EXISTS tips (
	id    CHAR(24) PRIMARY KEY,
	title TEXT NOT NULL UNIQUE,
	body  TEXT NOT NULL
);
`

const checkinColumns = `id, user_id, COALESCE(date::text, ''), nicotine_free, portions_used, craving_level, note, created_at, updated_at`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Errorf("failed to ping postgres: %v", err)
		return nil, wrap("storage: ping postgres", err)
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Name() string { return "postgres" }

func (p *PostgresStorage) Database() string { return p.pool.Config().ConnConfig.Database }

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return wrap("storage: ping postgres", p.pool.Ping(ctx))
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		p.logger.Errorf("failed to execute migration: %v", err)
		return wrap("storage: migrate postgres", err)
	}
	return nil
}

func (p *PostgresStorage) Collections(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name LIMIT 10`)
	if err != nil {
		return nil, wrap("storage: list tables", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrap("storage: scan tables", err)
	}
	return names, nil
}

// --- UserRepository ---
func (p *PostgresStorage) CreateUser(ctx context.Context, user *internal.User) (string, error) {
	id := newID()
	_, err := p.pool.Exec(ctx, `INSERT INTO users (id, name, email, country, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, user.Name, user.Email, user.Country, time.Now().UTC())
	if err != nil {
		p.logger.Errorf("failed to insert user: %v", err)
		return "", wrap("storage: insert user", err)
	}
	return id, nil
}

func (p *PostgresStorage) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, wrap("storage: lookup user", err)
	}
	return exists, nil
}

// --- PlanRepository ---
func (p *PostgresStorage) CreatePlan(ctx context.Context, plan *internal.Plan) (string, error) {
	id := newID()
	_, err := p.pool.Exec(ctx, `INSERT INTO plans (id, user_id, goal_type, start_date, target_date, baseline_portions_per_day, target_portions_per_day, created_at) VALUES ($1, $2, $3, $4::text::date, $5::text::date, $6, $7, $8)`,
		id, plan.UserID, plan.GoalType, plan.StartDate, plan.TargetDate, plan.BaselinePortionsPerDay, plan.TargetPortionsPerDay, time.Now().UTC())
	if err != nil {
		p.logger.Errorf("failed to insert plan: %v", err)
		return "", wrap("storage: insert plan", err)
	}
	return id, nil
}

func (p *PostgresStorage) LatestPlan(ctx context.Context, userID string) (*internal.Plan, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, user_id, goal_type, start_date::text, target_date::text, baseline_portions_per_day, target_portions_per_day, created_at FROM plans WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	var pl internal.Plan
	err := row.Scan(&pl.ID, &pl.UserID, &pl.GoalType, &pl.StartDate, &pl.TargetDate, &pl.BaselinePortionsPerDay, &pl.TargetPortionsPerDay, &pl.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("storage: latest plan", err)
	}
	return &pl, nil
}

// --- CheckinRepository ---
func (p *PostgresStorage) UpsertCheckin(ctx context.Context, checkin *internal.Checkin) (string, error) {
	var id string
	err := p.pool.QueryRow(ctx, `
		INSERT INTO checkins (id, user_id, date, nicotine_free, portions_used, craving_level, note, created_at, updated_at)
		VALUES ($1, $2, $3::text::date, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (user_id, date) DO UPDATE SET
			nicotine_free = EXCLUDED.nicotine_free,
			portions_used = EXCLUDED.portions_used,
			craving_level = EXCLUDED.craving_level,
			note          = EXCLUDED.note,
			updated_at    = EXCLUDED.updated_at
		RETURNING id`,
		newID(), checkin.UserID, checkin.Date, checkin.NicotineFree, checkin.PortionsUsed, checkin.CravingLevel, checkin.Note, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		p.logger.Errorf("failed to upsert checkin: %v", err)
		return "", wrap("storage: upsert checkin", err)
	}
	return id, nil
}

func (p *PostgresStorage) ListCheckins(ctx context.Context, userID string, limit int) ([]internal.Checkin, error) {
	q := `SELECT ` + checkinColumns + ` FROM checkins WHERE user_id = $1 ORDER BY date DESC NULLS LAST, id DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	return p.queryCheckins(ctx, q, args...)
}

func (p *PostgresStorage) CheckinHistory(ctx context.Context, userID string) ([]internal.Checkin, error) {
	return p.queryCheckins(ctx, `SELECT `+checkinColumns+` FROM checkins WHERE user_id = $1 ORDER BY date ASC NULLS FIRST, id ASC`, userID)
}

func (p *PostgresStorage) queryCheckins(ctx context.Context, q string, args ...any) ([]internal.Checkin, error) {
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		p.logger.Errorf("failed to query checkins: %v", err)
		return nil, wrap("storage: query checkins", err)
	}
	defer rows.Close()

	checkins := []internal.Checkin{}
	for rows.Next() {
		var c internal.Checkin
		if err := rows.Scan(&c.ID, &c.UserID, &c.Date, &c.NicotineFree, &c.PortionsUsed, &c.CravingLevel, &c.Note, &c.CreatedAt, &c.UpdatedAt); err != nil {
			p.logger.Errorf("failed to scan checkin: %v", err)
			return nil, wrap("storage: scan checkin", err)
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("storage: iterate checkins", err)
	}
	return checkins, nil
}

// --- TipRepository ---
func (p *PostgresStorage) CountTips(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tips`).Scan(&n); err != nil {
		return 0, wrap("storage: count tips", err)
	}
	return n, nil
}

func (p *PostgresStorage) SeedTips(ctx context.Context, tips []internal.Tip) error {
	batch := &pgx.Batch{}
	for _, t := range tips {
		batch.Queue(`INSERT INTO tips (id, title, body) VALUES ($1, $2, $3) ON CONFLICT (title) DO NOTHING`, newID(), t.Title, t.Body)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		p.logger.Errorf("failed to seed tips: %v", err)
		return wrap("storage: seed tips", err)
	}
	return nil
}

func (p *PostgresStorage) ListTips(ctx context.Context, limit int) ([]internal.Tip, error) {
	var lim any = limit
	if limit <= 0 {
		lim = nil // LIMIT NULL reads every row
	}
	rows, err := p.pool.Query(ctx, `SELECT id, title, body FROM tips ORDER BY id LIMIT $1`, lim)
	if err != nil {
		return nil, wrap("storage: list tips", err)
	}
	tips, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (internal.Tip, error) {
		var t internal.Tip
		err := row.Scan(&t.ID, &t.Title, &t.Body)
		return t, err
	})
	if err != nil {
		return nil, wrap("storage: scan tips", err)
	}
	return tips, nil
}

// --- Compile-time assertions ---
var _ Store = (*PostgresStorage)(nil)
