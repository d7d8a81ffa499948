package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourname/snusquit/internal"
	_ "modernc.org/sqlite"
)

type migration struct {
	version int
	name    string
	sql     string
}

var sqliteMigrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT,
  country TEXT,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  goal_type TEXT NOT NULL CHECK(goal_type IN ('quit', 'reduce')),
  start_date TEXT NOT NULL,
  target_date TEXT,
  baseline_portions_per_day REAL,
  target_portions_per_day REAL,
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_user_created ON plans(user_id, created_at);

CREATE TABLE IF NOT EXISTS checkins (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  date TEXT,
  nicotine_free INTEGER NOT NULL,
  portions_used REAL,
  craving_level INTEGER,
  note TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  UNIQUE(user_id, date)
);
`,
	},
	{
		version: 2,
		name:    "tips",
		sql: `
CREATE TABLE IF NOT EXISTS tips (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL UNIQUE,
  body TEXT NOT NULL
);
`,
	},
}

type SQLiteStorage struct {
	db     *sql.DB
	path   string
	logger internal.Logger
}

func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping sqlite database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set busy timeout: %w", err)
	}
	return &SQLiteStorage{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) Database() string { return s.path }

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return wrap("storage: ping sqlite", s.db.PingContext(ctx))
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range sqliteMigrations {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
		s.logger.Infof("storage: applied sqlite migration %d (%s)", m.version, m.name)
	}
	return nil
}

func (s *SQLiteStorage) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name LIMIT 10`)
	if err != nil {
		return nil, wrap("storage: list tables", err)
	}
	defer rows.Close()
	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrap("storage: scan table name", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// --- UserRepository ---
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *internal.User) (string, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx, `INSERT INTO users(id, name, email, country, created_at) VALUES(?, ?, ?, ?, ?)`,
		id, user.Name, user.Email, user.Country, formatTimestamp(time.Now()))
	if err != nil {
		return "", wrap("storage: insert user", err)
	}
	return id, nil
}

func (s *SQLiteStorage) UserExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE id = ?`, id).Scan(&n); err != nil {
		return false, wrap("storage: lookup user", err)
	}
	return n > 0, nil
}

// --- PlanRepository ---
func (s *SQLiteStorage) CreatePlan(ctx context.Context, plan *internal.Plan) (string, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO plans(id, user_id, goal_type, start_date, target_date, baseline_portions_per_day, target_portions_per_day, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, id, plan.UserID, plan.GoalType, plan.StartDate, plan.TargetDate, plan.BaselinePortionsPerDay, plan.TargetPortionsPerDay, formatTimestamp(time.Now()))
	if err != nil {
		return "", wrap("storage: insert plan", err)
	}
	return id, nil
}

func (s *SQLiteStorage) LatestPlan(ctx context.Context, userID string) (*internal.Plan, error) {
	var (
		pl        internal.Plan
		target    sql.NullString
		baseline  sql.NullFloat64
		targetPPD sql.NullFloat64
		created   string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, user_id, goal_type, start_date, target_date, baseline_portions_per_day, target_portions_per_day, created_at
FROM plans
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 1
`, userID).Scan(&pl.ID, &pl.UserID, &pl.GoalType, &pl.StartDate, &target, &baseline, &targetPPD, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("storage: latest plan", err)
	}
	pl.TargetDate = nullString(target)
	pl.BaselinePortionsPerDay = nullFloat(baseline)
	pl.TargetPortionsPerDay = nullFloat(targetPPD)
	if pl.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	return &pl, nil
}

// --- CheckinRepository ---
func (s *SQLiteStorage) UpsertCheckin(ctx context.Context, checkin *internal.Checkin) (string, error) {
	now := formatTimestamp(time.Now())
	var id string
	err := s.db.QueryRowContext(ctx, `
INSERT INTO checkins(id, user_id, date, nicotine_free, portions_used, craving_level, note, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, date) DO UPDATE SET
  nicotine_free=excluded.nicotine_free,
  portions_used=excluded.portions_used,
  craving_level=excluded.craving_level,
  note=excluded.note,
  updated_at=excluded.updated_at
RETURNING id
`, newID(), checkin.UserID, checkin.Date, checkin.NicotineFree, checkin.PortionsUsed, checkin.CravingLevel, checkin.Note, now, now).Scan(&id)
	if err != nil {
		return "", wrap("storage: upsert checkin", err)
	}
	return id, nil
}

func (s *SQLiteStorage) ListCheckins(ctx context.Context, userID string, limit int) ([]internal.Checkin, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	return s.queryCheckins(ctx, `
SELECT id, user_id, date, nicotine_free, portions_used, craving_level, note, created_at, updated_at
FROM checkins
WHERE user_id = ?
ORDER BY date DESC, id DESC
LIMIT ?
`, userID, limit)
}

func (s *SQLiteStorage) CheckinHistory(ctx context.Context, userID string) ([]internal.Checkin, error) {
	return s.queryCheckins(ctx, `
SELECT id, user_id, date, nicotine_free, portions_used, craving_level, note, created_at, updated_at
FROM checkins
WHERE user_id = ?
ORDER BY date ASC, id ASC
`, userID)
}

func (s *SQLiteStorage) queryCheckins(ctx context.Context, q string, args ...any) ([]internal.Checkin, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap("storage: query checkins", err)
	}
	defer rows.Close()

	checkins := make([]internal.Checkin, 0)
	for rows.Next() {
		var (
			c                internal.Checkin
			date, note       sql.NullString
			portions         sql.NullFloat64
			craving          sql.NullInt64
			created, updated string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &date, &c.NicotineFree, &portions, &craving, &note, &created, &updated); err != nil {
			return nil, wrap("storage: scan checkin", err)
		}
		c.Date = date.String
		c.PortionsUsed = nullFloat(portions)
		c.CravingLevel = nullInt(craving)
		c.Note = nullString(note)
		if c.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTimestamp(updated); err != nil {
			return nil, err
		}
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// --- TipRepository ---
func (s *SQLiteStorage) CountTips(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tips`).Scan(&n); err != nil {
		return 0, wrap("storage: count tips", err)
	}
	return n, nil
}

func (s *SQLiteStorage) SeedTips(ctx context.Context, tips []internal.Tip) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("storage: begin seed tips", err)
	}
	defer tx.Rollback()
	for _, t := range tips {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tips(id, title, body) VALUES(?, ?, ?)`, newID(), t.Title, t.Body); err != nil {
			return wrap(fmt.Sprintf("storage: seed tip %q", t.Title), err)
		}
	}
	return wrap("storage: commit seed tips", tx.Commit())
}

func (s *SQLiteStorage) ListTips(ctx context.Context, limit int) ([]internal.Tip, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, body FROM tips ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, wrap("storage: list tips", err)
	}
	defer rows.Close()
	tips := make([]internal.Tip, 0)
	for rows.Next() {
		var t internal.Tip
		if err := rows.Scan(&t.ID, &t.Title, &t.Body); err != nil {
			return nil, wrap("storage: scan tip", err)
		}
		tips = append(tips, t)
	}
	return tips, rows.Err()
}

// timestampLayout is fixed-width so created_at sorts correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("storage: parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// --- Compile-time assertions ---
var _ Store = (*SQLiteStorage)(nil)
