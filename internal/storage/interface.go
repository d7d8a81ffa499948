package storage

import (
	"context"

	"github.com/yourname/snusquit/internal"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *internal.User) (string, error)
	UserExists(ctx context.Context, id string) (bool, error)
}

type PlanRepository interface {
	CreatePlan(ctx context.Context, plan *internal.Plan) (string, error)
	// LatestPlan returns the most recently created plan, or nil when the user has none.
	LatestPlan(ctx context.Context, userID string) (*internal.Plan, error)
}

type CheckinRepository interface {
	// UpsertCheckin writes the check-in for (UserID, Date) in one atomic step and
	// returns the id of the stored record.
	UpsertCheckin(ctx context.Context, checkin *internal.Checkin) (string, error)
	// ListCheckins returns check-ins newest date first; limit <= 0 means all.
	ListCheckins(ctx context.Context, userID string, limit int) ([]internal.Checkin, error)
	// CheckinHistory returns every check-in oldest date first.
	CheckinHistory(ctx context.Context, userID string) ([]internal.Checkin, error)
}

type TipRepository interface {
	CountTips(ctx context.Context) (int64, error)
	// SeedTips inserts tips whose title is not stored yet.
	SeedTips(ctx context.Context, tips []internal.Tip) error
	ListTips(ctx context.Context, limit int) ([]internal.Tip, error)
}

type Store interface {
	UserRepository
	PlanRepository
	CheckinRepository
	TipRepository

	Name() string
	// Database names the database, file or directory behind the store.
	Database() string
	Ping(ctx context.Context) error
	Collections(ctx context.Context) ([]string, error)
	// Migrate creates tables and indexes; safe to call repeatedly.
	Migrate(ctx context.Context) error
	Close() error
}

// Collection names shared by every backend.
const (
	CollUser    = "user"
	CollPlan    = "plan"
	CollCheckin = "checkin"
	CollTip     = "tip"
)

var collections = []string{CollUser, CollPlan, CollCheckin, CollTip}
