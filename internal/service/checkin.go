package service

import (
	"context"
	"strconv"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/storage"
)

const (
	DefaultCheckinLimit = 30
	MaxCheckinLimit     = 365
)

type CheckinRequest struct {
	UserID       string   `json:"user_id" validate:"required,objectid"`
	Date         string   `json:"date" validate:"required,date"`
	NicotineFree *bool    `json:"nicotine_free" validate:"required"`
	PortionsUsed *float64 `json:"portions_used" validate:"omitempty,gte=0"`
	CravingLevel *int     `json:"craving_level" validate:"omitempty,craving"`
	Note         *string  `json:"note"`
}

func ValidateCheckinRequest(req *CheckinRequest) (*internal.Checkin, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return &internal.Checkin{
		UserID:       req.UserID,
		Date:         req.Date,
		NicotineFree: *req.NicotineFree,
		PortionsUsed: req.PortionsUsed,
		CravingLevel: req.CravingLevel,
		Note:         req.Note,
	}, nil
}

// SaveCheckin upserts the check-in for (user, date) and returns its id.
func SaveCheckin(ctx context.Context, store storage.Store, checkin *internal.Checkin) (string, error) {
	if err := requireUser(ctx, store, checkin.UserID); err != nil {
		return "", err
	}
	return store.UpsertCheckin(ctx, checkin)
}

func ListCheckins(ctx context.Context, checkins storage.CheckinRepository, userID string, limit int) ([]internal.Checkin, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	return checkins.ListCheckins(ctx, userID, limit)
}

// ParseLimit reads the ?limit= query value: empty means the default, anything
// outside [1, MaxCheckinLimit] is rejected.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultCheckinLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxCheckinLimit {
		return 0, internal.Invalid("limit must be an integer between 1 and %d", MaxCheckinLimit)
	}
	return n, nil
}
