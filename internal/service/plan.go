package service

import (
	"context"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/storage"
)

type CreatePlanRequest struct {
	UserID                 string   `json:"user_id" validate:"required,objectid"`
	GoalType               string   `json:"goal_type" validate:"omitempty,oneof=quit reduce"`
	StartDate              string   `json:"start_date" validate:"required,date"`
	TargetDate             *string  `json:"target_date" validate:"omitempty,date"`
	BaselinePortionsPerDay *float64 `json:"baseline_portions_per_day" validate:"omitempty,gte=0"`
	TargetPortionsPerDay   *float64 `json:"target_portions_per_day" validate:"omitempty,gte=0"`
}

// ValidateCreatePlanRequest checks the body and applies the "quit" default.
func ValidateCreatePlanRequest(req *CreatePlanRequest) (*internal.Plan, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	goal := req.GoalType
	if goal == "" {
		goal = internal.GoalQuit
	}
	return &internal.Plan{
		UserID:                 req.UserID,
		GoalType:               goal,
		StartDate:              req.StartDate,
		TargetDate:             req.TargetDate,
		BaselinePortionsPerDay: req.BaselinePortionsPerDay,
		TargetPortionsPerDay:   req.TargetPortionsPerDay,
	}, nil
}

func CreatePlan(ctx context.Context, store storage.Store, plan *internal.Plan) (string, error) {
	if err := requireUser(ctx, store, plan.UserID); err != nil {
		return "", err
	}
	return store.CreatePlan(ctx, plan)
}

// CurrentPlan returns the user's most recent plan, or nil.
func CurrentPlan(ctx context.Context, plans storage.PlanRepository, userID string) (*internal.Plan, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	return plans.LatestPlan(ctx, userID)
}
