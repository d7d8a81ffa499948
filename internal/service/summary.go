package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/storage"
)

// windowDays is the length of the trailing window, today included.
const windowDays = 7

type Last7 struct {
	Days         int `json:"days"`
	NicotineFree int `json:"nicotine_free"`
}

type Summary struct {
	TotalCheckins    int      `json:"total_checkins"`
	NicotineFreeDays int      `json:"nicotine_free_days"`
	CurrentStreak    int      `json:"current_streak"`
	AvgPortions      float64  `json:"avg_portions"`
	Last7            Last7    `json:"last7"`
	AdherencePercent *float64 `json:"adherence_percent"`
}

// GetSummary loads the history and current plan for userID and reduces them.
func GetSummary(ctx context.Context, store storage.Store, userID string, today time.Time) (*Summary, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	checkins, err := store.CheckinHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := store.LatestPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	s := CalculateSummary(checkins, plan, today)
	return &s, nil
}

// CalculateSummary is a pure reduction over checkins, which should be in
// ascending date order. Only the calendar day of today is used.
func CalculateSummary(checkins []internal.Checkin, plan *internal.Plan, today time.Time) Summary {
	day := civilDay(today)
	s := Summary{TotalCheckins: len(checkins)}

	byDate := make(map[string]internal.Checkin, len(checkins))
	total := 0.0
	for _, c := range checkins {
		if c.NicotineFree {
			s.NicotineFreeDays++
		}
		total += portions(c)
		if c.Date != "" {
			byDate[c.Date] = c
		}
	}
	if len(checkins) > 0 {
		s.AvgPortions = round(total/float64(len(checkins)), 2)
	}

	for d := day; ; d = d.AddDate(0, 0, -1) {
		c, ok := byDate[d.Format(internal.DateLayout)]
		if !ok || !c.NicotineFree {
			break
		}
		s.CurrentStreak++
	}

	start := day.AddDate(0, 0, -(windowDays - 1))
	windowTotal := 0.0
	for _, c := range checkins {
		d, ok := parseDay(c.Date)
		if !ok || d.Before(start) || d.After(day) {
			continue
		}
		s.Last7.Days++
		if c.NicotineFree {
			s.Last7.NicotineFree++
		}
		windowTotal += portions(c)
	}

	if plan != nil && plan.GoalType == internal.GoalReduce &&
		plan.TargetPortionsPerDay != nil && *plan.TargetPortionsPerDay > 0 {
		avg := 0.0
		if s.Last7.Days > 0 {
			avg = windowTotal / float64(s.Last7.Days)
		}
		adherence := math.Max(0, round((1-avg/(*plan.TargetPortionsPerDay))*100, 1))
		s.AdherencePercent = &adherence
	}
	return s
}

func portions(c internal.Checkin) float64 {
	if c.PortionsUsed == nil {
		return 0
	}
	return *c.PortionsUsed
}

// civilDay drops the clock and zone of t, keeping its calendar day.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDay reports false for absent or malformed dates so they never land in
// a window.
func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(internal.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// round rounds x to places decimals, ties to even on the exact binary value.
func round(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}
