package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewFileStorage(t.TempDir(), internal.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

const validID = "65a1f0c2e4b0a1b2c3d4e5f6"

func TestValidateCreateUserRequest(t *testing.T) {
	long := strings.Repeat("x", 5000)
	u, err := ValidateCreateUserRequest(&CreateUserRequest{Name: "  Alex  ", Email: &long, Country: &long})
	require.NoError(t, err)
	assert.Equal(t, "  Alex  ", u.Name, "name is stored as sent")
	assert.Equal(t, long, *u.Email)
	assert.Equal(t, long, *u.Country)

	u, err = ValidateCreateUserRequest(&CreateUserRequest{Name: long})
	require.NoError(t, err)
	assert.Len(t, u.Name, 5000)

	_, err = ValidateCreateUserRequest(&CreateUserRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, internal.ErrValidation)
	assert.Equal(t, "name is required", err.Error())
}

func TestValidateCreatePlanRequest(t *testing.T) {
	p, err := ValidateCreatePlanRequest(&CreatePlanRequest{UserID: validID, StartDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, internal.GoalQuit, p.GoalType)

	tests := []struct {
		name string
		req  CreatePlanRequest
		msg  string
	}{
		{"bad user id", CreatePlanRequest{UserID: "123", StartDate: "2024-01-01"}, "Invalid user_id"},
		{"missing start", CreatePlanRequest{UserID: validID}, "start_date is required"},
		{"bad start", CreatePlanRequest{UserID: validID, StartDate: "01/02/2024"}, "start_date must be a date (YYYY-MM-DD)"},
		{"bad goal", CreatePlanRequest{UserID: validID, StartDate: "2024-01-01", GoalType: "moderate"}, "goal_type must be one of: quit, reduce"},
		{"negative target", CreatePlanRequest{UserID: validID, StartDate: "2024-01-01", TargetPortionsPerDay: floatPtr(-1)}, "target_portions_per_day must be at least 0"},
		{"bad target date", CreatePlanRequest{UserID: validID, StartDate: "2024-01-01", TargetDate: strPtr("soon")}, "target_date must be a date (YYYY-MM-DD)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateCreatePlanRequest(&tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, internal.ErrValidation)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestValidateCheckinRequest(t *testing.T) {
	c, err := ValidateCheckinRequest(&CheckinRequest{UserID: validID, Date: "2024-01-10", NicotineFree: boolPtr(false), PortionsUsed: floatPtr(0), CravingLevel: intPtr(10)})
	require.NoError(t, err)
	assert.False(t, c.NicotineFree)
	require.NotNil(t, c.PortionsUsed)
	assert.Zero(t, *c.PortionsUsed)

	note := strings.Repeat("n", 2001)
	c, err = ValidateCheckinRequest(&CheckinRequest{UserID: validID, Date: "2024-01-10", NicotineFree: boolPtr(true), Note: &note})
	require.NoError(t, err)
	require.NotNil(t, c.Note)
	assert.Len(t, *c.Note, 2001)

	tests := []struct {
		name string
		req  CheckinRequest
		msg  string
	}{
		{"missing nicotine_free", CheckinRequest{UserID: validID, Date: "2024-01-10"}, "nicotine_free is required"},
		{"craving too high", CheckinRequest{UserID: validID, Date: "2024-01-10", NicotineFree: boolPtr(true), CravingLevel: intPtr(11)}, "craving_level must be between 1 and 10"},
		{"craving zero", CheckinRequest{UserID: validID, Date: "2024-01-10", NicotineFree: boolPtr(true), CravingLevel: intPtr(0)}, "craving_level must be between 1 and 10"},
		{"negative portions", CheckinRequest{UserID: validID, Date: "2024-01-10", NicotineFree: boolPtr(true), PortionsUsed: floatPtr(-0.5)}, "portions_used must be at least 0"},
		{"missing date", CheckinRequest{UserID: validID, NicotineFree: boolPtr(true)}, "date is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateCheckinRequest(&tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, internal.ErrValidation)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestParseLimit(t *testing.T) {
	n, err := ParseLimit("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCheckinLimit, n)

	n, err = ParseLimit("365")
	require.NoError(t, err)
	assert.Equal(t, 365, n)

	for _, raw := range []string{"0", "366", "-1", "ten", "1.5"} {
		_, err := ParseLimit(raw)
		assert.ErrorIs(t, err, internal.ErrValidation, raw)
	}
}

func TestCreatePlanAndCheckinRequireUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := CreatePlan(ctx, store, &internal.Plan{UserID: validID, GoalType: internal.GoalQuit, StartDate: "2024-01-01"})
	assert.ErrorIs(t, err, internal.ErrNotFound)
	_, err = SaveCheckin(ctx, store, &internal.Checkin{UserID: validID, Date: "2024-01-01"})
	assert.ErrorIs(t, err, internal.ErrNotFound)

	uid, err := CreateUser(ctx, store, &internal.User{Name: "Kim"})
	require.NoError(t, err)

	pid, err := CreatePlan(ctx, store, &internal.Plan{UserID: uid, GoalType: internal.GoalReduce, StartDate: "2024-01-01", TargetPortionsPerDay: floatPtr(10)})
	require.NoError(t, err)
	plan, err := CurrentPlan(ctx, store, uid)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, pid, plan.ID)

	first, err := SaveCheckin(ctx, store, &internal.Checkin{UserID: uid, Date: "2024-01-10", PortionsUsed: floatPtr(8)})
	require.NoError(t, err)
	second, err := SaveCheckin(ctx, store, &internal.Checkin{UserID: uid, Date: "2024-01-10", PortionsUsed: floatPtr(8)})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list, err := ListCheckins(ctx, store, uid, DefaultCheckinLimit)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	summary, err := GetSummary(ctx, store, uid, day("2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalCheckins)
	require.NotNil(t, summary.AdherencePercent)
	assert.Equal(t, 20.0, *summary.AdherencePercent)
}

func TestGetSummaryRejectsBadID(t *testing.T) {
	_, err := GetSummary(context.Background(), newTestStore(t), "nope", day("2024-01-10"))
	assert.ErrorIs(t, err, internal.ErrValidation)
}

func TestListTipsSeedsOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := ListTips(ctx, store)
	require.NoError(t, err)
	require.Len(t, first, len(DefaultTips))
	assert.Equal(t, DefaultTips[0].Title, first[0].Title)

	second, err := ListTips(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n, err := store.CountTips(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

type failingTips struct{ storage.TipRepository }

func (failingTips) CountTips(context.Context) (int64, error) {
	return 0, errors.New("boom")
}

func TestListTipsPropagatesStoreErrors(t *testing.T) {
	_, err := ListTips(context.Background(), failingTips{})
	assert.EqualError(t, err, "boom")
}

func strPtr(s string) *string { return &s }
