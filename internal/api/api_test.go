package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/config"
	"github.com/yourname/snusquit/internal/storage"
)

type testApp struct {
	store storage.Store
	cfg   *config.Config
	now   time.Time
}

func (a *testApp) Logger() internal.Logger { return internal.NopLogger() }
func (a *testApp) Store() storage.Store    { return a.store }
func (a *testApp) Config() *config.Config  { return a.cfg }
func (a *testApp) Now() time.Time          { return a.now }

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.NewFileStorage(dir, internal.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &testApp{
		store: s,
		cfg:   &config.Config{DBType: config.BackendFile, DataDir: dir, StoreTimeout: time.Second, Location: time.UTC},
		now:   time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Error internal.AppError `json:"error"`
}

func createUser(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/users", `{"name":"Test User","country":"SE"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[map[string]string](t, w)["id"]
	require.Len(t, id, 24)
	return id
}

func TestMetaEndpoints(t *testing.T) {
	r := NewRouter(newTestApp(t))

	w := do(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"SnusQuit Backend is running"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, r, http.MethodGet, "/api/hello", "")
	assert.JSONEq(t, `{"message":"Hello from the backend API!"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := NewRouter(newTestApp(t))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	r := NewRouter(newTestApp(t))
	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPostUser_Invalid(t *testing.T) {
	r := NewRouter(newTestApp(t))

	w := do(t, r, http.MethodPost, "/api/users", `{"email":"x@y.z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, 400, body.Error.Code)
	assert.Equal(t, "name is required", body.Error.Message)

	w = do(t, r, http.MethodPost, "/api/users", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON body", decode[errorBody](t, w).Error.Message)
}

func TestPostPlan(t *testing.T) {
	r := NewRouter(newTestApp(t))
	uid := createUser(t, r)

	w := do(t, r, http.MethodPost, "/api/plans", `{"user_id":"bad","start_date":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user_id", decode[errorBody](t, w).Error.Message)

	w = do(t, r, http.MethodPost, "/api/plans", `{"user_id":"65a1f0c2e4b0a1b2c3d4e5f6","start_date":"2024-01-01"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decode[errorBody](t, w).Error.Message)

	w = do(t, r, http.MethodGet, "/api/plan/"+uid, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = do(t, r, http.MethodPost, "/api/plans", fmt.Sprintf(`{"user_id":%q,"goal_type":"reduce","start_date":"2024-01-01","target_portions_per_day":10}`, uid))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pid := decode[map[string]string](t, w)["id"]

	w = do(t, r, http.MethodGet, "/api/plan/"+uid, "")
	require.Equal(t, http.StatusOK, w.Code)
	plan := decode[map[string]any](t, w)
	assert.Equal(t, pid, plan["id"])
	assert.Equal(t, "reduce", plan["goal_type"])
	assert.Equal(t, "2024-01-01", plan["start_date"])
	assert.Nil(t, plan["target_date"])
	assert.Equal(t, 10.0, plan["target_portions_per_day"])
}

func TestCheckinsAndSummary(t *testing.T) {
	r := NewRouter(newTestApp(t))
	uid := createUser(t, r)

	w := do(t, r, http.MethodPost, "/api/plans", fmt.Sprintf(`{"user_id":%q,"goal_type":"reduce","start_date":"2024-01-01","target_portions_per_day":10}`, uid))
	require.Equal(t, http.StatusOK, w.Code)

	post := func(date string, free bool, portions float64) string {
		w := do(t, r, http.MethodPost, "/api/checkins",
			fmt.Sprintf(`{"user_id":%q,"date":%q,"nicotine_free":%t,"portions_used":%g}`, uid, date, free, portions))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode[map[string]string](t, w)["id"]
	}
	post("2024-01-07", false, 12)
	post("2024-01-08", true, 8)
	first := post("2024-01-09", true, 8)
	post("2024-01-10", true, 4)
	again := post("2024-01-09", true, 8)
	assert.Equal(t, first, again)

	w = do(t, r, http.MethodGet, "/api/checkins/"+uid+"?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]internal.Checkin](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-10", list[0].Date)
	assert.Equal(t, "2024-01-09", list[1].Date)

	w = do(t, r, http.MethodGet, "/api/checkins/"+uid, "")
	assert.Len(t, decode[[]internal.Checkin](t, w), 4)

	w = do(t, r, http.MethodGet, "/api/summary/"+uid, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"total_checkins": 4,
		"nicotine_free_days": 3,
		"current_streak": 3,
		"avg_portions": 8,
		"last7": {"days": 4, "nicotine_free": 3},
		"adherence_percent": 20
	}`, w.Body.String())
}

func TestPostCheckin_Invalid(t *testing.T) {
	r := NewRouter(newTestApp(t))
	uid := createUser(t, r)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"craving out of range", fmt.Sprintf(`{"user_id":%q,"date":"2024-01-10","nicotine_free":true,"craving_level":11}`, uid), 400, "craving_level must be between 1 and 10"},
		{"missing nicotine_free", fmt.Sprintf(`{"user_id":%q,"date":"2024-01-10"}`, uid), 400, "nicotine_free is required"},
		{"bad date", fmt.Sprintf(`{"user_id":%q,"date":"yesterday","nicotine_free":true}`, uid), 400, "date must be a date (YYYY-MM-DD)"},
		{"wrong type", fmt.Sprintf(`{"user_id":%q,"date":"2024-01-10","nicotine_free":"yes"}`, uid), 400, "Invalid JSON body"},
		{"unknown user", `{"user_id":"65a1f0c2e4b0a1b2c3d4e5f6","date":"2024-01-10","nicotine_free":true}`, 404, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/checkins", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decode[errorBody](t, w).Error.Message)
		})
	}
}

func TestGetCheckins_BadInput(t *testing.T) {
	r := NewRouter(newTestApp(t))
	uid := createUser(t, r)

	for _, q := range []string{"0", "366", "abc"} {
		w := do(t, r, http.MethodGet, "/api/checkins/"+uid+"?limit="+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	w := do(t, r, http.MethodGet, "/api/checkins/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodGet, "/api/summary/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodGet, "/api/plan/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTips_SeedsOnce(t *testing.T) {
	r := NewRouter(newTestApp(t))

	w := do(t, r, http.MethodGet, "/api/tips", "")
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[[]internal.Tip](t, w)
	require.Len(t, first, 4)
	assert.Equal(t, "Delay the urge", first[0].Title)

	w = do(t, r, http.MethodGet, "/api/tips", "")
	assert.Equal(t, first, decode[[]internal.Tip](t, w))
}

func TestNoStore(t *testing.T) {
	r := NewRouter(&testApp{cfg: &config.Config{DBType: config.BackendMongo, StoreTimeout: time.Second}})

	w := do(t, r, http.MethodPost, "/api/users", `{"name":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Database not available", decode[errorBody](t, w).Error.Message)

	w = do(t, r, http.MethodGet, "/api/summary/65a1f0c2e4b0a1b2c3d4e5f6", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, r, http.MethodGet, "/api/tips", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"title":"Stay hydrated","body":"Sip water when a craving hits."},
		{"title":"Change routines","body":"Avoid triggers like coffee breaks with snus."}
	]`, w.Body.String())

	w = do(t, r, http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, w.Code)
	diag := decode[map[string]any](t, w)
	assert.Equal(t, "Available but not initialized", diag["database"])
	assert.Equal(t, "Not Connected", diag["connection_status"])
}

// unavailableStore fails every tip call as an unreachable database would.
type unavailableStore struct{ storage.Store }

func (unavailableStore) CountTips(context.Context) (int64, error) {
	return 0, fmt.Errorf("count tips: %w", internal.ErrStoreUnavailable)
}

func TestGetTips_FallbackWhenUnreachable(t *testing.T) {
	r := NewRouter(&testApp{store: unavailableStore{}, cfg: &config.Config{StoreTimeout: time.Second}})
	w := do(t, r, http.MethodGet, "/api/tips", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]internal.Tip](t, w), 2)
}

func TestDiagnostics(t *testing.T) {
	app := newTestApp(t)
	r := NewRouter(app)
	createUser(t, r)

	w := do(t, r, http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, w.Code)
	diag := decode[map[string]any](t, w)
	assert.Equal(t, "Connected & Working", diag["database"])
	assert.Equal(t, "Connected", diag["connection_status"])
	assert.Equal(t, "file", diag["storage_backend"])
	assert.Equal(t, "Set", diag["database_url"])
	assert.Contains(t, diag["collections"], storage.CollUser)
}

func TestHandleErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", internal.Invalid("Invalid user_id"), http.StatusBadRequest, "Invalid user_id"},
		{"not found", internal.NotFound("Plan"), http.StatusNotFound, "Plan not found"},
		{"unavailable", internal.ErrStoreUnavailable, http.StatusServiceUnavailable, "Database not available"},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			HandleError(c, internal.NopLogger(), tt.err, "test")
			assert.Equal(t, tt.status, w.Code)
			body := decode[errorBody](t, w)
			assert.Equal(t, tt.status, body.Error.Code)
			assert.Equal(t, tt.msg, body.Error.Message)
		})
	}
}
