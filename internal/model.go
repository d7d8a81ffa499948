package internal

import "time"

// DateLayout is the wire and storage format of calendar days.
const DateLayout = "2006-01-02"

const (
	GoalQuit   = "quit"
	GoalReduce = "reduce"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Country   *string   `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

type Plan struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	GoalType               string    `json:"goal_type"` // quit, reduce
	StartDate              string    `json:"start_date"`
	TargetDate             *string   `json:"target_date"`
	BaselinePortionsPerDay *float64  `json:"baseline_portions_per_day"`
	TargetPortionsPerDay   *float64  `json:"target_portions_per_day"`
	CreatedAt              time.Time `json:"created_at"`
}

type Checkin struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Date         string    `json:"date"` // YYYY-MM-DD, empty when the record has none
	NicotineFree bool      `json:"nicotine_free"`
	PortionsUsed *float64  `json:"portions_used"`
	CravingLevel *int      `json:"craving_level"` // 1–10 scale
	Note         *string   `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Tip struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}
