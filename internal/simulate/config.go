package simulate

import "time"

// Config holds configuration for the competition simulation.
type Config struct {
	BaseURL     string        // Base URL of the service
	Athletes    int           // Number of athletes to register
	DJudges     int           // Difficulty judges per panel
	EJudges     int           // Execution judges per panel
	Workers     int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	PublishTop  int           // Performances to publish per apparatus
	SettleDelay time.Duration // Wait for async recalculation to drain
	Verbose     bool          // Enable verbose logging
}

// Stats holds simulation statistics.
type Stats struct {
	AthletesRegistered     int
	PerformancesRegistered int
	ScoresSubmitted        int
	ScoresSuccessful       int
	ScoresFailed           int
	LeaderboardEntries     int
	Published              int
	OrderingViolations     int
	StartTime              time.Time
	EndTime                time.Time
	Duration               time.Duration
}

// Wire shapes mirrored from the API.

type eventRequest struct {
	Name      string `json:"name"`
	EventDate string `json:"event_date"`
	Status    string `json:"status"`
}

type apparatusRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type athleteRequest struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Country            string `json:"country"`
	RegistrationNumber string `json:"registration_number"`
}

type performanceRequest struct {
	EventID     int64 `json:"event_id"`
	AthleteID   int64 `json:"athlete_id"`
	ApparatusID int64 `json:"apparatus_id"`
	OrderNumber int   `json:"order_number"`
}

type penaltyPayload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type scoreRequest struct {
	PerformanceID int64            `json:"performance_id"`
	JudgeID       int64            `json:"judge_id"`
	ScoreType     string           `json:"score_type"`
	Value         float64          `json:"score_value"`
	Penalties     []penaltyPayload `json:"penalties,omitempty"`
}

type publishRequest struct {
	PerformanceIDs []int64 `json:"performance_ids"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type leaderboardEntry struct {
	Rank       int      `json:"rank"`
	FinalScore *float64 `json:"final_score"`
	IsOfficial bool     `json:"is_official"`
	Athlete    struct {
		LastName string `json:"last_name"`
	} `json:"athlete"`
	PerformanceID int64 `json:"performance_id"`
}
