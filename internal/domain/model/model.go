// Package model contains the competition domain entities passed between layers.
package model

import (
	"time"

	"github.com/okian/salto/internal/domain/points"
)

// ScoreType distinguishes the two judged panels.
type ScoreType string

// Score types submitted by judges.
const (
	DScore ScoreType = "d_score"
	EScore ScoreType = "e_score"
)

// Valid reports whether t is a known score type.
func (t ScoreType) Valid() bool {
	return t == DScore || t == EScore
}

// EventStatus tracks the lifecycle of a competition event.
type EventStatus string

// Event statuses.
const (
	EventScheduled  EventStatus = "scheduled"
	EventInProgress EventStatus = "in_progress"
	EventCompleted  EventStatus = "completed"
	EventCancelled  EventStatus = "cancelled"
)

// Event is one competition, e.g. a national championship session.
type Event struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	EventDate time.Time   `json:"event_date"`
	Location  string      `json:"location,omitempty"`
	Status    EventStatus `json:"status"`
}

// Apparatus is one piece of equipment, e.g. vault or pommel horse.
type Apparatus struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	Discipline string `json:"discipline,omitempty"`
}

// Athlete is a registered competitor.
type Athlete struct {
	ID                 int64  `json:"id"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Country            string `json:"country,omitempty"`
	Club               string `json:"club,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

// Performance is one athlete's attempt at one apparatus within one event.
// (EventID, AthleteID, ApparatusID) is the natural key.
type Performance struct {
	ID          int64 `json:"id"`
	EventID     int64 `json:"event_id"`
	AthleteID   int64 `json:"athlete_id"`
	ApparatusID int64 `json:"apparatus_id"`
	OrderNumber int   `json:"order_number,omitempty"`
}

// Penalty is a named neutral deduction attached to a score submission,
// e.g. {"coach_assistance", 0.500}.
type Penalty struct {
	Name  string   `json:"name"`
	Value points.P `json:"value"`
}

// Score is one judge's submission for one score type at one performance.
// (PerformanceID, JudgeID, ScoreType) is the natural key; resubmission by the
// same judge for the same type overwrites in place.
type Score struct {
	ID            int64     `json:"id"`
	PerformanceID int64     `json:"performance_id"`
	JudgeID       int64     `json:"judge_id"`
	ScoreType     ScoreType `json:"score_type"`
	Value         points.P  `json:"score_value"`
	Penalties     []Penalty `json:"penalties,omitempty"`
	Comments      string    `json:"comments,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// EScoreDetail is the audited E-score aggregation, persisted alongside the
// final score. Keys are fixed so the blob stays statically checkable.
type EScoreDetail struct {
	Scores         []points.P `json:"scores"`
	DroppedHigh    *points.P  `json:"dropped_high,omitempty"`
	DroppedLow     *points.P  `json:"dropped_low,omitempty"`
	AveragedScores []points.P `json:"averaged_scores"`
	Average        points.P   `json:"average"`
}

// CalculationMethodDropHighLow tags final scores computed with the
// deduction-averaging, drop-high/low policy.
const CalculationMethodDropHighLow = "deduction_drop_high_low"

// FinalScore is the single authoritative result for a performance.
// FinalValue is always exactly DScore + EScore - NeutralDeductions.
type FinalScore struct {
	PerformanceID     int64        `json:"performance_id"`
	DScore            points.P     `json:"d_score"`
	EScore            points.P     `json:"e_score"`
	NeutralDeductions points.P     `json:"neutral_deductions"`
	FinalValue        points.P     `json:"final_score"`
	EScoresDetail     EScoreDetail `json:"e_scores_detail"`
	CalculationMethod string       `json:"calculation_method"`
	IsOfficial        bool         `json:"is_official"`
	CalculatedAt      time.Time    `json:"calculated_at"`
	PublishedAt       *time.Time   `json:"published_at,omitempty"`
}

// LeaderboardEntry is one row of the ranked projection for an event.
// Score fields are nil until the performance has a FinalScore.
type LeaderboardEntry struct {
	Rank              int        `json:"rank"`
	PerformanceID     int64      `json:"performance_id"`
	EventID           int64      `json:"event_id"`
	Athlete           Athlete    `json:"athlete"`
	Apparatus         Apparatus  `json:"apparatus"`
	DScore            *points.P  `json:"d_score,omitempty"`
	EScore            *points.P  `json:"e_score,omitempty"`
	NeutralDeductions *points.P  `json:"neutral_deductions,omitempty"`
	FinalValue        *points.P  `json:"final_score,omitempty"`
	IsOfficial        bool       `json:"is_official"`
	CalculatedAt      *time.Time `json:"calculated_at,omitempty"`
}
