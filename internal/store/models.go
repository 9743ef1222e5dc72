package store

import "time"

// Auth holds OAuth tokens for the activity source.
type Auth struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Profile is the singleton athlete row: threshold settings plus the latest
// computed fitness snapshot.
type Profile struct {
	FTP               float64
	WeightKg          float64
	CTL               float64
	ATL               float64
	TSB               float64
	RiderType         string
	FitnessComputedAt time.Time
}

// Activity is one stored ride with its computed training metrics.
// Pointer fields are absent when the source did not report them.
type Activity struct {
	ID                   int64
	ExternalID           string
	Source               string
	Name                 string
	Type                 string
	StartDate            time.Time
	DurationSeconds      int
	Distance             float64
	TotalElevationGain   float64
	AverageWatts         *float64
	WeightedAverageWatts *float64
	MaxWatts             *float64
	DeviceWatts          bool
	Trainer              bool
	NormalizedPower      *float64
	IntensityFactor      *float64
	TSS                  *float64
	SamplesSynced        bool
	ZoneSeconds          [7]int
}

// PowerSample is one 1 Hz power reading of a ride.
type PowerSample struct {
	TimeOffset int
	Watts      float64
}

// PowerRecord is the all-time best power for one canonical duration.
type PowerRecord struct {
	DurationKey string
	Watts       float64
	AchievedAt  time.Time
}

// Program is a stored training program. MacroPlanJSON holds the serialized
// plan.MacroPlan.
type Program struct {
	ID              string
	GoalType        string
	GoalDescription string
	TargetDate      string
	HoursPerWeek    float64
	SessionsPerWeek int
	TotalWeeks      int
	MacroPlanJSON   string
	Status          string
	CreatedAt       time.Time
}

// Program and week statuses.
const (
	ProgramActive    = "active"
	ProgramCompleted = "completed"
	ProgramAbandoned = "abandoned"

	WeekPlanned   = "planned"
	WeekActive    = "active"
	WeekCompleted = "completed"
	WeekSkipped   = "skipped"
)

// WeekPlan is one planned week of a program. Actual fields stay nil until
// the week is completed.
type WeekPlan struct {
	ID              int64
	ProgramID       string
	WeekNumber      int
	Phase           string
	IsRecovery      bool
	TargetTSS       float64
	TargetSessions  int
	TargetHours     float64
	ActualTSS       *float64
	ActualSessions  *int
	ActualHours     *float64
	ActualCTL       *float64
	Status          string
	Instructions    string
	AdaptationNotes string
}

// PlannedWorkout is one session inside a week plan.
type PlannedWorkout struct {
	ID                int64
	WeekPlanID        int64
	DayIndex          int
	WorkoutType       string
	TargetTSS         float64
	TargetDurationMin int
	StepsText         string
	Status            string
}
