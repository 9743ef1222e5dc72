package service

import (
	"context"
	"testing"
	"time"

	"cyclecoach/internal/plan"
	"cyclecoach/internal/store"
	"cyclecoach/internal/strava"
)

func TestConvertRide(t *testing.T) {
	ride := strava.Activity{
		ID:                   42,
		Name:                 "Morning Ride",
		Type:                 "Ride",
		StartDate:            time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		MovingTime:           3600,
		Distance:             30000,
		AverageWatts:         180,
		WeightedAverageWatts: 195,
		MaxWatts:             650,
		DeviceWatts:          true,
	}

	a := convertRide(ride)
	if a.ExternalID != "strava-42" {
		t.Errorf("ExternalID = %q, want strava-42", a.ExternalID)
	}
	if a.AverageWatts == nil || *a.AverageWatts != 180 {
		t.Errorf("AverageWatts = %v, want 180", a.AverageWatts)
	}
	if a.WeightedAverageWatts == nil || *a.WeightedAverageWatts != 195 {
		t.Errorf("WeightedAverageWatts = %v, want 195", a.WeightedAverageWatts)
	}

	id, err := stravaActivityID(a.ExternalID)
	if err != nil || id != 42 {
		t.Errorf("stravaActivityID(%q) = %d, %v", a.ExternalID, id, err)
	}

	noPower := convertRide(strava.Activity{ID: 7, Type: "Ride"})
	if noPower.AverageWatts != nil || noPower.MaxWatts != nil {
		t.Error("zero power fields must stay nil")
	}
}

func TestStravaActivityIDRejectsOtherSources(t *testing.T) {
	if _, err := stravaActivityID("fit-1700000000"); err == nil {
		t.Error("expected error for non-strava external ID")
	}
}

func TestResampleToSeconds(t *testing.T) {
	s := &strava.Streams{
		Time:  &strava.StreamData[int]{Data: []int{0, 1, 2, 5}},
		Watts: &strava.StreamData[float64]{Data: []float64{100, 110, 120, 150}},
	}

	watts := resampleToSeconds(s)
	if len(watts) != 6 {
		t.Fatalf("len = %d, want 6", len(watts))
	}
	if watts[0] != 100 || watts[2] != 120 || watts[5] != 150 {
		t.Errorf("sample values wrong: %v", watts)
	}
	// auto-pause gap reads as zero
	if watts[3] != 0 || watts[4] != 0 {
		t.Errorf("gap seconds must be zero power: %v", watts)
	}
}

func TestSampleWatts(t *testing.T) {
	samples := []store.PowerSample{
		{TimeOffset: 0, Watts: 200},
		{TimeOffset: 2, Watts: 220},
	}
	watts := sampleWatts(samples)
	if len(watts) != 3 {
		t.Fatalf("len = %d, want 3", len(watts))
	}
	if watts[1] != 0 || watts[2] != 220 {
		t.Errorf("watts = %v", watts)
	}
}

func TestRideMetricsFallbackChain(t *testing.T) {
	db := store.NewTestDB(t)
	svc := NewSyncService(nil, db, 250, 75)

	wavg := 200.0
	avg := 180.0
	tests := []struct {
		name string
		a    *store.Activity
		want float64
		ok   bool
	}{
		{"weighted average preferred", &store.Activity{WeightedAverageWatts: &wavg, AverageWatts: &avg, DurationSeconds: 3600}, 200, true},
		{"average fallback", &store.Activity{AverageWatts: &avg, DurationSeconds: 3600}, 180, true},
		{"no power", &store.Activity{DurationSeconds: 3600}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np, zoneSeconds, ok := svc.rideMetrics(tt.a)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if np != tt.want {
				t.Errorf("np = %v, want %v", np, tt.want)
			}
			total := 0
			for _, sec := range zoneSeconds {
				total += sec
			}
			if total != tt.a.DurationSeconds {
				t.Errorf("zone seconds total = %d, want %d", total, tt.a.DurationSeconds)
			}
		})
	}
}

func seedProfile(t *testing.T, db *store.DB) {
	t.Helper()
	if err := db.SaveProfile(&store.Profile{FTP: 250, WeightKg: 72, CTL: 45, ATL: 40, TSB: 5}); err != nil {
		t.Fatal(err)
	}
}

func TestProgramLifecycle(t *testing.T) {
	db := store.NewTestDB(t)
	seedProfile(t, db)
	svc := NewProgramService(db, nil)

	goal := plan.Goal{
		Type:            plan.GoalFTPTarget,
		Description:     "Raise FTP to 270",
		TargetDate:      time.Now().AddDate(0, 0, 12*7).Format("2006-01-02"),
		TargetFTP:       270,
		HoursPerWeek:    8,
		SessionsPerWeek: 4,
	}

	program, err := svc.CreateProgram(context.Background(), goal)
	if err != nil {
		t.Fatal(err)
	}
	if program.TotalWeeks < 4 || program.TotalWeeks > 24 {
		t.Errorf("TotalWeeks = %d, out of range", program.TotalWeeks)
	}

	weeks, err := db.ListWeekPlans(program.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(weeks) != program.TotalWeeks {
		t.Errorf("seeded %d weeks, want %d", len(weeks), program.TotalWeeks)
	}

	week1, err := db.GetWeekPlan(program.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if week1.Status != store.WeekActive {
		t.Errorf("week 1 status = %q, want active", week1.Status)
	}
	workouts, err := db.ListWorkouts(week1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != goal.SessionsPerWeek {
		t.Errorf("got %d workouts, want %d", len(workouts), goal.SessionsPerWeek)
	}
	for _, wo := range workouts {
		if wo.StepsText == "" {
			t.Errorf("workout day %d has no steps", wo.DayIndex)
		}
	}

	// A second program abandons the first
	program2, err := svc.CreateProgram(context.Background(), goal)
	if err != nil {
		t.Fatal(err)
	}
	old, err := db.GetProgram(program.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.Status != store.ProgramAbandoned {
		t.Errorf("prior program status = %q, want abandoned", old.Status)
	}
	active, err := db.GetActiveProgram()
	if err != nil {
		t.Fatal(err)
	}
	if active.ID != program2.ID {
		t.Errorf("active program = %s, want %s", active.ID, program2.ID)
	}
}

func TestCompleteWeekAggregatesRides(t *testing.T) {
	db := store.NewTestDB(t)
	seedProfile(t, db)
	svc := NewProgramService(db, nil)

	goal := plan.Goal{
		Type:            plan.GoalBaseBuilding,
		Description:     "Build the base",
		TargetDate:      time.Now().AddDate(0, 0, 8*7).Format("2006-01-02"),
		HoursPerWeek:    6,
		SessionsPerWeek: 3,
	}
	program, err := svc.CreateProgram(context.Background(), goal)
	if err != nil {
		t.Fatal(err)
	}

	tss := 80.0
	for i := 0; i < 3; i++ {
		a := &store.Activity{
			ExternalID:      time.Now().Add(time.Duration(i) * time.Hour).Format("20060102150405.000"),
			Source:          "strava",
			Type:            "Ride",
			StartDate:       time.Now().Add(time.Duration(i*24) * time.Hour),
			DurationSeconds: 3600,
		}
		id, err := db.UpsertActivity(a)
		if err != nil {
			t.Fatal(err)
		}
		if err := db.UpdateActivityMetrics(id, 200, 0.8, tss, [7]int{}); err != nil {
			t.Fatal(err)
		}
	}

	if err := svc.CompleteWeek(program.ID, 1); err != nil {
		t.Fatal(err)
	}

	week, err := db.GetWeekPlan(program.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if week.Status != store.WeekCompleted {
		t.Errorf("status = %q, want completed", week.Status)
	}
	if week.ActualTSS == nil || *week.ActualTSS != 240 {
		t.Errorf("ActualTSS = %v, want 240", week.ActualTSS)
	}
	if week.ActualSessions == nil || *week.ActualSessions != 3 {
		t.Errorf("ActualSessions = %v, want 3", week.ActualSessions)
	}
}

func TestDashboardWithoutProgram(t *testing.T) {
	db := store.NewTestDB(t)
	seedProfile(t, db)

	q := NewQueryService(db, 250, 72)
	d, err := q.Dashboard()
	if err != nil {
		t.Fatal(err)
	}
	if d.Program != nil {
		t.Error("expected no program")
	}
	if len(d.CTLHistory) != ctlHistoryDays {
		t.Errorf("CTLHistory len = %d, want %d", len(d.CTLHistory), ctlHistoryDays)
	}
	if d.Form == "" {
		t.Error("form description missing")
	}
}

func TestCurrentWeekSelection(t *testing.T) {
	weeks := []*store.WeekPlan{
		{WeekNumber: 1, Status: store.WeekCompleted},
		{WeekNumber: 2, Status: store.WeekActive},
		{WeekNumber: 3, Status: store.WeekPlanned},
	}
	if w := currentWeek(weeks); w == nil || w.WeekNumber != 2 {
		t.Errorf("currentWeek = %+v, want week 2", w)
	}

	weeks[1].Status = store.WeekCompleted
	if w := currentWeek(weeks); w == nil || w.WeekNumber != 3 {
		t.Errorf("currentWeek = %+v, want week 3", w)
	}
}

func TestAnalyzeFitnessEmptyDB(t *testing.T) {
	db := store.NewTestDB(t)
	summary, err := AnalyzeFitness(db, 250, 72, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if summary.RidesAnalyzed != 0 {
		t.Errorf("RidesAnalyzed = %d, want 0", summary.RidesAnalyzed)
	}
	if summary.Profile.RiderType != "balanced" {
		t.Errorf("RiderType = %q, want balanced for no data", summary.Profile.RiderType)
	}
	if summary.NarrativeText() == "" {
		t.Error("narrative text empty")
	}
}
