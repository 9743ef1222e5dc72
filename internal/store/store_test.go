package store

import (
	"errors"
	"testing"
	"time"
)

func fptr(v float64) *float64 { return &v }

func testActivity(externalID string, start time.Time) *Activity {
	return &Activity{
		ExternalID:      externalID,
		Source:          "strava",
		Name:            "Morning Ride",
		Type:            "Ride",
		StartDate:       start,
		DurationSeconds: 3600,
		Distance:        30000,
		AverageWatts:    fptr(190),
		MaxWatts:        fptr(750),
		DeviceWatts:     true,
	}
}

func TestAuthRoundTrip(t *testing.T) {
	db := NewTestDB(t)

	if _, err := db.GetAuth(); !errors.Is(err, ErrNoAuth) {
		t.Errorf("GetAuth on empty db = %v, want ErrNoAuth", err)
	}

	auth := &Auth{
		AthleteID:    42,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(6 * time.Hour).Truncate(time.Second),
	}
	if err := db.SaveAuth(auth); err != nil {
		t.Fatalf("SaveAuth: %v", err)
	}

	got, err := db.GetAuth()
	if err != nil {
		t.Fatalf("GetAuth: %v", err)
	}
	if got.AthleteID != 42 || got.AccessToken != "access" || !got.ExpiresAt.Equal(auth.ExpiresAt) {
		t.Errorf("GetAuth = %+v, want %+v", got, auth)
	}

	later := time.Now().Add(12 * time.Hour).Truncate(time.Second)
	if err := db.UpdateTokens("access2", "refresh2", later); err != nil {
		t.Fatalf("UpdateTokens: %v", err)
	}
	got, _ = db.GetAuth()
	if got.AccessToken != "access2" || !got.ExpiresAt.Equal(later) {
		t.Errorf("tokens not updated: %+v", got)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	db := NewTestDB(t)

	if _, err := db.GetProfile(); !errors.Is(err, ErrNoProfile) {
		t.Errorf("GetProfile on empty db = %v, want ErrNoProfile", err)
	}

	p := &Profile{FTP: 250, WeightKg: 72, CTL: 48.5, ATL: 52.1, TSB: -3.6}
	if err := db.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, err := db.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.FTP != 250 || got.WeightKg != 72 || got.CTL != 48.5 {
		t.Errorf("GetProfile = %+v", got)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := db.UpdateFitness(50, 55, -5, now); err != nil {
		t.Fatalf("UpdateFitness: %v", err)
	}
	if err := db.UpdateRiderType("time_trialist"); err != nil {
		t.Fatalf("UpdateRiderType: %v", err)
	}
	got, _ = db.GetProfile()
	if got.CTL != 50 || got.TSB != -5 || got.RiderType != "time_trialist" {
		t.Errorf("fitness update lost: %+v", got)
	}
	if !got.FitnessComputedAt.Equal(now) {
		t.Errorf("FitnessComputedAt = %v, want %v", got.FitnessComputedAt, now)
	}
}

func TestActivityUpsert(t *testing.T) {
	db := NewTestDB(t)
	start := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)

	id, err := db.UpsertActivity(testActivity("ext-1", start))
	if err != nil {
		t.Fatalf("UpsertActivity: %v", err)
	}

	// Same external ID updates in place.
	a2 := testActivity("ext-1", start)
	a2.Name = "Renamed Ride"
	id2, err := db.UpsertActivity(a2)
	if err != nil {
		t.Fatalf("UpsertActivity again: %v", err)
	}
	if id2 != id {
		t.Errorf("upsert created a new row: %d then %d", id, id2)
	}

	got, err := db.GetActivityByExternalID("ext-1")
	if err != nil {
		t.Fatalf("GetActivityByExternalID: %v", err)
	}
	if got.Name != "Renamed Ride" {
		t.Errorf("name = %q, want the updated one", got.Name)
	}
	if !got.StartDate.Equal(start) {
		t.Errorf("start = %v, want %v", got.StartDate, start)
	}
	if got.AverageWatts == nil || *got.AverageWatts != 190 {
		t.Errorf("average watts = %v, want 190", got.AverageWatts)
	}
	if got.NormalizedPower != nil {
		t.Error("metrics should be unset before UpdateActivityMetrics")
	}

	if _, err := db.GetActivity(9999); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("missing activity = %v, want ErrActivityNotFound", err)
	}
}

func TestActivityMetricsAndZones(t *testing.T) {
	db := NewTestDB(t)
	id, err := db.UpsertActivity(testActivity("ext-1", time.Now().UTC()))
	if err != nil {
		t.Fatal(err)
	}

	zones := [7]int{600, 1800, 700, 300, 120, 60, 20}
	if err := db.UpdateActivityMetrics(id, 210.5, 0.84, 71.2, zones); err != nil {
		t.Fatalf("UpdateActivityMetrics: %v", err)
	}

	got, err := db.GetActivity(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.NormalizedPower == nil || *got.NormalizedPower != 210.5 {
		t.Errorf("NP = %v, want 210.5", got.NormalizedPower)
	}
	if got.TSS == nil || *got.TSS != 71.2 {
		t.Errorf("TSS = %v, want 71.2", got.TSS)
	}
	if got.ZoneSeconds != zones {
		t.Errorf("zones = %v, want %v", got.ZoneSeconds, zones)
	}

	if err := db.UpdateActivityMetrics(9999, 1, 1, 1, [7]int{}); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("metrics on missing ride = %v, want ErrActivityNotFound", err)
	}
}

func TestListActivitiesOrdering(t *testing.T) {
	db := NewTestDB(t)
	base := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := db.UpsertActivity(testActivity(
			"ext-"+string(rune('a'+i)), base.AddDate(0, 0, i))); err != nil {
			t.Fatal(err)
		}
	}

	newest, err := db.ListActivities(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(newest) != 2 || !newest[0].StartDate.After(newest[1].StartDate) {
		t.Errorf("ListActivities not newest-first: %v", newest)
	}

	since, err := db.ListActivitiesSince(base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 2 || !since[0].StartDate.Before(since[1].StartDate) {
		t.Errorf("ListActivitiesSince wrong window or order: %v", since)
	}
}

func TestPowerSamples(t *testing.T) {
	db := NewTestDB(t)
	id, err := db.UpsertActivity(testActivity("ext-1", time.Now().UTC()))
	if err != nil {
		t.Fatal(err)
	}

	watts := []float64{150, 160, 170, 400, 165}
	if err := db.SavePowerSamples(id, watts); err != nil {
		t.Fatalf("SavePowerSamples: %v", err)
	}

	got, err := db.GetPowerSamples(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(watts) {
		t.Fatalf("got %d samples, want %d", len(got), len(watts))
	}
	for i := range watts {
		if got[i] != watts[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], watts[i])
		}
	}

	a, _ := db.GetActivity(id)
	if !a.SamplesSynced {
		t.Error("SamplesSynced not set after saving samples")
	}

	// Re-saving replaces rather than appends.
	if err := db.SavePowerSamples(id, watts[:2]); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetPowerSamples(id)
	if len(got) != 2 {
		t.Errorf("re-save left %d samples, want 2", len(got))
	}
}

func TestPowerRecords(t *testing.T) {
	db := NewTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	if err := db.SavePowerRecord(PowerRecord{DurationKey: "20min", Watts: 280, AchievedAt: now}); err != nil {
		t.Fatalf("SavePowerRecord: %v", err)
	}
	if err := db.SavePowerRecord(PowerRecord{DurationKey: "20min", Watts: 295, AchievedAt: now}); err != nil {
		t.Fatalf("SavePowerRecord update: %v", err)
	}

	records, err := db.GetPowerRecords()
	if err != nil {
		t.Fatal(err)
	}
	if r := records["20min"]; r.Watts != 295 || !r.AchievedAt.Equal(now) {
		t.Errorf("record = %+v", r)
	}
}

func TestProgramLifecycle(t *testing.T) {
	db := NewTestDB(t)

	p := &Program{
		ID:              "prog-1",
		GoalType:        "ftp_target",
		GoalDescription: "Raise FTP to 270",
		TargetDate:      "2026-08-01",
		HoursPerWeek:    10,
		SessionsPerWeek: 5,
		TotalWeeks:      12,
		MacroPlanJSON:   `{"total_weeks":12}`,
		Status:          ProgramActive,
	}
	if err := db.CreateProgram(p); err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}

	got, err := db.GetActiveProgram()
	if err != nil {
		t.Fatalf("GetActiveProgram: %v", err)
	}
	if got.ID != "prog-1" || got.TotalWeeks != 12 {
		t.Errorf("GetActiveProgram = %+v", got)
	}

	if err := db.UpdateProgramStatus("prog-1", ProgramCompleted); err != nil {
		t.Fatalf("UpdateProgramStatus: %v", err)
	}
	if _, err := db.GetActiveProgram(); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("completed program still active: %v", err)
	}
	if err := db.UpdateProgramStatus("missing", ProgramAbandoned); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("status on missing program = %v, want ErrProgramNotFound", err)
	}
}

func TestWeekPlansAndWorkouts(t *testing.T) {
	db := NewTestDB(t)
	if err := db.CreateProgram(&Program{
		ID: "prog-1", GoalType: "base_building", HoursPerWeek: 8,
		SessionsPerWeek: 4, TotalWeeks: 8, MacroPlanJSON: `{}`, Status: ProgramActive,
	}); err != nil {
		t.Fatal(err)
	}

	w := &WeekPlan{
		ProgramID:      "prog-1",
		WeekNumber:     1,
		Phase:          "Base",
		TargetTSS:      350,
		TargetSessions: 4,
		TargetHours:    8,
		Status:         WeekPlanned,
	}
	if err := db.SaveWeekPlan(w); err != nil {
		t.Fatalf("SaveWeekPlan: %v", err)
	}
	if w.ID == 0 {
		t.Fatal("SaveWeekPlan did not backfill the row ID")
	}

	// Re-planning the same week updates targets in place.
	w.TargetTSS = 320
	w.AdaptationNotes = "reduced after illness"
	if err := db.SaveWeekPlan(w); err != nil {
		t.Fatalf("SaveWeekPlan replan: %v", err)
	}

	got, err := db.GetWeekPlan("prog-1", 1)
	if err != nil {
		t.Fatalf("GetWeekPlan: %v", err)
	}
	if got.TargetTSS != 320 || got.AdaptationNotes != "reduced after illness" {
		t.Errorf("replan lost: %+v", got)
	}
	if got.ActualTSS != nil {
		t.Error("actuals must be nil before completion")
	}

	if err := db.CompleteWeek("prog-1", 1, 305, 4, 7.5, 49.2); err != nil {
		t.Fatalf("CompleteWeek: %v", err)
	}
	got, _ = db.GetWeekPlan("prog-1", 1)
	if got.Status != WeekCompleted || got.ActualTSS == nil || *got.ActualTSS != 305 {
		t.Errorf("completion lost: %+v", got)
	}
	if got.ActualCTL == nil || *got.ActualCTL != 49.2 {
		t.Errorf("ActualCTL = %v, want 49.2", got.ActualCTL)
	}

	workouts := []PlannedWorkout{
		{DayIndex: 1, WorkoutType: "Sweet Spot", TargetTSS: 112, TargetDurationMin: 90, StepsText: "WARMUP: 600, 0.50, 0.70"},
		{DayIndex: 2, WorkoutType: "Endurance", TargetTSS: 96, TargetDurationMin: 120},
	}
	if err := db.ReplaceWorkouts(got.ID, workouts); err != nil {
		t.Fatalf("ReplaceWorkouts: %v", err)
	}
	listed, err := db.ListWorkouts(got.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 || listed[0].WorkoutType != "Sweet Spot" || listed[1].DayIndex != 2 {
		t.Errorf("ListWorkouts = %+v", listed)
	}

	// Replacing again swaps the set.
	if err := db.ReplaceWorkouts(got.ID, workouts[:1]); err != nil {
		t.Fatal(err)
	}
	listed, _ = db.ListWorkouts(got.ID)
	if len(listed) != 1 {
		t.Errorf("ReplaceWorkouts left %d sessions, want 1", len(listed))
	}

	if _, err := db.GetWeekPlan("prog-1", 99); !errors.Is(err, ErrWeekPlanNotFound) {
		t.Errorf("missing week = %v, want ErrWeekPlanNotFound", err)
	}
}

func TestSyncState(t *testing.T) {
	db := NewTestDB(t)

	v, err := db.GetSyncState("last_sync")
	if err != nil || v != "" {
		t.Errorf("empty sync state = %q, %v", v, err)
	}

	if err := db.SetSyncState("last_sync", "2026-05-01T07:00:00Z"); err != nil {
		t.Fatalf("SetSyncState: %v", err)
	}
	if err := db.SetSyncState("last_sync", "2026-05-02T07:00:00Z"); err != nil {
		t.Fatalf("SetSyncState update: %v", err)
	}

	v, err = db.GetSyncState("last_sync")
	if err != nil {
		t.Fatal(err)
	}
	if v != "2026-05-02T07:00:00Z" {
		t.Errorf("sync state = %q", v)
	}
}
