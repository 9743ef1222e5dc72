package plan

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"cyclecoach/internal/adaptation"
)

func TestWeeksUntil(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"12 weeks out", "2026-05-24", 12},
		{"past date clamps to minimum", "2026-01-01", 4},
		{"next week clamps to minimum", "2026-03-08", 4},
		{"a year out clamps to maximum", "2027-03-01", 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeeksUntil(tt.target, now)
			if err != nil {
				t.Fatalf("WeeksUntil(%q) error: %v", tt.target, err)
			}
			if got != tt.want {
				t.Errorf("WeeksUntil(%q) = %d, want %d", tt.target, got, tt.want)
			}
		})
	}

	if _, err := WeeksUntil("not-a-date", now); err == nil {
		t.Error("WeeksUntil should reject an unparseable date")
	}
}

func TestStartingAndPeakTSS(t *testing.T) {
	if got := StartingTSS(50); got != 350 {
		t.Errorf("StartingTSS(50) = %d, want 350", got)
	}
	if got := StartingTSS(10); got != 200 {
		t.Errorf("StartingTSS(10) = %d, want the 200 floor", got)
	}
	if got := PeakTSS(10); got != 550 {
		t.Errorf("PeakTSS(10) = %d, want 550", got)
	}
}

func TestFallbackPlanStructure(t *testing.T) {
	// 12-week base-building program for a rider at CTL 50 with 10 h/week.
	mp := FallbackPlan(12, 50, 10, GoalBaseBuilding)

	if mp.TotalWeeks != 12 {
		t.Errorf("TotalWeeks = %d, want 12", mp.TotalWeeks)
	}
	if len(mp.Phases) != 4 {
		t.Fatalf("phases = %d, want 4", len(mp.Phases))
	}
	if len(mp.WeekTargets) != 12 {
		t.Fatalf("week targets = %d, want 12", len(mp.WeekTargets))
	}

	// Base building: 50% base = 6 weeks, 25% build = 3, 15% peak = 1 (min),
	// remainder taper.
	base := mp.Phases[0]
	if base.Weeks != [2]int{1, 6} {
		t.Errorf("Base weeks = %v, want [1 6]", base.Weeks)
	}
	if mp.Phases[3].Weeks[1] != 12 {
		t.Errorf("Taper ends at week %d, want 12", mp.Phases[3].Weeks[1])
	}

	// Phases cover all weeks with no gaps.
	for i := 1; i < len(mp.Phases); i++ {
		if mp.Phases[i].Weeks[0] != mp.Phases[i-1].Weeks[1]+1 {
			t.Errorf("phase %q starts at %d, previous ends at %d",
				mp.Phases[i].Name, mp.Phases[i].Weeks[0], mp.Phases[i-1].Weeks[1])
		}
	}

	// Starting load: max(200, 50*7) = 350.
	if mp.WeekTargets[0].TSS != 350 {
		t.Errorf("week 1 TSS = %d, want 350", mp.WeekTargets[0].TSS)
	}
}

func TestFallbackPlanProgression(t *testing.T) {
	mp := FallbackPlan(12, 50, 10, GoalBaseBuilding)

	var lastLoading int
	for _, wt := range mp.WeekTargets {
		if wt.IsRecovery {
			// Recovery weeks drop to 60% of the previous loading week.
			want := int(float64(lastLoading) * 0.6)
			if wt.TSS != want {
				t.Errorf("recovery week %d TSS = %d, want %d", wt.Week, wt.TSS, want)
			}
			continue
		}
		if lastLoading > 0 {
			cap := float64(lastLoading) * 1.10
			if float64(wt.TSS) > cap+1 {
				t.Errorf("week %d TSS %d exceeds +10%% cap over %d", wt.Week, wt.TSS, lastLoading)
			}
		}
		lastLoading = wt.TSS
	}
}

func TestFallbackPlanRecoveryCadence(t *testing.T) {
	mp := FallbackPlan(16, 50, 10, GoalRacePrep)

	counter := 0
	for _, wt := range mp.WeekTargets {
		counter++
		phase := wt.Phase
		freq := 4
		if phase == "Build" || phase == "Peak" {
			freq = 3
		}
		if wt.IsRecovery {
			if counter < freq {
				t.Errorf("week %d recovery after only %d weeks in %s (freq %d)", wt.Week, counter, phase, freq)
			}
			counter = 0
		} else if counter > 4 {
			t.Errorf("week %d: %d consecutive loading weeks without recovery", wt.Week, counter)
		}
	}
}

func TestPhaseSplitByGoal(t *testing.T) {
	tests := []struct {
		goal     GoalType
		base     int
		build    int
		peak     int
	}{
		{GoalRacePrep, 7, 7, 3},
		{GoalFTPTarget, 8, 7, 3},
		{GoalBaseBuilding, 10, 5, 3},
	}
	for _, tt := range tests {
		base, build, peak, taper := phaseSplit(20, tt.goal)
		if base != tt.base || build != tt.build || peak != tt.peak {
			t.Errorf("phaseSplit(20, %s) = %d/%d/%d, want %d/%d/%d",
				tt.goal, base, build, peak, tt.base, tt.build, tt.peak)
		}
		if base+build+peak+taper != 20 {
			t.Errorf("phaseSplit(20, %s) weeks sum to %d", tt.goal, base+build+peak+taper)
		}
	}
}

type stubNarrative struct {
	plan *MacroPlan
	err  error
}

func (s *stubNarrative) GenerateMacroPlan(_ context.Context, _ NarrativeRequest) (*MacroPlan, error) {
	return s.plan, s.err
}

func TestBuildMacroPlanFallsBack(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	goal := Goal{
		Type:            GoalBaseBuilding,
		TargetDate:      "2026-05-24",
		HoursPerWeek:    10,
		SessionsPerWeek: 5,
	}

	t.Run("no generator", func(t *testing.T) {
		b := &Builder{}
		mp, err := b.BuildMacroPlan(context.Background(), goal, 250, 50, now)
		if err != nil {
			t.Fatalf("BuildMacroPlan: %v", err)
		}
		if mp.PeriodizationModel != "traditional_linear" {
			t.Errorf("model = %q, want fallback plan", mp.PeriodizationModel)
		}
		if mp.TotalWeeks != 12 {
			t.Errorf("TotalWeeks = %d, want 12", mp.TotalWeeks)
		}
	})

	t.Run("generator error", func(t *testing.T) {
		b := &Builder{Narrative: &stubNarrative{err: errors.New("api down")}}
		mp, err := b.BuildMacroPlan(context.Background(), goal, 250, 50, now)
		if err != nil {
			t.Fatalf("BuildMacroPlan: %v", err)
		}
		if mp.PeriodizationModel != "traditional_linear" {
			t.Error("generator error must fall back, not propagate")
		}
	})

	t.Run("generator plan missing week targets", func(t *testing.T) {
		thin := &MacroPlan{
			TotalWeeks:  12,
			Phases:      []Phase{{Name: "Base", Weeks: [2]int{1, 12}}},
			WeekTargets: []WeekTarget{{Week: 1, TSS: 300}},
		}
		b := &Builder{Narrative: &stubNarrative{plan: thin}}
		mp, err := b.BuildMacroPlan(context.Background(), goal, 250, 50, now)
		if err != nil {
			t.Fatalf("BuildMacroPlan: %v", err)
		}
		if mp.PeriodizationModel != "traditional_linear" {
			t.Error("under-filled generator plan must be rejected")
		}
	})

	t.Run("valid generator plan wins", func(t *testing.T) {
		full := FallbackPlan(12, 50, 10, GoalBaseBuilding)
		full.PeriodizationModel = "block"
		b := &Builder{Narrative: &stubNarrative{plan: full}}
		mp, err := b.BuildMacroPlan(context.Background(), goal, 250, 50, now)
		if err != nil {
			t.Fatalf("BuildMacroPlan: %v", err)
		}
		if mp.PeriodizationModel != "block" {
			t.Errorf("model = %q, want the generator's plan", mp.PeriodizationModel)
		}
	})

	t.Run("bad target date", func(t *testing.T) {
		badGoal := goal
		badGoal.TargetDate = "soon"
		if _, err := (&Builder{}).BuildMacroPlan(context.Background(), badGoal, 250, 50, now); err == nil {
			t.Error("unparseable target date must error")
		}
	})
}

func TestPlanWeek(t *testing.T) {
	planner := NewPlanner()
	mp := FallbackPlan(12, 50, 10, GoalBaseBuilding)
	goal := Goal{HoursPerWeek: 10, SessionsPerWeek: 5}

	t.Run("fresh rider gets the macro target", func(t *testing.T) {
		pw := planner.PlanWeek(mp, 1, goal, adaptation.Profile{TSB: 5, CTL: 50}, nil)
		if math.Abs(pw.Detail.TargetTSS-350) > 1e-9 {
			t.Errorf("TargetTSS = %v, want the macro 350", pw.Detail.TargetTSS)
		}
		if len(pw.Sessions) != 5 {
			t.Errorf("sessions = %d, want 5", len(pw.Sessions))
		}
		var sum float64
		for _, s := range pw.Sessions {
			sum += s.TargetTSS
		}
		if math.Abs(sum-pw.Detail.TargetTSS) > 0.5 {
			t.Errorf("session TSS sum %v != week target %v", sum, pw.Detail.TargetTSS)
		}
	})

	t.Run("fatigue scales the target", func(t *testing.T) {
		tests := []struct {
			tsb  float64
			want float64
		}{
			{-12, 350 * 0.9},
			{-17, 350 * 0.8},
			{-25, 350 * 0.5},
		}
		for _, tt := range tests {
			pw := planner.PlanWeek(mp, 1, goal, adaptation.Profile{TSB: tt.tsb, CTL: 50}, nil)
			if math.Abs(pw.Detail.TargetTSS-tt.want) > 1e-9 {
				t.Errorf("TSB %v: TargetTSS = %v, want %v", tt.tsb, pw.Detail.TargetTSS, tt.want)
			}
		}
	})

	t.Run("critical fatigue forces recovery", func(t *testing.T) {
		pw := planner.PlanWeek(mp, 1, goal, adaptation.Profile{TSB: -25, CTL: 50}, nil)
		if !pw.Detail.IsRecovery {
			t.Error("TSB -25 must mark the week as recovery")
		}
		if pw.Risk.Level != adaptation.RiskHigh {
			t.Errorf("risk = %q, want high", pw.Risk.Level)
		}
	})

	t.Run("compliance history compounds without re-counting fatigue", func(t *testing.T) {
		low := 250.0
		weeks := []adaptation.WeekSnapshot{
			{TargetTSS: 400, ActualTSS: &low},
			{TargetTSS: 400, ActualTSS: &low},
		}
		pw := planner.PlanWeek(mp, 1, goal, adaptation.Profile{TSB: -12, CTL: 50}, weeks)
		// 350 * 0.9 (fatigue) * 0.80 (under-compliance); the engine's own
		// TSB rule must not stack a second reduction.
		want := 350 * 0.9 * 0.80
		if math.Abs(pw.Detail.TargetTSS-want) > 1e-9 {
			t.Errorf("TargetTSS = %v, want %v", pw.Detail.TargetTSS, want)
		}
	})

	t.Run("macro recovery designation survives", func(t *testing.T) {
		var recoveryWeek int
		for _, wt := range mp.WeekTargets {
			if wt.IsRecovery {
				recoveryWeek = wt.Week
				break
			}
		}
		if recoveryWeek == 0 {
			t.Fatal("fallback plan has no recovery week")
		}
		pw := planner.PlanWeek(mp, recoveryWeek, goal, adaptation.Profile{TSB: 5}, nil)
		if !pw.Detail.IsRecovery {
			t.Errorf("week %d lost its recovery designation", recoveryWeek)
		}
	})

	t.Run("out-of-range week falls back to the first target", func(t *testing.T) {
		pw := planner.PlanWeek(mp, 99, goal, adaptation.Profile{TSB: 0}, nil)
		if math.Abs(pw.Detail.TargetTSS-350) > 1e-9 {
			t.Errorf("TargetTSS = %v, want first target 350", pw.Detail.TargetTSS)
		}
	})
}
