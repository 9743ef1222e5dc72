package plan

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Program length bounds, in weeks.
const (
	minWeeks = 4
	maxWeeks = 24
)

// tssPerWeeklyHour converts available weekly hours into a sustainable peak
// weekly TSS.
const tssPerWeeklyHour = 55

// Builder constructs macro plans. Narrative is optional; when nil or
// failing, the deterministic fallback plan is used. FitnessAnalysis is
// free-form rider context passed through to the generator.
type Builder struct {
	Narrative       NarrativeGenerator
	FitnessAnalysis string
}

// WeeksUntil converts a target date into a program length clamped to 4-24
// weeks. Dates in the past or the near future still yield a 4-week program.
func WeeksUntil(targetDate string, now time.Time) (int, error) {
	target, err := time.Parse("2006-01-02", targetDate)
	if err != nil {
		return 0, fmt.Errorf("parse target date: %w", err)
	}
	weeks := int(target.Sub(now).Hours() / 24 / 7)
	if weeks < minWeeks {
		weeks = minWeeks
	}
	if weeks > maxWeeks {
		weeks = maxWeeks
	}
	return weeks, nil
}

// StartingTSS estimates a safe opening weekly load from chronic fitness,
// never below 200.
func StartingTSS(currentCTL float64) int {
	tss := int(currentCTL * 7)
	if tss < 200 {
		tss = 200
	}
	return tss
}

// PeakTSS is the highest weekly load the rider's available hours support.
func PeakTSS(hoursPerWeek float64) int {
	return int(hoursPerWeek * tssPerWeeklyHour)
}

// BuildMacroPlan produces the program's periodization structure. The
// narrative generator is tried first when configured; a generator error or
// an invalid plan falls back to the deterministic structure so program
// creation never fails outright.
func (b *Builder) BuildMacroPlan(ctx context.Context, goal Goal, currentFTP, currentCTL float64, now time.Time) (*MacroPlan, error) {
	totalWeeks, err := WeeksUntil(goal.TargetDate, now)
	if err != nil {
		return nil, err
	}

	targetFTP := goal.TargetFTP
	if targetFTP == 0 {
		targetFTP = currentFTP + 20
	}

	if b.Narrative != nil {
		req := NarrativeRequest{
			Goal:            goal,
			TotalWeeks:      totalWeeks,
			CurrentFTP:      currentFTP,
			TargetFTP:       targetFTP,
			CurrentCTL:      currentCTL,
			StartingTSS:     StartingTSS(currentCTL),
			PeakTSS:         PeakTSS(goal.HoursPerWeek),
			FitnessAnalysis: b.FitnessAnalysis,
		}
		if mp, err := b.Narrative.GenerateMacroPlan(ctx, req); err == nil {
			if validateMacroPlan(mp, totalWeeks) == nil {
				return mp, nil
			}
		}
	}

	return FallbackPlan(totalWeeks, currentCTL, goal.HoursPerWeek, goal.Type), nil
}

// validateMacroPlan checks a generated plan for structural sanity: phases
// present and at least 80% of the weeks targeted.
func validateMacroPlan(mp *MacroPlan, totalWeeks int) error {
	if mp == nil {
		return fmt.Errorf("nil plan")
	}
	if len(mp.Phases) == 0 {
		return fmt.Errorf("plan has no phases")
	}
	if len(mp.WeekTargets)*10 < totalWeeks*8 {
		return fmt.Errorf("insufficient week targets: got %d, expected ~%d", len(mp.WeekTargets), totalWeeks)
	}
	return nil
}

// phaseSplit returns the week counts of the four phases for the given goal.
// Base and Build get at least 2 weeks, Peak and Taper at least 1; Taper
// absorbs the rounding remainder.
func phaseSplit(totalWeeks int, goalType GoalType) (base, build, peak, taper int) {
	var basePct, buildPct, peakPct float64
	switch goalType {
	case GoalRacePrep:
		basePct, buildPct, peakPct = 0.35, 0.35, 0.15
	case GoalFTPTarget:
		basePct, buildPct, peakPct = 0.40, 0.35, 0.15
	default:
		basePct, buildPct, peakPct = 0.50, 0.25, 0.15
	}

	base = max(2, int(float64(totalWeeks)*basePct))
	build = max(2, int(float64(totalWeeks)*buildPct))
	peak = max(1, int(float64(totalWeeks)*peakPct))
	taper = max(1, totalWeeks-base-build-peak)
	return base, build, peak, taper
}

// FallbackPlan builds the deterministic traditional-linear plan: four phases
// with goal-dependent proportions, linear TSS ramp within each phase capped
// at +10% per loading week, and recovery weeks at 60% load every 3rd week in
// Build and Peak, every 4th elsewhere.
func FallbackPlan(totalWeeks int, currentCTL, hoursPerWeek float64, goalType GoalType) *MacroPlan {
	startingTSS := StartingTSS(currentCTL)
	peakTSS := PeakTSS(hoursPerWeek)

	baseWeeks, buildWeeks, peakWeeks, _ := phaseSplit(totalWeeks, goalType)

	phases := []Phase{
		{
			Name:           "Base",
			Weeks:          [2]int{1, baseWeeks},
			Purpose:        "Build aerobic foundation: mitochondrial density, capillary development, fat oxidation",
			WeeklyTSSRange: [2]int{startingTSS, int(float64(startingTSS) * 1.3)},
			ZoneFocus:      []string{"Endurance", "Tempo", "Sweet Spot"},
			ZoneDistribution: map[string]float64{
				"Z1": 0.05, "Z2": 0.60, "Z3": 0.20, "Z4": 0.10, "Z5": 0.05,
			},
			KeyWorkouts:      []string{"Long Z2 rides 2-3h", "Tempo blocks 3x15min", "Sweet Spot 2x20min"},
			IntensityProfile: "polarized_base: 80% Z1-Z2, 20% Z3-Z4",
		},
		{
			Name:           "Build",
			Weeks:          [2]int{baseWeeks + 1, baseWeeks + buildWeeks},
			Purpose:        "Develop race-specific power: lactate threshold, VO2max stimulus, muscular endurance",
			WeeklyTSSRange: [2]int{int(float64(startingTSS) * 1.3), peakTSS},
			ZoneFocus:      []string{"Sweet Spot", "Threshold", "VO2max"},
			ZoneDistribution: map[string]float64{
				"Z1": 0.05, "Z2": 0.45, "Z3": 0.10, "Z4": 0.20, "Z5": 0.15, "Z6": 0.05,
			},
			KeyWorkouts:      []string{"Threshold 2x20min @FTP", "VO2max 5x4min @120%", "Over-unders 4x8min"},
			IntensityProfile: "pyramidal: increasing threshold and VO2max volume",
		},
		{
			Name:           "Peak",
			Weeks:          [2]int{baseWeeks + buildWeeks + 1, baseWeeks + buildWeeks + peakWeeks},
			Purpose:        "Sharpen race fitness: neuromuscular power, race-pace specificity, top-end power",
			WeeklyTSSRange: [2]int{int(float64(peakTSS) * 0.9), peakTSS},
			ZoneFocus:      []string{"VO2max", "Threshold", "Anaerobic"},
			ZoneDistribution: map[string]float64{
				"Z1": 0.05, "Z2": 0.35, "Z3": 0.05, "Z4": 0.20, "Z5": 0.25, "Z6": 0.10,
			},
			KeyWorkouts:      []string{"VO2max 6x3min @125%", "Race-pace simulations", "Sprint + threshold combos"},
			IntensityProfile: "race_specific: high intensity, controlled volume",
		},
		{
			Name:           "Taper",
			Weeks:          [2]int{baseWeeks + buildWeeks + peakWeeks + 1, totalWeeks},
			Purpose:        "Supercompensation: reduce volume 40-60%, maintain intensity, arrive fresh and sharp",
			WeeklyTSSRange: [2]int{int(float64(peakTSS) * 0.4), int(float64(peakTSS) * 0.6)},
			ZoneFocus:      []string{"Recovery", "Endurance", "Threshold"},
			ZoneDistribution: map[string]float64{
				"Z1": 0.15, "Z2": 0.50, "Z3": 0.05, "Z4": 0.15, "Z5": 0.10, "Z6": 0.05,
			},
			KeyWorkouts:      []string{"Openers 3x3min @105%", "Short sharp efforts", "Easy spinning"},
			IntensityProfile: "taper: volume down 40-60%, keep 2 short intensity sessions",
		},
	}

	var targets []WeekTarget
	currentTSS := startingTSS
	recoveryCounter := 0

	for week := 1; week <= totalWeeks; week++ {
		phase := phases[0]
		for _, p := range phases {
			if p.Weeks[0] <= week && week <= p.Weeks[1] {
				phase = p
				break
			}
		}

		recoveryCounter++
		recoveryFreq := 4
		if phase.Name == "Build" || phase.Name == "Peak" {
			recoveryFreq = 3
		}
		isRecovery := recoveryCounter >= recoveryFreq

		var weekTSS int
		var note string
		if isRecovery {
			recoveryCounter = 0
			weekTSS = int(float64(currentTSS) * 0.6)
			note = "Recovery/adaptation week - reduce volume, maintain some intensity"
		} else {
			span := phase.Weeks[1] - phase.Weeks[0] + 1
			progress := float64(week-phase.Weeks[0]) / float64(max(1, span-1))
			target := float64(phase.WeeklyTSSRange[0]) +
				float64(phase.WeeklyTSSRange[1]-phase.WeeklyTSSRange[0])*progress
			maxIncrease := float64(currentTSS) * 1.10
			weekTSS = int(min(target, maxIncrease))
			currentTSS = weekTSS
			note = fmt.Sprintf("%s loading - focus on %s", phase.Name, joinFirst(phase.ZoneFocus, 2))
		}

		targets = append(targets, WeekTarget{
			Week:       week,
			TSS:        weekTSS,
			Phase:      phase.Name,
			IsRecovery: isRecovery,
			FocusNote:  note,
		})
	}

	return &MacroPlan{
		TotalWeeks:         totalWeeks,
		PeriodizationModel: "traditional_linear",
		Phases:             phases,
		ProgressionRules: ProgressionRules{
			MaxTSSIncreasePct:        10,
			RecoveryWeekFrequency:    4,
			RecoveryWeekReductionPct: 40,
			MaxCTLRampRate:           7,
		},
		WeekTargets: targets,
	}
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
