// Package adaptation holds the deterministic re-planning rules: compliance
// scoring for completed weeks, load multipliers from fatigue and compliance
// signals, overtraining risk detection, recovery-week scheduling, and the
// distribution of a weekly TSS target across sessions.
package adaptation

import (
	"fmt"
	"math"
	"strings"
)

// WeekSnapshot is the planned-vs-actual record of one training week.
// Actual fields are nil until the week completes.
type WeekSnapshot struct {
	WeekNumber     int
	Phase          string
	TargetTSS      float64
	TargetSessions int
	TargetHours    float64
	ActualTSS      *float64
	ActualSessions *int
	ActualHours    *float64
	ActualCTL      *float64
	Completed      bool
	Notes          string
}

// Profile is the rider's current fitness state.
type Profile struct {
	FTP      float64
	CTL      float64
	ATL      float64
	TSB      float64
	WeightKg float64
}

// Compliance scores one completed week against its targets.
type Compliance struct {
	TSSRatio        float64
	SessionsRatio   float64
	HoursRatio      float64
	WasRecoveryWeek bool
	Skipped         bool
	WeekNumber      int
	Phase           string
}

// Adjustments is the output of the weekly re-planning rules.
type Adjustments struct {
	TSSMultiplier float64
	ForceRecovery bool
	Reasons       []string
}

// RiskLevel orders overtraining risk from none to high.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskReport summarizes overtraining signals at a point in time.
type RiskReport struct {
	Level    RiskLevel
	Warnings []string
	TSB      float64
	CTL      float64
	ATL      float64
}

// SessionPlan is one planned session within a week.
type SessionPlan struct {
	DayIndex          int
	WorkoutType       string
	TargetTSS         float64
	TargetDurationMin int
}

// Engine applies the adaptation rules. The zero value is not usable;
// construct with NewEngine.
type Engine struct {
	// RecoveryTSSThreshold marks a week as recovery when its target TSS
	// falls below it.
	RecoveryTSSThreshold float64
	// PriorCTLOffset2Weeks estimates last week's starting CTL when two
	// weeks of history exist but the older week has no recorded CTL.
	PriorCTLOffset2Weeks float64
	// PriorCTLOffset1Week estimates it when only one week of history exists.
	PriorCTLOffset1Week float64
}

// NewEngine returns an engine with the standard thresholds.
func NewEngine() *Engine {
	return &Engine{
		RecoveryTSSThreshold: 300,
		PriorCTLOffset2Weeks: 7,
		PriorCTLOffset1Week:  10,
	}
}

// AnalyzeCompliance scores a completed week. A week with no recorded actual
// TSS is treated as skipped and scores zero on every ratio.
func (e *Engine) AnalyzeCompliance(week WeekSnapshot) Compliance {
	if week.ActualTSS == nil || *week.ActualTSS == 0 {
		return Compliance{Skipped: true}
	}

	c := Compliance{
		WasRecoveryWeek: week.TargetTSS < e.RecoveryTSSThreshold,
		WeekNumber:      week.WeekNumber,
		Phase:           week.Phase,
	}
	if week.TargetTSS > 0 {
		c.TSSRatio = *week.ActualTSS / week.TargetTSS
	}
	if week.TargetSessions > 0 && week.ActualSessions != nil {
		c.SessionsRatio = float64(*week.ActualSessions) / float64(week.TargetSessions)
	}
	if week.TargetHours > 0 && week.ActualHours != nil {
		c.HoursRatio = *week.ActualHours / week.TargetHours
	}
	return c
}

// CalculateAdjustments runs the fatigue and compliance rules for the week
// being planned. Critical fatigue (TSB below -20) short-circuits: the week
// becomes a forced recovery week at half load and no other rule applies.
// Otherwise multipliers stack and the result is clamped to [0.4, 1.5].
func (e *Engine) CalculateAdjustments(profile Profile, recentWeeks []WeekSnapshot) Adjustments {
	adj := Adjustments{TSSMultiplier: 1.0}
	tsb := profile.TSB

	if tsb < -20 {
		adj.ForceRecovery = true
		adj.TSSMultiplier = 0.5
		adj.Reasons = append(adj.Reasons,
			fmt.Sprintf("TSB critically low (%.1f), forcing recovery week to prevent overtraining", tsb))
		return adj
	}

	switch {
	case tsb < -10:
		adj.TSSMultiplier *= 0.85
		adj.Reasons = append(adj.Reasons, fmt.Sprintf("TSB below -10 (%.1f), reducing load by 15%%", tsb))
	case tsb > 15:
		adj.TSSMultiplier *= 1.10
		adj.Reasons = append(adj.Reasons,
			fmt.Sprintf("TSB very positive (%.1f), rider is fresh, increasing load by 10%%", tsb))
	}

	if len(recentWeeks) >= 2 {
		var ratios []float64
		for _, wk := range recentWeeks {
			if wk.ActualTSS != nil && *wk.ActualTSS > 0 && wk.TargetTSS > 0 {
				ratios = append(ratios, *wk.ActualTSS/wk.TargetTSS)
			}
		}
		if len(ratios) > 0 {
			var sum float64
			for _, r := range ratios {
				sum += r
			}
			avg := sum / float64(len(ratios))
			if avg < 0.70 {
				adj.TSSMultiplier *= 0.80
				adj.Reasons = append(adj.Reasons,
					fmt.Sprintf("Chronic under-compliance (%.0f%% of planned TSS), reducing targets to match actual capacity", avg*100))
			} else if avg > 1.20 {
				adj.TSSMultiplier *= 1.05
				adj.Reasons = append(adj.Reasons,
					fmt.Sprintf("Consistently exceeding targets (%.0f%%), slightly increasing load", avg*100))
			}
		}
	}

	if len(recentWeeks) >= 1 {
		recent := recentWeeks[len(recentWeeks)-1]
		if recent.ActualCTL != nil {
			prevCTL := profile.CTL - e.PriorCTLOffset1Week
			if len(recentWeeks) >= 2 {
				prev := recentWeeks[len(recentWeeks)-2]
				if prev.ActualCTL != nil {
					prevCTL = *prev.ActualCTL
				} else {
					prevCTL = profile.CTL - e.PriorCTLOffset2Weeks
				}
			}
			ramp := (*recent.ActualCTL - prevCTL) / 7
			if ramp > 7 {
				adj.TSSMultiplier *= 0.90
				adj.Reasons = append(adj.Reasons,
					fmt.Sprintf("CTL ramp too fast (%.1f TSS/day, max recommended 7), backing off", ramp))
			}
		}
	}

	adj.TSSMultiplier = math.Max(0.4, math.Min(1.5, adj.TSSMultiplier))
	return adj
}

// DetectOvertrainingRisk grades current fatigue signals. Later checks can
// only raise the level, never lower it.
func (e *Engine) DetectOvertrainingRisk(profile Profile, recentWeeks []WeekSnapshot) RiskReport {
	report := RiskReport{
		Level: RiskNone,
		TSB:   profile.TSB,
		CTL:   profile.CTL,
		ATL:   profile.ATL,
	}

	switch {
	case profile.TSB < -20:
		report.Level = RiskHigh
		report.Warnings = append(report.Warnings, "TSB below -20, high risk of overtraining")
	case profile.TSB < -15:
		report.Level = RiskMedium
		report.Warnings = append(report.Warnings, "TSB below -15, moderate fatigue accumulation")
	case profile.TSB < -10:
		report.Level = RiskLow
		report.Warnings = append(report.Warnings, "TSB below -10, slight fatigue buildup")
	}

	if profile.ATL > profile.CTL*1.3 {
		if report.Level == RiskNone {
			report.Level = RiskLow
		}
		report.Warnings = append(report.Warnings, "Acute load spiking relative to chronic fitness")
	}

	if len(recentWeeks) >= 2 {
		recent := recentWeeks[len(recentWeeks)-1]
		prev := recentWeeks[len(recentWeeks)-2]
		if recent.ActualCTL != nil && prev.ActualCTL != nil {
			gain := *recent.ActualCTL - *prev.ActualCTL
			if gain > 10 {
				if report.Level == RiskNone || report.Level == RiskLow {
					report.Level = RiskMedium
				}
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("CTL increased by %.1f in one week (>10 is aggressive)", gain))
			}
		}
	}

	return report
}

// RecommendRecoveryWeek decides whether the given week should be a recovery
// week. A non-nil macroFlag (the macro plan's designation for this week)
// wins outright. Otherwise recovery is due after 4 or more completed weeks
// without one; a completed week counts as recovery when its target TSS was
// below the threshold or its notes mention recovery.
func (e *Engine) RecommendRecoveryWeek(macroFlag *bool, weeks []WeekSnapshot, weekNumber int) bool {
	if macroFlag != nil {
		return *macroFlag
	}

	sinceRecovery := 0
	for i := len(weeks) - 1; i >= 0; i-- {
		wk := weeks[i]
		if wk.WeekNumber >= weekNumber {
			continue
		}
		if !wk.Completed {
			continue
		}
		sinceRecovery++
		if wk.TargetTSS < e.RecoveryTSSThreshold || containsRecovery(wk.Notes) {
			break
		}
	}
	return sinceRecovery >= 4
}

func containsRecovery(notes string) bool {
	return strings.Contains(strings.ToLower(notes), "recovery")
}

// sessionRatios maps session counts to hard-first TSS shares. Counts above
// six repeat the last share and renormalize so shares always sum to 1.
var sessionRatios = map[int][]float64{
	3: {0.40, 0.35, 0.25},
	4: {0.35, 0.30, 0.20, 0.15},
	5: {0.30, 0.25, 0.20, 0.15, 0.10},
	6: {0.25, 0.20, 0.18, 0.15, 0.12, 0.10},
}

func ratiosFor(sessions int) []float64 {
	if r, ok := sessionRatios[sessions]; ok {
		return r
	}
	if sessions > 6 {
		base := sessionRatios[6]
		r := make([]float64, sessions)
		copy(r, base)
		for i := len(base); i < sessions; i++ {
			r[i] = base[len(base)-1]
		}
		var sum float64
		for _, v := range r {
			sum += v
		}
		for i := range r {
			r[i] /= sum
		}
		return r
	}
	// 1 or 2 sessions: split evenly.
	r := make([]float64, sessions)
	for i := range r {
		r[i] = 1.0 / float64(sessions)
	}
	return r
}

// Duration divisors: TSS per minute at the assumed intensity factor for each
// effort class (IF^2 of roughly 0.55, 0.75, and 0.85).
const (
	recoveryDivisor = 0.30
	moderateDivisor = 0.56
	hardDivisor     = 0.72
)

// DistributeWeekLoad splits a weekly TSS target across sessions, hardest
// first. Sessions above 70 TSS cycle through the phase's focus types,
// sessions above 40 alternate Endurance and Tempo, and the rest are
// Recovery. Durations are estimated from the class's intensity factor and
// clamped to 45-180 minutes.
func (e *Engine) DistributeWeekLoad(targetTSS float64, sessions int, zoneFocus []string) []SessionPlan {
	if sessions <= 0 {
		return nil
	}

	ratios := ratiosFor(sessions)
	plans := make([]SessionPlan, 0, sessions)
	for i, ratio := range ratios {
		tss := targetTSS * ratio

		var workoutType string
		switch {
		case tss > 70:
			if len(zoneFocus) > 0 {
				workoutType = zoneFocus[i%len(zoneFocus)]
			} else {
				workoutType = "Sweet Spot"
			}
		case tss > 40:
			if i%2 == 0 {
				workoutType = "Endurance"
			} else {
				workoutType = "Tempo"
			}
		default:
			workoutType = "Recovery"
		}

		var duration int
		switch workoutType {
		case "Recovery":
			duration = int(tss / recoveryDivisor)
		case "Endurance", "Tempo":
			duration = int(tss / moderateDivisor)
		default:
			duration = int(tss / hardDivisor)
		}
		if duration < 45 {
			duration = 45
		}
		if duration > 180 {
			duration = 180
		}

		plans = append(plans, SessionPlan{
			DayIndex:          i + 1,
			WorkoutType:       workoutType,
			TargetTSS:         math.Round(tss*10) / 10,
			TargetDurationMin: duration,
		})
	}
	return plans
}
