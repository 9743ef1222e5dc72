package plan

import (
	"fmt"
	"strings"

	"cyclecoach/internal/adaptation"
)

// Planner turns a macro-plan week target into a concrete week of sessions,
// applying fatigue scaling and the adaptation engine's rules.
type Planner struct {
	Engine *adaptation.Engine
}

// NewPlanner returns a planner backed by a standard adaptation engine.
func NewPlanner() *Planner {
	return &Planner{Engine: adaptation.NewEngine()}
}

// PlannedWeek is the planner's full output for one week.
type PlannedWeek struct {
	Detail   WeekDetail
	Sessions []adaptation.SessionPlan
	Risk     adaptation.RiskReport
}

// PlanWeek plans the given week of a program. Fatigue scales the macro
// target directly (50% below TSB -20, 80% below -15, 90% below -10), then
// the adaptation engine's compliance and ramp rules apply on top. Recovery
// weeks keep their macro designation; critical fatigue can force one.
func (p *Planner) PlanWeek(
	macro *MacroPlan,
	weekNumber int,
	goal Goal,
	profile adaptation.Profile,
	recentWeeks []adaptation.WeekSnapshot,
) PlannedWeek {
	target := macro.TargetForWeek(weekNumber)
	phase := macro.PhaseByName(target.Phase)

	adjustedTSS := float64(target.TSS)
	forcedRecovery := false
	var notes string
	switch tsb := profile.TSB; {
	case tsb < -20:
		adjustedTSS *= 0.5
		forcedRecovery = true
		notes = fmt.Sprintf("FORCED RECOVERY - TSB critically low (%.1f). Reducing load by 50%%.", tsb)
	case tsb < -15:
		adjustedTSS *= 0.8
		notes = fmt.Sprintf("Reduced TSS by 20%% due to high fatigue (TSB: %.1f)", tsb)
	case tsb < -10:
		adjustedTSS *= 0.9
		notes = fmt.Sprintf("Minor load reduction due to accumulated fatigue (TSB: %.1f)", tsb)
	}

	// Fatigue is already applied above; feed the engine a neutral TSB so
	// only its compliance and CTL-ramp rules contribute here.
	complianceProfile := profile
	complianceProfile.TSB = 0
	adj := p.Engine.CalculateAdjustments(complianceProfile, recentWeeks)
	if len(recentWeeks) > 0 {
		adjustedTSS *= adj.TSSMultiplier
		if len(adj.Reasons) > 0 && notes == "" {
			notes = strings.Join(adj.Reasons, "; ")
		}
	}

	isRecovery := target.IsRecovery || forcedRecovery

	detail := WeekDetail{
		WeekNumber:      weekNumber,
		Phase:           target.Phase,
		TargetTSS:       adjustedTSS,
		TargetHours:     goal.HoursPerWeek,
		TargetSessions:  goal.SessionsPerWeek,
		ZoneFocus:       phase.ZoneFocus,
		IsRecovery:      isRecovery,
		AdaptationNotes: notes,
	}
	detail.Instructions = weekInstructions(detail, target, phase)

	sessions := p.Engine.DistributeWeekLoad(adjustedTSS, goal.SessionsPerWeek, phase.ZoneFocus)
	risk := p.Engine.DetectOvertrainingRisk(profile, recentWeeks)

	return PlannedWeek{Detail: detail, Sessions: sessions, Risk: risk}
}

func weekInstructions(detail WeekDetail, target WeekTarget, phase Phase) string {
	var b strings.Builder

	recoveryTag := ""
	if detail.IsRecovery {
		recoveryTag = " (RECOVERY WEEK)"
	}
	fmt.Fprintf(&b, "Week %d - %s Phase%s\n\n", detail.WeekNumber, detail.Phase, recoveryTag)
	fmt.Fprintf(&b, "Target TSS: %.0f | Zone Focus: %s\n", detail.TargetTSS, strings.Join(detail.ZoneFocus, ", "))
	fmt.Fprintf(&b, "Phase Purpose: %s\n", phase.Purpose)
	if target.FocusNote != "" {
		fmt.Fprintf(&b, "%s\n", target.FocusNote)
	}
	if len(phase.KeyWorkouts) > 0 {
		fmt.Fprintf(&b, "\nKey Workouts This Phase: %s\n", joinFirst(phase.KeyWorkouts, 3))
	}
	if detail.AdaptationNotes != "" {
		fmt.Fprintf(&b, "\nAdaptation: %s\n", detail.AdaptationNotes)
	}
	return b.String()
}
