package narrative

import (
	"fmt"
	"strings"

	"cyclecoach/internal/plan"
)

const planSystemPrompt = `You are a world-class cycling coach and exercise physiologist designing a periodized training program. You respond with ONLY valid JSON, no markdown, no explanation.`

// planUserPrompt renders the rider context and the strict JSON contract the
// parser expects.
func planUserPrompt(req plan.NarrativeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "== PROGRAM PARAMETERS ==\n")
	fmt.Fprintf(&b, "- Goal: %s\n", req.Goal.Description)
	fmt.Fprintf(&b, "- Current FTP: %.0fW -> Target: %.0fW\n", req.CurrentFTP, req.TargetFTP)
	fmt.Fprintf(&b, "- Timeline: %d weeks (target date %s)\n", req.TotalWeeks, req.Goal.TargetDate)
	fmt.Fprintf(&b, "- Available volume: %.1fh/week, %d sessions/week\n", req.Goal.HoursPerWeek, req.Goal.SessionsPerWeek)
	fmt.Fprintf(&b, "- Current CTL: %.0f, starting weekly TSS: ~%d\n", req.CurrentCTL, req.StartingTSS)
	if req.FitnessAnalysis != "" {
		fmt.Fprintf(&b, "\n== RIDER ANALYSIS ==\n%s\n", req.FitnessAnalysis)
	}

	fmt.Fprintf(&b, `
== CONSTRAINTS ==
- Total weeks: %d
- Starting weekly TSS: ~%d
- Max sustainable weekly TSS: ~%d
- Recovery weeks: reduce TSS by 30-50%% from previous loading week
- Max TSS increase between loading weeks: 10%% per week
- All week numbers must be within 1 to %d

Generate ONLY valid JSON in this exact format:
{
    "total_weeks": %d,
    "periodization_model": "<name of model chosen>",
    "phases": [
        {
            "name": "<phase name>",
            "weeks": [<start_week>, <end_week>],
            "purpose": "<1-2 sentence physiological purpose>",
            "weekly_tss_range": [<min_tss>, <max_tss>],
            "zone_focus": ["<primary zone type>", "<secondary>"],
            "zone_distribution": {"Z1": 0.05, "Z2": 0.60, "Z3": 0.15, "Z4": 0.15, "Z5": 0.05},
            "key_workouts": ["<workout description 1>", "<workout description 2>"],
            "intensity_profile": "<description>"
        }
    ],
    "progression_rules": {
        "max_tss_increase_pct": 10,
        "recovery_week_frequency": 3,
        "recovery_week_tss_reduction_pct": 40,
        "max_ctl_ramp_rate": 7
    },
    "week_targets": [
        {"week": 1, "tss": <number>, "phase": "<phase name>", "is_recovery": false, "focus_note": "<brief note>"}
    ]
}

RULES:
- week_targets MUST have EXACTLY %d entries, one per week
- TSS progression must be smooth (no sudden jumps >10%% between loading weeks)
- Recovery weeks should have TSS 30-50%% lower than the previous loading week
- Phases must cover ALL weeks (no gaps)
`, req.TotalWeeks, req.StartingTSS, req.PeakTSS, req.TotalWeeks, req.TotalWeeks, req.TotalWeeks)

	return b.String()
}
