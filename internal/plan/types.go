// Package plan builds multi-week periodized training programs and plans
// individual weeks within them. The macro structure can come from a
// narrative generator; a deterministic fallback covers generator failure.
package plan

import "context"

// GoalType selects the phase proportions of the macro plan.
type GoalType string

const (
	GoalRacePrep     GoalType = "race_prep"
	GoalFTPTarget    GoalType = "ftp_target"
	GoalBaseBuilding GoalType = "base_building"
)

// Goal describes what the program is building toward.
type Goal struct {
	Type            GoalType `json:"goal_type"`
	Description     string   `json:"goal_description"`
	TargetDate      string   `json:"target_date"`
	TargetFTP       float64  `json:"target_ftp,omitempty"`
	HoursPerWeek    float64  `json:"hours_per_week"`
	SessionsPerWeek int      `json:"sessions_per_week"`
}

// Phase is one periodization block of the macro plan.
type Phase struct {
	Name             string             `json:"name"`
	Weeks            [2]int             `json:"weeks"` // inclusive start and end week
	Purpose          string             `json:"purpose"`
	WeeklyTSSRange   [2]int             `json:"weekly_tss_range"`
	ZoneFocus        []string           `json:"zone_focus"`
	ZoneDistribution map[string]float64 `json:"zone_distribution,omitempty"`
	KeyWorkouts      []string           `json:"key_workouts,omitempty"`
	IntensityProfile string             `json:"intensity_profile,omitempty"`
}

// WeekTarget is the macro plan's TSS target for one week.
type WeekTarget struct {
	Week       int    `json:"week"`
	TSS        int    `json:"tss"`
	Phase      string `json:"phase"`
	IsRecovery bool   `json:"is_recovery"`
	FocusNote  string `json:"focus_note,omitempty"`
}

// ProgressionRules are the safety limits baked into every macro plan.
type ProgressionRules struct {
	MaxTSSIncreasePct        int `json:"max_tss_increase_pct"`
	RecoveryWeekFrequency    int `json:"recovery_week_frequency"`
	RecoveryWeekReductionPct int `json:"recovery_week_tss_reduction_pct"`
	MaxCTLRampRate           int `json:"max_ctl_ramp_rate"`
}

// MacroPlan is the full multi-week periodization structure, serialized as
// JSON into program storage.
type MacroPlan struct {
	TotalWeeks         int              `json:"total_weeks"`
	PeriodizationModel string           `json:"periodization_model"`
	Phases             []Phase          `json:"phases"`
	ProgressionRules   ProgressionRules `json:"progression_rules"`
	WeekTargets        []WeekTarget     `json:"week_targets"`
	Rationale          string           `json:"program_rationale,omitempty"`
}

// TargetForWeek returns the macro target for the given week, falling back to
// the first target when the week is out of range.
func (m *MacroPlan) TargetForWeek(week int) WeekTarget {
	for _, wt := range m.WeekTargets {
		if wt.Week == week {
			return wt
		}
	}
	if len(m.WeekTargets) > 0 {
		return m.WeekTargets[0]
	}
	return WeekTarget{Week: week}
}

// PhaseByName returns the named phase, falling back to the first phase.
func (m *MacroPlan) PhaseByName(name string) Phase {
	for _, p := range m.Phases {
		if p.Name == name {
			return p
		}
	}
	if len(m.Phases) > 0 {
		return m.Phases[0]
	}
	return Phase{}
}

// WeekDetail is the fully planned week: adjusted target plus per-session
// distribution.
type WeekDetail struct {
	WeekNumber      int
	Phase           string
	TargetTSS       float64
	TargetHours     float64
	TargetSessions  int
	ZoneFocus       []string
	IsRecovery      bool
	Instructions    string
	AdaptationNotes string
}

// NarrativeGenerator produces a macro plan from rider context, typically via
// an external language-model API. Implementations return an error when the
// plan cannot be produced or fails validation; callers fall back to the
// deterministic plan.
type NarrativeGenerator interface {
	GenerateMacroPlan(ctx context.Context, req NarrativeRequest) (*MacroPlan, error)
}

// NarrativeRequest carries the rider context a generator needs.
type NarrativeRequest struct {
	Goal            Goal
	TotalWeeks      int
	CurrentFTP      float64
	TargetFTP       float64
	CurrentCTL      float64
	StartingTSS     int
	PeakTSS         int
	FitnessAnalysis string
}
