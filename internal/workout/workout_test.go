package workout

import (
	"math"
	"strings"
	"testing"
)

const sweetSpotText = `WARMUP: 600, 0.50, 0.70
INTERVAL: 1200, 0.90, 2, 300, 0.55
COOLDOWN: 600, 0.60, 0.45`

func TestParseSteps(t *testing.T) {
	steps, warnings := ParseSteps(sweetSpotText)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}

	if steps[0].Type != StepWarmup || steps[0].DurationSeconds != 600 ||
		steps[0].PowerStart != 0.50 || steps[0].PowerEnd != 0.70 {
		t.Errorf("warmup parsed as %+v", steps[0])
	}
	iv := steps[1]
	if iv.Type != StepInterval || iv.Repeat != 2 || iv.OnDuration != 1200 ||
		iv.OnPower != 0.90 || iv.OffDuration != 300 || iv.OffPower != 0.55 {
		t.Errorf("interval parsed as %+v", iv)
	}
	if iv.TotalSeconds() != (1200+300)*2 {
		t.Errorf("interval TotalSeconds = %d, want %d", iv.TotalSeconds(), (1200+300)*2)
	}
	if steps[2].Type != StepCooldown {
		t.Errorf("cooldown parsed as %+v", steps[2])
	}
}

func TestParseStepsSteadyState(t *testing.T) {
	steps, warnings := ParseSteps("STEADYSTATE: 3600, 0.65")
	if len(warnings) != 0 || len(steps) != 1 {
		t.Fatalf("steps=%v warnings=%v", steps, warnings)
	}
	if steps[0].Type != StepSteadyState || steps[0].DurationSeconds != 3600 || steps[0].Power != 0.65 {
		t.Errorf("steady state parsed as %+v", steps[0])
	}
}

func TestParseStepsBadLines(t *testing.T) {
	text := `WARMUP: 600, 0.50, 0.70
INTERVAL: not, numeric, at, all, here
GIBBERISH LINE

COOLDOWN: 600, 0.60`
	steps, warnings := ParseSteps(text)

	if len(steps) != 1 {
		t.Errorf("got %d steps, want only the valid warmup", len(steps))
	}
	// Bad interval, unrecognized line, and short cooldown each warn.
	if len(warnings) != 3 {
		t.Errorf("got %d warnings %v, want 3", len(warnings), warnings)
	}
}

func TestEstimateFromSteps(t *testing.T) {
	t.Run("steady hour at threshold is 100 TSS", func(t *testing.T) {
		steps := []Step{{Type: StepSteadyState, DurationSeconds: 3600, Power: 1.0}}
		est := EstimateFromSteps(steps, 250)
		if math.Abs(est.TSS-100) > 0.1 {
			t.Errorf("TSS = %v, want 100", est.TSS)
		}
		if est.DurationMinutes != 60 {
			t.Errorf("duration = %d, want 60", est.DurationMinutes)
		}
		if math.Abs(est.NormalizedPower-250) > 0.1 {
			t.Errorf("NP = %v, want 250", est.NormalizedPower)
		}
	})

	t.Run("ramps use mean power", func(t *testing.T) {
		steps := []Step{{Type: StepWarmup, DurationSeconds: 600, PowerStart: 0.4, PowerEnd: 0.8}}
		est := EstimateFromSteps(steps, 200)
		// Mean ramp power 0.6 * 200 = 120 W for 10 min.
		if math.Abs(est.NormalizedPower-120) > 0.1 {
			t.Errorf("NP = %v, want 120", est.NormalizedPower)
		}
	})

	t.Run("intervals weight the on portion", func(t *testing.T) {
		steps := []Step{{
			Type: StepInterval, Repeat: 5,
			OnDuration: 240, OnPower: 1.2,
			OffDuration: 240, OffPower: 0.5,
		}}
		est := EstimateFromSteps(steps, 250)
		if est.DurationMinutes != 40 {
			t.Errorf("duration = %d, want 40", est.DurationMinutes)
		}
		// 4th-power weighting pulls NP well above the 0.85 linear average.
		if est.NormalizedPower <= 0.85*250 {
			t.Errorf("NP = %v, want above linear average %v", est.NormalizedPower, 0.85*250)
		}
	})

	t.Run("guards", func(t *testing.T) {
		if est := EstimateFromSteps(nil, 250); est.TSS != 0 {
			t.Errorf("empty steps TSS = %v, want 0", est.TSS)
		}
		steps := []Step{{Type: StepSteadyState, DurationSeconds: 3600, Power: 1.0}}
		if est := EstimateFromSteps(steps, 0); est.TSS != 0 {
			t.Errorf("zero FTP TSS = %v, want 0", est.TSS)
		}
	})
}

func TestValidateConstraints(t *testing.T) {
	t.Run("within tolerance", func(t *testing.T) {
		v := ValidateConstraints(Estimate{TSS: 78, DurationMinutes: 85}, "Sweet Spot", 75, 90, "Sweet Spot")
		if !v.Valid {
			t.Errorf("workout within ±15%% flagged invalid: %v", v.Warnings)
		}
		if !v.TypeMatches {
			t.Error("matching types flagged as mismatch")
		}
	})

	t.Run("TSS out of tolerance", func(t *testing.T) {
		v := ValidateConstraints(Estimate{TSS: 100, DurationMinutes: 90}, "Sweet Spot", 75, 90, "Sweet Spot")
		if v.Valid {
			t.Error("33%% TSS deviation must invalidate")
		}
		if len(v.Warnings) == 0 || !strings.Contains(v.Warnings[0], "TSS mismatch") {
			t.Errorf("warnings = %v, want a TSS mismatch", v.Warnings)
		}
	})

	t.Run("duration out of tolerance", func(t *testing.T) {
		v := ValidateConstraints(Estimate{TSS: 75, DurationMinutes: 120}, "Sweet Spot", 75, 90, "Sweet Spot")
		if v.Valid {
			t.Error("long workout must invalidate")
		}
	})

	t.Run("type mismatch is a soft warning", func(t *testing.T) {
		v := ValidateConstraints(Estimate{TSS: 75, DurationMinutes: 90}, "Threshold", 75, 90, "Sweet Spot")
		if !v.Valid {
			t.Error("type mismatch alone must not invalidate")
		}
		if v.TypeMatches {
			t.Error("type mismatch not reported")
		}
		if len(v.Warnings) != 1 {
			t.Errorf("warnings = %v, want one type warning", v.Warnings)
		}
	})

	t.Run("case-insensitive type match", func(t *testing.T) {
		v := ValidateConstraints(Estimate{TSS: 75, DurationMinutes: 90}, "sweet spot", 75, 90, "Sweet Spot")
		if !v.TypeMatches {
			t.Error("type comparison must be case-insensitive")
		}
	})
}

func TestWriteZWO(t *testing.T) {
	steps, _ := ParseSteps(sweetSpotText)

	var b strings.Builder
	if err := WriteZWO(&b, "Sweet Spot 2x20", "Classic sweet spot session", steps); err != nil {
		t.Fatalf("WriteZWO: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"<workout_file>",
		"<name>Sweet Spot 2x20</name>",
		"<sportType>bike</sportType>",
		`<Warmup Duration="600" PowerLow="0.50" PowerHigh="0.70" pace="0">`,
		`<IntervalsT Repeat="2" OnDuration="1200" OffDuration="300" OnPower="0.90" OffPower="0.55" pace="0">`,
		`<Cooldown Duration="600" PowerLow="0.60" PowerHigh="0.45" pace="0">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}
