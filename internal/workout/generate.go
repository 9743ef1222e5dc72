package workout

import (
	"fmt"
	"math"
	"strings"
)

// Ramp bookends shared by every generated workout.
const (
	warmupSeconds   = 600
	cooldownSeconds = 600
)

// mainBlock is the workout-type template for the middle of a session.
// Steady blocks use Power; interval blocks use the on/off pair.
type mainBlock struct {
	steady   float64
	onSec    int
	onPower  float64
	offSec   int
	offPower float64
}

var blockTemplates = map[string]mainBlock{
	"Recovery":   {steady: 0.50},
	"Endurance":  {steady: 0.65},
	"Tempo":      {steady: 0.80},
	"Sweet Spot": {onSec: 600, onPower: 0.90, offSec: 300, offPower: 0.55},
	"Threshold":  {onSec: 1200, onPower: 1.00, offSec: 600, offPower: 0.55},
	"VO2max":     {onSec: 180, onPower: 1.15, offSec: 180, offPower: 0.50},
}

// GenerateSteps builds a structured workout for the given type, then scales
// its power levels so the estimated TSS lands on the target. The scale is
// clamped to keep interval sessions recognizable as such.
func GenerateSteps(workoutType string, targetTSS float64, targetDurationMin int) []Step {
	mainSeconds := targetDurationMin*60 - warmupSeconds - cooldownSeconds
	if mainSeconds < 600 {
		mainSeconds = 600
	}

	tmpl, ok := blockTemplates[workoutType]
	if !ok {
		tmpl = mainBlock{steady: 0.70}
	}

	steps := []Step{
		{Type: StepWarmup, DurationSeconds: warmupSeconds, PowerStart: 0.50, PowerEnd: 0.70},
	}

	if tmpl.onSec > 0 {
		repeat := mainSeconds / (tmpl.onSec + tmpl.offSec)
		if repeat < 1 {
			repeat = 1
		}
		steps = append(steps, Step{
			Type:        StepInterval,
			Repeat:      repeat,
			OnDuration:  tmpl.onSec,
			OnPower:     tmpl.onPower,
			OffDuration: tmpl.offSec,
			OffPower:    tmpl.offPower,
		})
	} else {
		steps = append(steps, Step{
			Type:            StepSteadyState,
			DurationSeconds: mainSeconds,
			Power:           tmpl.steady,
		})
	}

	steps = append(steps, Step{
		Type: StepCooldown, DurationSeconds: cooldownSeconds, PowerStart: 0.65, PowerEnd: 0.45,
	})

	return scaleToTarget(steps, targetTSS)
}

// scaleToTarget nudges all power values so the estimated TSS matches the
// target. TSS grows with the square of a uniform power scale, so the factor
// is sqrt(target/estimate), clamped to [0.7, 1.25].
func scaleToTarget(steps []Step, targetTSS float64) []Step {
	if targetTSS <= 0 {
		return steps
	}

	// FTP cancels out of the ratio; any nonzero value works here.
	est := EstimateFromSteps(steps, 250)
	if est.TSS <= 0 {
		return steps
	}

	scale := math.Sqrt(targetTSS / est.TSS)
	if scale < 0.7 {
		scale = 0.7
	}
	if scale > 1.25 {
		scale = 1.25
	}

	for i := range steps {
		steps[i].PowerStart *= scale
		steps[i].PowerEnd *= scale
		steps[i].Power *= scale
		steps[i].OnPower *= scale
		steps[i].OffPower *= scale
	}
	return steps
}

// Render writes steps back out in the line notation ParseSteps reads.
func Render(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		switch s.Type {
		case StepWarmup:
			fmt.Fprintf(&b, "WARMUP: %d, %.2f, %.2f\n", s.DurationSeconds, s.PowerStart, s.PowerEnd)
		case StepCooldown:
			fmt.Fprintf(&b, "COOLDOWN: %d, %.2f, %.2f\n", s.DurationSeconds, s.PowerStart, s.PowerEnd)
		case StepSteadyState:
			fmt.Fprintf(&b, "STEADYSTATE: %d, %.2f\n", s.DurationSeconds, s.Power)
		case StepInterval:
			fmt.Fprintf(&b, "INTERVAL: %d, %.2f, %d, %d, %.2f\n",
				s.OnDuration, s.OnPower, s.Repeat, s.OffDuration, s.OffPower)
		}
	}
	return b.String()
}
