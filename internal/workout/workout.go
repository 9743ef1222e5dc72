// Package workout models structured interval workouts: parsing the compact
// step notation, estimating training stress, validating against weekly plan
// targets, and exporting Zwift-compatible .zwo files.
package workout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StepType discriminates the four step shapes.
type StepType string

const (
	StepWarmup      StepType = "warmup"
	StepInterval    StepType = "intervals"
	StepSteadyState StepType = "steadystate"
	StepCooldown    StepType = "cooldown"
)

// Step is one block of a structured workout. Power values are fractions of
// FTP (0.75 = 75%). Warmup and cooldown ramp from PowerStart to PowerEnd;
// intervals repeat an on/off pair.
type Step struct {
	Type StepType

	// Warmup, cooldown, steady state.
	DurationSeconds int
	PowerStart      float64
	PowerEnd        float64
	Power           float64

	// Intervals.
	Repeat      int
	OnDuration  int
	OnPower     float64
	OffDuration int
	OffPower    float64
}

// TotalSeconds is the step's full duration including interval recoveries.
func (s Step) TotalSeconds() int {
	if s.Type == StepInterval {
		return (s.OnDuration + s.OffDuration) * s.Repeat
	}
	return s.DurationSeconds
}

// ParseSteps reads the line-oriented step notation:
//
//	WARMUP: duration_seconds, start_power, end_power
//	INTERVAL: on_seconds, on_power, repeat, off_seconds, off_power
//	STEADYSTATE: duration_seconds, power
//	COOLDOWN: duration_seconds, start_power, end_power
//
// Blank lines are skipped. Malformed lines are dropped with a warning rather
// than failing the whole workout.
func ParseSteps(text string) ([]Step, []string) {
	var steps []Step
	var warnings []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var step Step
		var err error
		switch {
		case strings.HasPrefix(line, "WARMUP:"):
			step, err = parseRamp(StepWarmup, strings.TrimPrefix(line, "WARMUP:"))
		case strings.HasPrefix(line, "INTERVAL:"):
			step, err = parseInterval(strings.TrimPrefix(line, "INTERVAL:"))
		case strings.HasPrefix(line, "STEADYSTATE:"):
			step, err = parseSteady(strings.TrimPrefix(line, "STEADYSTATE:"))
		case strings.HasPrefix(line, "COOLDOWN:"):
			step, err = parseRamp(StepCooldown, strings.TrimPrefix(line, "COOLDOWN:"))
		default:
			warnings = append(warnings, fmt.Sprintf("unrecognized step line: %q", line))
			continue
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not parse step line %q: %v", line, err))
			continue
		}
		steps = append(steps, step)
	}

	return steps, warnings
}

func splitFields(s string, want int) ([]string, error) {
	parts := strings.Split(s, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d fields, got %d", want, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func parseRamp(t StepType, rest string) (Step, error) {
	parts, err := splitFields(rest, 3)
	if err != nil {
		return Step{}, err
	}
	dur, err := strconv.Atoi(parts[0])
	if err != nil {
		return Step{}, err
	}
	start, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Step{}, err
	}
	end, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Step{}, err
	}
	return Step{Type: t, DurationSeconds: dur, PowerStart: start, PowerEnd: end}, nil
}

func parseSteady(rest string) (Step, error) {
	parts, err := splitFields(rest, 2)
	if err != nil {
		return Step{}, err
	}
	dur, err := strconv.Atoi(parts[0])
	if err != nil {
		return Step{}, err
	}
	power, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Step{}, err
	}
	return Step{Type: StepSteadyState, DurationSeconds: dur, Power: power}, nil
}

func parseInterval(rest string) (Step, error) {
	parts, err := splitFields(rest, 5)
	if err != nil {
		return Step{}, err
	}
	onDur, err := strconv.Atoi(parts[0])
	if err != nil {
		return Step{}, err
	}
	onPower, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Step{}, err
	}
	repeat, err := strconv.Atoi(parts[2])
	if err != nil {
		return Step{}, err
	}
	offDur, err := strconv.Atoi(parts[3])
	if err != nil {
		return Step{}, err
	}
	offPower, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return Step{}, err
	}
	return Step{
		Type:        StepInterval,
		Repeat:      repeat,
		OnDuration:  onDur,
		OnPower:     onPower,
		OffDuration: offDur,
		OffPower:    offPower,
	}, nil
}

// Estimate is the predicted load of a structured workout.
type Estimate struct {
	TSS             float64
	DurationMinutes int
	NormalizedPower float64
}

// EstimateFromSteps predicts TSS for the steps at the given FTP using the
// same 4th-power weighting as ride analysis. Ramps contribute at their mean
// power. Returns a zero estimate for an empty workout or zero FTP.
func EstimateFromSteps(steps []Step, ftp float64) Estimate {
	if ftp == 0 {
		return Estimate{}
	}

	var totalSeconds int
	var weightedSum float64
	for _, s := range steps {
		switch s.Type {
		case StepWarmup, StepCooldown:
			avg := (s.PowerStart + s.PowerEnd) / 2 * ftp
			totalSeconds += s.DurationSeconds
			weightedSum += math.Pow(avg, 4) * float64(s.DurationSeconds)
		case StepSteadyState:
			power := s.Power * ftp
			totalSeconds += s.DurationSeconds
			weightedSum += math.Pow(power, 4) * float64(s.DurationSeconds)
		case StepInterval:
			on := s.OnPower * ftp
			off := s.OffPower * ftp
			totalSeconds += (s.OnDuration + s.OffDuration) * s.Repeat
			weightedSum += (math.Pow(on, 4)*float64(s.OnDuration) +
				math.Pow(off, 4)*float64(s.OffDuration)) * float64(s.Repeat)
		}
	}
	if totalSeconds == 0 {
		return Estimate{}
	}

	np := math.Pow(weightedSum/float64(totalSeconds), 0.25)
	intensity := np / ftp
	tss := float64(totalSeconds) * np * intensity / (ftp * 3600) * 100

	return Estimate{
		TSS:             math.Round(tss*10) / 10,
		DurationMinutes: totalSeconds / 60,
		NormalizedPower: np,
	}
}

// Validation reports how a generated workout compares to its plan targets.
type Validation struct {
	Valid             bool
	Warnings          []string
	TSSDeviation      float64
	DurationDeviation float64
	TypeMatches       bool
}

// defaultTolerance is the allowed TSS and duration deviation.
const defaultTolerance = 0.15

// ValidateConstraints checks a workout estimate against its planned targets.
// TSS or duration outside the tolerance invalidates the workout; a workout
// type mismatch is only a warning.
func ValidateConstraints(est Estimate, workoutType string, targetTSS float64, targetDurationMin int, targetType string) Validation {
	v := Validation{Valid: true, TypeMatches: true}

	if targetTSS > 0 {
		v.TSSDeviation = math.Abs(est.TSS-targetTSS) / targetTSS
		if v.TSSDeviation > defaultTolerance {
			v.Valid = false
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"TSS mismatch: generated %.0f, target %.0f (%.0f%% deviation)",
				est.TSS, targetTSS, v.TSSDeviation*100))
		}
	}

	if targetDurationMin > 0 {
		v.DurationDeviation = math.Abs(float64(est.DurationMinutes-targetDurationMin)) / float64(targetDurationMin)
		if v.DurationDeviation > defaultTolerance {
			v.Valid = false
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"Duration mismatch: generated %dmin, target %dmin (%.0f%% deviation)",
				est.DurationMinutes, targetDurationMin, v.DurationDeviation*100))
		}
	}

	if !strings.EqualFold(workoutType, targetType) {
		v.TypeMatches = false
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"Type mismatch: generated %q, target %q", workoutType, targetType))
	}

	return v
}
