// Package powerprofile analyzes an athlete's power-duration curve: best
// sustainable power at canonical durations, comparison against a reference
// curve, rider-type classification, and all-time personal-record tracking.
package powerprofile

import (
	"fmt"
	"sort"
	"strings"
)

// Durations are the canonical power-curve durations, shortest first.
var Durations = []string{"5s", "15s", "30s", "1min", "5min", "20min", "60min"}

// DurationSeconds maps each canonical duration label to seconds.
var DurationSeconds = map[string]int{
	"5s":    5,
	"15s":   15,
	"30s":   30,
	"1min":  60,
	"5min":  300,
	"20min": 1200,
	"60min": 3600,
}

// ReferenceCurve is the benchmark power curve in W/kg for a strong
// competitive (cat 1/2) cyclist, per Allen & Coggan.
var ReferenceCurve = map[string]float64{
	"5s":    24.0, // neuromuscular
	"15s":   18.5, // anaerobic
	"30s":   15.0, // anaerobic
	"1min":  12.0, // anaerobic/VO2
	"5min":  6.5,  // VO2max
	"20min": 5.0,  // FTP/threshold
	"60min": 4.5,  // endurance
}

// Classification thresholds: percent of the reference curve.
const (
	strengthPct = 90
	weaknessPct = 70
	// A top-two score gap under this many points means the profile is too
	// ambiguous to label with a single rider type.
	allRounderGap = 10
)

const defaultWeightKg = 75

// Analysis is the full profile report for one athlete.
type Analysis struct {
	PowerCurveWatts map[string]float64
	PowerCurveWKg   map[string]float64
	Percentiles     map[string]float64 // percent of reference, per duration
	Strengths       []string           // durations scoring >= 90% of reference
	Weaknesses      []string           // durations scoring < 70% of reference
	RiderType       string
	Recommendations string
}

// Analyzer classifies a rider from best-effort power values.
type Analyzer struct {
	FTP      float64
	WeightKg float64
}

// NewAnalyzer returns an analyzer for the given FTP and body weight.
// A zero weight falls back to 75 kg so W/kg math stays defined.
func NewAnalyzer(ftp, weightKg float64) *Analyzer {
	if weightKg <= 0 {
		weightKg = defaultWeightKg
	}
	return &Analyzer{FTP: ftp, WeightKg: weightKg}
}

// AnalyzeBestEfforts builds the full profile report from best-effort watts
// keyed by canonical duration. Zero or missing durations are skipped.
func (a *Analyzer) AnalyzeBestEfforts(bestEfforts map[string]float64) Analysis {
	wkg := make(map[string]float64)
	percentiles := make(map[string]float64)
	for duration, watts := range bestEfforts {
		if watts <= 0 {
			continue
		}
		perKg := watts / a.WeightKg
		wkg[duration] = perKg
		if ref, ok := ReferenceCurve[duration]; ok {
			percentiles[duration] = perKg / ref * 100
		}
	}

	// Strengths and weaknesses listed best-first.
	ordered := make([]string, 0, len(percentiles))
	for d := range percentiles {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if percentiles[ordered[i]] != percentiles[ordered[j]] {
			return percentiles[ordered[i]] > percentiles[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})

	var strengths, weaknesses []string
	for _, d := range ordered {
		switch pct := percentiles[d]; {
		case pct >= strengthPct:
			strengths = append(strengths, d)
		case pct < weaknessPct:
			weaknesses = append(weaknesses, d)
		}
	}

	riderType := classifyRiderType(percentiles)

	return Analysis{
		PowerCurveWatts: bestEfforts,
		PowerCurveWKg:   wkg,
		Percentiles:     percentiles,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		RiderType:       riderType,
		Recommendations: recommendations(riderType, weaknesses),
	}
}

// riderTypes in fixed evaluation order so ties resolve deterministically.
var riderTypes = []string{"sprinter", "puncheur", "pursuiter", "time_trialist", "climber"}

// classifyRiderType scores five rider archetypes from weighted blends of the
// per-duration percentiles and picks the highest. When the top two scores
// are within 10 points the profile is called an all-rounder instead.
func classifyRiderType(percentiles map[string]float64) string {
	if len(percentiles) == 0 {
		return "balanced"
	}

	sprint := mean(percentiles["5s"], percentiles["15s"], percentiles["30s"])
	vo2 := mean(percentiles["1min"], percentiles["5min"])
	threshold := percentiles["20min"]
	endurance := percentiles["60min"]

	scores := map[string]float64{
		"sprinter":      sprint,
		"puncheur":      sprint*0.4 + vo2*0.6,
		"pursuiter":     vo2*0.5 + threshold*0.5,
		"time_trialist": threshold*0.6 + endurance*0.4,
		"climber":       vo2*0.3 + threshold*0.5 + endurance*0.2,
	}

	best := riderTypes[0]
	for _, rt := range riderTypes[1:] {
		if scores[rt] > scores[best] {
			best = rt
		}
	}

	sorted := make([]float64, 0, len(scores))
	for _, s := range scores {
		sorted = append(sorted, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if len(sorted) >= 2 && sorted[0]-sorted[1] < allRounderGap {
		return "all_rounder"
	}

	return best
}

func mean(vals ...float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

var typeRecommendations = map[string]string{
	"sprinter":      "Focus on maximal power and neuromuscular development. Don't neglect threshold work for race-long endurance.",
	"puncheur":      "Maintain your explosive power while building threshold and VO2max for longer climbs.",
	"pursuiter":     "Strong VO2max and threshold - work on sustaining high power for longer efforts.",
	"time_trialist": "Excellent sustained power. Add some VO2max and sprint work for race dynamics.",
	"climber":       "Good sustained power. Add force and sprint work for attacks and accelerations.",
	"all_rounder":   "Well-balanced profile. Focus on race-specific demands.",
}

// weaknessCategory maps a duration to the training system it exposes.
func weaknessCategory(duration string) string {
	switch duration {
	case "5s", "15s", "30s":
		return "Sprint/Neuromuscular"
	case "1min", "5min":
		return "VO2max/Anaerobic"
	case "20min":
		return "Threshold/FTP"
	case "60min":
		return "Endurance"
	}
	return ""
}

// recommendations builds deterministic coaching text from the rider type and
// the detected weak durations.
func recommendations(riderType string, weaknesses []string) string {
	parts := []string{}

	if rec, ok := typeRecommendations[riderType]; ok {
		parts = append(parts, rec)
	} else {
		parts = append(parts, "Balanced training approach recommended.")
	}

	var categories []string
	seen := make(map[string]bool)
	for _, w := range weaknesses {
		if cat := weaknessCategory(w); cat != "" && !seen[cat] {
			seen[cat] = true
			categories = append(categories, cat)
		}
	}
	if len(categories) > 0 {
		parts = append(parts, fmt.Sprintf("Address weaknesses in: %s", strings.Join(categories, ", ")))
	}

	return strings.Join(parts, " ")
}

// UpdateRecords merges current best efforts into all-time personal records.
// Each duration keeps the greater of current vs prior, so records never
// decrease and repeated calls with the same input are idempotent.
func UpdateRecords(currentBest, priorRecords map[string]float64) map[string]float64 {
	updated := make(map[string]float64, len(priorRecords)+len(currentBest))
	for d, w := range priorRecords {
		updated[d] = w
	}
	for d, w := range currentBest {
		if w > updated[d] {
			updated[d] = w
		}
	}
	return updated
}
