// Package metrics computes per-ride training metrics (Normalized Power,
// Intensity Factor, Training Stress Score, zone time) and the CTL/ATL/TSB
// fitness signals from daily load history.
package metrics

import (
	"math"
	"time"

	"cyclecoach/internal/zones"
)

// rollingWindow is the smoothing window for Normalized Power, in samples.
// Power samples are assumed to arrive at 1 Hz.
const rollingWindow = 30

// NormalizedPower computes NP from a 1 Hz power stream: a 30-second rolling
// mean is raised to the 4th power, averaged, and the 4th root taken. The
// 4th-power weighting models the disproportionate physiological cost of
// power spikes. Returns 0 for empty input; streams shorter than the window
// are smoothed over their full length.
func NormalizedPower(watts []float64) float64 {
	if len(watts) == 0 {
		return 0
	}

	window := rollingWindow
	if len(watts) < window {
		window = len(watts)
	}

	// Rolling sum over the window, accumulating mean^4 as we go.
	var windowSum, fourthSum float64
	count := 0
	for i, w := range watts {
		windowSum += w
		if i >= window {
			windowSum -= watts[i-window]
		}
		if i >= window-1 {
			avg := windowSum / float64(window)
			fourthSum += avg * avg * avg * avg
			count++
		}
	}
	if count == 0 {
		return 0
	}

	return math.Pow(fourthSum/float64(count), 0.25)
}

// IntensityFactor is NP divided by FTP. Returns 0 when FTP is 0.
func IntensityFactor(normalizedPower, ftp float64) float64 {
	if ftp == 0 {
		return 0
	}
	return normalizedPower / ftp
}

// TrainingStressScore computes TSS, the unit of training load used
// throughout the planner:
//
//	TSS = (duration_sec x NP x IF) / (FTP x 3600) x 100
//
// One hour exactly at threshold scores 100. Returns 0 when FTP is 0.
func TrainingStressScore(durationSeconds int, normalizedPower, intensityFactor, ftp float64) float64 {
	if ftp == 0 {
		return 0
	}
	return float64(durationSeconds) * normalizedPower * intensityFactor / (ftp * 3600) * 100
}

// ZoneDurations holds seconds spent in each of the 7 percentage zones.
type ZoneDurations [7]int

// Total returns the summed seconds across all zones.
func (z ZoneDurations) Total() int {
	total := 0
	for _, s := range z {
		total += s
	}
	return total
}

// ZoneTimeDistribution buckets a 1 Hz power stream into the 7 percentage
// zones. Each sample lands in the single zone whose [low, high) bracket
// contains it, scanning in ascending order, so no sample is double-counted.
func ZoneTimeDistribution(watts []float64, ftp float64) ZoneDurations {
	var dist ZoneDurations
	zs := zones.FromThreshold(ftp)
	for _, w := range watts {
		for i, z := range zs {
			if w >= z.MinWatts && w < z.MaxWatts {
				dist[i]++
				break
			}
		}
	}
	return dist
}

// DailyLoad is the training load attributed to one activity on one day.
// Multiple activities on the same calendar day accumulate.
type DailyLoad struct {
	Date time.Time
	TSS  float64
}

// Fitness is the CTL/ATL/TSB snapshot at a point in time.
type Fitness struct {
	CTL float64 // chronic load, 42-day EWMA: "fitness"
	ATL float64 // acute load, 7-day EWMA: "fatigue"
	TSB float64 // CTL - ATL: "form"
}

// EWMA time constants, in days. The 42/7 pairing is the standard
// performance-management convention.
const (
	ctlTimeConstant = 42
	atlTimeConstant = 7
	lookbackDays    = 90
)

// ChronicAcuteBalance walks the 90 days before asOf in chronological order
// and folds each day's total TSS into the CTL and ATL averages, both seeded
// at 0. Days with no recorded load count as 0 - skipping them would produce
// a materially different result. Values are rounded to one decimal.
func ChronicAcuteBalance(loads []DailyLoad, asOf time.Time) Fitness {
	daily := make(map[string]float64)
	for _, l := range loads {
		daily[l.Date.Format("2006-01-02")] += l.TSS
	}

	var ctl, atl float64
	start := asOf.AddDate(0, 0, -lookbackDays)
	for i := 0; i < lookbackDays; i++ {
		day := start.AddDate(0, 0, i)
		tss := daily[day.Format("2006-01-02")]
		ctl += (tss - ctl) / ctlTimeConstant
		atl += (tss - atl) / atlTimeConstant
	}

	return Fitness{
		CTL: round1(ctl),
		ATL: round1(atl),
		TSB: round1(ctl - atl),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FormDescription translates a TSB value into coaching language.
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
