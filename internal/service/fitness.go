package service

import (
	"fmt"
	"strings"
	"time"

	"cyclecoach/internal/metrics"
	"cyclecoach/internal/powerprofile"
	"cyclecoach/internal/store"
)

// FitnessSummary is the rider's current training state, assembled from
// stored rides. It feeds both the dashboard and the program builder.
type FitnessSummary struct {
	Fitness         metrics.Fitness
	WeeklyTSS       []float64 // oldest first, one entry per week
	ZoneShares      [7]float64
	RidesAnalyzed   int
	HoursPerWeekAvg float64
	Profile         powerprofile.Analysis
}

// analysisWeeks is how far back the fitness summary looks.
const analysisWeeks = 6

// currentFitness computes CTL/ATL/TSB from the stored ride history.
func currentFitness(db *store.DB, asOf time.Time) (metrics.Fitness, error) {
	since := asOf.AddDate(0, 0, -91)
	activities, err := db.ListActivitiesSince(since)
	if err != nil {
		return metrics.Fitness{}, err
	}

	var loads []metrics.DailyLoad
	for _, a := range activities {
		if a.TSS == nil {
			continue
		}
		loads = append(loads, metrics.DailyLoad{Date: a.StartDate, TSS: *a.TSS})
	}
	return metrics.ChronicAcuteBalance(loads, asOf), nil
}

// AnalyzeFitness summarizes the last six weeks of riding: load per week,
// time-in-zone shares, and the power profile.
func AnalyzeFitness(db *store.DB, ftp, weightKg float64, asOf time.Time) (*FitnessSummary, error) {
	fitness, err := currentFitness(db, asOf)
	if err != nil {
		return nil, err
	}

	since := asOf.AddDate(0, 0, -7*analysisWeeks)
	activities, err := db.ListActivitiesSince(since)
	if err != nil {
		return nil, err
	}

	summary := &FitnessSummary{
		Fitness:   fitness,
		WeeklyTSS: make([]float64, analysisWeeks),
	}

	var zoneTotals [7]int
	var totalSeconds int
	for _, a := range activities {
		week := int(a.StartDate.Sub(since).Hours() / (24 * 7))
		if week < 0 || week >= analysisWeeks {
			continue
		}
		summary.RidesAnalyzed++
		totalSeconds += a.DurationSeconds
		if a.TSS != nil {
			summary.WeeklyTSS[week] += *a.TSS
		}
		for i, sec := range a.ZoneSeconds {
			zoneTotals[i] += sec
		}
	}

	zoneSum := 0
	for _, sec := range zoneTotals {
		zoneSum += sec
	}
	if zoneSum > 0 {
		for i, sec := range zoneTotals {
			summary.ZoneShares[i] = float64(sec) / float64(zoneSum)
		}
	}
	summary.HoursPerWeekAvg = float64(totalSeconds) / 3600 / analysisWeeks

	records, err := db.GetPowerRecords()
	if err != nil {
		return nil, err
	}
	best := make(map[string]float64, len(records))
	for k, r := range records {
		best[k] = r.Watts
	}
	analyzer := powerprofile.NewAnalyzer(ftp, weightKg)
	summary.Profile = analyzer.AnalyzeBestEfforts(best)

	return summary, nil
}

// NarrativeText renders the summary as plain prose for the plan generator.
func (f *FitnessSummary) NarrativeText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current fitness: CTL %.1f, ATL %.1f, TSB %.1f (%s).\n",
		f.Fitness.CTL, f.Fitness.ATL, f.Fitness.TSB, metrics.FormDescription(f.Fitness.TSB))
	fmt.Fprintf(&b, "Last %d weeks: %d rides, averaging %.1f hours/week.\n",
		analysisWeeks, f.RidesAnalyzed, f.HoursPerWeekAvg)

	fmt.Fprintf(&b, "Weekly TSS trend:")
	for _, tss := range f.WeeklyTSS {
		fmt.Fprintf(&b, " %.0f", tss)
	}
	b.WriteString("\n")

	if f.RidesAnalyzed > 0 {
		fmt.Fprintf(&b, "Time in zone: Z1-2 %.0f%%, Z3-4 %.0f%%, Z5+ %.0f%%.\n",
			100*(f.ZoneShares[0]+f.ZoneShares[1]),
			100*(f.ZoneShares[2]+f.ZoneShares[3]),
			100*(f.ZoneShares[4]+f.ZoneShares[5]+f.ZoneShares[6]))
	}

	fmt.Fprintf(&b, "Rider type: %s.", f.Profile.RiderType)
	if len(f.Profile.Strengths) > 0 {
		fmt.Fprintf(&b, " Strengths: %s.", strings.Join(f.Profile.Strengths, ", "))
	}
	if len(f.Profile.Weaknesses) > 0 {
		fmt.Fprintf(&b, " Weaknesses: %s.", strings.Join(f.Profile.Weaknesses, ", "))
	}

	return b.String()
}
