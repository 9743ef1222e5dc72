package service

import (
	"errors"
	"time"

	"cyclecoach/internal/adaptation"
	"cyclecoach/internal/metrics"
	"cyclecoach/internal/plan"
	"cyclecoach/internal/powerprofile"
	"cyclecoach/internal/store"
	"cyclecoach/internal/zones"
)

// QueryService assembles read-side views over the store for the UI.
type QueryService struct {
	store  *store.DB
	ftp    float64
	weight float64
}

// NewQueryService creates a query service for the given athlete settings.
func NewQueryService(db *store.DB, ftp, weightKg float64) *QueryService {
	return &QueryService{store: db, ftp: ftp, weight: weightKg}
}

// Dashboard is everything the main screen shows.
type Dashboard struct {
	Profile      *store.Profile
	Fitness      metrics.Fitness
	Form         string
	CTLHistory   []float64 // oldest first, one point per day
	RecentRides  []*store.Activity
	Program      *store.Program
	Macro        *plan.MacroPlan
	CurrentWeek  *store.WeekPlan
	Workouts     []store.PlannedWorkout
	RecoverySoon bool
}

// ctlHistoryDays is how much chart history the dashboard shows.
const ctlHistoryDays = 42

// Dashboard builds the dashboard view as of now.
func (q *QueryService) Dashboard() (*Dashboard, error) {
	profile, err := q.store.GetProfile()
	if err != nil && !errors.Is(err, store.ErrNoProfile) {
		return nil, err
	}

	now := time.Now()
	fitness, err := currentFitness(q.store, now)
	if err != nil {
		return nil, err
	}

	history, err := q.ctlHistory(now)
	if err != nil {
		return nil, err
	}

	rides, err := q.store.ListActivities(10)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Profile:     profile,
		Fitness:     fitness,
		Form:        metrics.FormDescription(fitness.TSB),
		CTLHistory:  history,
		RecentRides: rides,
	}

	program, err := q.store.GetActiveProgram()
	if errors.Is(err, store.ErrProgramNotFound) {
		return d, nil
	}
	if err != nil {
		return nil, err
	}
	d.Program = program
	if d.Macro, err = decodeMacro(program); err != nil {
		return nil, err
	}

	weeks, err := q.store.ListWeekPlans(program.ID)
	if err != nil {
		return nil, err
	}
	d.CurrentWeek = currentWeek(weeks)
	if d.CurrentWeek != nil {
		if d.Workouts, err = q.store.ListWorkouts(d.CurrentWeek.ID); err != nil {
			return nil, err
		}

		target := d.Macro.TargetForWeek(d.CurrentWeek.WeekNumber)
		engine := adaptation.NewEngine()
		d.RecoverySoon = engine.RecommendRecoveryWeek(
			&target.IsRecovery, snapshotsBefore(weeks, d.CurrentWeek.WeekNumber), d.CurrentWeek.WeekNumber)
	}

	return d, nil
}

// ctlHistory computes the daily CTL curve for the chart window.
func (q *QueryService) ctlHistory(asOf time.Time) ([]float64, error) {
	since := asOf.AddDate(0, 0, -(ctlHistoryDays + 91))
	activities, err := q.store.ListActivitiesSince(since)
	if err != nil {
		return nil, err
	}

	var loads []metrics.DailyLoad
	for _, a := range activities {
		if a.TSS == nil {
			continue
		}
		loads = append(loads, metrics.DailyLoad{Date: a.StartDate, TSS: *a.TSS})
	}

	history := make([]float64, ctlHistoryDays)
	for i := 0; i < ctlHistoryDays; i++ {
		day := asOf.AddDate(0, 0, i-ctlHistoryDays+1)
		history[i] = metrics.ChronicAcuteBalance(loads, day).CTL
	}
	return history, nil
}

// currentWeek picks the week the rider is in: the first active week, else
// the first still-planned one.
func currentWeek(weeks []*store.WeekPlan) *store.WeekPlan {
	for _, w := range weeks {
		if w.Status == store.WeekActive {
			return w
		}
	}
	for _, w := range weeks {
		if w.Status == store.WeekPlanned {
			return w
		}
	}
	return nil
}

// Rides returns stored rides newest first.
func (q *QueryService) Rides(limit int) ([]*store.Activity, error) {
	return q.store.ListActivities(limit)
}

// PowerProfile builds the rider's power profile from stored records.
func (q *QueryService) PowerProfile() (powerprofile.Analysis, error) {
	records, err := q.store.GetPowerRecords()
	if err != nil {
		return powerprofile.Analysis{}, err
	}
	best := make(map[string]float64, len(records))
	for k, r := range records {
		best[k] = r.Watts
	}
	analyzer := powerprofile.NewAnalyzer(q.ftp, q.weight)
	return analyzer.AnalyzeBestEfforts(best), nil
}

// Zones returns the athlete's power zones and critical-power bands.
func (q *QueryService) Zones() ([]zones.Zone, []zones.CPBand) {
	return zones.FromThreshold(q.ftp), zones.CPBands(q.ftp)
}

// ProgramWeeks returns all weeks of the active program.
func (q *QueryService) ProgramWeeks(programID string) ([]*store.WeekPlan, error) {
	return q.store.ListWeekPlans(programID)
}

// Summary returns the six-week fitness analysis.
func (q *QueryService) Summary() (*FitnessSummary, error) {
	return AnalyzeFitness(q.store, q.ftp, q.weight, time.Now())
}
