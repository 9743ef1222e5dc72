// Package service orchestrates the domain packages over the store: syncing
// rides, computing fitness, and managing training programs.
package service

import (
	"context"
	"fmt"
	"time"

	"cyclecoach/internal/metrics"
	"cyclecoach/internal/powerprofile"
	"cyclecoach/internal/store"
	"cyclecoach/internal/strava"
	"cyclecoach/internal/zones"
)

const (
	lastRideSyncKey = "last_ride_sync"

	// streams fetched per sync run, to stay inside Strava's 15-minute window
	streamBatchSize = 50
)

// SyncService pulls rides from Strava and keeps stored metrics current.
type SyncService struct {
	client *strava.Client
	store  *store.DB
	ftp    float64
	weight float64
}

// NewSyncService creates a sync service. FTP and weight come from the athlete
// profile and drive the metric calculations.
func NewSyncService(client *strava.Client, db *store.DB, ftp, weightKg float64) *SyncService {
	return &SyncService{client: client, store: db, ftp: ftp, weight: weightKg}
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase       string // "rides", "streams", "metrics", "fitness", "records"
	Total       int
	Completed   int
	CurrentRide string
	Error       error
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	RidesFetched    int
	RidesStored     int
	StreamsFetched  int
	MetricsComputed int
	RecordsUpdated  int
	Fitness         metrics.Fitness
	RiderType       string
	Errors          []error
}

// SyncAll runs the full pipeline: rides, power streams, metrics, fitness,
// and power records.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	if err := s.syncRides(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing rides: %w", err)
	}
	if err := s.syncStreams(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing streams: %w", err)
	}
	if err := s.computeMetrics(ctx, progress, result); err != nil {
		return result, fmt.Errorf("computing metrics: %w", err)
	}
	if err := s.updateFitness(result); err != nil {
		return result, fmt.Errorf("updating fitness: %w", err)
	}
	if err := s.updateRecords(ctx, progress, result); err != nil {
		return result, fmt.Errorf("updating records: %w", err)
	}

	return result, nil
}

// syncRides fetches new rides since the last sync and stores them.
func (s *SyncService) syncRides(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	lastSyncStr, _ := s.store.GetSyncState(lastRideSyncKey)
	var after time.Time
	if lastSyncStr != "" {
		after, _ = time.Parse(time.RFC3339, lastSyncStr)
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "rides"}
	}

	rides, err := s.client.GetAllRides(ctx, after, func(fetched int) {
		if progress != nil {
			progress <- SyncProgress{Phase: "rides", Total: fetched, Completed: fetched}
		}
	})
	if err != nil {
		return err
	}
	result.RidesFetched = len(rides)

	for _, r := range rides {
		if _, err := s.store.UpsertActivity(convertRide(r)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing ride %d: %w", r.ID, err))
			continue
		}
		result.RidesStored++
	}

	s.store.SetSyncState(lastRideSyncKey, time.Now().Format(time.RFC3339))
	return nil
}

// syncStreams fetches 1 Hz power data for rides that still need it.
func (s *SyncService) syncStreams(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	activities, err := s.store.ListActivitiesNeedingSamples(streamBatchSize)
	if err != nil {
		return fmt.Errorf("finding rides needing streams: %w", err)
	}
	if len(activities) == 0 {
		return nil
	}

	for i, a := range activities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:       "streams",
				Total:       len(activities),
				Completed:   i,
				CurrentRide: a.Name,
			}
		}

		externalID, err := stravaActivityID(a.ExternalID)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		streams, err := s.client.GetPowerStream(ctx, externalID)
		if err != nil {
			// Some rides genuinely have no stream data
			result.Errors = append(result.Errors, fmt.Errorf("ride %d (%s): %w", a.ID, a.Name, err))
			continue
		}
		if !streams.HasWatts() {
			continue
		}

		watts := resampleToSeconds(streams)
		if err := s.store.SavePowerSamples(a.ID, watts); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving samples for %d: %w", a.ID, err))
			continue
		}
		result.StreamsFetched++
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "streams", Total: len(activities), Completed: len(activities)}
	}
	return nil
}

// computeMetrics calculates NP, IF, TSS, and zone time for rides that need
// it. Sample data is preferred; the API's summary power fields are the
// fallback when no stream exists.
func (s *SyncService) computeMetrics(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	activities, err := s.store.ListActivitiesNeedingMetrics()
	if err != nil {
		return fmt.Errorf("finding rides needing metrics: %w", err)
	}
	if len(activities) == 0 {
		return nil
	}

	for i, a := range activities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:       "metrics",
				Total:       len(activities),
				Completed:   i,
				CurrentRide: a.Name,
			}
		}

		np, zoneSeconds, ok := s.rideMetrics(a)
		if !ok {
			continue
		}

		intensity := metrics.IntensityFactor(np, s.ftp)
		tss := metrics.TrainingStressScore(a.DurationSeconds, np, intensity, s.ftp)

		if err := s.store.UpdateActivityMetrics(a.ID, np, intensity, tss, zoneSeconds); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving metrics for %d: %w", a.ID, err))
			continue
		}
		result.MetricsComputed++
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "metrics", Total: len(activities), Completed: len(activities)}
	}
	return nil
}

// rideMetrics derives normalized power and zone time for one ride. Returns
// ok=false when the ride carries no usable power signal.
func (s *SyncService) rideMetrics(a *store.Activity) (np float64, zoneSeconds [7]int, ok bool) {
	if a.SamplesSynced {
		watts, err := s.store.GetPowerSamples(a.ID)
		if err == nil && len(watts) > 0 {
			np = metrics.NormalizedPower(watts)
			dist := metrics.ZoneTimeDistribution(watts, s.ftp)
			copy(zoneSeconds[:], dist[:])
			return np, zoneSeconds, true
		}
	}

	switch {
	case a.WeightedAverageWatts != nil && *a.WeightedAverageWatts > 0:
		np = *a.WeightedAverageWatts
	case a.AverageWatts != nil && *a.AverageWatts > 0:
		np = *a.AverageWatts
	default:
		return 0, zoneSeconds, false
	}

	// No stream: attribute the whole ride to the zone of its NP
	for i, z := range zones.FromThreshold(s.ftp) {
		if np >= z.MinWatts && np < z.MaxWatts {
			zoneSeconds[i] = a.DurationSeconds
			break
		}
	}
	return np, zoneSeconds, true
}

// updateFitness recomputes CTL/ATL/TSB from the last 90 days of rides.
func (s *SyncService) updateFitness(result *SyncResult) error {
	fitness, err := currentFitness(s.store, time.Now())
	if err != nil {
		return err
	}
	result.Fitness = fitness
	return s.store.UpdateFitness(fitness.CTL, fitness.ATL, fitness.TSB, time.Now())
}

// updateRecords refreshes the all-time power records from newly sampled
// rides and reclassifies the rider type.
func (s *SyncService) updateRecords(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	prior, err := s.store.GetPowerRecords()
	if err != nil {
		return fmt.Errorf("loading power records: %w", err)
	}
	priorWatts := make(map[string]float64, len(prior))
	for k, r := range prior {
		priorWatts[k] = r.Watts
	}

	activities, err := s.store.ListActivities(0)
	if err != nil {
		return fmt.Errorf("listing rides: %w", err)
	}

	best := make(map[string]float64)
	achieved := make(map[string]time.Time)
	for i, a := range activities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:       "records",
				Total:       len(activities),
				Completed:   i,
				CurrentRide: a.Name,
			}
		}

		efforts := s.rideBestEfforts(a)
		for key, watts := range efforts {
			if watts > best[key] {
				best[key] = watts
				achieved[key] = a.StartDate
			}
		}
	}

	merged := powerprofile.UpdateRecords(best, priorWatts)
	for key, watts := range merged {
		if watts <= priorWatts[key] {
			continue
		}
		at, okAt := achieved[key]
		if !okAt {
			at = time.Now()
		}
		if err := s.store.SavePowerRecord(store.PowerRecord{
			DurationKey: key,
			Watts:       watts,
			AchievedAt:  at,
		}); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving record %s: %w", key, err))
			continue
		}
		result.RecordsUpdated++
	}

	analyzer := powerprofile.NewAnalyzer(s.ftp, s.weight)
	analysis := analyzer.AnalyzeBestEfforts(merged)
	result.RiderType = analysis.RiderType
	return s.store.UpdateRiderType(analysis.RiderType)
}

// rideBestEfforts computes per-duration bests for one ride, from samples
// when available, otherwise from summary heuristics.
func (s *SyncService) rideBestEfforts(a *store.Activity) map[string]float64 {
	if a.SamplesSynced {
		watts, err := s.store.GetPowerSamples(a.ID)
		if err == nil && len(watts) > 0 {
			return powerprofile.BestEffortsFromSamples(watts)
		}
	}

	summary := powerprofile.ActivitySummary{DurationSeconds: a.DurationSeconds}
	if a.AverageWatts != nil {
		summary.AverageWatts = *a.AverageWatts
	}
	if a.MaxWatts != nil {
		summary.MaxWatts = *a.MaxWatts
	}
	if summary.AverageWatts == 0 && summary.MaxWatts == 0 {
		return nil
	}
	return powerprofile.EstimateBestEfforts([]powerprofile.ActivitySummary{summary})
}

// RateLimitStatus returns the current rate limit status from the client
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.client.RateLimitStatus()
}

// convertRide converts a Strava API activity to a store activity
func convertRide(a strava.Activity) *store.Activity {
	activity := &store.Activity{
		ExternalID:         fmt.Sprintf("strava-%d", a.ID),
		Source:             "strava",
		Name:               a.Name,
		Type:               a.Type,
		StartDate:          a.StartDate,
		DurationSeconds:    a.MovingTime,
		Distance:           a.Distance,
		TotalElevationGain: a.TotalElevationGain,
		DeviceWatts:        a.DeviceWatts,
		Trainer:            a.Trainer,
	}

	if a.AverageWatts > 0 {
		avg := a.AverageWatts
		activity.AverageWatts = &avg
	}
	if a.WeightedAverageWatts > 0 {
		wavg := a.WeightedAverageWatts
		activity.WeightedAverageWatts = &wavg
	}
	if a.MaxWatts > 0 {
		max := a.MaxWatts
		activity.MaxWatts = &max
	}

	return activity
}

// stravaActivityID recovers the numeric Strava ID from a stored external ID.
func stravaActivityID(externalID string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(externalID, "strava-%d", &id); err != nil {
		return 0, fmt.Errorf("external ID %q is not a strava ID", externalID)
	}
	return id, nil
}

// resampleToSeconds expands a Strava stream to a 1 Hz wattage slice indexed
// by elapsed second. Gaps (auto-pause, dropouts) read as zero power.
func resampleToSeconds(s *strava.Streams) []float64 {
	n := s.Len()
	if n == 0 || !s.HasWatts() {
		return nil
	}

	last := s.Time.Data[n-1]
	watts := make([]float64, last+1)
	for i := 0; i < n && i < len(s.Watts.Data); i++ {
		offset := s.Time.Data[i]
		if offset >= 0 && offset < len(watts) {
			watts[offset] = s.Watts.Data[i]
		}
	}
	return watts
}
