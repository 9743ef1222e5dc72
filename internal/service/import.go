package service

import (
	"fmt"
	"time"

	"cyclecoach/internal/fitfile"
	"cyclecoach/internal/metrics"
	"cyclecoach/internal/store"
)

// ImportService brings rides in from FIT files instead of the API.
type ImportService struct {
	store *store.DB
	ftp   float64
}

// NewImportService creates a FIT import service.
func NewImportService(db *store.DB, ftp float64) *ImportService {
	return &ImportService{store: db, ftp: ftp}
}

// ImportFile decodes one FIT file, stores the ride with its power samples,
// and computes its training metrics. Re-importing the same file updates the
// existing row.
func (s *ImportService) ImportFile(path string) (*store.Activity, error) {
	result, err := fitfile.ParseFile(path)
	if err != nil {
		return nil, err
	}

	a := &result.Activity
	if _, err := s.store.UpsertActivity(a); err != nil {
		return nil, fmt.Errorf("storing ride: %w", err)
	}

	if len(result.Samples) > 0 {
		watts := sampleWatts(result.Samples)
		if err := s.store.SavePowerSamples(a.ID, watts); err != nil {
			return nil, fmt.Errorf("storing samples: %w", err)
		}

		np := metrics.NormalizedPower(watts)
		intensity := metrics.IntensityFactor(np, s.ftp)
		tss := metrics.TrainingStressScore(a.DurationSeconds, np, intensity, s.ftp)
		dist := metrics.ZoneTimeDistribution(watts, s.ftp)
		var zoneSeconds [7]int
		copy(zoneSeconds[:], dist[:])

		if err := s.store.UpdateActivityMetrics(a.ID, np, intensity, tss, zoneSeconds); err != nil {
			return nil, fmt.Errorf("storing metrics: %w", err)
		}
	}

	fitness, err := currentFitness(s.store, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateFitness(fitness.CTL, fitness.ATL, fitness.TSB, time.Now()); err != nil {
		return nil, err
	}

	return s.store.GetActivity(a.ID)
}

// sampleWatts converts offset samples to a dense 1 Hz wattage slice.
func sampleWatts(samples []store.PowerSample) []float64 {
	last := 0
	for _, s := range samples {
		if s.TimeOffset > last {
			last = s.TimeOffset
		}
	}
	watts := make([]float64, last+1)
	for _, s := range samples {
		watts[s.TimeOffset] = s.Watts
	}
	return watts
}
