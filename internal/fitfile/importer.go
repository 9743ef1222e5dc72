// Package fitfile imports rides from Garmin FIT files recorded by head
// units and trainers.
package fitfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"cyclecoach/internal/store"
)

const invalidUint16 = 0xFFFF

// ImportResult is a decoded ride: the activity summary plus its 1 Hz power
// samples when the file carries power data.
type ImportResult struct {
	Activity store.Activity
	Samples  []store.PowerSample
}

// ParseFile decodes a FIT file from disk.
func ParseFile(path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	result, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if result.Activity.Name == "" {
		result.Activity.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return result, nil
}

// Parse decodes FIT data into an activity with power samples.
func Parse(data []byte) (*ImportResult, error) {
	fitFile, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding FIT file: %w", err)
	}

	activity, err := fitFile.Activity()
	if err != nil {
		return nil, fmt.Errorf("not an activity file: %w", err)
	}

	if len(activity.Sessions) == 0 {
		return nil, fmt.Errorf("no sessions in FIT file")
	}

	session := activity.Sessions[0]
	if session.Sport != fit.SportCycling {
		return nil, fmt.Errorf("not a cycling session: %v", session.Sport)
	}

	a := store.Activity{
		ExternalID:      fmt.Sprintf("fit-%d", session.StartTime.Unix()),
		Source:          "fit",
		Type:            "Ride",
		StartDate:       session.StartTime.UTC(),
		DurationSeconds: int(session.GetTotalTimerTimeScaled()),
		Distance:        session.GetTotalDistanceScaled(),
	}

	if session.TotalAscent != invalidUint16 {
		a.TotalElevationGain = float64(session.TotalAscent)
	}
	if session.AvgPower != invalidUint16 {
		avg := float64(session.AvgPower)
		a.AverageWatts = &avg
		a.DeviceWatts = true
	}
	if session.MaxPower != invalidUint16 {
		max := float64(session.MaxPower)
		a.MaxWatts = &max
	}
	if session.NormalizedPower != invalidUint16 {
		np := float64(session.NormalizedPower)
		a.WeightedAverageWatts = &np
	}

	samples := recordSamples(activity.Records, session.StartTime)
	if len(samples) > 0 {
		a.DeviceWatts = true
	}

	return &ImportResult{Activity: a, Samples: samples}, nil
}

// recordSamples extracts power samples from record messages. Offsets are
// seconds since the session start; records without power read as zero so
// coasting still counts toward elapsed time.
func recordSamples(records []*fit.RecordMsg, start time.Time) []store.PowerSample {
	var samples []store.PowerSample
	havePower := false

	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			continue
		}
		offset := int(rec.Timestamp.Sub(start).Seconds())
		if offset < 0 {
			continue
		}
		watts := 0.0
		if rec.Power != invalidUint16 {
			watts = float64(rec.Power)
			havePower = true
		}
		samples = append(samples, store.PowerSample{TimeOffset: offset, Watts: watts})
	}

	if !havePower {
		return nil
	}
	return samples
}
