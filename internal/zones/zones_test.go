package zones

import (
	"math"
	"testing"
)

func TestFromThreshold(t *testing.T) {
	for _, ftp := range []float64{150, 250, 320.5} {
		zones := FromThreshold(ftp)

		if len(zones) != 7 {
			t.Fatalf("FromThreshold(%v) returned %d zones, want 7", ftp, len(zones))
		}
		if zones[0].MinWatts != 0 {
			t.Errorf("zone 1 lower bound = %v, want 0", zones[0].MinWatts)
		}
		if !math.IsInf(zones[6].MaxWatts, 1) {
			t.Errorf("zone 7 upper bound = %v, want +Inf", zones[6].MaxWatts)
		}

		// Boundaries must be strictly increasing and contiguous.
		for i := 0; i < len(zones); i++ {
			if zones[i].MinWatts >= zones[i].MaxWatts {
				t.Errorf("zone %d: min %v >= max %v", i+1, zones[i].MinWatts, zones[i].MaxWatts)
			}
			if i > 0 && zones[i].MinWatts != zones[i-1].MaxWatts {
				t.Errorf("zone %d min %v does not touch zone %d max %v",
					i+1, zones[i].MinWatts, i, zones[i-1].MaxWatts)
			}
		}
	}
}

func TestFromThresholdBoundaries(t *testing.T) {
	zones := FromThreshold(200)

	wantMax := []float64{110, 150, 180, 210, 240, 300}
	for i, want := range wantMax {
		if got := zones[i].MaxWatts; math.Abs(got-want) > 1e-9 {
			t.Errorf("zone %d max = %v, want %v", i+1, got, want)
		}
	}
}

func TestCPBands(t *testing.T) {
	bands := CPBands(250)

	if len(bands) != 8 {
		t.Fatalf("CPBands returned %d bands, want 8", len(bands))
	}

	// Durations run longest to shortest.
	for i := 1; i < len(bands); i++ {
		if bands[i].DurationMinutes >= bands[i-1].DurationMinutes {
			t.Errorf("band %s duration %v not shorter than previous %v",
				bands[i].Key, bands[i].DurationMinutes, bands[i-1].DurationMinutes)
		}
	}

	// CP30 is the sweet-spot band: 88-93% of 250 = 220-232.5 W.
	var cp30 *CPBand
	for i := range bands {
		if bands[i].Key == "CP30" {
			cp30 = &bands[i]
		}
	}
	if cp30 == nil {
		t.Fatal("CP30 band missing")
	}
	if cp30.MinWatts != 220 || cp30.MaxWatts != 232.5 {
		t.Errorf("CP30 window = [%v, %v], want [220, 232.5]", cp30.MinWatts, cp30.MaxWatts)
	}
}

func TestForWorkoutType(t *testing.T) {
	tests := []struct {
		workoutType string
		ftp         float64
		wantMin     float64
		wantMax     float64
	}{
		{"Sweet Spot", 250, 220, 232.5},
		{"Threshold", 250, 235, 262.5},
		{"Recovery", 200, 100, 120},
		{"VO2max", 300, 318, 360},
		{"Anaerobic", 200, 240, 360},
		{"something else", 200, 140, 160}, // unknown label falls back to 70-80%
		{"", 100, 70, 80},
	}

	for _, tt := range tests {
		t.Run(tt.workoutType, func(t *testing.T) {
			w := ForWorkoutType(tt.workoutType, tt.ftp)
			if math.Abs(w.MinWatts-tt.wantMin) > 1e-9 || math.Abs(w.MaxWatts-tt.wantMax) > 1e-9 {
				t.Errorf("ForWorkoutType(%q, %v) = [%v, %v], want [%v, %v]",
					tt.workoutType, tt.ftp, w.MinWatts, w.MaxWatts, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestAllKnownWorkoutTypesHaveWindows(t *testing.T) {
	for _, name := range WorkoutTypes {
		w := ForWorkoutType(name, 250)
		if w.CPBand == "Unknown" {
			t.Errorf("workout type %q fell back to the generic window", name)
		}
		if w.MinWatts >= w.MaxWatts {
			t.Errorf("workout type %q has inverted window [%v, %v]", name, w.MinWatts, w.MaxWatts)
		}
	}
}
